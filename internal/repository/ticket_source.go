package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// TicketSource exposes the two seams the engine has into the external ticket
// store: the open-ticket working set and the SLA status writeback.
type TicketSource interface {
	FetchOpenTickets(ctx context.Context) ([]domain.Ticket, error)
	PersistSLAStatus(ctx context.Context, ticketID string, status domain.SLAStatus) error
}

type ticketSource struct {
	pool *pgxpool.Pool
}

// NewTicketSource instantiates a ticket source over the ticket service's
// Postgres schema.
func NewTicketSource(pool *pgxpool.Pool) TicketSource {
	return &ticketSource{pool: pool}
}

func (r *ticketSource) FetchOpenTickets(ctx context.Context) ([]domain.Ticket, error) {
	const query = `
        SELECT t.id, t.external_key, t.priority, t.status, t.assignee_staff_id,
               t.sla_resolution_due, t.sla_status, t.created_at,
               p.id, p.name, p.warning_threshold_percent,
               p.critical_response_minutes, p.critical_resolution_minutes,
               p.high_response_minutes, p.high_resolution_minutes,
               p.medium_response_minutes, p.medium_resolution_minutes,
               p.low_response_minutes, p.low_resolution_minutes
        FROM tickets t
        LEFT JOIN sla_policies p ON p.id = t.sla_policy_id
        WHERE t.status NOT IN ('RESOLVED','CLOSED')
        ORDER BY t.created_at`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []domain.Ticket
	for rows.Next() {
		var (
			t          domain.Ticket
			slaStatus  *string
			policyID   *string
			policyName *string
			threshold  *float64
			tiers      [8]*int
		)
		if err := rows.Scan(
			&t.ID, &t.Number, &t.Priority, &t.Status, &t.AssigneeID,
			&t.SLAResolutionDue, &slaStatus, &t.CreatedAt,
			&policyID, &policyName, &threshold,
			&tiers[0], &tiers[1], &tiers[2], &tiers[3],
			&tiers[4], &tiers[5], &tiers[6], &tiers[7],
		); err != nil {
			return nil, err
		}
		if slaStatus != nil {
			t.SLAStatus = domain.SLAStatus(*slaStatus)
		}
		if policyID != nil {
			t.Policy = buildPolicy(*policyID, policyName, threshold, tiers)
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

func (r *ticketSource) PersistSLAStatus(ctx context.Context, ticketID string, status domain.SLAStatus) error {
	const query = `UPDATE tickets SET sla_status=$1, updated_at=NOW() WHERE id=$2`
	_, err := r.pool.Exec(ctx, query, status, ticketID)
	return err
}

func buildPolicy(id string, name *string, threshold *float64, tiers [8]*int) *domain.SLAPolicy {
	policy := &domain.SLAPolicy{
		ID:      id,
		Targets: make(map[domain.TicketPriority]domain.SLATarget, 4),
	}
	if name != nil {
		policy.Name = *name
	}
	if threshold != nil {
		policy.WarningThresholdPercent = *threshold
	}

	set := func(p domain.TicketPriority, response, resolution *int) {
		var target domain.SLATarget
		if response != nil {
			target.Response = time.Duration(*response) * time.Minute
		}
		if resolution != nil {
			target.Resolution = time.Duration(*resolution) * time.Minute
		}
		policy.Targets[p] = target
	}
	set(domain.TicketPriorityCritical, tiers[0], tiers[1])
	set(domain.TicketPriorityHigh, tiers[2], tiers[3])
	set(domain.TicketPriorityMedium, tiers[4], tiers[5])
	set(domain.TicketPriorityLow, tiers[6], tiers[7])
	return policy
}
