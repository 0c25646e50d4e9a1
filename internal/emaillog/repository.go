package emaillog

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventlane/backend/internal/models"
)

// Repository handles email_logs persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an email log repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// RecordSent inserts a log row for a delivered invitation email.
func (r *Repository) RecordSent(ctx context.Context, el *models.EmailLog) error {
	const q = `INSERT INTO email_logs (id, scope_type, scope_id, membership_id, email_type, recipient_email, subject, status, sent_at)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, 'sent', NOW())
		RETURNING id, sent_at, created_at`
	return r.pool.QueryRow(ctx, q,
		string(el.ScopeType), el.ScopeID, el.MembershipID, el.EmailType, el.RecipientEmail, el.Subject,
	).Scan(&el.ID, &el.SentAt, &el.CreatedAt)
}

// RecordFailed inserts a log row for a delivery that gave up.
func (r *Repository) RecordFailed(ctx context.Context, el *models.EmailLog, errMsg string) error {
	const q = `INSERT INTO email_logs (id, scope_type, scope_id, membership_id, email_type, recipient_email, subject, status, error_message)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, 'failed', $7)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q,
		string(el.ScopeType), el.ScopeID, el.MembershipID, el.EmailType, el.RecipientEmail, el.Subject, errMsg,
	).Scan(&el.ID, &el.CreatedAt)
}

// ListByScope returns email logs for a scope, newest first.
func (r *Repository) ListByScope(ctx context.Context, scopeType models.ScopeType, scopeID uuid.UUID) ([]*models.EmailLog, error) {
	const q = `SELECT id, scope_type, scope_id, membership_id, email_type, recipient_email,
		COALESCE(subject, ''), status, sent_at, COALESCE(error_message, ''), created_at
		FROM email_logs
		WHERE scope_type = $1 AND scope_id = $2
		ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, string(scopeType), scopeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.EmailLog
	for rows.Next() {
		var el models.EmailLog
		var scope string
		if err := rows.Scan(&el.ID, &scope, &el.ScopeID, &el.MembershipID, &el.EmailType, &el.RecipientEmail,
			&el.Subject, &el.Status, &el.SentAt, &el.ErrorMessage, &el.CreatedAt); err != nil {
			return nil, err
		}
		el.ScopeType = models.ScopeType(scope)
		list = append(list, &el)
	}
	return list, rows.Err()
}
