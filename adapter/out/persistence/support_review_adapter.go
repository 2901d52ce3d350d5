package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"support_server/core/domain"
	"support_server/core/port/out"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// ReviewQueueRepository implements out.ReviewQueueRepository on Postgres.
type ReviewQueueRepository struct {
	db *sqlx.DB
}

// NewReviewQueueRepository creates a new ReviewQueueRepository.
func NewReviewQueueRepository(db *sqlx.DB) out.ReviewQueueRepository {
	return &ReviewQueueRepository{db: db}
}

func (r *ReviewQueueRepository) Create(ctx context.Context, item *domain.ReviewItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}
	if item.Status == "" {
		item.Status = domain.ReviewPending
	}

	query := `
		INSERT INTO review_queue (
			id, message_id, customer_email, order_number, reason,
			priority, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(ctx, query,
		item.ID, item.MessageID, item.CustomerEmail,
		nullString(item.OrderNumber), item.Reason,
		string(item.Priority), string(item.Status), item.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create review item: %w", err)
	}
	return nil
}

func (r *ReviewQueueRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ReviewItem, error) {
	query := `
		SELECT id, message_id, customer_email, order_number, reason,
		       priority, status, created_at, resolved_at, resolved_by
		FROM review_queue
		WHERE id = $1`

	var row reviewRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get review item: %w", err)
	}
	return row.toDomain(), nil
}

// ListPending returns open items, most urgent first, oldest first within a
// priority.
func (r *ReviewQueueRepository) ListPending(ctx context.Context) ([]*domain.ReviewItem, error) {
	query := `
		SELECT id, message_id, customer_email, order_number, reason,
		       priority, status, created_at, resolved_at, resolved_by
		FROM review_queue
		WHERE status = 'pending'
		ORDER BY CASE priority
		         WHEN 'high' THEN 3
		         WHEN 'medium' THEN 2
		         WHEN 'low' THEN 1
		         ELSE 0 END DESC,
		         created_at ASC`

	var rows []reviewRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list pending reviews: %w", err)
	}

	items := make([]*domain.ReviewItem, len(rows))
	for i, row := range rows {
		items[i] = row.toDomain()
	}
	return items, nil
}

func (r *ReviewQueueRepository) Resolve(ctx context.Context, id uuid.UUID, resolvedBy string) error {
	query := `
		UPDATE review_queue
		SET status = 'resolved', resolved_at = NOW(), resolved_by = $2
		WHERE id = $1 AND status = 'pending'`

	result, err := r.db.ExecContext(ctx, query, id, resolvedBy)
	if err != nil {
		return fmt.Errorf("resolve review item: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("resolve review item: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ReviewQueueRepository) CountByStatus(ctx context.Context) (pending, resolved int, err error) {
	query := `
		SELECT COUNT(*) FILTER (WHERE status = 'pending') AS pending,
		       COUNT(*) FILTER (WHERE status = 'resolved') AS resolved
		FROM review_queue`

	var row struct {
		Pending  int `db:"pending"`
		Resolved int `db:"resolved"`
	}
	if err := r.db.GetContext(ctx, &row, query); err != nil {
		return 0, 0, fmt.Errorf("count reviews: %w", err)
	}
	return row.Pending, row.Resolved, nil
}

// =============================================================================
// Row Types
// =============================================================================

type reviewRow struct {
	ID            uuid.UUID      `db:"id"`
	MessageID     string         `db:"message_id"`
	CustomerEmail string         `db:"customer_email"`
	OrderNumber   sql.NullString `db:"order_number"`
	Reason        string         `db:"reason"`
	Priority      string         `db:"priority"`
	Status        string         `db:"status"`
	CreatedAt     time.Time      `db:"created_at"`
	ResolvedAt    sql.NullTime   `db:"resolved_at"`
	ResolvedBy    sql.NullString `db:"resolved_by"`
}

func (r *reviewRow) toDomain() *domain.ReviewItem {
	item := &domain.ReviewItem{
		ID:            r.ID,
		MessageID:     r.MessageID,
		CustomerEmail: r.CustomerEmail,
		OrderNumber:   r.OrderNumber.String,
		Reason:        r.Reason,
		Priority:      domain.ReviewPriority(r.Priority),
		Status:        domain.ReviewStatus(r.Status),
		CreatedAt:     r.CreatedAt,
		ResolvedBy:    r.ResolvedBy.String,
	}
	if r.ResolvedAt.Valid {
		item.ResolvedAt = &r.ResolvedAt.Time
	}
	return item
}
