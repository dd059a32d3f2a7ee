package repository

import (
	"context"
	"database/sql"
	"fmt"

	"econet-data/internal/domain"

	"github.com/lib/pq"
)

// PostgresWasteEventsRepository 称重事件 Repository 实现（强类型版本）
type PostgresWasteEventsRepository struct {
	db *sql.DB
}

// NewPostgresWasteEventsRepository 创建称重事件 Repository
func NewPostgresWasteEventsRepository(db *sql.DB) *PostgresWasteEventsRepository {
	return &PostgresWasteEventsRepository{db: db}
}

// 确保实现了接口
var _ WasteEventsRepository = (*PostgresWasteEventsRepository)(nil)

// InsertEvent 写入一条称重事件（仅追加）
func (r *PostgresWasteEventsRepository) InsertEvent(ctx context.Context, event *domain.WasteEvent) error {
	if event == nil {
		return domain.NewValidationError("event is required")
	}

	var cleanedBy sql.NullString
	if event.CleanedBy != "" {
		cleanedBy = sql.NullString{String: event.CleanedBy, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO waste_events (
			event_id, bin_id, branch_id, net_weight,
			event_type, is_cleaned, cleaned_by, created_at
		) VALUES ($1::uuid, $2::uuid, $3::uuid, $4, $5, $6, $7, $8)`,
		event.EventID,
		event.BinID,
		event.BranchID,
		event.NetWeight,
		string(event.EventType),
		event.IsCleaned,
		cleanedBy,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert waste event: %w", err)
	}
	return nil
}

// ListEvents 查询窗口内指定分支集合的事件（JOIN bins 带出垃圾桶类型）
func (r *PostgresWasteEventsRepository) ListEvents(ctx context.Context, filters EventFilters) ([]EventRow, error) {
	if len(filters.BranchIDs) == 0 {
		return []EventRow{}, nil
	}

	query := `
		SELECT
			e.event_id::text,
			e.bin_id::text,
			e.branch_id::text,
			e.net_weight,
			e.event_type,
			e.is_cleaned,
			COALESCE(e.cleaned_by::text, '') as cleaned_by,
			e.created_at,
			b.bin_type
		FROM waste_events e
		JOIN bins b ON e.bin_id = b.bin_id
		WHERE e.branch_id = ANY($1)
		  AND e.created_at >= $2
		  AND e.created_at < $3
		ORDER BY e.created_at
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(filters.BranchIDs), filters.Start, filters.End)
	if err != nil {
		return nil, fmt.Errorf("failed to list waste events: %w", err)
	}
	defer rows.Close()

	var result []EventRow
	for rows.Next() {
		var row EventRow
		if err := rows.Scan(
			&row.EventID,
			&row.BinID,
			&row.BranchID,
			&row.NetWeight,
			&row.EventType,
			&row.IsCleaned,
			&row.CleanedBy,
			&row.CreatedAt,
			&row.BinType,
		); err != nil {
			return nil, fmt.Errorf("failed to scan waste event: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate waste events: %w", err)
	}

	return result, nil
}
