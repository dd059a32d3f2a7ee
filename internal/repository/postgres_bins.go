package repository

import (
	"context"
	"database/sql"
	"fmt"

	"econet-data/internal/domain"

	"github.com/lib/pq"
)

// PostgresBinsRepository 垃圾桶 Repository 实现（强类型版本）
type PostgresBinsRepository struct {
	db *sql.DB
}

// NewPostgresBinsRepository 创建垃圾桶 Repository
func NewPostgresBinsRepository(db *sql.DB) *PostgresBinsRepository {
	return &PostgresBinsRepository{db: db}
}

// 确保实现了接口
var _ BinsRepository = (*PostgresBinsRepository)(nil)

// GetBin 根据 bin_id 获取垃圾桶
func (r *PostgresBinsRepository) GetBin(ctx context.Context, binID string) (*domain.Bin, error) {
	if binID == "" {
		return nil, domain.NewValidationError("bin_id is required")
	}

	query := `
		SELECT
			bin_id::text,
			branch_id::text,
			company_id::text,
			bin_type,
			COALESCE(capacity_liters, 0) as capacity_liters,
			COALESCE(tare_weight, 0) as tare_weight,
			created_at
		FROM bins
		WHERE bin_id = $1::uuid
	`

	var bin domain.Bin
	err := r.db.QueryRowContext(ctx, query, binID).Scan(
		&bin.BinID,
		&bin.BranchID,
		&bin.CompanyID,
		&bin.BinType,
		&bin.CapacityLiters,
		&bin.TareWeight,
		&bin.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.NewNotFoundError("bin", binID)
		}
		return nil, fmt.Errorf("failed to get bin: %w", err)
	}

	return &bin, nil
}

// UpdateTareWeight 更新秤基线（cleaning 事件路径）
func (r *PostgresBinsRepository) UpdateTareWeight(ctx context.Context, binID string, tareWeight float64) error {
	if binID == "" {
		return domain.NewValidationError("bin_id is required")
	}
	if tareWeight < 0 {
		return domain.NewValidationError("tare_weight must be >= 0")
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE bins SET tare_weight = $2, updated_at = NOW() WHERE bin_id = $1::uuid`,
		binID, tareWeight,
	)
	if err != nil {
		return fmt.Errorf("failed to update tare weight: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check tare update: %w", err)
	}
	if affected == 0 {
		return domain.NewNotFoundError("bin", binID)
	}
	return nil
}

// ListBins 列出指定分支集合下的垃圾桶
func (r *PostgresBinsRepository) ListBins(ctx context.Context, branchIDs []string) ([]*domain.Bin, error) {
	if len(branchIDs) == 0 {
		return []*domain.Bin{}, nil
	}

	query := `
		SELECT
			bin_id::text,
			branch_id::text,
			company_id::text,
			bin_type,
			COALESCE(capacity_liters, 0) as capacity_liters,
			COALESCE(tare_weight, 0) as tare_weight,
			created_at
		FROM bins
		WHERE branch_id = ANY($1)
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(branchIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to list bins: %w", err)
	}
	defer rows.Close()

	var bins []*domain.Bin
	for rows.Next() {
		var bin domain.Bin
		if err := rows.Scan(
			&bin.BinID,
			&bin.BranchID,
			&bin.CompanyID,
			&bin.BinType,
			&bin.CapacityLiters,
			&bin.TareWeight,
			&bin.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan bin: %w", err)
		}
		bins = append(bins, &bin)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bins: %w", err)
	}

	return bins, nil
}
