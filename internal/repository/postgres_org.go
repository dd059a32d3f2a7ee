package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"econet-data/internal/domain"

	"github.com/lib/pq"
)

// PostgresBranchesRepository 分支 Repository 实现（只读）
type PostgresBranchesRepository struct {
	db *sql.DB
}

// NewPostgresBranchesRepository 创建分支 Repository
func NewPostgresBranchesRepository(db *sql.DB) *PostgresBranchesRepository {
	return &PostgresBranchesRepository{db: db}
}

// 确保实现了接口
var _ BranchesRepository = (*PostgresBranchesRepository)(nil)

const branchSelect = `
	SELECT
		branch_id::text,
		company_id::text,
		COALESCE(branch_name, '') as branch_name,
		COALESCE(city, '') as city,
		COALESCE(country, '') as country,
		COALESCE(subdivision, '') as subdivision,
		COALESCE(is_deleted, false) as is_deleted
	FROM branches
`

// GetBranch 根据 branch_id 获取分支
func (r *PostgresBranchesRepository) GetBranch(ctx context.Context, branchID string) (*domain.Branch, error) {
	if branchID == "" {
		return nil, domain.NewValidationError("branch_id is required")
	}

	var branch domain.Branch
	err := r.db.QueryRowContext(ctx, branchSelect+` WHERE branch_id = $1::uuid`, branchID).Scan(
		&branch.BranchID,
		&branch.CompanyID,
		&branch.BranchName,
		&branch.City,
		&branch.Country,
		&branch.Subdivision,
		&branch.IsDeleted,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.NewNotFoundError("branch", branchID)
		}
		return nil, fmt.Errorf("failed to get branch: %w", err)
	}
	return &branch, nil
}

// ListBranches 按条件列出分支
// City/Country/Subdivision 为精确匹配；默认排除软删除分支
func (r *PostgresBranchesRepository) ListBranches(ctx context.Context, filters BranchFilters) ([]*domain.Branch, error) {
	where := []string{}
	args := []any{}
	argIdx := 1

	if !filters.IncludeDeleted {
		where = append(where, "COALESCE(is_deleted, false) = false")
	}
	if filters.CompanyID != "" {
		where = append(where, fmt.Sprintf("company_id = $%d::uuid", argIdx))
		args = append(args, filters.CompanyID)
		argIdx++
	}
	if filters.City != "" {
		where = append(where, fmt.Sprintf("city = $%d", argIdx))
		args = append(args, filters.City)
		argIdx++
	}
	if filters.Country != "" {
		where = append(where, fmt.Sprintf("country = $%d", argIdx))
		args = append(args, filters.Country)
		argIdx++
	}
	if filters.Subdivision != "" {
		where = append(where, fmt.Sprintf("subdivision = $%d", argIdx))
		args = append(args, filters.Subdivision)
		argIdx++
	}

	query := branchSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY branch_name, branch_id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list branches: %w", err)
	}
	defer rows.Close()

	return scanBranches(rows)
}

// ListBranchesByIDs 按 ID 集合批量获取分支
func (r *PostgresBranchesRepository) ListBranchesByIDs(ctx context.Context, branchIDs []string) ([]*domain.Branch, error) {
	if len(branchIDs) == 0 {
		return []*domain.Branch{}, nil
	}

	rows, err := r.db.QueryContext(ctx,
		branchSelect+` WHERE branch_id = ANY($1) ORDER BY branch_name, branch_id`,
		pq.Array(branchIDs),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list branches by ids: %w", err)
	}
	defer rows.Close()

	return scanBranches(rows)
}

func scanBranches(rows *sql.Rows) ([]*domain.Branch, error) {
	var branches []*domain.Branch
	for rows.Next() {
		var branch domain.Branch
		if err := rows.Scan(
			&branch.BranchID,
			&branch.CompanyID,
			&branch.BranchName,
			&branch.City,
			&branch.Country,
			&branch.Subdivision,
			&branch.IsDeleted,
		); err != nil {
			return nil, fmt.Errorf("failed to scan branch: %w", err)
		}
		branches = append(branches, &branch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate branches: %w", err)
	}
	return branches, nil
}

// PostgresOrgUnitsRepository 组织节点 Repository 实现（只读）
type PostgresOrgUnitsRepository struct {
	db *sql.DB
}

// NewPostgresOrgUnitsRepository 创建组织节点 Repository
func NewPostgresOrgUnitsRepository(db *sql.DB) *PostgresOrgUnitsRepository {
	return &PostgresOrgUnitsRepository{db: db}
}

// 确保实现了接口
var _ OrgUnitsRepository = (*PostgresOrgUnitsRepository)(nil)

// GetOrgUnit 根据 org_unit_id 获取组织节点
func (r *PostgresOrgUnitsRepository) GetOrgUnit(ctx context.Context, orgUnitID string) (*domain.OrgUnit, error) {
	if orgUnitID == "" {
		return nil, domain.NewValidationError("org_unit_id is required")
	}

	query := `
		SELECT
			org_unit_id::text,
			company_id::text,
			COALESCE(name, '') as name,
			unit_type,
			COALESCE(parent_id::text, '') as parent_id,
			COALESCE(branch_id::text, '') as branch_id
		FROM org_units
		WHERE org_unit_id = $1::uuid
	`

	var unit domain.OrgUnit
	err := r.db.QueryRowContext(ctx, query, orgUnitID).Scan(
		&unit.OrgUnitID,
		&unit.CompanyID,
		&unit.Name,
		&unit.Type,
		&unit.ParentID,
		&unit.BranchID,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.NewNotFoundError("org unit", orgUnitID)
		}
		return nil, fmt.Errorf("failed to get org unit: %w", err)
	}
	return &unit, nil
}

// PostgresCompaniesRepository 公司 Repository 实现（只读）
type PostgresCompaniesRepository struct {
	db *sql.DB
}

// NewPostgresCompaniesRepository 创建公司 Repository
func NewPostgresCompaniesRepository(db *sql.DB) *PostgresCompaniesRepository {
	return &PostgresCompaniesRepository{db: db}
}

// 确保实现了接口
var _ CompaniesRepository = (*PostgresCompaniesRepository)(nil)

// GetCompany 根据 company_id 获取公司
func (r *PostgresCompaniesRepository) GetCompany(ctx context.Context, companyID string) (*domain.Company, error) {
	if companyID == "" {
		return nil, domain.NewValidationError("company_id is required")
	}

	query := `
		SELECT
			company_id::text,
			COALESCE(company_name, '') as company_name,
			COALESCE(is_deleted, false) as is_deleted
		FROM companies
		WHERE company_id = $1::uuid
	`

	var company domain.Company
	err := r.db.QueryRowContext(ctx, query, companyID).Scan(
		&company.CompanyID,
		&company.CompanyName,
		&company.IsDeleted,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.NewNotFoundError("company", companyID)
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return &company, nil
}

// PostgresCleanersRepository 清洁员 Repository 实现（身份查询）
type PostgresCleanersRepository struct {
	db *sql.DB
}

// NewPostgresCleanersRepository 创建清洁员 Repository
func NewPostgresCleanersRepository(db *sql.DB) *PostgresCleanersRepository {
	return &PostgresCleanersRepository{db: db}
}

// 确保实现了接口
var _ CleanersRepository = (*PostgresCleanersRepository)(nil)

// GetCleaner 根据 cleaner_id 获取清洁员
func (r *PostgresCleanersRepository) GetCleaner(ctx context.Context, cleanerID string) (*domain.Cleaner, error) {
	if cleanerID == "" {
		return nil, domain.NewValidationError("cleaner_id is required")
	}

	query := `
		SELECT
			cleaner_id::text,
			COALESCE(name, '') as name
		FROM cleaners
		WHERE cleaner_id = $1::uuid
	`

	var cleaner domain.Cleaner
	err := r.db.QueryRowContext(ctx, query, cleanerID).Scan(
		&cleaner.CleanerID,
		&cleaner.Name,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.NewNotFoundError("cleaner", cleanerID)
		}
		return nil, fmt.Errorf("failed to get cleaner: %w", err)
	}
	return &cleaner, nil
}
