package repository

import (
	"context"

	"econet-data/internal/domain"
)

// BranchFilters 分支查询条件
// City/Country/Subdivision 为精确匹配（组织层级按属性相等确定成员关系）
// 默认排除软删除分支
type BranchFilters struct {
	CompanyID      string
	City           string
	Country        string
	Subdivision    string
	IncludeDeleted bool
}

// BranchesRepository 分支数据访问接口（CRUD 由外部服务负责，本服务只读）
type BranchesRepository interface {
	// GetBranch 根据 branch_id 获取分支
	GetBranch(ctx context.Context, branchID string) (*domain.Branch, error)
	// ListBranches 按条件列出分支；空条件等于全系统非删除分支
	ListBranches(ctx context.Context, filters BranchFilters) ([]*domain.Branch, error)
	// ListBranchesByIDs 按 ID 集合批量获取分支
	ListBranchesByIDs(ctx context.Context, branchIDs []string) ([]*domain.Branch, error)
}

// OrgUnitsRepository 组织节点数据访问接口
type OrgUnitsRepository interface {
	// GetOrgUnit 根据 org_unit_id 获取组织节点
	GetOrgUnit(ctx context.Context, orgUnitID string) (*domain.OrgUnit, error)
}

// CompaniesRepository 公司数据访问接口
type CompaniesRepository interface {
	// GetCompany 根据 company_id 获取公司
	GetCompany(ctx context.Context, companyID string) (*domain.Company, error)
}

// CleanersRepository 清洁员身份查询接口
type CleanersRepository interface {
	// GetCleaner 根据 cleaner_id 获取清洁员
	GetCleaner(ctx context.Context, cleanerID string) (*domain.Cleaner, error)
}
