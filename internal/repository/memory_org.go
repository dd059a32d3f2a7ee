package repository

import (
	"context"
	"sort"
	"sync"

	"econet-data/internal/domain"
)

// MemoryOrgRepository 内存版组织数据 Repository
// 同时实现分支/组织节点/公司/清洁员接口，用于 DB fallback 与单元测试
type MemoryOrgRepository struct {
	mu        sync.RWMutex
	branches  map[string]domain.Branch
	orgUnits  map[string]domain.OrgUnit
	companies map[string]domain.Company
	cleaners  map[string]domain.Cleaner
}

// NewMemoryOrgRepository 创建内存组织数据 Repository
func NewMemoryOrgRepository() *MemoryOrgRepository {
	return &MemoryOrgRepository{
		branches:  map[string]domain.Branch{},
		orgUnits:  map[string]domain.OrgUnit{},
		companies: map[string]domain.Company{},
		cleaners:  map[string]domain.Cleaner{},
	}
}

// 确保实现了接口
var (
	_ BranchesRepository  = (*MemoryOrgRepository)(nil)
	_ OrgUnitsRepository  = (*MemoryOrgRepository)(nil)
	_ CompaniesRepository = (*MemoryOrgRepository)(nil)
	_ CleanersRepository  = (*MemoryOrgRepository)(nil)
)

// PutBranch 写入/覆盖一个分支（种子数据）
func (r *MemoryOrgRepository) PutBranch(branch domain.Branch) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.branches[branch.BranchID] = branch
}

// PutOrgUnit 写入/覆盖一个组织节点（种子数据）
func (r *MemoryOrgRepository) PutOrgUnit(unit domain.OrgUnit) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orgUnits[unit.OrgUnitID] = unit
}

// PutCompany 写入/覆盖一个公司（种子数据）
func (r *MemoryOrgRepository) PutCompany(company domain.Company) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.companies[company.CompanyID] = company
}

// PutCleaner 写入/覆盖一个清洁员（种子数据）
func (r *MemoryOrgRepository) PutCleaner(cleaner domain.Cleaner) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cleaners[cleaner.CleanerID] = cleaner
}

// GetBranch 根据 branch_id 获取分支
func (r *MemoryOrgRepository) GetBranch(_ context.Context, branchID string) (*domain.Branch, error) {
	if branchID == "" {
		return nil, domain.NewValidationError("branch_id is required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	branch, ok := r.branches[branchID]
	if !ok {
		return nil, domain.NewNotFoundError("branch", branchID)
	}
	return &branch, nil
}

// ListBranches 按条件列出分支（精确匹配，默认排除软删除）
func (r *MemoryOrgRepository) ListBranches(_ context.Context, filters BranchFilters) ([]*domain.Branch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var branches []*domain.Branch
	for _, branch := range r.branches {
		if branch.IsDeleted && !filters.IncludeDeleted {
			continue
		}
		if filters.CompanyID != "" && branch.CompanyID != filters.CompanyID {
			continue
		}
		if filters.City != "" && branch.City != filters.City {
			continue
		}
		if filters.Country != "" && branch.Country != filters.Country {
			continue
		}
		if filters.Subdivision != "" && branch.Subdivision != filters.Subdivision {
			continue
		}
		b := branch
		branches = append(branches, &b)
	}

	sort.Slice(branches, func(i, j int) bool {
		if branches[i].BranchName != branches[j].BranchName {
			return branches[i].BranchName < branches[j].BranchName
		}
		return branches[i].BranchID < branches[j].BranchID
	})
	return branches, nil
}

// ListBranchesByIDs 按 ID 集合批量获取分支
func (r *MemoryOrgRepository) ListBranchesByIDs(_ context.Context, branchIDs []string) ([]*domain.Branch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var branches []*domain.Branch
	for _, id := range branchIDs {
		if branch, ok := r.branches[id]; ok {
			b := branch
			branches = append(branches, &b)
		}
	}

	sort.Slice(branches, func(i, j int) bool {
		if branches[i].BranchName != branches[j].BranchName {
			return branches[i].BranchName < branches[j].BranchName
		}
		return branches[i].BranchID < branches[j].BranchID
	})
	return branches, nil
}

// GetOrgUnit 根据 org_unit_id 获取组织节点
func (r *MemoryOrgRepository) GetOrgUnit(_ context.Context, orgUnitID string) (*domain.OrgUnit, error) {
	if orgUnitID == "" {
		return nil, domain.NewValidationError("org_unit_id is required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	unit, ok := r.orgUnits[orgUnitID]
	if !ok {
		return nil, domain.NewNotFoundError("org unit", orgUnitID)
	}
	return &unit, nil
}

// GetCompany 根据 company_id 获取公司
func (r *MemoryOrgRepository) GetCompany(_ context.Context, companyID string) (*domain.Company, error) {
	if companyID == "" {
		return nil, domain.NewValidationError("company_id is required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	company, ok := r.companies[companyID]
	if !ok {
		return nil, domain.NewNotFoundError("company", companyID)
	}
	return &company, nil
}

// GetCleaner 根据 cleaner_id 获取清洁员
func (r *MemoryOrgRepository) GetCleaner(_ context.Context, cleanerID string) (*domain.Cleaner, error) {
	if cleanerID == "" {
		return nil, domain.NewValidationError("cleaner_id is required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	cleaner, ok := r.cleaners[cleanerID]
	if !ok {
		return nil, domain.NewNotFoundError("cleaner", cleanerID)
	}
	return &cleaner, nil
}
