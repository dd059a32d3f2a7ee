package service

import (
	"context"

	"econet-data/internal/domain"
	"econet-data/internal/repository"

	"go.uber.org/zap"
)

// Scope 聚合查询范围：branch / company / org unit 三选一，全空表示全系统
type Scope struct {
	BranchID  string
	CompanyID string
	OrgUnitID string
}

// ResolverService 组织层级解析服务接口
// 把请求范围解析为具体的分支 ID 集合；空集合不是错误，
// 调用方应返回零值指标而非失败
type ResolverService interface {
	ResolveBranches(ctx context.Context, scope Scope) ([]string, error)
}

// resolverService 组织层级解析实现
type resolverService struct {
	branches repository.BranchesRepository
	orgUnits repository.OrgUnitsRepository
	logger   *zap.Logger
}

// NewResolverService 创建组织层级解析服务
func NewResolverService(
	branches repository.BranchesRepository,
	orgUnits repository.OrgUnitsRepository,
	logger *zap.Logger,
) ResolverService {
	return &resolverService{
		branches: branches,
		orgUnits: orgUnits,
		logger:   logger,
	}
}

// ResolveBranches 解析范围为分支 ID 集合
func (s *resolverService) ResolveBranches(ctx context.Context, scope Scope) ([]string, error) {
	// 直接指定分支：单元素集合，不做存在性检查（聚合层天然容忍空数据）
	if scope.BranchID != "" {
		return []string{scope.BranchID}, nil
	}

	if scope.OrgUnitID != "" {
		return s.resolveOrgUnit(ctx, scope.OrgUnitID)
	}

	// 公司范围：该公司全部非删除分支
	if scope.CompanyID != "" {
		return s.listBranchIDs(ctx, repository.BranchFilters{CompanyID: scope.CompanyID})
	}

	// 无范围（管理端全量查询）：全系统非删除分支
	return s.listBranchIDs(ctx, repository.BranchFilters{})
}

// resolveOrgUnit 按组织节点类型解析
func (s *resolverService) resolveOrgUnit(ctx context.Context, orgUnitID string) ([]string, error) {
	unit, err := s.orgUnits.GetOrgUnit(ctx, orgUnitID)
	if err != nil {
		if !domain.IsNotFound(err) {
			return nil, err
		}
		// 兼容回退：历史调用方会把 branch_id 当作 org_unit_id 传入，
		// 节点不存在时按分支 ID 再查一次；两者都不存在才算 NotFound
		if _, berr := s.branches.GetBranch(ctx, orgUnitID); berr != nil {
			if domain.IsNotFound(berr) {
				return nil, domain.NewNotFoundError("org unit", orgUnitID)
			}
			return nil, berr
		}
		s.logger.Debug("Org unit id resolved as branch id (compatibility fallback)",
			zap.String("org_unit_id", orgUnitID),
		)
		return []string{orgUnitID}, nil
	}

	switch unit.Type {
	case domain.OrgUnitBranch:
		if unit.BranchID == "" {
			return nil, domain.NewValidationError("branch org unit %s has no branch address", unit.OrgUnitID)
		}
		return []string{unit.BranchID}, nil
	case domain.OrgUnitCity:
		// 属性相等匹配：同公司、city 精确等于节点名
		return s.listBranchIDs(ctx, repository.BranchFilters{CompanyID: unit.CompanyID, City: unit.Name})
	case domain.OrgUnitCountry:
		return s.listBranchIDs(ctx, repository.BranchFilters{CompanyID: unit.CompanyID, Country: unit.Name})
	case domain.OrgUnitRegion:
		return s.listBranchIDs(ctx, repository.BranchFilters{CompanyID: unit.CompanyID, Subdivision: unit.Name})
	default:
		// Company 及未识别类型：该公司全部非删除分支
		return s.listBranchIDs(ctx, repository.BranchFilters{CompanyID: unit.CompanyID})
	}
}

func (s *resolverService) listBranchIDs(ctx context.Context, filters repository.BranchFilters) ([]string, error) {
	branches, err := s.branches.ListBranches(ctx, filters)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(branches))
	for _, branch := range branches {
		ids = append(ids, branch.BranchID)
	}
	return ids, nil
}
