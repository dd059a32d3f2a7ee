package service

import (
	"context"
	"testing"

	"econet-data/internal/domain"
	"econet-data/internal/repository"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newResolverFixture(t *testing.T) (*repository.MemoryOrgRepository, ResolverService) {
	t.Helper()

	org := repository.NewMemoryOrgRepository()

	org.PutCompany(domain.Company{CompanyID: "company-1", CompanyName: "EcoNet Pty"})
	org.PutBranch(domain.Branch{
		BranchID: "branch-syd", CompanyID: "company-1", BranchName: "Sydney CBD",
		City: "Sydney", Country: "Australia", Subdivision: "NSW",
	})
	org.PutBranch(domain.Branch{
		BranchID: "branch-par", CompanyID: "company-1", BranchName: "Parramatta",
		City: "Sydney", Country: "Australia", Subdivision: "NSW",
	})
	org.PutBranch(domain.Branch{
		BranchID: "branch-mel", CompanyID: "company-1", BranchName: "Melbourne",
		City: "Melbourne", Country: "Australia", Subdivision: "VIC",
	})
	org.PutBranch(domain.Branch{
		BranchID: "branch-del", CompanyID: "company-1", BranchName: "Closed",
		City: "Sydney", Country: "Australia", Subdivision: "NSW", IsDeleted: true,
	})
	org.PutBranch(domain.Branch{
		BranchID: "branch-akl", CompanyID: "company-2", BranchName: "Auckland",
		City: "Auckland", Country: "New Zealand", Subdivision: "AKL",
	})

	return org, NewResolverService(org, org, zap.NewNop())
}

func TestResolveBranchIDIsSingleton(t *testing.T) {
	_, resolver := newResolverFixture(t)

	// 不做存在性检查：未知 branch_id 也返回单元素集合
	ids, err := resolver.ResolveBranches(context.Background(), Scope{BranchID: "whatever"})
	require.NoError(t, err)
	require.Equal(t, []string{"whatever"}, ids)
}

func TestResolveCompanyScope(t *testing.T) {
	_, resolver := newResolverFixture(t)

	ids, err := resolver.ResolveBranches(context.Background(), Scope{CompanyID: "company-1"})
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"branch-syd", "branch-par", "branch-mel"}, ids)
	require.NotContains(t, ids, "branch-del") // 软删除分支不参与
}

func TestResolveEmptyScopeIsAllBranches(t *testing.T) {
	_, resolver := newResolverFixture(t)

	ids, err := resolver.ResolveBranches(context.Background(), Scope{})
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"branch-syd", "branch-par", "branch-mel", "branch-akl"}, ids)
}

func TestResolveCityOrgUnitByAttributeEquality(t *testing.T) {
	org, resolver := newResolverFixture(t)
	org.PutOrgUnit(domain.OrgUnit{
		OrgUnitID: "unit-syd", CompanyID: "company-1", Name: "Sydney", Type: domain.OrgUnitCity,
	})

	ids, err := resolver.ResolveBranches(context.Background(), Scope{OrgUnitID: "unit-syd"})
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"branch-syd", "branch-par"}, ids)
}

func TestResolveRegionAndCountryOrgUnits(t *testing.T) {
	org, resolver := newResolverFixture(t)
	org.PutOrgUnit(domain.OrgUnit{
		OrgUnitID: "unit-nsw", CompanyID: "company-1", Name: "NSW", Type: domain.OrgUnitRegion,
	})
	org.PutOrgUnit(domain.OrgUnit{
		OrgUnitID: "unit-au", CompanyID: "company-1", Name: "Australia", Type: domain.OrgUnitCountry,
	})

	ids, err := resolver.ResolveBranches(context.Background(), Scope{OrgUnitID: "unit-nsw"})
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"branch-syd", "branch-par"}, ids)

	ids, err = resolver.ResolveBranches(context.Background(), Scope{OrgUnitID: "unit-au"})
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"branch-syd", "branch-par", "branch-mel"}, ids)
}

func TestResolveBranchOrgUnit(t *testing.T) {
	org, resolver := newResolverFixture(t)
	org.PutOrgUnit(domain.OrgUnit{
		OrgUnitID: "unit-branch", CompanyID: "company-1", Name: "Sydney CBD",
		Type: domain.OrgUnitBranch, BranchID: "branch-syd",
	})

	ids, err := resolver.ResolveBranches(context.Background(), Scope{OrgUnitID: "unit-branch"})
	require.NoError(t, err)
	require.Equal(t, []string{"branch-syd"}, ids)
}

func TestResolveBranchOrgUnitWithoutAddressFails(t *testing.T) {
	org, resolver := newResolverFixture(t)
	org.PutOrgUnit(domain.OrgUnit{
		OrgUnitID: "unit-dangling", CompanyID: "company-1", Name: "Dangling", Type: domain.OrgUnitBranch,
	})

	_, err := resolver.ResolveBranches(context.Background(), Scope{OrgUnitID: "unit-dangling"})
	require.Error(t, err)
	require.True(t, domain.IsValidation(err))
}

func TestResolveCompanyOrgUnitCoversWholeCompany(t *testing.T) {
	org, resolver := newResolverFixture(t)
	org.PutOrgUnit(domain.OrgUnit{
		OrgUnitID: "unit-root", CompanyID: "company-1", Name: "EcoNet Pty", Type: domain.OrgUnitCompany,
	})

	ids, err := resolver.ResolveBranches(context.Background(), Scope{OrgUnitID: "unit-root"})
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"branch-syd", "branch-par", "branch-mel"}, ids)
}

func TestResolveOrgUnitFallsBackToBranchID(t *testing.T) {
	// 历史调用方会把 branch_id 当作 org_unit_id 传入
	_, resolver := newResolverFixture(t)

	ids, err := resolver.ResolveBranches(context.Background(), Scope{OrgUnitID: "branch-mel"})
	require.NoError(t, err)
	require.Equal(t, []string{"branch-mel"}, ids)
}

func TestResolveUnknownOrgUnitReturnsNotFound(t *testing.T) {
	_, resolver := newResolverFixture(t)

	_, err := resolver.ResolveBranches(context.Background(), Scope{OrgUnitID: "nonexistent"})
	require.Error(t, err)
	require.True(t, domain.IsNotFound(err))
}
