package domain

// Branch 分支机构（实体网点，归属一个 Company）
// city/country/subdivision 为冗余字符串，City/Region/Country 类型的
// OrgUnit 通过与这些字段做精确匹配来确定成员关系（弱外键设计，按现状保留）
type Branch struct {
	BranchID    string `db:"branch_id"`   // UUID
	CompanyID   string `db:"company_id"`  // UUID, NOT NULL
	BranchName  string `db:"branch_name"` // VARCHAR(200)
	City        string `db:"city"`
	Country     string `db:"country"`
	Subdivision string `db:"subdivision"` // 州/省
	IsDeleted   bool   `db:"is_deleted"`  // 软删除，已删分支不参与聚合
}

// Company 公司（租户）
type Company struct {
	CompanyID   string `db:"company_id"`
	CompanyName string `db:"company_name"`
	IsDeleted   bool   `db:"is_deleted"`
}

// OrgUnitType 组织节点类型
type OrgUnitType string

const (
	OrgUnitCompany OrgUnitType = "Company"
	OrgUnitCountry OrgUnitType = "Country"
	OrgUnitRegion  OrgUnitType = "Region"
	OrgUnitCity    OrgUnitType = "City"
	OrgUnitBranch  OrgUnitType = "Branch"
)

// OrgUnit 组织层级节点（每公司一棵树，根为 Company 类型或无父节点）
// branch_id 仅在 type=Branch 时有意义（指向具体分支）
type OrgUnit struct {
	OrgUnitID string      `db:"org_unit_id"` // UUID
	CompanyID string      `db:"company_id"`  // UUID, NOT NULL
	Name      string      `db:"name"`        // 节点名，非 Branch 节点按名称匹配分支属性
	Type      OrgUnitType `db:"unit_type"`
	ParentID  string      `db:"parent_id"` // UUID，根节点为空
	BranchID  string      `db:"branch_id"` // UUID，type=Branch 时必填
}

// Cleaner 清洁员（身份查询协作方，本服务只读）
type Cleaner struct {
	CleanerID string `db:"cleaner_id"`
	Name      string `db:"name"`
}
