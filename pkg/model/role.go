package model

// Role 药房岗位角色（封闭枚举）
type Role string

const (
	RolePharmacist      Role = "pharmacist"         // 药剂师
	RoleSalesperson     Role = "säljare"            // 销售
	RoleSelfCareAdvisor Role = "egenvårdsrådgivare" // 自我保健顾问
)

// AllRoles 全部角色，顺序固定（用于确定性的遍历与告警排序）
var AllRoles = []Role{RolePharmacist, RoleSalesperson, RoleSelfCareAdvisor}

// roleDisplayNames 角色的瑞典语展示名（用于面向用户的告警文案）
var roleDisplayNames = map[Role]string{
	RolePharmacist:      "Farmaceut",
	RoleSalesperson:     "Säljare",
	RoleSelfCareAdvisor: "Egenvårdsrådgivare",
}

// Valid 判断角色是否属于封闭集合
func (r Role) Valid() bool {
	_, ok := roleDisplayNames[r]
	return ok
}

// Display 返回角色的展示名，未知角色原样返回
func (r Role) Display() string {
	if name, ok := roleDisplayNames[r]; ok {
		return name
	}
	return string(r)
}

// EmploymentType 雇佣类型
type EmploymentType string

const (
	EmploymentFullTime EmploymentType = "Heltid"      // 全职
	EmploymentPartTime EmploymentType = "Deltid"      // 兼职
	EmploymentHourly   EmploymentType = "Timanställd" // 小时工
)

// Valid 判断雇佣类型是否合法
func (e EmploymentType) Valid() bool {
	switch e {
	case EmploymentFullTime, EmploymentPartTime, EmploymentHourly:
		return true
	}
	return false
}

// IsHourly 小时工的工时低于目标属于正常情况，不产生公平性告警
func (e EmploymentType) IsHourly() bool {
	return e == EmploymentHourly
}
