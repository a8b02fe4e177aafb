package auth

const (
	RolePayrollAdmin   = "payroll_admin"
	RolePayrollAnalyst = "payroll_analyst"
	RoleAuditor        = "auditor"
)

const (
	PermPayrollPreview = "payroll.preview"
	PermPayrollRead    = "payroll.read"
	PermPayrollWrite   = "payroll.write"
	PermPayrollRun     = "payroll.run"
	PermLegalRead      = "legal.read"
	PermJobsRead       = "jobs.read"
	PermMetricsRead    = "metrics.read"
	PermAuditRead      = "audit.read"
)

var RolePermissions = map[string][]string{
	RolePayrollAdmin: {
		PermPayrollPreview,
		PermPayrollRead,
		PermPayrollWrite,
		PermPayrollRun,
		PermLegalRead,
		PermJobsRead,
		PermMetricsRead,
		PermAuditRead,
	},
	RolePayrollAnalyst: {
		PermPayrollPreview,
		PermPayrollRead,
		PermLegalRead,
		PermJobsRead,
	},
	RoleAuditor: {
		PermPayrollRead,
		PermLegalRead,
		PermMetricsRead,
		PermAuditRead,
	},
}

// StaticPermissions answers permission checks from RolePermissions.
type StaticPermissions map[string][]string

func (p StaticPermissions) Allows(role, permission string) bool {
	for _, granted := range p[role] {
		if granted == permission {
			return true
		}
	}
	return false
}
