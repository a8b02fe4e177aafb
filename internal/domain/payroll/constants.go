package payroll

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)
