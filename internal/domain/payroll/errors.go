package payroll

import "errors"

var (
	ErrLiquidationNotFound = errors.New("liquidation not found")
	ErrEmptyBook           = errors.New("book has no requests")
)
