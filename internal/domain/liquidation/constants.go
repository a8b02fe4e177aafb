package liquidation

import (
	"fmt"
	"strings"

	"remuneraciones/internal/domain/legal"
)

type ContractType string

const (
	ContractIndefinido ContractType = legal.ContractIndefinido
	ContractPlazoFijo  ContractType = legal.ContractPlazoFijo
	ContractObraFaena  ContractType = legal.ContractObraFaena
)

type GratificationType string

const (
	GratificationNone        GratificationType = "none"
	GratificationLegalArt50  GratificationType = "legal_art50"
	GratificationContractual GratificationType = "contractual"
)

const (
	WarningDefaultedAFP            = "DEFAULTED_AFP"
	WarningDefaultedHealth         = "DEFAULTED_HEALTH"
	WarningDefaultedHealthPlan     = "DEFAULTED_HEALTH_PLAN"
	WarningGratificationExceedsCap = "GRATIFICATION_EXCEEDS_CAP"
)

// DaysPerMonth is the commercial month used for proration regardless of calendar length.
const DaysPerMonth = 30

func ParseContractType(raw string) (ContractType, error) {
	switch c := ContractType(strings.ToLower(strings.TrimSpace(raw))); c {
	case ContractIndefinido, ContractPlazoFijo, ContractObraFaena:
		return c, nil
	case "":
		return "", &InvalidInputError{Field: "employee.contractType", Reason: "is required"}
	}
	return "", &InvalidInputError{Field: "employee.contractType", Reason: fmt.Sprintf("unknown contract type %q", raw)}
}

func (c *ContractType) UnmarshalText(text []byte) error {
	parsed, err := ParseContractType(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseGratificationType treats an empty value as no gratification.
func ParseGratificationType(raw string) (GratificationType, error) {
	switch g := GratificationType(strings.ToLower(strings.TrimSpace(raw))); g {
	case "":
		return GratificationNone, nil
	case GratificationNone, GratificationLegalArt50, GratificationContractual:
		return g, nil
	}
	return "", &InvalidInputError{Field: "employee.gratificationType", Reason: fmt.Sprintf("unknown gratification type %q", raw)}
}

func (g *GratificationType) UnmarshalText(text []byte) error {
	parsed, err := ParseGratificationType(string(text))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}
