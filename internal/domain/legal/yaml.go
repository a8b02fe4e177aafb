package legal

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed tables/*.yaml
var embeddedTables embed.FS

// amount decodes a YAML scalar straight from its source text so values such as
// 0.0127 never pass through float64.
type amount struct {
	decimal.Decimal
}

func (a *amount) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a number", node.Line)
	}
	parsed, err := decimal.NewFromString(strings.ReplaceAll(node.Value, "_", ""))
	if err != nil {
		return fmt.Errorf("line %d: %q is not a number", node.Line, node.Value)
	}
	a.Decimal = parsed
	return nil
}

func (a *amount) value() decimal.Decimal {
	if a == nil {
		return decimal.Zero
	}
	return a.Decimal
}

// required is value for a rate that must be written out, even when it is zero, so
// a misspelt or forgotten key cannot silently become a 0% rate.
func (a *amount) required(version, name string) (decimal.Decimal, error) {
	if a == nil {
		return decimal.Zero, invalid(version, "%s is required", name)
	}
	return a.Decimal, nil
}

func (a *amount) ptr() *decimal.Decimal {
	if a == nil {
		return nil
	}
	value := a.Decimal
	return &value
}

type tableFile struct {
	Sets []setDoc `yaml:"sets"`
}

type setDoc struct {
	Version               string                     `yaml:"version"`
	EffectiveFrom         string                     `yaml:"effective_from"`
	EffectiveTo           string                     `yaml:"effective_to"`
	UFValueCLP            *amount                    `yaml:"uf_value_clp"`
	UTMValueCLP           *amount                    `yaml:"utm_value_clp"`
	MinimumWageCLP        *amount                    `yaml:"minimum_wage_clp"`
	ContributionCeilingUF *amount                    `yaml:"contribution_ceiling_uf"`
	UnemploymentCeilingUF *amount                    `yaml:"unemployment_ceiling_uf"`
	DefaultAFPCode        string                     `yaml:"default_afp_code"`
	DefaultHealthCode     string                     `yaml:"default_health_code"`
	AFPRates              map[string]afpDoc          `yaml:"afp_rates"`
	HealthRates           map[string]healthDoc       `yaml:"health_rates"`
	UnemploymentRates     map[string]unemploymentDoc `yaml:"unemployment_rates"`
	IncomeTaxBrackets     []bracketDoc               `yaml:"income_tax_brackets"`
	FamilyAllowance       []familyDoc                `yaml:"family_allowance"`
}

type afpDoc struct {
	PensionRate    *amount `yaml:"pension_rate"`
	CommissionRate *amount `yaml:"commission_rate"`
}

type healthDoc struct {
	Type   string  `yaml:"type"`
	Rate   *amount `yaml:"rate"`
	PlanUF *amount `yaml:"plan_uf"`
}

type unemploymentDoc struct {
	Employee *amount `yaml:"employee"`
	Employer *amount `yaml:"employer"`
}

type bracketDoc struct {
	LowerUTM  *amount `yaml:"lower_utm"`
	UpperUTM  *amount `yaml:"upper_utm"`
	Rate      *amount `yaml:"rate"`
	RebateUTM *amount `yaml:"rebate_utm"`
}

type familyDoc struct {
	UpperIncomeCLP *amount `yaml:"upper_income_clp"`
	Amount         *amount `yaml:"amount"`
}

// LoadYAML decodes every set in a table document. Unknown keys are rejected. The
// sets are validated but not checked against each other; NewTable does that.
func LoadYAML(data []byte) ([]ParameterSet, error) {
	var file tableFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse legal table: %w", err)
	}
	sets := make([]ParameterSet, 0, len(file.Sets))
	for _, doc := range file.Sets {
		set, err := doc.toSet()
		if err != nil {
			return nil, err
		}
		if err := set.Validate(); err != nil {
			return nil, err
		}
		sets = append(sets, set)
	}
	return sets, nil
}

// LoadDir builds a table from every *.yaml file in dir.
func LoadDir(dir string) (*Table, error) {
	return loadFS(os.DirFS(dir), ".")
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
	defaultErr   error
)

// Default returns the table compiled into the binary.
func Default() (*Table, error) {
	defaultOnce.Do(func() {
		defaultTable, defaultErr = loadFS(embeddedTables, "tables")
	})
	return defaultTable, defaultErr
}

func loadFS(fsys fs.FS, dir string) (*Table, error) {
	names, err := fs.Glob(fsys, filepath.ToSlash(filepath.Join(dir, "*.yaml")))
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no legal tables found in %s", dir)
	}
	slices.Sort(names)
	var sets []ParameterSet
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, err
		}
		loaded, err := LoadYAML(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		sets = append(sets, loaded...)
	}
	return NewTable(sets...)
}

func (d setDoc) toSet() (ParameterSet, error) {
	from, err := ParsePeriod(d.EffectiveFrom)
	if err != nil {
		return ParameterSet{}, invalid(d.Version, "effective_from: %v", err)
	}
	set := ParameterSet{
		Version:               d.Version,
		EffectiveFrom:         from,
		UFValueCLP:            d.UFValueCLP.value(),
		UTMValueCLP:           d.UTMValueCLP.value(),
		MinimumWageCLP:        d.MinimumWageCLP.value(),
		ContributionCeilingUF: d.ContributionCeilingUF.value(),
		UnemploymentCeilingUF: d.UnemploymentCeilingUF.value(),
		DefaultAFPCode:        strings.ToUpper(d.DefaultAFPCode),
		DefaultHealthCode:     strings.ToUpper(d.DefaultHealthCode),
		AFPRates:              make(map[string]AFPRate, len(d.AFPRates)),
		HealthRates:           make(map[string]HealthRate, len(d.HealthRates)),
		UnemploymentRates:     make(map[string]UnemploymentRate, len(d.UnemploymentRates)),
	}
	if d.EffectiveTo != "" {
		to, err := ParsePeriod(d.EffectiveTo)
		if err != nil {
			return ParameterSet{}, invalid(d.Version, "effective_to: %v", err)
		}
		set.EffectiveTo = &to
	}
	for code, rate := range d.AFPRates {
		code = strings.ToUpper(code)
		pension, err := rate.PensionRate.required(d.Version, "afp "+code+" pension_rate")
		if err != nil {
			return ParameterSet{}, err
		}
		commission, err := rate.CommissionRate.required(d.Version, "afp "+code+" commission_rate")
		if err != nil {
			return ParameterSet{}, err
		}
		set.AFPRates[code] = AFPRate{PensionRate: pension, CommissionRate: commission}
	}
	for code, rate := range d.HealthRates {
		code = strings.ToUpper(code)
		value, err := rate.Rate.required(d.Version, "health "+code+" rate")
		if err != nil {
			return ParameterSet{}, err
		}
		set.HealthRates[code] = HealthRate{
			Type:   HealthPlanType(strings.ToLower(rate.Type)),
			Rate:   value,
			PlanUF: rate.PlanUF.value(),
		}
	}
	for contract, rate := range d.UnemploymentRates {
		contract = strings.ToLower(contract)
		employee, err := rate.Employee.required(d.Version, "unemployment "+contract+" employee")
		if err != nil {
			return ParameterSet{}, err
		}
		employer, err := rate.Employer.required(d.Version, "unemployment "+contract+" employer")
		if err != nil {
			return ParameterSet{}, err
		}
		set.UnemploymentRates[contract] = UnemploymentRate{Employee: employee, Employer: employer}
	}
	for i, bracket := range d.IncomeTaxBrackets {
		name := fmt.Sprintf("income_tax_brackets[%d]", i)
		lower, err := bracket.LowerUTM.required(d.Version, name+" lower_utm")
		if err != nil {
			return ParameterSet{}, err
		}
		rate, err := bracket.Rate.required(d.Version, name+" rate")
		if err != nil {
			return ParameterSet{}, err
		}
		rebate, err := bracket.RebateUTM.required(d.Version, name+" rebate_utm")
		if err != nil {
			return ParameterSet{}, err
		}
		set.IncomeTaxBrackets = append(set.IncomeTaxBrackets, TaxBracket{
			LowerUTM:     lower,
			UpperUTM:     bracket.UpperUTM.ptr(),
			MarginalRate: rate,
			RebateUTM:    rebate,
		})
	}
	for i, bracket := range d.FamilyAllowance {
		value, err := bracket.Amount.required(d.Version, fmt.Sprintf("family_allowance[%d] amount", i))
		if err != nil {
			return ParameterSet{}, err
		}
		set.FamilyAllowance = append(set.FamilyAllowance, FamilyAllowanceBracket{
			UpperIncomeCLP:     bracket.UpperIncomeCLP.ptr(),
			AmountPerDependent: value,
		})
	}
	return set, nil
}
