package liquidation

import "strings"

// NormalizeRUT strips dots and spaces, upper-cases the check digit and verifies it
// with the módulo 11 algorithm. The result has the form 12345678-5.
func NormalizeRUT(raw string) (string, error) {
	cleaned := strings.ToUpper(strings.NewReplacer(".", "", " ", "", "-", "").Replace(raw))
	if len(cleaned) < 2 {
		return "", &InvalidInputError{Field: "employee.rut", Reason: "is required"}
	}
	body, dv := cleaned[:len(cleaned)-1], cleaned[len(cleaned)-1]
	if len(body) > 9 {
		return "", &InvalidInputError{Field: "employee.rut", Reason: "is too long"}
	}
	for _, r := range body {
		if r < '0' || r > '9' {
			return "", &InvalidInputError{Field: "employee.rut", Reason: "must contain only digits before the check digit"}
		}
	}
	body = strings.TrimLeft(body, "0")
	if body == "" {
		return "", &InvalidInputError{Field: "employee.rut", Reason: "must not be zero"}
	}
	if checkDigit(body) != dv {
		return "", &InvalidInputError{Field: "employee.rut", Reason: "has an invalid check digit"}
	}
	return body + "-" + string(dv), nil
}

func checkDigit(body string) byte {
	total, factor := 0, 2
	for i := len(body) - 1; i >= 0; i-- {
		total += int(body[i]-'0') * factor
		factor++
		if factor > 7 {
			factor = 2
		}
	}
	switch rest := 11 - total%11; rest {
	case 11:
		return '0'
	case 10:
		return 'K'
	default:
		return byte('0' + rest)
	}
}
