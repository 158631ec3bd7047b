package enums

import "fmt"

// FeeType distinguishes percentage fees from fixed surcharges.
type FeeType string

const (
	FeeTypePercentage FeeType = "percentage"
	FeeTypeFixed      FeeType = "fixed"
)

var validFeeTypes = []FeeType{
	FeeTypePercentage,
	FeeTypeFixed,
}

// IsValid reports whether the value is a known fee type.
func (f FeeType) IsValid() bool {
	for _, candidate := range validFeeTypes {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseFeeType converts raw input into FeeType.
func ParseFeeType(value string) (FeeType, error) {
	for _, candidate := range validFeeTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid fee type %q", value)
}
