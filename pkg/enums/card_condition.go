package enums

import "fmt"

// CardCondition grades the physical state of a single card SKU.
type CardCondition string

const (
	CardConditionNearMint         CardCondition = "NM"
	CardConditionLightlyPlayed    CardCondition = "LP"
	CardConditionModeratelyPlayed CardCondition = "MP"
	CardConditionHeavilyPlayed    CardCondition = "HP"
	CardConditionDamaged          CardCondition = "DMG"
)

var validCardConditions = []CardCondition{
	CardConditionNearMint,
	CardConditionLightlyPlayed,
	CardConditionModeratelyPlayed,
	CardConditionHeavilyPlayed,
	CardConditionDamaged,
}

// String implements fmt.Stringer.
func (v CardCondition) String() string {
	return string(v)
}

// IsValid reports whether the value is a known CardCondition.
func (v CardCondition) IsValid() bool {
	for _, candidate := range validCardConditions {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseCardCondition converts raw input into a CardCondition.
func ParseCardCondition(value string) (CardCondition, error) {
	for _, candidate := range validCardConditions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid card condition %q", value)
}
