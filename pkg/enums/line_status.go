package enums

import "fmt"

// LineStatus tracks whether an order line is still a mutable cart line or
// has been confirmed to the kitchen. This is the only status vocabulary for
// lines; handlers and repositories never compare against raw strings.
type LineStatus string

const (
	LineStatusCart      LineStatus = "cart"
	LineStatusConfirmed LineStatus = "confirmed"
)

var validLineStatuses = []LineStatus{
	LineStatusCart,
	LineStatusConfirmed,
}

// String implements fmt.Stringer.
func (s LineStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known LineStatus.
func (s LineStatus) IsValid() bool {
	for _, candidate := range validLineStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseLineStatus converts raw input into a LineStatus.
func ParseLineStatus(value string) (LineStatus, error) {
	for _, candidate := range validLineStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid line status %q", value)
}
