package model

import "fmt"

// NumberType is the line type of a phone number.
// The integer values are stable codes shared with exported reports;
// codes outside the table render as "UNKNOWN".
type NumberType int

const (
	NumberTypeFixedLine         NumberType = 0
	NumberTypeMobile            NumberType = 1
	NumberTypeFixedLineOrMobile NumberType = 2
	NumberTypeTollFree          NumberType = 3
	NumberTypePremiumRate       NumberType = 4
	NumberTypeSharedCost        NumberType = 5
	NumberTypeVoIP              NumberType = 6
	NumberTypePersonalNumber    NumberType = 7
	NumberTypePager             NumberType = 8
	NumberTypeUAN               NumberType = 9
	NumberTypeUnknown           NumberType = 10
	NumberTypeEmergency         NumberType = 27
	NumberTypeVoicemail         NumberType = 28
)

var numberTypeNames = map[NumberType]string{
	NumberTypeFixedLine:         "FIXED_LINE",
	NumberTypeMobile:            "MOBILE",
	NumberTypeFixedLineOrMobile: "FIXED_LINE_OR_MOBILE",
	NumberTypeTollFree:          "TOLL_FREE",
	NumberTypePremiumRate:       "PREMIUM_RATE",
	NumberTypeSharedCost:        "SHARED_COST",
	NumberTypeVoIP:              "VOIP",
	NumberTypePersonalNumber:    "PERSONAL_NUMBER",
	NumberTypePager:             "PAGER",
	NumberTypeUAN:               "UAN",
	NumberTypeUnknown:           "UNKNOWN",
	NumberTypeEmergency:         "EMERGENCY",
	NumberTypeVoicemail:         "VOICEMAIL",
}

// String returns the upper-case name of the number type.
func (t NumberType) String() string {
	if name, ok := numberTypeNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// Known reports whether t is one of the tabulated codes.
func (t NumberType) Known() bool {
	_, ok := numberTypeNames[t]
	return ok
}

// MarshalText implements encoding.TextMarshaler.
func (t NumberType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *NumberType) UnmarshalText(text []byte) error {
	for code, name := range numberTypeNames {
		if name == string(text) {
			*t = code
			return nil
		}
	}
	return fmt.Errorf("unknown number type %q", string(text))
}
