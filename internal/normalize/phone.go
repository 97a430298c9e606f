package normalize

import (
	"fmt"
	"strings"

	"github.com/nyaruka/phonenumbers"

	"github.com/nao1215/pheonix/internal/model"
)

// Validity reasons, checked in this order for numbers that are not valid.
const (
	ReasonValid            = "Valid phone number"
	ReasonImpossibleLength = "Number length is invalid for this region"
	ReasonMissingCountry   = "Invalid or missing country code"
	ReasonTooShort         = "Number is too short"
	ReasonTooLong          = "Number is too long"
	ReasonPatternMismatch  = "Number format doesn't match region pattern"
)

// National-format length bounds, counted with spaces removed.
const (
	minNationalLength = 5
	maxNationalLength = 15
)

// unknownRegion is the CLDR code for an unresolvable region.
const unknownRegion = "ZZ"

// phoneFacts is what the validity reason is derived from.
type phoneFacts struct {
	valid    bool
	possible bool
	region   string
	national string
}

// validityReason applies the ordered checks. Earlier checks win: a number
// of impossible length reports that even when its region is also missing.
func validityReason(f phoneFacts) string {
	if f.valid {
		return ReasonValid
	}
	if !f.possible {
		return ReasonImpossibleLength
	}
	if f.region == "" || f.region == unknownRegion {
		return ReasonMissingCountry
	}
	n := len(strings.ReplaceAll(f.national, " ", ""))
	if n < minNationalLength {
		return ReasonTooShort
	}
	if n > maxNationalLength {
		return ReasonTooLong
	}
	return ReasonPatternMismatch
}

// ParsePhone parses raw with international rules and no default region.
// It recovers from panics inside the metadata library so that no input can
// crash the caller.
func ParsePhone(raw string) (num *phonenumbers.PhoneNumber, err error) {
	defer func() {
		if r := recover(); r != nil {
			num = nil
			err = invalid("phone number", raw, fmt.Sprint(r))
		}
	}()

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, invalid("phone number", raw, "empty input")
	}
	num, err = phonenumbers.Parse(trimmed, "")
	if err != nil {
		return nil, invalid("phone number", raw, err.Error())
	}
	return num, nil
}

// Phone parses raw and computes its validity state.
// Only a parse failure is an error; a parsed but invalid number is returned
// with Valid false and a Reason explaining why.
func Phone(raw string) (*model.PhoneNumber, error) {
	num, err := ParsePhone(raw)
	if err != nil {
		return nil, err
	}

	facts := phoneFacts{
		valid:    phonenumbers.IsValidNumber(num),
		possible: phonenumbers.IsPossibleNumber(num),
		region:   phonenumbers.GetRegionCodeForNumber(num),
		national: phonenumbers.Format(num, phonenumbers.NATIONAL),
	}

	return &model.PhoneNumber{
		Raw:            raw,
		E164:           phonenumbers.Format(num, phonenumbers.E164),
		CountryCode:    int(num.GetCountryCode()),
		NationalNumber: num.GetNationalNumber(),
		RegionCode:     facts.region,
		Possible:       facts.possible,
		Valid:          facts.valid,
		Reason:         validityReason(facts),
	}, nil
}
