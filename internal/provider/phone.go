package provider

import (
	"context"

	"github.com/nyaruka/phonenumbers"

	"github.com/nao1215/pheonix/internal/model"
	"github.com/nao1215/pheonix/internal/normalize"
)

// unknownCarrier is shown when the carrier database has no entry.
const unknownCarrier = "Unknown"

// Phone reports offline metadata about a phone number.
type Phone struct{}

// NewPhone creates the phone metadata provider.
func NewPhone() *Phone {
	return &Phone{}
}

// Name implements Provider.
func (p *Phone) Name() string { return NamePhone }

// Query implements Provider. An invalid number yields StatusInvalidFormat
// with the validity state in the payload.
func (p *Phone) Query(_ context.Context, id *model.Identifier) model.ProviderResult {
	if id == nil || id.Kind != model.KindPhone || id.Phone == nil {
		return wrongKind(NamePhone, id)
	}

	num, err := normalize.ParsePhone(id.Phone.E164)
	if err != nil {
		return model.Failure(NamePhone, model.StatusInvalidFormat, err)
	}

	info := phoneInfo(num, id.Phone)
	payload := model.Payload{Phone: info}
	if !id.Phone.Valid {
		return model.Failuref(NamePhone, model.StatusInvalidFormat, "%s", id.Phone.Reason).WithPayload(payload)
	}
	return model.Success(NamePhone, payload)
}

// Validity builds the result reported for a number that parses but is not
// valid. It carries only the validity state.
func Validity(pn *model.PhoneNumber) model.ProviderResult {
	payload := model.Payload{Phone: &model.PhoneInfo{
		E164:       pn.E164,
		RegionCode: pn.RegionCode,
		Valid:      pn.Valid,
		Reason:     pn.Reason,
		NumberType: model.NumberTypeUnknown,
	}}
	if pn.Valid {
		return model.Success(NamePhone, payload)
	}
	return model.Failuref(NamePhone, model.StatusInvalidFormat, "%s", pn.Reason).WithPayload(payload)
}

func phoneInfo(num *phonenumbers.PhoneNumber, pn *model.PhoneNumber) *model.PhoneInfo {
	info := &model.PhoneInfo{
		International: phonenumbers.Format(num, phonenumbers.INTERNATIONAL),
		National:      phonenumbers.Format(num, phonenumbers.NATIONAL),
		E164:          phonenumbers.Format(num, phonenumbers.E164),
		RegionCode:    pn.RegionCode,
		Carrier:       unknownCarrier,
		NumberType:    numberType(phonenumbers.GetNumberType(num)),
		Valid:         pn.Valid,
		Reason:        pn.Reason,
	}
	if region, err := phonenumbers.GetGeocodingForNumber(num, "en"); err == nil {
		info.Region = region
	}
	if name, err := phonenumbers.GetCarrierForNumber(num, "en"); err == nil && name != "" {
		info.Carrier = name
	}
	if zones, err := phonenumbers.GetTimezonesForNumber(num); err == nil {
		info.TimeZones = zones
	}
	return info
}

// numberType maps the metadata library's classification onto the fixed
// report table.
func numberType(t phonenumbers.PhoneNumberType) model.NumberType {
	switch t {
	case phonenumbers.FIXED_LINE:
		return model.NumberTypeFixedLine
	case phonenumbers.MOBILE:
		return model.NumberTypeMobile
	case phonenumbers.FIXED_LINE_OR_MOBILE:
		return model.NumberTypeFixedLineOrMobile
	case phonenumbers.TOLL_FREE:
		return model.NumberTypeTollFree
	case phonenumbers.PREMIUM_RATE:
		return model.NumberTypePremiumRate
	case phonenumbers.SHARED_COST:
		return model.NumberTypeSharedCost
	case phonenumbers.VOIP:
		return model.NumberTypeVoIP
	case phonenumbers.PERSONAL_NUMBER:
		return model.NumberTypePersonalNumber
	case phonenumbers.PAGER:
		return model.NumberTypePager
	case phonenumbers.UAN:
		return model.NumberTypeUAN
	case phonenumbers.VOICEMAIL:
		return model.NumberTypeVoicemail
	default:
		return model.NumberTypeUnknown
	}
}
