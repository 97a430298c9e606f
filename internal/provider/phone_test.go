package provider

import (
	"context"
	"slices"
	"testing"

	"github.com/nyaruka/phonenumbers"

	"github.com/nao1215/pheonix/internal/model"
	"github.com/nao1215/pheonix/internal/normalize"
)

func TestPhone(t *testing.T) {
	t.Parallel()

	t.Run("valid number reports formats and metadata", func(t *testing.T) {
		t.Parallel()
		id := mustID(t, "+1 201-555-0123", model.KindPhone)
		res := NewPhone().Query(context.Background(), id)
		if !res.OK() {
			t.Fatalf("status = %v, error = %s", res.Status, res.Error)
		}
		info := res.Payload.Phone
		if info == nil {
			t.Fatal("expected phone payload")
		}
		if info.E164 != "+12015550123" {
			t.Errorf("E164 = %q", info.E164)
		}
		if info.International != "+1 201-555-0123" {
			t.Errorf("International = %q", info.International)
		}
		if info.National != "(201) 555-0123" {
			t.Errorf("National = %q", info.National)
		}
		if info.RegionCode != "US" {
			t.Errorf("RegionCode = %q, want US", info.RegionCode)
		}
		if info.Carrier == "" {
			t.Error("carrier should never be empty")
		}
		if !info.Valid || info.Reason != normalize.ReasonValid {
			t.Errorf("validity = %v / %q", info.Valid, info.Reason)
		}
	})

	t.Run("San Francisco number reports the documented metadata", func(t *testing.T) {
		t.Parallel()
		id := mustID(t, "+14155552671", model.KindPhone)
		res := NewPhone().Query(context.Background(), id)
		if !res.OK() {
			t.Fatalf("status = %v, error = %s", res.Status, res.Error)
		}
		info := res.Payload.Phone
		if info.International != "+1 415-555-2671" {
			t.Errorf("International = %q", info.International)
		}
		// The bundled geocoding data describes 415-555 by city.
		if info.Region != "San Francisco, CA" {
			t.Errorf("Region = %q, want %q", info.Region, "San Francisco, CA")
		}
		if !slices.Contains(info.TimeZones, "America/Los_Angeles") {
			t.Errorf("TimeZones = %v, want a Pacific zone", info.TimeZones)
		}
		if info.NumberType != model.NumberTypeFixedLineOrMobile {
			t.Errorf("NumberType = %v, want %v", info.NumberType, model.NumberTypeFixedLineOrMobile)
		}
	})

	t.Run("possible but invalid number is reported with its reason", func(t *testing.T) {
		t.Parallel()
		pn, err := normalize.Phone("+1 200 555 0100")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !pn.Possible || pn.Valid {
			t.Fatalf("expected a possible but invalid number, got possible=%v valid=%v", pn.Possible, pn.Valid)
		}
		id := &model.Identifier{Kind: model.KindPhone, Phone: pn}
		res := NewPhone().Query(context.Background(), id)
		if res.Status != model.StatusInvalidFormat {
			t.Fatalf("status = %v, want invalid_format", res.Status)
		}
		if res.Error != pn.Reason {
			t.Errorf("Error = %q, want %q", res.Error, pn.Reason)
		}
		if res.Payload.Phone == nil || res.Payload.Phone.Valid {
			t.Error("payload should carry the invalid state")
		}
	})

	t.Run("impossible-length number is reported with its reason", func(t *testing.T) {
		t.Parallel()
		pn, err := normalize.Phone("+1 4155")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		id := &model.Identifier{Kind: model.KindPhone, Phone: pn}
		res := NewPhone().Query(context.Background(), id)
		if res.Status != model.StatusInvalidFormat {
			t.Fatalf("status = %v, want invalid_format", res.Status)
		}
		if res.Error != normalize.ReasonImpossibleLength {
			t.Errorf("Error = %q, want %q", res.Error, normalize.ReasonImpossibleLength)
		}
	})
}

func TestValidity(t *testing.T) {
	t.Parallel()

	t.Run("invalid number", func(t *testing.T) {
		t.Parallel()
		res := Validity(&model.PhoneNumber{E164: "+14155", Reason: normalize.ReasonImpossibleLength})
		if res.Provider != NamePhone || res.Status != model.StatusInvalidFormat {
			t.Errorf("got %s/%v", res.Provider, res.Status)
		}
		if res.Error != normalize.ReasonImpossibleLength {
			t.Errorf("Error = %q", res.Error)
		}
		if res.Payload.Phone.NumberType != model.NumberTypeUnknown {
			t.Errorf("NumberType = %v", res.Payload.Phone.NumberType)
		}
	})

	t.Run("valid number", func(t *testing.T) {
		t.Parallel()
		res := Validity(&model.PhoneNumber{E164: "+12015550123", Valid: true, Reason: normalize.ReasonValid})
		if !res.OK() {
			t.Errorf("status = %v", res.Status)
		}
	})
}

func TestNumberType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   phonenumbers.PhoneNumberType
		want model.NumberType
	}{
		{phonenumbers.FIXED_LINE, model.NumberTypeFixedLine},
		{phonenumbers.MOBILE, model.NumberTypeMobile},
		{phonenumbers.FIXED_LINE_OR_MOBILE, model.NumberTypeFixedLineOrMobile},
		{phonenumbers.TOLL_FREE, model.NumberTypeTollFree},
		{phonenumbers.PREMIUM_RATE, model.NumberTypePremiumRate},
		{phonenumbers.SHARED_COST, model.NumberTypeSharedCost},
		{phonenumbers.VOIP, model.NumberTypeVoIP},
		{phonenumbers.PERSONAL_NUMBER, model.NumberTypePersonalNumber},
		{phonenumbers.PAGER, model.NumberTypePager},
		{phonenumbers.UAN, model.NumberTypeUAN},
		{phonenumbers.VOICEMAIL, model.NumberTypeVoicemail},
		{phonenumbers.UNKNOWN, model.NumberTypeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			t.Parallel()
			if got := numberType(tt.in); got != tt.want {
				t.Errorf("numberType(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
