package provider

import (
	"context"

	"github.com/nao1215/pheonix/internal/model"
)

// Provider names. They are stable and appear in reports and on the CLI.
const (
	NamePhone     = "phone"
	NameGeocode   = "geocode"
	NamePresence  = "presence"
	NameLinks     = "links"
	NameWhois     = "whois"
	NameBreach    = "breach"
	NameMX        = "mx"
	NameUsernames = "usernames"
	NameIPGeo     = "ipgeo"
	NameGeoLite   = "geolite"
)

// Provider queries one external source about an identifier.
type Provider interface {
	// Name returns the stable provider name.
	Name() string

	// Query looks up id and returns a normalized result.
	Query(ctx context.Context, id *model.Identifier) model.ProviderResult
}

// Func adapts a function to the Provider interface.
type Func struct {
	ProviderName string
	Fn           func(ctx context.Context, id *model.Identifier) model.ProviderResult
}

// Name implements Provider.
func (f Func) Name() string { return f.ProviderName }

// Query implements Provider.
func (f Func) Query(ctx context.Context, id *model.Identifier) model.ProviderResult {
	return f.Fn(ctx, id)
}

// wrongKind is returned when an adapter is handed an identifier it does not
// understand.
func wrongKind(name string, id *model.Identifier) model.ProviderResult {
	if id == nil {
		return model.Failuref(name, model.StatusInvalidFormat, "no identifier")
	}
	return model.Failuref(name, model.StatusInvalidFormat, "%s does not accept %s identifiers", name, id.Kind)
}
