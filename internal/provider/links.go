package provider

import (
	"context"
	"strings"

	"github.com/nao1215/pheonix/internal/model"
)

// Links builds direct search links for a phone number. It never touches
// the network.
type Links struct{}

// NewLinks creates the links provider.
func NewLinks() *Links {
	return &Links{}
}

// Name implements Provider.
func (l *Links) Name() string { return NameLinks }

// Query implements Provider.
func (l *Links) Query(_ context.Context, id *model.Identifier) model.ProviderResult {
	if id == nil || id.Kind != model.KindPhone || id.Phone == nil {
		return wrongKind(NameLinks, id)
	}
	return model.Success(NameLinks, model.Payload{SearchLinks: SearchLinks(id.Phone.E164)})
}

// SearchLinks returns the platform links for a number in E.164 form.
func SearchLinks(e164 string) []model.SearchLink {
	n := strings.ReplaceAll(strings.TrimPrefix(e164, "+"), " ", "")
	return []model.SearchLink{
		{Platform: "Telegram", URL: "https://t.me/+" + n},
		{Platform: "WhatsApp", URL: "https://wa.me/" + n},
		{Platform: "Facebook", URL: "https://www.facebook.com/search/top/?q=" + n},
		{Platform: "Instagram", URL: "https://www.instagram.com/explore/tags/" + n},
	}
}
