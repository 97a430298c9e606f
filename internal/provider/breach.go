package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/nao1215/pheonix/internal/model"
)

// DefaultHIBPURL is the Have I Been Pwned API base URL.
const DefaultHIBPURL = "https://haveibeenpwned.com"

// Breach lists the data breaches an email address appears in.
type Breach struct {
	http    *HTTPClient
	baseURL string
	apiKey  string
}

// NewBreach creates the breach provider. An empty baseURL uses
// DefaultHIBPURL.
func NewBreach(client *HTTPClient, baseURL, apiKey string) *Breach {
	if baseURL == "" {
		baseURL = DefaultHIBPURL
	}
	if client == nil {
		client = NewHTTPClient(nil)
	}
	return &Breach{
		http:    client,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

// Name implements Provider.
func (b *Breach) Name() string { return NameBreach }

type hibpBreach struct {
	Name        string   `json:"Name"`
	Title       string   `json:"Title"`
	Domain      string   `json:"Domain"`
	BreachDate  string   `json:"BreachDate"`
	PwnCount    int      `json:"PwnCount"`
	DataClasses []string `json:"DataClasses"`
	IsVerified  bool     `json:"IsVerified"`
}

// Query implements Provider. Without an API key no request is sent.
func (b *Breach) Query(ctx context.Context, id *model.Identifier) model.ProviderResult {
	if id == nil || id.Kind != model.KindEmail || id.Email == nil {
		return wrongKind(NameBreach, id)
	}
	if b.apiKey == "" {
		return resultFor(NameBreach, model.Payload{}, fmt.Errorf("%w: HIBP API key", ErrUnconfigured))
	}

	account := id.Email.Address
	endpoint := fmt.Sprintf("%s/api/v3/breachedaccount/%s?truncateResponse=false", b.baseURL, url.PathEscape(account))
	header := http.Header{}
	header.Set("hibp-api-key", b.apiKey)

	var list []hibpBreach
	if err := b.http.GetJSON(ctx, endpoint, header, &list); err != nil {
		return resultFor(NameBreach, model.Payload{}, err)
	}
	if len(list) == 0 {
		return resultFor(NameBreach, model.Payload{}, fmt.Errorf("%w: no breaches found", ErrNoData))
	}

	entries := make([]model.Breach, 0, len(list))
	for _, br := range list {
		entries = append(entries, model.Breach{
			Name:        br.Name,
			Title:       br.Title,
			Domain:      br.Domain,
			BreachDate:  br.BreachDate,
			PwnCount:    br.PwnCount,
			DataClasses: br.DataClasses,
			IsVerified:  br.IsVerified,
		})
	}
	return model.Success(NameBreach, model.Payload{Breaches: &model.Breaches{
		Account: account,
		Entries: entries,
	}})
}
