package provider

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/nao1215/pheonix/internal/model"
)

// DefaultGeoapifyURL is the Geoapify API base URL.
const DefaultGeoapifyURL = "https://api.geoapify.com"

// IPGeo geolocates an IP address with the Geoapify IP info API.
type IPGeo struct {
	http    *HTTPClient
	baseURL string
	apiKey  string
}

// NewIPGeo creates the ipgeo provider. An empty baseURL uses
// DefaultGeoapifyURL.
func NewIPGeo(client *HTTPClient, baseURL, apiKey string) *IPGeo {
	if baseURL == "" {
		baseURL = DefaultGeoapifyURL
	}
	if client == nil {
		client = NewHTTPClient(nil)
	}
	return &IPGeo{
		http:    client,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

// Name implements Provider.
func (g *IPGeo) Name() string { return NameIPGeo }

type namedPlace struct {
	Name string `json:"name"`
}

type geoapifyResponse struct {
	IP       string      `json:"ip"`
	City     *namedPlace `json:"city"`
	State    *namedPlace `json:"state"`
	Country  *namedPlace `json:"country"`
	Location *struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"location"`
}

// Query implements Provider. Without an API key the result is
// Unconfigured with an empty payload.
func (g *IPGeo) Query(ctx context.Context, id *model.Identifier) model.ProviderResult {
	if id == nil || id.Kind != model.KindIP || id.IP == "" {
		return wrongKind(NameIPGeo, id)
	}
	if g.apiKey == "" {
		return resultFor(NameIPGeo, model.Payload{}, fmt.Errorf("%w: Geoapify API key", ErrUnconfigured))
	}

	q := url.Values{}
	q.Set("ip", id.IP)
	q.Set("apiKey", g.apiKey)

	var resp geoapifyResponse
	if err := g.http.GetJSON(ctx, g.baseURL+"/v1/ipinfo?"+q.Encode(), nil, &resp); err != nil {
		return resultFor(NameIPGeo, model.Payload{}, err)
	}

	geo := &model.IPGeo{IP: id.IP}
	if resp.City != nil {
		geo.City = resp.City.Name
	}
	if resp.State != nil {
		geo.State = resp.State.Name
	}
	if resp.Country != nil {
		geo.Country = resp.Country.Name
	}
	if resp.Location != nil {
		geo.Location = &model.Coordinates{
			Latitude:  resp.Location.Latitude,
			Longitude: resp.Location.Longitude,
		}
	}
	return model.Success(NameIPGeo, model.Payload{IPGeo: geo})
}
