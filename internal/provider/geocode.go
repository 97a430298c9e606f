package provider

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/nyaruka/phonenumbers"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/nao1215/pheonix/internal/model"
	"github.com/nao1215/pheonix/internal/normalize"
)

// DefaultOpenCageURL is the OpenCage API base URL.
const DefaultOpenCageURL = "https://api.opencagedata.com"

// Geocode resolves the region of a phone number to coordinates with the
// OpenCage forward geocoding API.
type Geocode struct {
	http    *HTTPClient
	baseURL string
	apiKey  string

	// region returns the English region description of a number.
	region func(*model.PhoneNumber) (string, error)
}

// NewGeocode creates the geocode provider. An empty baseURL uses
// DefaultOpenCageURL.
func NewGeocode(client *HTTPClient, baseURL, apiKey string) *Geocode {
	if baseURL == "" {
		baseURL = DefaultOpenCageURL
	}
	if client == nil {
		client = NewHTTPClient(nil)
	}
	return &Geocode{
		http:    client,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		region:  phoneRegion,
	}
}

// Name implements Provider.
func (g *Geocode) Name() string { return NameGeocode }

type openCageResponse struct {
	Results []struct {
		Geometry struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"geometry"`
		Confidence int    `json:"confidence"`
		Formatted  string `json:"formatted"`
	} `json:"results"`
}

// Query implements Provider.
func (g *Geocode) Query(ctx context.Context, id *model.Identifier) model.ProviderResult {
	if id == nil || id.Kind != model.KindPhone || id.Phone == nil {
		return wrongKind(NameGeocode, id)
	}
	if g.apiKey == "" {
		return resultFor(NameGeocode, model.Payload{}, fmt.Errorf("%w: OpenCage API key", ErrUnconfigured))
	}

	region, err := g.region(id.Phone)
	if err != nil {
		return resultFor(NameGeocode, model.Payload{}, err)
	}
	query, err := geocodeQuery(id.Phone, region)
	if err != nil {
		return resultFor(NameGeocode, model.Payload{}, err)
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("key", g.apiKey)
	q.Set("limit", "1")
	q.Set("no_annotations", "1")

	var resp openCageResponse
	if err := g.http.GetJSON(ctx, g.baseURL+"/geocode/v1/json?"+q.Encode(), nil, &resp); err != nil {
		return resultFor(NameGeocode, model.Payload{}, err)
	}
	if len(resp.Results) == 0 {
		return resultFor(NameGeocode, model.Payload{}, fmt.Errorf("%w: no geocoding results for %q", ErrNoData, query))
	}

	first := resp.Results[0]
	return model.Success(NameGeocode, model.Payload{Geocode: &model.Geocode{
		Query: query,
		Coordinates: model.Coordinates{
			Latitude:  first.Geometry.Lat,
			Longitude: first.Geometry.Lng,
		},
		Confidence: first.Confidence,
		Formatted:  first.Formatted,
	}})
}

// geocodeQuery returns the text to geocode for a number. The region
// description is used unless it is just the country name, in which case
// the E.164 number itself is sent.
func geocodeQuery(pn *model.PhoneNumber, region string) (string, error) {
	region = strings.TrimSpace(region)
	if region == "" {
		return "", fmt.Errorf("%w: region not found", ErrNoData)
	}
	if region == countryName(pn.RegionCode) {
		return pn.E164, nil
	}
	return region, nil
}

func phoneRegion(pn *model.PhoneNumber) (string, error) {
	num, err := normalize.ParsePhone(pn.E164)
	if err != nil {
		return "", err
	}
	region, err := phonenumbers.GetGeocodingForNumber(num, "en")
	if err != nil {
		return "", fmt.Errorf("%w: region not found: %w", ErrNoData, err)
	}
	return region, nil
}

// countryName returns the English name of a CLDR region code.
func countryName(code string) string {
	r, err := language.ParseRegion(code)
	if err != nil {
		return ""
	}
	return display.English.Regions().Name(r)
}
