package provider

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/oschwald/maxminddb-golang"

	"github.com/nao1215/pheonix/internal/model"
)

// GeoLite looks up an IP address in local MaxMind GeoLite2 databases.
// Either database may be absent.
type GeoLite struct {
	city *maxminddb.Reader
	asn  *maxminddb.Reader
}

// asnRecord maps the fields of a GeoLite2-ASN database.
type asnRecord struct {
	AutonomousSystemNumber       uint   `maxminddb:"autonomous_system_number"`
	AutonomousSystemOrganization string `maxminddb:"autonomous_system_organization"`
}

// cityRecord maps the fields of a GeoLite2-City database used here.
type cityRecord struct {
	City struct {
		Names map[string]string `maxminddb:"names"`
	} `maxminddb:"city"`
	Country struct {
		IsoCode string            `maxminddb:"iso_code"`
		Names   map[string]string `maxminddb:"names"`
	} `maxminddb:"country"`
	Location struct {
		Latitude  *float64 `maxminddb:"latitude"`
		Longitude *float64 `maxminddb:"longitude"`
	} `maxminddb:"location"`
}

// OpenGeoLite opens the given database files. Empty paths are skipped; a
// GeoLite with no database reports Unconfigured.
func OpenGeoLite(cityPath, asnPath string) (*GeoLite, error) {
	g := &GeoLite{}
	if cityPath != "" {
		r, err := maxminddb.Open(cityPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open GeoLite2 city database: %w", err)
		}
		g.city = r
	}
	if asnPath != "" {
		r, err := maxminddb.Open(asnPath)
		if err != nil {
			_ = g.Close()
			return nil, fmt.Errorf("failed to open GeoLite2 ASN database: %w", err)
		}
		g.asn = r
	}
	return g, nil
}

// Close closes the open databases.
func (g *GeoLite) Close() error {
	if g == nil {
		return nil
	}
	var errs []error
	if g.city != nil {
		errs = append(errs, g.city.Close())
	}
	if g.asn != nil {
		errs = append(errs, g.asn.Close())
	}
	return errors.Join(errs...)
}

// Name implements Provider.
func (g *GeoLite) Name() string { return NameGeoLite }

// Query implements Provider.
func (g *GeoLite) Query(_ context.Context, id *model.Identifier) model.ProviderResult {
	if id == nil || id.Kind != model.KindIP || id.IP == "" {
		return wrongKind(NameGeoLite, id)
	}
	if g == nil || (g.city == nil && g.asn == nil) {
		return resultFor(NameGeoLite, model.Payload{}, fmt.Errorf("%w: GeoLite2 database path", ErrUnconfigured))
	}

	ip := net.ParseIP(id.IP)
	if ip == nil {
		return model.Failuref(NameGeoLite, model.StatusInvalidFormat, "invalid IP: %s", id.IP)
	}

	info := &model.NetworkInfo{IP: id.IP}
	found := false

	if g.asn != nil {
		var rec asnRecord
		network, ok, err := g.asn.LookupNetwork(ip, &rec)
		if err != nil {
			return resultFor(NameGeoLite, model.Payload{}, fmt.Errorf("ASN lookup failed: %w", err))
		}
		if ok {
			found = true
			info.ASN = rec.AutonomousSystemNumber
			info.Organization = rec.AutonomousSystemOrganization
			if network != nil {
				info.Network = network.String()
			}
		}
	}

	if g.city != nil {
		var rec cityRecord
		network, ok, err := g.city.LookupNetwork(ip, &rec)
		if err != nil {
			return resultFor(NameGeoLite, model.Payload{}, fmt.Errorf("city lookup failed: %w", err))
		}
		if ok {
			found = true
			info.City = rec.City.Names["en"]
			info.Country = rec.Country.Names["en"]
			info.CountryCode = rec.Country.IsoCode
			if rec.Location.Latitude != nil && rec.Location.Longitude != nil {
				info.Location = &model.Coordinates{
					Latitude:  *rec.Location.Latitude,
					Longitude: *rec.Location.Longitude,
				}
			}
			if info.Network == "" && network != nil {
				info.Network = network.String()
			}
		}
	}

	if !found {
		return resultFor(NameGeoLite, model.Payload{}, fmt.Errorf("%w: %s is not in the GeoLite2 databases", ErrNoData, id.IP))
	}
	return model.Success(NameGeoLite, model.Payload{Network: info})
}
