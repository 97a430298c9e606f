package aggregate

import (
	"slices"

	"github.com/nao1215/pheonix/internal/model"
	"github.com/nao1215/pheonix/internal/provider"
)

// DefaultOrder is the declared provider order for each kind.
var DefaultOrder = map[model.Kind][]string{
	model.KindPhone:    {provider.NamePhone, provider.NameGeocode, provider.NamePresence, provider.NameLinks},
	model.KindEmail:    {provider.NamePresence, provider.NameWhois, provider.NameBreach, provider.NameMX},
	model.KindUsername: {provider.NamePresence, provider.NameUsernames},
	model.KindIP:       {provider.NameIPGeo, provider.NameGeoLite, provider.NameWhois},
}

// Registry maps each analysis kind to its providers in declaration order.
// It is built once at startup and read concurrently afterwards.
type Registry struct {
	byKind map[model.Kind][]provider.Provider
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byKind: make(map[model.Kind][]provider.Provider)}
}

// Register appends p to the providers of kind. Registering the same name
// twice for a kind replaces the earlier provider in place.
func (r *Registry) Register(kind model.Kind, p provider.Provider) {
	list := r.byKind[kind]
	for i, existing := range list {
		if existing.Name() == p.Name() {
			list[i] = p
			return
		}
	}
	r.byKind[kind] = append(list, p)
}

// Providers returns the providers of kind in declaration order.
func (r *Registry) Providers(kind model.Kind) []provider.Provider {
	return slices.Clone(r.byKind[kind])
}

// Names returns the provider names of kind in declaration order.
func (r *Registry) Names(kind model.Kind) []string {
	list := r.byKind[kind]
	names := make([]string, len(list))
	for i, p := range list {
		names[i] = p.Name()
	}
	return names
}

// Kinds returns the kinds that have at least one provider.
func (r *Registry) Kinds() []model.Kind {
	var kinds []model.Kind
	for _, k := range model.Kinds() {
		if len(r.byKind[k]) > 0 {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// Set holds one instance of every provider. Nil fields are skipped.
type Set struct {
	Phone     provider.Provider
	Geocode   provider.Provider
	Presence  provider.Provider
	Links     provider.Provider
	Whois     provider.Provider
	Breach    provider.Provider
	MX        provider.Provider
	Usernames provider.Provider
	IPGeo     provider.Provider
	GeoLite   provider.Provider
}

func (s Set) byName(name string) provider.Provider {
	switch name {
	case provider.NamePhone:
		return s.Phone
	case provider.NameGeocode:
		return s.Geocode
	case provider.NamePresence:
		return s.Presence
	case provider.NameLinks:
		return s.Links
	case provider.NameWhois:
		return s.Whois
	case provider.NameBreach:
		return s.Breach
	case provider.NameMX:
		return s.MX
	case provider.NameUsernames:
		return s.Usernames
	case provider.NameIPGeo:
		return s.IPGeo
	case provider.NameGeoLite:
		return s.GeoLite
	default:
		return nil
	}
}

// NewDefaultRegistry registers the providers of s following DefaultOrder.
func NewDefaultRegistry(s Set) *Registry {
	r := NewRegistry()
	for _, kind := range model.Kinds() {
		for _, name := range DefaultOrder[kind] {
			if p := s.byName(name); p != nil {
				r.Register(kind, p)
			}
		}
	}
	return r
}
