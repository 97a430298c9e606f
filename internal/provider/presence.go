package provider

import (
	"context"
	"fmt"

	"github.com/nao1215/pheonix/internal/model"
	"github.com/nao1215/pheonix/internal/sites"
)

// Presence checks which services have an account registered for an email
// address or phone number.
type Presence struct {
	checker *sites.Checker
	catalog *sites.Catalog
}

// NewPresence creates the presence provider.
func NewPresence(checker *sites.Checker, catalog *sites.Catalog) *Presence {
	return &Presence{checker: checker, catalog: catalog}
}

// Name implements Provider.
func (p *Presence) Name() string { return NamePresence }

// Query implements Provider. Only definite answers are kept; every other
// site result is counted in Dropped.
func (p *Presence) Query(ctx context.Context, id *model.Identifier) model.ProviderResult {
	input := id.String()
	if input == "" {
		return wrongKind(NamePresence, id)
	}
	if p.catalog == nil || p.checker == nil {
		return resultFor(NamePresence, model.Payload{}, fmt.Errorf("%w: no site catalog", ErrUnconfigured))
	}

	list := p.catalog.SitesFor(id.Kind)
	if len(list) == 0 {
		return resultFor(NamePresence, model.Payload{}, fmt.Errorf("%w: no presence sites accept %s identifiers", ErrUnconfigured, id.Kind))
	}

	results := p.checker.Check(ctx, list, input)

	presence := &model.Presence{Sites: make([]model.SiteHit, 0, len(results)), Checked: len(results)}
	limited := 0
	for _, r := range results {
		if !r.Outcome.Definite() {
			presence.Dropped++
			if r.Outcome == sites.OutcomeRateLimited {
				limited++
			}
			continue
		}
		presence.Sites = append(presence.Sites, model.SiteHit{
			Service: r.Site,
			URL:     r.URL,
			Exists:  r.Outcome == sites.OutcomeExists,
			Detail:  r.Detail,
		})
	}

	payload := model.Payload{Presence: presence}
	if len(presence.Sites) == 0 && limited > 0 {
		return resultFor(NamePresence, payload, fmt.Errorf("%w: %d of %d sites refused", ErrRateLimited, limited, presence.Checked))
	}
	if len(presence.Registered()) == 0 {
		return resultFor(NamePresence, payload, fmt.Errorf("%w: no account found on %d sites (%d without a definite answer)", ErrNoData, presence.Checked, presence.Dropped))
	}
	return model.Success(NamePresence, payload)
}
