package provider

import (
	"context"
	"fmt"

	"github.com/nao1215/pheonix/internal/model"
	"github.com/nao1215/pheonix/internal/sites"
)

// Usernames enumerates a username across the catalog's platforms.
type Usernames struct {
	checker *sites.Checker
	catalog *sites.Catalog
}

// NewUsernames creates the username enumeration provider.
func NewUsernames(checker *sites.Checker, catalog *sites.Catalog) *Usernames {
	return &Usernames{checker: checker, catalog: catalog}
}

// Name implements Provider.
func (u *Usernames) Name() string { return NameUsernames }

// Query implements Provider.
//
// A platform is listed as found when it accepts the username and the name
// is taken, and as invalid when it rejects the username or could not be
// checked. Platforms where the name is free are not listed.
func (u *Usernames) Query(ctx context.Context, id *model.Identifier) model.ProviderResult {
	if id == nil || id.Kind != model.KindUsername || id.Username == "" {
		return wrongKind(NameUsernames, id)
	}
	if u.catalog == nil || u.checker == nil || len(u.catalog.Platforms) == 0 {
		return resultFor(NameUsernames, model.Payload{}, fmt.Errorf("%w: no username platforms", ErrUnconfigured))
	}

	results := u.checker.Check(ctx, u.catalog.Platforms, id.Username)

	scan := &model.UsernameScan{Username: id.Username, Platforms: []model.PlatformHit{}}
	for _, r := range results {
		switch r.Outcome {
		case sites.OutcomeMissing:
			continue
		case sites.OutcomeExists:
			scan.Platforms = append(scan.Platforms, model.PlatformHit{Platform: r.Site, URL: r.URL, State: model.PlatformFound})
		default:
			scan.Platforms = append(scan.Platforms, model.PlatformHit{Platform: r.Site, URL: r.URL, State: model.PlatformInvalid})
		}
	}
	if len(scan.Found()) == 0 {
		scan.Message = model.NoProfilesMessage
	}
	return model.Success(NameUsernames, model.Payload{Usernames: scan})
}
