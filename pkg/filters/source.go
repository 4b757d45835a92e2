package filters

import (
	"context"

	"github.com/bookwell/host-qualifier-api/pkg/models"
	"github.com/bookwell/host-qualifier-api/pkg/qualifier"
)

// StaticSource serves a host list already attached to the request. The
// upstream caller has resolved credentials and segment availability, so the
// source only has to hand the lists through.
func StaticSource(hosts, fallbackHosts []models.Host[models.EventUser], segmented bool) qualifier.HostSource[models.EventUser] {
	return qualifier.SourceFunc[models.EventUser](func(ctx context.Context, event models.Event) (qualifier.SourceResult[models.EventUser], error) {
		return qualifier.SourceResult[models.EventUser]{
			Hosts:         hosts,
			Segmented:     segmented,
			FallbackHosts: fallbackHosts,
		}, nil
	})
}
