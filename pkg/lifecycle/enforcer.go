package lifecycle

import (
	"context"
	"time"

	"github.com/cuemby/pivot/pkg/backend"
	"github.com/cuemby/pivot/pkg/storage"
	"github.com/rs/zerolog"
)

const enforcerTick = 3 * time.Second

// deletionEnforcer is a short-lived, per-deletion loop that waits for every
// in-flight deployment still touching an appliance's group path to drain,
// then issues the final non-forced group delete and removes the appliance
// record. It stops itself once that succeeds; nothing else owns its
// lifecycle.
type deletionEnforcer struct {
	service     *backend.ServiceBackend
	store       storage.Store
	applianceID string
	logger      zerolog.Logger
}

func newDeletionEnforcer(service *backend.ServiceBackend, store storage.Store, applianceID string, logger zerolog.Logger) *deletionEnforcer {
	return &deletionEnforcer{
		service:     service,
		store:       store,
		applianceID: applianceID,
		logger:      logger.With().Str("enforcer_for", applianceID).Logger(),
	}
}

// Start launches the sweep in a new goroutine. There is no Stop: the loop
// only ever exits by succeeding or by ctx cancellation.
func (e *deletionEnforcer) Start(ctx context.Context) {
	go e.run(ctx)
}

func (e *deletionEnforcer) run(ctx context.Context) {
	ticker := time.NewTicker(enforcerTick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if e.tick(ctx) {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// tick reports whether the appliance has been fully torn down.
func (e *deletionEnforcer) tick(ctx context.Context) bool {
	deployments, err := e.service.Deployments(ctx, e.applianceID)
	if err != nil {
		e.logger.Warn().Err(err).Msg("deployment poll failed, retrying")
		return false
	}
	if len(deployments) > 0 {
		return false
	}

	if err := e.service.RemoveGroup(ctx, e.applianceID, false); err != nil {
		e.logger.Warn().Err(err).Msg("final group delete failed, retrying")
		return false
	}

	if err := e.store.DeleteAppliance(e.applianceID); err != nil {
		e.logger.Warn().Err(err).Msg("appliance record delete failed, retrying")
		return false
	}

	e.logger.Info().Msg("appliance deletion complete")
	return true
}
