package manager

import (
	"github.com/cuemby/pivot/pkg/corerr"
	"github.com/cuemby/pivot/pkg/log"
	"github.com/cuemby/pivot/pkg/storage"
	"github.com/cuemby/pivot/pkg/types"
	"github.com/rs/zerolog"
)

// TaskManagerCommon holds store-backed operations shared across the
// per-backend task managers, rather than duplicated on each of them.
type TaskManagerCommon struct {
	store  storage.Store
	logger zerolog.Logger
}

func NewTaskManagerCommon(store storage.Store) *TaskManagerCommon {
	return &TaskManagerCommon{store: store, logger: log.WithComponent("task-manager-common")}
}

// UpdateSysHints overwrites containerID's system schedule hints without
// touching the rest of the container, used by the global scheduler to
// stamp a placement decision after the fact.
func (m *TaskManagerCommon) UpdateSysHints(containerID string, hints types.ScheduleHints) error {
	appliances, err := m.store.FilterAppliances(func(a *types.Appliance) bool {
		for _, c := range a.Containers {
			if c.ID == containerID {
				return true
			}
		}
		return false
	})
	if err != nil {
		return err
	}
	if len(appliances) == 0 {
		return corerr.NotFound("container %s not found", containerID)
	}

	a := appliances[0]
	for _, c := range a.Containers {
		if c.ID == containerID {
			c.SysHints = hints
			break
		}
	}
	return m.store.UpdateAppliance(a)
}
