package manager

import (
	"github.com/cuemby/pivot/pkg/corerr"
	"github.com/cuemby/pivot/pkg/log"
	"github.com/cuemby/pivot/pkg/storage"
	"github.com/cuemby/pivot/pkg/types"
	"github.com/rs/zerolog"
)

// VolumeManager tracks PersistentVolume lifecycle and reference counting.
// LOCAL volumes belong to one appliance; GLOBAL volumes are shared and
// reference-counted through UsedBy.
type VolumeManager struct {
	store  storage.Store
	logger zerolog.Logger
}

func NewVolumeManager(store storage.Store) *VolumeManager {
	return &VolumeManager{store: store, logger: log.WithComponent("volume-manager")}
}

// Provision creates v if it does not already exist, or subscribes
// applianceID to an existing GLOBAL volume's reference count. A LOCAL
// volume is created once per appliance; re-provisioning an existing LOCAL
// volume is a no-op.
func (m *VolumeManager) Provision(applianceID string, v *types.PersistentVolume) error {
	existing, err := m.store.GetVolume(v.ID)
	if err != nil {
		if !corerr.IsNotFound(err) {
			return err
		}
		v.State = types.VolumeCreated
		if v.Scope == types.ScopeGlobal {
			if v.UsedBy == nil {
				v.UsedBy = map[string]bool{}
			}
			v.UsedBy[applianceID] = true
		} else {
			v.ApplianceID = applianceID
		}
		return m.store.CreateVolume(v)
	}

	if existing.Scope == types.ScopeGlobal {
		if existing.UsedBy == nil {
			existing.UsedBy = map[string]bool{}
		}
		existing.UsedBy[applianceID] = true
		return m.store.UpdateVolume(existing)
	}
	return nil
}

// Activate transitions v to ACTIVE once its backend-side provisioning has
// completed.
func (m *VolumeManager) Activate(id string) error {
	v, err := m.store.GetVolume(id)
	if err != nil {
		return err
	}
	v.State = types.VolumeActive
	return m.store.UpdateVolume(v)
}

// Deprovision transitions a volume to INACTIVE without deleting it, used
// on appliance deletion without purgeData.
func (m *VolumeManager) Deprovision(id string) error {
	v, err := m.store.GetVolume(id)
	if err != nil {
		if corerr.IsNotFound(err) {
			return nil
		}
		return err
	}
	v.State = types.VolumeInactive
	return m.store.UpdateVolume(v)
}

// Unsubscribe removes applianceID from a GLOBAL volume's reference count.
// A no-op for LOCAL volumes or volumes that no longer exist.
func (m *VolumeManager) Unsubscribe(applianceID, id string) error {
	v, err := m.store.GetVolume(id)
	if err != nil {
		if corerr.IsNotFound(err) {
			return nil
		}
		return err
	}
	if v.Scope != types.ScopeGlobal {
		return nil
	}
	delete(v.UsedBy, applianceID)
	return m.store.UpdateVolume(v)
}

// Purge deletes v outright. A GLOBAL volume with a non-empty UsedBy, or a
// LOCAL volume the caller reports as still mounted, cannot be purged.
func (m *VolumeManager) Purge(id string, mounted bool) error {
	v, err := m.store.GetVolume(id)
	if err != nil {
		return err
	}
	if v.Scope == types.ScopeGlobal && len(v.UsedBy) > 0 {
		return corerr.BadRequest("volume %s still referenced by %d appliance(s)", id, len(v.UsedBy))
	}
	if v.Scope == types.ScopeLocal && mounted {
		return corerr.BadRequest("volume %s still mounted", id)
	}
	return m.store.DeleteVolume(id)
}
