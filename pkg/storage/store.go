package storage

import "github.com/cuemby/pivot/pkg/types"

// Store is the abstract persistence interface for PIVOT's two durable
// entity types: Appliance and PersistentVolume. Agent snapshots and
// schedule plans are deliberately not part of this interface: they are
// transient, reconstructed from the cluster poller on every cycle rather
// than persisted (see pkg/cluster).
type Store interface {
	CreateAppliance(a *types.Appliance) error
	GetAppliance(id string) (*types.Appliance, error)
	ListAppliances() ([]*types.Appliance, error)
	// FilterAppliances returns every appliance for which pred returns true.
	FilterAppliances(pred func(*types.Appliance) bool) ([]*types.Appliance, error)
	UpdateAppliance(a *types.Appliance) error
	DeleteAppliance(id string) error

	CreateVolume(v *types.PersistentVolume) error
	GetVolume(id string) (*types.PersistentVolume, error)
	ListVolumes() ([]*types.PersistentVolume, error)
	FilterVolumes(pred func(*types.PersistentVolume) bool) ([]*types.PersistentVolume, error)
	UpdateVolume(v *types.PersistentVolume) error
	DeleteVolume(id string) error

	Close() error
}
