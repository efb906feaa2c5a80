package storage

import (
	"sync"

	"github.com/cuemby/pivot/pkg/corerr"
	"github.com/cuemby/pivot/pkg/types"
)

// MemStore is an in-memory Store, used by tests and by single-node demo
// deployments that don't need a pivot.db file.
type MemStore struct {
	mu         sync.Mutex
	appliances map[string]*types.Appliance
	volumes    map[string]*types.PersistentVolume
}

func NewMemStore() *MemStore {
	return &MemStore{
		appliances: make(map[string]*types.Appliance),
		volumes:    make(map[string]*types.PersistentVolume),
	}
}

func (s *MemStore) Close() error { return nil }

func (s *MemStore) CreateAppliance(a *types.Appliance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appliances[a.ID] = a
	return nil
}

func (s *MemStore) GetAppliance(id string) (*types.Appliance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appliances[id]
	if !ok {
		return nil, corerr.NotFound("appliance %q not found", id)
	}
	return a, nil
}

func (s *MemStore) ListAppliances() ([]*types.Appliance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*types.Appliance, 0, len(s.appliances))
	for _, a := range s.appliances {
		out = append(out, a)
	}
	return out, nil
}

func (s *MemStore) FilterAppliances(pred func(*types.Appliance) bool) ([]*types.Appliance, error) {
	all, _ := s.ListAppliances()
	var out []*types.Appliance
	for _, a := range all {
		if pred(a) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *MemStore) UpdateAppliance(a *types.Appliance) error {
	return s.CreateAppliance(a)
}

func (s *MemStore) DeleteAppliance(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.appliances, id)
	return nil
}

func (s *MemStore) CreateVolume(v *types.PersistentVolume) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volumes[v.ID] = v
	return nil
}

func (s *MemStore) GetVolume(id string) (*types.PersistentVolume, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.volumes[id]
	if !ok {
		return nil, corerr.NotFound("volume %q not found", id)
	}
	return v, nil
}

func (s *MemStore) ListVolumes() ([]*types.PersistentVolume, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*types.PersistentVolume, 0, len(s.volumes))
	for _, v := range s.volumes {
		out = append(out, v)
	}
	return out, nil
}

func (s *MemStore) FilterVolumes(pred func(*types.PersistentVolume) bool) ([]*types.PersistentVolume, error) {
	all, _ := s.ListVolumes()
	var out []*types.PersistentVolume
	for _, v := range all {
		if pred(v) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s *MemStore) UpdateVolume(v *types.PersistentVolume) error {
	return s.CreateVolume(v)
}

func (s *MemStore) DeleteVolume(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.volumes, id)
	return nil
}
