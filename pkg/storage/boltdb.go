package storage

import (
	"encoding/json"
	"path/filepath"

	"github.com/cuemby/pivot/pkg/corerr"
	"github.com/cuemby/pivot/pkg/types"
	bolt "go.etcd.io/bbolt"
)

var (
	bucketAppliances = []byte("appliances")
	bucketVolumes    = []byte("volumes")
)

// BoltStore implements Store on top of an embedded bbolt database: one
// bucket per entity type, JSON-encoded values keyed by entity id.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (or creates) pivot.db under dataDir and ensures both
// buckets exist.
func NewBoltStore(dataDir string) (*BoltStore, error) {
	dbPath := filepath.Join(dataDir, "pivot.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, corerr.Internal(err, "open database at %s", dbPath)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketAppliances, bucketVolumes} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return corerr.Internal(err, "create bucket %s", bucket)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) CreateAppliance(a *types.Appliance) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(a)
		if err != nil {
			return corerr.Internal(err, "marshal appliance %s", a.ID)
		}
		return tx.Bucket(bucketAppliances).Put([]byte(a.ID), data)
	})
}

func (s *BoltStore) GetAppliance(id string) (*types.Appliance, error) {
	var a types.Appliance
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketAppliances).Get([]byte(id))
		if data == nil {
			return corerr.NotFound("appliance %q not found", id)
		}
		return json.Unmarshal(data, &a)
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *BoltStore) ListAppliances() ([]*types.Appliance, error) {
	var out []*types.Appliance
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketAppliances).ForEach(func(k, v []byte) error {
			var a types.Appliance
			if err := json.Unmarshal(v, &a); err != nil {
				return corerr.Internal(err, "unmarshal appliance %s", k)
			}
			out = append(out, &a)
			return nil
		})
	})
	return out, err
}

func (s *BoltStore) FilterAppliances(pred func(*types.Appliance) bool) ([]*types.Appliance, error) {
	all, err := s.ListAppliances()
	if err != nil {
		return nil, err
	}
	var out []*types.Appliance
	for _, a := range all {
		if pred(a) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *BoltStore) UpdateAppliance(a *types.Appliance) error {
	return s.CreateAppliance(a)
}

func (s *BoltStore) DeleteAppliance(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketAppliances).Delete([]byte(id))
	})
}

func (s *BoltStore) CreateVolume(v *types.PersistentVolume) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(v)
		if err != nil {
			return corerr.Internal(err, "marshal volume %s", v.ID)
		}
		return tx.Bucket(bucketVolumes).Put([]byte(v.ID), data)
	})
}

func (s *BoltStore) GetVolume(id string) (*types.PersistentVolume, error) {
	var v types.PersistentVolume
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketVolumes).Get([]byte(id))
		if data == nil {
			return corerr.NotFound("volume %q not found", id)
		}
		return json.Unmarshal(data, &v)
	})
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *BoltStore) ListVolumes() ([]*types.PersistentVolume, error) {
	var out []*types.PersistentVolume
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketVolumes).ForEach(func(k, v []byte) error {
			var vol types.PersistentVolume
			if err := json.Unmarshal(v, &vol); err != nil {
				return corerr.Internal(err, "unmarshal volume %s", k)
			}
			out = append(out, &vol)
			return nil
		})
	})
	return out, err
}

func (s *BoltStore) FilterVolumes(pred func(*types.PersistentVolume) bool) ([]*types.PersistentVolume, error) {
	all, err := s.ListVolumes()
	if err != nil {
		return nil, err
	}
	var out []*types.PersistentVolume
	for _, v := range all {
		if pred(v) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s *BoltStore) UpdateVolume(v *types.PersistentVolume) error {
	return s.CreateVolume(v)
}

func (s *BoltStore) DeleteVolume(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketVolumes).Delete([]byte(id))
	})
}
