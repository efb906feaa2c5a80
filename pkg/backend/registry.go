package backend

import (
	"context"
	"net/url"
	"strings"
)

// DataObject is a named blob and the resource names holding a replica of
// it, as reported by the object registry.
type DataObject struct {
	Path     string
	Size     int64
	Replicas []string
}

// ObjectRegistryBackend is the optional collaborator location-aware
// placement consults to learn where a task's input data already lives.
type ObjectRegistryBackend struct {
	client *Client
}

func NewObjectRegistryBackend(baseURL string) *ObjectRegistryBackend {
	return &ObjectRegistryBackend{client: NewClient("object-registry", baseURL)}
}

// DataObjects resolves filenames to their size and replica resource names.
func (b *ObjectRegistryBackend) DataObjects(ctx context.Context, filenames []string) ([]DataObject, error) {
	var out []wireDataObject
	path := "/getDataObjects?filenames=" + url.QueryEscape(strings.Join(filenames, ","))
	if err := b.client.Do(ctx, "GET", path, nil, &out); err != nil {
		return nil, err
	}

	objects := make([]DataObject, 0, len(out))
	for _, o := range out {
		obj := DataObject{Path: o.Path, Size: o.Size}
		for _, r := range o.Replicas {
			obj.Replicas = append(obj.Replicas, r.ResourceName)
		}
		objects = append(objects, obj)
	}
	return objects, nil
}

// ResourceRegions resolves resource names to the region each one runs in.
func (b *ObjectRegistryBackend) ResourceRegions(ctx context.Context, resourceNames []string) (map[string]string, error) {
	var out []wireResourceMeta
	path := "/getResourcesMetadata?resource_names=" + url.QueryEscape(strings.Join(resourceNames, ","))
	if err := b.client.Do(ctx, "GET", path, nil, &out); err != nil {
		return nil, err
	}

	regions := make(map[string]string, len(out))
	for _, m := range out {
		regions[m.Name] = m.Region
	}
	return regions, nil
}
