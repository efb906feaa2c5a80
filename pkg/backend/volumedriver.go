package backend

import "github.com/cuemby/pivot/pkg/types"

// VolumeDriverParams translates a container's persistent-volume mounts
// into the Docker parameter entries both the service and job backends
// accept: one "volume-driver" entry naming the appliance's configured
// driver, and one "volume" entry per mount in <src>:<dst>[:ro] form.
func VolumeDriverParams(driverType string, mounts []types.VolumeMount) []wireKV {
	if len(mounts) == 0 {
		return nil
	}

	params := []wireKV{{Key: "volume-driver", Value: driverType}}
	for _, m := range mounts {
		spec := m.Src + ":" + m.Dst
		if m.ReadOnly {
			spec += ":ro"
		}
		params = append(params, wireKV{Key: "volume", Value: spec})
	}
	return params
}
