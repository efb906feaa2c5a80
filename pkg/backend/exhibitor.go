package backend

import (
	"context"

	"github.com/cuemby/pivot/pkg/corerr"
)

// ExhibitorBackend discovers the current leader of the coordination
// ensemble backing the job and cluster-master backends, so PIVOT can
// rewrite its live endpoints when a leader election happens underneath it.
type ExhibitorBackend struct {
	client   *Client
	endpoint string
}

func NewExhibitorBackend(baseURL, endpoint string) *ExhibitorBackend {
	return &ExhibitorBackend{client: NewClient("exhibitor", baseURL), endpoint: endpoint}
}

// Leader returns the hostname of the current ensemble leader.
func (b *ExhibitorBackend) Leader(ctx context.Context) (string, error) {
	var out wireExhibitorStatus
	if err := b.client.Do(ctx, "GET", b.endpoint, nil, &out); err != nil {
		return "", err
	}
	for _, s := range out.Servers {
		if s.IsLeader {
			return s.Hostname, nil
		}
	}
	return "", corerr.NotFound("no leader reported by exhibitor")
}
