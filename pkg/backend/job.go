package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/cuemby/pivot/pkg/types"
)

// JobBackend submits and queries JOB-kind containers against the one-shot
// job orchestrator. Unlike services, jobs are one definition per task
// instance: a container with Instances > 1 gets one job name per seq id.
type JobBackend struct {
	client   *Client
	endpoint string
}

func NewJobBackend(baseURL, endpoint string) *JobBackend {
	return &JobBackend{client: NewClient("job", baseURL), endpoint: endpoint}
}

// Submit creates the job definition for one task. taskEnv augments c.Env
// with per-task values (e.g. DATA_SRC_* placement variables computed by
// the global scheduler); taskEnv keys win on conflict.
func (b *JobBackend) Submit(ctx context.Context, applianceID string, c *types.Container, taskID string, taskEnv map[string]string) error {
	env := make(map[string]string, len(c.Env)+len(taskEnv))
	for k, v := range c.Env {
		env[k] = v
	}
	for k, v := range taskEnv {
		env[k] = v
	}

	job := &wireJob{
		Name:       fmt.Sprintf("%s-%s", applianceID, taskID),
		Command:    strings.Join(append(c.Cmd, c.Args...), " "),
		CPUs:       c.Resources.CPUs,
		Mem:        c.Resources.Mem,
		Disk:       c.Resources.Disk,
		Env:        env,
		ForcePull:  c.ForcePullImage,
		Privileged: c.IsPrivileged,
	}
	if c.Image != "" {
		job.Container = &wireDocker{Image: c.Image, Network: string(c.NetworkMode)}
		job.Container.Parameters = VolumeDriverParams(c.VolumeType, c.Mounts)
	}

	return b.client.Do(ctx, "POST", b.endpoint, job, nil)
}

// Status returns the latest run's outcome for a task's job definition.
func (b *JobBackend) Status(ctx context.Context, jobName string) (*wireJobStatus, error) {
	var out wireJobStatus
	path := fmt.Sprintf("%s/%s", b.endpoint, jobName)
	if err := b.client.Do(ctx, "GET", path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Remove deletes a job definition.
func (b *JobBackend) Remove(ctx context.Context, jobName string) error {
	path := fmt.Sprintf("%s/%s", b.endpoint, jobName)
	return b.client.Do(ctx, "DELETE", path, nil, nil)
}
