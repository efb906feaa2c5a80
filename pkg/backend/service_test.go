package backend

import (
	"testing"
	"time"

	"github.com/cuemby/pivot/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestTranslateHealthCheck(t *testing.T) {
	tests := []struct {
		name string
		in   *types.HealthCheck
		want wireHealthCheck
	}{
		{
			name: "http",
			in: &types.HealthCheck{
				Type:     types.HealthCheckHTTP,
				Endpoint: "/healthz",
				Interval: 10 * time.Second,
				Timeout:  2 * time.Second,
				Retries:  3,
			},
			want: wireHealthCheck{
				Protocol: "http", Path: "/healthz",
				IntervalSeconds: 10, TimeoutSeconds: 2, MaxConsecutiveFailures: 3,
			},
		},
		{
			name: "tcp",
			in: &types.HealthCheck{
				Type:     types.HealthCheckTCP,
				Endpoint: ":8080",
				Interval: 5 * time.Second,
				Timeout:  1 * time.Second,
			},
			want: wireHealthCheck{
				Protocol: "tcp", Path: ":8080",
				IntervalSeconds: 5, TimeoutSeconds: 1,
			},
		},
		{
			name: "exec",
			in: &types.HealthCheck{
				Type:    types.HealthCheckExec,
				Command: []string{"pg_isready", "-U", "postgres"},
			},
			want: wireHealthCheck{
				Protocol: "exec", Command: "pg_isready -U postgres",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, translateHealthCheck(tt.in))
		})
	}
}
