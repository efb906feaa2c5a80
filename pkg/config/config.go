// Package config loads PIVOT's layered configuration: a YAML file provides
// defaults, environment variables prefixed PIVOT_ override individual
// keys. This mirrors the file-plus-env layering the rest of the example
// stack uses viper for, adapted to PIVOT's backend-per-subsystem shape.
package config

import (
	"fmt"
	"os"
	"sync"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Backend is the connection info for one upstream scheduling backend
// (service orchestrator, job orchestrator, cluster master, or leader
// discovery service).
type Backend struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
}

// Addr returns "host:port".
func (b Backend) Addr() string {
	return fmt.Sprintf("%s:%d", b.Host, b.Port)
}

// Pivot holds the control-plane's own operational knobs.
type Pivot struct {
	Master    string `yaml:"master" mapstructure:"master"`
	Port      int    `yaml:"port" mapstructure:"port"`
	NParallel int    `yaml:"n_parallel" mapstructure:"n_parallel"`
	Scheduler string `yaml:"scheduler" mapstructure:"scheduler"`
	HTTPS     bool   `yaml:"https" mapstructure:"https"`
}

// DB is the storage directory configuration; PIVOT's embedded store needs
// only a name and a host directory, not network connection info.
type DB struct {
	Host string `yaml:"host" mapstructure:"host"`
	Port int    `yaml:"port" mapstructure:"port"`
	Name string `yaml:"name" mapstructure:"name"`
}

// Config is the fully resolved configuration tree.
type Config struct {
	Pivot     Pivot   `yaml:"pivot" mapstructure:"pivot"`
	DB        DB      `yaml:"db" mapstructure:"db"`
	Service   Backend `yaml:"service" mapstructure:"service"`
	Job       Backend `yaml:"job" mapstructure:"job"`
	Mesos     Backend `yaml:"mesos" mapstructure:"mesos"`
	Exhibitor Backend `yaml:"exhibitor" mapstructure:"exhibitor"`
}

// Default returns the configuration a freshly cloned cluster would start
// with: loopback backends, n_parallel 4, and the "default" scheduler
// policy (first-fit).
func Default() Config {
	return Config{
		Pivot: Pivot{
			Master:    "localhost",
			Port:      9000,
			NParallel: 4,
			Scheduler: "default",
			HTTPS:     false,
		},
		DB: DB{Host: ".", Port: 0, Name: "pivot"},
		Service: Backend{
			Host: "localhost", Port: 8080, Endpoint: "/v2/apps",
		},
		Job: Backend{
			Host: "localhost", Port: 4400, Endpoint: "/scheduler/jobs",
		},
		Mesos: Backend{
			Host: "localhost", Port: 5050, Endpoint: "/master",
		},
		Exhibitor: Backend{
			Host: "localhost", Port: 8181, Endpoint: "/exhibitor/v1/cluster/status",
		},
	}
}

// Load reads the YAML file at path over the defaults, then lets these
// environment variables override the matching values: PIVOT_MASTER,
// PIVOT_PORT, PIVOT_N_PARALLEL, PIVOT_SCHEDULER, and PIVOT_<NAME>_HOST /
// PIVOT_<NAME>_PORT for the SERVICE, JOB, MESOS and EXHIBITOR backends.
// Backend endpoints, the HTTPS flag and the DB block come from YAML only.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()

	applyEnvOverride(v, "PIVOT_MASTER", &cfg.Pivot.Master)
	applyEnvIntOverride(v, "PIVOT_PORT", &cfg.Pivot.Port)
	applyEnvIntOverride(v, "PIVOT_N_PARALLEL", &cfg.Pivot.NParallel)
	applyEnvOverride(v, "PIVOT_SCHEDULER", &cfg.Pivot.Scheduler)
	applyEnvOverride(v, "PIVOT_SERVICE_HOST", &cfg.Service.Host)
	applyEnvIntOverride(v, "PIVOT_SERVICE_PORT", &cfg.Service.Port)
	applyEnvOverride(v, "PIVOT_JOB_HOST", &cfg.Job.Host)
	applyEnvIntOverride(v, "PIVOT_JOB_PORT", &cfg.Job.Port)
	applyEnvOverride(v, "PIVOT_MESOS_HOST", &cfg.Mesos.Host)
	applyEnvIntOverride(v, "PIVOT_MESOS_PORT", &cfg.Mesos.Port)
	applyEnvOverride(v, "PIVOT_EXHIBITOR_HOST", &cfg.Exhibitor.Host)
	applyEnvIntOverride(v, "PIVOT_EXHIBITOR_PORT", &cfg.Exhibitor.Port)

	return cfg, nil
}

func applyEnvOverride(v *viper.Viper, key string, dst *string) {
	if s := v.GetString(key); s != "" {
		*dst = s
	}
}

func applyEnvIntOverride(v *viper.Viper, key string, dst *int) {
	if s := v.GetString(key); s != "" {
		*dst = v.GetInt(key)
	}
}

// LiveEndpoints tracks the exhibitor-discovered current leader for the job
// and cluster-master backends, rewritten whenever the cluster poller
// detects a leader change. Only the job and mesos entries are tracked; the
// service and exhibitor endpoints are not rewritten. The backend clients
// built at startup keep the static Config addresses and do not read from
// this struct.
type LiveEndpoints struct {
	mu    sync.RWMutex
	job   Backend
	mesos Backend
}

// NewLiveEndpoints seeds the live endpoints from the static config.
func NewLiveEndpoints(cfg Config) *LiveEndpoints {
	return &LiveEndpoints{job: cfg.Job, mesos: cfg.Mesos}
}

func (l *LiveEndpoints) Job() Backend {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.job
}

func (l *LiveEndpoints) Mesos() Backend {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.mesos
}

func (l *LiveEndpoints) SetJob(b Backend) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.job = b
}

func (l *LiveEndpoints) SetMesos(b Backend) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.mesos = b
}
