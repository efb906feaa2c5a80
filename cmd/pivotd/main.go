package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cuemby/pivot/pkg/api"
	"github.com/cuemby/pivot/pkg/backend"
	"github.com/cuemby/pivot/pkg/cluster"
	"github.com/cuemby/pivot/pkg/config"
	"github.com/cuemby/pivot/pkg/lifecycle"
	"github.com/cuemby/pivot/pkg/log"
	"github.com/cuemby/pivot/pkg/manager"
	"github.com/cuemby/pivot/pkg/metrics"
	"github.com/cuemby/pivot/pkg/reconciler"
	"github.com/cuemby/pivot/pkg/scheduler"
	"github.com/cuemby/pivot/pkg/storage"
	"github.com/spf13/cobra"
)

var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "pivotd",
	Short:   "PIVOT control plane",
	Long:    `pivotd schedules appliances across Marathon/Mesos-style backends and serves a thin HTTP API over the result.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("pivotd version %s\nCommit: %s\n", Version, Commit))
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	rootCmd.PersistentFlags().String("config", "", "Path to a pivot.yaml config file")
	rootCmd.PersistentFlags().String("data-dir", "./pivot-data", "Directory for the embedded store")
	rootCmd.PersistentFlags().String("api-addr", "127.0.0.1:9000", "HTTP API listen address")
	rootCmd.PersistentFlags().Bool("memstore", false, "Use an in-memory store instead of BoltDB (testing only)")

	cobra.OnInitialize(initLogging)
	rootCmd.AddCommand(runCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")
	log.Init(log.Config{Level: log.Level(logLevel), JSONOutput: logJSON})
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the control plane",
	RunE:  runPivotd,
}

func runPivotd(cmd *cobra.Command, args []string) error {
	cfgPath, _ := cmd.Flags().GetString("config")
	dataDir, _ := cmd.Flags().GetString("data-dir")
	apiAddr, _ := cmd.Flags().GetString("api-addr")
	useMemStore, _ := cmd.Flags().GetBool("memstore")

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	var store storage.Store
	if useMemStore {
		store = storage.NewMemStore()
	} else {
		boltStore, err := storage.NewBoltStore(dataDir)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer boltStore.Close()
		store = boltStore
	}

	serviceBack := backend.NewServiceBackend(cfg.Service.Addr(), cfg.Service.Endpoint)
	jobBack := backend.NewJobBackend(cfg.Job.Addr(), cfg.Job.Endpoint)
	mesosBack := backend.NewMesosBackend(cfg.Mesos.Addr(), cfg.Mesos.Endpoint)
	exhibitorBack := backend.NewExhibitorBackend(cfg.Exhibitor.Addr(), cfg.Exhibitor.Endpoint)

	serviceTasks := manager.NewServiceTaskManager(serviceBack)
	jobTasks := manager.NewJobTaskManager(jobBack, mesosBack)
	generalTasks := manager.NewGeneralTaskManager(mesosBack)
	volumes := manager.NewVolumeManager(store)

	endpoints := config.NewLiveEndpoints(cfg)
	poller := cluster.New(mesosBack, exhibitorBack, endpoints, 5*time.Second)

	policyName := cfg.Pivot.Scheduler
	placementPolicy, err := scheduler.LookupPolicy(policyName)
	if err != nil {
		return fmt.Errorf("resolve scheduler policy %q: %w", policyName, err)
	}

	sysHints := manager.NewTaskManagerCommon(store)
	global := scheduler.NewGlobalScheduler(poller, placementPolicy, volumes, serviceTasks, jobTasks, sysHints)
	life := lifecycle.NewManager(store, volumes, serviceTasks, jobTasks, generalTasks, serviceBack, global)
	watchdog := reconciler.NewWatchdog(global)
	collector := metrics.NewCollector(store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	poller.Start(ctx)
	global.Start(ctx)
	watchdog.Start(ctx)
	collector.Start()

	metrics.SetVersion(Version)
	metrics.RegisterComponent("store", true, "ready")
	metrics.RegisterComponent("api", false, "starting")

	srv := api.NewServer(store, life, volumes)
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(apiAddr); err != nil {
			errCh <- err
		}
	}()
	time.Sleep(200 * time.Millisecond)
	metrics.RegisterComponent("api", true, "ready")

	fmt.Printf("pivotd listening on %s (data dir: %s)\n", apiAddr, dataDir)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		fmt.Println("shutting down...")
	case err := <-errCh:
		fmt.Fprintf(os.Stderr, "api server error: %v\n", err)
	}

	collector.Stop()
	watchdog.Stop()
	global.Stop()
	poller.Stop()
	if err := srv.Stop(); err != nil {
		fmt.Fprintf(os.Stderr, "api shutdown error: %v\n", err)
	}

	fmt.Println("shutdown complete")
	return nil
}
