package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/quicklaunch/quicklaunch/pkg/config"
	"github.com/quicklaunch/quicklaunch/pkg/diagnostics"
	"github.com/quicklaunch/quicklaunch/pkg/healthprobe"
	"github.com/quicklaunch/quicklaunch/pkg/httpapi"
	"github.com/quicklaunch/quicklaunch/pkg/lifecycle"
	"github.com/quicklaunch/quicklaunch/pkg/log"
	"github.com/quicklaunch/quicklaunch/pkg/metrics"
	"github.com/quicklaunch/quicklaunch/pkg/portbroker"
	"github.com/quicklaunch/quicklaunch/pkg/process"
	"github.com/quicklaunch/quicklaunch/pkg/reconciler"
	"github.com/quicklaunch/quicklaunch/pkg/rpc"
	"github.com/quicklaunch/quicklaunch/pkg/schedule"
	"github.com/quicklaunch/quicklaunch/pkg/state"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "quicklaunch",
	Short: "QuickLaunch - a local development process supervisor",
	Long: `QuickLaunch watches over locally-run apps: it spawns them, health
checks them, restarts them on crash, runs scheduled jobs for them, and
classifies their failures so you spend less time re-reading the same
stack trace.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"quicklaunch version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("data-dir", "./quicklaunch-data", "Directory for config, logs, and scheduler state")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	rootCmd.PersistentFlags().String("addr", "http://127.0.0.1:8000", "QuickLaunch API address, for CLI subcommands")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(appsCmd)
	rootCmd.AddCommand(portsCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(todosCmd)
	rootCmd.AddCommand(resolutionsCmd)
	rootCmd.AddCommand(migrateCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level:      log.Level(logLevel),
		JSONOutput: logJSON,
	})
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the QuickLaunch supervisor",
	Long: `serve starts the supervisor: the HTTP API on --api-addr, a
separate metrics/health listener on --metrics-addr, and the cron-backed
scheduler for apps with a Schedule set.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("api-addr", "127.0.0.1:8000", "Address for the QuickLaunch HTTP API")
	serveCmd.Flags().String("metrics-addr", "127.0.0.1:9090", "Address for /metrics, /health, /ready, /live")
}

func runServe(cmd *cobra.Command, args []string) error {
	dataDir, _ := cmd.Flags().GetString("data-dir")
	apiAddr, _ := cmd.Flags().GetString("api-addr")
	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	store := config.NewStore(filepath.Join(dataDir, "config.json"))
	if err := store.Load(); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	diag := diagnostics.New(dataDir)
	broker := portbroker.New(store)
	mgr := lifecycle.NewManager(process.NewTable(), store, broker, healthprobe.New(), diag)

	st, err := state.Open(dataDir)
	if err != nil {
		return fmt.Errorf("failed to open scheduler state: %w", err)
	}
	defer st.Close()

	sched := schedule.New(store, st, mgr)
	sched.Start()
	defer sched.Stop()

	reaper := reconciler.New(mgr, 1*time.Minute, 10*time.Minute)
	reaper.Start()
	defer reaper.Stop()

	handlers := rpc.New(mgr, broker, store, sched, diag)

	go func() {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", metrics.Handler())
		metricsMux.HandleFunc("/health", healthHandler)
		metricsMux.HandleFunc("/ready", healthHandler)
		metricsMux.HandleFunc("/live", healthHandler)
		if err := http.ListenAndServe(metricsAddr, metricsMux); err != nil {
			fmt.Fprintf(os.Stderr, "metrics server error: %v\n", err)
		}
	}()
	fmt.Printf("✓ Metrics endpoint: http://%s/metrics\n", metricsAddr)

	apiServer := &http.Server{
		Addr:    apiAddr,
		Handler: httpapi.Router(handlers),
	}
	errCh := make(chan error, 1)
	go func() {
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("API server error: %w", err)
		}
	}()
	fmt.Printf("✓ QuickLaunch API listening on http://%s\n", apiAddr)
	fmt.Println("Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		fmt.Println("\nShutting down...")
	case err := <-errCh:
		fmt.Fprintf(os.Stderr, "\n%v\n", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down API server: %w", err)
	}
	fmt.Println("✓ Shutdown complete")
	return nil
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
