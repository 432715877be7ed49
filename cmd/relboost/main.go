package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/xh3b4sd/tracer"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xh3b4sd/relboost/registry"
)

var (
	debug       bool
	metricsAddr string
	registryPat string

	logger  *zap.Logger
	metrics *prometheus.Registry
)

var rootCmd = &cobra.Command{
	Use:   "relboost",
	Short: "Train and evaluate gradient boosted trees on relational benchmark tasks",
	Long: `relboost materializes relational benchmark datasets into a local SQLite
database, generates per split feature tables from a task's feats.sql, tunes a
LightGBM or XGBoost model and evaluates its predictions after realigning them
onto the task's label rows.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if debug {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}

		var err error
		logger, err = config.Build()
		if err != nil {
			return tracer.Mask(err)
		}

		metrics = prometheus.NewRegistry()

		if metricsAddr != "" {
			go serve(metricsAddr)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Log at debug level and stream the training script output.")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while running, e.g. :9090.")
	rootCmd.PersistentFlags().StringVar(&registryPat, "registry", "", "Dataset and task registry file. Defaults to the built-in registry.")

	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(trainCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func load() (*registry.Registry, error) {
	if registryPat == "" {
		return registry.Default()
	}

	return registry.Load(registryPat)
}

func serve(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics, promhttp.HandlerOpts{}))

	err := http.ListenAndServe(addr, mux)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("serving metrics failed", zap.String("address", addr), zap.Error(err))
	}
}
