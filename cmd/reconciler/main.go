// Package main is the entrypoint for the ldp-reconciler daemon.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"k8s.io/apimachinery/pkg/runtime"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/healthz"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
	"sigs.k8s.io/controller-runtime/pkg/manager"
	metricsserver "sigs.k8s.io/controller-runtime/pkg/metrics/server"

	"github.com/anhhoangdev/ldpctl/internal/catalog"
	"github.com/anhhoangdev/ldpctl/internal/config"
	"github.com/anhhoangdev/ldpctl/internal/orchestrate"
	"github.com/anhhoangdev/ldpctl/internal/platform/kube"
	"github.com/anhhoangdev/ldpctl/internal/reconcile"
)

var (
	scheme   = runtime.NewScheme()
	setupLog = ctrl.Log.WithName("setup")

	// Version is set at build time
	Version = "dev"
)

func init() {
	utilruntime.Must(clientgoscheme.AddToScheme(scheme))
}

func main() {
	var (
		configPath           string
		interval             time.Duration
		metricsAddr          string
		probeAddr            string
		enableLeaderElection bool
		leaderElectionID     string
	)

	flag.StringVar(&configPath, "config", "", "Path to the platform configuration file. Discovered when empty.")
	flag.DurationVar(&interval, "interval", reconcile.DefaultInterval, "Pause between convergence passes.")
	flag.StringVar(&metricsAddr, "metrics-bind-address", ":8080", "The address the metric endpoint binds to.")
	flag.StringVar(&probeAddr, "health-probe-bind-address", ":8081", "The address the probe endpoint binds to.")
	flag.BoolVar(&enableLeaderElection, "leader-elect", false, "Enable leader election so only one replica converges.")
	flag.StringVar(&leaderElectionID, "leader-election-id", "ldp-reconciler", "The name of the leader election resource.")

	opts := zap.Options{
		Development: os.Getenv("DEBUG") == "true",
	}
	opts.BindFlags(flag.CommandLine)
	flag.Parse()

	ctrl.SetLogger(zap.New(zap.UseFlagOptions(&opts)))

	setupLog.Info("starting ldp-reconciler", "version", Version, "interval", interval)

	cfg := loadConfigOrExit(configPath)

	restConfig, err := ctrl.GetConfig()
	if err != nil {
		setupLog.Error(err, "unable to resolve kubernetes configuration")
		os.Exit(2)
	}
	kubeClient, err := kube.New(restConfig, kube.DefaultFieldManager)
	if err != nil {
		setupLog.Error(err, "unable to create kubernetes client")
		os.Exit(2)
	}

	// The daemon only converges manifests; phase hooks never run here, so no
	// vault client is dialed. Warehouse credentials still shape chart values
	// and are required to assemble the plan.
	deps := catalog.Deps{
		Kube:               kubeClient,
		WarehouseAccessKey: os.Getenv("WAREHOUSE_ACCESS_KEY"),
		WarehouseSecretKey: os.Getenv("WAREHOUSE_SECRET_KEY"),
	}

	plan, err := catalog.New(cfg, config.LoadTimeouts(), deps).Plan(context.Background())
	if err != nil {
		setupLog.Error(err, "unable to assemble deployment plan")
		os.Exit(2)
	}

	reconciler, err := reconcile.New(kubeClient, plan,
		reconcile.WithInterval(interval),
		reconcile.WithLogger(ctrl.Log.WithName("reconciler")),
		reconcile.WithNotify(orchestrate.LogrObserver(ctrl.Log.WithName("events"))),
		reconcile.WithMetrics(true),
	)
	if err != nil {
		setupLog.Error(err, "unable to create reconciler")
		os.Exit(2)
	}

	mgr, err := ctrl.NewManager(restConfig, ctrl.Options{
		Scheme: scheme,
		Metrics: metricsserver.Options{
			BindAddress: metricsAddr,
		},
		HealthProbeBindAddress: probeAddr,
		LeaderElection:         enableLeaderElection,
		LeaderElectionID:       leaderElectionID,
		// LeaderElectionReleaseOnCancel defines if the leader should step down voluntarily
		// when the Manager ends. This requires the binary to immediately end when the
		// Manager is stopped, otherwise, this setting is unsafe.
		LeaderElectionReleaseOnCancel: true,
	})
	if err != nil {
		setupLog.Error(err, "unable to create manager")
		os.Exit(1)
	}

	if err := mgr.Add(manager.RunnableFunc(reconciler.Run)); err != nil {
		setupLog.Error(err, "unable to register convergence loop")
		os.Exit(1)
	}

	// Add health checks
	if err := mgr.AddHealthzCheck("healthz", healthz.Ping); err != nil {
		setupLog.Error(err, "unable to set up health check")
		os.Exit(1)
	}
	if err := mgr.AddReadyzCheck("readyz", healthz.Ping); err != nil {
		setupLog.Error(err, "unable to set up ready check")
		os.Exit(1)
	}

	setupLog.Info("starting manager", "environment", cfg.Environment(), "phases", len(plan))
	if err := mgr.Start(ctrl.SetupSignalHandler()); err != nil {
		setupLog.Error(err, "problem running manager")
		os.Exit(1)
	}
}

// loadConfigOrExit resolves and loads the platform configuration. Invalid or
// missing configuration exits with code 2, before anything touches the
// cluster.
func loadConfigOrExit(path string) *config.Config {
	if path == "" {
		found, err := config.FindConfigFile()
		if err != nil {
			setupLog.Error(err, "unable to locate configuration file")
			os.Exit(2)
		}
		path = found
	}

	cfg, err := config.Load(path)
	if err != nil {
		setupLog.Error(err, "unable to load configuration", "path", path)
		os.Exit(2)
	}
	return cfg
}
