/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package main is the entry point for the hostupdate controller: the
// cluster-wide process that admits staged updates, drives cordon/drain,
// and quarantines nodes that fail too many consecutive updates.
package main

import (
	"flag"
	"os"
	"time"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"

	ctrl "sigs.k8s.io/controller-runtime"
	metricsserver "sigs.k8s.io/controller-runtime/pkg/metrics/server"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	v2 "in-cloud.io/hostupdate/api/v2"
	"in-cloud.io/hostupdate/internal/controller"
	"in-cloud.io/hostupdate/internal/controller/leaderelection"
	"in-cloud.io/hostupdate/pkg/scheduler"
)

var (
	scheme   = runtime.NewScheme()
	setupLog = ctrl.Log.WithName("setup")
)

func init() {
	_ = clientgoscheme.AddToScheme(scheme)
	_ = corev1.AddToScheme(scheme)
	_ = v2.AddToScheme(scheme)
}

func main() {
	var metricsAddr string
	var probeAddr string
	var namespace string
	var maxConcurrentUpdates int
	var maintenanceWindow string
	var excludeFromLBWait time.Duration
	var stuckTimeout time.Duration
	var crashThreshold int
	var drainGracePeriod int64
	var enableLeaderElection bool
	var leaseName string

	flag.StringVar(&metricsAddr, "metrics-bind-address", ":8443", "The address the metrics endpoint binds to.")
	flag.StringVar(&probeAddr, "health-probe-bind-address", ":8081", "The address the probe endpoint binds to.")
	flag.StringVar(&namespace, "namespace", os.Getenv("POD_NAMESPACE"), "Namespace the controller itself runs in, for drain-exclusion lookups and self-pod protection.")
	flag.IntVar(&maxConcurrentUpdates, "max-concurrent-updates", 1, "Maximum number of hosts updating at once. -1 means unlimited.")
	flag.StringVar(&maintenanceWindow, "maintenance-window", "", "Cron expression bounding when new updates may be admitted. Empty means always open.")
	flag.DurationVar(&excludeFromLBWait, "exclude-from-lb-wait", 0, "How long to wait after excluding a node from load balancers before draining it.")
	flag.DurationVar(&stuckTimeout, "stuck-timeout", 30*time.Minute, "How long an active shadow may sit without progress before being forced into ErrorReset.")
	flag.IntVar(&crashThreshold, "crash-threshold", controller.DefaultCrashThreshold, "Consecutive ErrorReset crashes before a node is quarantined.")
	flag.Int64Var(&drainGracePeriod, "drain-grace-period-seconds", 30, "Grace period passed to pod evictions during drain.")
	flag.BoolVar(&enableLeaderElection, "leader-elect", true, "Enable leader election, required for running more than one controller replica.")
	flag.StringVar(&leaseName, "lease-name", "hostupdate-controller", "Name of the Lease object used for leader election.")

	opts := zap.Options{Development: true}
	opts.BindFlags(flag.CommandLine)
	flag.Parse()

	ctrl.SetLogger(zap.New(zap.UseFlagOptions(&opts)))

	window, err := scheduler.NewWindow(maintenanceWindow, "", "")
	if err != nil {
		setupLog.Error(err, "unable to parse maintenance window")
		os.Exit(1)
	}

	mgr, err := ctrl.NewManager(ctrl.GetConfigOrDie(), ctrl.Options{
		Scheme:                 scheme,
		Metrics:                metricsserver.Options{BindAddress: metricsAddr},
		HealthProbeBindAddress: probeAddr,
		LeaderElection:         false, // this repo's own leaderelection.Elector drives leadership, not controller-runtime's
	})
	if err != nil {
		setupLog.Error(err, "unable to start manager")
		os.Exit(1)
	}

	reconciler := controller.NewReconciler(mgr.GetClient(), mgr.GetScheme())
	reconciler.Namespace = namespace
	reconciler.MaxConcurrentUpdates = maxConcurrentUpdates
	reconciler.Window = window
	reconciler.ExcludeFromLBWait = excludeFromLBWait
	reconciler.StuckTimeout = stuckTimeout
	reconciler.CrashThreshold = crashThreshold
	reconciler.DrainOpts = controller.DrainOptions{GracePeriod: drainGracePeriod, IgnoreDS: true}
	reconciler.DrainExclusionNamespace = namespace
	reconciler.Events = controller.NewEventRecorder(mgr.GetEventRecorderFor("hostupdate-controller"))

	ctx := ctrl.SetupSignalHandler()

	if enableLeaderElection {
		clientset, err := kubernetes.NewForConfig(mgr.GetConfig())
		if err != nil {
			setupLog.Error(err, "unable to build kubernetes clientset for leader election")
			os.Exit(1)
		}
		identity, err := os.Hostname()
		if err != nil {
			identity = "hostupdate-controller"
		}
		elector := leaderelection.New(leaderelection.Config{
			Client:        clientset,
			LockNamespace: namespace,
			LockName:      leaseName,
			Identity:      identity,
			OnStateChange: func(s leaderelection.State) {
				setupLog.Info("leader election state changed", "state", s.String())
				controller.UpdateControllerLeaderGauge(int(s))
			},
		})
		reconciler.Elector = elector

		go func() {
			if err := elector.Run(ctx); err != nil {
				setupLog.Error(err, "leader election stopped")
			}
		}()
	}

	if err := reconciler.SetupWithManager(mgr); err != nil {
		setupLog.Error(err, "unable to create controller")
		os.Exit(1)
	}

	setupLog.Info("starting hostupdate controller")
	if err := mgr.Start(ctx); err != nil {
		setupLog.Error(err, "problem running manager")
		os.Exit(1)
	}
}
