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

package controller

import (
	"github.com/prometheus/client_golang/prometheus"
	"sigs.k8s.io/controller-runtime/pkg/metrics"
)

var (
	hostsState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hosts_state",
			Help: "Current number of shadows observed in each state",
		},
		[]string{"state"},
	)

	hostsVersion = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hosts_version",
			Help: "Current number of hosts running each version",
		},
		[]string{"version"},
	)

	reconcileTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hostupdate_controller_reconcile_total",
			Help: "Total number of controller reconciliations",
		},
		[]string{"result"},
	)

	reconcileDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hostupdate_controller_reconcile_duration_seconds",
			Help:    "Duration of a full controller reconcile pass in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
		},
	)

	drainDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hostupdate_drain_duration_seconds",
			Help:    "Time taken to drain a node",
			Buckets: prometheus.ExponentialBuckets(10, 2, 10), // 10s to ~1.4h
		},
	)

	drainStuckTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hostupdate_drain_stuck_total",
			Help: "Total number of drain stuck events (timeout exceeded)",
		},
	)

	cordonedNodes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "hostupdate_cordoned_nodes",
			Help: "Current number of cordoned nodes",
		},
	)

	quarantinedNodes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "hostupdate_quarantined_nodes",
			Help: "Current number of nodes left quarantined in ErrorReset",
		},
	)

	stuckResetTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hostupdate_stuck_reset_total",
			Help: "Total number of shadows force-reset to ErrorReset for exceeding their stuck timeout",
		},
	)

	// controllerLeader reports this process's leader-election state:
	// 0=Follower, 1=Candidate, 2=Leader.
	controllerLeader = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "controller_leader",
			Help: "Leader-election state of this controller process (0=follower, 1=candidate, 2=leader)",
		},
	)

	schedulerWindowOpen = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "scheduler_window_open",
			Help: "1 if the maintenance window is currently open, 0 otherwise",
		},
	)
)

func init() {
	metrics.Registry.MustRegister(
		hostsState,
		hostsVersion,
		reconcileTotal,
		reconcileDuration,
		drainDuration,
		drainStuckTotal,
		cordonedNodes,
		quarantinedNodes,
		stuckResetTotal,
		controllerLeader,
		schedulerWindowOpen,
	)
}

// RecordStateDistribution resets and repopulates the hosts_state gauge
// from a fresh snapshot; called once per reconcile pass.
func RecordStateDistribution(counts map[string]int) {
	hostsState.Reset()
	for state, count := range counts {
		hostsState.WithLabelValues(state).Set(float64(count))
	}
}

// RecordVersionDistribution resets and repopulates the hosts_version
// gauge from a fresh snapshot.
func RecordVersionDistribution(counts map[string]int) {
	hostsVersion.Reset()
	for version, count := range counts {
		hostsVersion.WithLabelValues(version).Set(float64(count))
	}
}

func RecordReconcileResult(result string) {
	reconcileTotal.WithLabelValues(result).Inc()
}

func RecordReconcileDuration(durationSeconds float64) {
	reconcileDuration.Observe(durationSeconds)
}

func RecordDrainDuration(durationSeconds float64) {
	drainDuration.Observe(durationSeconds)
}

func RecordDrainStuck() {
	drainStuckTotal.Inc()
}

func RecordStuckReset() {
	stuckResetTotal.Inc()
}

func UpdateCordonedNodesGauge(count int) {
	cordonedNodes.Set(float64(count))
}

func UpdateQuarantinedNodesGauge(count int) {
	quarantinedNodes.Set(float64(count))
}

// Leader-election states mirrored as gauge values for controller_leader.
const (
	LeaderStateFollower  = 0
	LeaderStateCandidate = 1
	LeaderStateLeader    = 2
)

func UpdateControllerLeaderGauge(state int) {
	controllerLeader.Set(float64(state))
}

func UpdateSchedulerWindowOpenGauge(open bool) {
	if open {
		schedulerWindowOpen.Set(1)
		return
	}
	schedulerWindowOpen.Set(0)
}
