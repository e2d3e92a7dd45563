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

// Package agent implements the per-host reconcile loop: it polls the
// host-local update API, compares observed state against the shadow's
// desired state, and drives the host through the update state machine one
// step at a time. Structurally this mirrors the teacher's internal/agent
// package (a Config struct, a constructor that validates required fields,
// a Run loop that watches for changes and reconciles); the domain is
// different (OS update state instead of file/systemd config apply).
package agent

import (
	"context"
	"fmt"
	"time"

	ctrl "sigs.k8s.io/controller-runtime"

	"in-cloud.io/hostupdate/pkg/hostapi"
	"in-cloud.io/hostupdate/pkg/shadowclient"
)

var agentLog = ctrl.Log.WithName("agent")

// HostAPI is the subset of pkg/hostapi.Client the agent depends on,
// narrowed to an interface so reconcile logic can run against a mock in
// unit tests without a real host update socket.
type HostAPI interface {
	GetOS(ctx context.Context) (hostapi.OSInfo, error)
	GetUpdateStatus(ctx context.Context) (hostapi.UpdateStatus, error)
	RefreshUpdates(ctx context.Context) error
	PrepareUpdate(ctx context.Context) error
	ActivateUpdate(ctx context.Context) error
	Reboot(ctx context.Context) error
}

// Config holds the configuration for the Agent.
type Config struct {
	// NodeName is the name of the node this agent runs on; it is also the
	// shadow object's name.
	NodeName string

	// Shadows is the API server client used to fetch and publish the
	// agent's shadow.
	Shadows shadowclient.ShadowGetter

	// HostAPI talks to the host-local update engine over its Unix domain
	// socket.
	HostAPI HostAPI

	// HostRoot is the path prefix for host-local file operations (e.g.
	// "/host" when containerized). Used for the pending-reboot marker.
	HostRoot string

	// PollInterval is how often the agent re-checks its shadow and the
	// host's update status in steady state.
	PollInterval time.Duration
}

// Agent reconciles a single host's update state against its shadow.
type Agent struct {
	nodeName      string
	shadows       shadowclient.ShadowGetter
	hostAPI       HostAPI
	pendingReboot *PendingRebootMarker
	pollInterval  time.Duration
}

// New creates a new Agent with the given configuration.
func New(cfg Config) (*Agent, error) {
	if cfg.NodeName == "" {
		return nil, fmt.Errorf("node name is required")
	}
	if cfg.Shadows == nil {
		return nil, fmt.Errorf("shadow client is required")
	}
	if cfg.HostAPI == nil {
		return nil, fmt.Errorf("host API client is required")
	}

	pollInterval := cfg.PollInterval
	if pollInterval == 0 {
		pollInterval = 10 * time.Second
	}

	return &Agent{
		nodeName:      cfg.NodeName,
		shadows:       cfg.Shadows,
		hostAPI:       cfg.HostAPI,
		pendingReboot: NewPendingRebootMarker(cfg.HostRoot),
		pollInterval:  pollInterval,
	}, nil
}

// Run starts the agent main loop: ensure the shadow exists, note any
// pending reboot left over from a prior process lifetime, then poll and
// reconcile on pollInterval until ctx is cancelled.
func (a *Agent) Run(ctx context.Context) error {
	log := agentLog.WithValues("node", a.nodeName)
	log.Info("starting agent")

	shadow, err := a.ensureShadow(ctx)
	if err != nil {
		return fmt.Errorf("ensuring shadow: %w", err)
	}

	if target, ok := a.pendingReboot.Read(); ok {
		log.Info("found pending-reboot marker from prior run", "target", target)
	}

	ticker := time.NewTicker(a.pollInterval)
	defer ticker.Stop()

	for {
		if err := a.reconcile(ctx, shadow); err != nil {
			log.Error(err, "reconcile tick failed, will retry")
		}

		select {
		case <-ctx.Done():
			log.Info("context cancelled, stopping agent")
			return nil
		case <-ticker.C:
		}

		shadow, err = a.shadows.Get(ctx, a.nodeName)
		if err != nil {
			log.Error(err, "failed to refetch shadow")
			continue
		}
	}
}

// GetNodeName returns the name of the node this agent manages.
func (a *Agent) GetNodeName() string {
	return a.nodeName
}

// Close releases any resources held by the agent. Present for symmetry
// with the teacher's Agent.Close even though this agent currently holds
// no closeable resources of its own (the host API client and shadow
// client are both plain HTTP clients with no persistent connection to
// tear down).
func (a *Agent) Close() {}
