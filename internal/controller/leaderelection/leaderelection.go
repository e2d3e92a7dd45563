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

// Package leaderelection wraps client-go's leader-election client around
// an explicit three-state value, so the controller's reconcile loop and
// its metrics can observe Follower/Candidate/Leader directly instead of
// only reacting to OnStartedLeading/OnStoppedLeading callbacks.
package leaderelection

import (
	"context"
	"sync"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/leaderelection"
	"k8s.io/client-go/tools/leaderelection/resourcelock"
)

// State is this process's current position in the leader-election state
// machine.
type State int

const (
	// Follower is watching the lease but does not hold it.
	Follower State = iota
	// Candidate is attempting to acquire the lease.
	Candidate
	// Leader currently holds the lease and may drive reconciliation.
	Leader
)

func (s State) String() string {
	switch s {
	case Follower:
		return "Follower"
	case Candidate:
		return "Candidate"
	case Leader:
		return "Leader"
	default:
		return "Unknown"
	}
}

// Config configures a leader-election run.
type Config struct {
	Client        kubernetes.Interface
	LockNamespace string
	LockName      string
	Identity      string
	LeaseDuration time.Duration
	RenewDeadline time.Duration
	RetryPeriod   time.Duration

	// OnStateChange is invoked, with the new state, whenever this
	// process's position in the state machine changes.
	OnStateChange func(State)
}

// Elector tracks this process's current leader-election state and drives
// client-go's LeaderElector.
type Elector struct {
	cfg Config

	mu    sync.RWMutex
	state State
}

// New creates an Elector in the Follower state. Candidate and Leader
// transitions happen once Run is called.
func New(cfg Config) *Elector {
	if cfg.LeaseDuration == 0 {
		cfg.LeaseDuration = 15 * time.Second
	}
	if cfg.RenewDeadline == 0 {
		cfg.RenewDeadline = 10 * time.Second
	}
	if cfg.RetryPeriod == 0 {
		cfg.RetryPeriod = 2 * time.Second
	}
	return &Elector{cfg: cfg, state: Follower}
}

// State returns the current leader-election state.
func (e *Elector) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// IsLeader reports whether this process currently holds the lease.
func (e *Elector) IsLeader() bool {
	return e.State() == Leader
}

func (e *Elector) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
	if e.cfg.OnStateChange != nil {
		e.cfg.OnStateChange(s)
	}
}

// Run blocks, participating in leader election until ctx is canceled.
// Transitions through Candidate while acquiring the lease, Leader while
// holding it, and back to Follower once the lease is lost or released.
func (e *Elector) Run(ctx context.Context) error {
	lock := &resourcelock.LeaseLock{
		LeaseMeta: metav1.ObjectMeta{
			Name:      e.cfg.LockName,
			Namespace: e.cfg.LockNamespace,
		},
		Client: e.cfg.Client.CoordinationV1(),
		LockConfig: resourcelock.ResourceLockConfig{
			Identity: e.cfg.Identity,
		},
	}

	le, err := leaderelection.NewLeaderElector(leaderelection.LeaderElectionConfig{
		Lock:          lock,
		LeaseDuration: e.cfg.LeaseDuration,
		RenewDeadline: e.cfg.RenewDeadline,
		RetryPeriod:   e.cfg.RetryPeriod,
		Callbacks: leaderelection.LeaderCallbacks{
			OnStartedLeading: func(ctx context.Context) {
				e.setState(Leader)
			},
			OnStoppedLeading: func() {
				e.setState(Follower)
			},
			OnNewLeader: func(identity string) {
				if identity != e.cfg.Identity {
					e.setState(Follower)
				}
			},
		},
		ReleaseOnCancel: true,
	})
	if err != nil {
		return err
	}

	e.setState(Candidate)
	le.Run(ctx)
	return nil
}
