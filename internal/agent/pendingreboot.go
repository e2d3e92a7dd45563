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

package agent

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/renameio/v2"
)

const (
	stateDir          = "/var/lib/hostupdate"
	pendingRebootFile = "pending-reboot"
)

// PendingRebootMarker persists the fact that the agent has requested a
// reboot for a specific target version, so a crash or restart between
// "reboot requested" and "reboot observed" does not lose track of which
// version the node is rebooting into. Written with renameio so a crash
// mid-write never leaves a half-written marker behind — the same
// atomic-write discipline the teacher applies to on-host config files,
// repointed here at agent-local state instead of managed files.
type PendingRebootMarker struct {
	hostRoot string
}

// NewPendingRebootMarker builds a marker rooted at hostRoot (the path
// prefix under which the agent sees the host filesystem, e.g. "/host"
// when running containerized).
func NewPendingRebootMarker(hostRoot string) *PendingRebootMarker {
	return &PendingRebootMarker{hostRoot: hostRoot}
}

func (m *PendingRebootMarker) path() string {
	return filepath.Join(m.hostRoot, stateDir, pendingRebootFile)
}

// Write records that a reboot has been requested for targetVersion.
func (m *PendingRebootMarker) Write(targetVersion string) error {
	dir := filepath.Join(m.hostRoot, stateDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	content := targetVersion + "\n" + time.Now().UTC().Format(time.RFC3339) + "\n"
	if err := renameio.WriteFile(m.path(), []byte(content), 0644); err != nil {
		return fmt.Errorf("writing pending-reboot marker: %w", err)
	}
	return nil
}

// Read returns the target version recorded by the most recent Write, or
// ("", false) if no marker is present.
func (m *PendingRebootMarker) Read() (string, bool) {
	data, err := os.ReadFile(m.path())
	if err != nil {
		return "", false
	}
	lines := strings.SplitN(string(data), "\n", 2)
	if len(lines) == 0 || lines[0] == "" {
		return "", false
	}
	return lines[0], true
}

// Clear removes the marker once the agent has confirmed the reboot
// completed and the shadow has advanced past RebootedIntoUpdate.
func (m *PendingRebootMarker) Clear() error {
	if err := os.Remove(m.path()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing pending-reboot marker: %w", err)
	}
	return nil
}
