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
	"context"
	"fmt"

	v2 "in-cloud.io/hostupdate/api/v2"
	"in-cloud.io/hostupdate/pkg/shadowclient"
)

// ensureShadow fetches the agent's shadow, creating it through the API
// server's POST /shadows/{name} on first run. Mirrors the teacher's
// first-run bootstrap in setInfoLabels, but the write goes through
// shadowclient rather than a direct client-go create, since the API
// server is the sole writer of shared state (spec.md §4.4).
func (a *Agent) ensureShadow(ctx context.Context) (*v2.HostUpdate, error) {
	shadow, err := a.shadows.Get(ctx, a.nodeName)
	if err == nil {
		return shadow, nil
	}
	if !shadowclient.IsNotFound(err) {
		return nil, fmt.Errorf("fetching shadow %s: %w", a.nodeName, err)
	}

	shadow, err = a.shadows.Ensure(ctx, a.nodeName)
	if err != nil {
		return nil, fmt.Errorf("creating shadow %s: %w", a.nodeName, err)
	}
	return shadow, nil
}
