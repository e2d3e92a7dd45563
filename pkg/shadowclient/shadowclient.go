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

// Package shadowclient is the agent's interface to the shadow object. The
// agent never talks to the cluster store directly; the API server is the
// sole path through which agents write shared state (spec.md §4.4), so
// this client speaks HTTP to the API server rather than wrapping a
// controller-runtime client.Client the way the teacher's pkg/client does.
package shadowclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	v2 "in-cloud.io/hostupdate/api/v2"
)

// ShadowGetter fetches and publishes a single shadow's state. The
// interface boundary (rather than a concrete *Client everywhere) exists so
// agent reconcile logic can be exercised against a mock in unit tests
// without a live API server, mirroring the teacher's RMCGetter seam.
type ShadowGetter interface {
	// Get retrieves the named shadow.
	Get(ctx context.Context, name string) (*v2.HostUpdate, error)
	// Ensure creates the named shadow if it does not already exist.
	Ensure(ctx context.Context, name string) (*v2.HostUpdate, error)
	// PublishStatus patches status fields on the named shadow, preserving
	// the given resourceVersion as a compare-and-set precondition. A
	// conflict is returned as a *ConflictError so callers can refetch and
	// retry rather than treating it as a hard failure.
	PublishStatus(ctx context.Context, name, resourceVersion string, status v2.HostUpdateStatus) (*v2.HostUpdate, error)
}

// ConflictError indicates the store rejected a write because the caller's
// resourceVersion precondition was stale.
type ConflictError struct {
	Name string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("shadow %q: resource version conflict", e.Name)
}

// NotFoundError indicates no shadow exists by that name yet.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("shadow %q: not found", e.Name)
}

// IsNotFound reports whether err is (or wraps) a *NotFoundError.
func IsNotFound(err error) bool {
	var nfErr *NotFoundError
	return errors.As(err, &nfErr)
}

// Client implements ShadowGetter over HTTP against the API server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a Client talking to the API server at baseURL (e.g.
// "https://hostupdate-apiserver:8443") using httpClient, which is expected
// to already carry the caller's bearer token and TLS trust roots.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{baseURL: baseURL, httpClient: httpClient}
}

var _ ShadowGetter = (*Client)(nil)

func (c *Client) Get(ctx context.Context, name string) (*v2.HostUpdate, error) {
	var out v2.HostUpdate
	err := c.do(ctx, http.MethodGet, "/shadows/"+name, nil, &out)
	if err != nil {
		if isNotFound(err) {
			return nil, &NotFoundError{Name: name}
		}
		return nil, err
	}
	return &out, nil
}

func (c *Client) Ensure(ctx context.Context, name string) (*v2.HostUpdate, error) {
	req := struct {
		Name string `json:"name"`
	}{Name: name}
	var out v2.HostUpdate
	if err := c.do(ctx, http.MethodPost, "/shadows/"+name, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PublishStatus(ctx context.Context, name, resourceVersion string, status v2.HostUpdateStatus) (*v2.HostUpdate, error) {
	req := struct {
		ResourceVersion string           `json:"resourceVersion"`
		Status          v2.HostUpdateStatus `json:"status"`
	}{ResourceVersion: resourceVersion, Status: status}

	var out v2.HostUpdate
	err := c.do(ctx, http.MethodPost, "/shadows/"+name+"/status", req, &out)
	if err != nil {
		if isConflict(err) {
			return nil, &ConflictError{Name: name}
		}
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusConflict {
		return fmt.Errorf("%s %s: %w", method, path, errConflict)
	}
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", method, path, errNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response from %s %s: %w", method, path, err)
		}
	}
	return nil
}

var (
	errConflict = errors.New("resource version conflict")
	errNotFound = errors.New("not found")
)

func isConflict(err error) bool {
	return errors.Is(err, errConflict)
}

func isNotFound(err error) bool {
	return errors.Is(err, errNotFound)
}
