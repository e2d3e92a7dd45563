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

// Package semver compares host OS versions. It is a thin wrapper around
// blang/semver/v4 that tolerates the loose version strings a host update
// API may report (a leading "v", missing patch component) rather than
// rejecting them outright.
package semver

import (
	"fmt"
	"strings"

	"github.com/blang/semver/v4"
)

// Version wraps a parsed semantic version for comparison.
type Version struct {
	v semver.Version
}

// Parse accepts strings like "1.2.3", "v1.2.3", or "1.2" and normalizes
// them before handing off to blang/semver, which requires a full
// major.minor.patch form.
func Parse(s string) (Version, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "v")
	if strings.Count(s, ".") == 1 {
		s += ".0"
	}
	v, err := semver.Parse(s)
	if err != nil {
		return Version{}, fmt.Errorf("parsing version %q: %w", s, err)
	}
	return Version{v: v}, nil
}

// Compare returns -1, 0, or 1 per the usual comparison convention.
func (a Version) Compare(b Version) int {
	return a.v.Compare(b.v)
}

// LessThan reports whether a < b.
func (a Version) LessThan(b Version) bool {
	return a.v.LT(b.v)
}

// String returns the canonical "major.minor.patch[-pre][+build]" form.
func (a Version) String() string {
	return a.v.String()
}

// NewerAvailable reports whether target is a strictly newer version than
// current. Unparseable inputs are treated as "no update available" rather
// than erroring, since a malformed version string reported by a host is a
// host-integrity problem the controller surfaces separately, not a reason
// to crash the comparison.
func NewerAvailable(current, target string) bool {
	c, err := Parse(current)
	if err != nil {
		return false
	}
	t, err := Parse(target)
	if err != nil {
		return false
	}
	return c.LessThan(t)
}
