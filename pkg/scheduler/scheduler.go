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

// Package scheduler evaluates the maintenance window the controller admits
// new updates within. It is a pure function of (now, configuration): no
// goroutines, no ticking, so the controller's reconcile loop can call it on
// every pass without worrying about drift between a background timer and
// the actual decision.
package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// windowParser accepts six fields, seconds first (second, minute, hour,
// day of month, month, day of week), plus descriptors such as "@daily".
// Seven-field expressions with a trailing year field are rejected.
var windowParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Window decides whether new updates may be admitted right now.
type Window struct {
	cronExpr string
	schedule cron.Schedule

	// legacy start/stop fallback, HH:MM UTC. Used only when cronExpr is
	// empty.
	start string
	stop  string
}

// NewCronWindow parses a six-field cron expression (UTC) describing the
// moments a maintenance window opens. The window stays open for one
// minute following each match; operators who need a longer window should
// schedule more than one field tick (e.g. "0 0/15 * * * *" for every 15
// minutes) rather than relying on a duration parameter, since cron has no
// native notion of window length.
func NewCronWindow(expr string) (*Window, error) {
	sched, err := windowParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("parsing scheduler_cron %q: %w", expr, err)
	}
	return &Window{cronExpr: expr, schedule: sched}, nil
}

// NewLegacyWindow builds a window from the older start/stop (HH:MM, UTC)
// pair. Retained for operators migrating off the pair-based scheduler
// (spec.md §9 Open Question, resolved in favor of cron when both are
// configured — see NewWindow).
func NewLegacyWindow(start, stop string) (*Window, error) {
	if _, err := parseHHMM(start); err != nil {
		return nil, fmt.Errorf("parsing scheduler_start %q: %w", start, err)
	}
	if _, err := parseHHMM(stop); err != nil {
		return nil, fmt.Errorf("parsing scheduler_stop %q: %w", stop, err)
	}
	return &Window{start: start, stop: stop}, nil
}

// NewWindow builds a Window from the full configuration surface. When both
// a cron expression and a legacy start/stop pair are set, the cron
// expression is authoritative; callers should log a warning in that case
// so operators notice the start/stop pair is being ignored.
func NewWindow(cronExpr, start, stop string) (*Window, error) {
	if cronExpr != "" {
		return NewCronWindow(cronExpr)
	}
	if start != "" && stop != "" {
		return NewLegacyWindow(start, stop)
	}
	// No window configured at all means updates are always admissible.
	return &Window{}, nil
}

// Open reports whether `now` falls within the maintenance window.
func (w *Window) Open(now time.Time) bool {
	now = now.UTC()
	switch {
	case w.schedule != nil:
		return w.cronOpen(now)
	case w.start != "" && w.stop != "":
		return w.legacyOpen(now)
	default:
		return true
	}
}

// cronOpen treats the window as open for the 60 seconds following the
// most recent scheduled tick at or before now.
func (w *Window) cronOpen(now time.Time) bool {
	prev := w.schedule.Next(now.Add(-61 * time.Second))
	return !prev.After(now) && now.Sub(prev) < time.Minute
}

func (w *Window) legacyOpen(now time.Time) bool {
	start, _ := parseHHMM(w.start)
	stop, _ := parseHHMM(w.stop)
	cur := now.Hour()*60 + now.Minute()

	if start <= stop {
		return cur >= start && cur < stop
	}
	// window wraps past midnight UTC
	return cur >= start || cur < stop
}

func parseHHMM(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}
