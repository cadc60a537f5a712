// Package iavlmetrics times store operations through
// github.com/armon/go-metrics, the same library cosmos-sdk's store
// package uses (via its own telemetry wrapper) to time IAVL commits.
// This module reproduces only the thin MeasureSince call made directly
// against armon/go-metrics, not the cosmos-sdk-internal telemetry
// package built around it.
package iavlmetrics

import (
	"time"

	metrics "github.com/armon/go-metrics"
)

// MeasureSince records the elapsed time since start under the given
// label path, mirroring store/iavl/store.go's
// telemetry.MeasureSince(time.Now(), "store", "iavl", "commit") calls.
func MeasureSince(start time.Time, labels ...string) {
	metrics.MeasureSince(labels, start)
}

// IncrCounter records a single occurrence under the given label path,
// for counting events (such as corrupt-entry rejections during replay) that
// MeasureSince's timing doesn't cover.
func IncrCounter(val float32, labels ...string) {
	metrics.IncrCounter(labels, val)
}
