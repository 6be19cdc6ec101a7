// Copyright (C) 2020-2026, Flowgate Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestRoot_ForRegistersIntoComponentScopedRegistry(t *testing.T) {
	root := NewRoot()

	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "flowgate_test_total", Help: "test"})
	require.NoError(t, root.For("elections").Register(c))
	c.Inc()

	metrics, err := root.Gatherer().Gather()
	require.NoError(t, err)
	require.NotEmpty(t, metrics)
}

func TestRoot_ForIsolatesDuplicateNamesAcrossComponents(t *testing.T) {
	root := NewRoot()

	a := prometheus.NewCounter(prometheus.CounterOpts{Name: "requests_total", Help: "test"})
	b := prometheus.NewCounter(prometheus.CounterOpts{Name: "requests_total", Help: "test"})
	require.NoError(t, root.For("elections").Register(a))
	// A same-named collector in a different component's own registry must
	// not collide with elections', since For gives each component its own
	// *prometheus.Registry rather than one shared registry.
	require.NoError(t, root.For("signing").Register(b))
}

func TestRoot_HandlerServesMetrics(t *testing.T) {
	root := NewRoot()
	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()

	root.Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	require.Contains(t, rec.Body.String(), "go_goroutines")
}
