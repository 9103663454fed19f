// Copyright (c) 2020 The AIN developers

// Distributed under the MIT software license, see the accompanying
// file LICENSE or <https://www.opensource.org/licenses/mit-license.php>

package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLazyLoad(t *testing.T) {
	calls := 0
	lazy := LazyLoad(func() int {
		calls++
		return 42
	})
	assert.Equal(t, 42, lazy())
	assert.Equal(t, 42, lazy())
	assert.Equal(t, 1, calls)
}

func TestNoopByDefault(t *testing.T) {
	// meters built before initialization must be inert, not nil
	counter := Counter("test_noop_count")
	assert.NotPanics(t, func() { counter.Add(1) })

	gauge := GaugeVec("test_noop_gauge", []string{"x"})
	assert.NotPanics(t, func() { gauge.SetWithLabel(1, map[string]string{"x": "y"}) })
}

func TestPrometheusCounters(t *testing.T) {
	InitializePrometheusMetrics()

	Counter("test_prom_count").Add(3)
	CounterVec("test_prom_count_vec", []string{"result"}).AddWithLabel(2, map[string]string{"result": "ok"})
	Gauge("test_prom_gauge").Set(7)

	server := httptest.NewServer(HTTPHandler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.True(t, strings.Contains(string(body), "ain_metrics_test_prom_count 3"))
	assert.True(t, strings.Contains(string(body), `ain_metrics_test_prom_count_vec{result="ok"} 2`))
	assert.True(t, strings.Contains(string(body), "ain_metrics_test_prom_gauge 7"))
}
