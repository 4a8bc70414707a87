package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounter(t *testing.T) {
	c := NewCollector()
	c.IncCounter("images_processed", map[string]string{"op": "gaussblur"})
	c.IncCounter("images_processed", map[string]string{"op": "gaussblur"})
	c.AddCounter("images_processed", 3, map[string]string{"op": "colourspace"})

	snap := c.Snapshot()
	assert.Equal(t, 2.0, snap["images_processed{op=gaussblur}"].Value)
	assert.Equal(t, 3.0, snap["images_processed{op=colourspace}"].Value)
}

func TestGaugeOverwrites(t *testing.T) {
	c := NewCollector()
	c.SetGauge("cache_entries", 10, nil)
	c.SetGauge("cache_entries", 4, nil)

	assert.Equal(t, 4.0, c.Snapshot()["cache_entries"].Value)
}

func TestHistogramBoundsHistory(t *testing.T) {
	c := NewCollector()
	for i := 0; i < historyLimit+20; i++ {
		c.ObserveHistogram("render_ms", float64(i), nil)
	}

	snap := c.Snapshot()["render_ms"]
	assert.Len(t, snap.History, historyLimit)
	assert.Equal(t, float64(historyLimit+19), snap.Value)
}

func TestBuildKeySortsLabels(t *testing.T) {
	a := buildKey("m", map[string]string{"b": "2", "a": "1"})
	b := buildKey("m", map[string]string{"a": "1", "b": "2"})
	assert.Equal(t, a, b)
	assert.Equal(t, "m{a=1,b=2}", a)
}

func TestHandlerServesJSON(t *testing.T) {
	c := NewCollector()
	c.IncCounter("requests", nil)

	w := httptest.NewRecorder()
	c.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "requests")
}
