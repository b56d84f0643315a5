package cmd

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sim "github.com/inference-sim/service-sim/sim"
)

func TestMetricsServer_ServesMetricsAndHealth(t *testing.T) {
	srv, err := startMetricsServer("127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})

	srv.Observer.OnEvent(sim.Event{
		Kind:    sim.EventGenerated,
		Stage:   sim.StageRegular,
		Request: sim.Request{ID: 1, Class: sim.ClassRegular, CreatedAt: time.Now()},
	})

	get := func(path string) (int, string) {
		resp, err := http.Get("http://" + srv.Addr + path)
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, string(body)
	}

	code, body := get("/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body)

	code, body = get("/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `servicesim_requests_generated_total{class="regular"} 1`)
}

func TestMetricsServer_BadAddress(t *testing.T) {
	_, err := startMetricsServer("not-an-address")
	assert.Error(t, err)
}
