package influxdb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nerrad567/scope-sim-core/internal/infrastructure/config"
)

// Connection tests against a live InfluxDB are out of scope; everything here
// runs offline against a zero or disabled client.

func TestConnectDisabled(t *testing.T) {
	_, err := Connect(config.InfluxDBConfig{Enabled: false})
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestCloseNil(t *testing.T) {
	client := &Client{}
	if err := client.Close(); err != nil {
		t.Errorf("Close() on zero client error = %v, want nil", err)
	}
}

func TestHealthCheckDisconnected(t *testing.T) {
	client := &Client{}
	if err := client.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
}

func TestWritesSkippedWhenDisconnected(t *testing.T) {
	client := &Client{}

	// Must be silent no-ops, not panics against the nil write API.
	client.WriteFrameMetric("TCamera-0", "run-1", 0, 3, 2)
	client.WriteRunMetric("TCamera-0", "run-1", 3, 120.5, false)
	client.WriteSettingMetric("TCamera-0", "Exposure", 50)
	client.WritePoint("custom", map[string]string{"device": "TCamera-0"}, map[string]interface{}{"v": 1})
	client.WritePointWithTime("custom", nil, map[string]interface{}{"v": 1}, time.Now())
}

func TestFlushDisconnected(t *testing.T) {
	client := &Client{}

	// No write API configured; Flush must be a no-op.
	client.Flush()
}
