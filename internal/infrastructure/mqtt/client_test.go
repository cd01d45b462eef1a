package mqtt

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/nerrad567/scope-sim-core/internal/infrastructure/config"
)

// testConfig returns a valid MQTT configuration. Connection tests against a
// live broker are out of scope; everything here runs offline.
func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "scopesim-test",
			TLS:      false,
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

// =============================================================================
// Topic Tests
// =============================================================================

func TestTopics(t *testing.T) {
	topics := Topics{}

	cases := []struct {
		name string
		got  string
		want string
	}{
		{"device setting", topics.DeviceSetting("TCamera-0", "Exposure"), "scopesim/device/TCamera-0/setting/Exposure"},
		{"device busy", topics.DeviceBusy("TXYStage-0"), "scopesim/device/TXYStage-0/busy"},
		{"device command", topics.DeviceCommand("TXYStage-0"), "scopesim/device/TXYStage-0/command"},
		{"acquisition started", topics.AcquisitionStarted("TCamera-0"), "scopesim/acquisition/TCamera-0/started"},
		{"acquisition frame", topics.AcquisitionFrame("TCamera-0"), "scopesim/acquisition/TCamera-0/frame"},
		{"acquisition finished", topics.AcquisitionFinished("TCamera-0"), "scopesim/acquisition/TCamera-0/finished"},
		{"system status", topics.SystemStatus(), "scopesim/system/status"},
		{"all commands", topics.AllDeviceCommands(), "scopesim/device/+/command"},
		{"all acquisition events", topics.AllAcquisitionEvents(), "scopesim/acquisition/+/+"},
		{"all settings", topics.AllDeviceSettings(), "scopesim/device/+/setting/+"},
	}
	for _, tc := range cases {
		if tc.got != tc.want {
			t.Errorf("%s = %q, want %q", tc.name, tc.got, tc.want)
		}
	}
}

// =============================================================================
// Options Tests
// =============================================================================

func TestBuildClientOptions(t *testing.T) {
	t.Run("plain broker URL", func(t *testing.T) {
		opts := buildClientOptions(testConfig())
		if len(opts.Servers) != 1 {
			t.Fatalf("expected 1 broker, got %d", len(opts.Servers))
		}
		if got := opts.Servers[0].String(); got != "tcp://127.0.0.1:1883" {
			t.Errorf("broker URL = %q", got)
		}
		if opts.ClientID != "scopesim-test" {
			t.Errorf("client ID = %q", opts.ClientID)
		}
	})

	t.Run("TLS broker URL", func(t *testing.T) {
		cfg := testConfig()
		cfg.Broker.TLS = true
		opts := buildClientOptions(cfg)
		if got := opts.Servers[0].String(); got != "ssl://127.0.0.1:1883" {
			t.Errorf("broker URL = %q", got)
		}
	})
}

func TestConfigureLWT(t *testing.T) {
	opts := buildClientOptions(testConfig())
	configureLWT(opts, "scopesim-test")

	if !opts.WillEnabled {
		t.Fatal("will not enabled")
	}
	if opts.WillTopic != "scopesim/system/status" {
		t.Errorf("will topic = %q", opts.WillTopic)
	}
	if !strings.Contains(string(opts.WillPayload), `"status":"offline"`) {
		t.Errorf("will payload = %q", opts.WillPayload)
	}
	if !opts.WillRetained {
		t.Error("will not retained")
	}
}

// =============================================================================
// Validation Tests (offline client)
// =============================================================================

func TestCloseNil(t *testing.T) {
	client := &Client{}
	if err := client.Close(); err != nil {
		t.Errorf("Close() on zero client error = %v, want nil", err)
	}
}

func TestPublishValidation(t *testing.T) {
	client := &Client{}

	if err := client.Publish("", []byte("x"), 1, false); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("empty topic error = %v, want ErrInvalidTopic", err)
	}
	if err := client.Publish("scopesim/x", []byte("x"), 3, false); !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("qos 3 error = %v, want ErrInvalidQoS", err)
	}
	oversized := make([]byte, maxPayloadSize+1)
	if err := client.Publish("scopesim/x", oversized, 1, false); !errors.Is(err, ErrPublishFailed) {
		t.Errorf("oversized payload error = %v, want ErrPublishFailed", err)
	}
	if err := client.Publish("scopesim/x", []byte("x"), 1, false); !errors.Is(err, ErrNotConnected) {
		t.Errorf("disconnected publish error = %v, want ErrNotConnected", err)
	}
}

func TestSubscribeValidation(t *testing.T) {
	client := &Client{}
	handler := func(string, []byte) error { return nil }

	if err := client.Subscribe("", 1, handler); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("empty topic error = %v, want ErrInvalidTopic", err)
	}
	if err := client.Subscribe("scopesim/#", 3, handler); !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("qos 3 error = %v, want ErrInvalidQoS", err)
	}
	if err := client.Subscribe("scopesim/#", 1, nil); !errors.Is(err, ErrSubscribeFailed) {
		t.Errorf("nil handler error = %v, want ErrSubscribeFailed", err)
	}
	if err := client.Subscribe("scopesim/#", 1, handler); !errors.Is(err, ErrNotConnected) {
		t.Errorf("disconnected subscribe error = %v, want ErrNotConnected", err)
	}
}

func TestSubscriptionTrackingEmpty(t *testing.T) {
	client := &Client{}

	if got := client.SubscriptionCount(); got != 0 {
		t.Errorf("SubscriptionCount() = %d, want 0", got)
	}
	if client.HasSubscription("scopesim/#") {
		t.Error("HasSubscription() = true on zero client")
	}
}

// =============================================================================
// HealthCheck Tests
// =============================================================================

func TestHealthCheckCancelled(t *testing.T) {
	client := &Client{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := client.HealthCheck(ctx); err == nil {
		t.Error("HealthCheck() expected error for cancelled context")
	}
}

func TestHealthCheckDisconnected(t *testing.T) {
	client := &Client{}

	if err := client.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
}
