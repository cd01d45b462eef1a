package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/nerrad567/scope-sim-core/internal/archive"
	"github.com/nerrad567/scope-sim-core/internal/device"
	"github.com/nerrad567/scope-sim-core/internal/infrastructure/config"
	"github.com/nerrad567/scope-sim-core/internal/infrastructure/logging"
	"github.com/nerrad567/scope-sim-core/internal/seqlog"
)

// newTestServer builds a server over a freshly initialized two-camera rig
// and returns it with its httptest listener.
func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()

	hub := device.NewHub("THub")
	registry := device.NewRegistry(hub)
	for _, name := range []string{"THub", "TCamera-0", "TShutter-0", "TXYStage-0", "TZStage-0"} {
		if _, err := registry.Construct(name); err != nil {
			t.Fatalf("constructing %s: %v", name, err)
		}
	}
	if err := registry.InitializeAll(); err != nil {
		t.Fatalf("InitializeAll: %v", err)
	}

	db, err := sql.Open("sqlite3", "file::memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	db.SetMaxOpenConns(1)
	rec := archive.New(db)
	if err := rec.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}

	srv, err := New(Deps{
		Config:   config.Default().API,
		WS:       config.Default().WebSocket,
		Logger:   logging.Default(),
		Registry: registry,
		Archive:  rec,
		Version:  "test",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	srv.hub = NewHub(srv.wsCfg, srv.logger)

	ts := httptest.NewServer(srv.buildRouter())
	t.Cleanup(ts.Close)
	return srv, ts
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshalling request: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading response: %v", err)
	}
	return resp, data
}

func TestHealthEndpoint(t *testing.T) {
	_, ts := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/v1/health", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var health map[string]any
	if err := json.Unmarshal(body, &health); err != nil {
		t.Fatalf("unmarshalling: %v", err)
	}
	if health["status"] != "ok" || health["version"] != "test" {
		t.Errorf("health = %v", health)
	}
}

func TestListDevices(t *testing.T) {
	_, ts := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/v1/devices", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var list struct {
		Devices []struct {
			Name        string `json:"name"`
			Kind        string `json:"kind"`
			Initialized bool   `json:"initialized"`
		} `json:"devices"`
		Count     int      `json:"count"`
		Installed []string `json:"installed"`
	}
	if err := json.Unmarshal(body, &list); err != nil {
		t.Fatalf("unmarshalling: %v", err)
	}
	if list.Count != 5 {
		t.Errorf("count = %d, want 5", list.Count)
	}
	if len(list.Installed) != 12 {
		t.Errorf("installed roster has %d names, want 12", len(list.Installed))
	}
	for _, d := range list.Devices {
		if !d.Initialized {
			t.Errorf("%s not initialized", d.Name)
		}
	}
}

func TestGetDeviceWithSettings(t *testing.T) {
	_, ts := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/v1/devices/TCamera-0", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var view struct {
		Name     string `json:"name"`
		Kind     string `json:"kind"`
		Settings []struct {
			Name  string  `json:"name"`
			Type  string  `json:"type"`
			Value *string `json:"value"`
		} `json:"settings"`
	}
	if err := json.Unmarshal(body, &view); err != nil {
		t.Fatalf("unmarshalling: %v", err)
	}
	if view.Kind != "TCamera" {
		t.Errorf("kind = %q", view.Kind)
	}

	found := false
	for _, s := range view.Settings {
		if s.Name == "Exposure" {
			found = true
			if s.Type != "float" || s.Value == nil || *s.Value != "100" {
				t.Errorf("Exposure = %+v", s)
			}
		}
	}
	if !found {
		t.Error("Exposure setting missing")
	}

	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/api/v1/devices/TCamera-9", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown device status = %d", resp.StatusCode)
	}
}

func TestSetSetting(t *testing.T) {
	_, ts := newTestServer(t)
	url := ts.URL + "/api/v1/devices/TCamera-0/settings/Exposure"

	resp, body := doJSON(t, http.MethodPut, url, map[string]string{"value": "50"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}

	var view struct {
		Value *string `json:"value"`
	}
	if err := json.Unmarshal(body, &view); err != nil {
		t.Fatal(err)
	}
	if view.Value == nil || *view.Value != "50" {
		t.Errorf("value = %v", view.Value)
	}

	// Out of range is rejected.
	resp, _ = doJSON(t, http.MethodPut, url, map[string]string{"value": "100000"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("out of range status = %d", resp.StatusCode)
	}

	// Unparsable text is rejected.
	resp, _ = doJSON(t, http.MethodPut, url, map[string]string{"value": "fast"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid value status = %d", resp.StatusCode)
	}

	// Unknown setting is a 404.
	resp, _ = doJSON(t, http.MethodPut, ts.URL+"/api/v1/devices/TCamera-0/settings/Gain", map[string]string{"value": "1"})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown setting status = %d", resp.StatusCode)
	}
}

func TestSnapReturnsRecordedTraffic(t *testing.T) {
	_, ts := newTestServer(t)

	// Generate some setting traffic, then snap.
	resp, _ := doJSON(t, http.MethodPut, ts.URL+"/api/v1/devices/TCamera-0/settings/Exposure", map[string]string{"value": "50"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("setting write status = %d", resp.StatusCode)
	}

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/v1/devices/TCamera-0/snap", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("snap status = %d: %s", resp.StatusCode, body)
	}

	var payload seqlog.Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("unmarshalling payload: %v", err)
	}
	if payload.Device != "TCamera-0" || payload.Sequence {
		t.Errorf("payload header = %+v", payload)
	}

	found := false
	for _, e := range payload.Entries {
		if e.Setting == "Exposure" && e.Kind == seqlog.KindWrite && e.Value == "50" {
			found = true
		}
	}
	if !found {
		t.Errorf("exposure write missing from %d entries", len(payload.Entries))
	}

	// The raw image is the full frame geometry.
	resp, img := doJSON(t, http.MethodGet, ts.URL+"/api/v1/devices/TCamera-0/image", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("image status = %d", resp.StatusCode)
	}
	if len(img) != 512*512 {
		t.Errorf("image size = %d, want %d", len(img), 512*512)
	}

	// Snapping a non-camera is a 404.
	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/api/v1/devices/TShutter-0/snap", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("non-camera snap status = %d", resp.StatusCode)
	}
}

func TestBusyConsumedOnce(t *testing.T) {
	_, ts := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/v1/devices/TXYStage-0/command", map[string]any{
		"command":    "move",
		"parameters": map[string]any{"x": 100, "y": -50},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stage move status = %d: %s", resp.StatusCode, body)
	}

	busy := func() bool {
		t.Helper()
		_, body := doJSON(t, http.MethodGet, ts.URL+"/api/v1/devices/TXYStage-0/busy", nil)
		var out struct {
			Busy bool `json:"busy"`
		}
		if err := json.Unmarshal(body, &out); err != nil {
			t.Fatal(err)
		}
		return out.Busy
	}

	if !busy() {
		t.Error("stage not busy after move")
	}
	if busy() {
		t.Error("busy flag not consumed by first query")
	}
}

func TestDeviceCommands(t *testing.T) {
	_, ts := newTestServer(t)
	base := ts.URL + "/api/v1/devices"

	readSetting := func(device, name string) string {
		t.Helper()
		_, body := doJSON(t, http.MethodGet, base+"/"+device+"/settings/"+name, nil)
		var view struct {
			Value *string `json:"value"`
		}
		if err := json.Unmarshal(body, &view); err != nil {
			t.Fatal(err)
		}
		if view.Value == nil {
			t.Fatalf("setting %s/%s has no value", device, name)
		}
		return *view.Value
	}

	resp, _ := doJSON(t, http.MethodPost, base+"/TXYStage-0/command", map[string]any{
		"command":    "move",
		"parameters": map[string]any{"x": 1200, "y": 300},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("move status = %d", resp.StatusCode)
	}
	if got := readSetting("TXYStage-0", "XPositionSteps"); got != "1200" {
		t.Errorf("XPositionSteps after move = %q, want 1200", got)
	}

	resp, _ = doJSON(t, http.MethodPost, base+"/TXYStage-0/command", map[string]any{"command": "home"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("home status = %d", resp.StatusCode)
	}
	if got := readSetting("TXYStage-0", "XPositionSteps"); got != "0" {
		t.Errorf("XPositionSteps after home = %q, want 0", got)
	}

	resp, _ = doJSON(t, http.MethodPost, base+"/TShutter-0/command", map[string]any{"command": "open"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("open status = %d", resp.StatusCode)
	}
	if got := readSetting("TShutter-0", "ShutterState"); got != "true" {
		t.Errorf("ShutterState after open = %q, want true", got)
	}

	resp, _ = doJSON(t, http.MethodPost, base+"/TShutter-0/command", map[string]any{"command": "warp"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown command status = %d, want 400", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodPost, base+"/TXYStage-0/command", map[string]any{"command": "move"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("move without parameters status = %d, want 400", resp.StatusCode)
	}
}

func TestAcquisitionLifecycle(t *testing.T) {
	_, ts := newTestServer(t)
	base := ts.URL + "/api/v1/devices/TCamera-0"

	resp, body := doJSON(t, http.MethodPost, base+"/acquisition/start", map[string]any{
		"frames": 3, "stop_on_overflow": true,
	})
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("start status = %d: %s", resp.StatusCode, body)
	}

	var started struct {
		Run struct {
			ID     string `json:"id"`
			Finite bool   `json:"finite"`
			Count  uint64 `json:"count"`
		} `json:"run"`
	}
	if err := json.Unmarshal(body, &started); err != nil {
		t.Fatal(err)
	}
	if started.Run.ID == "" || !started.Run.Finite || started.Run.Count != 3 {
		t.Errorf("run = %+v", started.Run)
	}

	// A second start while running is a conflict.
	resp, _ = doJSON(t, http.MethodPost, base+"/acquisition/start", map[string]any{"frames": 1})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("double start status = %d", resp.StatusCode)
	}

	// Wait for the finite run to drain.
	deadline := time.Now().Add(5 * time.Second)
	for {
		_, body = doJSON(t, http.MethodGet, base+"/acquisition", nil)
		var status struct {
			Capturing bool `json:"capturing"`
		}
		if err := json.Unmarshal(body, &status); err != nil {
			t.Fatal(err)
		}
		if !status.Capturing {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("acquisition did not finish")
		}
		time.Sleep(10 * time.Millisecond)
	}

	resp, body = doJSON(t, http.MethodPost, base+"/acquisition/stop", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stop status = %d", resp.StatusCode)
	}
	var stopped map[string]any
	if err := json.Unmarshal(body, &stopped); err != nil {
		t.Fatal(err)
	}
	if _, failed := stopped["error"]; failed {
		t.Errorf("run failed: %v", stopped["error"])
	}

	// The sink holds the three decoded frames.
	resp, body = doJSON(t, http.MethodGet, base+"/buffer", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("buffer status = %d", resp.StatusCode)
	}
	var buffer struct {
		Count  int `json:"count"`
		Frames []struct {
			Index   uint64          `json:"index"`
			Payload *seqlog.Payload `json:"payload"`
		} `json:"frames"`
	}
	if err := json.Unmarshal(body, &buffer); err != nil {
		t.Fatal(err)
	}
	if buffer.Count != 3 {
		t.Fatalf("buffered %d frames, want 3", buffer.Count)
	}
	for i, f := range buffer.Frames {
		if f.Payload == nil {
			t.Fatalf("frame %d payload did not decode", i)
		}
		if f.Payload.Index != uint64(i) {
			t.Errorf("frame %d payload index = %d", i, f.Payload.Index)
		}
	}
}

func TestArchivedRunsAndFrames(t *testing.T) {
	srv, ts := newTestServer(t)

	ctx := context.Background()
	started := time.Now().UTC()
	if err := srv.archive.RecordRunStart(ctx, "run-1", "TCamera-0", true, 2, false, started); err != nil {
		t.Fatal(err)
	}
	for i := uint64(0); i < 2; i++ {
		if err := srv.archive.RecordFrame(ctx, "run-1", "TCamera-0", i, i, 512, 512, 1, nil, started); err != nil {
			t.Fatal(err)
		}
	}
	if err := srv.archive.RecordRunEnd(ctx, "run-1", 2, nil); err != nil {
		t.Fatal(err)
	}

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/v1/runs?device=TCamera-0", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("runs status = %d", resp.StatusCode)
	}
	var runs struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(body, &runs); err != nil {
		t.Fatal(err)
	}
	if runs.Count != 1 {
		t.Errorf("runs count = %d", runs.Count)
	}

	resp, body = doJSON(t, http.MethodGet, ts.URL+"/api/v1/devices/TCamera-0/frames?limit=10", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("frames status = %d", resp.StatusCode)
	}
	var frames struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(body, &frames); err != nil {
		t.Fatal(err)
	}
	if frames.Count != 2 {
		t.Errorf("frames count = %d", frames.Count)
	}
}

func TestSettingLogSnapshot(t *testing.T) {
	_, ts := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPut, ts.URL+"/api/v1/devices/TShutter-0/settings/ShutterState", map[string]string{"value": "true"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("shutter write status = %d", resp.StatusCode)
	}

	_, body := doJSON(t, http.MethodGet, ts.URL+"/api/v1/log", nil)
	var log struct {
		Count   int            `json:"count"`
		Entries []seqlog.Entry `json:"entries"`
	}
	if err := json.Unmarshal(body, &log); err != nil {
		t.Fatal(err)
	}
	if log.Count == 0 {
		t.Fatal("log snapshot empty after shutter write")
	}

	found := false
	for _, e := range log.Entries {
		if e.Setting == "ShutterState" && e.Kind == seqlog.KindWrite {
			found = true
		}
	}
	if !found {
		t.Error("shutter write missing from log snapshot")
	}

	// Snapshot does not drain: a second query sees the entries too.
	_, body = doJSON(t, http.MethodGet, ts.URL+"/api/v1/log", nil)
	if err := json.Unmarshal(body, &log); err != nil {
		t.Fatal(err)
	}
	if log.Count == 0 {
		t.Error("log drained by snapshot")
	}
}

func TestStatsEndpoint(t *testing.T) {
	_, ts := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/v1/stats", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var stats struct {
		Registry struct {
			TotalDevices int `json:"total_devices"`
			Initialized  int `json:"initialized"`
		} `json:"registry"`
		Cameras []struct {
			Name     string `json:"name"`
			Capacity int    `json:"capacity"`
		} `json:"cameras"`
	}
	if err := json.Unmarshal(body, &stats); err != nil {
		t.Fatal(err)
	}
	if stats.Registry.TotalDevices != 5 || stats.Registry.Initialized != 5 {
		t.Errorf("registry stats = %+v", stats.Registry)
	}
	if len(stats.Cameras) != 1 || stats.Cameras[0].Capacity != device.DefaultSinkCapacity {
		t.Errorf("camera stats = %+v", stats.Cameras)
	}
}

func TestRequestIDHeader(t *testing.T) {
	_, ts := newTestServer(t)

	resp, _ := doJSON(t, http.MethodGet, ts.URL+"/api/v1/health", nil)
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("response missing X-Request-ID")
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/v1/health", nil)
	req.Header.Set("X-Request-ID", "fixed-id")
	resp2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp2.Body.Close()
	if got := resp2.Header.Get("X-Request-ID"); got != "fixed-id" {
		t.Errorf("request id = %q, want fixed-id", got)
	}
}
