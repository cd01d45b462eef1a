package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/scope-sim-core/internal/device"
	"github.com/nerrad567/scope-sim-core/internal/setting"
)

// deviceView is the JSON representation of a device.
type deviceView struct {
	Name        string        `json:"name"`
	Kind        device.Kind   `json:"kind"`
	Initialized bool          `json:"initialized"`
	Settings    []settingView `json:"settings,omitempty"`
}

// settingView is the JSON representation of a setting. One-shot settings
// carry no value.
type settingView struct {
	Name  string       `json:"name"`
	Type  setting.Type `json:"type"`
	Value *string      `json:"value"`
}

func settingViews(d device.Device) []settingView {
	settings := d.Settings()
	out := make([]settingView, 0, len(settings))
	for _, s := range settings {
		v := settingView{Name: s.Name(), Type: s.Type()}
		if text, err := s.GetText(); err == nil {
			v.Value = &text
		}
		out = append(out, v)
	}
	return out
}

// handleListDevices returns the constructed device roster plus the hub's
// installed device names.
func (s *Server) handleListDevices(w http.ResponseWriter, _ *http.Request) {
	devices := s.registry.List()
	views := make([]deviceView, 0, len(devices))
	for _, d := range devices {
		views = append(views, deviceView{
			Name:        d.Name(),
			Kind:        d.Kind(),
			Initialized: d.Initialized(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"devices":   views,
		"count":     len(views),
		"installed": s.registry.Hub().InstalledDevices(),
	})
}

// handleGetDevice returns a single device with its settings.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	d, ok := s.device(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, deviceView{
		Name:        d.Name(),
		Kind:        d.Kind(),
		Initialized: d.Initialized(),
		Settings:    settingViews(d),
	})
}

// handleDeviceBusy consumes and returns the device's one-shot busy flag.
// Polling this endpoint mirrors how a host polls a device after a motion
// command: the first query after a mutation reports busy, the next reports
// idle.
func (s *Server) handleDeviceBusy(w http.ResponseWriter, r *http.Request) {
	d, ok := s.device(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"device": d.Name(),
		"busy":   d.Busy(),
	})
}

// handleListSettings returns all settings of a device.
func (s *Server) handleListSettings(w http.ResponseWriter, r *http.Request) {
	d, ok := s.device(w, r)
	if !ok {
		return
	}

	views := settingViews(d)
	writeJSON(w, http.StatusOK, map[string]any{
		"device":   d.Name(),
		"settings": views,
		"count":    len(views),
	})
}

// handleGetSetting reads one setting. The read is recorded in the setting
// log like any other host access.
func (s *Server) handleGetSetting(w http.ResponseWriter, r *http.Request) {
	d, ok := s.device(w, r)
	if !ok {
		return
	}

	sett, err := device.Setting(d, chi.URLParam(r, "setting"))
	if err != nil {
		writeNotFound(w, "setting not found")
		return
	}

	view := settingView{Name: sett.Name(), Type: sett.Type()}
	if text, getErr := sett.GetText(); getErr == nil {
		view.Value = &text
	}
	writeJSON(w, http.StatusOK, view)
}

// settingUpdate is the request body for setting writes. Writing to a
// one-shot setting triggers it regardless of value.
type settingUpdate struct {
	Value string `json:"value"`
}

// handleSetSetting writes one setting from its textual form.
func (s *Server) handleSetSetting(w http.ResponseWriter, r *http.Request) {
	d, ok := s.device(w, r)
	if !ok {
		return
	}

	sett, err := device.Setting(d, chi.URLParam(r, "setting"))
	if err != nil {
		writeNotFound(w, "setting not found")
		return
	}

	var update settingUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := sett.SetText(update.Value); err != nil {
		switch {
		case errors.Is(err, setting.ErrInvalidState):
			writeConflict(w, err.Error())
		case errors.Is(err, setting.ErrOutOfRange), errors.Is(err, setting.ErrInvalidValue):
			writeBadRequest(w, err.Error())
		default:
			writeInternalError(w, "failed to set value")
		}
		return
	}

	view := settingView{Name: sett.Name(), Type: sett.Type()}
	if text, getErr := sett.GetText(); getErr == nil {
		view.Value = &text
	}
	writeJSON(w, http.StatusOK, view)
}

// handleStats returns registry and per-camera acquisition statistics.
func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	type cameraStats struct {
		Name       string `json:"name"`
		Capturing  bool   `json:"capturing"`
		Cumulative uint64 `json:"cumulative_frames"`
		Buffered   int    `json:"buffered,omitempty"`
		Capacity   int    `json:"capacity,omitempty"`
	}

	cameras := s.registry.Cameras()
	camStats := make([]cameraStats, 0, len(cameras))
	for _, cam := range cameras {
		cs := cameraStats{
			Name:       cam.Name(),
			Capturing:  cam.IsCapturing(),
			Cumulative: cam.Engine().CumulativeFrames(),
		}
		if sink, ok := cam.Engine().Sink().(interface{ Len() int }); ok {
			cs.Buffered = sink.Len()
		}
		if sink, ok := cam.Engine().Sink().(interface{ Capacity() int }); ok {
			cs.Capacity = sink.Capacity()
		}
		camStats = append(camStats, cs)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"registry":   s.registry.GetStats(),
		"cameras":    camStats,
		"log_length": s.registry.Hub().Log().Len(),
	})
}

// handleSettingLog returns a snapshot of the pending setting log entries.
// The snapshot does not drain the log; only an emitted image does.
func (s *Server) handleSettingLog(w http.ResponseWriter, _ *http.Request) {
	entries := s.registry.Hub().Log().Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"count":   len(entries),
	})
}

// device resolves the {name} URL parameter, writing a 404 on failure.
func (s *Server) device(w http.ResponseWriter, r *http.Request) (device.Device, bool) {
	name := chi.URLParam(r, "name")
	d, err := s.registry.Get(name)
	if err != nil {
		writeNotFound(w, "device not found")
		return nil, false
	}
	return d, true
}

// camera resolves the {name} URL parameter as a camera, writing a 404 on
// failure.
func (s *Server) camera(w http.ResponseWriter, r *http.Request) (*device.Camera, bool) {
	name := chi.URLParam(r, "name")
	cam, err := s.registry.Camera(name)
	if err != nil {
		writeNotFound(w, "camera not found")
		return nil, false
	}
	return cam, true
}
