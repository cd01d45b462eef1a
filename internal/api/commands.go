package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/scope-sim-core/internal/device"
	"github.com/nerrad567/scope-sim-core/internal/setting"
)

// deviceCommand represents a role-specific command for a device.
type deviceCommand struct {
	Command    string         `json:"command"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// handleDeviceCommand dispatches role-specific operations that run as one
// log transaction (moves, homing, focus passes). Unlike a plain setting
// write, these arm the device's busy flag, so a host polling /busy sees the
// Micro-Manager one-shot busy convention.
func (s *Server) handleDeviceCommand(w http.ResponseWriter, r *http.Request) {
	d, ok := s.device(w, r)
	if !ok {
		return
	}

	var cmd deviceCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if cmd.Command == "" {
		writeBadRequest(w, "command field is required")
		return
	}

	err := device.Dispatch(d, cmd.Command, cmd.Parameters)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{
			"device":  d.Name(),
			"command": cmd.Command,
			"status":  "ok",
		})
	case errors.Is(err, device.ErrUnknownCommand), errors.Is(err, device.ErrBadParameters):
		writeBadRequest(w, err.Error())
	case errors.Is(err, device.ErrNotInitialized):
		writeConflict(w, "device not initialized")
	case errors.Is(err, setting.ErrOutOfRange):
		writeBadRequest(w, err.Error())
	case errors.Is(err, device.ErrUnsupported):
		writeError(w, http.StatusNotImplemented, ErrCodeBadRequest, err.Error())
	default:
		writeInternalError(w, err.Error())
	}
}
