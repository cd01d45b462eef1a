package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/nerrad567/scope-sim-core/internal/acquisition"
	"github.com/nerrad567/scope-sim-core/internal/device"
	"github.com/nerrad567/scope-sim-core/internal/seqlog"
)

// handleSnap captures a single still and returns the decoded payload. The
// snap drains every setting log entry recorded since the last emitted image.
func (s *Server) handleSnap(w http.ResponseWriter, r *http.Request) {
	cam, ok := s.camera(w, r)
	if !ok {
		return
	}

	if err := cam.SnapImage(); err != nil {
		if errors.Is(err, device.ErrNotInitialized) {
			writeConflict(w, "camera not initialized")
			return
		}
		writeInternalError(w, err.Error())
		return
	}

	buf, err := cam.ImageBuffer()
	if err != nil {
		writeInternalError(w, "snap produced no image")
		return
	}

	payload, err := seqlog.Decode(buf)
	if err != nil {
		writeInternalError(w, "snap payload did not decode")
		return
	}

	writeJSON(w, http.StatusOK, payload)
}

// handleImage returns the raw bytes of the last snapped image.
func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	cam, ok := s.camera(w, r)
	if !ok {
		return
	}

	buf, err := cam.ImageBuffer()
	if err != nil {
		writeNotFound(w, "no image snapped yet")
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(buf)))
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // Best-effort write to response
	w.Write(buf)
}

// handleAcquisitionStatus reports the camera's current run, if any.
func (s *Server) handleAcquisitionStatus(w http.ResponseWriter, r *http.Request) {
	cam, ok := s.camera(w, r)
	if !ok {
		return
	}

	engine := cam.Engine()
	run, active := engine.CurrentRun()

	resp := map[string]any{
		"device":            cam.Name(),
		"capturing":         engine.IsCapturing(),
		"cumulative_frames": engine.CumulativeFrames(),
	}
	if active {
		resp["run"] = run
	}
	writeJSON(w, http.StatusOK, resp)
}

// acquisitionStart is the request body for starting a sequence. A zero or
// absent frame count starts a continuous acquisition.
type acquisitionStart struct {
	Frames         uint64 `json:"frames"`
	StopOnOverflow bool   `json:"stop_on_overflow"`
}

// handleAcquisitionStart launches a sequence acquisition. The response is
// 202 Accepted; frames arrive via WebSocket, MQTT, and the archive.
func (s *Server) handleAcquisitionStart(w http.ResponseWriter, r *http.Request) {
	cam, ok := s.camera(w, r)
	if !ok {
		return
	}

	var req acquisitionStart
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeBadRequest(w, "invalid JSON body")
			return
		}
	}

	var err error
	if req.Frames > 0 {
		err = cam.StartSequence(req.Frames, req.StopOnOverflow)
	} else {
		err = cam.StartContinuousSequence(req.StopOnOverflow)
	}
	if err != nil {
		switch {
		case errors.Is(err, acquisition.ErrAlreadyRunning):
			writeConflict(w, "acquisition already running")
		case errors.Is(err, device.ErrNotInitialized):
			writeConflict(w, "camera not initialized")
		default:
			writeInternalError(w, err.Error())
		}
		return
	}

	run, _ := cam.Engine().CurrentRun()
	writeJSON(w, http.StatusAccepted, map[string]any{
		"status": "started",
		"run":    run,
	})
}

// handleAcquisitionStop halts the sequence and surfaces the run's error.
func (s *Server) handleAcquisitionStop(w http.ResponseWriter, r *http.Request) {
	cam, ok := s.camera(w, r)
	if !ok {
		return
	}

	resp := map[string]any{
		"status": "stopped",
	}
	if err := cam.StopSequence(); err != nil {
		resp["error"] = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleBuffer returns the decoded frames currently held in the camera's
// sink, oldest first.
func (s *Server) handleBuffer(w http.ResponseWriter, r *http.Request) {
	cam, ok := s.camera(w, r)
	if !ok {
		return
	}

	sink, ok := cam.Engine().Sink().(*acquisition.MemorySink)
	if !ok {
		writeUnavailable(w, "camera buffer is not inspectable")
		return
	}

	frames := sink.Frames()
	type bufferedFrame struct {
		acquisition.Frame
		Payload *seqlog.Payload `json:"payload,omitempty"`
	}
	out := make([]bufferedFrame, 0, len(frames))
	for _, f := range frames {
		bf := bufferedFrame{Frame: f}
		if payload, err := seqlog.Decode(f.Data); err == nil {
			bf.Payload = payload
		}
		out = append(out, bf)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"device": cam.Name(),
		"frames": out,
		"count":  len(out),
		"stats":  sink.Stats(),
	})
}

// handleListFrames returns archived frame headers for a camera, newest first.
func (s *Server) handleListFrames(w http.ResponseWriter, r *http.Request) {
	cam, ok := s.camera(w, r)
	if !ok {
		return
	}
	if s.archive == nil {
		writeUnavailable(w, "frame archive not configured")
		return
	}

	limit := queryInt(r, "limit", 0)
	frames, err := s.archive.ListFrames(r.Context(), cam.Name(), limit)
	if err != nil {
		writeInternalError(w, "failed to list frames")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"device": cam.Name(),
		"frames": frames,
		"count":  len(frames),
	})
}

// handleListRuns returns archived acquisition runs, newest first. The
// optional device query parameter filters by camera.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeUnavailable(w, "frame archive not configured")
		return
	}

	limit := queryInt(r, "limit", 0)
	runs, err := s.archive.ListRuns(r.Context(), r.URL.Query().Get("device"), limit)
	if err != nil {
		writeInternalError(w, "failed to list runs")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"runs":  runs,
		"count": len(runs),
	})
}

// queryInt parses an integer query parameter, falling back to def.
func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
