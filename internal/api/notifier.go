package api

import (
	"github.com/nerrad567/scope-sim-core/internal/acquisition"
)

// HubNotifier relays acquisition events to WebSocket clients. Frame payloads
// stay off the wire; clients fetch image bytes through the REST endpoints.
type HubNotifier struct {
	hub *Hub
}

// NewHubNotifier creates a notifier broadcasting through the given hub.
func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

// AcquisitionStarted implements acquisition.Notifier.
func (n *HubNotifier) AcquisitionStarted(run acquisition.Run) {
	n.hub.Broadcast(ChannelAcquisitionStarted, run)
}

// FrameEmitted implements acquisition.Notifier.
func (n *HubNotifier) FrameEmitted(run acquisition.Run, frame acquisition.Frame) {
	n.hub.Broadcast(ChannelAcquisitionFrame, map[string]any{
		"run_id": run.ID,
		"frame":  frame,
	})
}

// AcquisitionFinished implements acquisition.Notifier.
func (n *HubNotifier) AcquisitionFinished(run acquisition.Run, frames uint64, err error) {
	payload := map[string]any{
		"run_id": run.ID,
		"device": run.Device,
		"frames": frames,
	}
	if err != nil {
		payload["error"] = err.Error()
	}
	n.hub.Broadcast(ChannelAcquisitionFinished, payload)
}
