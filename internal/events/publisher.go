package events

import (
	"encoding/json"
	"time"

	"github.com/nerrad567/scope-sim-core/internal/acquisition"
	"github.com/nerrad567/scope-sim-core/internal/infrastructure/mqtt"
)

// Logger defines the logging interface used by event publishers.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}

// MessagePublisher is the outbound MQTT surface the publisher needs.
// Satisfied by *mqtt.Client.
type MessagePublisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// StartedEvent is the payload for acquisition start events.
type StartedEvent struct {
	RunID          string    `json:"run_id"`
	Device         string    `json:"device"`
	Finite         bool      `json:"finite"`
	Count          uint64    `json:"count"`
	StopOnOverflow bool      `json:"stop_on_overflow"`
	StartedAt      time.Time `json:"started_at"`
}

// FrameEvent is the payload for emitted frame events. The image data stays
// out of the broker; subscribers fetch frames through the API if they need
// payloads.
type FrameEvent struct {
	RunID      string            `json:"run_id"`
	Device     string            `json:"device"`
	Index      uint64            `json:"index"`
	Cumulative uint64            `json:"cumulative"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	CapturedAt time.Time         `json:"captured_at"`
}

// FinishedEvent is the payload for acquisition end events.
type FinishedEvent struct {
	RunID  string `json:"run_id"`
	Device string `json:"device"`
	Frames uint64 `json:"frames"`
	Error  string `json:"error,omitempty"`
}

// Publisher forwards acquisition events to MQTT. Publish failures are
// logged and dropped; the broker must never stall frame emission.
type Publisher struct {
	pub    MessagePublisher
	topics mqtt.Topics
	qos    byte
	logger Logger
}

// NewPublisher creates a publisher sending with the given QoS.
func NewPublisher(pub MessagePublisher, qos byte) *Publisher {
	return &Publisher{pub: pub, qos: qos, logger: noopLogger{}}
}

// SetLogger sets the logger for the publisher.
func (p *Publisher) SetLogger(logger Logger) {
	p.logger = logger
}

// AcquisitionStarted implements acquisition.Notifier.
func (p *Publisher) AcquisitionStarted(run acquisition.Run) {
	p.publish(p.topics.AcquisitionStarted(run.Device), StartedEvent{
		RunID:          run.ID,
		Device:         run.Device,
		Finite:         run.Finite,
		Count:          run.Count,
		StopOnOverflow: run.StopOnOverflow,
		StartedAt:      run.StartedAt,
	})
}

// FrameEmitted implements acquisition.Notifier.
func (p *Publisher) FrameEmitted(run acquisition.Run, frame acquisition.Frame) {
	p.publish(p.topics.AcquisitionFrame(run.Device), FrameEvent{
		RunID:      run.ID,
		Device:     frame.Device,
		Index:      frame.Index,
		Cumulative: frame.Cumulative,
		Metadata:   frame.Metadata,
		CapturedAt: frame.CapturedAt,
	})
}

// AcquisitionFinished implements acquisition.Notifier.
func (p *Publisher) AcquisitionFinished(run acquisition.Run, frames uint64, err error) {
	ev := FinishedEvent{
		RunID:  run.ID,
		Device: run.Device,
		Frames: frames,
	}
	if err != nil {
		ev.Error = err.Error()
	}
	p.publish(p.topics.AcquisitionFinished(run.Device), ev)
}

func (p *Publisher) publish(topic string, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn("marshalling event failed", "topic", topic, "error", err)
		return
	}
	if err := p.pub.Publish(topic, payload, p.qos, false); err != nil {
		p.logger.Warn("publishing event failed", "topic", topic, "error", err)
	}
}
