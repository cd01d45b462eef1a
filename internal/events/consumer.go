package events

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nerrad567/scope-sim-core/internal/device"
	"github.com/nerrad567/scope-sim-core/internal/infrastructure/mqtt"
)

// Subscriber is the broker subscription surface the consumer needs.
// *mqtt.Client satisfies it.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// DeviceLookup resolves device names to instances. *device.Registry
// satisfies it.
type DeviceLookup interface {
	Get(name string) (device.Device, error)
}

// commandMessage is the payload accepted on device command topics. Same
// shape as the HTTP command body.
type commandMessage struct {
	Command    string         `json:"command"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// CommandConsumer routes broker-published device commands into the device
// layer, so sequencing scenarios can be driven from an MQTT client as well
// as over HTTP. Commands go through device.Dispatch, the same path the API
// uses.
type CommandConsumer struct {
	sub    Subscriber
	lookup DeviceLookup
	topics mqtt.Topics
	qos    byte
	logger Logger
}

// NewCommandConsumer creates a consumer over the given subscription surface.
func NewCommandConsumer(sub Subscriber, lookup DeviceLookup, qos byte) *CommandConsumer {
	return &CommandConsumer{
		sub:    sub,
		lookup: lookup,
		qos:    qos,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for command routing diagnostics.
func (c *CommandConsumer) SetLogger(logger Logger) {
	if logger != nil {
		c.logger = logger
	}
}

// Start subscribes to the device command pattern. Handlers run on broker
// callback goroutines; Dispatch serializes through the setting log, so no
// extra synchronization is needed here.
func (c *CommandConsumer) Start() error {
	topic := c.topics.AllDeviceCommands()
	if err := c.sub.Subscribe(topic, c.qos, c.handle); err != nil {
		return fmt.Errorf("subscribing to %s: %w", topic, err)
	}
	c.logger.Info("device command consumer started", "topic", topic)
	return nil
}

func (c *CommandConsumer) handle(topic string, payload []byte) error {
	name, ok := deviceFromCommandTopic(topic)
	if !ok {
		return fmt.Errorf("malformed command topic %q", topic)
	}

	var msg commandMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		c.logger.Warn("dropping malformed command payload", "topic", topic, "error", err)
		return err
	}
	if msg.Command == "" {
		c.logger.Warn("dropping command with empty command field", "topic", topic)
		return fmt.Errorf("empty command on %s", topic)
	}

	d, err := c.lookup.Get(name)
	if err != nil {
		c.logger.Warn("command for unknown device", "device", name, "command", msg.Command)
		return err
	}

	if err := device.Dispatch(d, msg.Command, msg.Parameters); err != nil {
		c.logger.Warn("command failed",
			"device", name,
			"command", msg.Command,
			"error", err,
		)
		return err
	}

	c.logger.Debug("command executed", "device", name, "command", msg.Command)
	return nil
}

// deviceFromCommandTopic extracts the device name from
// scopesim/device/<name>/command.
func deviceFromCommandTopic(topic string) (string, bool) {
	parts := strings.Split(topic, "/")
	if len(parts) != 4 || parts[0] != mqtt.TopicPrefix || parts[1] != "device" || parts[3] != "command" {
		return "", false
	}
	if parts[2] == "" {
		return "", false
	}
	return parts[2], true
}
