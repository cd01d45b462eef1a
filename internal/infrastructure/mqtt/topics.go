package mqtt

import "fmt"

// Topic prefixes for the simulation harness.
//
// All topics use the scheme: scopesim/{category}/...
const (
	// TopicPrefix is the base for all harness topics.
	TopicPrefix = "scopesim"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "scopesim/system"
)

// Topics provides builders for harness MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	t := topics.AcquisitionFrame("TCamera-0")
//	// Returns: "scopesim/acquisition/TCamera-0/frame"
type Topics struct{}

// DeviceSetting returns the topic for a setting change on a device.
//
// Example: scopesim/device/TCamera-0/setting/Exposure
func (Topics) DeviceSetting(device, setting string) string {
	return fmt.Sprintf("%s/device/%s/setting/%s", TopicPrefix, device, setting)
}

// DeviceBusy returns the topic for device busy announcements.
//
// Example: scopesim/device/TXYStage-0/busy
func (Topics) DeviceBusy(device string) string {
	return fmt.Sprintf("%s/device/%s/busy", TopicPrefix, device)
}

// DeviceCommand returns the topic on which a device accepts role commands.
//
// Example: scopesim/device/TXYStage-0/command
func (Topics) DeviceCommand(device string) string {
	return fmt.Sprintf("%s/device/%s/command", TopicPrefix, device)
}

// AllDeviceCommands returns a pattern matching every device command topic.
//
// Pattern: scopesim/device/+/command
func (Topics) AllDeviceCommands() string {
	return fmt.Sprintf("%s/device/+/command", TopicPrefix)
}

// AcquisitionStarted returns the topic for acquisition start events.
//
// Example: scopesim/acquisition/TCamera-0/started
func (Topics) AcquisitionStarted(device string) string {
	return fmt.Sprintf("%s/acquisition/%s/started", TopicPrefix, device)
}

// AcquisitionFrame returns the topic for emitted frame events.
//
// Example: scopesim/acquisition/TCamera-0/frame
func (Topics) AcquisitionFrame(device string) string {
	return fmt.Sprintf("%s/acquisition/%s/frame", TopicPrefix, device)
}

// AcquisitionFinished returns the topic for acquisition end events.
//
// Example: scopesim/acquisition/TCamera-0/finished
func (Topics) AcquisitionFinished(device string) string {
	return fmt.Sprintf("%s/acquisition/%s/finished", TopicPrefix, device)
}

// SystemStatus returns the system status topic.
//
// Example: scopesim/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// AllAcquisitionEvents returns a pattern matching every acquisition event.
//
// Pattern: scopesim/acquisition/+/+
func (Topics) AllAcquisitionEvents() string {
	return fmt.Sprintf("%s/acquisition/+/+", TopicPrefix)
}

// AllDeviceSettings returns a pattern matching every setting change.
//
// Pattern: scopesim/device/+/setting/+
func (Topics) AllDeviceSettings() string {
	return fmt.Sprintf("%s/device/+/setting/+", TopicPrefix)
}

// AllTopics returns a pattern matching all harness topics.
// Use with caution - this receives ALL traffic.
//
// Pattern: scopesim/#
func (Topics) AllTopics() string {
	return "scopesim/#"
}
