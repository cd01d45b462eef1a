// Package events publishes acquisition lifecycle events to external
// observers.
//
// Publisher pushes JSON events to MQTT topics; Telemetry writes frame and
// run metrics to InfluxDB. Both implement acquisition.Notifier and are
// fanned out together with the archive observer and the WebSocket hub.
package events
