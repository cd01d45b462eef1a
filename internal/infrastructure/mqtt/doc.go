// Package mqtt wraps paho.mqtt.golang for the simulation harness.
//
// It provides a managed client with automatic reconnection, subscription
// restoration, Last Will and Testament status on scopesim/system/status,
// and topic builders for the harness's device and acquisition topics.
package mqtt
