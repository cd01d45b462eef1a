// Package influxdb wraps the InfluxDB v2 client for acquisition telemetry.
//
// Writes are batched and non-blocking; failures surface through an error
// callback rather than the write path, so frame emission never stalls on
// the telemetry store.
package influxdb
