package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteFrameMetric records one emitted frame.
//
// The write is non-blocking; data is batched and sent asynchronously.
//
// Example:
//
//	client.WriteFrameMetric("TCamera-0", "run-abc", 3, 17, 12)
func (c *Client) WriteFrameMetric(device, runID string, index, cumulative uint64, payloadEntries int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"frames",
		map[string]string{
			"device": device,
			"run_id": runID,
		},
		map[string]interface{}{
			"index":           int64(index),
			"cumulative":      int64(cumulative),
			"payload_entries": payloadEntries,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteRunMetric records an acquisition run's outcome.
func (c *Client) WriteRunMetric(device, runID string, frames uint64, durationMs float64, failed bool) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"acquisition_runs",
		map[string]string{
			"device": device,
			"run_id": runID,
		},
		map[string]interface{}{
			"frames":      int64(frames),
			"duration_ms": durationMs,
			"failed":      failed,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteSettingMetric records a numeric setting value for trending.
func (c *Client) WriteSettingMetric(device, settingName string, value float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"settings",
		map[string]string{
			"device":  device,
			"setting": settingName,
		},
		map[string]interface{}{
			"value": value,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for custom measurements that don't fit the helper methods.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the timestamp is not "now" (e.g., delayed data).
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
