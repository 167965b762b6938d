package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// LevelChangeMeasurement holds one point per runtime level change.
const LevelChangeMeasurement = "level_changes"

// WritePoint writes a point stamped with the current time.
//
// The write is non-blocking; points are batched and sent asynchronously.
// sinks.Influx writes every rendered line through this method.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
//
// Example:
//
//	client.WritePoint("log_messages",
//	    map[string]string{"level": "WARNING", "module": "net-Conn"},
//	    map[string]interface{}{"text": "connection dropped", "pid": 4242})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	c.WritePointWithTime(measurement, tags, fields, time.Now())
}

// WritePointWithTime writes a point with a specific timestamp.
//
// Parameters:
//   - measurement: The measurement name
//   - tags: Key-value pairs for indexing
//   - fields: Key-value pairs for the data
//   - timestamp: The exact time for this data point
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, timestamp))
	c.written.Add(1)
}

// WriteLevelChange records a module level change made at runtime.
//
// Parameters:
//   - module: The module name, or "*default*" for the default level
//   - level: The new level name (e.g. "DEBUG")
//   - final: Whether the entry was marked final
//   - source: What made the change (e.g. "api", "mqtt", "reload")
func (c *Client) WriteLevelChange(module, level string, final bool, source string) {
	c.WritePoint(LevelChangeMeasurement,
		map[string]string{
			"module": module,
			"source": source,
		},
		map[string]interface{}{
			"level": level,
			"final": final,
		},
	)
}
