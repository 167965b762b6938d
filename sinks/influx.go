package sinks

import (
	"github.com/nerrad567/logq"
)

// Measurement is the InfluxDB measurement log lines are written to.
const Measurement = "log_messages"

// PointWriter writes one InfluxDB point. It is satisfied by the client in
// internal/infrastructure/influxdb, which batches writes asynchronously.
type PointWriter interface {
	WritePoint(measurement string, tags map[string]string, fields map[string]interface{})
}

// Influx writes a point per line, tagged with level and module so counts
// per module and level can be graphed:
//
//	log_messages,level=WARNING,module=net-Conn text="...",origin="conn.go:42",pid=4242i,severity=1i
type Influx struct {
	w PointWriter
}

// NewInflux creates an Influx sink.
func NewInflux(w PointWriter) *Influx {
	return &Influx{w: w}
}

// Write implements logq.Sink. Lines that do not parse are skipped and
// reported as failures.
func (s *Influx) Write(message string) bool {
	line, ok := logq.ParseLine(message)
	if !ok {
		return false
	}

	s.w.WritePoint(Measurement,
		map[string]string{
			"level":  line.Level.String(),
			"module": line.Module,
		},
		map[string]interface{}{
			"text":     line.Text,
			"origin":   line.Origin,
			"pid":      line.PID,
			"severity": int(line.Level),
		},
	)
	return true
}
