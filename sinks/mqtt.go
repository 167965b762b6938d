package sinks

import (
	"strings"

	"github.com/nerrad567/logq"
)

// DefaultTopicPrefix is the topic root lines are published under.
const DefaultTopicPrefix = "logq/log"

// Publisher sends a payload to an MQTT topic. It is satisfied by the
// client in internal/infrastructure/mqtt.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// MQTT publishes each line to <prefix>/<level>/<module>, for example
// logq/log/warning/net-Conn. The payload is the rendered line.
//
// Topic segments are lower-cased levels and sanitised module names; lines
// that do not parse go to <prefix>/unknown/unknown.
type MQTT struct {
	pub    Publisher
	prefix string
	qos    byte
}

// NewMQTT creates an MQTT sink. An empty prefix uses DefaultTopicPrefix.
func NewMQTT(pub Publisher, prefix string, qos byte) *MQTT {
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return &MQTT{
		pub:    pub,
		prefix: strings.TrimSuffix(prefix, "/"),
		qos:    qos,
	}
}

// Topic returns the topic a rendered line is published to.
func (m *MQTT) Topic(message string) string {
	line, ok := logq.ParseLine(message)
	if !ok {
		return m.prefix + "/" + logq.UnknownModule + "/" + logq.UnknownModule
	}
	return m.prefix + "/" + strings.ToLower(line.Level.String()) + "/" + topicSegment(line.Module)
}

// Write implements logq.Sink.
func (m *MQTT) Write(message string) bool {
	return m.pub.Publish(m.Topic(message), []byte(message), m.qos, false) == nil
}

// topicReplacer removes characters that are not allowed in, or have
// meaning inside, a single MQTT topic level.
var topicReplacer = strings.NewReplacer("/", "_", "+", "_", "#", "_", "\x00", "")

// topicSegment makes s usable as one topic level.
func topicSegment(s string) string {
	s = topicReplacer.Replace(s)
	if s == "" {
		return logq.UnknownModule
	}
	return s
}
