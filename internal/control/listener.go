package control

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/nerrad567/logq"
	"github.com/nerrad567/logq/internal/infrastructure/mqtt"
)

// Subscriber is the part of the MQTT client the listener uses.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

// controlMessage is the JSON body of a control message.
type controlMessage struct {
	Level string `json:"level"`
	Final bool   `json:"final"`
}

// Listener applies level changes received over MQTT.
type Listener struct {
	sub    Subscriber
	svc    *Service
	qos    byte
	topics mqtt.Topics
}

// NewListener creates a listener that applies control messages to svc.
func NewListener(sub Subscriber, svc *Service, qos byte) *Listener {
	return &Listener{sub: sub, svc: svc, qos: qos}
}

// Start subscribes to the module and default control topics.
func (l *Listener) Start() error {
	if err := l.sub.Subscribe(l.topics.AllLevelControl(), l.qos, l.handleModule); err != nil {
		return fmt.Errorf("subscribing to level control: %w", err)
	}
	if err := l.sub.Subscribe(l.topics.DefaultControl(), l.qos, l.handleDefault); err != nil {
		l.sub.Unsubscribe(l.topics.AllLevelControl()) //nolint:errcheck // Best effort rollback
		return fmt.Errorf("subscribing to default control: %w", err)
	}
	return nil
}

// Stop removes both subscriptions.
func (l *Listener) Stop() error {
	return errors.Join(
		l.sub.Unsubscribe(l.topics.AllLevelControl()),
		l.sub.Unsubscribe(l.topics.DefaultControl()),
	)
}

func (l *Listener) handleModule(topic string, payload []byte) error {
	module, ok := l.topics.ModuleFromLevelControl(topic)
	if !ok {
		return fmt.Errorf("%w: unexpected topic %q", ErrInvalidPayload, topic)
	}
	msg, level, err := parseControl(payload)
	if err != nil {
		return err
	}
	_, err = l.svc.SetModule(module, level, msg.Final, SourceMQTT)
	return err
}

func (l *Listener) handleDefault(_ string, payload []byte) error {
	_, level, err := parseControl(payload)
	if err != nil {
		return err
	}
	_, err = l.svc.SetDefault(level, SourceMQTT)
	return err
}

// parseControl decodes a JSON control message or a bare level name.
func parseControl(payload []byte) (controlMessage, logq.Level, error) {
	var msg controlMessage
	raw := strings.TrimSpace(string(payload))
	if strings.HasPrefix(raw, "{") {
		if err := json.Unmarshal([]byte(raw), &msg); err != nil {
			return msg, logq.LevelStub, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
		}
	} else {
		msg.Level = raw
	}

	level, err := logq.ParseLevel(msg.Level)
	if err != nil {
		return msg, logq.LevelStub, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	return msg, level, nil
}
