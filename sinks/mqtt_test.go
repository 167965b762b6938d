package sinks

import (
	"errors"
	"testing"
)

type published struct {
	topic   string
	payload string
	qos     byte
}

type fakePublisher struct {
	got []published
	err error
}

func (p *fakePublisher) Publish(topic string, payload []byte, qos byte, _ bool) error {
	p.got = append(p.got, published{topic, string(payload), qos})
	return p.err
}

func TestMQTT_Topic(t *testing.T) {
	m := NewMQTT(&fakePublisher{}, "", 0)

	tests := []struct {
		line string
		want string
	}{
		{warnLine, "logq/log/warning/net-Conn"},
		{errorLine, "logq/log/error/db"},
		{dumpLine, "logq/log/debug/codec"},
		{"09:30:15.123 LOGF   a.go:1 [1] a/b+c#: x", "logq/log/log_fine/a_b_c_"},
		{"garbage", "logq/log/unknown/unknown"},
	}
	for _, tt := range tests {
		if got := m.Topic(tt.line); got != tt.want {
			t.Errorf("Topic(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}
}

func TestMQTT_Write(t *testing.T) {
	pub := &fakePublisher{}
	m := NewMQTT(pub, "site/logs/", 1)

	if !m.Write(warnLine) {
		t.Fatal("Write() = false")
	}
	want := published{"site/logs/warning/net-Conn", warnLine, 1}
	if len(pub.got) != 1 || pub.got[0] != want {
		t.Errorf("published %+v, want %+v", pub.got, want)
	}

	pub.err = errors.New("not connected")
	if m.Write(warnLine) {
		t.Error("Write() = true when publish fails")
	}
}
