package sinks

import "testing"

type point struct {
	measurement string
	tags        map[string]string
	fields      map[string]interface{}
}

type fakePointWriter struct {
	points []point
}

func (w *fakePointWriter) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	w.points = append(w.points, point{measurement, tags, fields})
}

func TestInflux_Write(t *testing.T) {
	w := &fakePointWriter{}
	s := NewInflux(w)

	if !s.Write(warnLine) {
		t.Fatal("Write() = false")
	}
	if s.Write("garbage") {
		t.Error("Write(garbage) = true")
	}

	if len(w.points) != 1 {
		t.Fatalf("wrote %d points, want 1", len(w.points))
	}
	p := w.points[0]
	if p.measurement != Measurement {
		t.Errorf("measurement = %q, want %q", p.measurement, Measurement)
	}
	if p.tags["level"] != "WARNING" || p.tags["module"] != "net-Conn" {
		t.Errorf("tags = %v", p.tags)
	}
	if p.fields["text"] != "connection dropped" || p.fields["pid"] != 4242 || p.fields["severity"] != 1 {
		t.Errorf("fields = %v", p.fields)
	}
}
