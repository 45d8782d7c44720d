package mqtt

import (
	"fmt"
	"testing"
)

func msg(n int) bufferedMsg {
	return bufferedMsg{topic: Topic, payload: []byte(fmt.Sprintf("m%d", n)), qos: 1}
}

func TestRingBufferEmpty(t *testing.T) {
	r := newRingBuffer(3)
	if r.len() != 0 {
		t.Errorf("len: got %d, want 0", r.len())
	}
	if got := r.drain(); got != nil {
		t.Errorf("drain of empty buffer: got %v, want nil", got)
	}
}

func TestRingBufferFIFO(t *testing.T) {
	r := newRingBuffer(5)
	for i := 0; i < 3; i++ {
		if r.push(msg(i)) {
			t.Errorf("push %d reported overflow", i)
		}
	}

	got := r.drain()
	if len(got) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(got))
	}
	for i, m := range got {
		if want := fmt.Sprintf("m%d", i); string(m.payload) != want {
			t.Errorf("message %d: got %s, want %s", i, m.payload, want)
		}
	}
	if r.len() != 0 {
		t.Error("drain should empty the buffer")
	}
}

func TestRingBufferOverflowDropsOldest(t *testing.T) {
	r := newRingBuffer(3)
	var firstDrops int
	for i := 0; i < 6; i++ {
		if r.push(msg(i)) {
			firstDrops++
		}
	}
	if firstDrops != 1 {
		t.Errorf("overflow should be reported once, got %d", firstDrops)
	}
	if r.len() != 3 {
		t.Errorf("len: got %d, want 3", r.len())
	}

	got := r.drain()
	for i, m := range got {
		if want := fmt.Sprintf("m%d", i+3); string(m.payload) != want {
			t.Errorf("message %d: got %s, want %s", i, m.payload, want)
		}
	}
}

func TestRingBufferOverflowReportedAgainAfterDrain(t *testing.T) {
	r := newRingBuffer(1)
	r.push(msg(0))
	if !r.push(msg(1)) {
		t.Error("expected first overflow")
	}
	r.drain()
	r.push(msg(2))
	if !r.push(msg(3)) {
		t.Error("expected overflow to be reported again after drain")
	}
}

func TestRingBufferWrapAround(t *testing.T) {
	r := newRingBuffer(3)
	r.push(msg(0))
	r.push(msg(1))
	r.drain()
	for i := 2; i < 5; i++ {
		r.push(msg(i))
	}
	got := r.drain()
	if len(got) != 3 || string(got[0].payload) != "m2" || string(got[2].payload) != "m4" {
		t.Errorf("unexpected order after wrap: %v", got)
	}
}

func TestRingBufferMinimumCapacity(t *testing.T) {
	r := newRingBuffer(0)
	r.push(msg(0))
	if r.len() != 1 {
		t.Errorf("len: got %d, want 1", r.len())
	}
}
