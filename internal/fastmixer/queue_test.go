package fastmixer

import "testing"

func TestStateQueuePollEmpty(t *testing.T) {
	q := NewStateQueue()
	if _, _, ok := q.Poll(); ok {
		t.Fatal("Poll on empty queue should return ok == false")
	}
}

func TestStateQueuePublishThenPoll(t *testing.T) {
	q := NewStateQueue()
	s1 := &FastMixerState{Command: CommandHotIdle}
	q.Publish(s1)

	got, v1, ok := q.Poll()
	if !ok || got != s1 {
		t.Fatalf("Poll() = %v, %v, want %v, true", got, ok, s1)
	}

	// Repeated polls without a new Publish return the same version.
	_, v1Again, _ := q.Poll()
	if v1Again != v1 {
		t.Fatalf("version changed without a Publish: %d != %d", v1, v1Again)
	}

	s2 := &FastMixerState{Command: CommandColdIdle}
	q.Publish(s2)
	got2, v2, ok := q.Poll()
	if !ok || got2 != s2 {
		t.Fatalf("Poll() after second publish = %v, %v", got2, ok)
	}
	if v2 <= v1 {
		t.Fatalf("version did not advance: v1=%d v2=%d", v1, v2)
	}
}
