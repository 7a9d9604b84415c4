package main

import "testing"

func TestTrackFlagSetParsesLoopSuffix(t *testing.T) {
	var tf trackFlag
	if err := tf.Set("kick.wav"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := tf.Set("pad.wav,loop"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if len(tf.paths) != 2 {
		t.Fatalf("paths = %v, want 2 entries", tf.paths)
	}
	if tf.paths[0] != "kick.wav" || tf.loop[0] {
		t.Fatalf("entry 0 = (%q, %v), want (kick.wav, false)", tf.paths[0], tf.loop[0])
	}
	if tf.paths[1] != "pad.wav" || !tf.loop[1] {
		t.Fatalf("entry 1 = (%q, %v), want (pad.wav, true)", tf.paths[1], tf.loop[1])
	}
}

func TestTrackFlagStringJoinsPaths(t *testing.T) {
	var tf trackFlag
	tf.Set("a.wav")
	tf.Set("b.wav,loop")
	if got, want := tf.String(), "a.wav,b.wav"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}
