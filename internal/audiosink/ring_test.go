package audiosink

import "testing"

func TestRingWriteReadRoundTrip(t *testing.T) {
	r := newSampleRing(8)
	src := []float32{1, 2, 3, 4, 5, 6}
	n := r.Write(src, 3)
	if n != 3 {
		t.Fatalf("Write returned %d, want 3", n)
	}
	dst := make([]float32, 6)
	got := r.Read(dst, 3)
	if got != 3 {
		t.Fatalf("Read returned %d, want 3", got)
	}
	for i, v := range src {
		if dst[i] != v {
			t.Fatalf("dst[%d] = %v, want %v", i, dst[i], v)
		}
	}
}

func TestRingReadUnderrunIsSilence(t *testing.T) {
	r := newSampleRing(8)
	dst := make([]float32, 4)
	for i := range dst {
		dst[i] = 99
	}
	n := r.Read(dst, 2)
	if n != 0 {
		t.Fatalf("Read returned %d, want 0", n)
	}
	for i, v := range dst {
		if v != 0 {
			t.Fatalf("dst[%d] = %v, want 0 (silence)", i, v)
		}
	}
}

func TestRingWriteOverflowIsShort(t *testing.T) {
	r := newSampleRing(4) // rounds up to 4 frames capacity
	src := make([]float32, 20)
	n := r.Write(src, 10)
	if n > 4 {
		t.Fatalf("Write returned %d, want <= capacity 4", n)
	}
}
