package audiosink

import "testing"

func TestRecordSinkCapturesBuffers(t *testing.T) {
	s := NewRecordSink(44100)
	buf := []float32{0.1, 0.2, 0.3, 0.4}
	n, err := s.Write(buf, 2)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != 2 {
		t.Fatalf("n = %d, want 2", n)
	}
	got := s.Buffers()
	if len(got) != 1 || len(got[0]) != 4 {
		t.Fatalf("Buffers() = %v", got)
	}
}

func TestRecordSinkFailsOnDemand(t *testing.T) {
	s := NewRecordSink(44100)
	s.FailNextWrites(true)
	if _, err := s.Write([]float32{0, 0}, 1); err == nil {
		t.Fatal("expected error after FailNextWrites(true)")
	}
	if len(s.Buffers()) != 0 {
		t.Fatal("failed write must not be recorded")
	}
}

func TestRecordSinkNonBlockingContract(t *testing.T) {
	s := NewRecordSink(44100)
	if !s.NonBlocking() {
		t.Fatal("RecordSink must report NonBlocking() == true")
	}
	if s.Format().ChannelCount != 2 {
		t.Fatalf("ChannelCount = %d, want 2", s.Format().ChannelCount)
	}
}
