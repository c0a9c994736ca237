package status

import (
	"errors"
	"testing"
)

func TestRecordAndSnapshot(t *testing.T) {
	s := NewStore(10)
	s.RecordSuccess("sessions")
	s.RecordSuccess("sessions")
	s.RecordFailure("alarms", "transport", errors.New("dial tcp: refused"))
	s.MarkTerminated("alarms")

	list := s.Workers()
	if len(list) != 2 {
		t.Fatalf("expected 2 workers, got %d", len(list))
	}
	// Ordered by name.
	if list[0].Worker != "alarms" || list[1].Worker != "sessions" {
		t.Fatalf("unexpected order %q, %q", list[0].Worker, list[1].Worker)
	}
	if list[1].Cycles != 2 || list[1].Failures != 0 {
		t.Fatalf("sessions: got cycles=%d failures=%d", list[1].Cycles, list[1].Failures)
	}
	if !list[0].Terminated || list[0].Failures != 1 || list[0].LastError == "" {
		t.Fatalf("alarms status not recorded: %+v", list[0])
	}
}

func TestRecentFailureRing(t *testing.T) {
	s := NewStore(3)
	for i := 0; i < 5; i++ {
		s.RecordFailure("sessions", "data", errors.New(string(rune('a'+i))))
	}
	got := s.Recent(0)
	if len(got) != 3 {
		t.Fatalf("ring must cap at 3, got %d", len(got))
	}
	if got[0].Error != "c" || got[2].Error != "e" {
		t.Fatalf("ring kept wrong entries: %v", got)
	}
	if one := s.Recent(1); len(one) != 1 || one[0].Error != "e" {
		t.Fatalf("limit must return newest, got %v", one)
	}
}

func TestNilStoreIsNoop(t *testing.T) {
	var s *Store
	s.RecordSuccess("sessions")
	s.RecordFailure("sessions", "data", errors.New("x"))
	s.MarkTerminated("sessions")
	if s.Workers() != nil || s.Recent(0) != nil {
		t.Fatalf("nil store must return nil snapshots")
	}
}
