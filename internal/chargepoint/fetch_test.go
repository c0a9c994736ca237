package chargepoint

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeTransport struct {
	sessionPages []SessionPage
	alarmPages   []AlarmPage
	stations     []RawStation
	startRecords []int
	err          error
}

func (f *fakeTransport) GetChargingSessionData(_ context.Context, q SessionQuery) (SessionPage, error) {
	f.startRecords = append(f.startRecords, q.StartRecord)
	if f.err != nil {
		return SessionPage{}, f.err
	}
	idx := len(f.startRecords) - 1
	if idx >= len(f.sessionPages) {
		return SessionPage{}, nil
	}
	return f.sessionPages[idx], nil
}

func (f *fakeTransport) GetAlarms(_ context.Context, q AlarmQuery) (AlarmPage, error) {
	f.startRecords = append(f.startRecords, q.StartRecord)
	if f.err != nil {
		return AlarmPage{}, f.err
	}
	idx := len(f.startRecords) - 1
	if idx >= len(f.alarmPages) {
		return AlarmPage{}, nil
	}
	return f.alarmPages[idx], nil
}

func (f *fakeTransport) GetStations(context.Context, StationQuery) ([]RawStation, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.stations, nil
}

func sessionsNamed(ids ...string) []RawSession {
	out := make([]RawSession, 0, len(ids))
	for _, id := range ids {
		out = append(out, RawSession{SessionID: id})
	}
	return out
}

func TestSessionsPaginatesUntilExhaustion(t *testing.T) {
	ft := &fakeTransport{sessionPages: []SessionPage{
		{Sessions: sessionsNamed("a", "b"), More: true},
		{Sessions: sessionsNamed("c"), More: true},
		{Sessions: sessionsNamed("d"), More: false},
	}}
	f := NewFetcher(ft)
	got, err := f.Sessions(context.Background(), time.Unix(0, 0), time.Time{})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("records: got %d, want 4", len(got))
	}
	want := []int{1, 101, 201}
	if len(ft.startRecords) != len(want) {
		t.Fatalf("calls: got %v, want %v", ft.startRecords, want)
	}
	for i, v := range want {
		if ft.startRecords[i] != v {
			t.Fatalf("cursor advance: got %v, want %v", ft.startRecords, want)
		}
	}
}

func TestSessionsEmptyResult(t *testing.T) {
	ft := &fakeTransport{sessionPages: []SessionPage{{}}}
	f := NewFetcher(ft)
	got, err := f.Sessions(context.Background(), time.Unix(0, 0), time.Now())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no records, got %d", len(got))
	}
	if len(ft.startRecords) != 1 {
		t.Fatalf("expected a single call, got %d", len(ft.startRecords))
	}
}

func TestSessionsSurfacesTransportError(t *testing.T) {
	wantErr := errors.New("connection refused")
	f := NewFetcher(&fakeTransport{err: wantErr})
	if _, err := f.Sessions(context.Background(), time.Unix(0, 0), time.Time{}); !errors.Is(err, wantErr) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestAlarmsPaginates(t *testing.T) {
	ft := &fakeTransport{alarmPages: []AlarmPage{
		{Alarms: []RawAlarm{{AlarmType: "GFCI Trip"}}, More: true},
		{Alarms: []RawAlarm{{AlarmType: "Power Loss"}}, More: false},
	}}
	f := NewFetcher(ft)
	got, err := f.Alarms(context.Background(), time.Unix(0, 0), time.Now())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("records: got %d, want 2", len(got))
	}
}
