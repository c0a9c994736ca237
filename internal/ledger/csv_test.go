package ledger

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cpsync/internal/model"
)

func newTestCSV(t *testing.T) (Store, string) {
	t.Helper()
	dir := t.TempDir()
	s := NewCSV(
		filepath.Join(dir, "sessions.csv"),
		filepath.Join(dir, "stations.csv"),
		filepath.Join(dir, "alarms.csv"),
		filepath.Join(dir, "anomalies.csv"),
	)
	return s, dir
}

func sampleSession(id string) model.SessionRecord {
	return model.SessionRecord{
		SessionID:             id,
		UserID:                "9f2a01bc55",
		CredentialID:          "11aa22bb33",
		StationID:             "5544332211",
		PortNo:                1,
		StartTS:               "1685647800",
		EndTS:                 "1685655000",
		StartDT:               "2023-06-01 12:30:00",
		EndDT:                 "2023-06-01 14:30:00",
		Energy:                7.25,
		TotalChargingDuration: "01:45:12",
		TotalSessionDuration:  "02:00:00",
		Address:               "800 Griffiths Way, Vancouver",
	}
}

func TestLoadMissingLedgerIsColdStart(t *testing.T) {
	s, _ := newTestCSV(t)
	rows, err := s.LoadSessions(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if rows != nil {
		t.Fatalf("expected nil rows on cold start, got %d", len(rows))
	}
}

func TestSessionRoundTrip(t *testing.T) {
	s, _ := newTestCSV(t)
	ctx := context.Background()
	want := []model.SessionRecord{sampleSession("s1"), sampleSession("s2")}
	if err := s.ReplaceSessions(ctx, want); err != nil {
		t.Fatalf("replace: %v", err)
	}
	got, err := s.LoadSessions(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("rows: got %d, want 2", len(got))
	}
	if got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("roundtrip mismatch:\n got %+v\nwant %+v", got[0], want[0])
	}
}

func TestAlarmRoundTripKeepsOrder(t *testing.T) {
	s, _ := newTestCSV(t)
	ctx := context.Background()
	want := []model.AlarmRecord{
		{StationID: "a", StationName: "LOT-A", Model: "CT4020", OrgID: "o", PortNo: 1, AlarmType: "GFCI Trip", AlarmTS: 1000, AlarmDT: "2023-06-01 12:30:00", SessionID: ""},
		{StationID: "b", StationName: "LOT-B", Model: "CT4020", OrgID: "o", PortNo: 2, AlarmType: "Power Loss", AlarmTS: 2000, AlarmDT: "2023-06-01 13:30:00", SessionID: "s1"},
	}
	if err := s.ReplaceAlarms(ctx, want); err != nil {
		t.Fatalf("replace: %v", err)
	}
	got, err := s.LoadAlarms(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("roundtrip mismatch: %+v", got)
	}
}

func TestReplaceLeavesNoTempFiles(t *testing.T) {
	s, dir := newTestCSV(t)
	ctx := context.Background()
	if err := s.ReplaceSessions(ctx, []model.SessionRecord{sampleSession("s1")}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if err := s.ReplaceSessions(ctx, []model.SessionRecord{sampleSession("s1"), sampleSession("s2")}); err != nil {
		t.Fatalf("second replace: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Fatalf("temp file left behind: %s", e.Name())
		}
	}
}

func TestHeadersMatchLedgerSchema(t *testing.T) {
	s, dir := newTestCSV(t)
	ctx := context.Background()
	if err := s.ReplaceSessions(ctx, nil); err != nil {
		t.Fatalf("replace: %v", err)
	}
	raw, err := os.ReadFile(filepath.Join(dir, "sessions.csv"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	first := strings.SplitN(string(raw), "\n", 2)[0]
	want := "session_id,user_id,credential_id,station_id,port_no,start_ts,end_ts,start_dt,end_dt,energy,total_charging_duration,total_session_duration,address"
	if first != want {
		t.Fatalf("header:\n got %s\nwant %s", first, want)
	}
}

func TestAnomalyReportOverwrite(t *testing.T) {
	s, _ := newTestCSV(t)
	ctx := context.Background()
	first := []model.AnomalyRecord{{SessionID: "s1", Description: "Charging power exceeds 7 kW", Value: "8.1", Unit: "kW"}}
	if err := s.ReplaceAnomalies(ctx, first); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if err := s.ReplaceAnomalies(ctx, nil); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
}
