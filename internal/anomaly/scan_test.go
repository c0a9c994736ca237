package anomaly

import (
	"testing"
	"time"

	"cpsync/internal/model"
)

func baseSession(id string) model.SessionRecord {
	return model.SessionRecord{
		SessionID:             id,
		StartTS:               "0",
		EndTS:                 "7200",
		Energy:                10,
		TotalChargingDuration: "01:00:00",
		TotalSessionDuration:  "02:00:00",
	}
}

func TestPluggedInBoundary(t *testing.T) {
	over := baseSession("s-over")
	over.TotalSessionDuration = "24:00:00"
	under := baseSession("s-under")
	under.TotalSessionDuration = "23:59:59"

	recs, err := Scan([]model.SessionRecord{over, under})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if !hasAnomaly(recs, "s-over", descPluggedIn) {
		t.Fatalf("24:00:00 must trigger the plugged-in rule")
	}
	if hasAnomaly(recs, "s-under", descPluggedIn) {
		t.Fatalf("23:59:59 must not trigger the plugged-in rule")
	}
}

func TestPowerRule(t *testing.T) {
	hot := baseSession("s-hot")
	hot.EndTS = "3600" // one hour, 10 kWh -> 10 kW
	recs, err := Scan([]model.SessionRecord{hot})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if !hasAnomaly(recs, "s-hot", descPower) {
		t.Fatalf("10 kW must trigger the power rule")
	}
}

func TestNearZeroDurationGuard(t *testing.T) {
	s := baseSession("s-short")
	// 0.009 hours plugged in; huge energy must still yield zero power.
	s.StartTS = "0"
	s.EndTS = "32" // 32s = 0.0089h
	s.Energy = 500
	recs, err := Scan([]model.SessionRecord{s})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if hasAnomaly(recs, "s-short", descPower) {
		t.Fatalf("near-zero duration must suppress the power rule")
	}
}

func TestChargingBoundary(t *testing.T) {
	s := baseSession("s-charge")
	s.TotalChargingDuration = "12:00:00"
	recs, err := Scan([]model.SessionRecord{s})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if !hasAnomaly(recs, "s-charge", descCharging) {
		t.Fatalf("12:00:00 charging must trigger the charging rule")
	}
}

func TestSessionCanTriggerMultipleRules(t *testing.T) {
	s := baseSession("s-multi")
	s.TotalSessionDuration = "30:00:00"
	s.TotalChargingDuration = "13:30:00"
	s.EndTS = "3600"
	s.Energy = 50
	recs, err := Scan([]model.SessionRecord{s})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 report rows, got %d", len(recs))
	}
}

func TestScanRejectsMalformedDuration(t *testing.T) {
	s := baseSession("s-bad")
	s.TotalSessionDuration = "yesterday"
	if _, err := Scan([]model.SessionRecord{s}); err == nil {
		t.Fatalf("expected error for malformed duration")
	}
}

func TestParseClockDuration(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
		ok   bool
	}{
		{"00:00:00", 0, true},
		{"01:30:00", 90 * time.Minute, true},
		{"26:15:33", 26*time.Hour + 15*time.Minute + 33*time.Second, true},
		{"1 days 02:00:00", 26 * time.Hour, true},
		{"02:00", 0, false},
		{"aa:bb:cc", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := parseClockDuration(tc.in)
		if tc.ok && err != nil {
			t.Fatalf("%q: unexpected error %v", tc.in, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%q: expected error", tc.in)
		}
		if tc.ok && got != tc.want {
			t.Fatalf("%q: got %s, want %s", tc.in, got, tc.want)
		}
	}
}

func hasAnomaly(recs []model.AnomalyRecord, sessionID, desc string) bool {
	for _, r := range recs {
		if r.SessionID == sessionID && r.Description == desc {
			return true
		}
	}
	return false
}
