package anomaly

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"cpsync/internal/ledger"
	"cpsync/internal/model"
)

const (
	descPluggedIn = "User plugged in for longer than 24 hours"
	descPower     = "Charging power exceeds 7 kW"
	descCharging  = "User actively charging for longer than 12 hours"
)

const (
	pluggedInLimit = 24 * time.Hour
	chargingLimit  = 12 * time.Hour
	powerLimitKW   = 7.0
	// minHours guards the average-power division against near-zero
	// session durations.
	minHours = 0.01
)

// Scan evaluates the three threshold rules over the session ledger. A
// session may trigger more than one rule; each hit becomes one report row
// in rule order.
func Scan(sessions []model.SessionRecord) ([]model.AnomalyRecord, error) {
	out := make([]model.AnomalyRecord, 0)
	for _, s := range sessions {
		plugged, err := parseClockDuration(s.TotalSessionDuration)
		if err != nil {
			return nil, fmt.Errorf("session %s: total_session_duration: %w", s.SessionID, err)
		}
		if plugged >= pluggedInLimit {
			out = append(out, model.AnomalyRecord{
				SessionID:   s.SessionID,
				Description: descPluggedIn,
				Value:       s.TotalSessionDuration,
				Unit:        "hh:mm:ss",
			})
		}

		power, err := averagePower(s)
		if err != nil {
			return nil, fmt.Errorf("session %s: %w", s.SessionID, err)
		}
		if power > powerLimitKW {
			out = append(out, model.AnomalyRecord{
				SessionID:   s.SessionID,
				Description: descPower,
				Value:       strconv.FormatFloat(power, 'g', -1, 64),
				Unit:        "kW",
			})
		}

		charging, err := parseClockDuration(s.TotalChargingDuration)
		if err != nil {
			return nil, fmt.Errorf("session %s: total_charging_duration: %w", s.SessionID, err)
		}
		if charging >= chargingLimit {
			out = append(out, model.AnomalyRecord{
				SessionID:   s.SessionID,
				Description: descCharging,
				Value:       s.TotalChargingDuration,
				Unit:        "hh:mm:ss",
			})
		}
	}
	return out, nil
}

// averagePower is energy over plugged-in hours; sessions shorter than the
// near-zero guard report zero power so the rule cannot fire.
func averagePower(s model.SessionRecord) (float64, error) {
	start, err := s.StartUnix()
	if err != nil {
		return 0, fmt.Errorf("start_ts: %w", err)
	}
	end, err := s.EndUnix()
	if err != nil {
		return 0, fmt.Errorf("end_ts: %w", err)
	}
	hours := float64(end-start) / 3600
	if hours < minHours {
		return 0, nil
	}
	return s.Energy / hours, nil
}

// Scanner rewrites the anomaly report from the current session ledger.
type Scanner struct {
	store  ledger.Store
	logger *slog.Logger
}

func NewScanner(store ledger.Store, logger *slog.Logger) *Scanner {
	return &Scanner{store: store, logger: logger}
}

// Run reads the session ledger, evaluates the rules and overwrites the
// report. Prior anomaly history is not retained.
func (s *Scanner) Run(ctx context.Context) ([]model.AnomalyRecord, error) {
	sessions, err := s.store.LoadSessions(ctx)
	if err != nil {
		return nil, err
	}
	recs, err := Scan(sessions)
	if err != nil {
		return nil, err
	}
	if err := s.store.ReplaceAnomalies(ctx, recs); err != nil {
		return nil, err
	}
	s.logger.Info("anomalies saved", "count", len(recs))
	return recs, nil
}
