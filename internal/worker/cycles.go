package worker

import (
	"context"
	"log/slog"

	"cpsync/internal/anomaly"
	"cpsync/internal/merge"
	"cpsync/internal/publish"
)

// SessionCycle merges the session ledger and then rewrites the anomaly
// report from it. A scan or publish failure is reported but does not fail
// the cycle; the merge already landed and the next cycle rebuilds the
// report anyway.
func SessionCycle(eng *merge.SessionEngine, scanner *anomaly.Scanner, pub *publish.Publisher, logger *slog.Logger) CycleFunc {
	return func(ctx context.Context) error {
		if _, err := eng.RunCycle(ctx); err != nil {
			return err
		}
		recs, err := scanner.Run(ctx)
		if err != nil {
			logger.Warn("anomaly scan failed, report left stale", "err", err)
			return nil
		}
		if err := pub.Anomalies(ctx, recs); err != nil {
			logger.Warn("anomaly publish failed", "err", err)
		}
		return nil
	}
}

// AlarmCycle merges the alarm ledger and publishes the alarms this cycle
// added. Publish failures do not fail the cycle.
func AlarmCycle(eng *merge.AlarmEngine, pub *publish.Publisher, logger *slog.Logger) CycleFunc {
	return func(ctx context.Context) error {
		res, err := eng.RunCycle(ctx)
		if err != nil {
			return err
		}
		if err := pub.Alarms(ctx, res.AddedAlarms); err != nil {
			logger.Warn("alarm publish failed", "err", err)
		}
		return nil
	}
}

// StationCycle rewrites the station ledger.
func StationCycle(eng *merge.StationEngine) CycleFunc {
	return func(ctx context.Context) error {
		_, err := eng.RunCycle(ctx)
		return err
	}
}
