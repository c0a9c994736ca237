package ledger

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"cpsync/internal/config"
	"cpsync/internal/model"
)

// Store persists the per-entity ledgers. Replace methods install a complete
// new snapshot atomically: a concurrent reader observes either the previous
// ledger or the new one, never a partial write. That contract is the only
// synchronization between the sync loops.
type Store interface {
	LoadSessions(ctx context.Context) ([]model.SessionRecord, error)
	ReplaceSessions(ctx context.Context, rows []model.SessionRecord) error
	LoadAlarms(ctx context.Context) ([]model.AlarmRecord, error)
	ReplaceAlarms(ctx context.Context, rows []model.AlarmRecord) error
	ReplaceStations(ctx context.Context, rows []model.StationRow) error
	ReplaceAnomalies(ctx context.Context, rows []model.AnomalyRecord) error
	Close() error
}

// NewStore builds the configured ledger backend.
func NewStore(cfg *config.Config) (Store, error) {
	switch strings.ToLower(cfg.Storage.Driver) {
	case "csv":
		return NewCSV(cfg.Sessions.DataPath, cfg.Stations.DataPath, cfg.Alarms.DataPath, cfg.Anomalies.DataPath), nil
	case "sqlite":
		return NewSQLite(cfg.Storage.DSN)
	case "postgres", "postgresql":
		return NewPostgres(cfg.Storage.DSN)
	default:
		return nil, errors.New("unsupported storage driver")
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatPort(v float32) string {
	return strconv.FormatFloat(float64(v), 'g', -1, 32)
}

func parseFloat(s string) (float64, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func parseInt(s string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
}

func parsePort(s string) (float32, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 32)
	return float32(v), err
}
