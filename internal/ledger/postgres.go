package ledger

import (
	"context"
	"database/sql"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type postgresStore struct {
	dbStore
}

func NewPostgres(dsn string) (Store, error) {
	if strings.TrimSpace(dsn) == "" {
		dsn = "postgres://localhost:5432/cpsync?sslmode=disable"
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	s := &postgresStore{dbStore{db: db, bind: rebindPositional}}
	if err := s.init(context.Background(), postgresSchema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS sessions (
		id BIGSERIAL PRIMARY KEY,
		session_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		credential_id TEXT NOT NULL,
		station_id TEXT NOT NULL,
		port_no REAL NOT NULL,
		start_ts TEXT NOT NULL,
		end_ts TEXT NOT NULL,
		start_dt TEXT NOT NULL,
		end_dt TEXT NOT NULL,
		energy DOUBLE PRECISION NOT NULL,
		total_charging_duration TEXT NOT NULL,
		total_session_duration TEXT NOT NULL,
		address TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_session_id ON sessions(session_id)`,
	`CREATE TABLE IF NOT EXISTS alarms (
		id BIGSERIAL PRIMARY KEY,
		station_id TEXT NOT NULL,
		station_name TEXT NOT NULL,
		model TEXT NOT NULL,
		org_id TEXT NOT NULL,
		port_no REAL NOT NULL,
		alarm_type TEXT NOT NULL,
		alarm_ts BIGINT NOT NULL,
		alarm_dt TEXT NOT NULL,
		session_id TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_alarms_ts ON alarms(alarm_ts)`,
	`CREATE TABLE IF NOT EXISTS stations (
		id BIGSERIAL PRIMARY KEY,
		station_id TEXT NOT NULL,
		org_id TEXT NOT NULL,
		station_group TEXT NOT NULL,
		model TEXT NOT NULL,
		activation_dt TEXT NOT NULL,
		timezone_offset TEXT NOT NULL,
		address TEXT NOT NULL,
		manufacturer TEXT NOT NULL,
		station_name TEXT NOT NULL,
		description TEXT NOT NULL,
		port_no REAL NOT NULL,
		reservable TEXT NOT NULL,
		status TEXT NOT NULL,
		level TEXT NOT NULL,
		time_stamp TEXT NOT NULL,
		mode TEXT NOT NULL,
		connector TEXT NOT NULL,
		voltage DOUBLE PRECISION NOT NULL,
		current DOUBLE PRECISION NOT NULL,
		power DOUBLE PRECISION NOT NULL,
		estimated_cost DOUBLE PRECISION NOT NULL,
		location_lat DOUBLE PRECISION NOT NULL,
		location_long DOUBLE PRECISION NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS anomalies (
		id BIGSERIAL PRIMARY KEY,
		session_id TEXT NOT NULL,
		anomaly_description TEXT NOT NULL,
		value TEXT NOT NULL,
		unit TEXT NOT NULL
	)`,
}
