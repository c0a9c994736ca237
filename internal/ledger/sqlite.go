package ledger

import (
	"context"
	"database/sql"
	"strings"

	_ "modernc.org/sqlite"
)

type sqliteStore struct {
	dbStore
}

func NewSQLite(dsn string) (Store, error) {
	if strings.TrimSpace(dsn) == "" {
		dsn = "file:cpsync.db?_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	s := &sqliteStore{dbStore{db: db, bind: passthrough}}
	if err := s.init(context.Background(), sqliteSchema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		credential_id TEXT NOT NULL,
		station_id TEXT NOT NULL,
		port_no REAL NOT NULL,
		start_ts TEXT NOT NULL,
		end_ts TEXT NOT NULL,
		start_dt TEXT NOT NULL,
		end_dt TEXT NOT NULL,
		energy REAL NOT NULL,
		total_charging_duration TEXT NOT NULL,
		total_session_duration TEXT NOT NULL,
		address TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_session_id ON sessions(session_id)`,
	`CREATE TABLE IF NOT EXISTS alarms (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		station_id TEXT NOT NULL,
		station_name TEXT NOT NULL,
		model TEXT NOT NULL,
		org_id TEXT NOT NULL,
		port_no REAL NOT NULL,
		alarm_type TEXT NOT NULL,
		alarm_ts INTEGER NOT NULL,
		alarm_dt TEXT NOT NULL,
		session_id TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_alarms_ts ON alarms(alarm_ts)`,
	`CREATE TABLE IF NOT EXISTS stations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
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
		voltage REAL NOT NULL,
		current REAL NOT NULL,
		power REAL NOT NULL,
		estimated_cost REAL NOT NULL,
		location_lat REAL NOT NULL,
		location_long REAL NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS anomalies (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		anomaly_description TEXT NOT NULL,
		value TEXT NOT NULL,
		unit TEXT NOT NULL
	)`,
}
