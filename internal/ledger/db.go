package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"cpsync/internal/model"
)

// dbStore backs the ledgers with a relational database. Every Replace runs
// as one transaction (delete + insert), which gives the same snapshot
// semantics as the CSV rename. Row order is preserved through the id column.
type dbStore struct {
	db   *sql.DB
	bind func(string) string
}

// rebindPositional converts ?-style placeholders to $1..$n for drivers that
// need them.
func rebindPositional(query string) string {
	var b strings.Builder
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

func passthrough(query string) string { return query }

func (s *dbStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *dbStore) init(ctx context.Context, stmts []string) error {
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *dbStore) LoadSessions(ctx context.Context) ([]model.SessionRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, user_id, credential_id, station_id, port_no,
			start_ts, end_ts, start_dt, end_dt,
			energy, total_charging_duration, total_session_duration, address
		FROM sessions ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.SessionRecord
	for rows.Next() {
		var r model.SessionRecord
		if err := rows.Scan(&r.SessionID, &r.UserID, &r.CredentialID, &r.StationID, &r.PortNo,
			&r.StartTS, &r.EndTS, &r.StartDT, &r.EndDT,
			&r.Energy, &r.TotalChargingDuration, &r.TotalSessionDuration, &r.Address); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *dbStore) ReplaceSessions(ctx context.Context, recs []model.SessionRecord) error {
	return s.replace(ctx, "sessions",
		`INSERT INTO sessions (session_id, user_id, credential_id, station_id, port_no,
			start_ts, end_ts, start_dt, end_dt,
			energy, total_charging_duration, total_session_duration, address)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		len(recs), func(i int) []any {
			r := recs[i]
			return []any{r.SessionID, r.UserID, r.CredentialID, r.StationID, r.PortNo,
				r.StartTS, r.EndTS, r.StartDT, r.EndDT,
				r.Energy, r.TotalChargingDuration, r.TotalSessionDuration, r.Address}
		})
}

func (s *dbStore) LoadAlarms(ctx context.Context) ([]model.AlarmRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT station_id, station_name, model, org_id, port_no,
			alarm_type, alarm_ts, alarm_dt, session_id
		FROM alarms ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.AlarmRecord
	for rows.Next() {
		var r model.AlarmRecord
		if err := rows.Scan(&r.StationID, &r.StationName, &r.Model, &r.OrgID, &r.PortNo,
			&r.AlarmType, &r.AlarmTS, &r.AlarmDT, &r.SessionID); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *dbStore) ReplaceAlarms(ctx context.Context, recs []model.AlarmRecord) error {
	return s.replace(ctx, "alarms",
		`INSERT INTO alarms (station_id, station_name, model, org_id, port_no,
			alarm_type, alarm_ts, alarm_dt, session_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		len(recs), func(i int) []any {
			r := recs[i]
			return []any{r.StationID, r.StationName, r.Model, r.OrgID, r.PortNo,
				r.AlarmType, r.AlarmTS, r.AlarmDT, r.SessionID}
		})
}

func (s *dbStore) ReplaceStations(ctx context.Context, recs []model.StationRow) error {
	return s.replace(ctx, "stations",
		`INSERT INTO stations (station_id, org_id, station_group, model, activation_dt,
			timezone_offset, address, manufacturer, station_name, description,
			port_no, reservable, status, level, time_stamp, mode,
			connector, voltage, current, power, estimated_cost, location_lat, location_long)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		len(recs), func(i int) []any {
			r := recs[i]
			return []any{r.StationID, r.OrgID, r.StationGroup, r.Model, r.ActivationDT,
				r.TimezoneOffset, r.Address, r.Manufacturer, r.StationName, r.Description,
				r.PortNo, r.Reservable, r.Status, r.Level, r.TimeStamp, r.Mode,
				r.Connector, r.Voltage, r.Current, r.Power, r.EstimatedCost,
				r.LocationLat, r.LocationLong}
		})
}

func (s *dbStore) ReplaceAnomalies(ctx context.Context, recs []model.AnomalyRecord) error {
	return s.replace(ctx, "anomalies",
		`INSERT INTO anomalies (session_id, anomaly_description, value, unit)
		VALUES (?, ?, ?, ?)`,
		len(recs), func(i int) []any {
			r := recs[i]
			return []any{r.SessionID, r.Description, r.Value, r.Unit}
		})
}

func (s *dbStore) replace(ctx context.Context, table, insert string, n int, args func(int) []any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		_ = tx.Rollback()
		return err
	}
	stmt, err := tx.PrepareContext(ctx, s.bind(insert))
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()
	for i := 0; i < n; i++ {
		if _, err := stmt.ExecContext(ctx, args(i)...); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}
