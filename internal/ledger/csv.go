package ledger

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"cpsync/internal/model"
)

var sessionHeader = []string{
	"session_id", "user_id", "credential_id", "station_id", "port_no",
	"start_ts", "end_ts", "start_dt", "end_dt",
	"energy", "total_charging_duration", "total_session_duration", "address",
}

var alarmHeader = []string{
	"station_id", "station_name", "model", "org_id", "port_no",
	"alarm_type", "alarm_ts", "alarm_dt", "session_id",
}

var stationHeader = []string{
	"station_id", "org_id", "station_group", "model", "activation_dt",
	"timezone_offset", "address", "manufacturer", "station_name", "description",
	"port_no", "reservable", "status", "level", "time_stamp", "mode",
	"connector", "voltage", "current", "power", "estimated_cost",
	"location_lat", "location_long",
}

var anomalyHeader = []string{"session_id", "anomaly_description", "value", "unit"}

// csvStore keeps each ledger in one CSV file. Replacement writes a temp file
// in the target directory and renames it into place, so the alarm loop can
// read the session ledger while the session loop rewrites it.
type csvStore struct {
	sessionsPath  string
	stationsPath  string
	alarmsPath    string
	anomaliesPath string
}

func NewCSV(sessionsPath, stationsPath, alarmsPath, anomaliesPath string) Store {
	return &csvStore{
		sessionsPath:  sessionsPath,
		stationsPath:  stationsPath,
		alarmsPath:    alarmsPath,
		anomaliesPath: anomaliesPath,
	}
}

func (s *csvStore) Close() error { return nil }

func (s *csvStore) LoadSessions(_ context.Context) ([]model.SessionRecord, error) {
	rows, err := readCSV(s.sessionsPath, len(sessionHeader))
	if err != nil || rows == nil {
		return nil, err
	}
	out := make([]model.SessionRecord, 0, len(rows))
	for i, row := range rows {
		port, err := parsePort(row[4])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: port_no: %w", s.sessionsPath, i+1, err)
		}
		energy, err := parseFloat(row[9])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: energy: %w", s.sessionsPath, i+1, err)
		}
		out = append(out, model.SessionRecord{
			SessionID:             row[0],
			UserID:                row[1],
			CredentialID:          row[2],
			StationID:             row[3],
			PortNo:                port,
			StartTS:               row[5],
			EndTS:                 row[6],
			StartDT:               row[7],
			EndDT:                 row[8],
			Energy:                energy,
			TotalChargingDuration: row[10],
			TotalSessionDuration:  row[11],
			Address:               row[12],
		})
	}
	return out, nil
}

func (s *csvStore) ReplaceSessions(_ context.Context, recs []model.SessionRecord) error {
	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, []string{
			r.SessionID, r.UserID, r.CredentialID, r.StationID, formatPort(r.PortNo),
			r.StartTS, r.EndTS, r.StartDT, r.EndDT,
			formatFloat(r.Energy), r.TotalChargingDuration, r.TotalSessionDuration, r.Address,
		})
	}
	return writeAtomic(s.sessionsPath, sessionHeader, rows)
}

func (s *csvStore) LoadAlarms(_ context.Context) ([]model.AlarmRecord, error) {
	rows, err := readCSV(s.alarmsPath, len(alarmHeader))
	if err != nil || rows == nil {
		return nil, err
	}
	out := make([]model.AlarmRecord, 0, len(rows))
	for i, row := range rows {
		port, err := parsePort(row[4])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: port_no: %w", s.alarmsPath, i+1, err)
		}
		ts, err := parseInt(row[6])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: alarm_ts: %w", s.alarmsPath, i+1, err)
		}
		out = append(out, model.AlarmRecord{
			StationID:   row[0],
			StationName: row[1],
			Model:       row[2],
			OrgID:       row[3],
			PortNo:      port,
			AlarmType:   row[5],
			AlarmTS:     ts,
			AlarmDT:     row[7],
			SessionID:   row[8],
		})
	}
	return out, nil
}

func (s *csvStore) ReplaceAlarms(_ context.Context, recs []model.AlarmRecord) error {
	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, []string{
			r.StationID, r.StationName, r.Model, r.OrgID, formatPort(r.PortNo),
			r.AlarmType, fmt.Sprintf("%d", r.AlarmTS), r.AlarmDT, r.SessionID,
		})
	}
	return writeAtomic(s.alarmsPath, alarmHeader, rows)
}

func (s *csvStore) ReplaceStations(_ context.Context, recs []model.StationRow) error {
	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, []string{
			r.StationID, r.OrgID, r.StationGroup, r.Model, r.ActivationDT,
			r.TimezoneOffset, r.Address, r.Manufacturer, r.StationName, r.Description,
			formatPort(r.PortNo), r.Reservable, r.Status, r.Level, r.TimeStamp, r.Mode,
			r.Connector, formatFloat(r.Voltage), formatFloat(r.Current), formatFloat(r.Power),
			formatFloat(r.EstimatedCost), formatFloat(r.LocationLat), formatFloat(r.LocationLong),
		})
	}
	return writeAtomic(s.stationsPath, stationHeader, rows)
}

func (s *csvStore) ReplaceAnomalies(_ context.Context, recs []model.AnomalyRecord) error {
	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, []string{r.SessionID, r.Description, r.Value, r.Unit})
	}
	return writeAtomic(s.anomaliesPath, anomalyHeader, rows)
}

// readCSV returns the data rows of path, or nil when the file does not
// exist yet (cold start).
func readCSV(path string, wantFields int) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = wantFields
	all, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all[1:], nil
}

// writeAtomic persists header+rows to path via a temp file and rename.
func writeAtomic(path string, header []string, rows [][]string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()
	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
