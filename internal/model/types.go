package model

import "strconv"

// Kind identifies one synchronized entity type. Each kind owns one ledger.
type Kind string

const (
	KindSession Kind = "session"
	KindStation Kind = "station"
	KindAlarm   Kind = "alarm"
)

// SessionRecord is one row of the session ledger. StartTS and EndTS hold UTC
// epoch seconds as strings, StartDT and EndDT the same instants formatted in
// the local reporting timezone. SessionID is the ledger's natural key.
type SessionRecord struct {
	SessionID             string
	UserID                string
	CredentialID          string
	StationID             string
	PortNo                float32
	StartTS               string
	EndTS                 string
	StartDT               string
	EndDT                 string
	Energy                float64
	TotalChargingDuration string
	TotalSessionDuration  string
	Address               string
}

// StartUnix returns StartTS as epoch seconds.
func (s SessionRecord) StartUnix() (int64, error) {
	return strconv.ParseInt(s.StartTS, 10, 64)
}

// EndUnix returns EndTS as epoch seconds.
func (s SessionRecord) EndUnix() (int64, error) {
	return strconv.ParseInt(s.EndTS, 10, 64)
}

// StationRow is one expanded row of the station ledger: a station with two
// physical ports produces two rows sharing every non-port field.
type StationRow struct {
	StationID      string
	OrgID          string
	StationGroup   string
	Model          string
	ActivationDT   string
	TimezoneOffset string
	Address        string
	Manufacturer   string
	StationName    string
	Description    string
	PortNo         float32
	Reservable     string
	Status         string
	Level          string
	TimeStamp      string
	Mode           string
	Connector      string
	Voltage        float64
	Current        float64
	Power          float64
	EstimatedCost  float64
	LocationLat    float64
	LocationLong   float64
}

// AlarmRecord is one row of the alarm ledger, kept sorted ascending by
// AlarmTS. SessionID is attached by correlation and stays empty when no
// session covered the alarm instant.
type AlarmRecord struct {
	StationID   string
	StationName string
	Model       string
	OrgID       string
	PortNo      float32
	AlarmType   string
	AlarmTS     int64
	AlarmDT     string
	SessionID   string
}

// AnomalyRecord is one row of the anomaly report. The report is derived from
// the session ledger and fully rewritten on every scan.
type AnomalyRecord struct {
	SessionID   string
	Description string
	Value       string
	Unit        string
}
