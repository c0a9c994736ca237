package chargepoint

import (
	"context"
	"time"
)

// RawSession is one charging session as returned by the remote API, before
// normalization.
type RawSession struct {
	SessionID             string
	UserID                string
	CredentialID          string
	StationID             string
	PortNumber            float64
	StartTime             time.Time
	EndTime               time.Time
	Energy                float64
	TotalChargingDuration string
	TotalSessionDuration  string
	Address               string
}

// RawAlarm is one alarm event as returned by the remote API.
type RawAlarm struct {
	StationID    string
	StationName  string
	StationModel string
	OrgID        string
	PortNumber   float64
	AlarmType    string
	AlarmTime    time.Time
}

// RawPort is one physical port descriptor nested inside a station record.
// Connectors is carried for completeness but dropped during flattening.
type RawPort struct {
	PortNumber    float64
	Reservable    string
	Status        string
	Level         string
	TimeStamp     string
	Mode          string
	Connector     string
	Voltage       float64
	Current       float64
	Power         float64
	EstimatedCost float64
	Lat           float64
	Long          float64
	Connectors    []string
}

// RawStation is one station as returned by the remote API. Ports carries the
// per-port descriptors that get expanded into one ledger row each.
type RawStation struct {
	StationID      string
	OrgID          string
	StationGroups  []string
	Model          string
	ActivationDate time.Time
	TimezoneOffset string
	Address        string
	Manufacturer   string
	Name           string
	Description    string
	Ports          []RawPort
}

// SessionQuery selects one page of charging sessions. A zero To leaves the
// range open-ended on the right.
type SessionQuery struct {
	From        time.Time
	To          time.Time
	StartRecord int
}

// AlarmQuery selects one page of alarms within a closed time range.
type AlarmQuery struct {
	From        time.Time
	To          time.Time
	StartRecord int
}

// StationQuery filters the single-shot station listing. Empty means all
// stations visible to the credential.
type StationQuery struct {
	OrgID     string
	StationID string
}

// SessionPage is one page of session results. More mirrors the server's
// continuation flag.
type SessionPage struct {
	Sessions []RawSession
	More     bool
}

// AlarmPage is one page of alarm results.
type AlarmPage struct {
	Alarms []RawAlarm
	More   bool
}

// Transport is the remote API capability. Implementations handle wire
// format and authentication only; pagination is driven by the Fetcher and
// retries by the worker supervisor.
type Transport interface {
	GetChargingSessionData(ctx context.Context, q SessionQuery) (SessionPage, error)
	GetAlarms(ctx context.Context, q AlarmQuery) (AlarmPage, error)
	GetStations(ctx context.Context, q StationQuery) ([]RawStation, error)
}
