package chargepoint

import (
	"context"
	"time"
)

// recordLimit is the documented per-page maximum of the remote listing
// calls. The page cursor starts at record 1 and advances by this amount.
const recordLimit = 100

// Fetcher drives cursor-based retrieval of one entity type until the server
// reports no more pages. It performs no retries; transport errors surface to
// the caller untouched.
type Fetcher struct {
	transport Transport
}

func NewFetcher(t Transport) *Fetcher {
	return &Fetcher{transport: t}
}

// Sessions accumulates every session in [from, to). A zero to queries an
// open-ended range. An empty result is not an error.
func (f *Fetcher) Sessions(ctx context.Context, from, to time.Time) ([]RawSession, error) {
	var out []RawSession
	start := 1
	for {
		page, err := f.transport.GetChargingSessionData(ctx, SessionQuery{
			From:        from,
			To:          to,
			StartRecord: start,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, page.Sessions...)
		if !page.More {
			return out, nil
		}
		start += recordLimit
	}
}

// Alarms accumulates every alarm in [from, to).
func (f *Fetcher) Alarms(ctx context.Context, from, to time.Time) ([]RawAlarm, error) {
	var out []RawAlarm
	start := 1
	for {
		page, err := f.transport.GetAlarms(ctx, AlarmQuery{
			From:        from,
			To:          to,
			StartRecord: start,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, page.Alarms...)
		if !page.More {
			return out, nil
		}
		start += recordLimit
	}
}

// Stations lists every station in one shot; the station call is not
// paginated.
func (f *Fetcher) Stations(ctx context.Context, q StationQuery) ([]RawStation, error) {
	return f.transport.GetStations(ctx, q)
}
