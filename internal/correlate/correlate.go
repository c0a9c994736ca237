package correlate

import "cpsync/internal/model"

// Attach returns a new alarm set with session_id filled in. For each alarm,
// the candidate sessions share the hashed station id and port number; the
// first one in ledger order whose interval strictly contains the alarm
// instant (start_ts < alarm_ts < end_ts) wins. No match leaves session_id
// empty. Empty inputs pass through untouched.
//
// Multiple containing sessions should not occur with correct data; ledger
// order is the documented tie-break.
func Attach(alarms []model.AlarmRecord, sessions []model.SessionRecord) []model.AlarmRecord {
	if len(alarms) == 0 || len(sessions) == 0 {
		return alarms
	}
	out := make([]model.AlarmRecord, len(alarms))
	for i, a := range alarms {
		a.SessionID = matchSession(a, sessions)
		out[i] = a
	}
	return out
}

func matchSession(a model.AlarmRecord, sessions []model.SessionRecord) string {
	for _, s := range sessions {
		if s.StationID != a.StationID || s.PortNo != a.PortNo {
			continue
		}
		start, err := s.StartUnix()
		if err != nil {
			continue
		}
		end, err := s.EndUnix()
		if err != nil {
			continue
		}
		if start < a.AlarmTS && a.AlarmTS < end {
			return s.SessionID
		}
	}
	return ""
}
