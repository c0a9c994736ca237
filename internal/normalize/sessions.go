package normalize

import (
	"fmt"

	"cpsync/internal/chargepoint"
	"cpsync/internal/model"
	"cpsync/internal/privacy"
)

// Sessions converts raw charging sessions to ledger rows, preserving input
// order. User, credential and station identifiers are hashed; start and end
// instants get both an epoch-seconds column and a local-formatted column.
func (n *Normalizer) Sessions(raw []chargepoint.RawSession) ([]model.SessionRecord, error) {
	out := make([]model.SessionRecord, 0, len(raw))
	for _, s := range raw {
		if s.SessionID == "" {
			return nil, fmt.Errorf("session record without sessionID")
		}
		if s.StartTime.IsZero() || s.EndTime.IsZero() {
			return nil, fmt.Errorf("session %s: missing start or end time", s.SessionID)
		}
		if !s.StartTime.Before(s.EndTime) {
			return nil, fmt.Errorf("session %s: start %s not before end %s",
				s.SessionID, s.StartTime.UTC(), s.EndTime.UTC())
		}
		out = append(out, model.SessionRecord{
			SessionID:             s.SessionID,
			UserID:                privacy.HashID(s.UserID),
			CredentialID:          privacy.HashID(s.CredentialID),
			StationID:             privacy.HashID(s.StationID),
			PortNo:                float32(s.PortNumber),
			StartTS:               n.epochString(s.StartTime),
			EndTS:                 n.epochString(s.EndTime),
			StartDT:               n.localString(s.StartTime),
			EndDT:                 n.localString(s.EndTime),
			Energy:                s.Energy,
			TotalChargingDuration: s.TotalChargingDuration,
			TotalSessionDuration:  s.TotalSessionDuration,
			Address:               s.Address,
		})
	}
	return out, nil
}
