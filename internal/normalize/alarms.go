package normalize

import (
	"fmt"
	"sort"

	"cpsync/internal/chargepoint"
	"cpsync/internal/model"
	"cpsync/internal/privacy"
)

// Alarms converts raw alarms to ledger rows sorted ascending by alarm
// timestamp. SessionID stays empty here; correlation fills it in later.
func (n *Normalizer) Alarms(raw []chargepoint.RawAlarm) ([]model.AlarmRecord, error) {
	out := make([]model.AlarmRecord, 0, len(raw))
	for _, a := range raw {
		if a.StationID == "" {
			return nil, fmt.Errorf("alarm record without stationID")
		}
		if a.AlarmTime.IsZero() {
			return nil, fmt.Errorf("alarm on station %s: missing alarmTime", a.StationID)
		}
		out = append(out, model.AlarmRecord{
			StationID:   privacy.HashID(a.StationID),
			StationName: a.StationName,
			Model:       a.StationModel,
			OrgID:       privacy.HashID(a.OrgID),
			PortNo:      float32(a.PortNumber),
			AlarmType:   a.AlarmType,
			AlarmTS:     a.AlarmTime.Unix(),
			AlarmDT:     n.localString(a.AlarmTime),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].AlarmTS < out[j].AlarmTS })
	return out, nil
}
