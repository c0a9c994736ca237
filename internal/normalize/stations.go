package normalize

import (
	"fmt"
	"strings"

	"cpsync/internal/chargepoint"
	"cpsync/internal/model"
	"cpsync/internal/privacy"
)

// stationPorts is the number of physical ports every station record is
// expected to carry; each port becomes one ledger row.
const stationPorts = 2

// Stations expands raw station records into per-port ledger rows. Output
// order is every station's first port followed by every station's second
// port. The connector sub-list is dropped during flattening.
func (n *Normalizer) Stations(raw []chargepoint.RawStation) ([]model.StationRow, error) {
	first := make([]model.StationRow, 0, len(raw))
	second := make([]model.StationRow, 0, len(raw))
	for _, s := range raw {
		if s.StationID == "" {
			return nil, fmt.Errorf("station record without stationID")
		}
		if len(s.Ports) != stationPorts {
			return nil, fmt.Errorf("station %s: expected %d port descriptors, got %d",
				s.StationID, stationPorts, len(s.Ports))
		}
		shared := model.StationRow{
			StationID:      privacy.HashID(s.StationID),
			OrgID:          privacy.HashID(s.OrgID),
			StationGroup:   strings.Join(s.StationGroups, ";"),
			Model:          s.Model,
			ActivationDT:   n.localString(s.ActivationDate),
			TimezoneOffset: s.TimezoneOffset,
			Address:        s.Address,
			Manufacturer:   s.Manufacturer,
			StationName:    s.Name,
			Description:    s.Description,
		}
		first = append(first, portRow(shared, s.Ports[0]))
		second = append(second, portRow(shared, s.Ports[1]))
	}
	return append(first, second...), nil
}

func portRow(shared model.StationRow, p chargepoint.RawPort) model.StationRow {
	row := shared
	row.PortNo = float32(p.PortNumber)
	row.Reservable = p.Reservable
	row.Status = p.Status
	row.Level = p.Level
	row.TimeStamp = p.TimeStamp
	row.Mode = p.Mode
	row.Connector = p.Connector
	row.Voltage = p.Voltage
	row.Current = p.Current
	row.Power = p.Power
	row.EstimatedCost = p.EstimatedCost
	row.LocationLat = p.Lat
	row.LocationLong = p.Long
	return row
}
