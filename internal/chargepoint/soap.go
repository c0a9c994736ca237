package chargepoint

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultEndpoint is the ChargePoint 5.1 web services endpoint.
const DefaultEndpoint = "https://webservices.chargepoint.com/webservices/chargepoint/services/5.1"

const soapTimeLayout = "2006-01-02T15:04:05Z07:00"

// SOAPClient implements Transport against the ChargePoint SOAP API,
// authenticating with a WSSE UsernameToken header on every call.
type SOAPClient struct {
	endpoint string
	apiKey   string
	secret   string
	hc       *http.Client
}

func NewSOAPClient(endpoint, apiKey, secret string, timeout time.Duration) *SOAPClient {
	if strings.TrimSpace(endpoint) == "" {
		endpoint = DefaultEndpoint
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &SOAPClient{
		endpoint: endpoint,
		apiKey:   apiKey,
		secret:   secret,
		hc:       &http.Client{Timeout: timeout},
	}
}

func (c *SOAPClient) GetChargingSessionData(ctx context.Context, q SessionQuery) (SessionPage, error) {
	var body bytes.Buffer
	body.WriteString("<ns1:getChargingSessionData><searchQuery>")
	writeElem(&body, "fromTimeStamp", q.From.UTC().Format(soapTimeLayout))
	if !q.To.IsZero() {
		writeElem(&body, "toTimeStamp", q.To.UTC().Format(soapTimeLayout))
	}
	writeElem(&body, "startRecord", fmt.Sprintf("%d", q.StartRecord))
	body.WriteString("</searchQuery></ns1:getChargingSessionData>")

	var resp sessionDataResponse
	if err := c.call(ctx, body.String(), &resp); err != nil {
		return SessionPage{}, err
	}
	page := SessionPage{More: resp.MoreFlag != 0}
	for _, s := range resp.Sessions {
		page.Sessions = append(page.Sessions, RawSession{
			SessionID:             s.SessionID,
			UserID:                s.UserID,
			CredentialID:          s.CredentialID,
			StationID:             s.StationID,
			PortNumber:            s.PortNumber,
			StartTime:             time.Time(s.StartTime),
			EndTime:               time.Time(s.EndTime),
			Energy:                s.Energy,
			TotalChargingDuration: s.TotalChargingDuration,
			TotalSessionDuration:  s.TotalSessionDuration,
			Address:               s.Address,
		})
	}
	return page, nil
}

func (c *SOAPClient) GetAlarms(ctx context.Context, q AlarmQuery) (AlarmPage, error) {
	var body bytes.Buffer
	body.WriteString("<ns1:getAlarms><searchQuery>")
	writeElem(&body, "startTime", q.From.UTC().Format(soapTimeLayout))
	writeElem(&body, "endTime", q.To.UTC().Format(soapTimeLayout))
	writeElem(&body, "startRecord", fmt.Sprintf("%d", q.StartRecord))
	body.WriteString("</searchQuery></ns1:getAlarms>")

	var resp alarmsResponse
	if err := c.call(ctx, body.String(), &resp); err != nil {
		return AlarmPage{}, err
	}
	page := AlarmPage{More: resp.MoreFlag != 0}
	for _, a := range resp.Alarms {
		page.Alarms = append(page.Alarms, RawAlarm{
			StationID:    a.StationID,
			StationName:  a.StationName,
			StationModel: a.StationModel,
			OrgID:        a.OrgID,
			PortNumber:   a.PortNumber,
			AlarmType:    a.AlarmType,
			AlarmTime:    time.Time(a.AlarmTime),
		})
	}
	return page, nil
}

func (c *SOAPClient) GetStations(ctx context.Context, q StationQuery) ([]RawStation, error) {
	var body bytes.Buffer
	body.WriteString("<ns1:getStations><searchQuery>")
	if q.OrgID != "" {
		writeElem(&body, "orgID", q.OrgID)
	}
	if q.StationID != "" {
		writeElem(&body, "stationID", q.StationID)
	}
	body.WriteString("</searchQuery></ns1:getStations>")

	var resp stationsResponse
	if err := c.call(ctx, body.String(), &resp); err != nil {
		return nil, err
	}
	out := make([]RawStation, 0, len(resp.Stations))
	for _, s := range resp.Stations {
		st := RawStation{
			StationID:      s.StationID,
			OrgID:          s.OrgID,
			StationGroups:  splitGroups(s.SGID),
			Model:          s.StationModel,
			ActivationDate: time.Time(s.ActivationDate),
			TimezoneOffset: s.TimezoneOffset,
			Address:        s.Address,
			Manufacturer:   s.Manufacturer,
			Name:           s.StationName,
			Description:    s.Description,
		}
		for _, p := range s.Ports {
			st.Ports = append(st.Ports, RawPort{
				PortNumber:    p.PortNumber,
				Reservable:    p.Reservable,
				Status:        p.Status,
				Level:         p.Level,
				TimeStamp:     p.TimeStamp,
				Mode:          p.Mode,
				Connector:     p.Connector,
				Voltage:       p.Voltage,
				Current:       p.Current,
				Power:         p.Power,
				EstimatedCost: p.EstimatedCost,
				Lat:           p.Lat,
				Long:          p.Long,
				Connectors:    p.Connectors,
			})
		}
		out = append(out, st)
	}
	return out, nil
}

// call posts one SOAP request and decodes the response body element into
// out. SOAP faults and non-200 statuses are returned as errors.
func (c *SOAPClient) call(ctx context.Context, bodyXML string, out any) error {
	envelope := c.envelope(bodyXML)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(envelope))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", "urn:dictionary:com.chargepoint.webservices")

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		if fault := parseFault(raw); fault != "" {
			return fmt.Errorf("soap fault: %s", fault)
		}
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, c.endpoint)
	}
	if fault := parseFault(raw); fault != "" {
		return fmt.Errorf("soap fault: %s", fault)
	}
	if err := xml.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *SOAPClient) envelope(bodyXML string) string {
	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString(`<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/" xmlns:ns1="urn:dictionary:com.chargepoint.webservices">`)
	b.WriteString(`<soapenv:Header><wsse:Security xmlns:wsse="http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-wssecurity-secext-1.0.xsd" soapenv:mustUnderstand="1">`)
	b.WriteString(`<wsse:UsernameToken><wsse:Username>`)
	xml.EscapeText(&b, []byte(c.apiKey))
	b.WriteString(`</wsse:Username><wsse:Password Type="http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-username-token-profile-1.0#PasswordText">`)
	xml.EscapeText(&b, []byte(c.secret))
	b.WriteString(`</wsse:Password></wsse:UsernameToken></wsse:Security></soapenv:Header>`)
	b.WriteString(`<soapenv:Body>`)
	b.WriteString(bodyXML)
	b.WriteString(`</soapenv:Body></soapenv:Envelope>`)
	return b.String()
}

func writeElem(w *bytes.Buffer, name, value string) {
	w.WriteString("<")
	w.WriteString(name)
	w.WriteString(">")
	_ = xml.EscapeText(w, []byte(value))
	w.WriteString("</")
	w.WriteString(name)
	w.WriteString(">")
}

func splitGroups(sgID string) []string {
	if strings.TrimSpace(sgID) == "" {
		return nil
	}
	parts := strings.Split(sgID, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}

type soapFault struct {
	XMLName xml.Name `xml:"Envelope"`
	Fault   struct {
		Code   string `xml:"faultcode"`
		String string `xml:"faultstring"`
	} `xml:"Body>Fault"`
}

func parseFault(raw []byte) string {
	var f soapFault
	if err := xml.Unmarshal(raw, &f); err != nil {
		return ""
	}
	if f.Fault.String == "" {
		return ""
	}
	return fmt.Sprintf("%s: %s", f.Fault.Code, f.Fault.String)
}

// soapTime decodes xsd:dateTime values.
type soapTime time.Time

func (t *soapTime) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var raw string
	if err := d.DecodeElement(&raw, &start); err != nil {
		return err
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		*t = soapTime(time.Time{})
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04:05.000Z07:00"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			*t = soapTime(parsed.UTC())
			return nil
		}
	}
	return fmt.Errorf("unsupported dateTime: %q", raw)
}

type sessionDataResponse struct {
	XMLName  xml.Name         `xml:"Envelope"`
	MoreFlag int              `xml:"Body>getChargingSessionDataResponse>MoreFlag"`
	Sessions []wireSessionRow `xml:"Body>getChargingSessionDataResponse>ChargingSessionData"`
}

type wireSessionRow struct {
	SessionID             string   `xml:"sessionID"`
	UserID                string   `xml:"userID"`
	CredentialID          string   `xml:"credentialID"`
	StationID             string   `xml:"stationID"`
	PortNumber            float64  `xml:"portNumber"`
	StartTime             soapTime `xml:"startTime"`
	EndTime               soapTime `xml:"endTime"`
	Energy                float64  `xml:"Energy"`
	TotalChargingDuration string   `xml:"totalChargingDuration"`
	TotalSessionDuration  string   `xml:"totalSessionDuration"`
	Address               string   `xml:"Address"`
}

type alarmsResponse struct {
	XMLName  xml.Name       `xml:"Envelope"`
	MoreFlag int            `xml:"Body>getAlarmsResponse>moreFlag"`
	Alarms   []wireAlarmRow `xml:"Body>getAlarmsResponse>Alarms"`
}

type wireAlarmRow struct {
	StationID    string   `xml:"stationID"`
	StationName  string   `xml:"stationName"`
	StationModel string   `xml:"stationModel"`
	OrgID        string   `xml:"orgID"`
	PortNumber   float64  `xml:"portNumber"`
	AlarmType    string   `xml:"alarmType"`
	AlarmTime    soapTime `xml:"alarmTime"`
}

type stationsResponse struct {
	XMLName  xml.Name         `xml:"Envelope"`
	Stations []wireStationRow `xml:"Body>getStationsResponse>stationData"`
}

type wireStationRow struct {
	StationID      string        `xml:"stationID"`
	OrgID          string        `xml:"orgID"`
	SGID           string        `xml:"sgID"`
	StationModel   string        `xml:"stationModel"`
	ActivationDate soapTime      `xml:"stationActivationDate"`
	TimezoneOffset string        `xml:"timezoneOffset"`
	Address        string        `xml:"Address"`
	Manufacturer   string        `xml:"stationManufacturer"`
	StationName    string        `xml:"stationName"`
	Description    string        `xml:"Description"`
	Ports          []wirePortRow `xml:"Port"`
}

type wirePortRow struct {
	PortNumber    float64  `xml:"portNumber"`
	Reservable    string   `xml:"reservable"`
	Status        string   `xml:"Status"`
	Level         string   `xml:"Level"`
	TimeStamp     string   `xml:"timeStamp"`
	Mode          string   `xml:"Mode"`
	Connector     string   `xml:"Connector"`
	Voltage       float64  `xml:"Voltage"`
	Current       float64  `xml:"Current"`
	Power         float64  `xml:"Power"`
	EstimatedCost float64  `xml:"estimatedCost"`
	Lat           float64  `xml:"Lat"`
	Long          float64  `xml:"Long"`
	Connectors    []string `xml:"Connectors>Connector"`
}
