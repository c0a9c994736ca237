package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/segmentio/kafka-go"

	"cpsync/internal/config"
	"cpsync/internal/model"
)

// Publisher pushes newly discovered alarms and the anomaly report onto a
// Kafka topic. A nil *Publisher is a valid disabled publisher; every method
// is a no-op on it.
type Publisher struct {
	writer *kafka.Writer
	logger *slog.Logger
}

func New(cfg config.PublishConfig, logger *slog.Logger) *Publisher {
	if !cfg.Enabled {
		return nil
	}
	w := &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers...),
		Topic:    cfg.Topic,
		Balancer: &kafka.LeastBytes{},
	}
	return &Publisher{writer: w, logger: logger}
}

type alarmEvent struct {
	Event       string  `json:"event"`
	StationID   string  `json:"station_id"`
	StationName string  `json:"station_name"`
	Model       string  `json:"model"`
	OrgID       string  `json:"org_id"`
	PortNo      float32 `json:"port_no"`
	AlarmType   string  `json:"alarm_type"`
	AlarmTS     int64   `json:"alarm_ts"`
	AlarmDT     string  `json:"alarm_dt"`
	SessionID   string  `json:"session_id,omitempty"`
}

type anomalyEvent struct {
	Event       string `json:"event"`
	SessionID   string `json:"session_id"`
	Description string `json:"description"`
	Value       string `json:"value"`
	Unit        string `json:"unit"`
}

// Alarms publishes one message per new alarm, keyed by alarm timestamp so
// repeats land in the same partition.
func (p *Publisher) Alarms(ctx context.Context, alarms []model.AlarmRecord) error {
	if p == nil || len(alarms) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(alarms))
	for _, a := range alarms {
		v, err := json.Marshal(alarmEvent{
			Event:       "alarm",
			StationID:   a.StationID,
			StationName: a.StationName,
			Model:       a.Model,
			OrgID:       a.OrgID,
			PortNo:      a.PortNo,
			AlarmType:   a.AlarmType,
			AlarmTS:     a.AlarmTS,
			AlarmDT:     a.AlarmDT,
			SessionID:   a.SessionID,
		})
		if err != nil {
			return fmt.Errorf("encode alarm event: %w", err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(strconv.FormatInt(a.AlarmTS, 10)),
			Value: v,
		})
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish alarms: %w", err)
	}
	p.logger.Info("alarm events published", "count", len(msgs))
	return nil
}

// Anomalies publishes the current anomaly report, keyed by session id.
func (p *Publisher) Anomalies(ctx context.Context, recs []model.AnomalyRecord) error {
	if p == nil || len(recs) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(recs))
	for _, r := range recs {
		v, err := json.Marshal(anomalyEvent{
			Event:       "anomaly",
			SessionID:   r.SessionID,
			Description: r.Description,
			Value:       r.Value,
			Unit:        r.Unit,
		})
		if err != nil {
			return fmt.Errorf("encode anomaly event: %w", err)
		}
		msgs = append(msgs, kafka.Message{Key: []byte(r.SessionID), Value: v})
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish anomalies: %w", err)
	}
	p.logger.Info("anomaly events published", "count", len(msgs))
	return nil
}

func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.writer.Close()
}
