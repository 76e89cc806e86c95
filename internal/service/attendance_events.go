package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/noah-isme/rollcall-api/internal/observability"
)

// AttendanceRecordedEvent is published after a roll call is committed.
type AttendanceRecordedEvent struct {
	AttendanceModeID uint      `json:"attendanceModeId"`
	ClassID          uint      `json:"classId"`
	Date             string    `json:"date"`
	Mode             string    `json:"mode"`
	Count            int       `json:"count"`
	RecordedBy       uint      `json:"recordedBy"`
	RecordedRole     string    `json:"recordedRole"`
	RecordedAt       time.Time `json:"recordedAt"`
}

// EventPublisher delivers domain events to other services.
type EventPublisher interface {
	PublishAttendanceRecorded(ctx context.Context, event AttendanceRecordedEvent) error
}

type natsPublisher struct {
	conn    *nats.Conn
	subject string
}

// NewNATSPublisher publishes events on subject.recorded over an existing connection.
func NewNATSPublisher(conn *nats.Conn, subject string) EventPublisher {
	if subject == "" {
		subject = "rollcall.attendance"
	}
	return &natsPublisher{conn: conn, subject: subject}
}

func (p *natsPublisher) PublishAttendanceRecorded(ctx context.Context, event AttendanceRecordedEvent) error {
	if p.conn == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := recordedMessage(ctx, p.subject, event)
	if err != nil {
		return err
	}
	return p.conn.PublishMsg(msg)
}

func recordedMessage(ctx context.Context, subject string, event AttendanceRecordedEvent) (*nats.Msg, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	msg := nats.NewMsg(subject + ".recorded")
	msg.Data = payload
	if id := observability.CorrelationID(ctx); id != "" {
		msg.Header.Set(observability.CorrelationHeader, id)
	}
	return msg, nil
}
