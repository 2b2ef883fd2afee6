package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Operation is the kind of row change an event reports.
type Operation string

const (
	OpInsert Operation = "INSERT"
	OpUpdate Operation = "UPDATE"
	OpDelete Operation = "DELETE"
)

// Watched tables.
const (
	TableAvailability = "teacher_availability"
	TableEnrollments  = "course_enrollments"
)

// Event is one change notification for a teacher-scoped row.
type Event struct {
	ID         string          `json:"id"`
	Table      string          `json:"table"`
	Type       Operation       `json:"type"`
	TeacherID  string          `json:"teacher_id"`
	RecordID   string          `json:"record_id,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// NewEvent stamps a fresh id and time and encodes payload when non-nil.
func NewEvent(table string, op Operation, teacherID, recordID string, payload interface{}) (Event, error) {
	e := Event{
		ID:         uuid.NewString(),
		Table:      table,
		Type:       op,
		TeacherID:  teacherID,
		RecordID:   recordID,
		OccurredAt: time.Now().UTC(),
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return Event{}, fmt.Errorf("encode event payload: %w", err)
		}
		e.Payload = raw
	}
	return e, nil
}

// Topic is the bus topic the event belongs to.
func (e Event) Topic() string {
	return Topic(e.Table, e.TeacherID)
}

// Topic builds "<table>:<teacherId>".
func Topic(table, teacherID string) string {
	return table + ":" + teacherID
}

// SplitTopic is the inverse of Topic.
func SplitTopic(topic string) (table, teacherID string, ok bool) {
	return strings.Cut(topic, ":")
}

// Handler receives delivered events. It runs on the transport's delivery goroutine.
type Handler func(Event)

// Unsubscribe detaches a handler. Calling it more than once is safe.
type Unsubscribe func()

// Bus is a topic-based publish/subscribe transport.
type Bus interface {
	Subscribe(topic string, handler Handler) (Unsubscribe, error)
	Publish(ctx context.Context, topic string, event Event) error
	Close() error
}

// envelope is the wire form shared by the networked transports.
type envelope struct {
	Topic string `json:"topic"`
	Event Event  `json:"event"`
}

func encode(topic string, e Event) ([]byte, error) {
	raw, err := json.Marshal(envelope{Topic: topic, Event: e})
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}
	return raw, nil
}

func decode(raw []byte) (envelope, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return envelope{}, fmt.Errorf("decode event: %w", err)
	}
	if env.Topic == "" {
		env.Topic = env.Event.Topic()
	}
	return env, nil
}
