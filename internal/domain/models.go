// Package domain defines the persistence models and wire types of the check
// daemon. RegisteredEvent and IssuedCheck are mapped with GORM and make up the
// local durable store; the remaining types describe the JSON message protocol
// spoken between clients and the background worker.
package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Timing constants that are part of the observable contract.
const (
	// TickInterval is how often the scheduler scans registered events.
	TickInterval = 60 * time.Second
	// CheckInterval is the spacing between consecutive checks of one event.
	CheckInterval = 30 * time.Minute
	// CheckExpiry bounds how late a check may still fire, and how long an
	// uncompleted check survives before the reaper removes it.
	CheckExpiry = 30 * time.Minute
)

// RegisteredEvent is a snapshot of one scheduled event that is eligible for
// check generation. Only events carrying a recording resource are stored.
//
// Fields:
//   - EventID: key taken from the source event.
//   - StartTime / EndTime: wall-clock time of day ("09:00" or "09:00:00").
//   - Date: calendar date ("2025-05-08").
//   - RegisteredAt: when the registration that produced this row ran.
type RegisteredEvent struct {
	EventID        string    `json:"eventId"        gorm:"type:varchar(64);primaryKey"`
	EventName      string    `json:"eventName"      gorm:"type:varchar(255);not null"`
	StartTime      string    `json:"startTime"      gorm:"type:varchar(16);not null"`
	EndTime        string    `json:"endTime"        gorm:"type:varchar(16);not null"`
	Date           string    `json:"date"           gorm:"type:varchar(32);not null"`
	RoomName       string    `json:"roomName"       gorm:"type:varchar(255)"`
	InstructorName string    `json:"instructorName" gorm:"type:varchar(255)"`
	RegisteredAt   time.Time `json:"registeredAt"`
}

// TableName returns the database table name for RegisteredEvent.
func (RegisteredEvent) TableName() string { return "registered_events" }

// UnmarshalJSON accepts eventId as either a JSON string or a number, since
// clients forward ids straight from the event source.
func (e *RegisteredEvent) UnmarshalJSON(b []byte) error {
	type alias RegisteredEvent
	aux := struct {
		EventID FlexibleID `json:"eventId"`
		*alias
	}{alias: (*alias)(e)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	e.EventID = string(aux.EventID)
	return nil
}

// IssuedCheck is one due reminder for one event. Its ID is derived from
// (EventID, CheckNumber) so at most one row can exist per slot.
//
// Completed checks are kept for audit until an explicit clear; uncompleted
// ones are reaped once older than CheckExpiry. SyncedAt records when a
// completion was pushed to the outward sync transport.
type IssuedCheck struct {
	ID          string     `json:"id"          gorm:"type:varchar(96);primaryKey"`
	EventID     string     `json:"eventId"     gorm:"type:varchar(64);not null;index"`
	EventName   string     `json:"eventName"   gorm:"type:varchar(255);not null"`
	CheckNumber int        `json:"checkNumber" gorm:"not null"`
	CreatedAt   time.Time  `json:"createdAt"   gorm:"index:idx_checks_stale,priority:2"`
	Completed   bool       `json:"completed"   gorm:"not null;default:false;index:idx_checks_stale,priority:1"`
	CompletedAt *time.Time `json:"completedAt"`
	SyncedAt    *time.Time `json:"-"           gorm:"index"`
}

// TableName returns the database table name for IssuedCheck.
func (IssuedCheck) TableName() string { return "issued_checks" }

// CheckID derives the deterministic id of the check numbered checkNumber
// within eventID.
func CheckID(eventID string, checkNumber int) string {
	return fmt.Sprintf("%s-check-%d", eventID, checkNumber)
}

// NewCheck builds the uncompleted check record for one slot of ev.
func NewCheck(ev RegisteredEvent, checkNumber int, now time.Time) IssuedCheck {
	return IssuedCheck{
		ID:          CheckID(ev.EventID, checkNumber),
		EventID:     ev.EventID,
		EventName:   ev.EventName,
		CheckNumber: checkNumber,
		CreatedAt:   now.UTC(),
	}
}

// FlexibleID is an identifier that may arrive as a JSON number or string.
type FlexibleID string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexibleID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	if i, err := n.Int64(); err == nil {
		*f = FlexibleID(strconv.FormatInt(i, 10))
		return nil
	}
	*f = FlexibleID(n.String())
	return nil
}

// SourceEvent is an event as delivered by the external schedule store. Only
// the fields needed for check generation are decoded.
//
// Resources holds either a JSON array of {itemName} objects or a JSON string
// that itself encodes such an array.
type SourceEvent struct {
	ID             FlexibleID      `json:"id"`
	EventName      string          `json:"event_name"`
	StartTime      string          `json:"start_time"`
	EndTime        string          `json:"end_time"`
	Date           string          `json:"date"`
	RoomName       string          `json:"room_name"`
	InstructorName string          `json:"instructor_name"`
	Resources      json.RawMessage `json:"resources,omitempty"`
}

// Resource is one resource attached to a source event.
type Resource struct {
	ItemName string `json:"itemName"`
}

// ToRegistered snapshots the source event for storage.
func (s SourceEvent) ToRegistered(now time.Time) RegisteredEvent {
	return RegisteredEvent{
		EventID:        string(s.ID),
		EventName:      s.EventName,
		StartTime:      s.StartTime,
		EndTime:        s.EndTime,
		Date:           s.Date,
		RoomName:       s.RoomName,
		InstructorName: s.InstructorName,
		RegisteredAt:   now.UTC(),
	}
}
