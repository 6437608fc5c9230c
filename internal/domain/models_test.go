package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newDomainDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:domain_models?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestTableNames(t *testing.T) {
	if (RegisteredEvent{}).TableName() != "registered_events" {
		t.Fatalf("RegisteredEvent.TableName() = %q", (RegisteredEvent{}).TableName())
	}
	if (IssuedCheck{}).TableName() != "issued_checks" {
		t.Fatalf("IssuedCheck.TableName() = %q", (IssuedCheck{}).TableName())
	}
}

func TestMigrations_KeysAndIndexes(t *testing.T) {
	db := newDomainDB(t)
	if err := db.AutoMigrate(&RegisteredEvent{}, &IssuedCheck{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	m := db.Migrator()
	if !m.HasIndex(&IssuedCheck{}, "idx_checks_stale") {
		t.Fatalf("missing stale-check index")
	}

	now := time.Date(2025, 5, 8, 9, 31, 0, 0, time.UTC)
	c := NewCheck(RegisteredEvent{EventID: "7", EventName: "Lecture"}, 1, now)
	if err := db.Create(&c).Error; err != nil {
		t.Fatalf("create: %v", err)
	}
	dup := NewCheck(RegisteredEvent{EventID: "7", EventName: "Lecture"}, 1, now.Add(time.Minute))
	if err := db.Create(&dup).Error; err == nil {
		t.Fatalf("duplicate slot must violate the primary key")
	}
}

func TestFlexibleID(t *testing.T) {
	cases := []struct {
		in      string
		want    FlexibleID
		wantErr bool
	}{
		{`"abc-1"`, "abc-1", false},
		{`12345`, "12345", false},
		{`1.5`, "1.5", false},
		{`null`, "", false},
		{`true`, "", true},
		{`{}`, "", true},
	}
	for _, tc := range cases {
		var got FlexibleID
		err := json.Unmarshal([]byte(tc.in), &got)
		if (err != nil) != tc.wantErr {
			t.Fatalf("%s: err=%v wantErr=%v", tc.in, err, tc.wantErr)
		}
		if !tc.wantErr && got != tc.want {
			t.Fatalf("%s: got %q want %q", tc.in, got, tc.want)
		}
	}
}

func TestRegisteredEvent_UnmarshalNumericID(t *testing.T) {
	var ev RegisteredEvent
	in := `{"eventId":42,"eventName":"Seminar","startTime":"13:00","endTime":"14:00","date":"2025-05-08"}`
	if err := json.Unmarshal([]byte(in), &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ev.EventID != "42" || ev.EventName != "Seminar" || ev.StartTime != "13:00" {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestSourceEvent_ToRegistered(t *testing.T) {
	var src SourceEvent
	in := `{"id":9,"event_name":"Lab","start_time":"09:00","end_time":"10:00","date":"2025-05-08",` +
		`"room_name":"B12","instructor_name":"Dr. Lee","resources":[{"itemName":"Video Recording"}]}`
	if err := json.Unmarshal([]byte(in), &src); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	local := time.Date(2025, 5, 8, 11, 0, 0, 0, time.FixedZone("CEST", 2*3600))
	ev := src.ToRegistered(local)
	if ev.EventID != "9" || ev.RoomName != "B12" || ev.InstructorName != "Dr. Lee" {
		t.Fatalf("unexpected snapshot: %+v", ev)
	}
	if ev.RegisteredAt.Location() != time.UTC || !ev.RegisteredAt.Equal(local) {
		t.Fatalf("RegisteredAt = %v", ev.RegisteredAt)
	}
}

func TestCheckIDAndNewCheck(t *testing.T) {
	if got := CheckID("12345", 3); got != "12345-check-3" {
		t.Fatalf("CheckID = %q", got)
	}
	now := time.Date(2025, 5, 8, 10, 0, 0, 0, time.FixedZone("X", -5*3600))
	c := NewCheck(RegisteredEvent{EventID: "12345", EventName: "Lecture"}, 2, now)
	if c.ID != "12345-check-2" || c.EventID != "12345" || c.CheckNumber != 2 || c.EventName != "Lecture" {
		t.Fatalf("unexpected check: %+v", c)
	}
	if c.Completed || c.CompletedAt != nil || c.SyncedAt != nil {
		t.Fatalf("new check must be open: %+v", c)
	}
	if c.CreatedAt.Location() != time.UTC {
		t.Fatalf("CreatedAt not UTC: %v", c.CreatedAt)
	}
}

func TestOutbound_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(Outbound{Type: MsgChecksUpdated})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), `"checks":[]`) {
		t.Fatalf("updated message must carry an array: %s", b)
	}

	b, err = json.Marshal(Outbound{Type: MsgShowNotification, Notification: &Notification{Title: "t"}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(b), `"checks"`) {
		t.Fatalf("checks must be omitted: %s", b)
	}

	c := NewCheck(RegisteredEvent{EventID: "1"}, 1, time.Unix(0, 0))
	b, _ = json.Marshal(Outbound{Type: MsgChecksUpdated, Checks: []IssuedCheck{c}})
	if strings.Count(string(b), `"checks"`) != 1 || !strings.Contains(string(b), `"1-check-1"`) {
		t.Fatalf("unexpected payload: %s", b)
	}
	if strings.Contains(string(b), "SyncedAt") || strings.Contains(string(b), "syncedAt") {
		t.Fatalf("sync marker leaked: %s", b)
	}
}
