package domain

import "encoding/json"

// Inbound command types sent by clients to the worker.
const (
	MsgRegisterChecks = "REGISTER_PANOPTO_CHECKS"
	MsgClearChecks    = "CLEAR_PANOPTO_CHECKS"
	MsgCompleteCheck  = "COMPLETE_PANOPTO_CHECK"
	MsgGetChecks      = "GET_PANOPTO_CHECKS"
	MsgTestCheck      = "TEST_PANOPTO_CHECK"
)

// Outbound message types produced by the worker.
const (
	MsgChecksUpdated    = "PANOPTO_CHECKS_UPDATED"
	MsgCheckCreated     = "PANOPTO_CHECK_CREATED"
	MsgShowNotification = "SHOW_NOTIFICATION"
)

// Notification action identifiers.
const (
	ActionCompleteCheck = "complete_panopto_check"
	ActionViewChecks    = "view_panopto_checks"
)

// Command is the envelope of every client-to-worker message. Type selects
// which of the remaining fields are meaningful.
type Command struct {
	Type        string           `json:"type"`
	Events      []SourceEvent    `json:"events,omitempty"`
	CheckID     string           `json:"checkId,omitempty"`
	Event       *RegisteredEvent `json:"event,omitempty"`
	CheckNumber int              `json:"checkNumber,omitempty"`
}

// CreatedCheck is the payload of a PANOPTO_CHECK_CREATED broadcast: the
// issued check plus the room and instructor of its event.
type CreatedCheck struct {
	IssuedCheck
	RoomName       string `json:"roomName"`
	InstructorName string `json:"instructorName"`
}

// Outbound is the envelope of every worker-to-client message.
type Outbound struct {
	Type         string        `json:"type"`
	Checks       []IssuedCheck `json:"checks,omitempty"`
	Check        *CreatedCheck `json:"check,omitempty"`
	Notification *Notification `json:"notification,omitempty"`
}

// NotificationAction is a button offered on an alert.
type NotificationAction struct {
	Action string `json:"action"`
	Title  string `json:"title"`
}

// Notification is a user-visible alert. RequireInteraction means the alert
// stays until the user acts on it.
type Notification struct {
	Title              string               `json:"title"`
	Body               string               `json:"body"`
	Tag                string               `json:"tag"`
	RequireInteraction bool                 `json:"requireInteraction"`
	Actions            []NotificationAction `json:"actions"`
	CheckID            string               `json:"checkId"`
}

// MarshalJSON always emits a checks array on PANOPTO_CHECKS_UPDATED, even
// when the store is empty, and omits it elsewhere.
func (o Outbound) MarshalJSON() ([]byte, error) {
	type alias Outbound
	if o.Type != MsgChecksUpdated {
		return json.Marshal(alias(o))
	}
	checks := o.Checks
	if checks == nil {
		checks = []IssuedCheck{}
	}
	return json.Marshal(struct {
		alias
		Checks []IssuedCheck `json:"checks"`
	}{alias: alias(o), Checks: checks})
}
