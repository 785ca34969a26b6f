package core

import (
	"time"
)

// Known document types. Anything else is ignored by the feed worker.
const (
	TypeDataRecord   = "data_record"
	TypeClinic       = "clinic"
	TypeHealthCenter = "health_center"
	TypeDistrict     = "district"
)

// TaskState is the lifecycle state of a scheduled task. Tasks are
// state-transitioned, never deleted.
type TaskState string

const (
	TaskScheduled TaskState = "scheduled"
	TaskCleared   TaskState = "cleared"
	TaskSent      TaskState = "sent"
)

// Message is a single outbound message destined for the SMS gateway.
type Message struct {
	ID   string `json:"id"`
	To   string `json:"to"`
	Body string `json:"body"`
}

// Task is a group of messages dispatched together. Tasks in Document.Tasks
// are immediate output; deferred output lives in ScheduledTasks until due.
type Task struct {
	Name     string    `json:"name,omitempty"`
	Messages []Message `json:"messages"`
}

// ScheduledTask is a deferred, cancellable message placeholder. Name ties it
// back to the schedule definition that produced it, Group clusters tasks
// cancelled together, Due is absolute and timezone-resolved.
type ScheduledTask struct {
	Name     string    `json:"name"`
	Group    int       `json:"group"`
	Type     string    `json:"type"`
	State    TaskState `json:"state"`
	Due      time.Time `json:"due"`
	Messages []Message `json:"messages,omitempty"`
}

// TransitionRecord is the per-transition bookkeeping stamped by the pipeline
// executor. Transitions never write it themselves. LastRev is the predicted
// token of the write that carried the transition's effect; only its counter
// component is knowable at stamp time.
type TransitionRecord struct {
	LastRev Revision `json:"last_rev"`
	Seq     int64    `json:"seq"`
	OK      bool     `json:"ok"`
}

// DocError is a structured error accumulated on a document by transitions.
type DocError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Contact identifies the reporting unit that submitted a document.
type Contact struct {
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Document is the mutable business record flowing through the pipeline.
// Nested collections are serialized as JSON columns by the gorm store.
type Document struct {
	ID           string     `gorm:"primaryKey;size:64" json:"id"`
	Rev          Revision   `gorm:"size:255" json:"rev"`
	Type         string     `gorm:"index;size:32" json:"type"`
	Form         string     `gorm:"index;size:64" json:"form,omitempty"`
	From         string     `gorm:"size:32" json:"from,omitempty"`
	Locale       string     `gorm:"size:8" json:"locale,omitempty"`
	PatientID    string     `gorm:"index;size:64" json:"patient_id,omitempty"`
	PatientName  string     `gorm:"size:255" json:"patient_name,omitempty"`
	ReportedDate *time.Time `json:"reported_date,omitempty"`

	Contact        *Contact                    `gorm:"serializer:json" json:"contact,omitempty"`
	Fields         map[string]any              `gorm:"serializer:json" json:"fields,omitempty"`
	Transitions    map[string]TransitionRecord `gorm:"serializer:json" json:"transitions,omitempty"`
	ScheduledTasks []*ScheduledTask            `gorm:"serializer:json" json:"scheduled_tasks,omitempty"`
	Tasks          []*Task                     `gorm:"serializer:json" json:"tasks,omitempty"`
	Errors         []DocError                  `gorm:"serializer:json" json:"errors,omitempty"`

	// NextDue caches the earliest due of the still-scheduled tasks so the
	// dispatcher scan is a range query. Maintained on save.
	NextDue *time.Time `gorm:"index" json:"-"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"-"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"-"`
}

// KnownType reports whether the document type is one the pipeline handles.
func (d *Document) KnownType() bool {
	switch d.Type {
	case TypeDataRecord, TypeClinic, TypeHealthCenter, TypeDistrict:
		return true
	}
	return false
}

// ContactPhone returns the reporting unit phone, or "" when unknown.
func (d *Document) ContactPhone() string {
	if d.Contact == nil {
		return ""
	}
	return d.Contact.Phone
}

// StartValue resolves a named anchor timestamp. "reported_date" maps to the
// typed field; any other name is looked up in Fields and accepts time.Time,
// *time.Time or an RFC 3339 string. Missing or unparseable values return nil.
func (d *Document) StartValue(field string) *time.Time {
	if field == "reported_date" {
		return d.ReportedDate
	}
	v, ok := d.Fields[field]
	if !ok || v == nil {
		return nil
	}
	switch t := v.(type) {
	case time.Time:
		return &t
	case *time.Time:
		return t
	case string:
		parsed, err := time.Parse(time.RFC3339, t)
		if err != nil {
			return nil
		}
		return &parsed
	}
	return nil
}

// Field returns a named value from the schemaless remainder.
func (d *Document) Field(name string) (any, bool) {
	v, ok := d.Fields[name]
	return v, ok
}

// HasRun reports whether a transition has ever stamped bookkeeping here.
func (d *Document) HasRun(name string) bool {
	_, ok := d.Transitions[name]
	return ok
}

// Transition returns the bookkeeping record for a transition name.
func (d *Document) Transition(name string) (TransitionRecord, bool) {
	rec, ok := d.Transitions[name]
	return rec, ok
}

// SetTransition stamps a bookkeeping record. Only the pipeline executor
// calls this.
func (d *Document) SetTransition(name string, rec TransitionRecord) {
	if d.Transitions == nil {
		d.Transitions = make(map[string]TransitionRecord)
	}
	d.Transitions[name] = rec
}

// AddError appends a structured error entry.
func (d *Document) AddError(code, message string) {
	d.Errors = append(d.Errors, DocError{Code: code, Message: message})
}

// AddTask appends an immediate message task.
func (d *Document) AddTask(task *Task) {
	d.Tasks = append(d.Tasks, task)
}

// RefreshNextDue recomputes the dispatcher scan cache from the tasks still
// in the scheduled state.
func (d *Document) RefreshNextDue() {
	var next *time.Time
	for _, st := range d.ScheduledTasks {
		if st.State != TaskScheduled {
			continue
		}
		if next == nil || st.Due.Before(*next) {
			due := st.Due
			next = &due
		}
	}
	d.NextDue = next
}
