package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldworks/sentinel/pkg/core"
)

func ducklandDef() Definition {
	return Definition{
		Name:      "duckland",
		StartFrom: "reported_date",
		Type:      "anc_visit",
		Messages: []MessageDef{
			{Group: 1, Offset: "1 week", Message: "This is for serial number {{serial_number}}."},
			{Group: 4, Offset: "81 days", Message: "This is for serial number {{serial_number}}."},
		},
	}
}

func reportedDoc(reported time.Time) *core.Document {
	return &core.Document{
		ID:           "abc",
		Type:         core.TypeDataRecord,
		Form:         "x",
		ReportedDate: &reported,
		Fields:       map[string]any{"serial_number": "abc"},
		Contact:      &core.Contact{Phone: "123"},
	}
}

func TestAssignIsIdempotentByName(t *testing.T) {
	doc := reportedDoc(time.Now())
	doc.ScheduledTasks = []*core.ScheduledTask{{Name: "duckland"}}

	added := Assign(doc, ducklandDef(), time.Now())

	assert.False(t, added)
	assert.Len(t, doc.ScheduledTasks, 1)
}

func TestAssignMatchingSentTaskCountsAsRun(t *testing.T) {
	doc := reportedDoc(time.Now())
	doc.Tasks = []*core.Task{{Name: "duckland"}}

	assert.False(t, Assign(doc, ducklandDef(), time.Now()))
	assert.Empty(t, doc.ScheduledTasks)
}

func TestAssignGeneratesTwoTasks(t *testing.T) {
	reported := time.Now().UTC()
	doc := reportedDoc(reported)

	added := Assign(doc, ducklandDef(), reported)

	assert.True(t, added)
	require.Len(t, doc.ScheduledTasks, 2)
	assert.Equal(t, reported.AddDate(0, 0, 7), doc.ScheduledTasks[0].Due)
	assert.Equal(t, reported.AddDate(0, 0, 81), doc.ScheduledTasks[1].Due)

	for _, st := range doc.ScheduledTasks {
		assert.Equal(t, "duckland", st.Name)
		assert.Equal(t, "anc_visit", st.Type)
		assert.Equal(t, core.TaskScheduled, st.State)
		require.Len(t, st.Messages, 1)
		assert.Equal(t, "This is for serial number abc.", st.Messages[0].Body)
		assert.Equal(t, "123", st.Messages[0].To)
	}
}

func TestAssignDueRespectsSendTimeZone(t *testing.T) {
	reported := time.Date(2050, 3, 13, 13, 6, 22, 2e6, time.UTC)
	doc := reportedDoc(reported)

	added := Assign(doc, Definition{
		Name:      "duckland",
		StartFrom: "reported_date",
		Messages: []MessageDef{
			{Group: 1, Offset: "1 day", SendTime: "08:00 +00:00", Message: "serial {{serial_number}}"},
		},
	}, reported)

	assert.True(t, added)
	require.Len(t, doc.ScheduledTasks, 1)
	want := time.Date(2050, 3, 14, 8, 0, 0, 0, time.UTC)
	assert.True(t, doc.ScheduledTasks[0].Due.Equal(want),
		"due %s, want %s", doc.ScheduledTasks[0].Due, want)
}

func TestAssignSendTimeNegativeOffset(t *testing.T) {
	reported := time.Date(2050, 3, 13, 1, 0, 0, 0, time.UTC)
	doc := reportedDoc(reported)

	added := Assign(doc, Definition{
		Name:      "duckland",
		StartFrom: "reported_date",
		Messages: []MessageDef{
			{Group: 1, Offset: "1 day", SendTime: "08:00 -05:00", Message: "m"},
		},
	}, reported)

	assert.True(t, added)
	require.Len(t, doc.ScheduledTasks, 1)
	// 2050-03-14T01:00Z is 2050-03-13T20:00 in -05:00, so the send day is
	// still the 13th there and 08:00 -05:00 is 13:00Z.
	want := time.Date(2050, 3, 13, 13, 0, 0, 0, time.UTC)
	assert.True(t, doc.ScheduledTasks[0].Due.Equal(want),
		"due %s, want %s", doc.ScheduledTasks[0].Due, want)
}

func TestAssignSkipsEmptyMessage(t *testing.T) {
	reported := time.Date(2050, 3, 13, 13, 6, 22, 0, time.UTC)
	doc := reportedDoc(reported)

	added := Assign(doc, Definition{
		Name:      "duckland",
		StartFrom: "reported_date",
		Messages: []MessageDef{
			{Group: 1, Offset: "1 day", SendTime: "08:00 +00:00", Message: ""},
		},
	}, reported)

	assert.False(t, added)
	assert.Empty(t, doc.ScheduledTasks)
}

func TestAssignSkipsWhitespaceOnlyMessage(t *testing.T) {
	reported := time.Date(2050, 3, 13, 13, 6, 22, 0, time.UTC)
	doc := reportedDoc(reported)

	added := Assign(doc, Definition{
		Name:      "duckland",
		StartFrom: "reported_date",
		Messages: []MessageDef{
			{Group: 1, Offset: "1 day", SendTime: "08:00 +00:00", Message: "  "},
		},
	}, reported)

	assert.False(t, added)
	assert.Empty(t, doc.ScheduledTasks)
}

func TestAssignDropsPastDueEntries(t *testing.T) {
	at := time.Now().UTC()
	anchor := at.AddDate(0, 0, -12*7)
	doc := reportedDoc(at)
	doc.ReportedDate = nil
	doc.Fields["some_date"] = anchor

	added := Assign(doc, Definition{
		Name:      "duckland",
		StartFrom: "some_date",
		Messages: []MessageDef{
			{Group: 1, Offset: "1 week", Message: "serial {{serial_number}}"},
			{Group: 4, Offset: "20 weeks", Message: "serial {{serial_number}}"},
		},
	}, at)

	assert.True(t, added)
	require.Len(t, doc.ScheduledTasks, 1)
	assert.Equal(t, anchor.AddDate(0, 0, 20*7), doc.ScheduledTasks[0].Due)
}

func TestAssignAllPastDueStillReportsTrue(t *testing.T) {
	at := time.Now().UTC()
	anchor := at.AddDate(0, 0, -52*7)
	doc := reportedDoc(at)
	doc.ReportedDate = nil
	doc.Fields["some_date"] = anchor

	added := Assign(doc, Definition{
		Name:      "duckland",
		StartFrom: "some_date",
		Messages: []MessageDef{
			{Group: 1, Offset: "1 week", Message: "serial {{serial_number}}"},
		},
	}, at)

	// A usable slot survived the emptiness check even though it was then
	// dropped as past-due.
	assert.True(t, added)
	assert.Empty(t, doc.ScheduledTasks)
}

func TestAssignRegistrationResponseCreatesTask(t *testing.T) {
	doc := reportedDoc(time.Now())

	def := ducklandDef()
	def.RegistrationResponse = "Thanks for registering."
	added := Assign(doc, def, time.Now())

	assert.True(t, added)
	assert.NotEmpty(t, doc.ScheduledTasks)
	require.Len(t, doc.Tasks, 1)
	require.Len(t, doc.Tasks[0].Messages, 1)
	assert.Equal(t, "123", doc.Tasks[0].Messages[0].To)
	assert.Equal(t, "Thanks for registering.", doc.Tasks[0].Messages[0].Body)
}

func TestAssignNilStartSendsResponseButSkipsSchedule(t *testing.T) {
	doc := reportedDoc(time.Now())
	doc.ReportedDate = nil

	def := ducklandDef()
	def.RegistrationResponse = "Thanks for registering."
	added := Assign(doc, def, time.Now())

	assert.True(t, added)
	assert.Empty(t, doc.ScheduledTasks)
	require.Len(t, doc.Tasks, 1)
	require.Len(t, doc.Tasks[0].Messages, 1)
	assert.Equal(t, "123", doc.Tasks[0].Messages[0].To)
	assert.Equal(t, "Thanks for registering.", doc.Tasks[0].Messages[0].Body)

	// Re-delivery is caught by the duplicate guard via the named task.
	assert.False(t, Assign(doc, def, time.Now()))
	assert.Len(t, doc.Tasks, 1)
}

func TestAssignNilStartNoResponseReportsFalse(t *testing.T) {
	doc := reportedDoc(time.Now())
	doc.ReportedDate = nil

	assert.False(t, Assign(doc, ducklandDef(), time.Now()))
	assert.Empty(t, doc.ScheduledTasks)
	assert.Empty(t, doc.Tasks)
}
