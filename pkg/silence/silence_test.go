package silence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldworks/sentinel/pkg/core"
)

func remindersDoc(reported time.Time) *core.Document {
	day := func(n int) time.Time { return reported.AddDate(0, 0, n) }
	return &core.Document{
		ID:   "reg1",
		Type: core.TypeDataRecord,
		ScheduledTasks: []*core.ScheduledTask{
			{Name: "s", Group: 0, Type: "anc_visit", State: core.TaskScheduled, Due: day(-10)},
			{Name: "s", Group: 1, Type: "anc_visit", State: core.TaskScheduled, Due: day(5)},
			{Name: "s", Group: 2, Type: "anc_visit", State: core.TaskScheduled, Due: day(25)},
			{Name: "s", Group: 2, Type: "anc_visit", State: core.TaskScheduled, Due: day(30)},
			{Name: "s", Group: 1, Type: "anc_visit", State: core.TaskScheduled, Due: day(40)},
		},
	}
}

func TestWindowModeClearsWholeGroup(t *testing.T) {
	reported := time.Date(2050, 6, 1, 12, 0, 0, 0, time.UTC)
	doc := remindersDoc(reported)

	toClear := FindToClear(Options{
		Doc:        doc,
		Types:      "anc_visit",
		Reported:   reported,
		SilenceFor: "19 days",
	})

	// Day 5 is the first task inside the window and fixes group 1; the
	// group member at day 40 is swept up even though it sits outside the
	// raw window.
	require.Len(t, toClear, 2)
	assert.Equal(t, 2, Clear(toClear))

	tasks := doc.ScheduledTasks
	assert.Equal(t, core.TaskScheduled, tasks[0].State)
	assert.Equal(t, core.TaskCleared, tasks[1].State)
	assert.Equal(t, core.TaskScheduled, tasks[2].State)
	assert.Equal(t, core.TaskScheduled, tasks[3].State)
	assert.Equal(t, core.TaskCleared, tasks[4].State)
}

func TestWindowModeNoMatchClearsNothing(t *testing.T) {
	reported := time.Date(2050, 6, 1, 12, 0, 0, 0, time.UTC)
	doc := remindersDoc(reported)

	toClear := FindToClear(Options{
		Doc:        doc,
		Types:      "anc_visit",
		Reported:   reported,
		SilenceFor: "2 days",
	})

	assert.Empty(t, toClear)
	assert.Zero(t, Clear(toClear))
	for _, task := range doc.ScheduledTasks {
		assert.Equal(t, core.TaskScheduled, task.State)
	}
}

func TestCutoffModeClearsAllFutureDue(t *testing.T) {
	reported := time.Date(2050, 6, 1, 12, 0, 0, 0, time.UTC)
	doc := remindersDoc(reported)

	toClear := FindToClear(Options{
		Doc:      doc,
		Types:    "anc_visit",
		Reported: reported,
	})

	require.Len(t, toClear, 4)
	assert.Equal(t, 4, Clear(toClear))
	// Only the past-due reminder survives.
	assert.Equal(t, core.TaskScheduled, doc.ScheduledTasks[0].State)
	for _, task := range doc.ScheduledTasks[1:] {
		assert.Equal(t, core.TaskCleared, task.State)
	}
}

func TestTypeFilterIsCommaSeparated(t *testing.T) {
	reported := time.Date(2050, 6, 1, 12, 0, 0, 0, time.UTC)
	doc := remindersDoc(reported)
	doc.ScheduledTasks[1].Type = "pnc_visit"

	toClear := FindToClear(Options{
		Doc:      doc,
		Types:    "pnc_visit, other",
		Reported: reported,
	})

	require.Len(t, toClear, 1)
	assert.Equal(t, "pnc_visit", toClear[0].Type)
}

func TestClearedAndSentTasksAreNeverTouched(t *testing.T) {
	reported := time.Date(2050, 6, 1, 12, 0, 0, 0, time.UTC)
	doc := remindersDoc(reported)
	doc.ScheduledTasks[2].State = core.TaskSent
	doc.ScheduledTasks[3].State = core.TaskCleared

	toClear := FindToClear(Options{
		Doc:      doc,
		Types:    "anc_visit",
		Reported: reported,
	})

	// Sent/cleared entries are not selected in cutoff mode.
	require.Len(t, toClear, 2)
	assert.Equal(t, 2, Clear(toClear))
	assert.Equal(t, core.TaskSent, doc.ScheduledTasks[2].State)
	assert.Equal(t, core.TaskCleared, doc.ScheduledTasks[3].State)
}

func TestWindowGroupSweepSkipsNonScheduledMembers(t *testing.T) {
	reported := time.Date(2050, 6, 1, 12, 0, 0, 0, time.UTC)
	doc := remindersDoc(reported)
	// Group member outside the window already sent: selected by the group
	// sweep but left untouched by Clear.
	doc.ScheduledTasks[4].State = core.TaskSent

	toClear := FindToClear(Options{
		Doc:        doc,
		Types:      "anc_visit",
		Reported:   reported,
		SilenceFor: "19 days",
	})

	require.Len(t, toClear, 2)
	assert.Equal(t, 1, Clear(toClear))
	assert.Equal(t, core.TaskCleared, doc.ScheduledTasks[1].State)
	assert.Equal(t, core.TaskSent, doc.ScheduledTasks[4].State)
}
