package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/slok/apkjob/internal/model"
)

func TestJobStatus(t *testing.T) {
	tests := map[string]struct {
		status      model.JobStatus
		expProgress int
		expMsg      string
		expOutput   string
		expTerminal bool
	}{
		"A status without message nor output should use the defaults.": {
			status:      model.JobStatus{Status: model.JobStatusProcessing, Progress: 40},
			expProgress: 40,
			expMsg:      "Processing...",
			expOutput:   "modified.apk",
		},
		"A completed status should be terminal.": {
			status:      model.JobStatus{Status: model.JobStatusCompleted, Progress: 100, Message: "Done", OutputFilename: "b.apk"},
			expProgress: 100,
			expMsg:      "Done",
			expOutput:   "b.apk",
			expTerminal: true,
		},
		"A failed status should be terminal.": {
			status:      model.JobStatus{Status: model.JobStatusFailed, Message: "bad lib"},
			expMsg:      "bad lib",
			expOutput:   "modified.apk",
			expTerminal: true,
		},
		"An unknown status should not be terminal.": {
			status:    model.JobStatus{Status: "weird"},
			expMsg:    "Processing...",
			expOutput: "modified.apk",
		},
		"Progress over 100 should be clamped.": {
			status:      model.JobStatus{Progress: 150},
			expProgress: 100,
			expMsg:      "Processing...",
			expOutput:   "modified.apk",
		},
		"Negative progress should be clamped.": {
			status:      model.JobStatus{Progress: -3},
			expProgress: 0,
			expMsg:      "Processing...",
			expOutput:   "modified.apk",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.expProgress, test.status.ProgressPercent())
			assert.Equal(t, test.expMsg, test.status.DisplayMessage())
			assert.Equal(t, test.expOutput, test.status.DisplayOutputFilename())
			assert.Equal(t, test.expTerminal, test.status.Status.IsTerminal())
		})
	}
}

func TestJobRecordApplyStatus(t *testing.T) {
	t0 := time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC)
	rec := model.JobRecord{JobID: "J1", Status: model.JobStatusQueued, OutputFilename: "old.apk", SubmittedAt: t0, UpdatedAt: t0}

	rec.ApplyStatus(model.JobStatus{Status: model.JobStatusProcessing, Message: "Injecting"}, t0.Add(time.Second))
	assert.Equal(t, model.JobStatusProcessing, rec.Status)
	assert.Equal(t, "Injecting", rec.Message)
	assert.Equal(t, "old.apk", rec.OutputFilename)
	assert.Equal(t, t0.Add(time.Second), rec.UpdatedAt)

	rec.ApplyStatus(model.JobStatus{Status: model.JobStatusCompleted, OutputFilename: "b.apk", UploadURL: "https://x/b"}, t0.Add(2*time.Second))
	assert.Equal(t, model.JobStatusCompleted, rec.Status)
	assert.Empty(t, rec.Message)
	assert.Equal(t, "b.apk", rec.OutputFilename)
	assert.Equal(t, "https://x/b", rec.UploadURL)
	assert.Equal(t, t0, rec.SubmittedAt)
}

func TestModeDisplay(t *testing.T) {
	assert.Equal(t, "STANDARD", model.ModeDisplay("standard"))
	assert.Equal(t, "", model.ModeDisplay(""))
}
