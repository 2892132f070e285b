package printer_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/apkjob/internal/controller"
	"github.com/slok/apkjob/internal/model"
	"github.com/slok/apkjob/internal/printer"
)

func recordsFixture() []model.JobRecord {
	at := time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC)
	return []model.JobRecord{
		{
			ID:          "01JABCDEF",
			JobID:       "J2",
			Filename:    "app.apk",
			SizeBytes:   1536,
			Mode:        "standard",
			ServerURL:   "http://127.0.0.1:5000",
			Status:      model.JobStatusCompleted,
			SubmittedAt: at,
			UpdatedAt:   at,
		},
		{
			ID:          "01JABCDEG",
			JobID:       "J1",
			Filename:    "other.apk",
			Mode:        "debug",
			Status:      model.JobStatusFailed,
			Message:     "bad lib",
			SubmittedAt: at.Add(-time.Hour),
			UpdatedAt:   at.Add(-time.Hour),
		},
	}
}

func TestTablePrinterPrintStatus(t *testing.T) {
	tests := map[string]struct {
		status    model.JobStatus
		expLines  []string
		notExpOut string
	}{
		"An in progress status should print the progress and default message.": {
			status:    model.JobStatus{Status: model.JobStatusProcessing, Progress: 40},
			expLines:  []string{"Job ID:     J1", "Status:     processing", "Progress:   40%", "Message:    Processing..."},
			notExpOut: "Output:",
		},
		"A completed status should print the output file.": {
			status:   model.JobStatus{Status: model.JobStatusCompleted, Progress: 100, Filename: "a.apk", UploadURL: "https://x/b"},
			expLines: []string{"File:       a.apk", "Output:     modified.apk", "Upload URL: https://x/b"},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			err := printer.NewTablePrinter(&buf).PrintStatus("J1", test.status)
			require.NoError(t, err)

			out := buf.String()
			for _, l := range test.expLines {
				assert.Contains(t, out, l)
			}
			if test.notExpOut != "" {
				assert.NotContains(t, out, test.notExpOut)
			}
		})
	}
}

func TestTablePrinterPrintHistory(t *testing.T) {
	var buf bytes.Buffer
	err := printer.NewTablePrinter(&buf).PrintHistory(recordsFixture())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "JOB ID")
	assert.Contains(t, lines[1], "J2")
	assert.Contains(t, lines[1], "1.5 KB")
	assert.Contains(t, lines[1], "STANDARD")
	assert.Contains(t, lines[2], "0 Bytes")
	assert.Contains(t, lines[2], "failed")
}

func TestTablePrinterPrintHistoryEmpty(t *testing.T) {
	var buf bytes.Buffer
	err := printer.NewTablePrinter(&buf).PrintHistory(nil)
	require.NoError(t, err)
	assert.Empty(t, buf.String())
}

func TestJSONPrinterPrintStatus(t *testing.T) {
	var buf bytes.Buffer
	err := printer.NewJSONPrinter(&buf).PrintStatus("J1", model.JobStatus{Status: model.JobStatusCompleted, Progress: 120})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"job_id": "J1"`)
	assert.Contains(t, out, `"progress": 100`)
	assert.Contains(t, out, `"output_filename": "modified.apk"`)
	assert.NotContains(t, out, "upload_url")
}

func TestJSONPrinterPrintResult(t *testing.T) {
	var buf bytes.Buffer
	err := printer.NewJSONPrinter(&buf).PrintResult(controller.Result{
		Filename:       "a.apk",
		OutputFilename: "b.apk",
		JobID:          "J1",
		DownloadURL:    "http://srv/download/J1",
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"job_id": "J1"`)
	assert.Contains(t, out, `"filename": "a.apk"`)
	assert.Contains(t, out, `"output_filename": "b.apk"`)
	assert.Contains(t, out, `"download_url": "http://srv/download/J1"`)
	assert.NotContains(t, out, "upload_url")
}

func TestTablePrinterPrintResult(t *testing.T) {
	var buf bytes.Buffer
	err := printer.NewTablePrinter(&buf).PrintResult(controller.Result{
		Filename:       "a.apk",
		OutputFilename: "b.apk",
		JobID:          "J1",
		UploadURL:      "https://files.example/b",
		DownloadURL:    "http://srv/download/J1",
	})
	require.NoError(t, err)

	exp := "Job ID:     J1\n" +
		"File:       a.apk\n" +
		"Output:     b.apk\n" +
		"Upload URL: https://files.example/b\n" +
		"Download:   http://srv/download/J1\n"
	assert.Equal(t, exp, buf.String())
}

func TestJSONPrinterPrintHistory(t *testing.T) {
	var buf bytes.Buffer
	err := printer.NewJSONPrinter(&buf).PrintHistory(recordsFixture())
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"job_id": "J2"`)
	assert.Contains(t, out, `"size_bytes": 1536`)
	assert.Contains(t, out, `"message": "bad lib"`)
	assert.Contains(t, out, `"submitted_at": "2026-10-17T10:00:00Z"`)
}

func TestJSONPrinterPrintHistoryEmpty(t *testing.T) {
	var buf bytes.Buffer
	err := printer.NewJSONPrinter(&buf).PrintHistory(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(buf.String()))
}

func TestTablePrinterPrintMessage(t *testing.T) {
	var buf bytes.Buffer
	err := printer.NewTablePrinter(&buf).PrintMessage("ok")
	require.NoError(t, err)
	assert.Equal(t, "ok", strings.TrimSpace(buf.String()))
}
