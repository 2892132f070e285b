package printer

import (
	"encoding/json"
	"io"
	"time"

	"github.com/slok/apkjob/internal/controller"
	"github.com/slok/apkjob/internal/model"
)

// JSONPrinter prints job information in JSON format.
type JSONPrinter struct {
	writer io.Writer
}

var _ Printer = &JSONPrinter{}

// NewJSONPrinter creates a new JSON printer.
func NewJSONPrinter(w io.Writer) *JSONPrinter {
	return &JSONPrinter{writer: w}
}

type statusOutput struct {
	JobID          string `json:"job_id"`
	Status         string `json:"status"`
	Progress       int    `json:"progress"`
	Message        string `json:"message"`
	Filename       string `json:"filename,omitempty"`
	OutputFilename string `json:"output_filename,omitempty"`
	UploadURL      string `json:"upload_url,omitempty"`
}

type resultOutput struct {
	Filename       string `json:"filename"`
	OutputFilename string `json:"output_filename"`
	JobID          string `json:"job_id"`
	UploadURL      string `json:"upload_url,omitempty"`
	DownloadURL    string `json:"download_url,omitempty"`
}

type historyItem struct {
	ID             string    `json:"id"`
	JobID          string    `json:"job_id"`
	Filename       string    `json:"filename"`
	SizeBytes      int64     `json:"size_bytes"`
	Mode           string    `json:"mode"`
	Server         string    `json:"server"`
	Status         string    `json:"status"`
	Message        string    `json:"message,omitempty"`
	OutputFilename string    `json:"output_filename,omitempty"`
	UploadURL      string    `json:"upload_url,omitempty"`
	SubmittedAt    time.Time `json:"submitted_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type messageOutput struct {
	Message string `json:"message"`
}

// PrintStatus prints a job status snapshot in JSON format.
func (j *JSONPrinter) PrintStatus(jobID string, s model.JobStatus) error {
	out := statusOutput{
		JobID:     jobID,
		Status:    string(s.Status),
		Progress:  s.ProgressPercent(),
		Message:   s.DisplayMessage(),
		Filename:  s.Filename,
		UploadURL: s.UploadURL,
	}
	if s.Status == model.JobStatusCompleted {
		out.OutputFilename = s.DisplayOutputFilename()
	}

	return j.encode(out)
}

// PrintResult prints the result of a completed job in JSON format.
func (j *JSONPrinter) PrintResult(r controller.Result) error {
	return j.encode(resultOutput(r))
}

// PrintHistory prints the journaled jobs in JSON format.
func (j *JSONPrinter) PrintHistory(records []model.JobRecord) error {
	items := make([]historyItem, len(records))
	for i, r := range records {
		items[i] = historyItem{
			ID:             r.ID,
			JobID:          r.JobID,
			Filename:       r.Filename,
			SizeBytes:      r.SizeBytes,
			Mode:           r.Mode,
			Server:         r.ServerURL,
			Status:         string(r.Status),
			Message:        r.Message,
			OutputFilename: r.OutputFilename,
			UploadURL:      r.UploadURL,
			SubmittedAt:    r.SubmittedAt.UTC(),
			UpdatedAt:      r.UpdatedAt.UTC(),
		}
	}

	return j.encode(items)
}

// PrintMessage prints a simple message in JSON format.
func (j *JSONPrinter) PrintMessage(msg string) error {
	return j.encode(messageOutput{Message: msg})
}

func (j *JSONPrinter) encode(v any) error {
	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
