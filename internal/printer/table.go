package printer

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/slok/apkjob/internal/controller"
	"github.com/slok/apkjob/internal/model"
)

// TablePrinter prints job information in a table format.
type TablePrinter struct {
	writer io.Writer
	now    func() time.Time
}

var _ Printer = &TablePrinter{}

// NewTablePrinter creates a new table printer.
func NewTablePrinter(w io.Writer) *TablePrinter {
	return &TablePrinter{writer: w, now: time.Now}
}

// PrintStatus prints a job status snapshot.
func (t *TablePrinter) PrintStatus(jobID string, s model.JobStatus) error {
	fmt.Fprintf(t.writer, "Job ID:     %s\n", jobID)
	fmt.Fprintf(t.writer, "Status:     %s\n", s.Status)
	fmt.Fprintf(t.writer, "Progress:   %d%%\n", s.ProgressPercent())
	fmt.Fprintf(t.writer, "Message:    %s\n", s.DisplayMessage())

	if s.Status == model.JobStatusCompleted {
		fmt.Fprintf(t.writer, "File:       %s\n", s.Filename)
		fmt.Fprintf(t.writer, "Output:     %s\n", s.DisplayOutputFilename())
	}
	if s.UploadURL != "" {
		fmt.Fprintf(t.writer, "Upload URL: %s\n", s.UploadURL)
	}

	return nil
}

// PrintResult prints the result of a completed job.
func (t *TablePrinter) PrintResult(r controller.Result) error {
	fmt.Fprintf(t.writer, "Job ID:     %s\n", r.JobID)
	fmt.Fprintf(t.writer, "File:       %s\n", r.Filename)
	fmt.Fprintf(t.writer, "Output:     %s\n", r.OutputFilename)
	if r.UploadURL != "" {
		fmt.Fprintf(t.writer, "Upload URL: %s\n", r.UploadURL)
	}
	if r.DownloadURL != "" {
		fmt.Fprintf(t.writer, "Download:   %s\n", r.DownloadURL)
	}
	return nil
}

// PrintHistory prints the journaled jobs in a table format.
func (t *TablePrinter) PrintHistory(records []model.JobRecord) error {
	if len(records) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "JOB ID\tFILE\tSIZE\tMODE\tSTATUS\tSUBMITTED")

	now := t.now()
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.JobID,
			r.Filename,
			FormatFileSize(r.SizeBytes),
			model.ModeDisplay(r.Mode),
			r.Status,
			TimeAgo(r.SubmittedAt, now),
		)
	}

	return nil
}

// PrintMessage prints a simple text message.
func (t *TablePrinter) PrintMessage(msg string) error {
	fmt.Fprintln(t.writer, msg)
	return nil
}
