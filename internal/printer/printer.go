package printer

import (
	"github.com/slok/apkjob/internal/controller"
	"github.com/slok/apkjob/internal/model"
)

// Output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// Printer knows how to print job information in different formats.
type Printer interface {
	PrintStatus(jobID string, status model.JobStatus) error
	PrintResult(result controller.Result) error
	PrintHistory(records []model.JobRecord) error
	PrintMessage(msg string) error
}
