package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/apkjob/internal/app/history"
	"github.com/slok/apkjob/internal/model"
	"github.com/slok/apkjob/internal/printer"
)

type HistoryCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	limit        int
	statusFilter string
	format       string
}

// NewHistoryCommand returns the history command.
func NewHistoryCommand(rootCmd *RootCommand, app *kingpin.Application) *HistoryCommand {
	c := &HistoryCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("history", "List the jobs submitted from this machine.")
	c.Cmd.Flag("limit", "Max number of jobs (0 lists all).").Default("20").IntVar(&c.limit)
	c.Cmd.Flag("status", "Filter by status (queued, pending, processing, completed, failed).").StringVar(&c.statusFilter)
	c.Cmd.Flag("format", "Output format (table, json).").Default(printer.FormatTable).EnumVar(&c.format, printer.FormatTable, printer.FormatJSON)

	return c
}

func (c HistoryCommand) Name() string { return c.Cmd.FullCommand() }

func (c HistoryCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	if c.rootCmd.NoHistory {
		return fmt.Errorf("job history is disabled")
	}

	var statusFilter *model.JobStatusKind
	if c.statusFilter != "" {
		status := model.JobStatusKind(strings.ToLower(c.statusFilter))
		switch status {
		case model.JobStatusQueued, model.JobStatusPending, model.JobStatusProcessing, model.JobStatusCompleted, model.JobStatusFailed:
			statusFilter = &status
		default:
			return fmt.Errorf("invalid status filter: %s", c.statusFilter)
		}
	}

	repo, closeRepo, err := c.rootCmd.NewHistory(ctx)
	if err != nil {
		return err
	}
	defer closeRepo()

	svc, err := history.NewService(history.ServiceConfig{
		Repository: repo,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	records, err := svc.Run(ctx, history.Request{
		Limit:        c.limit,
		StatusFilter: statusFilter,
	})
	if err != nil {
		return fmt.Errorf("could not list job history: %w", err)
	}

	var p printer.Printer
	switch c.format {
	case printer.FormatJSON:
		p = printer.NewJSONPrinter(c.rootCmd.Stdout)
	default:
		p = printer.NewTablePrinter(c.rootCmd.Stdout)
	}

	if err := p.PrintHistory(records); err != nil {
		return fmt.Errorf("could not print history: %w", err)
	}

	return nil
}
