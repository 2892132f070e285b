package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/apkjob/internal/app/status"
	"github.com/slok/apkjob/internal/printer"
)

type StatusCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	jobID  string
	format string
}

// NewStatusCommand returns the status command.
func NewStatusCommand(rootCmd *RootCommand, app *kingpin.Application) *StatusCommand {
	c := &StatusCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("status", "Get the status of a job.")
	c.Cmd.Arg("job-id", "Job ID.").Required().StringVar(&c.jobID)
	c.Cmd.Flag("format", "Output format (table, json).").Default(printer.FormatTable).EnumVar(&c.format, printer.FormatTable, printer.FormatJSON)

	return c
}

func (c StatusCommand) Name() string { return c.Cmd.FullCommand() }

func (c StatusCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	cfg, err := c.rootCmd.ClientConfig(ctx)
	if err != nil {
		return err
	}

	api, err := c.rootCmd.NewAPI(cfg)
	if err != nil {
		return err
	}

	repo, closeRepo, err := c.rootCmd.NewHistory(ctx)
	if err != nil {
		return err
	}
	defer closeRepo()

	svc, err := status.NewService(status.ServiceConfig{
		API:        api,
		Repository: repo,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	st, err := svc.Run(ctx, status.Request{JobID: c.jobID})
	if err != nil {
		return fmt.Errorf("could not get job status: %w", err)
	}

	// Print output.
	var p printer.Printer
	switch c.format {
	case printer.FormatJSON:
		p = printer.NewJSONPrinter(c.rootCmd.Stdout)
	default:
		p = printer.NewTablePrinter(c.rootCmd.Stdout)
	}

	if err := p.PrintStatus(c.jobID, *st); err != nil {
		return fmt.Errorf("could not print status: %w", err)
	}

	return nil
}
