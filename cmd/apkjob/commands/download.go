package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/apkjob/internal/app/download"
)

type DownloadCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	jobID     string
	output    string
	outputDir string
	quiet     bool
}

// NewDownloadCommand returns the download command.
func NewDownloadCommand(rootCmd *RootCommand, app *kingpin.Application) *DownloadCommand {
	c := &DownloadCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("download", "Download the result of a completed job.")
	c.Cmd.Arg("job-id", "Job ID.").Required().StringVar(&c.jobID)
	c.Cmd.Flag("output", "Destination file, defaults to the server file name.").Short('o').StringVar(&c.output)
	c.Cmd.Flag("output-dir", "Destination directory when --output is not set.").Default(".").StringVar(&c.outputDir)
	c.Cmd.Flag("quiet", "Don't show the download progress.").Short('q').BoolVar(&c.quiet)

	return c
}

func (c DownloadCommand) Name() string { return c.Cmd.FullCommand() }

func (c DownloadCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	cfg, err := c.rootCmd.ClientConfig(ctx)
	if err != nil {
		return err
	}

	api, err := c.rootCmd.NewAPI(cfg)
	if err != nil {
		return err
	}

	svc, err := download.NewService(download.ServiceConfig{API: api, Logger: logger})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	req := download.Request{
		JobID:      c.jobID,
		OutputPath: c.output,
		OutputDir:  c.outputDir,
	}
	if !c.quiet {
		req.StatusWriter = c.rootCmd.Stderr
	}

	resp, err := svc.Run(ctx, req)
	if err != nil {
		return fmt.Errorf("could not download job result: %w", err)
	}

	fmt.Fprintln(c.rootCmd.Stdout, resp.Path)

	return nil
}
