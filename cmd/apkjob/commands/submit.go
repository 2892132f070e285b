package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/apkjob/internal/app/download"
	"github.com/slok/apkjob/internal/app/submit"
	"github.com/slok/apkjob/internal/controller"
	"github.com/slok/apkjob/internal/jobapi"
	"github.com/slok/apkjob/internal/model"
	"github.com/slok/apkjob/internal/printer"
)

type SubmitCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	apkPath string
	form    model.FormOptions

	download  bool
	output    string
	outputDir string
	format    string
}

// NewSubmitCommand returns the submit command.
func NewSubmitCommand(rootCmd *RootCommand, app *kingpin.Application) *SubmitCommand {
	c := &SubmitCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("submit", "Submit an APK file and wait for the job to finish.")
	c.Cmd.Arg("apk", "Path to the APK file.").Required().StringVar(&c.apkPath)

	// Form flags, empty values use the configured defaults.
	c.Cmd.Flag("mode", "Processing mode.").StringVar(&c.form.Mode)
	c.Cmd.Flag("lib-name", "Library name (default libxx.so).").StringVar(&c.form.LibName)
	c.Cmd.Flag("custom-options", "Custom processing options.").StringVar(&c.form.CustomOptions)
	c.Cmd.Flag("bot-token", "Notification bot token sent to the server.").StringVar(&c.form.BotToken)
	c.Cmd.Flag("chat-id", "Notification chat ID sent to the server.").StringVar(&c.form.ChatID)
	c.Cmd.Flag("upload-server", "Result upload server sent to the server.").StringVar(&c.form.UploadServer)

	// Result flags.
	c.Cmd.Flag("download", "Download the result when the job completes.").BoolVar(&c.download)
	c.Cmd.Flag("output", "Result destination file, implies --download.").Short('o').StringVar(&c.output)
	c.Cmd.Flag("output-dir", "Result destination directory when --output is not set.").Default(".").StringVar(&c.outputDir)
	c.Cmd.Flag("format", "Result output format (table, json).").Default(printer.FormatTable).EnumVar(&c.format, printer.FormatTable, printer.FormatJSON)

	return c
}

func (c SubmitCommand) Name() string { return c.Cmd.FullCommand() }

func (c SubmitCommand) Run(ctx context.Context) error {
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

	file, err := model.NewSelectedFileFromPath(c.apkPath)
	if err != nil {
		return fmt.Errorf("could not open APK: %w", err)
	}

	downloadSvc, err := download.NewService(download.ServiceConfig{API: api, Logger: logger})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	svc, err := submit.NewService(submit.ServiceConfig{
		API:          api,
		Repository:   repo,
		ServerURL:    cfg.ServerURL,
		PollInterval: cfg.PollInterval,
		OptionsDelay: cfg.OptionsDelay,
		DefaultForm:  cfg.Form,
		Modes:        cfg.Modes,
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	form := c.formOptions(cfg.Form)
	req := submit.Request{
		File:  file,
		Form:  &form,
		Views: []controller.View{printer.NewTerminalView(c.rootCmd.Stderr)},
	}
	if c.download || c.output != "" {
		req.Store = func(dl *jobapi.Download) error {
			_, err := downloadSvc.Store(dl, download.Request{
				OutputPath:   c.output,
				OutputDir:    c.outputDir,
				StatusWriter: c.rootCmd.Stderr,
			})
			return err
		}
	}

	resp, err := svc.Run(ctx, req)
	if err != nil {
		return err
	}

	st := resp.State
	if st.Screen != controller.ScreenComplete {
		return fmt.Errorf("job %s failed: %s", st.JobID, st.ErrorMessage)
	}

	var p printer.Printer = printer.NewTablePrinter(c.rootCmd.Stdout)
	if c.format == printer.FormatJSON {
		p = printer.NewJSONPrinter(c.rootCmd.Stdout)
	}
	if err := p.PrintResult(*st.Result); err != nil {
		return fmt.Errorf("could not print result: %w", err)
	}

	return nil
}

// formOptions returns the configured form with the flag values set on top.
func (c SubmitCommand) formOptions(base model.FormOptions) model.FormOptions {
	f := base
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&f.Mode, c.form.Mode)
	set(&f.LibName, c.form.LibName)
	set(&f.CustomOptions, c.form.CustomOptions)
	set(&f.BotToken, c.form.BotToken)
	set(&f.ChatID, c.form.ChatID)
	set(&f.UploadServer, c.form.UploadServer)
	return f
}
