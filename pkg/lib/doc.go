// Package lib provides a Go SDK to submit APK processing jobs programmatically.
//
// It drives the same workflow as the apkjob CLI (file selection, upload,
// status polling and result download) without shelling out to the binary.
//
// # Quick Start
//
//	client, err := lib.New(ctx, lib.Config{ServerURL: "http://127.0.0.1:5000"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	res, err := client.Submit(ctx, "/path/to/app.apk", lib.SubmitOpts{
//	    Mode:       "standard",
//	    OutputPath: "/tmp/modified.apk",
//	})
//
// Submit blocks until the job completes or fails. A failed job returns an
// error matching [ErrJobFailed].
//
// # History
//
// Submitted jobs are journaled in a local SQLite database
// (~/.apkjob/history.db by default). Use [Config].NoHistory to disable it.
//
// # Error Handling
//
// All methods return errors that can be inspected with [errors.Is]:
//
//   - [ErrNotFound]: The job does not exist.
//   - [ErrNotValid]: Invalid input (e.g. a file without the .apk extension).
//   - [ErrJobFailed]: The server reported the job as failed.
//
// # Testing
//
// Use [APIFake] and disable the history to write tests without a server:
//
//	client, _ := lib.New(ctx, lib.Config{API: lib.APIFake, NoHistory: true})
//	defer client.Close()
package lib
