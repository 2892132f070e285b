package controller

import (
	"context"
	"time"

	"github.com/slok/apkjob/internal/model"
)

// startPollingLocked starts the status polling task of the current job, replacing any previous one.
func (c *Controller) startPollingLocked() {
	c.stopPollingLocked()

	ctx, cancel := context.WithCancel(context.Background())
	c.pollCancel = cancel
	c.state.Polling = true

	c.pollWG.Add(1)
	go func() {
		defer c.pollWG.Done()
		c.pollLoop(ctx)
	}()
}

// stopPollingLocked cancels the polling task, in-flight checks are discarded.
func (c *Controller) stopPollingLocked() {
	if c.pollCancel != nil {
		c.pollCancel()
		c.pollCancel = nil
	}
	c.state.Polling = false
}

func (c *Controller) pollLoop(ctx context.Context) {
	t := time.NewTicker(c.pollInterval)
	defer t.Stop()

	c.checkStatus(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			c.checkStatus(ctx)
		}
	}
}

// checkStatus is a single poll tick. Request failures are logged and the
// polling goes on, a failed tick is never fatal.
func (c *Controller) checkStatus(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	c.mu.Lock()
	jobID := c.state.JobID
	c.mu.Unlock()

	if jobID == "" {
		return
	}

	st, err := c.api.Status(ctx, jobID)
	if err != nil {
		if ctx.Err() == nil {
			c.logger.Errorf("Status check error: %s", err)
		}
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Stopped while the request was in flight.
	if ctx.Err() != nil || c.state.JobID != jobID {
		return
	}

	c.state.Progress = st.ProgressPercent()
	c.state.StatusMessage = st.DisplayMessage()
	c.journalStatusLocked(ctx, *st)

	switch st.Status {
	case model.JobStatusCompleted:
		c.stopPollingLocked()
		c.showScreenLocked(ScreenComplete)
		c.state.Result = &Result{
			Filename:       st.Filename,
			OutputFilename: st.DisplayOutputFilename(),
			JobID:          jobID,
			UploadURL:      st.UploadURL,
			DownloadURL:    c.downloadURLLocked(),
		}
		c.logger.Infof("Job %s completed", jobID)
	case model.JobStatusFailed:
		msg := st.Message
		if msg == "" {
			msg = MsgJobFailed
		}
		c.showErrorLocked(msg)
		c.logger.Warningf("Job %s failed: %s", jobID, msg)
	}

	c.publishLocked()
}
