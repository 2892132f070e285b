package controller_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/slok/apkjob/internal/controller"
	"github.com/slok/apkjob/internal/jobapi"
	"github.com/slok/apkjob/internal/jobapi/jobapimock"
	"github.com/slok/apkjob/internal/log"
	"github.com/slok/apkjob/internal/model"
	"github.com/slok/apkjob/internal/storage"
	"github.com/slok/apkjob/internal/storage/memory"
)

var testNow = time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

type recorder struct {
	mu     sync.Mutex
	states []controller.State
}

func (r *recorder) Render(s controller.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func (r *recorder) screens() []controller.Screen {
	r.mu.Lock()
	defer r.mu.Unlock()
	var screens []controller.Screen
	for _, s := range r.states {
		if len(screens) == 0 || screens[len(screens)-1] != s.Screen {
			screens = append(screens, s.Screen)
		}
	}
	return screens
}

func newController(t *testing.T, api jobapi.API, repo storage.JobRepository, optionsDelay time.Duration) (*controller.Controller, *recorder) {
	t.Helper()

	c, err := controller.New(controller.Config{
		API:          api,
		Repository:   repo,
		ServerURL:    "http://127.0.0.1:5000",
		PollInterval: 10 * time.Millisecond,
		OptionsDelay: optionsDelay,
		Logger:       log.Noop,
		Now:          func() time.Time { return testNow },
	})
	require.NoError(t, err)
	t.Cleanup(c.Close)

	rec := &recorder{}
	c.Subscribe(rec)
	return c, rec
}

func apkFile() model.SelectedFile {
	return model.NewSelectedFileFromBytes("app.apk", []byte("apk-content"))
}

func TestNew(t *testing.T) {
	tests := map[string]struct {
		cfg    controller.Config
		expErr bool
	}{
		"A valid config should create the controller.": {
			cfg: controller.Config{API: &jobapimock.MockAPI{}},
		},
		"Missing API should fail.": {
			cfg:    controller.Config{},
			expErr: true,
		},
		"A negative poll interval should fail.": {
			cfg:    controller.Config{API: &jobapimock.MockAPI{}, PollInterval: -time.Second},
			expErr: true,
		},
		"A negative options delay should fail.": {
			cfg:    controller.Config{API: &jobapimock.MockAPI{}, OptionsDelay: -time.Second},
			expErr: true,
		},
		"A default mode not in the modes should fail.": {
			cfg: controller.Config{
				API:         &jobapimock.MockAPI{},
				Modes:       []string{"debug"},
				DefaultForm: model.FormOptions{Mode: "standard"},
			},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			c, err := controller.New(test.cfg)
			if test.expErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			st := c.State()
			assert.Equal(t, controller.ScreenUpload, st.Screen)
			assert.Equal(t, model.DefaultFormOptions(), st.Form)
			assert.Equal(t, controller.SubmitLabel, st.SubmitLabel)
		})
	}
}

func TestControllerSelectInvalidFile(t *testing.T) {
	tests := map[string]struct {
		name   string
		source controller.SelectSource
		expPV  string
	}{
		"A zip file picked with the browser should be rejected and clear the picker.": {
			name:   "app.zip",
			source: controller.SourceBrowse,
		},
		"An upper case extension should be rejected.": {
			name:   "app.APK",
			source: controller.SourceBrowse,
		},
		"A file named like the extension without dot should be rejected.": {
			name:   "apk",
			source: controller.SourceDrop,
		},
		"A dropped invalid file should be rejected.": {
			name:   "app.apk.txt",
			source: controller.SourceDrop,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			api := jobapimock.NewMockAPI(t)
			c, _ := newController(t, api, nil, time.Millisecond)

			err := c.Select(model.NewSelectedFileFromBytes(test.name, []byte("x")), test.source)
			require.Error(t, err)
			assert.True(t, errors.Is(err, model.ErrNotValid))

			st := c.State()
			assert.Equal(t, controller.ScreenError, st.Screen)
			assert.Equal(t, controller.MsgInvalidFile, st.ErrorMessage)
			assert.Nil(t, st.File)
			assert.Equal(t, test.expPV, st.PickerValue)

			// Process can't go on without file.
			err = c.Process(context.Background())
			assert.True(t, errors.Is(err, model.ErrNotValid))
			assert.Equal(t, controller.MsgNoFile, c.State().ErrorMessage)
		})
	}
}

func TestControllerSelectValidFile(t *testing.T) {
	api := jobapimock.NewMockAPI(t)
	c, rec := newController(t, api, nil, 5*time.Millisecond)

	f := model.NewSelectedFileFromBytes("app.apk", make([]byte, 2097152))
	require.NoError(t, c.Select(f, controller.SourceBrowse))

	st := c.State()
	require.NotNil(t, st.File)
	assert.Equal(t, "app.apk", st.File.Name)
	assert.Equal(t, int64(2097152), st.File.SizeBytes)
	assert.Equal(t, "app.apk", st.PickerValue)

	assert.Eventually(t, func() bool { return c.State().Screen == controller.ScreenOptions }, waitFor, tick)
	assert.Equal(t, []controller.Screen{controller.ScreenUpload, controller.ScreenOptions}, rec.screens())

	c.Back()
	assert.Equal(t, controller.ScreenUpload, c.State().Screen)
	assert.NotNil(t, c.State().File)
}

func TestControllerRemoveCancelsOptionsTransition(t *testing.T) {
	api := jobapimock.NewMockAPI(t)
	c, _ := newController(t, api, nil, 50*time.Millisecond)

	require.NoError(t, c.Select(apkFile(), controller.SourceDrop))
	assert.Empty(t, c.State().PickerValue)
	c.Remove()

	time.Sleep(100 * time.Millisecond)
	st := c.State()
	assert.Equal(t, controller.ScreenUpload, st.Screen)
	assert.Nil(t, st.File)
	assert.Empty(t, st.PickerValue)
}

func TestControllerProcessWithoutFile(t *testing.T) {
	api := jobapimock.NewMockAPI(t)
	c, _ := newController(t, api, nil, time.Millisecond)

	err := c.Process(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrNotValid))

	st := c.State()
	assert.Equal(t, controller.ScreenError, st.Screen)
	assert.Equal(t, controller.MsgNoFile, st.ErrorMessage)
	api.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
}

func TestControllerProcessInvalidMode(t *testing.T) {
	api := jobapimock.NewMockAPI(t)
	c, err := controller.New(controller.Config{
		API:   api,
		Modes: []string{"standard", "debug"},
	})
	require.NoError(t, err)
	t.Cleanup(c.Close)

	require.NoError(t, c.Select(apkFile(), controller.SourceBrowse))
	c.SetForm(model.FormOptions{Mode: "unknown"})

	err = c.Process(context.Background())
	assert.True(t, errors.Is(err, model.ErrNotValid))
	assert.Equal(t, controller.MsgInvalidMode, c.State().ErrorMessage)
}

func TestControllerProcessUploadFailure(t *testing.T) {
	tests := map[string]struct {
		uploadErr error
		expMsg    string
	}{
		"A server error message should be shown.": {
			uploadErr: &jobapi.ResponseError{StatusCode: 400, Message: "File must be an APK"},
			expMsg:    "File must be an APK",
		},
		"A server error without message should show the generic message.": {
			uploadErr: &jobapi.ResponseError{StatusCode: 500},
			expMsg:    controller.MsgUploadFailed,
		},
		"A transport error should show the error text.": {
			uploadErr: errors.New("connection refused"),
			expMsg:    "connection refused",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			api := jobapimock.NewMockAPI(t)
			c, rec := newController(t, api, nil, time.Hour)

			api.On("Upload", mock.Anything, mock.Anything).Once().Return("", test.uploadErr)

			require.NoError(t, c.Select(apkFile(), controller.SourceBrowse))
			err := c.Process(context.Background())
			require.Error(t, err)

			st := c.State()
			assert.Equal(t, controller.ScreenError, st.Screen)
			assert.Equal(t, test.expMsg, st.ErrorMessage)
			assert.False(t, st.Submitting)
			assert.Equal(t, controller.SubmitLabel, st.SubmitLabel)
			assert.False(t, st.Polling)
			assert.Empty(t, st.JobID)
			assert.Equal(t, []controller.Screen{controller.ScreenUpload, controller.ScreenProcessing, controller.ScreenError}, rec.screens())

			c.Retry()
			assert.Equal(t, controller.ScreenUpload, c.State().Screen)
		})
	}
}

func TestControllerProcessLocksSubmitDuringUpload(t *testing.T) {
	api := jobapimock.NewMockAPI(t)
	c, _ := newController(t, api, nil, time.Hour)

	var during controller.State
	api.On("Upload", mock.Anything, mock.Anything).Once().Run(func(mock.Arguments) {
		during = c.State()
	}).Return("", errors.New("boom"))

	require.NoError(t, c.Select(apkFile(), controller.SourceBrowse))
	_ = c.Process(context.Background())

	assert.True(t, during.Submitting)
	assert.Equal(t, controller.SubmittingLabel, during.SubmitLabel)
	assert.Equal(t, controller.ScreenProcessing, during.Screen)
	assert.Equal(t, testNow, during.StartedAt)
	assert.Equal(t, "STANDARD", during.Mode)
}

func TestControllerProcessUntilCompleted(t *testing.T) {
	api := jobapimock.NewMockAPI(t)
	repo, err := memory.NewRepository(memory.RepositoryConfig{})
	require.NoError(t, err)
	c, rec := newController(t, api, repo, time.Hour)

	expReq := func(r model.UploadRequest) bool {
		return r.File.Name == "app.apk" &&
			r.Options.Mode == "standard" &&
			r.Options.LibName == "libfoo.so" &&
			r.Options.ChatID == "42"
	}
	api.On("Upload", mock.Anything, mock.MatchedBy(expReq)).Once().Return("J1", nil)
	api.On("Status", mock.Anything, "J1").Once().Return(&model.JobStatus{Status: model.JobStatusQueued}, nil)
	api.On("Status", mock.Anything, "J1").Once().Return(&model.JobStatus{Status: model.JobStatusProcessing, Progress: 50, Message: "Injecting"}, nil)
	api.On("Status", mock.Anything, "J1").Once().Return(&model.JobStatus{
		Status:         model.JobStatusCompleted,
		Progress:       100,
		Filename:       "a.apk",
		OutputFilename: "b.apk",
	}, nil)
	api.On("DownloadURL", "J1").Return("http://127.0.0.1:5000/download/J1")

	require.NoError(t, c.Select(apkFile(), controller.SourceBrowse))
	c.SetForm(model.FormOptions{Mode: "standard", LibName: "libfoo.so", ChatID: "42"})
	require.NoError(t, c.Process(context.Background()))
	assert.Equal(t, "J1", c.State().JobID)

	require.Eventually(t, func() bool { return c.State().Screen == controller.ScreenComplete }, waitFor, tick)

	st := c.State()
	assert.False(t, st.Polling)
	assert.Equal(t, 100, st.Progress)
	expResult := &controller.Result{
		Filename:       "a.apk",
		OutputFilename: "b.apk",
		JobID:          "J1",
		DownloadURL:    "http://127.0.0.1:5000/download/J1",
	}
	assert.Equal(t, expResult, st.Result)

	// Polling stopped, no more status requests.
	time.Sleep(50 * time.Millisecond)
	api.AssertNumberOfCalls(t, "Status", 3)

	// Progress was published while processing.
	var sawProgress bool
	rec.mu.Lock()
	for _, s := range rec.states {
		if s.Progress == 50 && s.StatusMessage == "Injecting" && s.Screen == controller.ScreenProcessing {
			sawProgress = true
		}
	}
	rec.mu.Unlock()
	assert.True(t, sawProgress)

	// The job has been journaled.
	jr, err := repo.GetJob(context.Background(), "J1")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusCompleted, jr.Status)
	assert.Equal(t, "b.apk", jr.OutputFilename)
	assert.Equal(t, "standard", jr.Mode)
	assert.Equal(t, "http://127.0.0.1:5000", jr.ServerURL)
}

func TestControllerCompletedWithUploadURLAndDefaultOutput(t *testing.T) {
	api := jobapimock.NewMockAPI(t)
	c, _ := newController(t, api, nil, time.Hour)

	api.On("Upload", mock.Anything, mock.Anything).Once().Return("J1", nil)
	api.On("Status", mock.Anything, "J1").Once().Return(&model.JobStatus{
		Status:    model.JobStatusCompleted,
		Filename:  "a.apk",
		UploadURL: "https://files.example/b",
	}, nil)
	api.On("DownloadURL", "J1").Return("http://127.0.0.1:5000/download/J1")

	require.NoError(t, c.Select(apkFile(), controller.SourceBrowse))
	require.NoError(t, c.Process(context.Background()))
	require.Eventually(t, func() bool { return c.State().Screen == controller.ScreenComplete }, waitFor, tick)

	res := c.State().Result
	require.NotNil(t, res)
	assert.Equal(t, model.DefaultOutputFilename, res.OutputFilename)
	assert.Equal(t, "https://files.example/b", res.UploadURL)
	assert.Equal(t, "http://127.0.0.1:5000/download/J1", res.DownloadURL)
	assert.Equal(t, model.DefaultStatusMessage, c.State().StatusMessage)
}

func TestControllerProcessUntilFailed(t *testing.T) {
	api := jobapimock.NewMockAPI(t)
	c, _ := newController(t, api, nil, time.Hour)

	api.On("Upload", mock.Anything, mock.Anything).Once().Return("J1", nil)
	api.On("Status", mock.Anything, "J1").Once().Return(&model.JobStatus{Status: model.JobStatusFailed, Message: "bad lib"}, nil)

	require.NoError(t, c.Select(apkFile(), controller.SourceBrowse))
	require.NoError(t, c.Process(context.Background()))
	require.Eventually(t, func() bool { return c.State().Screen == controller.ScreenError }, waitFor, tick)

	st := c.State()
	assert.Equal(t, "bad lib", st.ErrorMessage)
	assert.False(t, st.Polling)

	time.Sleep(50 * time.Millisecond)
	api.AssertNumberOfCalls(t, "Status", 1)
}

func TestControllerPollErrorsAreSwallowed(t *testing.T) {
	api := jobapimock.NewMockAPI(t)
	c, _ := newController(t, api, nil, time.Hour)

	api.On("Upload", mock.Anything, mock.Anything).Once().Return("J1", nil)
	api.On("Status", mock.Anything, "J1").Twice().Return(nil, errors.New("network down"))
	api.On("Status", mock.Anything, "J1").Return(&model.JobStatus{Status: model.JobStatusProcessing, Progress: 10}, nil)

	require.NoError(t, c.Select(apkFile(), controller.SourceBrowse))
	require.NoError(t, c.Process(context.Background()))

	require.Eventually(t, func() bool { return c.State().Progress == 10 }, waitFor, tick)

	st := c.State()
	assert.Equal(t, controller.ScreenProcessing, st.Screen)
	assert.Equal(t, "J1", st.JobID)
	assert.True(t, st.Polling)
	assert.Empty(t, st.ErrorMessage)
}

func TestControllerProgressIsClamped(t *testing.T) {
	tests := map[string]struct {
		serverProgress int
		expProgress    int
	}{
		"A progress over 100 should be shown as 100.": {
			serverProgress: 150,
			expProgress:    100,
		},

		"A negative progress should be shown as 0.": {
			serverProgress: -20,
			expProgress:    0,
		},

		"A progress in range should be kept.": {
			serverProgress: 42,
			expProgress:    42,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			api := jobapimock.NewMockAPI(t)
			c, rec := newController(t, api, nil, time.Hour)

			var statusCalls atomic.Int32
			api.On("Upload", mock.Anything, mock.Anything).Once().Return("J1", nil)
			api.On("Status", mock.Anything, "J1").Run(func(mock.Arguments) { statusCalls.Add(1) }).
				Return(&model.JobStatus{Status: model.JobStatusProcessing, Progress: test.serverProgress}, nil)

			require.NoError(t, c.Select(apkFile(), controller.SourceBrowse))
			require.NoError(t, c.Process(context.Background()))
			require.Eventually(t, func() bool { return statusCalls.Load() >= 2 }, waitFor, tick)

			assert.Equal(t, test.expProgress, c.State().Progress)

			rec.mu.Lock()
			defer rec.mu.Unlock()
			for _, s := range rec.states {
				assert.GreaterOrEqual(t, s.Progress, 0)
				assert.LessOrEqual(t, s.Progress, 100)
			}
		})
	}
}

func TestControllerReset(t *testing.T) {
	api := jobapimock.NewMockAPI(t)
	c, err := controller.New(controller.Config{
		API:          api,
		PollInterval: 10 * time.Millisecond,
		OptionsDelay: time.Hour,
		DefaultForm:  model.FormOptions{Mode: "debug"},
	})
	require.NoError(t, err)
	t.Cleanup(c.Close)

	var statusCalls atomic.Int32
	api.On("Upload", mock.Anything, mock.Anything).Once().Return("J1", nil)
	api.On("Status", mock.Anything, "J1").Run(func(mock.Arguments) { statusCalls.Add(1) }).
		Return(&model.JobStatus{Status: model.JobStatusProcessing, Progress: 10}, nil)

	require.NoError(t, c.Select(apkFile(), controller.SourceBrowse))
	c.SetForm(model.FormOptions{
		Mode:          "standard",
		LibName:       "libfoo.so",
		CustomOptions: "x",
		BotToken:      "tok",
		ChatID:        "42",
		UploadServer:  "srv",
	})
	require.NoError(t, c.Process(context.Background()))
	require.Eventually(t, func() bool { return c.State().Progress == 10 }, waitFor, tick)

	c.Reset()

	st := c.State()
	assert.Equal(t, controller.ScreenUpload, st.Screen)
	assert.Empty(t, st.JobID)
	assert.Nil(t, st.File)
	assert.False(t, st.Polling)
	// The processing options are restored, the notification settings are kept.
	expForm := model.FormOptions{
		Mode:         "debug",
		LibName:      "libxx.so",
		BotToken:     "tok",
		ChatID:       "42",
		UploadServer: "srv",
	}
	assert.Equal(t, expForm, st.Form)
	assert.Empty(t, c.DownloadURL())

	// Polling is stopped.
	time.Sleep(30 * time.Millisecond)
	calls := statusCalls.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, calls, statusCalls.Load())

	// The reset session can't be processed without a new file.
	err = c.Process(context.Background())
	assert.True(t, errors.Is(err, model.ErrNotValid))
}

func TestControllerResetDuringUploadDiscardsJob(t *testing.T) {
	api := jobapimock.NewMockAPI(t)
	c, _ := newController(t, api, nil, time.Hour)

	api.On("Upload", mock.Anything, mock.Anything).Once().Run(func(mock.Arguments) {
		c.Reset()
	}).Return("J1", nil)

	require.NoError(t, c.Select(apkFile(), controller.SourceBrowse))
	require.NoError(t, c.Process(context.Background()))

	st := c.State()
	assert.Equal(t, controller.ScreenUpload, st.Screen)
	assert.Empty(t, st.JobID)
	assert.False(t, st.Polling)
	assert.False(t, st.Submitting)
	api.AssertNotCalled(t, "Status", mock.Anything, mock.Anything)
}

func TestControllerDownload(t *testing.T) {
	api := jobapimock.NewMockAPI(t)
	c, _ := newController(t, api, nil, time.Hour)

	_, err := c.Download(context.Background())
	assert.True(t, errors.Is(err, controller.ErrNoJob))
	assert.Empty(t, c.DownloadURL())

	api.On("Upload", mock.Anything, mock.Anything).Once().Return("J1", nil)
	api.On("Status", mock.Anything, "J1").Return(&model.JobStatus{Status: model.JobStatusCompleted}, nil)
	api.On("Download", mock.Anything, "J1").Once().Return(&jobapi.Download{
		Filename: "b.apk",
		Body:     io.NopCloser(strings.NewReader("result")),
	}, nil)
	api.On("DownloadURL", "J1").Return("http://127.0.0.1:5000/download/J1")

	require.NoError(t, c.Select(apkFile(), controller.SourceBrowse))
	require.NoError(t, c.Process(context.Background()))
	require.Eventually(t, func() bool { return c.State().Screen == controller.ScreenComplete }, waitFor, tick)

	dl, err := c.Download(context.Background())
	require.NoError(t, err)
	data, err := io.ReadAll(dl.Body)
	require.NoError(t, err)
	assert.Equal(t, "result", string(data))
	assert.Equal(t, "http://127.0.0.1:5000/download/J1", c.DownloadURL())
}

func TestControllerSubscribe(t *testing.T) {
	api := jobapimock.NewMockAPI(t)
	c, err := controller.New(controller.Config{API: api})
	require.NoError(t, err)

	var got []controller.Screen
	unsubscribe := c.Subscribe(controller.ViewFunc(func(s controller.State) { got = append(got, s.Screen) }))
	c.Retry()
	unsubscribe()
	_ = c.Process(context.Background())

	assert.Equal(t, []controller.Screen{controller.ScreenUpload, controller.ScreenUpload}, got)
}
