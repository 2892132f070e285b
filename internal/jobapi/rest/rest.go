package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/slok/apkjob/internal/jobapi"
	"github.com/slok/apkjob/internal/log"
	"github.com/slok/apkjob/internal/model"
)

const (
	// RequestIDHeader is set on every request sent to the server.
	RequestIDHeader = "X-Request-ID"

	uploadPath   = "/upload"
	statusPath   = "/status/"
	downloadPath = "/download/"

	defaultUploadErrMsg   = "Upload failed"
	defaultStatusErrMsg   = "Failed to get status"
	defaultDownloadErrMsg = "Download failed"
)

// ClientConfig is the configuration of the REST job API client.
type ClientConfig struct {
	// BaseURL is the job server root URL (e.g. http://127.0.0.1:5000).
	BaseURL string
	// HTTPClient is the client used for the requests.
	HTTPClient *http.Client
	// RateLimit is the max requests per second, zero or negative disables it.
	RateLimit float64
	// RateBurst is the rate limiter burst, defaults to 1.
	RateBurst int
	Logger    log.Logger
}

func (c *ClientConfig) defaults() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL is required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base URL scheme must be http or https")
	}
	c.BaseURL = strings.TrimSuffix(c.BaseURL, "/")

	if c.HTTPClient == nil {
		c.HTTPClient = http.DefaultClient
	}
	if c.RateBurst <= 0 {
		c.RateBurst = 1
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "jobapi.REST"})
	return nil
}

// Client implements jobapi.API over the job server HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     log.Logger
}

var _ jobapi.API = &Client{}

// NewClient returns a new REST job API client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: cfg.HTTPClient,
		limiter:    rate.NewLimiter(limit, cfg.RateBurst),
		logger:     cfg.Logger,
	}, nil
}

type uploadResponse struct {
	Success bool   `json:"success"`
	JobID   string `json:"job_id"`
	Error   string `json:"error"`
}

type statusResponse struct {
	Status         string   `json:"status"`
	Progress       *float64 `json:"progress"`
	Message        string   `json:"message"`
	Filename       string   `json:"filename"`
	OutputFilename string   `json:"output_filename"`
	UploadURL      string   `json:"upload_url"`
	Error          string   `json:"error"`
}

func (s statusResponse) toModel() *model.JobStatus {
	progress := 0
	if s.Progress != nil {
		progress = int(math.Round(*s.Progress))
	}

	return &model.JobStatus{
		Status:         model.JobStatusKind(s.Status),
		Progress:       progress,
		Message:        s.Message,
		Filename:       s.Filename,
		OutputFilename: s.OutputFilename,
		UploadURL:      s.UploadURL,
	}
}

// Upload sends the APK and the form options as a multipart request.
func (c *Client) Upload(ctx context.Context, req model.UploadRequest) (string, error) {
	if err := req.File.Validate(); err != nil {
		return "", fmt.Errorf("invalid file: %w", err)
	}
	opts := req.Options.WithDefaults()

	// Stream the body so big APKs are not loaded in memory.
	pr, pw := io.Pipe()
	defer pr.Close()
	mw := multipart.NewWriter(pw)

	// The length is known upfront so the body isn't sent chunked.
	length, err := uploadContentLength(mw.Boundary(), req.File, opts)
	if err != nil {
		return "", err
	}

	go func() {
		pw.CloseWithError(writeUploadBody(mw, req.File, opts, copyFileContent(req.File)))
	}()

	httpReq, err := c.newRequest(ctx, http.MethodPost, c.baseURL+uploadPath, pr)
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())
	httpReq.ContentLength = length

	c.logger.Debugf("Uploading %s (%d bytes)", req.File.Name, req.File.Size)
	resp, err := c.do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var result uploadResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&result)

	if !isOK(resp.StatusCode) || !result.Success {
		msg := result.Error
		if msg == "" {
			msg = defaultUploadErrMsg
		}
		return "", &jobapi.ResponseError{StatusCode: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return "", fmt.Errorf("could not decode upload response: %w", decodeErr)
	}
	if result.JobID == "" {
		return "", fmt.Errorf("upload response is missing the job id")
	}

	return result.JobID, nil
}

// uploadContentLength returns the multipart body size. The file content is
// counted by its size, so the size must match what the file opener returns.
func uploadContentLength(boundary string, file model.SelectedFile, opts model.FormOptions) (int64, error) {
	cw := &countingWriter{}
	mw := multipart.NewWriter(cw)
	if err := mw.SetBoundary(boundary); err != nil {
		return 0, fmt.Errorf("could not set multipart boundary: %w", err)
	}

	err := writeUploadBody(mw, file, opts, func(io.Writer) error {
		cw.n += file.Size
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("could not compute upload size: %w", err)
	}

	return cw.n, nil
}

type countingWriter struct{ n int64 }

func (w *countingWriter) Write(p []byte) (int, error) {
	w.n += int64(len(p))
	return len(p), nil
}

func copyFileContent(file model.SelectedFile) func(io.Writer) error {
	return func(dst io.Writer) error {
		content, err := file.Open()
		if err != nil {
			return fmt.Errorf("could not open file: %w", err)
		}
		defer content.Close()

		if _, err := io.Copy(dst, content); err != nil {
			return fmt.Errorf("could not copy file: %w", err)
		}
		return nil
	}
}

func writeUploadBody(mw *multipart.Writer, file model.SelectedFile, opts model.FormOptions, writeContent func(io.Writer) error) error {
	part, err := mw.CreateFormFile("apk_file", file.Name)
	if err != nil {
		return fmt.Errorf("could not create file part: %w", err)
	}

	if err := writeContent(part); err != nil {
		return err
	}

	fields := []struct{ key, value string }{
		{"mode", opts.Mode},
		{"lib_name", opts.LibName},
		{"custom_options", opts.CustomOptions},
		{"bot_token", opts.BotToken},
		{"chat_id", opts.ChatID},
		{"upload_server", opts.UploadServer},
	}
	for _, f := range fields {
		if err := mw.WriteField(f.key, f.value); err != nil {
			return fmt.Errorf("could not write %s field: %w", f.key, err)
		}
	}

	return mw.Close()
}

// Status gets the status snapshot of a job.
func (c *Client) Status(ctx context.Context, jobID string) (*model.JobStatus, error) {
	if jobID == "" {
		return nil, fmt.Errorf("job id is required: %w", model.ErrNotValid)
	}

	req, err := c.newRequest(ctx, http.MethodGet, c.baseURL+statusPath+url.PathEscape(jobID), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result statusResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&result)

	if !isOK(resp.StatusCode) {
		msg := result.Error
		if msg == "" {
			msg = defaultStatusErrMsg
		}
		return nil, &jobapi.ResponseError{StatusCode: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("could not decode status response: %w", decodeErr)
	}

	return result.toModel(), nil
}

// Download requests the result file of a job.
func (c *Client) Download(ctx context.Context, jobID string) (*jobapi.Download, error) {
	if jobID == "" {
		return nil, fmt.Errorf("job id is required: %w", model.ErrNotValid)
	}

	req, err := c.newRequest(ctx, http.MethodGet, c.DownloadURL(jobID), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}

	if !isOK(resp.StatusCode) {
		defer resp.Body.Close()
		var result struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&result)
		msg := result.Error
		if msg == "" {
			msg = defaultDownloadErrMsg
		}
		return nil, &jobapi.ResponseError{StatusCode: resp.StatusCode, Message: msg}
	}

	return &jobapi.Download{
		Filename:  filenameFromDisposition(resp.Header.Get("Content-Disposition")),
		SizeBytes: resp.ContentLength,
		Body:      resp.Body,
	}, nil
}

// DownloadURL returns the URL of a job result.
func (c *Client) DownloadURL(jobID string) string {
	return c.baseURL + downloadPath + url.PathEscape(jobID)
}

func (c *Client) newRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set(RequestIDHeader, uuid.NewString())
	req.Header.Set("Accept", "application/json")

	return req, nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	c.logger.Debugf("%s %s (request id: %s)", req.Method, req.URL.Path, req.Header.Get(RequestIDHeader))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			return nil, fmt.Errorf("request to job server failed: %w", urlErr.Err)
		}
		return nil, fmt.Errorf("request to job server failed: %w", err)
	}

	return resp, nil
}

func isOK(code int) bool { return code >= 200 && code < 300 }

func filenameFromDisposition(v string) string {
	if v == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(v)
	if err != nil {
		return ""
	}
	return params["filename"]
}
