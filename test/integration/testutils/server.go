package testutils

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// JobServer is an in-process job server that moves every job forward on each
// status request.
type JobServer struct {
	*httptest.Server

	// Step is the progress added on every status request.
	Step int
	// FailMode makes the jobs submitted with this mode fail.
	FailMode string

	mu     sync.Mutex
	nextID int
	jobs   map[string]*serverJob
}

type serverJob struct {
	filename string
	mode     string
	content  []byte
	progress int
	status   string
	message  string
}

// NewJobServer starts a job server closed on the test cleanup.
func NewJobServer(t *testing.T) *JobServer {
	t.Helper()

	s := &JobServer{
		Step:     50,
		FailMode: "broken",
		jobs:     map[string]*serverJob{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /upload", s.upload)
	mux.HandleFunc("GET /status/{id}", s.status)
	mux.HandleFunc("GET /download/{id}", s.download)
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)

	return s
}

func (s *JobServer) upload(w http.ResponseWriter, r *http.Request) {
	f, hdr, err := r.FormFile("apk_file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "No file provided"})
		return
	}
	defer f.Close()

	if !strings.HasSuffix(hdr.Filename, ".apk") {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid file type"})
		return
	}

	content, err := io.ReadAll(f)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := fmt.Sprintf("job-%d", s.nextID)
	s.jobs[id] = &serverJob{
		filename: hdr.Filename,
		mode:     r.FormValue("mode"),
		content:  content,
		status:   "queued",
		message:  "APK uploaded successfully. Processing will start shortly...",
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "job_id": id})
}

func (s *JobServer) status(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[r.PathValue("id")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "Job not found"})
		return
	}

	if j.status != "completed" && j.status != "failed" {
		j.progress += s.Step
		switch {
		case j.mode == s.FailMode:
			j.status = "failed"
			j.message = "Unsupported mode"
		case j.progress >= 100:
			j.progress = 100
			j.status = "completed"
			j.message = "APK modification completed successfully!"
		default:
			j.status = "processing"
			j.message = "Injecting library..."
		}
	}

	resp := map[string]any{
		"status":   j.status,
		"progress": j.progress,
		"message":  j.message,
	}
	if j.status == "completed" {
		resp["filename"] = j.filename
		resp["output_filename"] = "modified_" + j.filename
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *JobServer) download(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[r.PathValue("id")]
	if !ok || j.status != "completed" {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "File not found"})
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "modified_"+j.filename))
	w.Header().Set("Content-Type", "application/vnd.android.package-archive")
	_, _ = w.Write(j.content)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
