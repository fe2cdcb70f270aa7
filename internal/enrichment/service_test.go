package enrichment_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/JaimeStill/enricher/internal/enrichment"
)

const testToken = "test-token"

type pollResponse struct {
	status int
	body   string
}

func processing() pollResponse {
	return pollResponse{http.StatusOK, `{"status":"PROCESSING"}`}
}

// fakeService emulates the context-enrichment API.
type fakeService struct {
	t   *testing.T
	srv *httptest.Server

	mu              sync.Mutex
	provisionStatus int
	transportStatus int
	submitStatus    int
	polls           []pollResponse
	pollCount       int
	provisions      int
	uploads         [][]byte
	uploadTypes     []string
	submissions     []map[string]any
	authHeaders     []string
}

func newFakeService(t *testing.T, polls ...pollResponse) *fakeService {
	t.Helper()

	f := &fakeService{
		t:               t,
		provisionStatus: http.StatusOK,
		transportStatus: http.StatusOK,
		submitStatus:    http.StatusOK,
		polls:           polls,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /files/upload/presigned-url", f.provision)
	mux.HandleFunc("PUT /upload/{key}", f.upload)
	mux.HandleFunc("POST /content/process", f.submit)
	mux.HandleFunc("GET /content/process/{id}/results", f.results)

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeService) provision(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.provisions++
	f.authHeaders = append(f.authHeaders, r.Header.Get("Authorization"))

	if f.provisionStatus != http.StatusOK {
		w.WriteHeader(f.provisionStatus)
		io.WriteString(w, "provision refused")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"presignedUrl": f.srv.URL + "/upload/k1",
		"objectKey":    "k1",
	})
}

func (f *fakeService) upload(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, _ := io.ReadAll(r.Body)
	f.uploads = append(f.uploads, data)
	f.uploadTypes = append(f.uploadTypes, r.Header.Get("Content-Type"))

	w.WriteHeader(f.transportStatus)
	if f.transportStatus >= 300 {
		io.WriteString(w, "upload refused")
	}
}

func (f *fakeService) submit(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var doc map[string]any
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		f.t.Errorf("decode submission: %v", err)
	}
	f.submissions = append(f.submissions, doc)

	if f.submitStatus != http.StatusOK {
		w.WriteHeader(f.submitStatus)
		io.WriteString(w, "submit refused")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"processingId": "p1"})
}

func (f *fakeService) results(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.pollCount++
	resp := processing()
	if len(f.polls) > 0 {
		resp = f.polls[min(f.pollCount, len(f.polls))-1]
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.status)
	io.WriteString(w, resp.body)
}

func (f *fakeService) polled() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pollCount
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type sleepCounter struct {
	calls     int
	durations []time.Duration
	err       error
}

func (s *sleepCounter) Sleep(ctx context.Context, d time.Duration) error {
	s.calls++
	s.durations = append(s.durations, d)
	return s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newClient(f *fakeService) *enrichment.Client {
	return enrichment.NewClient(f.srv.URL, f.srv.Client(), discardLogger())
}

func newPipeline(f *fakeService, maxAttempts int, sleeper *sleepCounter) *enrichment.Pipeline {
	logger := discardLogger()
	client := newClient(f)
	return enrichment.NewPipeline(
		enrichment.NewResolver(nil),
		client,
		enrichment.NewPoller(client, maxAttempts, 10*time.Second, sleeper.Sleep, logger),
		logger,
	)
}
