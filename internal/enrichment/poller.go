package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// ProcessingStatus is the status value the service reports while a job runs.
const ProcessingStatus = "PROCESSING"

// JobStatus is the last observed status of a remote job.
type JobStatus string

// Job statuses as seen by the poller.
const (
	JobUnknown    JobStatus = "unknown"
	JobProcessing JobStatus = "processing"
	JobReady      JobStatus = "ready"
)

// Job tracks one remote processing job for the duration of a pipeline run.
// Only the Poller updates Status and RawResult.
type Job struct {
	ID        string
	Status    JobStatus
	RawResult json.RawMessage
}

// State is a position in the polling state machine:
// Submitted -> Polling -> {Ready, TimedOut, Failed}.
type State int

// Polling states.
const (
	StateSubmitted State = iota
	StatePolling
	StateReady
	StateTimedOut
	StateFailed
)

var stateNames = [...]string{
	StateSubmitted: "submitted",
	StatePolling:   "polling",
	StateReady:     "ready",
	StateTimedOut:  "timed_out",
	StateFailed:    "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// Terminal reports whether no further polling follows s.
func (s State) Terminal() bool {
	return s >= StateReady
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// StatusMatch selects how the status field is compared to ProcessingStatus.
type StatusMatch int

const (
	// MatchExact requires a byte-for-byte match.
	MatchExact StatusMatch = iota
	// MatchFold compares case-insensitively.
	MatchFold
)

// ParseStatusMatch converts "exact" or "fold" to a StatusMatch.
func ParseStatusMatch(s string) (StatusMatch, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "exact":
		return MatchExact, nil
	case "fold":
		return MatchFold, nil
	}
	return MatchExact, fmt.Errorf("invalid status match %q", s)
}

func (m StatusMatch) processing(status string) bool {
	if m == MatchFold {
		return strings.EqualFold(status, ProcessingStatus)
	}
	return status == ProcessingStatus
}

// Readiness describes how a results document signals that a job is done.
// ResultKey names the sub-document of results[0] the action produces.
// When RequireLeaf is set that sub-document must also carry a "result" field.
type Readiness struct {
	ResultKey   string
	RequireLeaf bool
	StatusMatch StatusMatch
}

// Outcome is the terminal result of polling a job.
type Outcome struct {
	State    State
	Result   json.RawMessage
	Attempts int
}

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the default Sleeper.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Poller drives a submitted job to a terminal state with a bounded number
// of status requests separated by a fixed interval.
type Poller struct {
	client      *Client
	maxAttempts int
	interval    time.Duration
	sleep       Sleeper
	logger      *slog.Logger
}

// NewPoller creates a Poller. A nil sleep uses Sleep.
func NewPoller(
	client *Client,
	maxAttempts int,
	interval time.Duration,
	sleep Sleeper,
	logger *slog.Logger,
) *Poller {
	if sleep == nil {
		sleep = Sleep
	}
	return &Poller{
		client:      client,
		maxAttempts: maxAttempts,
		interval:    interval,
		sleep:       sleep,
		logger:      logger.With("system", "poller"),
	}
}

// Poll issues at most maxAttempts status requests for job. It sleeps after
// every attempt that does not reach Ready, so a Ready outcome on attempt n
// follows n-1 sleeps and a TimedOut outcome follows maxAttempts sleeps.
// TimedOut is returned without error; Failed always carries one.
func (p *Poller) Poll(ctx context.Context, token string, job *Job, rd Readiness) (Outcome, error) {
	if p.maxAttempts <= 0 {
		return Outcome{State: StateTimedOut}, nil
	}

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		ready, err := p.check(ctx, token, job, rd)
		if err != nil {
			return Outcome{State: StateFailed, Attempts: attempt}, err
		}

		if ready {
			return Outcome{
				State:    StateReady,
				Result:   job.RawResult,
				Attempts: attempt,
			}, nil
		}

		p.logger.Debug(
			"results not ready",
			"job_id", job.ID,
			"attempt", attempt,
			"max_attempts", p.maxAttempts,
		)

		if err := p.sleep(ctx, p.interval); err != nil {
			return Outcome{State: StateFailed, Attempts: attempt}, fmt.Errorf("%w: wait: %w", ErrPoll, err)
		}
	}

	return Outcome{State: StateTimedOut, Attempts: p.maxAttempts}, nil
}

func (p *Poller) check(ctx context.Context, token string, job *Job, rd Readiness) (bool, error) {
	body, err := p.client.Results(ctx, token, job.ID)
	if err != nil {
		return false, err
	}

	if len(body) == 0 {
		job.Status = JobUnknown
		return false, nil
	}
	if !gjson.ValidBytes(body) {
		return false, fmt.Errorf("%w: malformed results document", ErrPoll)
	}

	doc := gjson.ParseBytes(body)

	if rd.StatusMatch.processing(doc.Get("status").String()) {
		job.Status = JobProcessing
		return false, nil
	}

	results := doc.Get("results")
	if !results.IsArray() {
		job.Status = JobUnknown
		return false, nil
	}

	first := results.Get("0")
	if !first.Exists() {
		job.Status = JobUnknown
		return false, nil
	}

	sub := first.Get(gjson.Escape(rd.ResultKey))
	if !sub.Exists() || (rd.RequireLeaf && !sub.Get("result").Exists()) {
		job.Status = JobUnknown
		return false, nil
	}

	job.Status = JobReady
	job.RawResult = json.RawMessage(sub.Raw)
	return true, nil
}
