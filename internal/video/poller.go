// Package video drives long-running image-to-video jobs from submission to a
// downloaded result by polling the provider at a flat interval.
package video

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/inkstudio/inkstudio/internal/models"
	"github.com/inkstudio/inkstudio/internal/providers"
)

// DefaultInterval is the delay between status checks
const DefaultInterval = 10 * time.Second

// State is the lifecycle position of a job
type State string

const (
	StateSubmitted State = "submitted"
	StatePending   State = "pending"
	StateComplete  State = "complete"
	StateFailed    State = "failed"
)

// Terminal reports whether no further transition is possible
func (s State) Terminal() bool {
	return s == StateComplete || s == StateFailed
}

// ErrAbandoned is returned by Run when the observer lost interest in the job
var ErrAbandoned = errors.New("video job abandoned")

// Job is one video generation tracked by its provider operation name
type Job struct {
	Name     string `json:"name"`
	State    State  `json:"state"`
	VideoURI string `json:"videoUri,omitempty"`
	Video    []byte `json:"-"`
	MimeType string `json:"mimeType,omitempty"`
	Message  string `json:"message,omitempty"`
	Err      error  `json:"-"`
	Checks   int    `json:"checks"`
}

// transition moves the job to a new state unless it already settled
func (j *Job) transition(to State) bool {
	if j.State.Terminal() {
		return false
	}
	j.State = to
	return true
}

func (j *Job) fail(err error) {
	if !j.transition(StateFailed) {
		return
	}
	j.Err = err
	j.Message = err.Error()
}

// Observer receives every state change. Returning false stops the poller and
// discards whatever the job does afterwards.
type Observer func(Job) bool

// Poller submits and polls video jobs
type Poller struct {
	provider providers.VideoGenerator
	interval time.Duration
}

// NewPoller returns a poller checking status every interval
func NewPoller(provider providers.VideoGenerator, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{provider: provider, interval: interval}
}

// Interval returns the delay between status checks
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// Submit starts a job on the provider
func (p *Poller) Submit(ctx context.Context, req providers.VideoRequest) (Job, error) {
	op, err := p.provider.SubmitVideo(ctx, req)
	if err != nil {
		return Job{}, err
	}

	slog.Info("Video job submitted", "operation", op.Name)
	return Job{Name: op.Name, State: StateSubmitted}, nil
}

// CheckStatus performs a single status fetch and returns the refreshed job.
// A finished job with a locator is Complete but has no bytes yet.
func (p *Poller) CheckStatus(ctx context.Context, job Job) Job {
	if job.State.Terminal() {
		return job
	}
	job.Checks++

	op, err := p.provider.GetVideoOperation(ctx, job.Name)
	if err != nil {
		job.fail(err)
		return job
	}

	if !op.Done {
		job.transition(StatePending)
		return job
	}

	switch {
	case op.VideoURI == "" && op.Error != "":
		job.fail(fmt.Errorf("%w: %s", models.ErrMissingResult, op.Error))
	case op.VideoURI == "":
		job.fail(models.ErrMissingResult)
	default:
		job.VideoURI = op.VideoURI
		job.transition(StateComplete)
	}
	return job
}

// fetch downloads the finished video. The job is only reported Complete once
// the bytes are in hand; a failed download fails the job instead.
func (p *Poller) fetch(ctx context.Context, job Job, uri string) Job {
	data, err := p.provider.FetchVideo(ctx, uri)
	if err != nil {
		if !errors.Is(err, models.ErrNetworkFailure) {
			err = fmt.Errorf("%w: %w", models.ErrNetworkFailure, err)
		}
		job.fail(err)
		return job
	}

	job.VideoURI = uri
	job.Video = data
	job.MimeType = "video/mp4"
	job.transition(StateComplete)
	return job
}

// Run polls job until it settles, the observer returns false, or ctx is
// cancelled. The first check happens right away, later ones one interval
// apart.
func (p *Poller) Run(ctx context.Context, job Job, observe Observer) (Job, error) {
	if observe == nil {
		observe = func(Job) bool { return true }
	}

	if job.transition(StatePending) && !observe(job) {
		return job, ErrAbandoned
	}

	timer := time.NewTimer(0)
	defer timer.Stop()

	for !job.State.Terminal() {
		if err := ctx.Err(); err != nil {
			return job, err
		}
		select {
		case <-ctx.Done():
			return job, ctx.Err()
		case <-timer.C:
		}

		next := p.CheckStatus(ctx, job)
		if ctx.Err() != nil {
			return job, ctx.Err()
		}
		if next.State == StateComplete && next.Video == nil {
			job.Checks = next.Checks
			next = p.fetch(ctx, job, next.VideoURI)
			if ctx.Err() != nil {
				return job, ctx.Err()
			}
		}
		job = next

		if job.State.Terminal() {
			slog.Info("Video job settled", "operation", job.Name, "state", job.State, "checks", job.Checks, "message", job.Message)
		}
		if !observe(job) {
			return job, ErrAbandoned
		}
		if !job.State.Terminal() {
			timer.Reset(p.interval)
		}
	}
	return job, nil
}
