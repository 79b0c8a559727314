package studio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/inkstudio/inkstudio/internal/codec"
	"github.com/inkstudio/inkstudio/internal/gemini"
	"github.com/inkstudio/inkstudio/internal/models"
	"github.com/inkstudio/inkstudio/internal/providers"
	"github.com/inkstudio/inkstudio/internal/video"
)

// DefaultMessageInterval rotates the progress message shown while a video renders
const DefaultMessageInterval = 4 * time.Second

// DefaultBodyPart is the placement suggested before the user types one
const DefaultBodyPart = "a person's forearm"

// LoadingMessages are shown in turn while a video job runs
var LoadingMessages = []string{
	"Warming up the virtual tattoo machine...",
	"Inking the digital skin...",
	"Applying realistic lighting and shadows...",
	"Finalizing the details...",
	"This can take a few minutes, hang tight!",
}

const (
	bodyPartRequired = "Please describe the body part for the simulation."
	keyNotFound      = "API Key not found. Please select a valid API key."
)

// keySelector is implemented by credential sources that accept a key typed by the user
type keySelector interface {
	Select(key string) error
}

// Video simulates a design on skin with an image-to-video job
type Video struct {
	deps   Deps
	design providers.Image
	now    func() time.Time

	mu sync.Mutex
	status
	keySelected bool
	job         *video.Job
	started     time.Time
	cancel      context.CancelFunc
	done        chan struct{}
}

// VideoState is a snapshot of the video screen
type VideoState struct {
	Phase           Phase         `json:"phase"`
	Error           string        `json:"error,omitempty"`
	KeySelected     bool          `json:"keySelected"`
	Message         string        `json:"message,omitempty"`
	Design          *ImageView    `json:"design,omitempty"`
	DefaultBodyPart string        `json:"defaultBodyPart"`
	AspectRatios    []string      `json:"aspectRatios"`
	Job             *video.Job    `json:"job,omitempty"`
	Ready           bool          `json:"ready"`
	Elapsed         time.Duration `json:"elapsed,omitempty"`
}

func newVideo(ctx context.Context, deps Deps, design providers.Image) *Video {
	v := &Video{
		deps:   deps,
		design: design,
		now:    time.Now,
		status: status{phase: PhaseIdle},
	}
	if deps.Credentials != nil {
		v.keySelected = deps.Credentials.HasCredential(ctx)
	}
	return v
}

func (v *Video) State() VideoState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshot()
}

func (v *Video) snapshot() VideoState {
	ratios := make([]string, 0, len(providers.VideoAspectRatios))
	for _, r := range providers.VideoAspectRatios {
		ratios = append(ratios, string(r))
	}
	state := VideoState{
		Phase:           v.phase,
		Error:           v.errText,
		KeySelected:     v.keySelected,
		Design:          imageView(&v.design),
		DefaultBodyPart: DefaultBodyPart,
		AspectRatios:    ratios,
	}
	if v.job != nil {
		job := *v.job
		state.Job = &job
		state.Ready = job.State == video.StateComplete && len(job.Video) > 0
	}
	if v.busy() {
		state.Elapsed = v.now().Sub(v.started)
		state.Message = loadingMessage(state.Elapsed, v.deps.MessageInterval)
	}
	return state
}

// loadingMessage picks the progress message for the time spent so far
func loadingMessage(elapsed, interval time.Duration) string {
	if interval <= 0 {
		interval = DefaultMessageInterval
	}
	if elapsed < 0 {
		elapsed = 0
	}
	return LoadingMessages[int(elapsed/interval)%len(LoadingMessages)]
}

// SelectCredential accepts a key from the user, or asks the credential
// source for one when key is empty.
func (v *Video) SelectCredential(ctx context.Context, key string) (VideoState, error) {
	var err error
	switch selector := v.deps.Credentials.(type) {
	case nil:
		err = models.ErrCredentialMissing
	case keySelector:
		if strings.TrimSpace(key) != "" {
			err = selector.Select(key)
		} else {
			err = v.deps.Credentials.PromptForCredential(ctx)
		}
	default:
		err = selector.PromptForCredential(ctx)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		v.keySelected = false
		v.failWith(keyNotFound)
		return v.snapshot(), err
	}
	v.keySelected = true
	if !v.busy() {
		v.phase = PhaseIdle
	}
	v.errText = ""
	return v.snapshot(), nil
}

// Generate submits a video of the design on bodyPart and polls it in the
// background. A previous job is abandoned.
func (v *Video) Generate(ctx context.Context, bodyPart string, aspectRatio providers.AspectRatio) (VideoState, error) {
	if aspectRatio == "" {
		aspectRatio = providers.AspectLandscape
	}

	v.mu.Lock()
	if v.busy() {
		state := v.snapshot()
		v.mu.Unlock()
		return state, models.ErrBusy
	}
	if !v.keySelected {
		v.failWith(keyNotFound)
		state := v.snapshot()
		v.mu.Unlock()
		return state, models.ErrCredentialMissing
	}
	if strings.TrimSpace(bodyPart) == "" {
		v.failWith(bodyPartRequired)
		state := v.snapshot()
		v.mu.Unlock()
		return state, fmt.Errorf("%w: %s", models.ErrValidation, bodyPartRequired)
	}

	req := providers.VideoRequest{
		Prompt:      fmt.Sprintf("Create a realistic video showing this tattoo design on %s. Show the final, healed tattoo on the skin.", bodyPart),
		Image:       v.design,
		AspectRatio: aspectRatio,
	}
	if err := req.Validate(); err != nil {
		v.failWith(err.Error())
		state := v.snapshot()
		v.mu.Unlock()
		return state, err
	}

	v.stopPolling()
	v.invalidate()
	epoch, _ := v.begin()
	v.job = nil
	v.done = nil
	v.started = v.now()
	v.mu.Unlock()

	job, err := v.deps.Poller.Submit(ctx, req)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.stale(epoch) {
		return v.snapshot(), ErrStale
	}
	if err != nil {
		slog.Error("Failed to start video generation", "err", err)
		if gemini.IsEntityNotFound(err) || errors.Is(err, models.ErrCredentialMissing) {
			v.keySelected = false
			v.failWith(keyNotFound)
		} else {
			v.failWith("Failed to start video generation: " + err.Error())
		}
		return v.snapshot(), err
	}

	v.job = &job
	pollCtx, cancel := context.WithCancel(context.Background())
	v.cancel = cancel
	v.done = make(chan struct{})
	go v.poll(pollCtx, epoch, job, v.done)

	return v.snapshot(), nil
}

func (v *Video) poll(ctx context.Context, epoch uint64, job video.Job, done chan struct{}) {
	defer close(done)

	_, err := v.deps.Poller.Run(ctx, job, func(j video.Job) bool {
		v.mu.Lock()
		defer v.mu.Unlock()
		if v.stale(epoch) {
			return false
		}
		v.job = &j
		switch j.State {
		case video.StateComplete:
			v.succeed()
		case video.StateFailed:
			v.failWith("An error occurred while checking video status: " + j.Message)
		}
		return true
	})
	if err != nil {
		slog.Debug("Video polling stopped", "operation", job.Name, "err", err)
	}
}

// Wait blocks until the current job settles or ctx is done
func (v *Video) Wait(ctx context.Context) (VideoState, error) {
	v.mu.Lock()
	done := v.done
	v.mu.Unlock()

	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			return v.State(), ctx.Err()
		}
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.job != nil && v.job.State == video.StateFailed {
		return v.snapshot(), v.job.Err
	}
	return v.snapshot(), nil
}

// Download returns the finished video and its file name
func (v *Video) Download() ([]byte, string, string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.job == nil || v.job.State != video.StateComplete || len(v.job.Video) == 0 {
		return nil, "", "", fmt.Errorf("%w: no finished video", models.ErrNotFound)
	}
	mimeType := v.job.MimeType
	return v.job.Video, mimeType, codec.FileName(path.Base(v.job.Name), mimeType), nil
}

// stopPolling cancels the background poll; the caller holds v.mu
func (v *Video) stopPolling() {
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
}

func (v *Video) close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.stopPolling()
	v.invalidate()
}
