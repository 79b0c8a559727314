package studio

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/inkstudio/inkstudio/internal/credentials"
	"github.com/inkstudio/inkstudio/internal/library"
	"github.com/inkstudio/inkstudio/internal/providers"
	"github.com/inkstudio/inkstudio/internal/storage"
	"github.com/inkstudio/inkstudio/internal/video"
)

type editCall struct {
	instruction string
	image       providers.Image
}

// fakeProvider records calls and returns canned results. When gate is set,
// every synchronous call signals started and then waits for gate to close.
type fakeProvider struct {
	mu sync.Mutex

	analysis   providers.Analysis
	analyzeErr error
	synthErr   error
	editErr    error
	answer     providers.Answer
	askErr     error

	gate    chan struct{}
	started chan struct{}

	analyzed    []providers.Image
	synthesized []string
	aspects     []providers.AspectRatio
	edits       []editCall
	questions   []string

	submitErr error
	submitted []providers.VideoRequest
	script    []providers.Operation
	checks    int
	fetches   []string
}

func (f *fakeProvider) wait() {
	if f.gate == nil {
		return
	}
	f.started <- struct{}{}
	<-f.gate
}

func (f *fakeProvider) Analyze(ctx context.Context, image providers.Image) (providers.Analysis, error) {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.analyzed = append(f.analyzed, image)
	return f.analysis, f.analyzeErr
}

func (f *fakeProvider) Synthesize(ctx context.Context, prompt string, aspect providers.AspectRatio) (providers.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.synthesized = append(f.synthesized, prompt)
	f.aspects = append(f.aspects, aspect)
	if f.synthErr != nil {
		return providers.Image{}, f.synthErr
	}
	return providers.Image{Data: []byte("synth:" + prompt), MimeType: "image/png"}, nil
}

func (f *fakeProvider) Edit(ctx context.Context, instruction string, image providers.Image) (providers.Image, error) {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, editCall{instruction: instruction, image: image})
	if f.editErr != nil {
		return providers.Image{}, f.editErr
	}
	return providers.Image{Data: []byte("edited:" + instruction), MimeType: "image/png"}, nil
}

func (f *fakeProvider) Ask(ctx context.Context, question string) (providers.Answer, error) {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.questions = append(f.questions, question)
	return f.answer, f.askErr
}

func (f *fakeProvider) SubmitVideo(ctx context.Context, req providers.VideoRequest) (providers.Operation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, req)
	if f.submitErr != nil {
		return providers.Operation{}, f.submitErr
	}
	return providers.Operation{Name: "models/veo/operations/op1"}, nil
}

func (f *fakeProvider) GetVideoOperation(ctx context.Context, name string) (providers.Operation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := f.checks
	if idx >= len(f.script) {
		idx = len(f.script) - 1
	}
	f.checks++
	if idx < 0 {
		return providers.Operation{Name: name}, nil
	}
	op := f.script[idx]
	op.Name = name
	return op, nil
}

func (f *fakeProvider) FetchVideo(ctx context.Context, uri string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches = append(f.fetches, uri)
	return []byte("mp4:" + uri), nil
}

func newTestDeps(t *testing.T, provider *fakeProvider) Deps {
	t.Helper()
	return Deps{
		Provider:    provider,
		Library:     library.NewStore(storage.NewMemoryStore(0)),
		Credentials: credentials.Static("test-key"),
		Poller:      video.NewPoller(provider, time.Millisecond),
	}
}

var photo = providers.Image{Data: []byte("photo-bytes"), MimeType: "image/jpeg"}
