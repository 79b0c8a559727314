package cmd

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/inkstudio/inkstudio/internal/credentials"
	"github.com/inkstudio/inkstudio/internal/gemini"
	"github.com/inkstudio/inkstudio/internal/library"
	"github.com/inkstudio/inkstudio/internal/providers"
	"github.com/inkstudio/inkstudio/internal/storage"
	"github.com/inkstudio/inkstudio/internal/studio"
	"github.com/inkstudio/inkstudio/internal/video"
)

// app holds what a command needs to talk to the provider and the library
type app struct {
	opts   *rootOptions
	kv     storage.KV
	keys   *credentials.Env
	client *gemini.Client
}

// openApp opens the configured storage. With withProvider set it also
// requires an API key and builds the generation client.
func openApp(opts *rootOptions, withProvider bool) (*app, error) {
	a := &app{opts: opts}

	if withProvider {
		a.keys = credentials.NewEnv()
		if err := a.keys.Require(); err != nil {
			return nil, err
		}
		a.client = gemini.New(opts.cfg.Gemini, a.keys)
	}

	kv, err := storage.Open(opts.cfg.Storage.Driver, opts.cfg.Storage.Path, opts.cfg.Storage.Quota)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	a.kv = kv
	return a, nil
}

// library returns the saved designs of the selected profile
func (a *app) library() *library.Store {
	return library.NewStore(storage.Scoped(a.kv, "profile_"+a.opts.profile))
}

func (a *app) workspace() *studio.Workspace {
	return studio.NewWorkspace(studio.Deps{
		Provider:        a.client,
		Library:         a.library(),
		Credentials:     a.keys,
		Poller:          video.NewPoller(a.client, a.opts.cfg.Video.PollInterval),
		MessageInterval: a.opts.cfg.Video.MessageInterval,
	})
}

func (a *app) Close() {
	if err := a.kv.Close(); err != nil {
		slog.Error("Unable to close storage", "err", err)
	}
}

// readImage loads an image file, sniffing its media type
func readImage(path string) (providers.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return providers.Image{}, fmt.Errorf("failed to read image: %w", err)
	}
	img := providers.Image{Data: data, MimeType: http.DetectContentType(data)}
	if err := providers.ValidateImage(img); err != nil {
		return providers.Image{}, err
	}
	return img, nil
}

// writeOutput writes data to path and reports where it went
func writeOutput(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Printf("Wrote %s (%d bytes)\n", path, len(data))
	return nil
}

// screenError prefixes err with the text the screen would show
func screenError(text string, err error) error {
	if text == "" {
		return err
	}
	return fmt.Errorf("%s: %w", text, err)
}
