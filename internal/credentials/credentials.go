// Package credentials resolves the provider API key and lets the user
// select a different one mid-session.
package credentials

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/inkstudio/inkstudio/internal/models"
	"github.com/joho/godotenv"
)

// DefaultVars are the environment variables checked for a key, in order
var DefaultVars = []string{"GEMINI_API_KEY", "API_KEY"}

// Source supplies the key used for each provider request
type Source interface {
	APIKey() string
}

// Selector checks for and prompts for a usable credential
type Selector interface {
	HasCredential(ctx context.Context) bool
	PromptForCredential(ctx context.Context) error
}

// Env resolves the key from the process environment and .env files
type Env struct {
	vars     []string
	envFiles []string
	key      string
	mu       sync.RWMutex
}

// NewEnv resolves the key once from the environment
func NewEnv(envFiles ...string) *Env {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	e := &Env{vars: DefaultVars, envFiles: envFiles}
	for _, name := range e.vars {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			e.key = v
			break
		}
	}
	return e
}

// Require fails when no key was found; the application cannot start without one.
func (e *Env) Require() error {
	if e.APIKey() == "" {
		return fmt.Errorf("%w: set %s", models.ErrCredentialMissing, strings.Join(e.vars, " or "))
	}
	return nil
}

func (e *Env) APIKey() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.key
}

func (e *Env) HasCredential(_ context.Context) bool {
	return e.APIKey() != ""
}

// PromptForCredential re-reads the .env files so a key edited while the
// server runs is picked up.
func (e *Env) PromptForCredential(_ context.Context) error {
	values, err := godotenv.Read(e.envFiles...)
	if err != nil {
		slog.Warn("Unable to re-read env files", "files", e.envFiles, "err", err)
		values = map[string]string{}
	}

	for _, name := range e.vars {
		if v := strings.TrimSpace(values[name]); v != "" {
			return e.Select(v)
		}
	}
	for _, name := range e.vars {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return e.Select(v)
		}
	}
	return models.ErrCredentialMissing
}

// Select replaces the active key with one chosen by the user
func (e *Env) Select(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return models.ErrCredentialMissing
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.key = key
	slog.Info("API key selected")
	return nil
}

// Static is a fixed key, used by tests and the CLI --api-key flag
type Static string

func (s Static) APIKey() string { return string(s) }

func (s Static) HasCredential(context.Context) bool { return s != "" }

func (s Static) PromptForCredential(context.Context) error {
	if s == "" {
		return models.ErrCredentialMissing
	}
	return nil
}

// Capability is a key source that can also be checked and re-prompted
type Capability interface {
	Source
	Selector
}

// Override holds a key selected by one user. Until one is selected, and
// after a re-prompt, it falls back to the shared base source.
type Override struct {
	base Source
	mu   sync.RWMutex
	key  string
}

func NewOverride(base Source) *Override {
	return &Override{base: base}
}

func (o *Override) APIKey() string {
	o.mu.RLock()
	key := o.key
	o.mu.RUnlock()
	if key != "" {
		return key
	}
	if o.base == nil {
		return ""
	}
	return o.base.APIKey()
}

func (o *Override) HasCredential(_ context.Context) bool {
	return o.APIKey() != ""
}

// PromptForCredential drops the selected key and re-resolves the base one
func (o *Override) PromptForCredential(ctx context.Context) error {
	o.mu.Lock()
	o.key = ""
	o.mu.Unlock()

	if selector, ok := o.base.(Selector); ok {
		return selector.PromptForCredential(ctx)
	}
	if o.APIKey() == "" {
		return models.ErrCredentialMissing
	}
	return nil
}

// Select sets the key for this user only; the base source is untouched
func (o *Override) Select(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return models.ErrCredentialMissing
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.key = key
	return nil
}
