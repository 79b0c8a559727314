package credentials

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/inkstudio/inkstudio/internal/models"
)

func TestNewEnv(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "fallback-key")

	env := NewEnv(filepath.Join(t.TempDir(), "missing.env"))
	if env.APIKey() != "fallback-key" {
		t.Errorf("Expected fallback-key, got %q", env.APIKey())
	}
	if err := env.Require(); err != nil {
		t.Errorf("Require: %v", err)
	}

	t.Setenv("GEMINI_API_KEY", "primary-key")
	if got := NewEnv().APIKey(); got != "primary-key" {
		t.Errorf("Expected GEMINI_API_KEY to win, got %q", got)
	}
}

func TestRequireMissing(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "")

	env := NewEnv(filepath.Join(t.TempDir(), "missing.env"))
	if env.HasCredential(context.Background()) {
		t.Error("Expected no credential")
	}
	if err := env.Require(); !errors.Is(err, models.ErrCredentialMissing) {
		t.Errorf("Expected ErrCredentialMissing, got %v", err)
	}
}

func TestPromptForCredentialRereadsEnvFile(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "")

	path := filepath.Join(t.TempDir(), ".env")
	env := NewEnv(path)

	if err := env.PromptForCredential(context.Background()); !errors.Is(err, models.ErrCredentialMissing) {
		t.Fatalf("Expected ErrCredentialMissing before the file exists, got %v", err)
	}

	if err := os.WriteFile(path, []byte("GEMINI_API_KEY=billing-enabled-key\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := env.PromptForCredential(context.Background()); err != nil {
		t.Fatalf("PromptForCredential: %v", err)
	}
	if env.APIKey() != "billing-enabled-key" {
		t.Errorf("Expected key from .env, got %q", env.APIKey())
	}
}

func TestSelect(t *testing.T) {
	env := &Env{vars: DefaultVars}
	if err := env.Select("  "); !errors.Is(err, models.ErrCredentialMissing) {
		t.Errorf("Expected blank key to be rejected, got %v", err)
	}
	if err := env.Select("new-key"); err != nil {
		t.Fatal(err)
	}
	if !env.HasCredential(context.Background()) || env.APIKey() != "new-key" {
		t.Errorf("Expected new-key to be active, got %q", env.APIKey())
	}
}

func TestOverrideKeepsBaseUntouched(t *testing.T) {
	ctx := context.Background()
	base := &Env{vars: DefaultVars, key: "owner-key"}
	first := NewOverride(base)
	second := NewOverride(base)

	if first.APIKey() != "owner-key" || !first.HasCredential(ctx) {
		t.Fatalf("Expected fallback to the base key, got %q", first.APIKey())
	}
	if err := first.Select("  "); !errors.Is(err, models.ErrCredentialMissing) {
		t.Errorf("Expected blank key to be rejected, got %v", err)
	}
	if err := first.Select("visitor-key"); err != nil {
		t.Fatal(err)
	}

	if first.APIKey() != "visitor-key" {
		t.Errorf("Expected the selected key, got %q", first.APIKey())
	}
	if second.APIKey() != "owner-key" || base.APIKey() != "owner-key" {
		t.Errorf("Selecting a key leaked: second=%q base=%q", second.APIKey(), base.APIKey())
	}
}

func TestOverridePromptFallsBack(t *testing.T) {
	ctx := context.Background()

	o := NewOverride(Static("owner-key"))
	if err := o.Select("visitor-key"); err != nil {
		t.Fatal(err)
	}
	if err := o.PromptForCredential(ctx); err != nil {
		t.Fatalf("PromptForCredential: %v", err)
	}
	if o.APIKey() != "owner-key" {
		t.Errorf("Expected the base key after re-prompting, got %q", o.APIKey())
	}

	empty := NewOverride(Static(""))
	if empty.HasCredential(ctx) {
		t.Error("Expected no credential without a base key")
	}
	if err := empty.PromptForCredential(ctx); !errors.Is(err, models.ErrCredentialMissing) {
		t.Errorf("Expected ErrCredentialMissing, got %v", err)
	}
}
