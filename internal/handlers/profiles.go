package handlers

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/inkstudio/inkstudio/internal/credentials"
	"github.com/inkstudio/inkstudio/internal/library"
	"github.com/inkstudio/inkstudio/internal/storage"
	"github.com/inkstudio/inkstudio/internal/studio"
	"github.com/inkstudio/inkstudio/internal/video"
)

// ProfileCookie identifies the browser profile a request belongs to
const ProfileCookie = "inkstudio_profile"

// Defaults for the in-memory profile table
const (
	DefaultMaxProfiles        = 1000
	DefaultProfileIdleTimeout = 24 * time.Hour
)

type profile struct {
	ws       *studio.Workspace
	lastSeen time.Time
}

// ProfileStore keeps one workspace per browser profile. Each profile's
// library lives under its own key prefix on the shared backend, and each
// profile selects its API key without affecting the others. Idle profiles
// are evicted; their saved designs stay in storage.
type ProfileStore struct {
	opts     Options
	now      func() time.Time
	mu       sync.Mutex
	profiles map[string]*profile
}

func NewProfileStore(opts Options) *ProfileStore {
	if opts.KV == nil {
		opts.KV = storage.NewMemoryStore(0)
	}
	if opts.MaxProfiles <= 0 {
		opts.MaxProfiles = DefaultMaxProfiles
	}
	if opts.ProfileIdleTimeout <= 0 {
		opts.ProfileIdleTimeout = DefaultProfileIdleTimeout
	}
	return &ProfileStore{
		opts:     opts,
		now:      time.Now,
		profiles: make(map[string]*profile),
	}
}

// Get returns the workspace of a profile, creating it on first use
func (s *ProfileStore) Get(id string) *studio.Workspace {
	now := s.now()

	s.mu.Lock()
	if p, ok := s.profiles[id]; ok {
		p.lastSeen = now
		s.mu.Unlock()
		return p.ws
	}
	evicted := s.evict(now)
	ws := s.newWorkspace(id)
	s.profiles[id] = &profile{ws: ws, lastSeen: now}
	s.mu.Unlock()

	for _, old := range evicted {
		old.Close()
	}
	slog.Info("Profile created", "profile", id)
	return ws
}

func (s *ProfileStore) newWorkspace(id string) *studio.Workspace {
	keys := credentials.NewOverride(s.opts.Credentials)
	provider := s.opts.Provider
	if s.opts.NewProvider != nil {
		provider = s.opts.NewProvider(keys)
	}
	return studio.NewWorkspace(studio.Deps{
		Provider:        provider,
		Library:         library.NewStore(storage.Scoped(s.opts.KV, "profile_"+id)),
		Credentials:     keys,
		Poller:          video.NewPoller(provider, s.opts.PollInterval),
		MessageInterval: s.opts.MessageInterval,
	})
}

// evict drops idle profiles, then the least recently used ones until there
// is room for one more. The caller holds s.mu.
func (s *ProfileStore) evict(now time.Time) []*studio.Workspace {
	var evicted []*studio.Workspace
	for id, p := range s.profiles {
		if now.Sub(p.lastSeen) > s.opts.ProfileIdleTimeout {
			evicted = append(evicted, p.ws)
			delete(s.profiles, id)
		}
	}

	for len(s.profiles) >= s.opts.MaxProfiles {
		var oldestID string
		var oldest time.Time
		for id, p := range s.profiles {
			if oldestID == "" || p.lastSeen.Before(oldest) {
				oldestID, oldest = id, p.lastSeen
			}
		}
		evicted = append(evicted, s.profiles[oldestID].ws)
		delete(s.profiles, oldestID)
	}

	if len(evicted) > 0 {
		slog.Info("Profiles evicted", "count", len(evicted), "remaining", len(s.profiles))
	}
	return evicted
}

// Len returns the number of profiles in memory
func (s *ProfileStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.profiles)
}

func (s *ProfileStore) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.profiles {
		p.ws.Close()
	}
}

// workspace resolves the profile cookie, issuing a new profile when the
// request carries none.
func (h *Handler) workspace(w http.ResponseWriter, r *http.Request) *studio.Workspace {
	if cookie, err := r.Cookie(ProfileCookie); err == nil {
		if id, err := uuid.Parse(cookie.Value); err == nil {
			return h.profiles.Get(id.String())
		}
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     ProfileCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().AddDate(1, 0, 0),
	})
	return h.profiles.Get(id)
}
