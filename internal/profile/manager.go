package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kalambet/gitprofile/internal/storage"
)

var (
	// ErrNoMatch is returned by Switch when no stored profile matches the selector.
	ErrNoMatch = errors.New("no matching profile")

	// ErrMissingField is returned by Add when name or email is empty.
	ErrMissingField = errors.New("missing required field")

	// ErrIdentityUnavailable wraps failures to read the current git identity.
	ErrIdentityUnavailable = errors.New("current git identity unavailable")
)

// Store defines the storage operations the Manager needs.
// Implemented by storage.Store.
type Store interface {
	InsertProfile(p storage.Profile) error
	ListProfiles() ([]storage.Profile, error)
	FindProfile(aliasFilter, emailFilter string) (storage.Profile, error)
}

// Locker is implemented by stores that can serialize writers across processes.
type Locker interface {
	Lock(ctx context.Context) (func() error, error)
}

// Gateway reads and writes the global git identity.
// Implemented by gitconfig.Client.
type Gateway interface {
	CurrentEmail(ctx context.Context) (string, error)
	CurrentName(ctx context.Context) (string, error)
	SetIdentity(ctx context.Context, name, email string) error
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Manager implements list, add and switch over a Store and a Gateway.
type Manager struct {
	store Store
	git   Gateway
	clock Clock
	newID func() string
}

// NewManager creates a Manager. If store also implements Locker, add and
// switch hold its lock for their duration.
func NewManager(store Store, git Gateway) *Manager {
	return &Manager{
		store: store,
		git:   git,
		clock: realClock{},
		newID: func() string { return uuid.New().String() },
	}
}

// NewManagerWithClock creates a Manager with a custom clock (for testing).
func NewManagerWithClock(store Store, git Gateway, clock Clock) *Manager {
	m := NewManager(store, git)
	m.clock = clock
	return m
}

// List returns all profiles in storage order and the current git email.
// If git cannot be queried the profiles are still returned together with
// an error wrapping ErrIdentityUnavailable.
func (m *Manager) List(ctx context.Context) (Listing, error) {
	profiles, err := m.store.ListProfiles()
	if err != nil {
		return Listing{}, fmt.Errorf("listing profiles: %w", err)
	}

	current, err := m.git.CurrentEmail(ctx)
	if err != nil {
		return Listing{Profiles: profiles}, fmt.Errorf("%w: %w", ErrIdentityUnavailable, err)
	}

	return Listing{Profiles: profiles, CurrentEmail: current}, nil
}

// Add stores a new profile. Alias may be empty. Duplicate emails or aliases
// fail with an error matching storage.ErrDuplicate.
func (m *Manager) Add(ctx context.Context, name, email, alias string) (Profile, error) {
	if name == "" {
		return Profile{}, fmt.Errorf("%w: name", ErrMissingField)
	}
	if email == "" {
		return Profile{}, fmt.Errorf("%w: email", ErrMissingField)
	}

	unlock, err := m.lock(ctx)
	if err != nil {
		return Profile{}, err
	}
	defer unlock()

	p := Profile{
		ID:        m.newID(),
		Name:      name,
		Email:     email,
		Alias:     alias,
		CreatedAt: m.clock.Now().UTC().Truncate(time.Second),
	}
	if err := m.store.InsertProfile(p); err != nil {
		return Profile{}, fmt.Errorf("adding profile: %w", err)
	}

	slog.Debug("profile added", "id", p.ID, "email", p.Email, "alias", p.Alias)
	return p, nil
}

// Switch finds the first profile matching sel and makes it the global git
// identity. When nothing matches it returns ErrNoMatch without touching git.
func (m *Manager) Switch(ctx context.Context, sel Selector) (Profile, error) {
	unlock, err := m.lock(ctx)
	if err != nil {
		return Profile{}, err
	}
	defer unlock()

	p, err := m.store.FindProfile(sel.Alias, sel.Email)
	if errors.Is(err, storage.ErrNotFound) {
		slog.Debug("no profile matched", "alias", sel.Alias, "email", sel.Email)
		return Profile{}, ErrNoMatch
	}
	if err != nil {
		return Profile{}, fmt.Errorf("finding profile: %w", err)
	}

	if err := m.git.SetIdentity(ctx, p.Name, p.Email); err != nil {
		return Profile{}, fmt.Errorf("switching to %s: %w", p.Email, err)
	}

	slog.Debug("switched identity", "alias", p.Alias, "email", p.Email)
	return p, nil
}

// Current returns the global git identity.
func (m *Manager) Current(ctx context.Context) (Identity, error) {
	email, err := m.git.CurrentEmail(ctx)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrIdentityUnavailable, err)
	}
	name, err := m.git.CurrentName(ctx)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrIdentityUnavailable, err)
	}
	return Identity{Name: name, Email: email}, nil
}

func (m *Manager) lock(ctx context.Context) (func(), error) {
	l, ok := m.store.(Locker)
	if !ok {
		return func() {}, nil
	}
	unlock, err := l.Lock(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring profile lock: %w", err)
	}
	return func() {
		if err := unlock(); err != nil {
			slog.Warn("releasing profile lock", "error", err)
		}
	}, nil
}
