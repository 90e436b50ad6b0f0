// Package verification decides whether a session may play, must register
// first, or has no access at all, and where the player should be sent.
package verification

import (
	"context"
	"sync"

	"github.com/davidwalker2235/hcongame/internal/model"
)

// State is the verification state of a session
type State int

const (
	StateUninitialized State = iota
	StateChecking
	StateUnauthenticated
	StateNeedsRegistration
	StateVerified
	StateError
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateChecking:
		return "checking"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateNeedsRegistration:
		return "needs-registration"
	case StateVerified:
		return "verified"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// View is a page the player can be sent to
type View string

const (
	ViewRegistration View = "/"
	ViewLevels       View = "/levels"
	ViewAccessDenied View = "/wrong-access"
)

// Navigator performs redirects decided by the machine
type Navigator interface {
	Redirect(target View)
}

// NavigatorFunc adapts a function to Navigator
type NavigatorFunc func(View)

func (f NavigatorFunc) Redirect(target View) { f(target) }

// ProfileLookup loads the profile of a token, nil when there is none
type ProfileLookup interface {
	Get(ctx context.Context, token model.SessionToken) (*model.Profile, error)
}

// Config tunes the machine's transitions
type Config struct {
	// StrictMissingProfile treats a token without a profile as having no
	// access at all instead of sending it to registration
	StrictMissingProfile bool
	// MaxLevel caps the level Sync may store. Zero means model.MaxLevel.
	MaxLevel int
}

// DefaultConfig returns the default machine configuration
func DefaultConfig() Config {
	return Config{MaxLevel: model.MaxLevel}
}

// Snapshot is what callers observe of the machine
type Snapshot struct {
	State    State
	Token    model.SessionToken
	Profile  *model.Profile
	Verified model.Tristate
	Loading  bool
	// Redirect is the target issued by the check that produced this
	// snapshot, empty if none was issued
	Redirect View
}

// Machine is the verification state of one mounted view or client. All
// derived state belongs to the current token and is reset when it changes.
type Machine struct {
	mu     sync.Mutex
	lookup ProfileLookup
	nav    Navigator
	cfg    Config

	token      model.SessionToken
	state      State
	profile    *model.Profile
	generation uint64
	inFlight   bool
	redirected bool
}

// NewMachine creates a machine. nav may be nil when the caller only reads
// Snapshot.Redirect.
func NewMachine(lookup ProfileLookup, nav Navigator, cfg Config) *Machine {
	return &Machine{
		lookup: lookup,
		nav:    nav,
		cfg:    cfg,
	}
}

// SetToken switches the machine to token. A different token discards all
// derived state, re-enables redirects and invalidates checks in flight.
func (m *Machine) SetToken(token model.SessionToken) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if token == m.token && m.state != StateUninitialized {
		return
	}
	m.token = token
	m.state = StateUninitialized
	m.profile = nil
	m.redirected = false
	m.inFlight = false
	m.generation++
}

// Snapshot returns the current state without checking
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot("")
}

// Check resolves the state for the current token while the player is on
// view current. Only one check runs at a time; a concurrent call returns
// model.ErrRequestInFlight. A check overtaken by a token change returns
// model.ErrStaleResult and leaves the new token's state untouched.
func (m *Machine) Check(ctx context.Context, current View) (Snapshot, error) {
	m.mu.Lock()
	if m.inFlight {
		snap := m.snapshot("")
		m.mu.Unlock()
		return snap, model.ErrRequestInFlight
	}

	if m.token == "" {
		m.state = StateUnauthenticated
		m.profile = nil
		target := m.decideRedirect(current, ViewAccessDenied)
		snap := m.snapshot(target)
		m.mu.Unlock()
		m.navigate(target)
		return snap, nil
	}

	m.state = StateChecking
	m.inFlight = true
	gen := m.generation
	token := m.token
	m.mu.Unlock()

	profile, err := m.lookup.Get(ctx, token)

	m.mu.Lock()
	if gen != m.generation {
		snap := m.snapshot("")
		m.mu.Unlock()
		return snap, model.ErrStaleResult
	}
	m.inFlight = false

	var target View
	switch {
	case err != nil:
		m.state = StateError
		m.profile = nil
		target = m.decideRedirect(current, ViewAccessDenied)

	case profile == nil && m.cfg.StrictMissingProfile:
		m.state = StateUnauthenticated
		m.profile = nil
		target = m.decideRedirect(current, ViewAccessDenied)

	case !profile.IsVerified():
		// Partial profiles are kept so the registration form can be prefilled
		m.state = StateNeedsRegistration
		m.profile = profile
		target = m.decideRedirect(current, ViewRegistration)

	default:
		m.state = StateVerified
		m.profile = profile
		if current == ViewRegistration || current == ViewAccessDenied {
			target = m.decideRedirect(current, ViewLevels)
		}
	}

	snap := m.snapshot(target)
	m.mu.Unlock()

	m.navigate(target)
	return snap, err
}

// decideRedirect returns target if a redirect should be issued and marks
// redirects as done for this token. Callers hold m.mu.
func (m *Machine) decideRedirect(current, target View) View {
	if m.redirected || current == target {
		return ""
	}
	m.redirected = true
	return target
}

func (m *Machine) navigate(target View) {
	if target != "" && m.nav != nil {
		m.nav.Redirect(target)
	}
}

// snapshot builds a snapshot. Callers hold m.mu.
func (m *Machine) snapshot(redirect View) Snapshot {
	snap := Snapshot{
		State:    m.state,
		Token:    m.token,
		Loading:  m.state == StateChecking,
		Redirect: redirect,
	}
	if m.profile != nil {
		p := *m.profile
		snap.Profile = &p
	}
	switch m.state {
	case StateVerified:
		snap.Verified = model.True
	case StateUnauthenticated, StateNeedsRegistration, StateError:
		snap.Verified = model.False
	default:
		snap.Verified = model.Unknown
	}
	return snap
}
