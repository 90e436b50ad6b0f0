// Package levels drives a player's progression through the challenge
// levels: story loading, prompts, secret words and unlocking.
package levels

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/davidwalker2235/hcongame/internal/challenge"
	"github.com/davidwalker2235/hcongame/internal/model"
)

// Phase is the state of one level as seen by the player
type Phase int

const (
	PhaseLocked Phase = iota
	PhaseUnlockedUnvisited
	PhaseStoryLoading
	PhaseStoryReady
	PhaseAwaitingPrompt
	PhasePromptLoading
	PhaseResponseReady
	PhaseAwaitingSecret
	PhaseSecretChecking
	PhaseCompleted
)

var phaseNames = map[Phase]string{
	PhaseLocked:            "locked",
	PhaseUnlockedUnvisited: "unlocked-unvisited",
	PhaseStoryLoading:      "story-loading",
	PhaseStoryReady:        "story-ready",
	PhaseAwaitingPrompt:    "awaiting-prompt",
	PhasePromptLoading:     "prompt-loading",
	PhaseResponseReady:     "response-ready",
	PhaseAwaitingSecret:    "awaiting-secret",
	PhaseSecretChecking:    "secret-checking",
	PhaseCompleted:         "completed",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return "unknown"
}

// Busy reports whether a request for the level is outstanding
func (p Phase) Busy() bool {
	return p == PhaseStoryLoading || p == PhasePromptLoading || p == PhaseSecretChecking
}

// Messages shown after a secret word check
const (
	IncorrectMessage = "Incorrect secret word. Try again."
	successFormat    = "Congratulations, Sir %s. Proceed to the next level."
)

// SuccessMessage is shown when the secret word of a level was correct
func SuccessMessage(nickname string) string {
	if strings.TrimSpace(nickname) == "" {
		nickname = "User"
	}
	return fmt.Sprintf(successFormat, nickname)
}

// LevelWriter persists the player's unlocked level
type LevelWriter interface {
	SetLevel(ctx context.Context, token model.SessionToken, level int) error
}

// Config configures progression
type Config struct {
	MaxLevel int
	// IdleTTL is how long a Registry keeps an unused controller
	IdleTTL time.Duration
}

// DefaultConfig returns the default progression configuration
func DefaultConfig() Config {
	return Config{
		MaxLevel: model.MaxLevel,
		IdleTTL:  2 * time.Hour,
	}
}

type levelState struct {
	phase    Phase
	story    *model.Story
	response string
	// responseSeq numbers responses so each one gets its own reveal key
	responseSeq      int
	storyRevealed    bool
	responseRevealed bool
	correct          bool
	message          string
	err              string
}

// Controller is the progression state of one session. It is safe for
// concurrent use; the lock is never held across a network call.
type Controller struct {
	mu       sync.Mutex
	token    model.SessionToken
	api      challenge.API
	levels   LevelWriter
	cfg      Config
	logger   *slog.Logger
	unlocked int
	selected int
	states   map[int]*levelState

	bootstrapped  bool
	bootstrapping bool
	// generation changes whenever the selected level changes; requests
	// finishing under an older generation are discarded
	generation uint64
}

// NewController creates the controller for token
func NewController(token model.SessionToken, api challenge.API, levels LevelWriter, cfg Config, logger *slog.Logger) *Controller {
	if cfg.MaxLevel < 1 {
		cfg.MaxLevel = model.MaxLevel
	}
	return &Controller{
		token:    token,
		api:      api,
		levels:   levels,
		cfg:      cfg,
		logger:   logger.With("component", "levels"),
		unlocked: 1,
		selected: 1,
		states:   make(map[int]*levelState),
	}
}

// Token returns the session the controller belongs to
func (c *Controller) Token() model.SessionToken {
	return c.token
}

// Bootstrapped reports whether Bootstrap has completed
func (c *Controller) Bootstrapped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bootstrapped
}

// Bootstrap initialises the controller from the stored profile and the
// level the challenge API reports, then selects the unlocked level. It runs
// once; later calls are no-ops and a call made while the first is still
// running returns model.ErrRequestInFlight. An API failure is not fatal:
// the profile's level is used.
func (c *Controller) Bootstrap(ctx context.Context, profile *model.Profile) error {
	c.mu.Lock()
	if c.bootstrapped {
		c.mu.Unlock()
		return nil
	}
	if c.bootstrapping {
		c.mu.Unlock()
		return model.ErrRequestInFlight
	}
	c.bootstrapping = true
	stored := profile.UnlockedLevel(c.cfg.MaxLevel)
	c.unlocked = stored
	c.selected = stored
	c.mu.Unlock()

	current, err := c.api.Bootstrap(ctx, c.token)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.bootstrapping = false
	c.bootstrapped = true

	if err != nil {
		c.logger.Warn("bootstrap lookup failed", "error", err)
		return nil
	}

	level := model.ClampLevel(current.Level, c.cfg.MaxLevel)
	if level > c.unlocked {
		c.unlocked = level
		c.selected = level
		c.generation++
	}
	if current.Story != "" && current.Level == c.selected {
		st := c.state(c.selected)
		story := *current
		st.story = &story
		st.phase = PhaseStoryReady
	}

	if level > stored {
		if err := c.levels.SetLevel(ctx, c.token, level); err != nil {
			c.logger.Warn("failed to store bootstrapped level", "level", level, "error", err)
		}
	}
	return nil
}

// SyncProfile applies a live profile update. A lower stored level also
// moves the selection down so the player never sits on a locked level.
func (c *Controller) SyncProfile(profile *model.Profile) {
	c.mu.Lock()
	defer c.mu.Unlock()

	unlocked := profile.UnlockedLevel(c.cfg.MaxLevel)
	if unlocked == c.unlocked {
		return
	}
	c.unlocked = unlocked
	if c.selected > unlocked {
		c.selected = unlocked
		c.generation++
	}
}

// Unlocked returns the highest playable level
func (c *Controller) Unlocked() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unlocked
}

// Select makes level the selected one and loads its story if needed.
// Levels below the unlocked level are history and render from cache only.
// Selecting the level that is already selected with its story loaded or
// loading does nothing; after a failed load it retries.
func (c *Controller) Select(ctx context.Context, level int) error {
	c.mu.Lock()
	if level < 1 || level > c.cfg.MaxLevel {
		c.mu.Unlock()
		return fmt.Errorf("%w: %d", model.ErrInvalidLevel, level)
	}
	if level > c.unlocked {
		c.mu.Unlock()
		return fmt.Errorf("%w: %d", model.ErrLevelLocked, level)
	}

	if level != c.selected {
		c.selected = level
		c.generation++
	}
	st := c.state(level)

	if level < c.unlocked || st.story != nil || st.phase == PhaseStoryLoading {
		c.mu.Unlock()
		return nil
	}

	st.phase = PhaseStoryLoading
	st.err = ""
	gen := c.generation
	c.mu.Unlock()

	story, err := c.api.Story(ctx, c.token, level)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		st.phase = PhaseUnlockedUnvisited
		if gen == c.generation {
			st.err = errorMessage("Could not load the story", err)
		}
		c.logger.Warn("story fetch failed", "level", level, "error", err)
		return err
	}

	// The story is worth caching even if the player moved on meanwhile
	st.story = story
	st.phase = PhaseStoryReady
	if gen != c.generation {
		return model.ErrStaleResult
	}
	return nil
}

// SubmitPrompt sends prompt for the selected level and stores the reply
func (c *Controller) SubmitPrompt(ctx context.Context, level int, prompt string) (*model.PromptReply, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, model.ErrEmptyPrompt
	}

	c.mu.Lock()
	st, err := c.playable(level)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	prev := st.phase
	if prev == PhaseStoryReady {
		prev = PhaseAwaitingPrompt
	}
	st.phase = PhasePromptLoading
	st.storyRevealed = true
	st.response = ""
	st.err = ""
	st.message = ""
	gen := c.generation
	c.mu.Unlock()

	reply, err := c.api.Ask(ctx, c.token, level, prompt)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		st.phase = prev
		return nil, model.ErrStaleResult
	}
	if err != nil {
		st.phase = prev
		st.err = errorMessage("Could not send the prompt", err)
		c.logger.Warn("prompt failed", "level", level, "error", err)
		return nil, err
	}

	st.response = reply.Response
	st.responseSeq++
	st.responseRevealed = false
	st.phase = PhaseResponseReady
	return reply, nil
}

// SubmitSecret checks secret for the selected level. A correct word raises
// the stored level to the next one, capped at the maximum, and never
// lowers it. An incorrect word leaves everything editable.
func (c *Controller) SubmitSecret(ctx context.Context, level int, secret, nickname string) (*model.Verdict, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, model.ErrEmptySecret
	}

	c.mu.Lock()
	st, err := c.playable(level)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	prev := st.phase
	st.phase = PhaseSecretChecking
	st.err = ""
	st.message = ""
	gen := c.generation
	c.mu.Unlock()

	verdict, err := c.api.Verify(ctx, c.token, level, secret)
	if err != nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		st.phase = prev
		if gen == c.generation {
			st.err = errorMessage("Could not check the secret word", err)
		}
		c.logger.Warn("secret check failed", "level", level, "error", err)
		return nil, err
	}

	if !verdict.Correct {
		c.mu.Lock()
		defer c.mu.Unlock()
		st.phase = PhaseAwaitingSecret
		if gen != c.generation {
			return verdict, model.ErrStaleResult
		}
		st.message = IncorrectMessage
		return verdict, nil
	}

	solved := verdict.Level
	if solved < 1 {
		solved = level
	}

	c.mu.Lock()
	next := max(c.unlocked, min(solved+1, c.cfg.MaxLevel))
	c.mu.Unlock()

	// The unlocked level only moves once the store has accepted it
	if err := c.levels.SetLevel(ctx, c.token, next); err != nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		st.phase = prev
		st.err = errorMessage("Could not save your progress", err)
		c.logger.Error("failed to store level", "level", next, "error", err)
		return verdict, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if next > c.unlocked {
		c.unlocked = next
	}
	st.correct = true
	st.phase = PhaseCompleted
	st.message = SuccessMessage(nickname)

	c.logger.Info("level completed", "level", level, "unlocked", c.unlocked)
	return verdict, nil
}

// playable returns the state of level if prompts and secrets may be
// submitted for it. Callers hold c.mu.
func (c *Controller) playable(level int) (*levelState, error) {
	if level < 1 || level > c.cfg.MaxLevel {
		return nil, fmt.Errorf("%w: %d", model.ErrInvalidLevel, level)
	}
	if level > c.unlocked {
		return nil, fmt.Errorf("%w: %d", model.ErrLevelLocked, level)
	}
	if level != c.selected {
		return nil, model.ErrStaleResult
	}
	st := c.state(level)
	if level < c.unlocked || st.correct {
		return nil, fmt.Errorf("%w: %d", model.ErrLevelCompleted, level)
	}
	if st.phase.Busy() {
		return nil, model.ErrRequestInFlight
	}
	return st, nil
}

// state returns the state of level, creating it. Callers hold c.mu.
func (c *Controller) state(level int) *levelState {
	st, ok := c.states[level]
	if !ok {
		st = &levelState{phase: PhaseUnlockedUnvisited}
		c.states[level] = st
	}
	return st
}

func errorMessage(prefix string, err error) string {
	return fmt.Sprintf("%s: %v. Please try again.", prefix, err)
}
