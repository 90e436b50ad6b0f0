package levels

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/davidwalker2235/hcongame/internal/model"
)

// Tab is one entry of the level selector
type Tab struct {
	Level     int
	Locked    bool
	Selected  bool
	Completed bool
}

// View is a render-ready copy of the controller state for the selected level
type View struct {
	Token    model.SessionToken
	MaxLevel int
	Unlocked int
	Selected int
	Tabs     []Tab

	Phase Phase
	Story *model.Story

	// StoryRevealed is false while the story's reveal animation should play
	StoryRevealed bool
	StoryKey      string

	Response         string
	ResponseKey      string
	ResponseRevealed bool

	Correct bool
	Message string
	Error   string
}

// ShowPromptInput reports whether the prompt form should be offered
func (v View) ShowPromptInput() bool {
	switch v.Phase {
	case PhaseAwaitingPrompt, PhasePromptLoading, PhaseResponseReady, PhaseAwaitingSecret, PhaseSecretChecking:
		return true
	case PhaseUnlockedUnvisited:
		// Lets the player keep playing when the story failed to load
		return v.Error != ""
	default:
		return false
	}
}

// ShowSecretInput reports whether the secret word form should be offered
func (v View) ShowSecretInput() bool {
	return v.Phase == PhaseAwaitingSecret || v.Phase == PhaseSecretChecking
}

// View returns the current state of the selected level
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := View{
		Token:    c.token,
		MaxLevel: c.cfg.MaxLevel,
		Unlocked: c.unlocked,
		Selected: c.selected,
		Tabs:     make([]Tab, 0, c.cfg.MaxLevel),
	}
	for level := 1; level <= c.cfg.MaxLevel; level++ {
		v.Tabs = append(v.Tabs, Tab{
			Level:     level,
			Locked:    level > c.unlocked,
			Selected:  level == c.selected,
			Completed: c.completed(level),
		})
	}

	st := c.state(c.selected)
	v.Phase = c.phase(c.selected)
	v.StoryKey = storyKey(c.selected)
	v.ResponseKey = responseKey(c.selected, st.responseSeq)
	if st.story != nil {
		story := *st.story
		v.Story = &story
	}
	v.Response = st.response
	v.Correct = st.correct
	v.Message = st.message
	v.Error = st.err

	// History renders without animation
	v.StoryRevealed = st.storyRevealed || v.Phase == PhaseCompleted
	v.ResponseRevealed = st.responseRevealed || v.Phase == PhaseCompleted
	return v
}

// phase derives the phase of level. Callers hold c.mu.
func (c *Controller) phase(level int) Phase {
	if level > c.unlocked {
		return PhaseLocked
	}
	if c.completed(level) {
		return PhaseCompleted
	}
	st := c.state(level)
	switch {
	case st.phase == PhaseStoryReady && st.storyRevealed:
		return PhaseAwaitingPrompt
	case st.phase == PhaseResponseReady && st.responseRevealed:
		return PhaseAwaitingSecret
	default:
		return st.phase
	}
}

// completed reports whether level counts as done. Callers hold c.mu.
func (c *Controller) completed(level int) bool {
	if level < c.unlocked {
		return true
	}
	st, ok := c.states[level]
	return ok && st.correct
}

// MarkRevealed records that the reveal animation identified by key has
// finished. Keys of levels or responses no longer shown are ignored.
func (c *Controller) MarkRevealed(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	level, seq, isResponse, ok := parseRevealKey(key)
	if !ok || level != c.selected {
		return false
	}
	st := c.state(level)
	if !isResponse {
		if st.story == nil {
			return false
		}
		st.storyRevealed = true
		return true
	}
	if seq != st.responseSeq || st.response == "" {
		return false
	}
	st.responseRevealed = true
	return true
}

// SkipReveal finishes every animation of the selected level at once, as
// when the player clicks anywhere outside the inputs
func (c *Controller) SkipReveal() {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := c.state(c.selected)
	if st.story != nil {
		st.storyRevealed = true
	}
	if st.response != "" {
		st.responseRevealed = true
	}
}

func storyKey(level int) string {
	return fmt.Sprintf("story-%d", level)
}

func responseKey(level, seq int) string {
	return fmt.Sprintf("response-%d-%d", level, seq)
}

func parseRevealKey(key string) (level, seq int, isResponse, ok bool) {
	parts := strings.Split(key, "-")
	switch {
	case len(parts) == 2 && parts[0] == "story":
		level, err := strconv.Atoi(parts[1])
		return level, 0, false, err == nil
	case len(parts) == 3 && parts[0] == "response":
		level, err1 := strconv.Atoi(parts[1])
		seq, err2 := strconv.Atoi(parts[2])
		return level, seq, true, err1 == nil && err2 == nil
	default:
		return 0, 0, false, false
	}
}
