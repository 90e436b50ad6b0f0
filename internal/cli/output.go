package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/davidwalker2235/hcongame/internal/model"
	"github.com/davidwalker2235/hcongame/internal/services/levels"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Player:
		o.printPlayer(v)
	case Status:
		o.printStatus(v)
	case model.AuthStatus:
		o.printAuthStatus(v)
	case LevelList:
		o.printLevelList(v)
	case Story:
		o.printStory(v)
	case model.PromptReply:
		fmt.Printf("Level %d replies:\n\n%s\n", v.Level, plain(v.Response))
	case VerifyResult:
		o.printVerifyResult(v)
	case Ranking:
		o.printRanking(v)
	case StoreValue:
		fmt.Printf("%s:\n", v.Path)
		o.printJSON(v.Value)
	case PushResult:
		fmt.Printf("Pushed %s/%s\n", v.Path, v.Key)
	case ProfileChange:
		o.printProfileChange(v)
	case HealthResult:
		o.printHealthResult(v)
	case StreamEvent:
		fmt.Printf("[%s] %s: %s\n", v.Time.Format("2006-01-02 15:04:05"), v.Event, v.Data)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Player response type (matches API)
type Player struct {
	Token        string `json:"token"`
	Nickname     string `json:"nickname"`
	Email        string `json:"email"`
	CurrentLevel int    `json:"currentLevel"`
	Verified     bool   `json:"verified"`
}

// Status is the verification state of the session
type Status struct {
	State    string  `json:"state"`
	Verified any     `json:"verified"`
	Redirect string  `json:"redirect,omitempty"`
	Profile  *Player `json:"profile,omitempty"`
}

// LevelTab is one level in a LevelList
type LevelTab struct {
	Level     int  `json:"level"`
	Locked    bool `json:"locked"`
	Completed bool `json:"completed"`
}

// LevelList is the output of levels list
type LevelList struct {
	Unlocked int        `json:"unlocked"`
	MaxLevel int        `json:"maxLevel"`
	Levels   []LevelTab `json:"levels"`
}

// LevelListFromView converts a controller view
func LevelListFromView(v levels.View) LevelList {
	list := LevelList{Unlocked: v.Unlocked, MaxLevel: v.MaxLevel}
	for _, t := range v.Tabs {
		list.Levels = append(list.Levels, LevelTab{Level: t.Level, Locked: t.Locked, Completed: t.Completed})
	}
	return list
}

// Story is a level story with its formatting markers removed
type Story struct {
	Level      int    `json:"level"`
	Difficulty string `json:"difficulty,omitempty"`
	Story      string `json:"story"`
	Hint       string `json:"hint,omitempty"`
}

// StoryFromModel converts a model.Story
func StoryFromModel(s *model.Story) Story {
	return Story{
		Level:      s.Level,
		Difficulty: s.Difficulty,
		Story:      plain(s.Story),
		Hint:       s.Hint,
	}
}

// VerifyResult is the output of levels verify
type VerifyResult struct {
	Level    int    `json:"level"`
	Correct  bool   `json:"correct"`
	Message  string `json:"message"`
	Unlocked int    `json:"unlocked"`
}

// Ranking is the leaderboard response
type Ranking struct {
	Entries []model.LeaderboardEntry `json:"entries"`
}

// StoreValue is a value read through the session proxy
type StoreValue struct {
	Path  string `json:"path"`
	Value any    `json:"value"`
}

// PushResult is the key a push created
type PushResult struct {
	Path string `json:"path"`
	Key  string `json:"key"`
}

// ProfileChange is one update seen by watch
type ProfileChange struct {
	Time    time.Time      `json:"time"`
	Token   string         `json:"token"`
	Profile *model.Profile `json:"profile"`
}

// HealthResult represents health check response
type HealthResult struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
}

func plain(text string) string {
	return levels.PlainText(levels.FormatText(text))
}

func (o *Output) printPlayer(p Player) {
	fmt.Printf("Token: %s\n", p.Token)
	if p.Verified {
		fmt.Printf("Nickname: %s\n", p.Nickname)
		fmt.Printf("Email: %s\n", p.Email)
	} else {
		fmt.Println("Not registered yet")
	}
	fmt.Printf("Level: %d\n", p.CurrentLevel)
}

func (o *Output) printStatus(s Status) {
	fmt.Printf("State: %s\n", s.State)
	if s.Redirect != "" {
		fmt.Printf("Go to: %s\n", s.Redirect)
	}
	if s.Profile != nil {
		o.printPlayer(*s.Profile)
	}
}

func (o *Output) printAuthStatus(a model.AuthStatus) {
	if a.Nickname != "" {
		fmt.Printf("Nickname: %s\n", a.Nickname)
	}
	if a.New {
		fmt.Println("Level: new (not started)")
		return
	}
	fmt.Printf("Level: %d\n", a.Level)
}

func (o *Output) printLevelList(l LevelList) {
	fmt.Printf("Unlocked: %d of %d\n\n", l.Unlocked, l.MaxLevel)
	for _, t := range l.Levels {
		mark := " "
		switch {
		case t.Locked:
			mark = "x"
		case t.Completed:
			mark = "*"
		case t.Level == l.Unlocked:
			mark = ">"
		}
		fmt.Printf("  [%s] Level %d\n", mark, t.Level)
	}
}

func (o *Output) printStory(s Story) {
	fmt.Printf("Level %d", s.Level)
	if s.Difficulty != "" {
		fmt.Printf(" (%s)", s.Difficulty)
	}
	fmt.Printf("\n\n%s\n", s.Story)
	if s.Hint != "" {
		fmt.Printf("\nHint: %s\n", s.Hint)
	}
}

func (o *Output) printVerifyResult(v VerifyResult) {
	if v.Message != "" {
		fmt.Println(plain(v.Message))
	}
	if v.Correct {
		fmt.Printf("Unlocked level: %d\n", v.Unlocked)
	}
}

func (o *Output) printRanking(r Ranking) {
	if len(r.Entries) == 0 {
		fmt.Println("No ranking data available")
		return
	}
	for _, e := range r.Entries {
		var details []string
		if e.HighestLevel > 0 {
			details = append(details, fmt.Sprintf("level %d", e.HighestLevel))
		}
		if e.Score != 0 {
			details = append(details, fmt.Sprintf("score %g", e.Score))
		}
		if e.Attempts > 0 {
			details = append(details, fmt.Sprintf("%d attempts", e.Attempts))
		}
		line := fmt.Sprintf("%3d. %s", e.Position, e.Nickname)
		if len(details) > 0 {
			line += " (" + strings.Join(details, ", ") + ")"
		}
		fmt.Println(line)
	}
}

func (o *Output) printProfileChange(c ProfileChange) {
	ts := c.Time.Format("2006-01-02 15:04:05")
	if c.Profile == nil {
		fmt.Printf("[%s] no profile stored\n", ts)
		return
	}
	fmt.Printf("[%s] %s <%s> level %d\n", ts, c.Profile.Nickname, c.Profile.Email, c.Profile.UnlockedLevel(model.MaxLevel))
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
	if h.Storage != "" {
		fmt.Printf("Storage: %s\n", h.Storage)
	}
}
