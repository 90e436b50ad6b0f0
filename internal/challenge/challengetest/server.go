// Package challengetest provides an in-process fake of the challenge API
package challengetest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/mux"

	"github.com/davidwalker2235/hcongame/internal/model"
)

// Player is a token known to the fake API
type Player struct {
	Level    int
	Nickname string
	New      bool
}

// Server is a fake challenge API backed by an httptest server
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	maxLevel int
	players  map[model.SessionToken]*Player
	secrets  map[int]string
	calls    map[string]int
	failWith int
}

// NewServer starts a fake API with maxLevel levels. The secret of level N
// is "secret-N" unless overridden with SetSecret.
func NewServer(maxLevel int) *Server {
	s := &Server{
		maxLevel: maxLevel,
		players:  make(map[model.SessionToken]*Player),
		secrets:  make(map[int]string),
		calls:    make(map[string]int),
	}

	r := mux.NewRouter()
	r.HandleFunc("/challenge/{level:[0-9]+}", s.handleStory).Methods(http.MethodGet)
	r.HandleFunc("/challenge/{level:[0-9]+}", s.handleAsk).Methods(http.MethodPost)
	r.HandleFunc("/challenge/{level:[0-9]+}/verify", s.handleVerify).Methods(http.MethodPost)
	r.HandleFunc("/auth", s.handleAuth).Methods(http.MethodGet)

	s.Server = httptest.NewServer(s.count(r))
	return s
}

// AddPlayer registers a token at the given level
func (s *Server) AddPlayer(token model.SessionToken, level int, nickname string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players[token] = &Player{Level: level, Nickname: nickname, New: level == 0}
}

// Level returns the level the API has recorded for a token
func (s *Server) Level(token model.SessionToken) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.players[token]; ok {
		return p.Level
	}
	return 0
}

// SetSecret overrides the secret word of a level
func (s *Server) SetSecret(level int, secret string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secrets[level] = secret
}

// FailWith makes every request answer with status until called with 0
func (s *Server) FailWith(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWith = status
}

// Calls returns how many requests were made for "METHOD /path"
func (s *Server) Calls(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method+" "+path]
}

// StoryText is the story the fake API returns for a level
func StoryText(level int) string {
	return fmt.Sprintf("Level %d: the **gate** is guarded.\\nFind the *word*.", level)
}

// HintText is the hint the fake API returns for a level
func HintText(level int) string {
	return fmt.Sprintf("hint for level %d", level)
}

func (s *Server) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls[r.Method+" "+r.URL.Path]++
		status := s.failWith
		s.mu.Unlock()

		if status != 0 {
			writeDetail(w, status, "injected failure")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) player(w http.ResponseWriter, r *http.Request) (*Player, bool) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	p, ok := s.players[model.SessionToken(token)]
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Invalid token")
		return nil, false
	}
	return p, true
}

func (s *Server) handleStory(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.player(w, r)
	if !ok {
		return
	}
	level, _ := strconv.Atoi(mux.Vars(r)["level"])
	if level == 0 {
		level = max(p.Level, 1)
	}
	if level > max(p.Level, 1) || level > s.maxLevel {
		writeDetail(w, http.StatusForbidden, "Level locked")
		return
	}

	writeJSON(w, http.StatusOK, model.Story{
		Level:      level,
		Difficulty: "normal",
		Story:      StoryText(level),
		Hint:       HintText(level),
	})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.player(w, r); !ok {
		return
	}
	level, _ := strconv.Atoi(mux.Vars(r)["level"])

	var body struct {
		Prompt string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.Prompt) == "" {
		writeValidation(w, "body", "prompt", "Field required")
		return
	}

	writeJSON(w, http.StatusOK, model.PromptReply{
		Level:    level,
		Response: "The guardian hears: " + body.Prompt,
	})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.player(w, r)
	if !ok {
		return
	}
	level, _ := strconv.Atoi(mux.Vars(r)["level"])

	var body struct {
		Secret string `json:"secret"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Secret == "" {
		writeValidation(w, "body", "secret", "Field required")
		return
	}

	secret, ok := s.secrets[level]
	if !ok {
		secret = fmt.Sprintf("secret-%d", level)
	}
	correct := body.Secret == secret
	if correct && level >= p.Level {
		p.Level = min(level+1, s.maxLevel)
		p.New = false
	}

	writeJSON(w, http.StatusOK, model.Verdict{Level: level, Correct: correct})
}

func (s *Server) handleAuth(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.player(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, model.AuthStatus{Level: p.Level, New: p.New, Nickname: p.Nickname})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}

func writeValidation(w http.ResponseWriter, loc ...string) {
	msg := loc[len(loc)-1]
	where := make([]any, 0, len(loc)-1)
	for _, l := range loc[:len(loc)-1] {
		where = append(where, l)
	}
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"detail": []map[string]any{{"loc": where, "msg": msg, "type": "missing"}},
	})
}
