package cli

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/davidwalker2235/hcongame/internal/model"
	"github.com/davidwalker2235/hcongame/internal/services/session"
)

// Config holds CLI configuration
type Config struct {
	ServerURL string
	// APIURL is the challenge API the level commands talk to
	APIURL    string
	Token     string
	TokenFile string
	Output    string
	Verbose   bool

	resolver *session.Resolver
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerURL: getEnvOrDefault("HCONGAME_SERVER", "http://localhost:8080"),
		APIURL:    getEnvOrDefault("HCONGAME_API", "https://ernibots-api.enricd.com"),
		Token:     os.Getenv("HCONGAME_TOKEN"),
		TokenFile: getEnvOrDefault("HCONGAME_TOKEN_FILE", defaultTokenFile()),
		Output:    "text",
		Verbose:   false,
	}
}

// ResolveToken picks the session token. A token given by flag or
// environment wins and is saved to the token file; otherwise the file is
// read.
func (c *Config) ResolveToken() error {
	c.resolver = session.NewResolver(session.Config{
		Primary:   session.ValueSource(c.Token),
		Fallbacks: []session.Source{session.FileSource{Path: c.TokenFile}},
		Sinks:     []session.Sink{session.FileSink{Path: c.TokenFile}},
	})
	result, err := c.resolver.Init()
	c.Token = string(result.Token)
	return err
}

// SessionToken returns the resolved token
func (c *Config) SessionToken() model.SessionToken {
	if c.resolver == nil {
		return model.SessionToken(c.Token)
	}
	return c.resolver.Token()
}

// ForgetToken removes the saved token
func (c *Config) ForgetToken() error {
	c.Token = ""
	if c.resolver == nil {
		return session.FileSink{Path: c.TokenFile}.Clear()
	}
	return c.resolver.Clear()
}

// Logger returns the logger handed to the shared services. Only warnings
// are shown unless --verbose is set.
func (c *Config) Logger() *slog.Logger {
	level := slog.LevelWarn
	if c.Verbose {
		level = slog.LevelDebug
	}
	var w io.Writer = os.Stderr
	if c.Output == "json" && !c.Verbose {
		w = io.Discard
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".hcongame/token"
	}
	return filepath.Join(home, ".hcongame", "token")
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
