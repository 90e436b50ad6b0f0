package e2e_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidwalker2235/hcongame/internal/factory"
	"github.com/davidwalker2235/hcongame/internal/model"
)

// cliRunner manages CLI binary execution
type cliRunner struct {
	binaryPath string
	serverURL  string
	apiURL     string
	tokenFile  string
}

func newCLIRunner(t *testing.T, env *testEnv) *cliRunner {
	t.Helper()

	// Find project root (where go.mod is)
	projectRoot := findProjectRoot(t)

	// Build the CLI binary
	binaryPath := filepath.Join(t.TempDir(), "hcongame-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/hcongame")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))

	return &cliRunner{
		binaryPath: binaryPath,
		serverURL:  env.server.URL,
		apiURL:     env.app.Challenge.URL,
		tokenFile:  filepath.Join(t.TempDir(), "token"),
	}
}

func (r *cliRunner) run(args ...string) (string, error) {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--api", r.apiURL,
		"--token-file", r.tokenFile,
		"--output", "json",
	}, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
	cmd.Env = cleanEnv()
	output, err := cmd.CombinedOutput()
	return string(output), err
}

func (r *cliRunner) runWithToken(token string, args ...string) (string, error) {
	return r.run(append([]string{"--token", token}, args...)...)
}

// cleanEnv drops HCONGAME_* variables so the flags alone decide
func cleanEnv() []string {
	var env []string
	for _, kv := range os.Environ() {
		if len(kv) >= 9 && kv[:9] == "HCONGAME_" {
			continue
		}
		env = append(env, kv)
	}
	return env
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// testEnv is a running server backed by a test app and fake challenge API
type testEnv struct {
	app    *factory.TestApp
	server *httptest.Server
}

func startTestEnv(t *testing.T) *testEnv {
	t.Helper()

	app := factory.NewTestApp()
	server := httptest.NewServer(app.Handler(factory.HandlerConfig{
		StaticDir: filepath.Join(findProjectRoot(t), "internal/web/static"),
	}))
	t.Cleanup(func() {
		server.Close()
		app.Close()
	})

	return &testEnv{app: app, server: server}
}

func decode[T any](t *testing.T, output string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(output), &v), "output: %s", output)
	return v
}

type playerResponse struct {
	Token        string `json:"token"`
	Nickname     string `json:"nickname"`
	Email        string `json:"email"`
	CurrentLevel int    `json:"currentLevel"`
	Verified     bool   `json:"verified"`
}

type statusResponse struct {
	State    string          `json:"state"`
	Redirect string          `json:"redirect"`
	Profile  *playerResponse `json:"profile"`
}

// Tests

func TestServerBinaryBuilds(t *testing.T) {
	binaryPath := filepath.Join(t.TempDir(), "hcongame-server-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/server")
	cmd.Dir = findProjectRoot(t)
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build server: %s", string(output))

	// The built server reports its flags without starting
	output, err = exec.Command(binaryPath, "--help").CombinedOutput()
	require.NoError(t, err, "output: %s", string(output))
	assert.Contains(t, string(output), "--storage")
}

func TestCLI_HealthCheck(t *testing.T) {
	env := startTestEnv(t)
	cli := newCLIRunner(t, env)

	output, err := cli.run("health")
	require.NoError(t, err, "output: %s", output)

	resp := decode[struct {
		Status  string `json:"status"`
		Storage string `json:"storage"`
	}](t, output)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "memory", resp.Storage)
}

func TestCLI_RegisterFlow(t *testing.T) {
	env := startTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.app.AddPlayer(ctx, "abc123", 1, "", ""))

	cli := newCLIRunner(t, env)

	// Unregistered token is sent to registration
	output, err := cli.runWithToken("abc123", "status")
	require.NoError(t, err, "output: %s", output)
	status := decode[statusResponse](t, output)
	assert.Equal(t, "needs-registration", status.State)
	assert.Equal(t, "/", status.Redirect)

	// The token given on the command line was saved
	saved, err := os.ReadFile(cli.tokenFile)
	require.NoError(t, err)
	assert.Equal(t, "abc123", string(saved))

	// Invalid email is rejected before any request
	output, err = cli.run("register", "--nickname", "neo", "--email", "not-an-email")
	require.Error(t, err, "output: %s", output)

	output, err = cli.run("register", "--nickname", "neo", "--email", "neo@example.com")
	require.NoError(t, err, "output: %s", output)
	player := decode[playerResponse](t, output)
	assert.Equal(t, "neo", player.Nickname)
	assert.True(t, player.Verified)

	output, err = cli.run("status")
	require.NoError(t, err, "output: %s", output)
	status = decode[statusResponse](t, output)
	assert.Equal(t, "verified", status.State)
	require.NotNil(t, status.Profile)
	assert.Equal(t, "neo@example.com", status.Profile.Email)
}

func TestCLI_LevelsFlow(t *testing.T) {
	env := startTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.app.AddPlayer(ctx, "abc123", 2, "neo", "neo@example.com"))

	cli := newCLIRunner(t, env)

	output, err := cli.runWithToken("abc123", "levels", "list")
	require.NoError(t, err, "output: %s", output)
	list := decode[struct {
		Unlocked int `json:"unlocked"`
		MaxLevel int `json:"maxLevel"`
		Levels   []struct {
			Level  int  `json:"level"`
			Locked bool `json:"locked"`
		} `json:"levels"`
	}](t, output)
	assert.Equal(t, 2, list.Unlocked)
	assert.Equal(t, model.MaxLevel, list.MaxLevel)
	require.Len(t, list.Levels, model.MaxLevel)
	assert.False(t, list.Levels[1].Locked)
	assert.True(t, list.Levels[2].Locked)

	output, err = cli.run("levels", "story", "2")
	require.NoError(t, err, "output: %s", output)
	story := decode[struct {
		Level int    `json:"level"`
		Story string `json:"story"`
	}](t, output)
	assert.Equal(t, 2, story.Level)
	assert.NotEmpty(t, story.Story)

	// Locked levels cannot be opened
	output, err = cli.run("levels", "story", "5")
	require.Error(t, err, "output: %s", output)

	output, err = cli.run("levels", "verify", "2", "wrong")
	require.NoError(t, err, "output: %s", output)
	wrong := decode[struct {
		Correct  bool `json:"correct"`
		Unlocked int  `json:"unlocked"`
	}](t, output)
	assert.False(t, wrong.Correct)
	assert.Equal(t, 2, wrong.Unlocked)

	output, err = cli.run("levels", "verify", "2", "secret-2")
	require.NoError(t, err, "output: %s", output)
	right := decode[struct {
		Correct  bool `json:"correct"`
		Unlocked int  `json:"unlocked"`
	}](t, output)
	assert.True(t, right.Correct)
	assert.Equal(t, 3, right.Unlocked)

	// Progress is written back through the session proxy
	p, err := env.app.Profiles.Get(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, 3, p.CurrentLevel)
}

func TestCLI_LevelsRequireRegistration(t *testing.T) {
	env := startTestEnv(t)
	require.NoError(t, env.app.AddPlayer(context.Background(), "abc123", 1, "", ""))

	cli := newCLIRunner(t, env)

	output, err := cli.runWithToken("abc123", "levels", "list")
	require.Error(t, err)
	assert.Contains(t, output, "register")
}

func TestCLI_StoreCommands(t *testing.T) {
	env := startTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.app.AddPlayer(ctx, "abc123", 1, "neo", "neo@example.com"))
	require.NoError(t, env.app.AddPlayer(ctx, "def456", 1, "trinity", "trinity@example.com"))

	cli := newCLIRunner(t, env)

	output, err := cli.runWithToken("abc123", "store", "read", "users/abc123/nickname")
	require.NoError(t, err, "output: %s", output)
	value := decode[struct {
		Path  string `json:"path"`
		Value any    `json:"value"`
	}](t, output)
	assert.Equal(t, "neo", value.Value)

	output, err = cli.run("store", "update", "users/abc123", `{"nickname":"morpheus"}`)
	require.NoError(t, err, "output: %s", output)

	p, err := env.app.Profiles.Get(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, "morpheus", p.Nickname)

	output, err = cli.run("store", "push", "users/abc123/notes", `"remember the hint"`)
	require.NoError(t, err, "output: %s", output)
	pushed := decode[struct {
		Key string `json:"key"`
	}](t, output)
	assert.NotEmpty(t, pushed.Key)

	// Other players are off limits
	output, err = cli.run("store", "write", "users/def456/nickname", `"hijacked"`)
	require.Error(t, err, "output: %s", output)

	p, err = env.app.Profiles.Get(ctx, "def456")
	require.NoError(t, err)
	assert.Equal(t, "trinity", p.Nickname)
}

func TestCLI_Ranking(t *testing.T) {
	env := startTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.app.Storage.Write(ctx, "ranking/a", map[string]any{"nickname": "neo", "position": 1}))
	require.NoError(t, env.app.Storage.Write(ctx, "ranking/b", map[string]any{"nickname": "trinity", "position": 2}))

	cli := newCLIRunner(t, env)

	output, err := cli.run("ranking")
	require.NoError(t, err, "output: %s", output)
	ranking := decode[struct {
		Entries []model.LeaderboardEntry `json:"entries"`
	}](t, output)
	require.Len(t, ranking.Entries, 2)
	assert.Equal(t, "neo", ranking.Entries[0].Nickname)
	assert.Equal(t, "trinity", ranking.Entries[1].Nickname)
}

func TestCLI_Logout(t *testing.T) {
	env := startTestEnv(t)
	require.NoError(t, env.app.AddPlayer(context.Background(), "abc123", 1, "neo", "neo@example.com"))

	cli := newCLIRunner(t, env)

	output, err := cli.runWithToken("abc123", "status")
	require.NoError(t, err, "output: %s", output)

	output, err = cli.run("logout")
	require.NoError(t, err, "output: %s", output)

	_, err = os.Stat(cli.tokenFile)
	assert.True(t, os.IsNotExist(err))

	output, err = cli.run("status")
	require.Error(t, err, "output: %s", output)
}
