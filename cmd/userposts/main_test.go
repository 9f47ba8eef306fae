package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sternrassler/userposts/internal/config"
	"github.com/Sternrassler/userposts/internal/testutil"
	"github.com/Sternrassler/userposts/pkg/join"
	"github.com/Sternrassler/userposts/pkg/model"
)

// execute runs the root command against a mock API and returns stdout.
func execute(t *testing.T, mock *testutil.MockAPI, args ...string) (string, error) {
	t.Helper()

	t.Setenv("USERPOSTS_API_BASE_URL", mock.URL())
	t.Setenv("USERPOSTS_RETRY_INITIAL_BACKOFF", "1ms")
	t.Setenv("USERPOSTS_RETRY_MAX_BACKOFF", "5ms")
	t.Setenv("USERPOSTS_LOG_LEVEL", "error")

	var stdout, stderr bytes.Buffer
	root := newRootCommand()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestRun_PrintsEnrichedUsers(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	out, err := execute(t, mock, "run")
	require.NoError(t, err)

	var got []model.EnrichedUser
	require.NoError(t, json.Unmarshal([]byte(out), &got))

	want, err := join.Join(testutil.Users(), testutil.Posts())
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, 1, strings.Count(out, "\n"), "json output is a single line")
}

func TestRun_Pretty(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	out, err := execute(t, mock, "run", "--pretty")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "[\n  {\n"), "got %q", out)
}

func TestRun_NoOutput(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()
	t.Setenv("USERPOSTS_OUTPUT_FORMAT", "none")

	out, err := execute(t, mock, "run")
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, 1, mock.RequestCount("/users"))
}

func TestRun_ConfigFile(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	path := filepath.Join(t.TempDir(), "userposts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api:\n  user_agent: custom-agent/2.0\n"), 0o600))

	_, err := execute(t, mock, "run", "--config", path)
	require.NoError(t, err)
	assert.Equal(t, "custom-agent/2.0", mock.LastRequestHeader().Get("User-Agent"))
}

func TestRun_Failure(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.SetResponse("/users", testutil.NewNotFoundResponse())

	out, err := execute(t, mock, "run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch users")
	assert.Empty(t, out, "nothing is printed for a failed run")
}

func TestRun_WritesMetricsEvenOnFailure(t *testing.T) {
	tests := []struct {
		name  string
		setup func(m *testutil.MockAPI)
		fails bool
	}{
		{name: "success", setup: func(*testutil.MockAPI) {}},
		{name: "failure", setup: func(m *testutil.MockAPI) { m.SetResponse("/posts", testutil.NewServerErrorResponse()) }, fails: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := testutil.NewMockAPI()
			defer mock.Close()
			tt.setup(mock)

			path := filepath.Join(t.TempDir(), "userposts.prom")
			t.Setenv("USERPOSTS_METRICS_TEXTFILE", path)

			_, err := execute(t, mock, "run")
			if tt.fails {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Contains(t, string(data), "userposts_requests_total")
		})
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()
	t.Setenv("USERPOSTS_RETRY_MAX_ATTEMPTS", "0")

	_, err := execute(t, mock, "run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
	assert.Zero(t, mock.RequestCount("/users"))
}

func TestBuildSinks(t *testing.T) {
	tests := []struct {
		format string
		want   int
	}{
		{format: "json", want: 1},
		{format: "pretty", want: 1},
		{format: "none", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			cfg := &config.Config{Output: config.OutputConfig{Format: tt.format}}

			sinks, closeSinks, err := buildSinks(context.Background(), cfg, &bytes.Buffer{})
			require.NoError(t, err)
			defer closeSinks()
			assert.Len(t, sinks, tt.want)
		})
	}
}

func TestBuildSinks_RedisUnreachable(t *testing.T) {
	cfg := &config.Config{
		Output: config.OutputConfig{Format: "json"},
		Redis:  config.RedisConfig{Addr: "127.0.0.1:1"},
	}

	_, _, err := buildSinks(context.Background(), cfg, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect to redis")
}

func TestShow_RequiresRedis(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	_, err := execute(t, mock, "show")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis.addr is required")
}

func TestShow_RedisUnreachable(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()
	t.Setenv("USERPOSTS_REDIS_ADDR", "127.0.0.1:1")

	_, err := execute(t, mock, "show")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect to redis")
}

// TestRunThenShow publishes a run to a local Redis and reads it back.
func TestRunThenShow(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 15})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		rdb.Close()
		t.Skipf("Redis not available for testing: %v", err)
	}
	t.Cleanup(func() {
		rdb.FlushDB(context.Background())
		rdb.Close()
	})

	mock := testutil.NewMockAPI()
	defer mock.Close()
	t.Setenv("USERPOSTS_REDIS_ADDR", "localhost:6379")
	t.Setenv("USERPOSTS_REDIS_DB", "15")
	t.Setenv("USERPOSTS_REDIS_PREFIX", "cmdtest")

	runOut, err := execute(t, mock, "run")
	require.NoError(t, err)

	showOut, err := execute(t, mock, "show")
	require.NoError(t, err)
	assert.JSONEq(t, runOut, showOut)

	_, err = execute(t, mock, "show", "--run", "no-such-run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "snapshot not found")
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	root := newRootCommand()
	root.SetOut(&buf)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "userposts version dev", lines[0])
	assert.Equal(t, "Built with "+runtime.Version()+" "+runtime.GOOS+"/"+runtime.GOARCH, lines[1])
}
