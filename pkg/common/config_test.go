package hyperchess

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"laptudirm.com/x/hyperchess/pkg/api"
)

func writeConfig(t *testing.T, text string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Run("Given no config file", func(t *testing.T) {
		config, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		require.NoError(t, err)

		t.Run("Then the defaults are used", func(t *testing.T) {
			assert.Equal(t, "http://127.0.0.1:3123", config.Server.URL)
			assert.Equal(t, "", config.Server.Prefix)
			assert.Equal(t, 10*time.Second, config.Server.RequestTimeout)
			assert.Equal(t, string(api.HumanVsComputer), config.Game.Mode)
			assert.Equal(t, 2, config.Game.Dimension)
			assert.Equal(t, 8, config.Game.Side)
			assert.Equal(t, 500*time.Millisecond, config.Poll.Interval)
			assert.Equal(t, 10*time.Second, config.Poll.Timeout)
			assert.False(t, config.History.Disabled)
			assert.Equal(t, HistoryFile, config.History.Path)
		})
	})

	t.Run("Given a config file", func(t *testing.T) {
		path := writeConfig(t, heredoc.Doc(`
			server:
			  url: http://localhost:8080
			  prefix: /api/v1
			game:
			  mode: cc
			  side: 6
			poll:
			  interval: 100ms
			history:
			  disabled: true
		`))

		config, err := LoadConfig(path)
		require.NoError(t, err)

		t.Run("Then its values override the defaults", func(t *testing.T) {
			assert.Equal(t, "http://localhost:8080", config.Server.URL)
			assert.Equal(t, "/api/v1", config.Server.Prefix)
			assert.Equal(t, string(api.ComputerVsComputer), config.Game.Mode)
			assert.Equal(t, 6, config.Game.Side)
			assert.Equal(t, 2, config.Game.Dimension)
			assert.Equal(t, 100*time.Millisecond, config.Poll.Interval)
			assert.True(t, config.History.Disabled)
		})

		t.Run("When the environment is set", func(t *testing.T) {
			t.Setenv("HYPERCHESS_URL", "http://10.0.0.2:3123")
			t.Setenv("HYPERCHESS_POLL_TIMEOUT", "3s")
			t.Setenv("HYPERCHESS_HISTORY_PATH", "/tmp/hc.db")

			config, err := LoadConfig(path)
			require.NoError(t, err)

			t.Run("Then it overrides the file", func(t *testing.T) {
				assert.Equal(t, "http://10.0.0.2:3123", config.Server.URL)
				assert.Equal(t, 3*time.Second, config.Poll.Timeout)
				assert.Equal(t, "/tmp/hc.db", config.History.Path)
				assert.Equal(t, 6, config.Game.Side)
			})
		})
	})

	t.Run("Given invalid values", func(t *testing.T) {
		path := writeConfig(t, heredoc.Doc(`
			game:
			  mode: hx
			  side: -1
		`))

		_, err := LoadConfig(path)
		require.Error(t, err)
		assert.ErrorIs(t, err, api.ErrUnknownMode)
		assert.Contains(t, err.Error(), "side -1")
	})
}

func TestUsage(t *testing.T) {
	usage := Usage()
	for _, env := range []string{"HYPERCHESS_URL", "HYPERCHESS_MODE", "HYPERCHESS_POLL_TIMEOUT", "HYPERCHESS_NO_HISTORY"} {
		assert.Contains(t, usage, env)
	}
}

func TestTryMkdir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, TryMkdir(dir))
	assert.True(t, Exists(dir))
	require.NoError(t, TryMkdir(dir))

	file := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	assert.Error(t, TryMkdir(filepath.Join(file, "child")))
}
