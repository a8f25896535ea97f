package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"laptudirm.com/x/hyperchess/internal/servicetest"
	"laptudirm.com/x/hyperchess/pkg/api"
	"laptudirm.com/x/hyperchess/pkg/history"
)

// environment points every setting at test locations and returns the
// history database path.
func environment(t *testing.T, svc *servicetest.Service) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "history.db")
	t.Setenv("HYPERCHESS_URL", svc.URL())
	t.Setenv("HYPERCHESS_HISTORY_PATH", path)
	t.Setenv("HYPERCHESS_POLL_INTERVAL", "10ms")
	t.Setenv("HYPERCHESS_POLL_TIMEOUT", "2s")
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	root := Root()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(args, "--config", filepath.Join(t.TempDir(), "missing.yaml")))

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func sessions(t *testing.T, path string) []history.Session {
	t.Helper()

	store, err := history.Open(path)
	require.NoError(t, err)
	defer store.Close()

	list, err := store.List(context.Background(), 0)
	require.NoError(t, err)
	return list
}

func TestRunCommand(t *testing.T) {
	svc := servicetest.Start(t)
	path := environment(t, svc)

	out, err := execute(t, "run")
	require.NoError(t, err)

	assert.Contains(t, out, "--- HyperChess API Driver ---")
	assert.Contains(t, out, "4. Player Move: e2 -> e4 ((1, 4) -> (3, 4))...")
	assert.Contains(t, out, "Test Complete.")

	recorded := sessions(t, path)
	require.Len(t, recorded, 1)
	assert.Equal(t, api.HumanVsComputer, recorded[0].Mode)
	assert.Equal(t, 1, recorded[0].Plies)
	assert.Equal(t, svc.URL(), recorded[0].Server)

	t.Run("Flags override the environment", func(t *testing.T) {
		out, err := execute(t, "run", "--mode", "hh", "--side", "6", "--summary", "--no-history")
		require.NoError(t, err)

		assert.Contains(t, out, "Human vs Human, 2D, 6x6")
		assert.Contains(t, out, "showing raw pieces count: 24")
		assert.Contains(t, out, "5. Waiting for Computer: skipped")
		assert.Len(t, sessions(t, path), 1)
	})

	t.Run("An explicit move is used as is", func(t *testing.T) {
		out, err := execute(t, "run", "--from", "1,0", "--to", "[2, 0]")
		require.NoError(t, err)
		assert.Contains(t, out, "a2 -> a3 ((1, 0) -> (2, 0))")
	})

	t.Run("Bad flags are rejected", func(t *testing.T) {
		_, err := execute(t, "run", "--mode", "xx")
		assert.ErrorIs(t, err, api.ErrUnknownMode)

		_, err = execute(t, "run", "--probe", "(a, b)")
		assert.ErrorIs(t, err, api.ErrBadCoordinate)

		_, err = execute(t, "run", "--from", "1,4")
		assert.Error(t, err)
	})
}

func TestGameCommands(t *testing.T) {
	svc := servicetest.Start(t)
	path := environment(t, svc)

	out, err := execute(t, "new")
	require.NoError(t, err)
	assert.Contains(t, out, "Game Created! UUID: ")

	recorded := sessions(t, path)
	require.Len(t, recorded, 1)
	id := recorded[0].UUID

	t.Run("show prints the board and the moves", func(t *testing.T) {
		out, err := execute(t, "show", "last", "--moves")
		require.NoError(t, err)

		assert.Contains(t, out, "Game "+id+" (2D, side 8): InProgress")
		assert.Contains(t, out, "  0 1 2 3 4 5 6 7")
		assert.Contains(t, out, "Current Player: White")
		assert.Contains(t, out, "Valid Moves (Total: 8)")
		assert.Contains(t, out, "Moves for Pawn at (1, 4): (2, 4), (3, 4)")
	})

	t.Run("move submits a move and waits for the reply", func(t *testing.T) {
		out, err := execute(t, "move", id, "(1, 4)", "(3, 4)", "--wait")
		require.NoError(t, err)

		assert.Contains(t, out, "Move Accepted!")
		assert.Contains(t, out, "Waiting for Black to move...")
		assert.Contains(t, out, "Black Moved!")

		state, ok := svc.State(id)
		require.True(t, ok)
		assert.Equal(t, api.White, state.CurrentPlayer)

		recorded := sessions(t, path)
		require.Len(t, recorded, 1)
		assert.Equal(t, 1, recorded[0].Plies)
		assert.Equal(t, api.White, recorded[0].CurrentPlayer)
	})

	t.Run("an illegal move fails with the service's answer", func(t *testing.T) {
		_, err := execute(t, "move", "last", "(1, 4)", "(5, 4)")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "HTTP Error 400")
	})

	t.Run("game ids are checked before any request", func(t *testing.T) {
		requests := svc.Requests()

		_, err := execute(t, "show", "not-a-uuid")
		assert.ErrorContains(t, err, `bad game id "not-a-uuid"`)
		assert.Equal(t, requests, svc.Requests())
	})

	t.Run("last needs the history", func(t *testing.T) {
		_, err := execute(t, "show", "last", "--no-history")
		assert.ErrorContains(t, err, "history is disabled")
	})
}

func TestHistoryCommand(t *testing.T) {
	svc := servicetest.Start(t)
	environment(t, svc)

	out, err := execute(t, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "No Sessions Recorded.")

	_, err = execute(t, "new", "--mode", "hh")
	require.NoError(t, err)
	_, err = execute(t, "new", "--mode", "cc", "--side", "6")
	require.NoError(t, err)

	out, err = execute(t, "history", "--limit", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "UUID")
	assert.Contains(t, out, "cc    2D/6")
	assert.NotContains(t, out, "hh    2D/8")

	out, err = execute(t, "history", "--clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 2 sessions.")
}

func TestVerifyCommand(t *testing.T) {
	t.Run("A conforming service passes", func(t *testing.T) {
		svc := servicetest.Start(t, servicetest.WithBotDelay(10*time.Millisecond))
		environment(t, svc)

		report := filepath.Join(t.TempDir(), "report.yaml")
		out, err := execute(t, "verify", "--jobs", "2", "--report", report)
		require.NoError(t, err)

		assert.Contains(t, out, "opponent-reply")
		_, err = os.Stat(report)
		assert.NoError(t, err)
	})

	t.Run("A broken service fails", func(t *testing.T) {
		svc := servicetest.Start(t, servicetest.WithFault(servicetest.AcceptIllegal))
		environment(t, svc)

		_, err := execute(t, "verify")
		assert.ErrorIs(t, err, ErrVerificationFailed)
	})
}

func TestUtilityCommands(t *testing.T) {
	out, err := execute(t, "env")
	require.NoError(t, err)
	assert.Contains(t, out, "HYPERCHESS_URL")
	assert.Contains(t, out, "HYPERCHESS_POLL_TIMEOUT")

	out, err = execute(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "hyperchess")

	_, err = execute(t, "completion", "tcsh")
	assert.Error(t, err)

	out, err = execute(t, "--version")
	require.NoError(t, err)
	assert.Equal(t, "v0.1.0\n", out)
}
