package driver_test

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"laptudirm.com/x/hyperchess/internal/servicetest"
	"laptudirm.com/x/hyperchess/pkg/api"
	"laptudirm.com/x/hyperchess/pkg/client"
	"laptudirm.com/x/hyperchess/pkg/driver"
	"laptudirm.com/x/hyperchess/pkg/history"
)

func config(mode api.Mode) driver.Config {
	config := driver.DefaultConfig()
	config.Mode = mode
	config.PollInterval = 10 * time.Millisecond
	config.Timeout = 2 * time.Second
	return config
}

func run(t *testing.T, svc *servicetest.Service, config driver.Config, opts ...driver.Option) (*driver.Result, string, error) {
	t.Helper()

	c, err := client.New(svc.URL())
	require.NoError(t, err)

	var out bytes.Buffer
	result, err := driver.New(c, &out, config, opts...).Run(context.Background())
	return result, out.String(), err
}

// assertInOrder checks that every part appears in out, each after the
// previous one.
func assertInOrder(t *testing.T, out string, parts ...string) {
	t.Helper()

	rest := out
	for _, part := range parts {
		i := strings.Index(rest, part)
		if !assert.GreaterOrEqual(t, i, 0, "%q missing or out of order in:\n%s", part, out) {
			return
		}

		rest = rest[i+len(part):]
	}
}

func TestReferenceSession(t *testing.T) {
	svc := servicetest.Start(t, servicetest.WithBotDelay(20*time.Millisecond))

	result, out, err := run(t, svc, config(api.HumanVsComputer))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "--- HyperChess API Driver ---\n\n1. Creating New Game (Human vs Computer, 2D, 8x8)...\nGame Created! UUID: "+result.UUID+"\n"))
	assertInOrder(t, out,
		"\n2. Fetching Initial State...\nCurrent Player: White\n  0 1 2 3 4 5 6 7\n7 r n b q k b n r\n",
		"\n0 R N B Q K B N R\n",
		"\n3. Checking Valid Moves (Total: 8)\nMoves for Pawn at (1, 4): (2, 4), (3, 4)\n",
		"\n4. Player Move: e2 -> e4 ((1, 4) -> (3, 4))...\nMove Accepted!\n",
		"\n3 . . . . P . . .\n",
		"Current Player: Black\n",
		"\n5. Waiting for Computer (Black) to move...\n",
		"\nComputer Moved!\n",
		"Current Player: White\n",
	)
	assert.True(t, strings.HasSuffix(out, "Current Player: White\n\nTest Complete.\n"), out)
	assert.NotContains(t, out, "Timeout")

	assert.Equal(t, 1, result.Plies)
	assert.False(t, result.TimedOut)
	assert.False(t, result.Aborted)
	assert.Equal(t, api.White, result.State.CurrentPlayer)
	assert.Len(t, result.State.Pieces, 32)
}

func TestSoftTimeout(t *testing.T) {
	svc := servicetest.Start(t, servicetest.WithStalledBot())

	config := config(api.HumanVsComputer)
	config.Timeout = 60 * time.Millisecond

	result, out, err := run(t, svc, config)
	require.NoError(t, err)

	assertInOrder(t, out,
		"5. Waiting for Computer (Black) to move...\n.",
		"\nTimeout waiting for bot!\n\nComputer Moved!\n",
		"Current Player: Black\n\nTest Complete.\n",
	)
	assert.True(t, result.TimedOut)
	assert.Equal(t, api.Black, result.State.CurrentPlayer)
}

func TestModes(t *testing.T) {
	t.Run("Both sides human skip the wait", func(t *testing.T) {
		svc := servicetest.Start(t)

		result, out, err := run(t, svc, config(api.HumanVsHuman))
		require.NoError(t, err)

		assertInOrder(t, out,
			"1. Creating New Game (Human vs Human, 2D, 8x8)...",
			"Move Accepted!",
			"5. Waiting for Computer: skipped, both sides are human.",
			"Test Complete.",
		)
		assert.NotContains(t, out, "Computer Moved!")
		assert.Equal(t, api.Black, result.State.CurrentPlayer)
	})

	t.Run("The computer opens as White", func(t *testing.T) {
		svc := servicetest.Start(t, servicetest.WithBotDelay(20*time.Millisecond))

		result, out, err := run(t, svc, config(api.ComputerVsHuman))
		require.NoError(t, err)

		assertInOrder(t, out,
			"1. Creating New Game (Computer vs Human, 2D, 8x8)...",
			"Waiting for Computer (White) to open...",
			"Computer Moved!",
			"Current Player: Black",
			"3. Checking Valid Moves",
			"No moves found for (1, 4) (Are we White?)",
			"4. Player Move: e7 -> e5 ((6, 4) -> (4, 4))...",
			"5. Waiting for Computer (White) to move...",
			"Test Complete.",
		)
		assert.Equal(t, 1, result.Plies)
		assert.Equal(t, api.Black, result.State.CurrentPlayer)
	})

	t.Run("Two computers are only watched", func(t *testing.T) {
		svc := servicetest.Start(t, servicetest.WithBotDelay(20*time.Millisecond))

		result, out, err := run(t, svc, config(api.ComputerVsComputer))
		require.NoError(t, err)

		assertInOrder(t, out,
			"4. Player Move: skipped, both sides are computers.",
			"5. Waiting for Computer (",
			"Computer Moved!",
			"Test Complete.",
		)
		assert.Zero(t, result.Plies)
	})

	t.Run("A stalled opening aborts the session", func(t *testing.T) {
		svc := servicetest.Start(t, servicetest.WithStalledBot())

		config := config(api.ComputerVsHuman)
		config.Timeout = 50 * time.Millisecond

		result, out, err := run(t, svc, config)
		require.NoError(t, err)

		assert.True(t, strings.HasSuffix(out, "Expected Black to start. Exiting.\n"), out)
		assert.NotContains(t, out, "4. Player Move")
		assert.True(t, result.Aborted)
		assert.True(t, result.TimedOut)
	})
}

func TestMoveSelection(t *testing.T) {
	t.Run("Falls back to the first legal move", func(t *testing.T) {
		svc := servicetest.Start(t, servicetest.WithBotDelay(20*time.Millisecond))

		// On a 5x5 board the black pawns block the king's pawn push.
		config := config(api.HumanVsComputer)
		config.Side = 5

		_, out, err := run(t, svc, config)
		require.NoError(t, err)
		assert.Contains(t, out, "4. Player Move: a2 -> a3 ((1, 0) -> (2, 0))...\nMove Accepted!")
	})

	t.Run("An explicit illegal move is an error", func(t *testing.T) {
		svc := servicetest.Start(t)

		config := config(api.HumanVsComputer)
		config.From, config.To = api.Coordinate{1, 4}, api.Coordinate{4, 4}

		result, out, err := run(t, svc, config)
		assert.True(t, client.IsStatus(err, 400), "%v", err)
		assert.NotContains(t, out, "Move Accepted!")
		assert.Zero(t, result.Plies)
	})

	t.Run("Higher dimensions use the summary and the first plane", func(t *testing.T) {
		svc := servicetest.Start(t, servicetest.WithBotDelay(20*time.Millisecond))

		config := config(api.HumanVsComputer)
		config.Dimension = 5
		config.Side = 6
		config.Probe = api.Coordinate{1, 3, 0, 0, 0}

		_, out, err := run(t, svc, config)
		require.NoError(t, err)
		assertInOrder(t, out,
			"1. Creating New Game (Human vs Computer, 5D, 6x6x6x6x6)...",
			"Multidimensional board (5D), showing raw pieces count: 24",
			"Moves for Pawn at (1, 3, 0, 0, 0): (2, 3, 0, 0, 0), (3, 3, 0, 0, 0)",
			"4. Player Move: (1, 3, 0, 0, 0) -> (3, 3, 0, 0, 0)...",
			"Computer Moved!",
		)
	})
}

func TestDefaultMove(t *testing.T) {
	from, to := driver.DefaultMove(api.White, 2, 8)
	assert.Equal(t, api.Coordinate{1, 4}, from)
	assert.Equal(t, api.Coordinate{3, 4}, to)

	from, to = driver.DefaultMove(api.Black, 3, 8)
	assert.Equal(t, api.Coordinate{6, 4, 0}, from)
	assert.Equal(t, api.Coordinate{4, 4, 0}, to)
}

type memoryRecorder struct {
	sessions map[string]history.Session
	updates  int
	fail     bool
}

func (r *memoryRecorder) Record(_ context.Context, session history.Session) error {
	if r.fail {
		return errors.New("disk full")
	}

	r.sessions[session.UUID] = session
	return nil
}

func (r *memoryRecorder) Update(_ context.Context, session history.Session) error {
	if r.fail {
		return errors.New("disk full")
	}

	r.updates++
	r.sessions[session.UUID] = session
	return nil
}

func TestRecording(t *testing.T) {
	t.Run("Sessions are recorded as they progress", func(t *testing.T) {
		svc := servicetest.Start(t, servicetest.WithStalledBot())
		recorder := &memoryRecorder{sessions: make(map[string]history.Session)}

		config := config(api.HumanVsComputer)
		config.Timeout = 50 * time.Millisecond
		config.Server = svc.URL()

		result, _, err := run(t, svc, config, driver.WithRecorder(recorder))
		require.NoError(t, err)

		session, found := recorder.sessions[result.UUID]
		require.True(t, found)
		assert.Equal(t, svc.URL(), session.Server)
		assert.Equal(t, api.HumanVsComputer, session.Mode)
		assert.Equal(t, 1, session.Plies)
		assert.Equal(t, api.Black, session.CurrentPlayer)
		assert.Equal(t, "timeout waiting for Black", session.Note)
		assert.GreaterOrEqual(t, recorder.updates, 2)
	})

	t.Run("A failing recorder doesn't fail the session", func(t *testing.T) {
		svc := servicetest.Start(t, servicetest.WithBotDelay(20*time.Millisecond))
		recorder := &memoryRecorder{fail: true}

		result, out, err := run(t, svc, config(api.HumanVsComputer), driver.WithRecorder(recorder))
		require.NoError(t, err)
		assert.Equal(t, 1, result.Plies)
		assert.Contains(t, out, "Test Complete.")
	})

	t.Run("The history store is a recorder", func(t *testing.T) {
		svc := servicetest.Start(t, servicetest.WithBotDelay(20*time.Millisecond))

		store, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = store.Close() })

		result, _, err := run(t, svc, config(api.HumanVsComputer), driver.WithRecorder(store))
		require.NoError(t, err)

		latest, err := store.Latest(context.Background())
		require.NoError(t, err)
		assert.Equal(t, result.UUID, latest.UUID)
		assert.Equal(t, 1, latest.Plies)
		assert.Equal(t, api.White, latest.CurrentPlayer)
		assert.Equal(t, "InProgress", latest.Status)
	})
}

func TestUnreachableService(t *testing.T) {
	c, err := client.New("http://127.0.0.1:1")
	require.NoError(t, err)

	var out bytes.Buffer
	result, err := driver.New(c, &out, config(api.HumanVsComputer)).Run(context.Background())

	var transportErr *client.TransportError
	assert.True(t, errors.As(err, &transportErr), "%v", err)
	assert.Nil(t, result)
}
