package api

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoordinate(t *testing.T) {
	t.Run("String matches the valid moves key format", func(t *testing.T) {
		assert.Equal(t, "(1, 4)", Coordinate{1, 4}.String())
		assert.Equal(t, "(0, 0, 7)", Coordinate{0, 0, 7}.String())
		assert.Equal(t, "()", Coordinate{}.String())
	})

	t.Run("ParseCoordinate accepts every supported form", func(t *testing.T) {
		for _, str := range []string{"(1, 4)", "[1,4]", "1,4", " ( 1 ,4 ) "} {
			coord, err := ParseCoordinate(str)
			require.NoError(t, err, str)
			assert.Equal(t, Coordinate{1, 4}, coord, str)
		}
	})

	t.Run("ParseCoordinate rejects malformed input", func(t *testing.T) {
		for _, str := range []string{"", "()", "1,", "a,b", "(1, -4)", "1;4"} {
			_, err := ParseCoordinate(str)
			assert.True(t, errors.Is(err, ErrBadCoordinate), str)
		}
	})

	t.Run("String and ParseCoordinate round trip", func(t *testing.T) {
		coord := Coordinate{3, 0, 12, 5}
		parsed, err := ParseCoordinate(coord.String())
		require.NoError(t, err)
		assert.True(t, coord.Equal(parsed))
	})

	t.Run("Within checks every axis", func(t *testing.T) {
		assert.True(t, Coordinate{0, 7}.Within(8))
		assert.False(t, Coordinate{0, 8}.Within(8))
		assert.False(t, Coordinate{-1, 0}.Within(8))
	})
}

func TestPieceSymbol(t *testing.T) {
	tests := []struct {
		kind  PieceType
		owner Player
		want  string
	}{
		{Pawn, White, "P"},
		{Knight, White, "N"},
		{Knight, Black, "n"},
		{King, Black, "k"},
		{Queen, White, "Q"},
		{Bishop, Black, "b"},
		{PieceType("Unicorn"), White, "U"},
	}

	for _, test := range tests {
		assert.Equal(t, test.want, test.kind.Symbol(test.owner), "%s %s", test.owner, test.kind)
	}
}

func TestMode(t *testing.T) {
	mode, err := ParseMode(" HC ")
	require.NoError(t, err)
	assert.Equal(t, HumanVsComputer, mode)

	_, err = ParseMode("hx")
	assert.ErrorIs(t, err, ErrUnknownMode)

	assert.False(t, HumanVsComputer.Computer(White))
	assert.True(t, HumanVsComputer.Computer(Black))
	assert.True(t, ComputerVsHuman.Computer(White))
	assert.Equal(t, []Player{White}, HumanVsComputer.Human())
	assert.Equal(t, []Player{Black}, ComputerVsHuman.Human())
	assert.Equal(t, []Player{White, Black}, HumanVsHuman.Human())
	assert.Empty(t, ComputerVsComputer.Human())
}

const referenceState = `{
	"pieces": [
		{"piece_type": "Pawn", "owner": "White", "coordinate": [1, 4]},
		{"piece_type": "King", "owner": "White", "coordinate": [0, 4]},
		{"piece_type": "King", "owner": "Black", "coordinate": [7, 4]}
	],
	"current_player": "White",
	"valid_moves": {
		"(1, 4)": [{"to": [2, 4], "consequence": "NoEffect"}, {"to": [3, 4], "consequence": "NoEffect"}],
		"(0, 4)": [{"to": [0, 3], "consequence": "NoEffect"}]
	},
	"status": "InProgress",
	"dimension": 2,
	"side": 8,
	"in_check": false,
	"sequence": 0
}`

func TestGameStateDecoding(t *testing.T) {
	t.Run("Decodes the reference service's object moves", func(t *testing.T) {
		var state GameState
		require.NoError(t, json.Unmarshal([]byte(referenceState), &state))

		assert.Equal(t, White, state.CurrentPlayer)
		assert.Equal(t, Status{Kind: InProgress}, state.Status)
		assert.Len(t, state.Pieces, 3)
		assert.Equal(t, 3, state.MoveCount())
		assert.Equal(t, []string{"(0, 4)", "(1, 4)"}, state.Sources())

		moves := state.MovesFrom(Coordinate{1, 4})
		require.Len(t, moves, 2)
		assert.Equal(t, Coordinate{3, 4}, moves[1].To)
		assert.Equal(t, NoEffect, moves[1].Consequence)
		assert.NoError(t, state.Validate())
	})

	t.Run("Decodes bare coordinate lists", func(t *testing.T) {
		data := `{"dimension": 2, "side": 8, "current_player": "White",
			"pieces": [{"piece_type": "Pawn", "owner": "White", "coordinate": [1, 4]}],
			"valid_moves": {"(1, 4)": [[2, 4], [3, 4]]}}`

		var state GameState
		require.NoError(t, json.Unmarshal([]byte(data), &state))

		assert.Equal(t, []ValidMove{{To: Coordinate{2, 4}}, {To: Coordinate{3, 4}}}, state.MovesFrom(Coordinate{1, 4}))
		assert.Equal(t, Status{}, state.Status)
		assert.False(t, state.Status.Over())
	})

	t.Run("Decodes every status form", func(t *testing.T) {
		tests := map[string]Status{
			`"InProgress"`:           {Kind: InProgress},
			`"Stalemate"`:            {Kind: Stalemate},
			`{"Checkmate": "Black"}`: {Kind: Checkmate, Winner: Black},
			`null`:                   {},
		}

		for data, want := range tests {
			var status Status
			require.NoError(t, json.Unmarshal([]byte(data), &status), data)
			assert.Equal(t, want, status, data)

			encoded, err := json.Marshal(status)
			require.NoError(t, err)
			assert.JSONEq(t, data, string(encoded))
		}

		var status Status
		assert.Error(t, json.Unmarshal([]byte(`{"Checkmate": "White", "Draw": "Black"}`), &status))
		assert.True(t, Status{Kind: Checkmate, Winner: White}.Over())
		assert.Equal(t, "Checkmate (White wins)", Status{Kind: Checkmate, Winner: White}.String())
	})
}

func TestGameStateHelpers(t *testing.T) {
	var state GameState
	require.NoError(t, json.Unmarshal([]byte(referenceState), &state))

	piece, found := state.PieceAt(Coordinate{0, 4})
	require.True(t, found)
	assert.Equal(t, King, piece.Type)

	_, found = state.PieceAt(Coordinate{4, 4})
	assert.False(t, found)

	assert.True(t, state.HasMoves(Coordinate{1, 4}))
	assert.False(t, state.HasMoves(Coordinate{7, 4}))
	assert.True(t, state.Allows(Coordinate{1, 4}, Coordinate{3, 4}))
	assert.False(t, state.Allows(Coordinate{1, 4}, Coordinate{4, 4}))
	assert.False(t, state.Allows(Coordinate{7, 4}, Coordinate{6, 4}))
	assert.Equal(t, 2, state.PieceCount(White))
	assert.Equal(t, 3, state.PieceCount(""))

	from, to, ok := state.FirstMove()
	require.True(t, ok)
	assert.Equal(t, Coordinate{0, 4}, from)
	assert.Equal(t, Coordinate{0, 3}, to)
}

func TestGameStateValidate(t *testing.T) {
	base := func() *GameState {
		var state GameState
		require.NoError(t, json.Unmarshal([]byte(referenceState), &state))
		return &state
	}

	tests := map[string]func(*GameState){
		"piece out of range": func(s *GameState) {
			s.Pieces[0].Coordinate = Coordinate{8, 4}
		},
		"piece with wrong dimension": func(s *GameState) {
			s.Pieces[0].Coordinate = Coordinate{1, 4, 0}
		},
		"two pieces on one square": func(s *GameState) {
			s.Pieces[2].Coordinate = Coordinate{0, 4}
		},
		"moves for the opponent": func(s *GameState) {
			s.ValidMoves["(7, 4)"] = []ValidMove{{To: Coordinate{6, 4}}}
		},
		"moves from an empty square": func(s *GameState) {
			s.ValidMoves["(4, 4)"] = []ValidMove{{To: Coordinate{5, 4}}}
		},
		"unparseable key": func(s *GameState) {
			s.ValidMoves["e2"] = nil
		},
		"destination out of range": func(s *GameState) {
			s.ValidMoves["(1, 4)"] = []ValidMove{{To: Coordinate{1, 9}}}
		},
		"unknown player": func(s *GameState) {
			s.CurrentPlayer = "Red"
		},
	}

	for name, corrupt := range tests {
		t.Run(name, func(t *testing.T) {
			state := base()
			corrupt(state)
			assert.Error(t, state.Validate())
		})
	}
}

func TestGameStateSame(t *testing.T) {
	var a, b GameState
	require.NoError(t, json.Unmarshal([]byte(referenceState), &a))
	require.NoError(t, json.Unmarshal([]byte(referenceState), &b))

	// Reorder pieces and destinations; the position is unchanged.
	b.Pieces[0], b.Pieces[2] = b.Pieces[2], b.Pieces[0]
	moves := b.ValidMoves["(1, 4)"]
	moves[0], moves[1] = moves[1], moves[0]
	assert.True(t, a.Same(&b))

	b.CurrentPlayer = Black
	assert.False(t, a.Same(&b))

	b.CurrentPlayer = White
	b.ValidMoves["(1, 4)"] = moves[:1]
	assert.False(t, a.Same(&b))
}
