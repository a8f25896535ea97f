package servicetest

import (
	"laptudirm.com/x/hyperchess/pkg/api"
)

var backRank = []api.PieceType{
	api.Rook, api.Knight, api.Bishop, api.Queen,
	api.King, api.Bishop, api.Knight, api.Rook,
}

// game is a board on which only pawns move, one square forward along
// axis 0, or two from their starting rank.
type game struct {
	mode      api.Mode
	dimension int
	side      int
	turn      api.Player
	sequence  int
	status    api.Status

	board map[string]api.Piece
}

func newGame(mode api.Mode, dimension, side int) *game {
	g := &game{
		mode:      mode,
		dimension: dimension,
		side:      side,
		turn:      api.White,
		status:    api.Status{Kind: api.InProgress},
		board:     make(map[string]api.Piece),
	}

	// Every axis past the first two is fixed at 0, so higher dimensional
	// boards get the 2-d setup on their first plane.
	place := func(kind api.PieceType, owner api.Player, rank, file int) {
		coord := make(api.Coordinate, dimension)
		coord[0], coord[1] = rank, file
		g.board[coord.String()] = api.Piece{Type: kind, Owner: owner, Coordinate: coord}
	}

	for file := 0; file < side; file++ {
		kind := backRank[file%len(backRank)]
		place(kind, api.White, 0, file)
		place(api.Pawn, api.White, 1, file)
		place(api.Pawn, api.Black, side-2, file)
		place(kind, api.Black, side-1, file)
	}

	return g
}

func (g *game) forward(owner api.Player) int {
	if owner == api.White {
		return 1
	}

	return -1
}

func (g *game) startRank(owner api.Player) int {
	if owner == api.White {
		return 1
	}

	return g.side - 2
}

func (g *game) moves() map[string][]api.ValidMove {
	moves := make(map[string][]api.ValidMove)
	for key, piece := range g.board {
		if piece.Owner != g.turn || piece.Type != api.Pawn {
			continue
		}

		step := g.forward(piece.Owner)
		distance := 1
		if piece.Coordinate[0] == g.startRank(piece.Owner) {
			distance = 2
		}

		for i := 1; i <= distance; i++ {
			to := append(api.Coordinate(nil), piece.Coordinate...)
			to[0] += i * step
			if !to.Within(g.side) {
				break
			}

			if _, occupied := g.board[to.String()]; occupied {
				break
			}

			moves[key] = append(moves[key], api.ValidMove{To: to, Consequence: api.NoEffect})
		}
	}

	return moves
}

func (g *game) legal(from, to api.Coordinate) bool {
	for _, move := range g.moves()[from.String()] {
		if move.To.Equal(to) {
			return true
		}
	}

	return false
}

func (g *game) play(from, to api.Coordinate, pass bool) {
	piece := g.board[from.String()]
	delete(g.board, from.String())

	piece.Coordinate = append(api.Coordinate(nil), to...)
	g.board[to.String()] = piece
	g.sequence++

	if pass {
		g.turn = g.turn.Opponent()
	}

	if len(g.moves()) == 0 {
		g.status = api.Status{Kind: api.Stalemate}
	}
}

func (g *game) state() *api.GameState {
	state := &api.GameState{
		Dimension:     g.dimension,
		Side:          g.side,
		CurrentPlayer: g.turn,
		ValidMoves:    g.moves(),
		Status:        g.status,
		Sequence:      g.sequence,
	}

	for _, piece := range g.board {
		state.Pieces = append(state.Pieces, piece)
	}

	return state
}
