package api

import (
	"strings"
)

// Player represents one of the two sides in a game.
type Player string

const (
	White Player = "White"
	Black Player = "Black"
)

// Opponent returns the other side.
func (player Player) Opponent() Player {
	switch player {
	case White:
		return Black
	case Black:
		return White
	default:
		return player
	}
}

// Valid reports whether player is White or Black.
func (player Player) Valid() bool {
	return player == White || player == Black
}

// PieceType is the kind of a piece as named by the service.
type PieceType string

const (
	Pawn   PieceType = "Pawn"
	Rook   PieceType = "Rook"
	Knight PieceType = "Knight"
	Bishop PieceType = "Bishop"
	Queen  PieceType = "Queen"
	King   PieceType = "King"
)

// Symbol returns the single character used to draw a piece of the given
// type and owner: the type's initial, N for a Knight, and lowercase for
// Black's pieces.
func (kind PieceType) Symbol(owner Player) string {
	var symbol string
	switch {
	case kind == Knight:
		symbol = "N"
	case kind == "":
		symbol = "?"
	default:
		symbol = strings.ToUpper(string(kind)[:1])
	}

	if owner == Black {
		symbol = strings.ToLower(symbol)
	}

	return symbol
}

// Piece is a single piece on the board.
type Piece struct {
	Type       PieceType  `json:"piece_type"`
	Owner      Player     `json:"owner"`
	Coordinate Coordinate `json:"coordinate"`
}

// Symbol returns the character used to draw the piece.
func (piece Piece) Symbol() string {
	return piece.Type.Symbol(piece.Owner)
}
