package rules

import (
	"chessboard/internal/domain/board"
)

type offset struct{ df, dr int }

var (
	knightOffsets = []offset{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingOffsets   = []offset{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}
	bishopRays    = []offset{{1, 1}, {-1, 1}, {-1, -1}, {1, -1}}
	rookRays      = []offset{{1, 0}, {0, 1}, {-1, 0}, {0, -1}}
)

// reach lists the squares the piece on src attacks or can step to by its movement rule,
// ignoring whose turn it is and the colour of the piece on the target. Sliding pieces stop at
// the first occupied square, which is included. Castling and en passant are not pattern moves.
func reach(m board.BoardMap, src board.Location) []board.Location {
	occ, ok := m.At(src)
	if !ok {
		return nil
	}
	switch occ.Kind {
	case board.Knight:
		return steps(src, knightOffsets)
	case board.King:
		return steps(src, kingOffsets)
	case board.Bishop:
		return slides(m, src, bishopRays)
	case board.Rook:
		return slides(m, src, rookRays)
	case board.Queen:
		return append(slides(m, src, bishopRays), slides(m, src, rookRays)...)
	case board.Pawn:
		return pawnReach(m, src, occ.Color)
	}
	return nil
}

func reaches(m board.BoardMap, src, dst board.Location) bool {
	for _, loc := range reach(m, src) {
		if loc == dst {
			return true
		}
	}
	return false
}

func steps(src board.Location, offsets []offset) []board.Location {
	var out []board.Location
	for _, o := range offsets {
		if loc, ok := src.Offset(o.df, o.dr); ok {
			out = append(out, loc)
		}
	}
	return out
}

func slides(m board.BoardMap, src board.Location, rays []offset) []board.Location {
	var out []board.Location
	for _, ray := range rays {
		loc, ok := src.Offset(ray.df, ray.dr)
		for ok {
			out = append(out, loc)
			if _, occupied := m[loc]; occupied {
				break
			}
			loc, ok = loc.Offset(ray.df, ray.dr)
		}
	}
	return out
}

func pawnReach(m board.BoardMap, src board.Location, color board.Color) []board.Location {
	dir, start := 1, uint8(1)
	if color == board.Black {
		dir, start = -1, 6
	}

	var out []board.Location
	if one, ok := src.Offset(0, dir); ok {
		if _, occupied := m[one]; !occupied {
			out = append(out, one)
			if src.Rank == start {
				if two, ok := src.Offset(0, 2*dir); ok {
					if _, occupied := m[two]; !occupied {
						out = append(out, two)
					}
				}
			}
		}
	}
	for _, df := range []int{-1, 1} {
		if diag, ok := src.Offset(df, dir); ok {
			if _, occupied := m[diag]; occupied {
				out = append(out, diag)
			}
		}
	}
	return out
}

func isPromotionSquare(color board.Color, loc board.Location) bool {
	if color == board.White {
		return loc.Rank == 7
	}
	return loc.Rank == 0
}
