package board

import (
	"fmt"
)

// Location is a single square: file 0-7 (a-h) and rank 0-7 (1-8).
type Location struct {
	File uint8
	Rank uint8
}

func NewLocation(file, rank int) (Location, bool) {
	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return Location{}, false
	}
	return Location{File: uint8(file), Rank: uint8(rank)}, true
}

// MustLocation parses a square code and panics on malformed input. Intended for tests and constants.
func MustLocation(s string) Location {
	loc, err := ParseLocation(s)
	if err != nil {
		panic(err)
	}
	return loc
}

func ParseLocation(s string) (Location, error) {
	if len(s) != 2 {
		return Location{}, fmt.Errorf("invalid location %q", s)
	}
	file, rank := s[0], s[1]
	if file < 'a' || file > 'h' || rank < '1' || rank > '8' {
		return Location{}, fmt.Errorf("invalid location %q", s)
	}
	return Location{File: file - 'a', Rank: rank - '1'}, nil
}

func (l Location) Valid() bool {
	return l.File < 8 && l.Rank < 8
}

func (l Location) String() string {
	return string([]byte{'a' + l.File, '1' + l.Rank})
}

// Offset returns the square shifted by df files and dr ranks, false if it leaves the board.
func (l Location) Offset(df, dr int) (Location, bool) {
	return NewLocation(int(l.File)+df, int(l.Rank)+dr)
}

func (l Location) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("invalid location %d/%d", l.File, l.Rank)
	}
	return []byte(l.String()), nil
}

func (l *Location) UnmarshalText(text []byte) error {
	loc, err := ParseLocation(string(text))
	if err != nil {
		return err
	}
	*l = loc
	return nil
}

// AllLocations lists the 64 squares from a1 to h8, rank by rank.
func AllLocations() []Location {
	locs := make([]Location, 0, 64)
	for rank := uint8(0); rank < 8; rank++ {
		for file := uint8(0); file < 8; file++ {
			locs = append(locs, Location{File: file, Rank: rank})
		}
	}
	return locs
}
