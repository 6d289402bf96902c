package game

import (
	"math/rand"
	"sort"
)

// Board is the fixed cyclic track. Its composition never changes after NewBoard.
type Board struct {
	cells []CellType
}

// NewBoard replicates each cell type by its frequency, pads with white cells,
// shuffles, and truncates to size.
func NewBoard(size int, frequencies map[CellType]int, rng *rand.Rand) *Board {
	order := []CellType{CellGreen, CellRed, CellWhite}
	var extra []CellType
	for cell := range frequencies {
		if cell != CellGreen && cell != CellRed && cell != CellWhite {
			extra = append(extra, cell)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	order = append(order, extra...)

	cells := make([]CellType, 0, size)
	for _, cell := range order {
		for i := 0; i < frequencies[cell]; i++ {
			cells = append(cells, cell)
		}
	}
	for len(cells) < size {
		cells = append(cells, CellWhite)
	}
	rng.Shuffle(len(cells), func(i, j int) {
		cells[i], cells[j] = cells[j], cells[i]
	})
	if len(cells) > size {
		cells = cells[:size]
	}
	return &Board{cells: cells}
}

// Size returns the number of cells.
func (b *Board) Size() int {
	return len(b.cells)
}

// CellAt returns the cell at position, wrapping around the track.
func (b *Board) CellAt(position int) CellType {
	n := len(b.cells)
	if n == 0 {
		return CellWhite
	}
	return b.cells[((position%n)+n)%n]
}

// Composition counts cells by type.
func (b *Board) Composition() map[CellType]int {
	out := make(map[CellType]int)
	for _, c := range b.cells {
		out[c]++
	}
	return out
}
