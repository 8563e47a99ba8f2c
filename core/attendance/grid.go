package attendance

import "github.com/trezcool/checkin/core/classroom"

type (
	Cell struct {
		Seat      int // 1-based
		Available bool
		StudentID string
		Name      string
	}

	// Grid is the seating chart of a classroom. Rows are in display order: the row holding
	// seat 1 comes last, nearest the podium.
	Grid struct {
		ClassroomID string
		Columns     int
		Capacity    int
		Signed      int
		Rows        [][]Cell
	}
)

// BuildGrid places every signed entry with a seat in [1, capacity] on a rows×columns grid.
// Seat s sits at row (s-1)/columns and column (s-1)%columns before the rows are reversed.
func BuildGrid(room classroom.Classroom, entries []Entry) Grid {
	rows, cols := room.Rows, room.Columns
	if rows < 0 {
		rows = 0
	}
	if cols < 0 {
		cols = 0
	}
	capacity := room.Capacity()

	cells := make([][]Cell, rows)
	for r := range cells {
		cells[r] = make([]Cell, cols)
		for c := range cells[r] {
			seat := r*cols + c + 1
			cells[r][c] = Cell{Seat: seat, Available: seat <= capacity}
		}
	}

	var signed int
	for _, e := range entries {
		if e.Status != StatusSigned || e.SeatNumber == nil {
			continue
		}
		seat := *e.SeatNumber
		if seat < 1 || seat > capacity {
			continue
		}
		idx := seat - 1
		cell := &cells[idx/cols][idx%cols]
		cell.StudentID = e.StudentID
		cell.Name = e.Name
		signed++
	}

	for i, j := 0, len(cells)-1; i < j; i, j = i+1, j-1 {
		cells[i], cells[j] = cells[j], cells[i]
	}

	return Grid{
		ClassroomID: room.ID,
		Columns:     cols,
		Capacity:    capacity,
		Signed:      signed,
		Rows:        cells,
	}
}

// At returns the cell of seat (1-based), or false when the seat is not on the grid.
func (g Grid) At(seat int) (Cell, bool) {
	if seat < 1 || g.Columns == 0 {
		return Cell{}, false
	}
	idx := seat - 1
	row := idx / g.Columns
	if row >= len(g.Rows) {
		return Cell{}, false
	}
	return g.Rows[len(g.Rows)-1-row][idx%g.Columns], true
}
