package classroom

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/checkin/core"
)

// MaxSeats is the number of printable seat codes per classroom.
const MaxSeats = 48

type Classroom struct {
	ID          string `json:"id" db:"id"`
	Rows        int    `json:"rows" db:"num_rows"`
	Columns     int    `json:"columns" db:"num_columns"`
	CheckinOpen bool   `json:"checkin_open" db:"checkin_open"`
}

// Capacity is the number of usable seats: rows × columns, capped at MaxSeats.
func (c Classroom) Capacity() int {
	n := c.Rows * c.Columns
	if n > MaxSeats {
		return MaxSeats
	}
	if n < 0 {
		return 0
	}
	return n
}

// ValidSeat reports whether seat is within [1, Capacity()].
func (c Classroom) ValidSeat(seat int) bool {
	return seat >= 1 && seat <= c.Capacity()
}

// NewClassroom contains information needed to register a Classroom.
type NewClassroom struct {
	ID      string `form:"classroom_id" json:"classroom_id" validate:"required,classroom_id"`
	Rows    int    `form:"row" json:"row" validate:"min=1,max=50"`
	Columns int    `form:"column" json:"column" validate:"min=1,max=50"`
}

func (nc *NewClassroom) Validate(validate *validator.Validate) error {
	nc.ID = core.CleanString(nc.ID)
	return validate.Struct(nc)
}
