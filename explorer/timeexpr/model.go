package timeexpr

// TimeScript is the raw parse tree: `now` and a flat run of terms and snaps.
// Placement rules for the snap are checked in compile.
type TimeScript struct {
	Now   string  `parser:"@Now"`
	Parts []*Part `parser:"@@*"`
}

type Part struct {
	Term string `parser:"  @Term"`
	Snap string `parser:"| \"/\" @Unit"`
}

type Side int

const (
	Front Side = iota
	Back
)

func (s Side) String() string {
	if s == Back {
		return "back"
	}
	return "front"
}

const (
	UnitSecond  = "s"
	UnitMinute  = "m"
	UnitHour    = "h"
	UnitDay     = "D"
	UnitWeek    = "W"
	UnitISOWeek = "IW"
	UnitMonth   = "M"
	UnitQuarter = "Q"
	UnitYear    = "Y"
)

var snapUnits = map[string]bool{
	UnitMinute:  true,
	UnitHour:    true,
	UnitDay:     true,
	UnitWeek:    true,
	UnitISOWeek: true,
	UnitMonth:   true,
	UnitQuarter: true,
	UnitYear:    true,
}

var shiftUnits = map[string]bool{
	UnitSecond: true,
	UnitMinute: true,
	UnitHour:   true,
	UnitDay:    true,
	UnitMonth:  true,
}

// Snap truncates to the start of Unit and then moves Offset periods.
type Snap struct {
	Unit   string
	Offset int
}

type Shift struct {
	Amount int
	Unit   string
}

// Expression is a compiled relative time expression.
type Expression struct {
	Source string
	Snap   *Snap
	Shifts []Shift
}
