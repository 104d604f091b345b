package composition

import (
	"time"

	"github.com/podlake/explorer/explorer/timeexpr"
)

// RangeFields is a from/to pair of time expressions. Compositions, timestamp
// filters and comparisons each carry one.
type RangeFields struct {
	From string
	To   string

	from     time.Time
	to       time.Time
	resolved bool
}

func NewRange(from, to string) RangeFields {
	return RangeFields{From: from, To: to}
}

// AbsoluteRange builds an already resolved range.
func AbsoluteRange(from, to time.Time) RangeFields {
	return RangeFields{
		From:     from.UTC().Format(time.RFC3339),
		To:       to.UTC().Format(time.RFC3339),
		from:     from.UTC(),
		to:       to.UTC(),
		resolved: true,
	}
}

func (r *RangeFields) Present() bool {
	return r.From != "" || r.To != ""
}

func (r *RangeFields) Resolved() bool {
	return r.resolved
}

func (r *RangeFields) Bounds() (time.Time, time.Time) {
	return r.from, r.to
}

// validate resolves both ends against now. from resolves on the front side
// and to on the back side.
func (r *RangeFields) validate(prefix string, now time.Time, errs *Errors) {
	r.resolved = false
	fromField, toField := prefix+"from", prefix+"to"
	ok := true
	if r.From == "" {
		errs.Add(fromField, Blank)
		ok = false
	} else if t, err := timeexpr.ResolveBound(r.From, timeexpr.Front, now); err != nil {
		errs.Add(fromField, Invalid, err.Error())
		ok = false
	} else {
		r.from = t
	}
	if r.To == "" {
		errs.Add(toField, Blank)
		ok = false
	} else if t, err := timeexpr.ResolveBound(r.To, timeexpr.Back, now); err != nil {
		errs.Add(toField, Invalid, err.Error())
		ok = false
	} else {
		r.to = t
	}
	if !ok {
		return
	}
	if !r.from.Before(r.to) {
		errs.Add(toField, RangeOrder)
		return
	}
	r.resolved = true
}
