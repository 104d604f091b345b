package composition

import (
	"strconv"

	"github.com/podlake/explorer/explorer/schema"
	"golang.org/x/exp/slices"
)

type Operator string

const (
	Include Operator = "include"
	Exclude Operator = "exclude"
)

const NullsFollow = "follow"

type FilterMode int

const (
	ModeValues FilterMode = iota
	ModeRange
	ModeExtract
	ModeDuration
)

var ExtractParts = []string{"hour", "day", "dow", "doy", "week", "month", "quarter", "year"}

// Filter restricts one dimension. Which of the option fields are legal is
// decided by the dimension type; see Mode.
type Filter struct {
	Key       string
	Dimension *schema.Dimension
	Operator  Operator
	Nulls     string
	Values    []string
	Range     RangeFields
	Extract   string
	Gte       string
	Lt        string

	gte *int64
	lt  *int64
}

func (f *Filter) field(suffix string) string {
	if suffix == "" {
		return "filter." + f.Key
	}
	return "filter." + f.Key + "." + suffix
}

func (f *Filter) Mode() FilterMode {
	if f.Dimension == nil {
		return ModeValues
	}
	switch f.Dimension.Type {
	case schema.Timestamp:
		if f.Extract != "" {
			return ModeExtract
		}
		return ModeRange
	case schema.Duration:
		return ModeDuration
	}
	return ModeValues
}

func (f *Filter) Excludes() bool {
	return f.Operator == Exclude
}

func (f *Filter) FollowsNulls() bool {
	return f.Nulls == NullsFollow
}

// DurationBounds returns the validated gte/lt seconds, nil when absent.
func (f *Filter) DurationBounds() (*int64, *int64) {
	return f.gte, f.lt
}

func (f *Filter) validate(v *validation) {
	if f.Dimension == nil {
		v.errs.Add(f.field(""), Blank)
		return
	}
	if f.Operator != "" && f.Operator != Include && f.Operator != Exclude {
		v.errs.Add(f.field("operator"), Inclusion)
	}
	if f.Nulls != "" {
		if f.Nulls != NullsFollow {
			v.errs.Add(f.field("nulls"), Inclusion)
		} else if !f.Dimension.PermitNulls {
			v.errs.Add(f.field("nulls"), NotPermitted)
		}
	}

	mode := f.Mode()
	if f.Dimension.Type != schema.Timestamp {
		f.mismatch(v, "from", f.Range.From, "to", f.Range.To, "extract", f.Extract)
	}
	if f.Dimension.Type != schema.Duration {
		f.mismatch(v, "gte", f.Gte, "lt", f.Lt)
	}

	switch mode {
	case ModeValues:
		f.validateValues(v)
	case ModeExtract:
		if !slices.Contains(ExtractParts, f.Extract) {
			v.errs.Add(f.field("extract"), Inclusion)
		}
		if f.Range.Present() {
			v.errs.Add(f.field("extract"), Exclusive)
		}
		if len(f.Values) == 0 {
			v.errs.Add(f.field(""), Blank)
		}
		for _, val := range f.Values {
			if _, err := strconv.ParseInt(val, 10, 64); err != nil {
				v.errs.Add(f.field(""), NotNumeric, val)
				break
			}
		}
	case ModeRange:
		if len(f.Values) > 0 {
			v.errs.Add(f.field(""), TypeMismatch)
		}
		f.Range.validate(f.field("")+".", v.now, v.errs)
	case ModeDuration:
		if len(f.Values) > 0 {
			v.errs.Add(f.field(""), TypeMismatch)
		}
		f.validateDuration(v)
	}
}

// mismatch flags options given for the wrong dimension type; pairs are
// suffix, value.
func (f *Filter) mismatch(v *validation, pairs ...string) {
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] != "" {
			v.errs.Add(f.field(pairs[i]), TypeMismatch)
		}
	}
}

func (f *Filter) validateValues(v *validation) {
	if len(f.Values) == 0 {
		v.errs.Add(f.field(""), Blank)
		return
	}
	switch f.Dimension.Warehouse.For(v.warehouse).Type {
	case schema.TypeInt64:
		for _, val := range f.Values {
			if _, err := strconv.ParseInt(val, 10, 64); err != nil {
				v.errs.Add(f.field(""), NotNumeric, val)
				return
			}
		}
	case schema.TypeFloat64:
		for _, val := range f.Values {
			if _, err := strconv.ParseFloat(val, 64); err != nil {
				v.errs.Add(f.field(""), NotNumeric, val)
				return
			}
		}
	}
}

func (f *Filter) validateDuration(v *validation) {
	f.gte, f.lt = nil, nil
	if f.Gte == "" && f.Lt == "" {
		v.errs.Add(f.field("gte"), Blank)
		return
	}
	parse := func(suffix, raw string) *int64 {
		if raw == "" {
			return nil
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			v.errs.Add(f.field(suffix), NotNumeric, raw)
			return nil
		}
		return &n
	}
	f.gte = parse("gte", f.Gte)
	f.lt = parse("lt", f.Lt)
	if f.gte != nil && f.lt != nil && *f.gte >= *f.lt {
		v.errs.Add(f.field("lt"), RangeOrder)
	}
}
