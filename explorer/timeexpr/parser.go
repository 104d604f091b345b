package timeexpr

import (
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/grafana/regexp"
)

var parser = participle.MustBuild[TimeScript](
	participle.Lexer(TimeExprLexerDefinition),
	participle.UseLookahead(2))

var termRe = regexp.MustCompile(`^([+-][0-9]+)([a-zA-Z]+)$`)

// Parse checks an expression against the grammar and compiles it.
func Parse(str string) (*Expression, error) {
	script, err := parser.ParseString("", str)
	if err != nil {
		return nil, invalid(str, "%s", err.Error())
	}
	return compile(str, script)
}

func compile(str string, script *TimeScript) (*Expression, error) {
	res := &Expression{Source: str}
	var pending []Shift
	for i, part := range script.Parts {
		if part.Snap == "" {
			amount, unit, err := parseTerm(str, part.Term)
			if err != nil {
				return nil, err
			}
			pending = append(pending, Shift{Amount: amount, Unit: unit})
			continue
		}
		if res.Snap != nil {
			return nil, invalid(str, "only one snap is allowed")
		}
		if !snapUnits[part.Snap] {
			return nil, invalid(str, "unknown snap unit %s", part.Snap)
		}
		res.Snap = &Snap{Unit: part.Snap}
		switch i {
		case 0:
		case 1:
			if pending[0].Unit != part.Snap {
				return nil, invalid(str, "snap offset unit %s does not match %s", pending[0].Unit, part.Snap)
			}
			res.Snap.Offset = pending[0].Amount
			pending = nil
		default:
			return nil, invalid(str, "snap must directly follow now or a single offset")
		}
	}
	for _, s := range pending {
		if !shiftUnits[s.Unit] {
			return nil, invalid(str, "unknown shift unit %s", s.Unit)
		}
	}
	res.Shifts = pending
	return res, nil
}

func parseTerm(str string, term string) (int, string, error) {
	m := termRe.FindStringSubmatch(term)
	if m == nil {
		return 0, "", invalid(str, "malformed term %s", term)
	}
	amount, err := strconv.Atoi(strings.TrimPrefix(m[1], "+"))
	if err != nil {
		return 0, "", invalid(str, "malformed amount %s", m[1])
	}
	return amount, m[2], nil
}
