package timeexpr

import (
	"github.com/alecthomas/participle/v2/lexer"
)

var TimeExprLexerRules = []lexer.SimpleRule{
	{Name: "Now", Pattern: `now`},
	{Name: "Term", Pattern: `[+-][0-9]+[a-zA-Z]+`},
	{Name: "Slash", Pattern: `/`},
	{Name: "Unit", Pattern: `[a-zA-Z]+`},
}

var TimeExprLexerDefinition = lexer.MustSimple(TimeExprLexerRules)
