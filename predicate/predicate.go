// Package predicate parses and evaluates the "&"-joined gate expressions that
// decide whether a configuration fragment or override applies to a request.
//
// Grammar (one expression):
//
//	expr   = clause { "&" clause }
//	clause = [ "!" ] ( "always" | "parse" | category ":" tag )
//
// Clauses over a category the state does not declare are vacuously true,
// whether or not they are negated.
package predicate

import (
	"fmt"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/ByLCY/textboxer/document"
)

// 关键字子句。
const (
	KeywordAlways = "always"
	KeywordParse  = "parse"
)

var (
	predicateLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Not", Pattern: `!`},
		{Name: "And", Pattern: `&`},
		{Name: "Colon", Pattern: `:`},
		{Name: "Word", Pattern: `[^!&:]+`},
	})

	expressionParser = participle.MustBuild[Expression](
		participle.Lexer(predicateLexer),
	)
)

// Expression is a parsed predicate: the conjunction of its clauses.
type Expression struct {
	Clauses []*Clause `parser:"@@ ( '&' @@ )*"`
}

// Clause is one term of an expression.
type Clause struct {
	Pos     lexer.Position `parser:""`
	Negated bool           `parser:"@'!'?"`
	Head    string         `parser:"@Word"`
	Tag     *Tag           `parser:"@@?"`
}

// Tag is the ":tag" half of a category clause. It may itself contain ':' or '!'.
type Tag struct {
	Value string `parser:"':' @( Word | ':' | '!' )*"`
}

// String renders the clause back to its source form.
func (c *Clause) String() string {
	s := c.Head
	if c.Negated {
		s = "!" + s
	}
	if c.Tag != nil {
		s += ":" + c.Tag.Value
	}
	return s
}

// Parse compiles expr. Malformed input, including a clause that is neither a
// keyword nor a "category:tag" pair, yields a *document.ConfigError.
func Parse(expr string) (*Expression, error) {
	parsed, err := expressionParser.ParseString("", expr)
	if err != nil {
		return nil, &document.ConfigError{Path: document.KeyPredicate, Reason: fmt.Sprintf("无法解析谓词 %q: %v", expr, err)}
	}
	for _, c := range parsed.Clauses {
		if c.Tag != nil {
			continue
		}
		switch c.Head {
		case KeywordAlways, KeywordParse:
			if c.Negated {
				return nil, &document.ConfigError{Path: document.KeyPredicate, Reason: fmt.Sprintf("关键字 %q 不能取反", c.Head)}
			}
		default:
			return nil, &document.ConfigError{Path: document.KeyPredicate, Reason: fmt.Sprintf("子句 %q 缺少 ':' 分隔符", c.String())}
		}
	}
	return parsed, nil
}

// Eval reports whether every clause holds under state, stopping at the first
// clause that does not.
func (e *Expression) Eval(state State) bool {
	for _, c := range e.Clauses {
		if !c.eval(state) {
			return false
		}
	}
	return true
}

// IsParse reports whether the expression marks preload-only metadata.
func (e *Expression) IsParse() bool {
	return len(e.Clauses) == 1 && e.Clauses[0].Tag == nil && e.Clauses[0].Head == KeywordParse
}

func (c *Clause) eval(state State) bool {
	if c.Tag == nil {
		// parse 片段只走预加载路径，在正常解析中永不匹配
		return c.Head == KeywordAlways
	}
	member, known := state.Has(c.Head, c.Tag.Value)
	if !known {
		return true
	}
	return member != c.Negated
}

// Evaluate parses expr and evaluates it against state.
func Evaluate(state State, expr string) (bool, error) {
	e, err := Parse(expr)
	if err != nil {
		return false, err
	}
	return e.Eval(state), nil
}
