package compiler

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/zoravur/pgmock/internal/catalog"
	"github.com/zoravur/pgmock/internal/pgerror"
)

// BinOp is a compiled binary operator: two evaluated Values in, one
// Value (or error) out.
type BinOp func(l, r catalog.Value) (catalog.Value, error)

var operators = map[string]BinOp{
	"=":   opCompare(func(c int) bool { return c == 0 }),
	"<>":  opCompare(func(c int) bool { return c != 0 }),
	"!=":  opCompare(func(c int) bool { return c != 0 }),
	"<":   opCompare(func(c int) bool { return c < 0 }),
	"<=":  opCompare(func(c int) bool { return c <= 0 }),
	">":   opCompare(func(c int) bool { return c > 0 }),
	">=":  opCompare(func(c int) bool { return c >= 0 }),
	"+":   opArith("+", func(a, b int64) int64 { return a + b }),
	"-":   opArith("-", func(a, b int64) int64 { return a - b }),
	"~~":  opLike(false, false),
	"~~*": opLike(false, true),
	"!~~": opLike(true, false),
	"!~~*": opLike(true, true),
}

// opCompare builds a comparison operator out of a predicate over the
// three-way result of comparing two same-Kind values. NULL on either side
// propagates to NULL, matching PostgreSQL's comparison semantics.
func opCompare(pred func(cmp int) bool) BinOp {
	return func(l, r catalog.Value) (catalog.Value, error) {
		if l.IsNull() || r.IsNull() {
			return catalog.Null(), nil
		}
		if l.Kind != r.Kind {
			return catalog.Value{}, pgerror.UndefinedFunction("operator does not exist: %s vs %s", l.Kind, r.Kind)
		}
		var cmp int
		switch {
		case l.Equal(r):
			cmp = 0
		case l.Less(r):
			cmp = -1
		default:
			cmp = 1
		}
		return catalog.BoolValue(pred(cmp)), nil
	}
}

func opArith(symbol string, fn func(a, b int64) int64) BinOp {
	return func(l, r catalog.Value) (catalog.Value, error) {
		if l.IsNull() || r.IsNull() {
			return catalog.Null(), nil
		}
		if l.Kind != catalog.KindInt || r.Kind != catalog.KindInt {
			return catalog.Value{}, pgerror.UndefinedFunction("operator does not exist: %s %s %s", l.Kind, symbol, r.Kind)
		}
		return catalog.IntValue(fn(l.Int, r.Int)), nil
	}
}

// opLike builds LIKE/ILIKE (and their NOT variants). The pattern (right
// operand) is translated to a regex at evaluation time since it need not
// be a constant.
func opLike(negate, caseInsensitive bool) BinOp {
	return func(l, r catalog.Value) (catalog.Value, error) {
		if l.IsNull() || r.IsNull() {
			return catalog.Null(), nil
		}
		if l.Kind != catalog.KindText || r.Kind != catalog.KindText {
			return catalog.Value{}, pgerror.UndefinedFunction("operator does not exist: %s LIKE %s", l.Kind, r.Kind)
		}
		pattern, err := translateLikePattern(r.Text)
		if err != nil {
			return catalog.Value{}, err
		}
		prefix := "^"
		if caseInsensitive {
			prefix = "(?i)^"
		}
		re, err := regexp.Compile(prefix + pattern + "$")
		if err != nil {
			return catalog.Value{}, pgerror.NotImplemented("LIKE pattern: " + err.Error())
		}
		match := re.MatchString(l.Text)
		if negate {
			match = !match
		}
		return catalog.BoolValue(match), nil
	}
}

// translateLikePattern turns a SQL LIKE pattern into regex source: "_"
// becomes ".", "%" becomes ".*", a preceding "\" escapes the next
// character literally (word or not), and any other non-word character is
// regex-escaped. A trailing unmatched "\" is an InvalidEscapeSequence
// error.
func translateLikePattern(pattern string) (string, error) {
	var out strings.Builder
	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch c {
		case '_':
			out.WriteString(".")
		case '%':
			out.WriteString(".*")
		case '\\':
			if i+1 >= len(runes) {
				return "", pgerror.InvalidEscapeSequence("LIKE pattern must not end with escape character")
			}
			i++
			out.WriteString(regexp.QuoteMeta(string(runes[i])))
		default:
			if isWordChar(c) {
				out.WriteRune(c)
			} else {
				out.WriteString(regexp.QuoteMeta(string(c)))
			}
		}
	}
	return out.String(), nil
}

func isWordChar(c rune) bool {
	return unicode.IsLetter(c) || unicode.IsDigit(c) || c == '_'
}
