package dialect

import (
	"fmt"
	"strconv"
	"strings"
)

// Precedence levels for operator templates. Lower binds tighter.
//
// An argument is parenthesised when its own template binds looser than the
// template it is substituted into. PrecedenceNone marks delimited templates
// (function calls, keyword forms) whose slots never need parentheses.
const (
	PrecedenceNone           = 0
	PrecedenceUnary          = 1
	PrecedenceMultiplicative = 2
	PrecedenceAdditive       = 3
	PrecedenceComparison     = 5
	PrecedenceNot            = 6
	PrecedenceAnd            = 7
	PrecedenceOr             = 8
	PrecedenceAlias          = 9
)

// Part is one segment of a parsed template: literal text or a slot.
type Part struct {
	Text string // literal text, used when Slot < 0
	Slot int    // zero-based argument index, -1 for literal text
}

// IsSlot reports whether p is a substitution slot.
func (p Part) IsSlot() bool {
	return p.Slot >= 0
}

// Template is a parsed SQL fragment with positional slots.
//
// Slots are written "{0}", "{1}", ... and may appear in any order, any number
// of times, or not at all. "{{" and "}}" produce literal braces.
//
// Example:
//
//	t := MustParseTemplate("rownum between {0} and {2}")
//	t.Arity() // 3: slot 1 is accepted but unused
type Template struct {
	source     string
	parts      []Part
	arity      int
	precedence int
}

// ParseTemplate parses a template string.
func ParseTemplate(src string) (Template, error) {
	t := Template{source: src}
	var lit strings.Builder

	flush := func() {
		if lit.Len() > 0 {
			t.parts = append(t.parts, Part{Text: lit.String(), Slot: -1})
			lit.Reset()
		}
	}

	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case c == '{' && i+1 < len(src) && src[i+1] == '{':
			lit.WriteByte('{')
			i++
		case c == '}' && i+1 < len(src) && src[i+1] == '}':
			lit.WriteByte('}')
			i++
		case c == '{':
			end := strings.IndexByte(src[i:], '}')
			if end < 0 {
				return Template{}, fmt.Errorf("template %q: unclosed slot at offset %d", src, i)
			}
			digits := src[i+1 : i+end]
			n, err := strconv.Atoi(digits)
			if err != nil || n < 0 || digits == "" || digits[0] == '+' {
				return Template{}, fmt.Errorf("template %q: invalid slot {%s}", src, digits)
			}
			flush()
			t.parts = append(t.parts, Part{Slot: n})
			if n+1 > t.arity {
				t.arity = n + 1
			}
			i += end
		default:
			lit.WriteByte(c)
		}
	}
	flush()

	return t, nil
}

// MustParseTemplate is like ParseTemplate but panics on error.
// Intended for package-level tables of known-good templates.
func MustParseTemplate(src string) Template {
	t, err := ParseTemplate(src)
	if err != nil {
		panic(err)
	}
	return t
}

// String returns the template source.
func (t Template) String() string {
	return t.source
}

// IsZero reports whether t was never parsed.
func (t Template) IsZero() bool {
	return t.source == "" && len(t.parts) == 0
}

// Parts returns the parsed segments in order.
func (t Template) Parts() []Part {
	return append([]Part(nil), t.parts...)
}

// Arity returns one more than the highest slot index, i.e. the number of
// arguments the template can consume.
func (t Template) Arity() int {
	return t.arity
}

// Precedence returns the binding strength of the rendered fragment.
func (t Template) Precedence() int {
	return t.precedence
}

// withPrecedence returns a copy of t with the given precedence.
func (t Template) withPrecedence(p int) Template {
	t.precedence = p
	return t
}

// Exposed reports whether a slot sits at either edge of the template, as in
// "{0} = {1}" or "not {0}". Only exposed templates can need parentheses.
func (t Template) Exposed() bool {
	if len(t.parts) == 0 {
		return false
	}
	return t.parts[0].IsSlot() || t.parts[len(t.parts)-1].IsSlot()
}

// Format substitutes pre-rendered arguments into the template.
// Missing arguments render as empty strings.
func (t Template) Format(args ...string) string {
	var b strings.Builder
	for _, p := range t.parts {
		if !p.IsSlot() {
			b.WriteString(p.Text)
			continue
		}
		if p.Slot < len(args) {
			b.WriteString(args[p.Slot])
		}
	}
	return b.String()
}
