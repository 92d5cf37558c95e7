package glbuild

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/soypat/geometry/ms3"
)

// Fragment is a snippet of GLSL statements that edit the x, y, z locals declared
// by a [Template]'s preamble. Fragments are only ever concatenated, never parsed,
// unless validated with [ValidateFragment].
type Fragment string

const (
	// DefaultPreamble declares the editable position components from the untransformed vertex position.
	DefaultPreamble = "float x = position.x;\nfloat y = position.y;\nfloat z = position.z;\n"
	// DefaultPostamble reconstructs the displaced position from the edited components.
	DefaultPostamble = "vec3 displacedPosition = vec3(x, y, z);\n"
	// DisplacedPositionName is the name of the local a [Template] body must read instead of position.
	DisplacedPositionName = "displacedPosition"
)

// Template is a vertex shader with named splice points. The generated source is
//
//	Prologue + Preamble + fragments... + Postamble + Body
//
// Prologue declares everything up to and including the opening of main. Body is the
// rest of main and must read [DisplacedPositionName] wherever vertex positions are transformed.
type Template struct {
	Prologue  string
	Preamble  string
	Postamble string
	Body      string
}

// WithDefaultSplice returns the template with empty Preamble and Postamble set to
// [DefaultPreamble] and [DefaultPostamble].
func (t Template) WithDefaultSplice() Template {
	if t.Preamble == "" {
		t.Preamble = DefaultPreamble
	}
	if t.Postamble == "" {
		t.Postamble = DefaultPostamble
	}
	return t
}

// AppendSplice appends the preamble, the fragments and the postamble to dst with no prologue nor body.
// Useful for inspecting the displacement section of a shader in isolation.
func (t Template) AppendSplice(dst []byte, frags ...Fragment) []byte {
	dst = append(dst, t.Preamble...)
	for _, f := range frags {
		dst = append(dst, f...)
	}
	dst = append(dst, t.Postamble...)
	return dst
}

// AppendSource appends the full shader source to dst and returns the result.
// Fragments are not validated, see [Composer] for validated composition.
func (t Template) AppendSource(dst []byte, frags ...Fragment) []byte {
	dst = append(dst, t.Prologue...)
	dst = t.AppendSplice(dst, frags...)
	dst = append(dst, t.Body...)
	return dst
}

// Size returns the length of the source generated by AppendSource for frags.
func (t Template) Size(frags ...Fragment) int {
	n := len(t.Prologue) + len(t.Preamble) + len(t.Postamble) + len(t.Body)
	for _, f := range frags {
		n += len(f)
	}
	return n
}

// Composer implements validated vertex shader generation for [Template]s.
type Composer struct {
	// Strict enables fragment validation with [ValidateFragment] before composition.
	Strict  bool
	scratch []byte
}

// NewDefaultComposer returns a strict Composer.
func NewDefaultComposer() *Composer {
	return &Composer{
		Strict:  true,
		scratch: make([]byte, 0, 16*1024), // Lambert vertex shader is around 10kB.
	}
}

// Validate validates all fragments if the Composer is strict.
func (c *Composer) Validate(frags ...Fragment) error {
	if !c.Strict {
		return nil
	}
	for i, f := range frags {
		err := ValidateFragment(f)
		if err != nil {
			var cerr *CompositionError
			if errors.As(err, &cerr) {
				cerr.Fragment = i
			}
			return err
		}
	}
	return nil
}

// AppendVertexShader appends the vertex shader source to dst. If validation fails
// dst is returned unmodified alongside the error.
func (c *Composer) AppendVertexShader(dst []byte, t Template, frags ...Fragment) ([]byte, error) {
	err := c.Validate(frags...)
	if err != nil {
		return dst, err
	}
	return t.AppendSource(dst, frags...), nil
}

// WriteVertexShader writes the vertex shader source to w. Nothing is written if validation fails.
func (c *Composer) WriteVertexShader(w io.Writer, t Template, frags ...Fragment) (int, error) {
	var err error
	c.scratch, err = c.AppendVertexShader(c.scratch[:0], t, frags...)
	if err != nil {
		return 0, err
	}
	return w.Write(c.scratch)
}

// CompositionError is returned when a [Fragment] can not be safely spliced into a [Template].
type CompositionError struct {
	// Fragment is the index of the offending fragment in the composed sequence.
	Fragment int
	// Offset is the byte offset into the fragment where the problem was found.
	Offset int
	Reason string
}

func (e *CompositionError) Error() string {
	return fmt.Sprintf("shader fragment %d at byte %d: %s", e.Fragment, e.Offset, e.Reason)
}

var disallowedDirectives = []string{"version", "extension", "pragma"}

// ValidateFragment performs a shallow lexical check of a fragment. It rejects unbalanced
// braces, brackets and parentheses, unterminated block comments, the #version, #extension and
// #pragma directives and any mention of main followed by a parenthesis. It returns a *[CompositionError].
func ValidateFragment(f Fragment) error {
	var stack []byte
	var stackOff []int
	lineStart := true
	for i := 0; i < len(f); i++ {
		ch := f[i]
		switch {
		case ch == '/' && i+1 < len(f) && f[i+1] == '/':
			for i < len(f) && f[i] != '\n' {
				i++
			}
			lineStart = true
			continue
		case ch == '/' && i+1 < len(f) && f[i+1] == '*':
			end := strings.Index(string(f[i+2:]), "*/")
			if end < 0 {
				return &CompositionError{Offset: i, Reason: "unterminated block comment"}
			}
			i += end + 3
			continue
		case ch == '#' && lineStart:
			name := directiveName(f[i+1:])
			for _, bad := range disallowedDirectives {
				if name == bad {
					return &CompositionError{Offset: i, Reason: "disallowed directive #" + name}
				}
			}
		case ch == '(' || ch == '[' || ch == '{':
			stack = append(stack, ch)
			stackOff = append(stackOff, i)
		case ch == ')' || ch == ']' || ch == '}':
			if len(stack) == 0 || stack[len(stack)-1] != openerOf(ch) {
				return &CompositionError{Offset: i, Reason: "unbalanced " + strconv.QuoteRune(rune(ch))}
			}
			stack = stack[:len(stack)-1]
			stackOff = stackOff[:len(stackOff)-1]
		case isIdentStart(ch) && (i == 0 || !isIdent(f[i-1])):
			end := i
			for end < len(f) && isIdent(f[end]) {
				end++
			}
			if f[i:end] == "main" && nextNonSpace(f[end:]) == '(' {
				return &CompositionError{Offset: i, Reason: "fragment must not declare or call main"}
			}
			i = end - 1
		}
		if ch == '\n' {
			lineStart = true
		} else if ch != ' ' && ch != '\t' && ch != '\r' {
			lineStart = false
		}
	}
	if len(stack) > 0 {
		last := len(stack) - 1
		return &CompositionError{Offset: stackOff[last], Reason: "unclosed " + strconv.QuoteRune(rune(stack[last]))}
	}
	return nil
}

func directiveName(s Fragment) string {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	start := i
	for i < len(s) && isIdent(s[i]) {
		i++
	}
	return string(s[start:i])
}

func nextNonSpace(s Fragment) byte {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\n', '\r':
		default:
			return s[i]
		}
	}
	return 0
}

func openerOf(closer byte) byte {
	switch closer {
	case ')':
		return '('
	case ']':
		return '['
	}
	return '{'
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdent(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// Accumulator holds the displacement fragments applied to a mesh in application order.
// It is append-only. The zero value is an empty Accumulator ready to use.
type Accumulator struct {
	frags []Fragment
	size  int
}

// Append adds f after all previously appended fragments.
func (a *Accumulator) Append(f Fragment) {
	a.frags = append(a.frags, f)
	a.size += len(f)
}

// Fragments returns a copy of the accumulated fragments in application order.
func (a *Accumulator) Fragments() []Fragment {
	return append([]Fragment(nil), a.frags...)
}

// Len returns the number of accumulated fragments.
func (a *Accumulator) Len() int { return len(a.frags) }

// Size returns the total length in bytes of accumulated fragments.
func (a *Accumulator) Size() int { return a.size }

// AppendTo appends the concatenation of all accumulated fragments to dst.
func (a *Accumulator) AppendTo(dst []byte) []byte {
	for _, f := range a.frags {
		dst = append(dst, f...)
	}
	return dst
}

// Hash returns a 64 bit hash of b, seeded with in. Used to key generated shader sources.
func Hash(b []byte, in uint64) uint64 {
	x := in
	for len(b) >= 8 {
		x ^= binary.LittleEndian.Uint64(b)
		x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
		x = (x ^ (x >> 27)) * 0x94d049bb133111eb
		x ^= x >> 31
		b = b[8:]
	}
	if len(b) > 0 {
		var buf [8]byte
		copy(buf[:], b)
		x ^= binary.LittleEndian.Uint64(buf[:])
		x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
		x = (x ^ (x >> 27)) * 0x94d049bb133111eb
		x ^= x >> 31
	}
	return x
}

// AppendVec3Decl appends a GLSL vec3 declaration of vec3Varname initialized to v.
func AppendVec3Decl(b []byte, vec3Varname string, v ms3.Vec) []byte {
	b = append(b, "vec3 "...)
	b = append(b, vec3Varname...)
	b = append(b, "=vec3("...)
	arr := v.Array()
	b = AppendFloats(b, ',', '-', '.', arr[:]...)
	b = append(b, ')', ';', '\n')
	return b
}

// AppendFloatDecl appends a GLSL float declaration of floatVarname initialized to v.
func AppendFloatDecl(b []byte, floatVarname string, v float32) []byte {
	b = append(b, "float "...)
	b = append(b, floatVarname...)
	b = append(b, '=')
	b = AppendFloat(b, '-', '.', v)
	b = append(b, ';', '\n')
	return b
}

const decimalDigits = 9

// AppendFloat appends a GLSL float literal of v. neg and decimal replace the
// minus sign and decimal point so the result can also be used in identifiers.
func AppendFloat(b []byte, neg, decimal byte, v float32) []byte {
	start := len(b)
	b = strconv.AppendFloat(b, float64(v), 'f', decimalDigits, 32)
	idx := bytes.IndexByte(b[start:], '.')
	if decimal != '.' && idx >= 0 {
		b[start+idx] = decimal
	}
	if b[start] == '-' {
		b[start] = neg
	}
	// Finally trim zeroes.
	end := len(b)
	for i := len(b) - 1; idx >= 0 && i > idx+start && b[i] == '0'; i-- {
		end--
	}
	return b[:end]
}

// AppendFloats appends the float literals of s separated by sep. A zero sep omits separators.
func AppendFloats(b []byte, sep, neg, decimal byte, s ...float32) []byte {
	for i, v := range s {
		b = AppendFloat(b, neg, decimal, v)
		if sep != 0 && i != len(s)-1 {
			b = append(b, sep)
		}
	}
	return b
}
