package param

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Constraint restricts values of a parameter.
type Constraint interface {
	Check(v interface{}) error
	String() string
}

type (
	// Range is a numeric interval. Bounds can be open or closed, infinite
	// bounds are represented with math.Inf.
	Range struct {
		Min, Max         float64
		MinOpen, MaxOpen bool
	}

	// Choice is an enumerated set of allowed string values.
	Choice []string
)

// ErrBadConstraint is returned when constraint definition can't be parsed.
var ErrBadConstraint = errors.New("bad constraint")

// ParseRange parses ranges like "[1,inf)", "(0,1]" or "[-inf,0]".
func ParseRange(s string) (Range, error) {
	s = strings.TrimSpace(s)
	if len(s) < 5 {
		return Range{}, fmt.Errorf("%w: %q", ErrBadConstraint, s)
	}
	var r Range
	switch s[0] {
	case '[':
	case '(':
		r.MinOpen = true
	default:
		return Range{}, fmt.Errorf("%w: %q", ErrBadConstraint, s)
	}
	switch s[len(s)-1] {
	case ']':
	case ')':
		r.MaxOpen = true
	default:
		return Range{}, fmt.Errorf("%w: %q", ErrBadConstraint, s)
	}
	bounds := strings.Split(s[1:len(s)-1], ",")
	if len(bounds) != 2 {
		return Range{}, fmt.Errorf("%w: %q", ErrBadConstraint, s)
	}
	var err error
	if r.Min, err = parseBound(bounds[0]); err != nil {
		return Range{}, fmt.Errorf("%w: %q", ErrBadConstraint, s)
	}
	if r.Max, err = parseBound(bounds[1]); err != nil {
		return Range{}, fmt.Errorf("%w: %q", ErrBadConstraint, s)
	}
	if r.Min > r.Max {
		return Range{}, fmt.Errorf("%w: %q", ErrBadConstraint, s)
	}
	return r, nil
}

// MustRange is like ParseRange, but panics on error. It's intended for
// declarations in package-level variables.
func MustRange(s string) Range {
	r, err := ParseRange(s)
	if err != nil {
		panic(err)
	}
	return r
}

func parseBound(s string) (float64, error) {
	switch strings.TrimSpace(s) {
	case "inf", "+inf":
		return math.Inf(1), nil
	case "-inf":
		return math.Inf(-1), nil
	}
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// Check verifies that numeric value or every element of numeric vector is
// within the range.
func (r Range) Check(v interface{}) error {
	switch val := v.(type) {
	case float64:
		return r.contains(val)
	case int:
		return r.contains(float64(val))
	case []float64:
		for _, f := range val {
			if err := r.contains(f); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("range %v can't be applied to %T", r, v)
}

func (r Range) contains(f float64) error {
	if math.IsNaN(f) {
		return fmt.Errorf("NaN is out of range %v", r)
	}
	if f < r.Min || (r.MinOpen && f == r.Min) || f > r.Max || (r.MaxOpen && f == r.Max) {
		return fmt.Errorf("%v is out of range %v", f, r)
	}
	return nil
}

func (r Range) String() string {
	left, right := "[", "]"
	if r.MinOpen {
		left = "("
	}
	if r.MaxOpen {
		right = ")"
	}
	return fmt.Sprintf("%s%s,%s%s", left, formatBound(r.Min), formatBound(r.Max), right)
}

func formatBound(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// ParseChoice parses choice sets like "{hann,hamming,square}".
func ParseChoice(s string) (Choice, error) {
	s = strings.TrimSpace(s)
	if len(s) < 3 || s[0] != '{' || s[len(s)-1] != '}' {
		return nil, fmt.Errorf("%w: %q", ErrBadConstraint, s)
	}
	items := strings.Split(s[1:len(s)-1], ",")
	c := make(Choice, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			c = append(c, item)
		}
	}
	if len(c) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrBadConstraint, s)
	}
	return c, nil
}

// Check verifies that string or every element of string vector is one of
// the choices.
func (c Choice) Check(v interface{}) error {
	switch val := v.(type) {
	case string:
		return c.contains(val)
	case []string:
		for _, s := range val {
			if err := c.contains(s); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("choice %v can't be applied to %T", c, v)
}

func (c Choice) contains(s string) error {
	for _, item := range c {
		if item == s {
			return nil
		}
	}
	return fmt.Errorf("%q is not one of %v", s, c)
}

func (c Choice) String() string {
	return "{" + strings.Join(c, ",") + "}"
}
