package frame

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Label names a column or a row. Spreadsheet headers and transposed year
// keys are often numeric, so a Label is either text or an integer.
//
// Labels are comparable and can be used as map keys. Name("1980") and
// Num(1980) are distinct labels with the same String form.
type Label struct {
	name    string
	num     int64
	numeric bool
}

// Name returns a text label.
func Name(s string) Label { return Label{name: s} }

// Num returns an integer label.
func Num(n int64) Label { return Label{num: n, numeric: true} }

// Names converts strings to text labels.
func Names(names ...string) []Label {
	out := make([]Label, len(names))
	for i, n := range names {
		out[i] = Name(n)
	}
	return out
}

// IsNumeric reports whether l is an integer label.
func (l Label) IsNumeric() bool { return l.numeric }

// Int returns the integer value of l. For text labels it parses the name and
// reports whether that succeeded.
func (l Label) Int() (int64, bool) {
	if l.numeric {
		return l.num, true
	}
	n, err := strconv.ParseInt(strings.TrimSpace(l.name), 10, 64)
	return n, err == nil
}

// String returns the textual form of l.
func (l Label) String() string {
	if l.numeric {
		return strconv.FormatInt(l.num, 10)
	}
	return l.name
}

// Compare orders integer labels before text labels, then by value.
func (l Label) Compare(o Label) int {
	switch {
	case l.numeric && o.numeric:
		return cmpOrdered(l.num, o.num)
	case l.numeric:
		return -1
	case o.numeric:
		return 1
	}
	return strings.Compare(l.name, o.name)
}

func labelOf(v Value) Label {
	if v.Kind() == KindInt {
		return Num(v.Int())
	}
	return Name(v.String())
}

// MarshalJSON encodes numeric labels as JSON numbers and text as strings.
func (l Label) MarshalJSON() ([]byte, error) {
	if l.numeric {
		return []byte(strconv.FormatInt(l.num, 10)), nil
	}
	return json.Marshal(l.name)
}

// UnmarshalJSON is the inverse of [Label.MarshalJSON].
func (l *Label) UnmarshalJSON(data []byte) error {
	var v Value
	if err := v.UnmarshalJSON(data); err != nil {
		return err
	}
	*l = labelOf(v)
	return nil
}
