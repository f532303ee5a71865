package docstore

import (
	"fmt"
	"strings"
)

// CompareOp is a comparison operator usable in a Filter.
type CompareOp string

const (
	OpEq CompareOp = "="
	OpNe CompareOp = "!="
	OpLt CompareOp = "<"
	OpLe CompareOp = "<="
	OpGt CompareOp = ">"
	OpGe CompareOp = ">="
)

func (op CompareOp) Valid() bool {
	switch op {
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		return true
	}

	return false
}

// Filter is a server-side predicate over documents. It is one of
// Comparison, And or Or; a nil Filter matches everything.
type Filter interface {
	filter()
}

// Comparison compares the value at a JSON pointer path with a constant.
type Comparison struct {
	Path  string
	Op    CompareOp
	Value Value
}

type And []Filter

type Or []Filter

func (Comparison) filter() {}
func (And) filter()        {}
func (Or) filter()         {}

func Eq(path string, v Value) Comparison { return Comparison{Path: path, Op: OpEq, Value: v} }

func Ne(path string, v Value) Comparison { return Comparison{Path: path, Op: OpNe, Value: v} }

func Lt(path string, v Value) Comparison { return Comparison{Path: path, Op: OpLt, Value: v} }

func Le(path string, v Value) Comparison { return Comparison{Path: path, Op: OpLe, Value: v} }

func Gt(path string, v Value) Comparison { return Comparison{Path: path, Op: OpGt, Value: v} }

func Ge(path string, v Value) Comparison { return Comparison{Path: path, Op: OpGe, Value: v} }

// AllOf combines filters with AND, dropping nil entries.
func AllOf(filters ...Filter) Filter {
	var out And
	for _, f := range filters {
		if f != nil {
			out = append(out, f)
		}
	}

	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0]
	default:
		return out
	}
}

// ValidateFilter checks operators and paths of every comparison in f.
func ValidateFilter(f Filter) error {
	switch t := f.(type) {
	case nil:
		return nil
	case Comparison:
		if !t.Op.Valid() {
			return fmt.Errorf("unknown operator %q", t.Op)
		}
		if t.Op != OpEq && t.Op != OpNe && t.Value.Kind() != KindString && t.Value.Kind() != KindNumber {
			return fmt.Errorf("operator %s needs a string or number, got %s", t.Op, t.Value.Kind())
		}
		if _, err := SplitPath(t.Path); err != nil {
			return err
		}
		return nil
	case And:
		for _, sub := range t {
			if err := ValidateFilter(sub); err != nil {
				return err
			}
		}
		return nil
	case Or:
		for _, sub := range t {
			if err := ValidateFilter(sub); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown filter %T", f)
	}
}

// SplitPath splits a JSON pointer ("/a/b/0") into unescaped segments.
func SplitPath(path string) ([]string, error) {
	if path == "" || path == "/" {
		return nil, fmt.Errorf("path %q: empty", path)
	}
	if !strings.HasPrefix(path, "/") {
		return nil, fmt.Errorf("path %q: must start with /", path)
	}

	parts := strings.Split(path[1:], "/")
	for i, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("path %q: empty segment", path)
		}
		parts[i] = strings.NewReplacer("~1", "/", "~0", "~").Replace(p)
	}

	return parts, nil
}
