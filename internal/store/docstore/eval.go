package docstore

import (
	"fmt"
	"strconv"
)

// Match evaluates f against a document decoded by encoding/json.
// A comparison on a missing path never matches.
func Match(doc any, f Filter) bool {
	switch t := f.(type) {
	case nil:
		return true
	case Comparison:
		return matchComparison(doc, t)
	case And:
		for _, sub := range t {
			if !Match(doc, sub) {
				return false
			}
		}
		return true
	case Or:
		for _, sub := range t {
			if Match(doc, sub) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func matchComparison(doc any, c Comparison) bool {
	segs, err := SplitPath(c.Path)
	if err != nil {
		return false
	}

	raw, ok := lookup(doc, segs)
	if !ok {
		return false
	}

	got, err := ValueOf(raw)
	if err != nil {
		return false
	}

	if got.Kind() != c.Value.Kind() {
		return c.Op == OpNe
	}

	switch c.Op {
	case OpEq:
		return got.Equal(c.Value)
	case OpNe:
		return !got.Equal(c.Value)
	}

	var cmp int
	switch got.Kind() {
	case KindNumber:
		cmp = compareOrdered(got.num, c.Value.num)
	case KindString:
		cmp = compareOrdered(got.str, c.Value.str)
	default:
		return false
	}

	switch c.Op {
	case OpLt:
		return cmp < 0
	case OpLe:
		return cmp <= 0
	case OpGt:
		return cmp > 0
	case OpGe:
		return cmp >= 0
	}

	return false
}

func compareOrdered[T float64 | string](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func lookup(node any, segs []string) (any, bool) {
	for _, seg := range segs {
		switch t := node.(type) {
		case map[string]any:
			next, ok := t[seg]
			if !ok {
				return nil, false
			}
			node = next
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(t) {
				return nil, false
			}
			node = t[idx]
		default:
			return nil, false
		}
	}

	return node, true
}

// ApplyPatch applies ops in order to a document decoded by encoding/json and
// returns the patched document. The input is not modified on error.
func ApplyPatch(doc map[string]any, ops []PatchOperation) (map[string]any, error) {
	if err := ValidatePatch(ops); err != nil {
		return nil, err
	}

	var node any = deepCopy(doc)
	for i, op := range ops {
		segs, _ := SplitPath(op.Path)

		next, err := applyOp(node, segs, op.Op, op.Value.Interface())
		if err != nil {
			return nil, fmt.Errorf("patch operation %d (%s %s): %w", i, op.Op, op.Path, err)
		}
		node = next
	}

	out, ok := node.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("patch: document root is not an object")
	}

	return out, nil
}

func applyOp(node any, segs []string, op PatchOp, val any) (any, error) {
	seg := segs[0]
	last := len(segs) == 1

	switch t := node.(type) {
	case map[string]any:
		child, exists := t[seg]
		if !last {
			if !exists {
				return nil, ErrPathNotFound
			}
			updated, err := applyOp(child, segs[1:], op, val)
			if err != nil {
				return nil, err
			}
			t[seg] = updated
			return t, nil
		}

		if op == PatchReplace && !exists {
			return nil, ErrPathNotFound
		}
		t[seg] = val
		return t, nil

	case []any:
		if last && op == PatchAdd && seg == "-" {
			return append(t, val), nil
		}

		idx, err := strconv.Atoi(seg)
		if err != nil || idx < 0 {
			return nil, ErrPathNotFound
		}

		if last && op == PatchAdd {
			if idx > len(t) {
				return nil, ErrPathNotFound
			}
			t = append(t, nil)
			copy(t[idx+1:], t[idx:])
			t[idx] = val
			return t, nil
		}

		if idx >= len(t) {
			return nil, ErrPathNotFound
		}
		if last {
			t[idx] = val
			return t, nil
		}

		updated, err := applyOp(t[idx], segs[1:], op, val)
		if err != nil {
			return nil, err
		}
		t[idx] = updated
		return t, nil

	default:
		return nil, ErrPathNotFound
	}
}

func deepCopy(node any) any {
	switch t := node.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, v := range t {
			out[k] = deepCopy(v)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, v := range t {
			out[i] = deepCopy(v)
		}
		return out
	default:
		return t
	}
}
