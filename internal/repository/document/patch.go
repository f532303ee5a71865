package document

import (
	"fmt"
	"slices"

	"github.com/aliskhannn/notification-api/internal/store/docstore"
)

// PatchKind selects how a patch operation treats its path. The empty kind is
// a bare path/value pair and behaves like PatchSet.
type PatchKind string

const (
	PatchBare    PatchKind = ""
	PatchAdd     PatchKind = "add"
	PatchSet     PatchKind = "set"
	PatchReplace PatchKind = "replace"
)

// PatchOperation is a partial update of one path of a document.
type PatchOperation struct {
	Op    PatchKind      `json:"op,omitempty"`
	Path  string         `json:"path" validate:"required"`
	Value docstore.Value `json:"value"`
}

// Set builds a bare path/value pair.
func Set(path string, v docstore.Value) PatchOperation {
	return PatchOperation{Path: path, Value: v}
}

func translatePatch(ops []PatchOperation, immutable [][]string) ([]docstore.PatchOperation, error) {
	if len(ops) == 0 {
		return nil, &ArgumentError{Index: -1, Reason: "patch needs at least one operation"}
	}

	out := make([]docstore.PatchOperation, len(ops))
	for i, op := range ops {
		var kind docstore.PatchOp
		switch op.Op {
		case PatchBare, PatchSet:
			kind = docstore.PatchSet
		case PatchAdd:
			kind = docstore.PatchAdd
		case PatchReplace:
			kind = docstore.PatchReplace
		default:
			return nil, &ArgumentError{Index: i, Reason: fmt.Sprintf("unknown op %q", op.Op)}
		}

		segs, err := docstore.SplitPath(op.Path)
		if err != nil {
			return nil, &ArgumentError{Index: i, Reason: err.Error()}
		}

		if touchesAny(segs, immutable) {
			return nil, &ArgumentError{Index: i, Reason: fmt.Sprintf("path %s is immutable", op.Path)}
		}

		out[i] = docstore.PatchOperation{Op: kind, Path: op.Path, Value: op.Value}
	}

	return out, nil
}

// touchesAny reports whether writing segs would change one of the paths,
// either directly, below it, or by overwriting an ancestor.
func touchesAny(segs []string, paths [][]string) bool {
	for _, p := range paths {
		n := min(len(segs), len(p))
		if slices.Equal(segs[:n], p[:n]) {
			return true
		}
	}

	return false
}
