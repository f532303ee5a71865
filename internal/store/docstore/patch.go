package docstore

import "fmt"

// PatchOp is the closed set of patch operations a container applies.
type PatchOp string

const (
	// PatchAdd inserts into an array at the given index ("-" appends) or
	// sets an object member.
	PatchAdd PatchOp = "add"
	// PatchSet writes the value, creating the last path segment if absent.
	PatchSet PatchOp = "set"
	// PatchReplace writes the value only where the path already exists.
	PatchReplace PatchOp = "replace"
)

func (op PatchOp) Valid() bool {
	switch op {
	case PatchAdd, PatchSet, PatchReplace:
		return true
	}

	return false
}

// PatchOperation is one step of an atomic partial update.
type PatchOperation struct {
	Op    PatchOp
	Path  string
	Value Value
}

// ValidatePatch rejects empty lists, unknown operations and malformed paths.
func ValidatePatch(ops []PatchOperation) error {
	if len(ops) == 0 {
		return fmt.Errorf("patch: no operations")
	}

	for i, op := range ops {
		if !op.Op.Valid() {
			return fmt.Errorf("patch operation %d: unknown op %q", i, op.Op)
		}
		if _, err := SplitPath(op.Path); err != nil {
			return fmt.Errorf("patch operation %d: %w", i, err)
		}
	}

	return nil
}
