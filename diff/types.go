package diff

// Change pairs the currently stored entity with its replacement.
type Change[T any] struct {
	Old T
	New T
}

// PatchSet is the outcome of comparing two keyed snapshots. The three slices
// partition the symmetric difference: a key appears in exactly one of them,
// or in none when the entity is unchanged.
type PatchSet[T any] struct {
	Add    []T
	Update []Change[T]
	Delete []T
}

// IsEmpty reports whether the snapshots were identical.
func (p PatchSet[T]) IsEmpty() bool {
	return len(p.Add) == 0 && len(p.Update) == 0 && len(p.Delete) == 0
}

// Counts returns the delta sizes for summary logging.
func (p PatchSet[T]) Counts() (add, update, del int) {
	return len(p.Add), len(p.Update), len(p.Delete)
}
