// Package diff computes the minimal patch set between two keyed snapshots of
// the same entity kind. It is pure: no I/O, no failure modes; malformed
// entities are rejected earlier, when the owning adapter builds its snapshot.
package diff

// Comparable is implemented by entities with an explicit field-wise equality.
type Comparable[T any] interface {
	Equal(T) bool
}

// Entities compares current against target and returns what it takes to make
// current look like target. Keys absent from current are adds, keys present
// in both with unequal fields are updates, keys absent from target are
// deletes. Map iteration order only affects ordering within the slices,
// never the partition itself.
func Entities[K comparable, T Comparable[T]](current, target map[K]T) PatchSet[T] {
	var patch PatchSet[T]

	for k, tgt := range target {
		cur, ok := current[k]
		if !ok {
			patch.Add = append(patch.Add, tgt)
			continue
		}
		if !cur.Equal(tgt) {
			patch.Update = append(patch.Update, Change[T]{Old: cur, New: tgt})
		}
	}

	for k, cur := range current {
		if _, ok := target[k]; !ok {
			patch.Delete = append(patch.Delete, cur)
		}
	}

	return patch
}
