// Package reconcile computes and applies minimal diffs between a persisted
// related-entity collection and a client-submitted one.
package reconcile

// Entity is anything with a stable identity key.
type Entity interface {
	Identity() string
}

// Diff holds the minimal change sets produced by Compute. Ordering is
// deterministic: Add and Update follow the submitted order, Remove follows
// the existing order.
type Diff[T Entity] struct {
	Add    []T
	Remove []T
	Update []T
}

// Empty returns true when the diff contains no changes.
func (d Diff[T]) Empty() bool {
	return len(d.Add) == 0 && len(d.Remove) == 0 && len(d.Update) == 0
}

// Compute diffs submitted against existing by identity. Elements present in
// both sets are candidates for Update when the changed predicate reports
// their mutable fields differ; a nil predicate disables updates. Duplicate
// identities within a set are collapsed to the first occurrence.
func Compute[T Entity](existing, submitted []T, changed func(old, new T) bool) Diff[T] {
	var d Diff[T]

	existingByID := make(map[string]T, len(existing))
	for _, e := range existing {
		if _, ok := existingByID[e.Identity()]; !ok {
			existingByID[e.Identity()] = e
		}
	}

	seen := make(map[string]bool, len(submitted))
	for _, s := range submitted {
		id := s.Identity()
		if seen[id] {
			continue
		}
		seen[id] = true
		old, ok := existingByID[id]
		switch {
		case !ok:
			d.Add = append(d.Add, s)
		case changed != nil && changed(old, s):
			d.Update = append(d.Update, s)
		}
	}

	for _, e := range existing {
		if !seen[e.Identity()] {
			d.Remove = append(d.Remove, e)
		}
	}

	return d
}

// Apply issues one callback per element of the diff. Any nil callback for a
// non-empty set is a programming error and panics via the nil call. The first
// error aborts the application; the caller's transaction takes care of
// rolling back earlier calls.
func Apply[T Entity](d Diff[T], add, remove, update func(T) error) error {
	for _, e := range d.Add {
		if err := add(e); err != nil {
			return err
		}
	}
	for _, e := range d.Update {
		if err := update(e); err != nil {
			return err
		}
	}
	for _, e := range d.Remove {
		if err := remove(e); err != nil {
			return err
		}
	}
	return nil
}
