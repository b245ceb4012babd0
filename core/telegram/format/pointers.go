// Package format holds small helpers for rendering optional values.
package format

// Deref returns *p, or def when p is nil.
func Deref[T any](p *T, def T) T {
	if p != nil {
		return *p
	}
	return def
}

// DerefInt returns *i, or defaultVal when i is nil.
func DerefInt(i *int, defaultVal int) int {
	return Deref(i, defaultVal)
}
