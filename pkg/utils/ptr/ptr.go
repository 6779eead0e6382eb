package ptr

// Ref returns a pointer to the given value.
func Ref[T any](v T) *T {
	return &v
}

// RefNonZero is Ref for optional wire fields: a zero value becomes nil so
// that it is omitted from the payload.
func RefNonZero[T interface{ IsZero() bool }](v T) *T {
	if v.IsZero() {
		return nil
	}
	return &v
}

// Deref returns the value pointed to by v, or the zero value for nil.
func Deref[T any](v *T) T {
	if v == nil {
		var zero T
		return zero
	}
	return *v
}
