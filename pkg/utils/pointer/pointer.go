package pointer

func Ref[T any](t T) *T {
	return &t
}

// SafeDeref dereferences val, or returns zero value when val is nil.
func SafeDeref[T any](val *T) T {
	if val == nil {
		return *new(T)
	}
	return *val
}

// Default dereferences val, or returns d when val is nil.
func Default[T any](val *T, d T) T {
	if val == nil {
		return d
	}
	return *val
}
