package req

// Either holds exactly one of two values: a Left (conventionally the
// error branch, e.g. the body of a non-2xx response) or a Right
// (conventionally the success branch).
//
// The zero value is a Left holding L's zero value.
type Either[L, R any] struct {
	left  L
	right R
	isR   bool
}

// Left creates an Either holding the left value.
func Left[L, R any](v L) Either[L, R] {
	return Either[L, R]{left: v}
}

// Right creates an Either holding the right value.
func Right[L, R any](v R) Either[L, R] {
	return Either[L, R]{right: v, isR: true}
}

// IsRight reports whether the Either holds the right (success) value.
func (e Either[L, R]) IsRight() bool {
	return e.isR
}

// Left returns the left value, or L's zero value if the Either is a Right.
func (e Either[L, R]) Left() L {
	return e.left
}

// Right returns the right value, or R's zero value if the Either is a Left.
func (e Either[L, R]) Right() R {
	return e.right
}

// Get returns the right value and whether it is present.
func (e Either[L, R]) Get() (R, bool) {
	return e.right, e.isR
}

// Fold applies onLeft or onRight depending on which value is held.
func (e Either[L, R]) Fold(onLeft func(L), onRight func(R)) {
	if e.isR {
		onRight(e.right)
		return
	}
	onLeft(e.left)
}
