package authoring

// AssignPositions numbers items 1..N in slice order. It is the only place
// positions are ever written.
func AssignPositions[T any](items []T, set func(item T, position int)) {
	for i, item := range items {
		set(item, i+1)
	}
}

// PositionsContiguous reports whether items carry exactly 1..N in slice order.
func PositionsContiguous[T any](items []T, get func(item T) int) bool {
	for i, item := range items {
		if get(item) != i+1 {
			return false
		}
	}
	return true
}
