package core

// IntersectRates filters requested down to the rates present in allowed,
// keeping the order (and any repeats) of requested. An empty allowed list
// means no restriction and requested is returned as a copy.
func IntersectRates(requested, allowed []int) []int {
	out := make([]int, 0, len(requested))

	if len(allowed) == 0 {
		return append(out, requested...)
	}

	permitted := make(map[int]struct{}, len(allowed))
	for _, r := range allowed {
		permitted[r] = struct{}{}
	}

	for _, r := range requested {
		if _, ok := permitted[r]; ok {
			out = append(out, r)
		}
	}
	return out
}
