package model

// Strides returns, for a mixed-radix product space with per-basin sizes
// numStates, the stride of each coordinate: stride[b] = Π numStates[b'] for
// b' > b. A linear index is Σ k_b*stride[b].
func Strides(numStates []int) []int {
	strides := make([]int, len(numStates))
	stride := 1
	for b := len(numStates) - 1; b >= 0; b-- {
		strides[b] = stride
		stride *= numStates[b]
	}
	return strides
}

// ProductSize returns Π numStates, the total product-state-space size S.
func ProductSize(numStates []int) int {
	s := 1
	for _, n := range numStates {
		s *= n
	}
	return s
}

// KronIndex returns, for every linear product-state index, the coordinate
// of basin `position`: a length-S slice cycling 0..numStates[position]-1,
// each value held for stride[position] consecutive indices (full period
// numStates[position]*stride[position]). This is the kron_index primitive from
// which per-basin broadcasts (level curves, net flows) are built.
func KronIndex(numStates []int, position int) []int {
	strides := Strides(numStates)
	s := ProductSize(numStates)
	n := numStates[position]
	stride := strides[position]
	out := make([]int, s)
	for idx := 0; idx < s; idx++ {
		out[idx] = (idx / stride) % n
	}
	return out
}

// Coords decodes a linear product-state index into its per-basin
// coordinates.
func Coords(numStates []int, idx int) []int {
	strides := Strides(numStates)
	coords := make([]int, len(numStates))
	for b, n := range numStates {
		coords[b] = (idx / strides[b]) % n
	}
	return coords
}

// LinearIndex encodes per-basin coordinates into a linear product-state
// index using the same mixed-radix convention as KronIndex.
func LinearIndex(numStates []int, coords []int) int {
	strides := Strides(numStates)
	idx := 0
	for b, k := range coords {
		idx += k * strides[b]
	}
	return idx
}
