package sliceops

// SwapBuf returns a reversed copy of in.
func SwapBuf(in []byte) []byte {
	a := Clone(in)
	for i := len(a)/2 - 1; i >= 0; i-- {
		opp := len(a) - 1 - i
		a[i], a[opp] = a[opp], a[i]
	}

	return a
}

// Clone returns a copy of in that shares no memory with it.
// A nil input gives a nil result.
func Clone(in []byte) []byte {
	if in == nil {
		return nil
	}
	return append(make([]byte, 0, len(in)), in...)
}
