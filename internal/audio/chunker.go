package audio

// Chunk splits b into ordered slices of at most max bytes each, covering b
// exactly once. Every chunk but the last has length exactly max; the chunks
// alias b rather than copying it. A non-positive max yields the input as a
// single chunk.
func Chunk(b []byte, max int) [][]byte {
	if len(b) == 0 {
		return nil
	}
	if max <= 0 {
		return [][]byte{b}
	}

	chunks := make([][]byte, 0, (len(b)+max-1)/max)
	for len(b) > max {
		chunks = append(chunks, b[:max:max])
		b = b[max:]
	}
	return append(chunks, b)
}
