package postgres

// chunkBounds splits [0, n) into batches of at most size, returning the
// [start, end) bounds of each batch in order. Shared by UpsertTokens and
// UpsertPools so both honor the same conservative batch size.
func chunkBounds(n, size int) [][2]int {
	if n == 0 {
		return nil
	}
	bounds := make([][2]int, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		bounds = append(bounds, [2]int{start, end})
	}
	return bounds
}
