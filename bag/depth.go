package bag

// TreeDepth is the number of hops from any leaf to the genesis coin for n
// targets batched width at a time: one hop per batching round plus the
// genesis spend that creates the root.
func TreeDepth(n, width int) int {
	if n <= 0 || width < 2 {
		return 0
	}
	depth := 1
	for n > 1 {
		n = batchCount(n, width)
		depth++
	}
	return depth
}

// NodeCount is the number of nodes in the tree, leaves included, which is
// also the number of lookup entries.
func NodeCount(n, width int) int {
	if n <= 0 || width < 2 {
		return 0
	}
	count := n
	for n > 1 {
		n = batchCount(n, width)
		count += n
	}
	return count
}

// batchCount is ceil(n/width) for n > 0, without overflowing on huge widths.
func batchCount(n, width int) int {
	return (n-1)/width + 1
}
