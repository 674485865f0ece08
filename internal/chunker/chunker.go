// Package chunker splits catalog texts into request-sized batches.
package chunker

// MaxBatchSize is the largest batch a single translation request may carry.
const MaxBatchSize = 50

// Batch is a contiguous slice of texts translated in one request.
type Batch struct {
	Index int
	// Offset is the position of Texts[0] in the full text list.
	Offset int
	Texts  []string
}

// SplitIntoBatches splits texts into consecutive batches of at most size
// elements, preserving order. size is clamped to [1, MaxBatchSize].
func SplitIntoBatches(texts []string, size int) []Batch {
	size = ClampBatchSize(size)
	var batches []Batch
	n := len(texts)

	for i := 0; i < n; i += size {
		end := i + size
		if end > n {
			end = n
		}
		batches = append(batches, Batch{
			Index:  len(batches),
			Offset: i,
			Texts:  texts[i:end],
		})
	}

	return batches
}

// ClampBatchSize bounds size to the accepted range.
func ClampBatchSize(size int) int {
	if size < 1 {
		return 1
	}
	if size > MaxBatchSize {
		return MaxBatchSize
	}
	return size
}
