package chunker

import (
	"fmt"
	"testing"
)

func TestSplitIntoBatches(t *testing.T) {
	texts := make([]string, 45)
	for i := range texts {
		texts[i] = fmt.Sprintf("t%d", i)
	}

	batches := SplitIntoBatches(texts, 20)

	if len(batches) != 3 {
		t.Fatalf("Expected 3 batches, got %d", len(batches))
	}
	wantSizes := []int{20, 20, 5}
	wantOffsets := []int{0, 20, 40}
	for i, b := range batches {
		if b.Index != i {
			t.Errorf("Batch %d: expected index %d, got %d", i, i, b.Index)
		}
		if len(b.Texts) != wantSizes[i] {
			t.Errorf("Batch %d: expected %d texts, got %d", i, wantSizes[i], len(b.Texts))
		}
		if b.Offset != wantOffsets[i] {
			t.Errorf("Batch %d: expected offset %d, got %d", i, wantOffsets[i], b.Offset)
		}
		if b.Texts[0] != texts[b.Offset] {
			t.Errorf("Batch %d: first text %q does not match offset", i, b.Texts[0])
		}
	}
}

func TestSplitIntoBatches_Empty(t *testing.T) {
	if got := SplitIntoBatches(nil, 10); len(got) != 0 {
		t.Errorf("Expected no batches, got %d", len(got))
	}
}

func TestSplitIntoBatches_ClampsSize(t *testing.T) {
	texts := make([]string, 120)

	if got := SplitIntoBatches(texts, 500); len(got) != 3 {
		t.Errorf("Expected size clamped to %d (3 batches), got %d batches", MaxBatchSize, len(got))
	}
	if got := SplitIntoBatches(texts[:3], 0); len(got) != 3 {
		t.Errorf("Expected size clamped to 1 (3 batches), got %d batches", len(got))
	}
}
