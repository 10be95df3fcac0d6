package reconcile

import "fmt"

// PackLimits bounds a single packed request.
type PackLimits struct {
	// ItemCap is the maximum number of ids one batch may cover.
	ItemCap int

	// ExpressionCap is the maximum expression cost of one batch.
	// A single id costs 1 unit, a range of two or more ids costs 2.
	ExpressionCap int
}

// Validate checks that every run can make progress under the limits.
func (l PackLimits) Validate() error {
	if l.ItemCap < 1 {
		return fmt.Errorf("item cap must be at least 1, got %d", l.ItemCap)
	}
	if l.ExpressionCap < 2 {
		return fmt.Errorf("expression cap must be at least 2, got %d", l.ExpressionCap)
	}
	return nil
}

// Pack greedily turns ascending, non-overlapping runs of missing ids into
// batches that respect both caps. A run that does not fit the remaining item
// quota is split, so one run may span several batches.
//
// Concatenating the ids covered by the returned batches reproduces the input.
func Pack(runs []SequenceGap, limits PackLimits) ([]Batch, error) {
	if err := limits.Validate(); err != nil {
		return nil, err
	}

	var (
		batches []Batch
		current Batch
	)

	closeBatch := func() {
		if current.Count > 0 {
			batches = append(batches, current)
		}
		current = Batch{}
	}

	add := func(term IDTerm) {
		current.Filter.Terms = append(current.Filter.Terms, term)
		current.Count += int(term.Len())
		current.Units += term.Units()
	}

	for _, run := range runs {
		start, end := run.Start, run.End

		for start < end {
			quota := uint64(limits.ItemCap - current.Count)
			if quota == 0 {
				closeBatch()
				continue
			}

			take := min(end-start, quota)
			term := IDTerm{Start: start, End: start + take}
			if current.Units+term.Units() > limits.ExpressionCap {
				closeBatch()
				continue
			}

			add(term)
			start += take
		}
	}
	closeBatch()

	return batches, nil
}
