package filter

import (
	"account-explorer/internal/calculator"
	"account-explorer/internal/models"
)

// parallelThreshold is the row count from which the search pass is split
// across CPUs.
const parallelThreshold = 20000

// scan keeps the rows accepted by a predicate, in their original order.
// newKeep is called once per worker so each owns its predicate state.
func scan(rows []models.Record, newKeep func() func(models.Record) bool) []models.Record {
	if len(rows) < parallelThreshold {
		keep := newKeep()
		out := make([]models.Record, 0, len(rows))
		for _, r := range rows {
			if keep(r) {
				out = append(out, r)
			}
		}
		return out
	}

	chunks := calculator.Chunks(len(rows), calculator.Workers())
	parts := make([][]models.Record, len(chunks))
	calculator.Parallel(chunks, func(i int, c calculator.Chunk) {
		keep := newKeep()
		var part []models.Record
		for _, r := range rows[c.Start:c.End] {
			if keep(r) {
				part = append(part, r)
			}
		}
		parts[i] = part
	})

	var out []models.Record
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
