package join

import "github.com/chimaridata/joinery/internal/dataset"

// unionFields returns the union of all schema field names: the base
// schema's fields first, then each target's unseen fields in join
// order. Concat rows and the concat schema are both built from this
// list so they always agree.
func unionFields(base *dataset.Dataset, targets []*dataset.Dataset) []string {
	seen := make(map[string]bool)
	var union []string
	for _, name := range base.Schema.Names() {
		seen[name] = true
		union = append(union, name)
	}
	for _, target := range targets {
		for _, name := range target.Schema.Names() {
			if !seen[name] {
				seen[name] = true
				union = append(union, name)
			}
		}
	}
	return union
}

// concatRows stacks every input's rows in order, base first, aligning
// each row on the full field union. Fields a source never had become
// explicit nulls, so every output row carries every union field. Rows
// are kept as-is otherwise; equal rows from different sources are not
// deduplicated.
func concatRows(base *dataset.Dataset, targets []*dataset.Dataset) []dataset.Row {
	union := unionFields(base, targets)

	total := len(base.Rows)
	for _, target := range targets {
		total += len(target.Rows)
	}

	out := make([]dataset.Row, 0, total)
	appendAligned := func(rows []dataset.Row) {
		for _, row := range rows {
			aligned := make(dataset.Row, len(union))
			for _, f := range union {
				aligned[f] = row.Get(f)
			}
			out = append(out, aligned)
		}
	}

	appendAligned(base.Rows)
	for _, target := range targets {
		appendAligned(target.Rows)
	}
	return out
}
