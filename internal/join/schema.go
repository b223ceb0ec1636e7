package join

import (
	"github.com/chimaridata/joinery/internal/dataset"
)

// annotate appends a provenance note to a field pulled in from a
// target dataset, preserving any description it already had.
func annotate(f dataset.Field, field, datasetName string) dataset.Field {
	note := field + " from " + datasetName
	if f.Description == "" {
		f.Description = note
	} else {
		f.Description += "; " + note
	}
	return f
}

// reconcileMerge derives the merged output schema: the base schema's
// entries unchanged, followed by every target's non-key fields under
// their planned output names. Type and nullability are copied from the
// source field; the description records which dataset it came from.
func reconcileMerge(base *dataset.Dataset, targets []*dataset.Dataset, plan *namePlan) *dataset.Schema {
	out := base.Schema.Clone()

	for _, target := range targets {
		fp := plan.forDataset(target.ID)
		for _, field := range fp.order {
			src, ok := target.Schema.Get(field)
			if !ok {
				continue
			}
			out.Set(fp.rename[field], annotate(src.Clone(), field, target.Name))
		}
	}

	return out
}

// reconcileConcat derives the concatenation schema: the plain union of
// all input fields under their original names. When several inputs
// share a field name the base's definition wins, then the earliest
// target's. Fields contributed by a target keep their provenance note.
func reconcileConcat(base *dataset.Dataset, targets []*dataset.Dataset) *dataset.Schema {
	out := base.Schema.Clone()

	for _, target := range targets {
		for _, field := range target.Schema.Names() {
			if out.Has(field) {
				continue
			}
			src, _ := target.Schema.Get(field)
			out.Set(field, annotate(src.Clone(), field, target.Name))
		}
	}

	return out
}
