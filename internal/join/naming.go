package join

import (
	"fmt"

	"github.com/chimaridata/joinery/internal/config"
	"github.com/chimaridata/joinery/internal/dataset"
	joinerrors "github.com/chimaridata/joinery/internal/errors"
)

// fieldPlan holds one target dataset's output field names. rename maps
// each schema field (join key excluded) to its prefixed, deduplicated
// output name; order preserves the target's schema order.
type fieldPlan struct {
	prefix string
	rename map[string]string
	order  []string
}

// outputName resolves a right-side field to its name in the joined
// output. Fields outside the plan, which can only come from rows that
// drifted from their schema, still get the dataset prefix.
func (p *fieldPlan) outputName(field string) string {
	if out, ok := p.rename[field]; ok {
		return out
	}
	return p.prefix + "_" + field
}

// namePlan fixes every output field name before execution starts, so
// row assembly and schema reconciliation can never disagree about what
// a field is called.
type namePlan struct {
	byDataset map[string]*fieldPlan
}

func (p *namePlan) forDataset(id string) *fieldPlan {
	return p.byDataset[id]
}

// buildNamePlan walks the targets in join order and assigns each
// non-key field its "{datasetName}_{field}" output name. When that
// name is already taken, the suffix policy appends _2, _3 and so on in
// first-seen order; the error policy stops the join instead.
func buildNamePlan(
	base *dataset.Dataset, targets []*dataset.Dataset,
	joinKeys map[string]string, collisionPolicy string,
) (*namePlan, *joinerrors.JoinError) {
	taken := make(map[string]bool)
	for _, name := range base.Schema.Names() {
		taken[name] = true
	}

	plan := &namePlan{byDataset: make(map[string]*fieldPlan, len(targets))}
	for _, target := range targets {
		fp := &fieldPlan{
			prefix: target.Name,
			rename: make(map[string]string),
		}
		keyField := joinKeys[target.ID]

		for _, field := range target.Schema.Names() {
			if field == keyField {
				continue
			}
			name := target.Name + "_" + field
			if taken[name] {
				if collisionPolicy == config.CollisionError {
					return nil, joinerrors.NewFieldCollisionError(name)
				}
				for n := 2; ; n++ {
					candidate := fmt.Sprintf("%s_%d", name, n)
					if !taken[candidate] {
						name = candidate
						break
					}
				}
			}
			taken[name] = true
			fp.rename[field] = name
			fp.order = append(fp.order, field)
		}

		plan.byDataset[target.ID] = fp
	}

	return plan, nil
}
