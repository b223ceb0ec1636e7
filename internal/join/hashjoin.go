package join

import (
	"bytes"
	"fmt"

	xxhash "github.com/cespare/xxhash/v2"
	"github.com/chimaridata/joinery/internal/dataset"
)

const (
	indexLoadFactor     = 0.75 // load factor for the hashed key index
	indexGrowthFactor   = 2    // growth factor for index resize
	indexCapacityFactor = 1.3  // capacity factor for initial index size
)

// Executor performs one pairwise hash join: it indexes the right side
// on its key and probes it with every left row. The accumulated result
// of a previous step is threaded back in as the next step's left side.
type Executor struct {
	matchNullKeys  bool
	indexThreshold int
}

// NewExecutor creates an executor with the given options.
func NewExecutor(opts Options) *Executor {
	return &Executor{
		matchNullKeys:  opts.MatchNullKeys,
		indexThreshold: opts.OptimizedIndexThreshold,
	}
}

// Join merges leftRows and rightRows on leftKey = rightKey under the
// given join type. Right-side fields are renamed through the field
// plan; the right key itself is dropped. Input rows are never mutated.
func (e *Executor) Join(
	leftRows, rightRows []dataset.Row, leftKey, rightKey string,
	joinType dataset.JoinType, plan *fieldPlan,
) ([]dataset.Row, error) {
	index := e.buildIndex(rightRows, rightKey)

	// Collect join results as index pairs; -1 marks the null side.
	var leftIndices, rightIndices []int

	switch joinType {
	case dataset.InnerJoin:
		leftIndices, rightIndices = e.performInnerJoin(leftRows, leftKey, index)
	case dataset.LeftJoin:
		leftIndices, rightIndices = e.performLeftJoin(leftRows, leftKey, index)
	case dataset.RightJoin:
		leftIndices, rightIndices = e.performRightJoin(leftRows, rightRows, leftKey, rightKey, index)
	case dataset.FullOuterJoin:
		leftIndices, rightIndices = e.performFullOuterJoin(leftRows, rightRows, leftKey, rightKey, index)
	default:
		return nil, fmt.Errorf("unsupported join type: %v", joinType)
	}

	return e.assembleRows(leftRows, rightRows, leftKey, rightKey, leftIndices, rightIndices, plan), nil
}

// buildIndex builds the hash index from rightKey value to right row
// positions. Null keys are indexed only under the legacy null-matching
// behavior; otherwise they can never match and are left out.
func (e *Executor) buildIndex(rightRows []dataset.Row, rightKey string) keyIndex {
	var index keyIndex
	if len(rightRows) >= e.indexThreshold {
		index = newHashedKeyIndex(len(rightRows))
	} else {
		index = make(mapKeyIndex)
	}

	var buf []byte
	for i, row := range rightRows {
		v := row.Get(rightKey)
		if v.IsNull() && !e.matchNullKeys {
			continue
		}
		buf = v.AppendCanonical(buf[:0])
		index.add(buf, i)
	}
	return index
}

// probeKey canonicalizes a left row's key for an index lookup. ok is
// false when the key can never match (null under SQL semantics).
func (e *Executor) probeKey(row dataset.Row, leftKey string, buf []byte) ([]byte, bool) {
	v := row.Get(leftKey)
	if v.IsNull() && !e.matchNullKeys {
		return buf, false
	}
	return v.AppendCanonical(buf[:0]), true
}

// performInnerJoin returns matching index pairs for inner join
func (e *Executor) performInnerJoin(leftRows []dataset.Row, leftKey string, index keyIndex) ([]int, []int) {
	var leftIndices, rightIndices []int

	var buf []byte
	for i, row := range leftRows {
		key, ok := e.probeKey(row, leftKey, buf)
		if !ok {
			continue
		}
		buf = key
		for _, rightIdx := range index.lookup(key) {
			leftIndices = append(leftIndices, i)
			rightIndices = append(rightIndices, rightIdx)
		}
	}

	return leftIndices, rightIndices
}

// performLeftJoin returns index pairs for left join (all left rows, matched right rows)
func (e *Executor) performLeftJoin(leftRows []dataset.Row, leftKey string, index keyIndex) ([]int, []int) {
	var leftIndices, rightIndices []int

	var buf []byte
	for i, row := range leftRows {
		key, ok := e.probeKey(row, leftKey, buf)
		if ok {
			buf = key
		}
		matches := []int(nil)
		if ok {
			matches = index.lookup(key)
		}
		if len(matches) == 0 {
			leftIndices = append(leftIndices, i)
			rightIndices = append(rightIndices, -1) // -1 indicates null/missing
			continue
		}
		for _, rightIdx := range matches {
			leftIndices = append(leftIndices, i)
			rightIndices = append(rightIndices, rightIdx)
		}
	}

	return leftIndices, rightIndices
}

// performRightJoin returns index pairs for right join (matched left rows, all right rows)
func (e *Executor) performRightJoin(
	leftRows, rightRows []dataset.Row, leftKey, rightKey string, index keyIndex,
) ([]int, []int) {
	var leftIndices, rightIndices []int
	matched := make(map[string]bool) // key values matched by at least one left row

	// First pass: find matches (same as inner join)
	var buf []byte
	for i, row := range leftRows {
		key, ok := e.probeKey(row, leftKey, buf)
		if !ok {
			continue
		}
		buf = key
		matches := index.lookup(key)
		if len(matches) == 0 {
			continue
		}
		matched[string(key)] = true
		for _, rightIdx := range matches {
			leftIndices = append(leftIndices, i)
			rightIndices = append(rightIndices, rightIdx)
		}
	}

	// Second pass: add right rows whose key value was never matched
	for i, row := range rightRows {
		buf = row.Get(rightKey).AppendCanonical(buf[:0])
		if !matched[string(buf)] {
			leftIndices = append(leftIndices, -1) // -1 indicates null/missing
			rightIndices = append(rightIndices, i)
		}
	}

	return leftIndices, rightIndices
}

// performFullOuterJoin returns index pairs for full outer join (all rows from both sides)
func (e *Executor) performFullOuterJoin(
	leftRows, rightRows []dataset.Row, leftKey, rightKey string, index keyIndex,
) ([]int, []int) {
	var leftIndices, rightIndices []int
	matched := make(map[string]bool) // key values matched by at least one left row

	// First pass: process all left rows
	var buf []byte
	for i, row := range leftRows {
		key, ok := e.probeKey(row, leftKey, buf)
		if ok {
			buf = key
		}
		matches := []int(nil)
		if ok {
			matches = index.lookup(key)
		}
		if len(matches) == 0 {
			leftIndices = append(leftIndices, i)
			rightIndices = append(rightIndices, -1) // -1 indicates null/missing
			continue
		}
		matched[string(key)] = true
		for _, rightIdx := range matches {
			leftIndices = append(leftIndices, i)
			rightIndices = append(rightIndices, rightIdx)
		}
	}

	// Second pass: add right rows whose key value was never matched
	for i, row := range rightRows {
		buf = row.Get(rightKey).AppendCanonical(buf[:0])
		if !matched[string(buf)] {
			leftIndices = append(leftIndices, -1)
			rightIndices = append(rightIndices, i)
		}
	}

	return leftIndices, rightIndices
}

// assembleRows materializes merged rows from join index pairs. Matched
// pairs carry the left row plus the renamed right fields; a -1 on
// either side null-fills that side's fields. For right-only rows the
// key value is written into the left key field, so the key column is
// populated even though it originated on the right.
func (e *Executor) assembleRows(
	leftRows, rightRows []dataset.Row, leftKey, rightKey string,
	leftIndices, rightIndices []int, plan *fieldPlan,
) []dataset.Row {
	// Null-fill field sets come from the first row of each side, the
	// only shape information available for rows that have no partner.
	var rightNullFields []string
	if len(rightRows) > 0 {
		for f := range rightRows[0] {
			if f != rightKey {
				rightNullFields = append(rightNullFields, plan.outputName(f))
			}
		}
	}
	var leftNullFields []string
	if len(leftRows) > 0 {
		for f := range leftRows[0] {
			leftNullFields = append(leftNullFields, f)
		}
	}

	out := make([]dataset.Row, 0, len(leftIndices))
	for n, li := range leftIndices {
		ri := rightIndices[n]

		var row dataset.Row
		switch {
		case li >= 0 && ri >= 0:
			row = leftRows[li].Clone()
			for f, v := range rightRows[ri] {
				if f == rightKey {
					continue
				}
				row[plan.outputName(f)] = v
			}
		case ri < 0:
			// Left row without a partner: null-fill the right fields.
			row = leftRows[li].Clone()
			for _, f := range rightNullFields {
				row[f] = dataset.Null
			}
		default:
			// Right row without a partner: null-fill the left fields,
			// then surface the key under the left key field name.
			row = make(dataset.Row, len(leftNullFields)+len(rightRows[ri]))
			for _, f := range leftNullFields {
				row[f] = dataset.Null
			}
			for f, v := range rightRows[ri] {
				if f == rightKey {
					continue
				}
				row[plan.outputName(f)] = v
			}
			row[leftKey] = rightRows[ri].Get(rightKey)
		}
		out = append(out, row)
	}

	return out
}

// keyIndex maps canonical key bytes to right-row positions.
type keyIndex interface {
	add(key []byte, row int)
	lookup(key []byte) []int
}

// mapKeyIndex is the standard index backed by a Go map. It is the
// right choice for small inputs where hashing overhead dominates.
type mapKeyIndex map[string][]int

func (m mapKeyIndex) add(key []byte, row int) {
	m[string(key)] = append(m[string(key)], row)
}

func (m mapKeyIndex) lookup(key []byte) []int {
	return m[string(key)]
}

// hashedKeyIndex buckets rows by xxhash of the canonical key and
// verifies the exact key on every hit, so hash collisions can never
// produce a false match.
type hashedKeyIndex struct {
	buckets  [][]indexEntry
	capacity int
	size     int
}

type indexEntry struct {
	key  []byte
	rows []int
}

func newHashedKeyIndex(estimatedSize int) *hashedKeyIndex {
	capacity := nextPowerOfTwo(int(float64(estimatedSize) * indexCapacityFactor))
	return &hashedKeyIndex{
		buckets:  make([][]indexEntry, capacity),
		capacity: capacity,
	}
}

func (h *hashedKeyIndex) add(key []byte, row int) {
	bucketIdx := int(xxhash.Sum64(key) & uint64(h.capacity-1))

	for i := range h.buckets[bucketIdx] {
		if bytes.Equal(h.buckets[bucketIdx][i].key, key) {
			h.buckets[bucketIdx][i].rows = append(h.buckets[bucketIdx][i].rows, row)
			return
		}
	}

	owned := make([]byte, len(key))
	copy(owned, key)
	h.buckets[bucketIdx] = append(h.buckets[bucketIdx], indexEntry{key: owned, rows: []int{row}})
	h.size++

	if float64(h.size) > float64(h.capacity)*indexLoadFactor {
		h.resize()
	}
}

func (h *hashedKeyIndex) lookup(key []byte) []int {
	bucketIdx := int(xxhash.Sum64(key) & uint64(h.capacity-1))
	for i := range h.buckets[bucketIdx] {
		if bytes.Equal(h.buckets[bucketIdx][i].key, key) {
			return h.buckets[bucketIdx][i].rows
		}
	}
	return nil
}

func (h *hashedKeyIndex) resize() {
	oldBuckets := h.buckets
	h.capacity *= indexGrowthFactor
	h.buckets = make([][]indexEntry, h.capacity)
	h.size = 0

	for _, bucket := range oldBuckets {
		for _, entry := range bucket {
			bucketIdx := int(xxhash.Sum64(entry.key) & uint64(h.capacity-1))
			h.buckets[bucketIdx] = append(h.buckets[bucketIdx], entry)
			h.size++
		}
	}
}

func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	power := 1
	for power < n {
		power *= 2
	}
	return power
}
