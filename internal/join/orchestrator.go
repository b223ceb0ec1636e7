// Package join implements the dataset join engine: request validation,
// pairwise hash joins folded left to right across the selected
// datasets, vertical concatenation, and schema reconciliation for the
// derived dataset. The engine either produces a complete result or a
// structured failure; it never returns partial output and never
// mutates its inputs.
package join

import (
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/maps"

	"github.com/chimaridata/joinery/internal/config"
	"github.com/chimaridata/joinery/internal/dataset"
	joinerrors "github.com/chimaridata/joinery/internal/errors"
	"github.com/chimaridata/joinery/internal/logging"
	"github.com/chimaridata/joinery/internal/validation"
)

// Options carries the engine knobs an orchestrator is built with.
type Options struct {
	// MatchNullKeys restores the legacy behavior where null join keys
	// match each other literally. Off by default: a null key matches
	// nothing.
	MatchNullKeys bool
	// CollisionPolicy decides what happens when a prefixed field name
	// is already taken: config.CollisionSuffix appends _2, _3 and so
	// on; config.CollisionError fails the join.
	CollisionPolicy string
	// OptimizedIndexThreshold is the right-side row count at which the
	// executor switches to the hashed key index.
	OptimizedIndexThreshold int
}

// OptionsFromConfig extracts the engine options from a configuration.
func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		MatchNullKeys:           cfg.MatchNullKeys,
		CollisionPolicy:         cfg.CollisionPolicy,
		OptimizedIndexThreshold: cfg.OptimizedIndexThreshold,
	}
}

// Orchestrator drives a join request through validation, execution and
// result assembly. It is stateless between runs and safe for use from
// multiple goroutines.
type Orchestrator struct {
	opts  Options
	now   func() time.Time
	newID func() string
}

// New creates an orchestrator from the global configuration.
func New() *Orchestrator {
	return NewWithOptions(OptionsFromConfig(config.GetGlobalConfig()))
}

// NewWithOptions creates an orchestrator with explicit options.
func NewWithOptions(opts Options) *Orchestrator {
	return &Orchestrator{
		opts:  opts,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Run executes a join request against the base dataset and the
// resolved targets, keyed by dataset ID. The returned result is either
// a complete derived dataset or a failure; inputs are left untouched
// in both cases.
func (o *Orchestrator) Run(
	cfg *dataset.JoinConfig, base *dataset.Dataset, targets map[string]*dataset.Dataset,
) (result *dataset.JoinResult) {
	// A panic anywhere past this point becomes a clean failure, so a
	// malformed dataset can never take the caller down or leave
	// partial output behind.
	defer func() {
		if r := recover(); r != nil {
			logging.Errorf("join panicked: %v", r)
			result = failure(joinerrors.NewInternalError("join", fmt.Errorf("%v", r)))
		}
	}()

	if err := o.Validate(cfg, base, targets); err != nil {
		return failure(err)
	}

	ordered := make([]*dataset.Dataset, 0, len(cfg.JoinWith))
	for _, id := range cfg.JoinWith {
		ordered = append(ordered, targets[id])
	}

	logging.Debugf("joining %d dataset(s) into '%s' with strategy %s",
		len(ordered), base.Name, cfg.MergeStrategy)

	var (
		rows   []dataset.Row
		schema *dataset.Schema
	)
	switch cfg.MergeStrategy {
	case dataset.StrategyConcat:
		rows = concatRows(base, ordered)
		schema = reconcileConcat(base, ordered)
	default:
		plan, perr := buildNamePlan(base, ordered, cfg.JoinKeys, o.opts.CollisionPolicy)
		if perr != nil {
			return failure(perr)
		}

		// Fold left to right: each step joins the accumulated rows
		// with the next target, keyed on the base's join field.
		executor := NewExecutor(o.opts)
		leftKey := cfg.JoinKeys[base.ID]
		acc := base.Rows
		for _, target := range ordered {
			var err error
			acc, err = executor.Join(
				acc, target.Rows, leftKey, cfg.JoinKeys[target.ID],
				cfg.JoinType, plan.forDataset(target.ID),
			)
			if err != nil {
				return failure(err)
			}
		}
		rows = acc
		schema = reconcileMerge(base, ordered, plan)
	}

	now := o.now()
	out := dataset.New(
		o.newID(),
		fmt.Sprintf("%s_joined_%d", base.Name, now.UnixMilli()),
		schema,
		rows,
	)

	sources := make([]dataset.SourceRef, 0, len(ordered)+1)
	sources = append(sources, dataset.SourceRef{ID: base.ID, Name: base.Name, RecordCount: base.RecordCount})
	for _, target := range ordered {
		sources = append(sources, dataset.SourceRef{ID: target.ID, Name: target.Name, RecordCount: target.RecordCount})
	}
	out.Provenance = &dataset.Provenance{
		MergeStrategy: cfg.MergeStrategy,
		JoinType:      cfg.JoinType,
		JoinKeys:      maps.Clone(cfg.JoinKeys),
		Sources:       sources,
		CreatedAt:     now.UTC(),
	}

	logging.Debugf("join produced '%s': %d rows, %d fields", out.Name, out.RecordCount, out.Schema.Len())

	return &dataset.JoinResult{
		Success:       true,
		ResultDataset: out,
		RecordCount:   out.RecordCount,
		JoinedFields:  schema.Names(),
	}
}

// Validate runs every request check in contract order and returns the
// first blocking condition, or nil when the join may proceed. It never
// modifies anything, so repeating it on the same inputs gives the same
// outcome.
func (o *Orchestrator) Validate(
	cfg *dataset.JoinConfig, base *dataset.Dataset, targets map[string]*dataset.Dataset,
) *joinerrors.JoinError {
	pre := validation.NewCompoundValidator(
		validation.NewTargetsValidator(cfg),
		validation.NewResolutionValidator(cfg, targets),
	)
	if err := pre.Validate(); err != nil {
		return asJoinError(err)
	}

	// Per-dataset checks assemble only after resolution has passed, so
	// every target they reference is known to exist. Key checks apply
	// to the merge strategy only; concatenation has no join keys.
	checks := validation.NewCompoundValidator()
	if cfg.MergeStrategy != dataset.StrategyConcat {
		checks.Add(validation.NewJoinKeyValidator(base, cfg.JoinKeys))
		for _, id := range cfg.JoinWith {
			checks.Add(validation.NewJoinKeyValidator(targets[id], cfg.JoinKeys))
		}
	}
	checks.Add(validation.NewNonEmptyValidator(base, true))
	for _, id := range cfg.JoinWith {
		checks.Add(validation.NewNonEmptyValidator(targets[id], false))
	}
	if err := checks.Validate(); err != nil {
		return asJoinError(err)
	}

	return nil
}

func failure(err error) *dataset.JoinResult {
	return &dataset.JoinResult{Success: false, Err: asJoinError(err)}
}

func asJoinError(err error) *joinerrors.JoinError {
	var je *joinerrors.JoinError
	if stderrors.As(err, &je) {
		return je
	}
	return joinerrors.NewInternalError("join", err)
}
