package reconcile

import (
	"context"
	"fmt"
	"maps"

	"inventory-sync/core/diff"
	"inventory-sync/core/schema"
	"inventory-sync/core/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CompletionFunc is invoked once after a full apply pass with the elements
// that carried a non-skip action and the run summary. It is side-effect
// only; the executor consumes no return value.
type CompletionFunc func(changed []*diff.Element, summary *Summary)

// Executor walks a diff tree in dependency order and applies every non-skip
// element against the backing system, mutating the destination store to
// match as it goes.
//
// Traversal discipline: creates and updates are applied parent-first
// (children may reference the parent), deletes are applied children-first
// (the parent may be referenced by its children). Failures are contained
// per element: siblings and unrelated subtrees continue, only a failed
// create short-circuits its own children.
type Executor struct {
	registry *schema.Registry
	adapter  Adapter
	logger   *zap.Logger

	// OnComplete, when set, fires after the walk if at least one element
	// had a non-skip action. An all-skip tree fires no callback.
	OnComplete CompletionFunc
}

// NewExecutor creates an executor for one reconciliation run.
func NewExecutor(registry *schema.Registry, adapter Adapter, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{registry: registry, adapter: adapter, logger: logger}
}

// Apply walks the diff tree and applies it to dest through the backing
// adapter. The returned summary reports per-action counts, the ordered
// execution log, and every failure; backing-system errors never surface as
// a returned error. The returned error is non-nil only for usage errors
// and for context cancellation, which is honored between top-level
// elements.
func (e *Executor) Apply(ctx context.Context, d *diff.Diff, dest *store.Store) (*Summary, error) {
	if d == nil {
		return nil, fmt.Errorf("nil diff")
	}
	if dest == nil {
		return nil, fmt.Errorf("nil destination store")
	}

	summary := &Summary{RunID: uuid.NewString()}
	log := e.logger.With(zap.String("run_id", summary.RunID), zap.String("destination", dest.Name))
	log.Info("beginning sync")

	var walkErr error
	for _, element := range d.Elements() {
		if err := ctx.Err(); err != nil {
			log.Warn("sync abandoned", zap.Error(err))
			walkErr = err
			break
		}
		e.applyElement(ctx, log, element, nil, dest, summary)
	}

	log.Info("sync complete",
		zap.Int("creates", summary.Creates.Attempted),
		zap.Int("updates", summary.Updates.Attempted),
		zap.Int("deletes", summary.Deletes.Attempted),
		zap.Int("failures", len(summary.Failures)),
	)

	if changed := d.ChangedElements(); len(changed) > 0 && e.OnComplete != nil {
		e.OnComplete(changed, summary)
	}

	return summary, walkErr
}

// applyElement applies one element and its subtree. parent is the
// destination record of the enclosing element, nil at the top level.
func (e *Executor) applyElement(ctx context.Context, log *zap.Logger, el *diff.Element, parent *store.Record, dest *store.Store, summary *Summary) {
	switch el.Action() {
	case diff.ActionCreate:
		rec, ok := e.applyCreate(ctx, log, el, parent, dest, summary)
		if !ok {
			// Children cannot be created against a missing parent.
			return
		}
		for _, child := range el.Children() {
			e.applyElement(ctx, log, child, rec, dest, summary)
		}

	case diff.ActionUpdate, diff.ActionSkip:
		rec := e.applyUpdate(ctx, log, el, dest, summary)
		for _, child := range el.Children() {
			e.applyElement(ctx, log, child, rec, dest, summary)
		}

	case diff.ActionDelete:
		// Children first: they reference the parent and must go before it.
		rec, _ := dest.Get(el.Type(), el.ID())
		for _, child := range el.Children() {
			e.applyElement(ctx, log, child, rec, dest, summary)
		}
		e.applyDelete(ctx, log, el, parent, rec, dest, summary)
	}
}

// applyCreate counts the create as succeeded only once the destination
// store mutation went through as well; a backing create followed by a
// failed store add is a failed element and must surface in the summary.
func (e *Executor) applyCreate(ctx context.Context, log *zap.Logger, el *diff.Element, parent *store.Record, dest *store.Store, summary *Summary) (*store.Record, bool) {
	if err := e.adapter.Create(ctx, el.Type(), el.Identifiers(), el.NewValues()); err != nil {
		summary.record(diff.ActionCreate, el.Type(), el.ID(), err)
		e.setStatus(log, el, nil, store.StatusFailure, err.Error())
		return nil, false
	}

	values := el.Identifiers()
	maps.Copy(values, el.NewValues())
	rec, buildErr := e.registry.NewRecord(el.Type(), values)
	if buildErr != nil {
		summary.record(diff.ActionCreate, el.Type(), el.ID(), buildErr)
		e.setStatus(log, el, nil, store.StatusFailure, buildErr.Error())
		return nil, false
	}
	if addErr := dest.Add(rec); addErr != nil {
		summary.record(diff.ActionCreate, el.Type(), el.ID(), addErr)
		e.setStatus(log, el, rec, store.StatusFailure, addErr.Error())
		return nil, false
	}
	if parent != nil {
		parent.AddChild(el.Type(), el.ID())
	}

	summary.record(diff.ActionCreate, el.Type(), el.ID(), nil)
	e.setStatus(log, el, rec, store.StatusSuccess, "created")
	return rec, true
}

// applyUpdate handles both update and skip elements; for skip it only
// resolves the destination record so the recursion can pass it down as the
// parent.
func (e *Executor) applyUpdate(ctx context.Context, log *zap.Logger, el *diff.Element, dest *store.Store, summary *Summary) *store.Record {
	rec, getErr := dest.Get(el.Type(), el.ID())
	if el.Action() == diff.ActionSkip {
		return rec
	}

	if getErr != nil {
		summary.record(diff.ActionUpdate, el.Type(), el.ID(), getErr)
		e.setStatus(log, el, nil, store.StatusFailure, getErr.Error())
		return nil
	}

	err := e.adapter.Update(ctx, rec, el.NewValues())
	summary.record(diff.ActionUpdate, el.Type(), el.ID(), err)
	if err != nil {
		e.setStatus(log, el, rec, store.StatusFailure, err.Error())
		return rec
	}

	rec.SetAttrs(el.NewValues())
	e.setStatus(log, el, rec, store.StatusSuccess, "updated")
	return rec
}

func (e *Executor) applyDelete(ctx context.Context, log *zap.Logger, el *diff.Element, parent, rec *store.Record, dest *store.Store, summary *Summary) {
	if rec == nil {
		err := fmt.Errorf("cannot delete %s %s: not in destination store", el.Type(), el.ID())
		summary.record(diff.ActionDelete, el.Type(), el.ID(), err)
		e.setStatus(log, el, nil, store.StatusFailure, err.Error())
		return
	}

	if err := e.adapter.Delete(ctx, rec); err != nil {
		summary.record(diff.ActionDelete, el.Type(), el.ID(), err)
		e.setStatus(log, el, rec, store.StatusFailure, err.Error())
		return
	}

	// Same discipline as create: the store removal is part of the
	// operation's outcome.
	if removeErr := dest.Remove(el.Type(), el.ID()); removeErr != nil {
		summary.record(diff.ActionDelete, el.Type(), el.ID(), removeErr)
		e.setStatus(log, el, rec, store.StatusFailure, removeErr.Error())
		return
	}
	if parent != nil {
		parent.RemoveChild(el.Type(), el.ID())
	}

	summary.record(diff.ActionDelete, el.Type(), el.ID(), nil)
	e.setStatus(log, el, rec, store.StatusSuccess, "deleted")
}

// setStatus writes the outcome onto the element and, when present, the
// destination record, and logs it at the appropriate level.
func (e *Executor) setStatus(log *zap.Logger, el *diff.Element, rec *store.Record, status store.Status, message string) {
	el.SetStatus(status, message)
	if rec != nil {
		rec.SetStatus(status, message)
	}

	fields := []zap.Field{
		zap.String("action", string(el.Action())),
		zap.String("type", el.Type()),
		zap.String("unique_id", el.ID()),
	}
	if status == store.StatusSuccess {
		log.Info(message, fields...)
	} else {
		log.Warn(message, fields...)
	}
}
