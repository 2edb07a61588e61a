package workflow

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Combinators compose child Steps into a single Step (spec §4.1: then,
// parallel, branch, dowhile, foreach, map). A combinator is itself a Step,
// so combinators nest freely. Every combinator advances ctx.StepCount once
// per child invocation via AdvanceStep, so max_steps bounds total work done
// regardless of nesting depth (spec §8 property 6).

// thenStep runs children sequentially against the same Context, stopping
// and propagating the first decision that is not Continue.
type thenStep struct {
	name     string
	children []Step
}

// Then builds a Step that runs children in order on a single Context.
func Then(name string, children ...Step) Step {
	return &thenStep{name: name, children: children}
}

func (t *thenStep) Name() string { return t.name }

func (t *thenStep) Execute(ctx context.Context, wc *Context) (Decision, error) {
	for _, child := range t.children {
		if !wc.ShouldContinue() {
			return Decision{}, fmt.Errorf("then %q: step budget exhausted before %q", t.name, child.Name())
		}
		wc.AdvanceStep()
		d, err := child.Execute(ctx, wc)
		if err != nil {
			return Decision{}, fmt.Errorf("then %q: child %q: %w", t.name, child.Name(), err)
		}
		if d.Kind != DecisionContinue {
			return d, nil
		}
	}
	return Continue(), nil
}

// parallelStep runs children against independent clones of the Context and
// merges their results back in child-index order once all have completed
// (spec §8 property 10, "Parallel isolation"; merge order resolved in
// DESIGN.md's Open Questions section).
type parallelStep struct {
	name     string
	children []Step
}

// Parallel builds a Step that fans children out over isolated Context
// clones and merges them back deterministically in child-index order.
func Parallel(name string, children ...Step) Step {
	return &parallelStep{name: name, children: children}
}

func (p *parallelStep) Name() string { return p.name }

func (p *parallelStep) Execute(ctx context.Context, wc *Context) (Decision, error) {
	type outcome struct {
		clone *Context
		dec   Decision
	}
	results := make([]outcome, len(p.children))

	g, gctx := errgroup.WithContext(ctx)
	for i, child := range p.children {
		i, child := i, child
		clone := wc.Clone()
		g.Go(func() error {
			d, err := child.Execute(gctx, clone)
			if err != nil {
				return fmt.Errorf("parallel %q: child %d (%s): %w", p.name, i, child.Name(), err)
			}
			results[i] = outcome{clone: clone, dec: d}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Decision{}, err
	}

	base := wc.Clone()
	var first Decision
	haveFirst := false
	for _, r := range results {
		wc.MergeFrom(base, r.clone)
		if !haveFirst && r.dec.Kind != DecisionContinue {
			first, haveFirst = r.dec, true
		}
	}
	for range p.children {
		wc.AdvanceStep()
	}
	if haveFirst {
		return first, nil
	}
	return Continue(), nil
}

// branchStep evaluates cond against the Context and executes ifTrue or
// ifFalse accordingly.
type branchStep struct {
	name            string
	cond            func(*Context) bool
	ifTrue, ifFalse Step
}

// Branch builds a conditional Step.
func Branch(name string, cond func(*Context) bool, ifTrue, ifFalse Step) Step {
	return &branchStep{name: name, cond: cond, ifTrue: ifTrue, ifFalse: ifFalse}
}

func (b *branchStep) Name() string { return b.name }

func (b *branchStep) Execute(ctx context.Context, wc *Context) (Decision, error) {
	wc.AdvanceStep()
	next := b.ifFalse
	if b.cond(wc) {
		next = b.ifTrue
	}
	if next == nil {
		return Continue(), nil
	}
	return next.Execute(ctx, wc)
}

// doWhileStep repeats body while cond holds, re-checking cond after each
// iteration (do-while semantics: body always runs at least once).
type doWhileStep struct {
	name string
	body Step
	cond func(*Context) bool
}

// DoWhile builds a Step that repeats body at least once, continuing while
// cond(ctx) is true. Iteration stops early if body returns a non-Continue
// decision or the step budget is exhausted.
func DoWhile(name string, body Step, cond func(*Context) bool) Step {
	return &doWhileStep{name: name, body: body, cond: cond}
}

func (d *doWhileStep) Name() string { return d.name }

func (d *doWhileStep) Execute(ctx context.Context, wc *Context) (Decision, error) {
	for {
		if !wc.ShouldContinue() {
			return Decision{}, fmt.Errorf("dowhile %q: step budget exhausted", d.name)
		}
		wc.AdvanceStep()
		dec, err := d.body.Execute(ctx, wc)
		if err != nil {
			return Decision{}, fmt.Errorf("dowhile %q: %w", d.name, err)
		}
		if dec.Kind != DecisionContinue {
			return dec, nil
		}
		if !d.cond(wc) {
			return Continue(), nil
		}
	}
}

// foreachStep runs body once per item in the slice stored at key in
// ctx.Data, exposing the current item under itemKey for the duration of
// each iteration.
type foreachStep struct {
	name            string
	key, itemKey    string
	body            Step
}

// ForEach builds a Step that iterates over the []any stored at key in
// ctx.Data, placing each element under itemKey in ctx.Data before running
// body. Iteration stops early on a non-Continue decision from body.
func ForEach(name, key, itemKey string, body Step) Step {
	return &foreachStep{name: name, key: key, itemKey: itemKey, body: body}
}

func (f *foreachStep) Name() string { return f.name }

func (f *foreachStep) Execute(ctx context.Context, wc *Context) (Decision, error) {
	raw, ok := wc.Data[f.key]
	if !ok {
		return Decision{}, fmt.Errorf("foreach %q: key %q not found in data", f.name, f.key)
	}
	items, ok := raw.([]any)
	if !ok {
		return Decision{}, fmt.Errorf("foreach %q: key %q is not a list", f.name, f.key)
	}
	prevItem, hadPrev := wc.Data[f.itemKey]
	defer func() {
		if hadPrev {
			wc.Data[f.itemKey] = prevItem
		} else {
			delete(wc.Data, f.itemKey)
		}
	}()

	for _, item := range items {
		if !wc.ShouldContinue() {
			return Decision{}, fmt.Errorf("foreach %q: step budget exhausted", f.name)
		}
		wc.Data[f.itemKey] = item
		wc.AdvanceStep()
		dec, err := f.body.Execute(ctx, wc)
		if err != nil {
			return Decision{}, fmt.Errorf("foreach %q: %w", f.name, err)
		}
		if dec.Kind != DecisionContinue {
			return dec, nil
		}
	}
	return Continue(), nil
}

// mapStep transforms the slice stored at srcKey element-wise via fn,
// storing the resulting slice at dstKey. Unlike ForEach, map is a pure data
// transform: fn has no access to Decision-returning side effects and
// cannot suspend the run.
type mapStep struct {
	name            string
	srcKey, dstKey  string
	fn              func(item any) (any, error)
}

// Map builds a Step that applies fn to each element of the []any stored at
// srcKey in ctx.Data and stores the results at dstKey.
func Map(name, srcKey, dstKey string, fn func(item any) (any, error)) Step {
	return &mapStep{name: name, srcKey: srcKey, dstKey: dstKey, fn: fn}
}

func (m *mapStep) Name() string { return m.name }

func (m *mapStep) Execute(_ context.Context, wc *Context) (Decision, error) {
	wc.AdvanceStep()
	raw, ok := wc.Data[m.srcKey]
	if !ok {
		return Decision{}, fmt.Errorf("map %q: key %q not found in data", m.name, m.srcKey)
	}
	items, ok := raw.([]any)
	if !ok {
		return Decision{}, fmt.Errorf("map %q: key %q is not a list", m.name, m.srcKey)
	}
	out := make([]any, len(items))
	for i, item := range items {
		v, err := m.fn(item)
		if err != nil {
			return Decision{}, fmt.Errorf("map %q: item %d: %w", m.name, i, err)
		}
		out[i] = v
	}
	wc.Data[m.dstKey] = out
	return Continue(), nil
}
