// Package verify checks systems of comparison constraints over typed
// variables for satisfiability and produces a concrete witness assignment.
//
// The engine works in two phases. Interval propagation first narrows each
// numeric variable's domain until a fixpoint, rejecting systems whose domains
// collapse. A bounded backtracking search then picks concrete values from the
// narrowed domains and validates every constraint against them. A timeout
// guards pathological systems.
package verify

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Kind enumerates the supported variable types.
type Kind string

const (
	KindInt  Kind = "int"
	KindReal Kind = "real"
	KindBool Kind = "bool"
)

// DefaultSolverTimeout bounds a single satisfiability check.
const DefaultSolverTimeout = 5 * time.Second

// maxCandidates caps the number of values tried per variable during search.
const maxCandidates = 8

type variable struct {
	kind Kind

	// Numeric domain. Strict flags mark open interval ends.
	lo, hi             float64
	loStrict, hiStrict bool
	excluded           map[float64]struct{}

	// Bool domain.
	canTrue, canFalse bool
}

func newVariable(kind Kind) *variable {
	return &variable{
		kind:     kind,
		lo:       math.Inf(-1),
		hi:       math.Inf(1),
		excluded: make(map[float64]struct{}),
		canTrue:  true,
		canFalse: true,
	}
}

type constraint struct {
	lhs string
	op  string

	// Exactly one of the rhs fields applies.
	rhsVar   string
	rhsNum   float64
	rhsBool  bool
	varRHS   bool
	boolRHS  bool
	recorded string
}

// Option configures an Engine.
type Option func(*Engine)

// WithSolverTimeout bounds each satisfiability check.
func WithSolverTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// Engine accumulates variables and constraints and answers satisfiability
// queries. It is not safe for concurrent use.
type Engine struct {
	vars        map[string]*variable
	constraints []constraint
	timeout     time.Duration
}

// NewEngine creates an empty Engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		vars:    make(map[string]*variable),
		timeout: DefaultSolverTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RegisterVariable declares a typed variable. Registering the same name twice
// is a no-op.
func (e *Engine) RegisterVariable(name string, kind Kind) error {
	if _, ok := e.vars[name]; ok {
		return nil
	}
	switch kind {
	case KindInt, KindReal, KindBool:
		e.vars[name] = newVariable(kind)
		return nil
	default:
		return fmt.Errorf("verify: unsupported variable type %q", kind)
	}
}

// AddConstraint records "lhs op rhs". The rhs may be a numeric literal, a
// bool literal, or the name of a previously registered variable. An
// unregistered lhs is implicitly declared as an int.
func (e *Engine) AddConstraint(lhs, op string, rhs any) error {
	switch op {
	case "==", "!=", "<", "<=", ">", ">=":
	default:
		return fmt.Errorf("verify: unknown operator %q", op)
	}

	if _, ok := e.vars[lhs]; !ok {
		e.vars[lhs] = newVariable(KindInt)
	}

	c := constraint{lhs: lhs, op: op, recorded: fmt.Sprintf("%s %s %v", lhs, op, rhs)}

	switch v := rhs.(type) {
	case string:
		if _, ok := e.vars[v]; !ok {
			return fmt.Errorf("verify: rhs %q is not a registered variable", v)
		}
		c.rhsVar = v
		c.varRHS = true
	case bool:
		c.rhsBool = v
		c.boolRHS = true
	case int:
		c.rhsNum = float64(v)
	case int64:
		c.rhsNum = float64(v)
	case float64:
		c.rhsNum = v
	case float32:
		c.rhsNum = float64(v)
	default:
		return fmt.Errorf("verify: unsupported rhs value %v (%T)", rhs, rhs)
	}

	if c.boolRHS && e.vars[lhs].kind != KindBool {
		return fmt.Errorf("verify: variable %q is not bool", lhs)
	}
	if c.boolRHS && c.op != "==" && c.op != "!=" {
		return fmt.Errorf("verify: operator %q not valid for bool rhs", c.op)
	}

	e.constraints = append(e.constraints, c)
	return nil
}

// Constraints returns the recorded constraints in insertion order.
func (e *Engine) Constraints() []string {
	out := make([]string, len(e.constraints))
	for i, c := range e.constraints {
		out[i] = c.recorded
	}
	return out
}

// Reset clears all variables and constraints for the next case.
func (e *Engine) Reset() {
	e.vars = make(map[string]*variable)
	e.constraints = nil
}

// Satisfiable reports whether the current system admits at least one
// assignment. Systems the search cannot decide within the timeout are
// reported unsatisfiable.
func (e *Engine) Satisfiable() bool {
	_, ok := e.solve()
	return ok
}

// Solution returns a concrete witness assignment, or an empty map when the
// system is unsatisfiable. Int variables map to int64, reals to float64,
// bools to bool.
func (e *Engine) Solution() map[string]any {
	model, ok := e.solve()
	if !ok {
		return map[string]any{}
	}
	return model
}

func (e *Engine) solve() (map[string]any, bool) {
	deadline := time.Now().Add(e.timeout)

	doms := e.cloneDomains()
	if !propagate(doms, e.constraints, deadline) {
		return nil, false
	}

	names := make([]string, 0, len(doms))
	for name := range doms {
		names = append(names, name)
	}
	sort.Strings(names)

	cands := make([][]any, len(names))
	for i, name := range names {
		cands[i] = candidates(doms[name])
		if len(cands[i]) == 0 {
			return nil, false
		}
	}

	assignment := make(map[string]any, len(names))
	if !e.search(names, cands, assignment, 0, deadline) {
		return nil, false
	}
	return assignment, true
}

func (e *Engine) cloneDomains() map[string]*variable {
	doms := make(map[string]*variable, len(e.vars))
	for name, v := range e.vars {
		cp := *v
		cp.excluded = make(map[float64]struct{}, len(v.excluded))
		for k := range v.excluded {
			cp.excluded[k] = struct{}{}
		}
		doms[name] = &cp
	}
	return doms
}

// search assigns variables in order, checking every constraint whose
// operands are all assigned before descending.
func (e *Engine) search(names []string, cands [][]any, assignment map[string]any, idx int, deadline time.Time) bool {
	if time.Now().After(deadline) {
		return false
	}
	if idx == len(names) {
		return true
	}

	name := names[idx]
	for _, cand := range cands[idx] {
		assignment[name] = cand
		if e.consistent(assignment) && e.search(names, cands, assignment, idx+1, deadline) {
			return true
		}
		delete(assignment, name)
	}
	return false
}

// consistent checks every constraint both of whose operands are assigned.
func (e *Engine) consistent(assignment map[string]any) bool {
	for _, c := range e.constraints {
		lhs, ok := assignment[c.lhs]
		if !ok {
			continue
		}

		if c.boolRHS || (c.varRHS && e.vars[c.rhsVar].kind == KindBool) {
			lb, ok := lhs.(bool)
			if !ok {
				return false
			}
			rb := c.rhsBool
			if c.varRHS {
				rv, assigned := assignment[c.rhsVar]
				if !assigned {
					continue
				}
				rb, ok = rv.(bool)
				if !ok {
					return false
				}
			}
			if !holdsBool(lb, c.op, rb) {
				return false
			}
			continue
		}

		lf, ok := toFloat(lhs)
		if !ok {
			return false
		}
		rf := c.rhsNum
		if c.varRHS {
			rv, assigned := assignment[c.rhsVar]
			if !assigned {
				continue
			}
			rf, ok = toFloat(rv)
			if !ok {
				return false
			}
		}
		if !holdsNumeric(lf, c.op, rf) {
			return false
		}
	}
	return true
}

func holdsBool(lhs bool, op string, rhs bool) bool {
	if op == "==" {
		return lhs == rhs
	}
	return lhs != rhs
}

func holdsNumeric(lhs float64, op string, rhs float64) bool {
	switch op {
	case "==":
		return lhs == rhs
	case "!=":
		return lhs != rhs
	case "<":
		return lhs < rhs
	case "<=":
		return lhs <= rhs
	case ">":
		return lhs > rhs
	case ">=":
		return lhs >= rhs
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// propagate narrows numeric intervals and bool domains to a fixpoint,
// reporting false when any domain becomes empty.
func propagate(doms map[string]*variable, constraints []constraint, deadline time.Time) bool {
	for changed := true; changed; {
		if time.Now().After(deadline) {
			return false
		}
		changed = false
		for _, c := range constraints {
			lhs := doms[c.lhs]
			if c.boolRHS {
				changed = narrowBoolLiteral(lhs, c.op, c.rhsBool) || changed
			} else if c.varRHS {
				changed = narrowVarPair(lhs, c.op, doms[c.rhsVar]) || changed
			} else {
				changed = narrowNumericLiteral(lhs, c.op, c.rhsNum) || changed
			}
		}
		for _, v := range doms {
			if empty(v) {
				return false
			}
		}
	}
	return true
}

func empty(v *variable) bool {
	if v.kind == KindBool {
		return !v.canTrue && !v.canFalse
	}
	if v.lo > v.hi {
		return true
	}
	return v.lo == v.hi && (v.loStrict || v.hiStrict)
}

func narrowBoolLiteral(v *variable, op string, lit bool) bool {
	want := lit
	if op == "!=" {
		want = !lit
	}
	changed := false
	if want && v.canFalse {
		v.canFalse = false
		changed = true
	}
	if !want && v.canTrue {
		v.canTrue = false
		changed = true
	}
	return changed
}

func narrowNumericLiteral(v *variable, op string, lit float64) bool {
	if v.kind == KindBool {
		return false
	}
	switch op {
	case "==":
		return tightenLo(v, lit, false) || tightenHi(v, lit, false)
	case "!=":
		if _, ok := v.excluded[lit]; !ok {
			v.excluded[lit] = struct{}{}
			return true
		}
		return false
	case "<":
		return tightenHi(v, lit, true)
	case "<=":
		return tightenHi(v, lit, false)
	case ">":
		return tightenLo(v, lit, true)
	case ">=":
		return tightenLo(v, lit, false)
	}
	return false
}

// narrowVarPair tightens both operands of "lhs op rhs" against each other.
func narrowVarPair(lhs *variable, op string, rhs *variable) bool {
	if lhs.kind == KindBool || rhs.kind == KindBool {
		// Bool pairs carry no interval information; the search phase
		// enforces them.
		return false
	}
	changed := false
	switch op {
	case "==":
		changed = tightenLo(lhs, rhs.lo, rhs.loStrict) || changed
		changed = tightenHi(lhs, rhs.hi, rhs.hiStrict) || changed
		changed = tightenLo(rhs, lhs.lo, lhs.loStrict) || changed
		changed = tightenHi(rhs, lhs.hi, lhs.hiStrict) || changed
	case "<":
		changed = tightenHi(lhs, rhs.hi, true) || changed
		changed = tightenLo(rhs, lhs.lo, true) || changed
	case "<=":
		changed = tightenHi(lhs, rhs.hi, rhs.hiStrict) || changed
		changed = tightenLo(rhs, lhs.lo, lhs.loStrict) || changed
	case ">":
		changed = tightenLo(lhs, rhs.lo, true) || changed
		changed = tightenHi(rhs, lhs.hi, true) || changed
	case ">=":
		changed = tightenLo(lhs, rhs.lo, rhs.loStrict) || changed
		changed = tightenHi(rhs, lhs.hi, lhs.hiStrict) || changed
	}
	// "!=" between variables is enforced by the search phase.
	return changed
}

func tightenLo(v *variable, lo float64, strict bool) bool {
	if v.kind == KindInt {
		if strict {
			lo = math.Floor(lo) + 1
		} else {
			lo = math.Ceil(lo)
		}
		strict = false
	}
	if lo > v.lo || (lo == v.lo && strict && !v.loStrict) {
		v.lo = lo
		v.loStrict = strict
		return true
	}
	return false
}

func tightenHi(v *variable, hi float64, strict bool) bool {
	if v.kind == KindInt {
		if strict {
			hi = math.Ceil(hi) - 1
		} else {
			hi = math.Floor(hi)
		}
		strict = false
	}
	if hi < v.hi || (hi == v.hi && strict && !v.hiStrict) {
		v.hi = hi
		v.hiStrict = strict
		return true
	}
	return false
}

// candidates enumerates trial values from a narrowed domain, smallest first
// for ints, interval landmarks for reals.
func candidates(v *variable) []any {
	if v.kind == KindBool {
		var out []any
		if v.canFalse {
			out = append(out, false)
		}
		if v.canTrue {
			out = append(out, true)
		}
		return out
	}

	lo, hi := v.lo, v.hi

	if v.kind == KindInt {
		if math.IsInf(lo, -1) {
			if math.IsInf(hi, 1) {
				lo = 0
			} else {
				lo = hi - maxCandidates + 1
			}
		}
		var out []any
		for x := lo; x <= hi && len(out) < maxCandidates; x++ {
			if _, skip := v.excluded[x]; skip {
				continue
			}
			out = append(out, int64(x))
		}
		return out
	}

	// Real: probe interval landmarks, nudging off open ends.
	if math.IsInf(lo, -1) {
		lo = math.Min(hi-1, 0)
	}
	if math.IsInf(hi, 1) {
		hi = math.Max(lo+1, 1)
	}
	probes := []float64{lo, (lo + hi) / 2, hi}
	if v.loStrict {
		probes[0] = lo + (hi-lo)/4
	}
	if v.hiStrict {
		probes[2] = hi - (hi-lo)/4
	}

	var out []any
	for _, p := range probes {
		if _, skip := v.excluded[p]; skip {
			p += (hi - lo) / 8
		}
		if _, skip := v.excluded[p]; skip {
			continue
		}
		dup := false
		for _, prev := range out {
			if prev.(float64) == p {
				dup = true
			}
		}
		if !dup {
			out = append(out, p)
		}
	}
	return out
}
