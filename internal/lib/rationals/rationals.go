// Package rationals provides exact fractions. Every rational term is kept
// in lowest terms with a positive denominator, so equal values share one
// key.
package rationals

import (
	"math/big"

	"github.com/roach88/tabled/internal/logic"
)

// Rational is the type of ratio terms.
var Rational = logic.NewType("Rational")

var (
	// Ratio is the rational constructor ratio(numerator, denominator).
	Ratio *logic.Functor
	// Plus relates two rationals and their sum.
	Plus = logic.NewRelation("rplus", []*logic.Type{Rational, Rational, Rational}, logic.WithNative(decidePlus))
	// Sum is the addition function.
	Sum = logic.NewFunction("rsum", Rational, []*logic.Type{Rational, Rational}, computeSum)
)

// Ratio normalizes through lowestTerms, which recognizes ratio terms by
// their functor, so it is assigned here rather than in its declaration.
func init() {
	Ratio = logic.NewConstructor("ratio", Rational, []*logic.Type{logic.Integer, logic.Integer},
		logic.WithNormalize(lowestTerms))
}

// Of builds the rational n/d.
func Of(n, d int64) *logic.Term { return Ratio.Of(n, d) }

func lowestTerms(t *logic.Term) *logic.Term {
	n, d, ok := parts(t)
	if !ok || d.Sign() == 0 {
		return t
	}
	g := new(big.Int).GCD(nil, nil, new(big.Int).Abs(n), new(big.Int).Abs(d))
	if g.Sign() == 0 {
		g.SetInt64(1)
	}
	if d.Sign() < 0 {
		g.Neg(g)
	}
	if g.Cmp(big.NewInt(1)) == 0 {
		return t
	}
	return logic.Make(t.Functor(), logic.NewBigInt(new(big.Int).Quo(n, g)), logic.NewBigInt(new(big.Int).Quo(d, g)))
}

func parts(a logic.Arg) (n, d *big.Int, ok bool) {
	t, isTerm := a.(*logic.Term)
	if !isTerm || t.Functor() != Ratio {
		return nil, nil, false
	}
	ni, nok := t.Arg(0).(logic.Int)
	di, dok := t.Arg(1).(logic.Int)
	if !nok || !dok {
		return nil, nil, false
	}
	return ni.Value(), di.Value(), true
}

func rat(a logic.Arg) (*big.Rat, bool) {
	n, d, ok := parts(a)
	if !ok || d.Sign() == 0 {
		return nil, false
	}
	return new(big.Rat).SetFrac(n, d), true
}

func term(r *big.Rat) *logic.Term {
	return logic.New(Ratio, logic.NewBigInt(r.Num()), logic.NewBigInt(r.Denom()))
}

func computeSum(args []logic.Arg) (logic.Arg, bool) {
	x, xok := rat(args[0])
	y, yok := rat(args[1])
	if !xok || !yok {
		return nil, false
	}
	return term(new(big.Rat).Add(x, y)), true
}

func decidePlus(call *logic.Term) logic.Result {
	x, xok := rat(call.Arg(0))
	y, yok := rat(call.Arg(1))
	z, zok := rat(call.Arg(2))
	f := call.Functor()
	switch {
	case xok && yok:
		return logic.Solved(call, false, logic.New(f, call.Arg(0), call.Arg(1), term(new(big.Rat).Add(x, y))))
	case xok && zok:
		return logic.Solved(call, false, logic.New(f, call.Arg(0), term(new(big.Rat).Sub(z, x)), call.Arg(2)))
	case yok && zok:
		return logic.Solved(call, false, logic.New(f, term(new(big.Rat).Sub(z, y)), call.Arg(1), call.Arg(2)))
	}
	if bad(call.Arg(0)) || bad(call.Arg(1)) || bad(call.Arg(2)) {
		return logic.False(call)
	}
	return logic.Unknown(call)
}

// bad reports a bound argument with a zero denominator.
func bad(a logic.Arg) bool {
	if logic.IsUnbound(a) {
		return false
	}
	_, ok := rat(a)
	return !ok
}
