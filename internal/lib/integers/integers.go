// Package integers provides arbitrary precision integer relations and
// functions. Relations decide from whatever arguments are bound; plus and
// times are invertible.
package integers

import (
	"math/big"

	"github.com/roach88/tabled/internal/logic"
)

var (
	ints2 = []*logic.Type{logic.Integer, logic.Integer}
	ints3 = []*logic.Type{logic.Integer, logic.Integer, logic.Integer}
)

// Relations.
var (
	Plus  = logic.NewRelation("plus", ints3, logic.WithNative(decidePlus))
	Times = logic.NewRelation("times", ints3, logic.WithNative(decideTimes))
	Sqrt  = logic.NewRelation("sqrt", ints2, logic.WithNative(decideSqrt))
	Lt    = logic.NewRelation("lt", ints2, logic.WithNative(comparison(func(c int) bool { return c < 0 })))
	Le    = logic.NewRelation("le", ints2, logic.WithNative(comparison(func(c int) bool { return c <= 0 })))
	Gt    = logic.NewRelation("gt", ints2, logic.WithNative(comparison(func(c int) bool { return c > 0 })))
	Ge    = logic.NewRelation("ge", ints2, logic.WithNative(comparison(func(c int) bool { return c >= 0 })))
)

// Functions, evaluated by logic.Is.
var (
	Add = logic.NewFunction("add", logic.Integer, ints2, binary(func(z, x, y *big.Int) bool { z.Add(x, y); return true }))
	Sub = logic.NewFunction("sub", logic.Integer, ints2, binary(func(z, x, y *big.Int) bool { z.Sub(x, y); return true }))
	Mul = logic.NewFunction("mul", logic.Integer, ints2, binary(func(z, x, y *big.Int) bool { z.Mul(x, y); return true }))
	Div = logic.NewFunction("div", logic.Integer, ints2, binary(func(z, x, y *big.Int) bool {
		if y.Sign() == 0 {
			return false
		}
		z.Quo(x, y)
		return true
	}))
)

func binary(op func(z, x, y *big.Int) bool) logic.ComputeFunc {
	return func(args []logic.Arg) (logic.Arg, bool) {
		x, xok := value(args[0])
		y, yok := value(args[1])
		if !xok || !yok {
			return nil, false
		}
		z := new(big.Int)
		if !op(z, x, y) {
			return nil, false
		}
		return logic.NewBigInt(z), true
	}
}

func value(a logic.Arg) (*big.Int, bool) {
	i, ok := a.(logic.Int)
	if !ok {
		return nil, false
	}
	return i.Value(), true
}

func ints(call *logic.Term) []*big.Int {
	out := make([]*big.Int, call.Len())
	for i := range out {
		out[i], _ = value(call.Arg(i))
	}
	return out
}

func instance(call *logic.Term, vals ...*big.Int) *logic.Term {
	args := make([]logic.Arg, len(vals))
	for i, v := range vals {
		args[i] = logic.NewBigInt(v)
	}
	return logic.New(call.Functor(), args...)
}

func decidePlus(call *logic.Term) logic.Result {
	v := ints(call)
	x, y, z := v[0], v[1], v[2]
	switch {
	case x != nil && y != nil:
		return logic.Solved(call, false, instance(call, x, y, new(big.Int).Add(x, y)))
	case x != nil && z != nil:
		return logic.Solved(call, false, instance(call, x, new(big.Int).Sub(z, x), z))
	case y != nil && z != nil:
		return logic.Solved(call, false, instance(call, new(big.Int).Sub(z, y), y, z))
	}
	return logic.Unknown(call)
}

func decideTimes(call *logic.Term) logic.Result {
	v := ints(call)
	x, y, z := v[0], v[1], v[2]
	switch {
	case x != nil && y != nil:
		return logic.Solved(call, false, instance(call, x, y, new(big.Int).Mul(x, y)))
	case x != nil && z != nil:
		return divide(call, z, x, func(q *big.Int) *logic.Term { return instance(call, x, q, z) })
	case y != nil && z != nil:
		return divide(call, z, y, func(q *big.Int) *logic.Term { return instance(call, q, y, z) })
	}
	return logic.Unknown(call)
}

// divide solves n = d * ? for the open factor.
func divide(call *logic.Term, n, d *big.Int, inst func(*big.Int) *logic.Term) logic.Result {
	if d.Sign() == 0 {
		if n.Sign() == 0 {
			// 0 * ? = 0 holds for every value.
			return logic.Solved(call, false, call)
		}
		return logic.False(call)
	}
	q, r := new(big.Int).QuoRem(n, d, new(big.Int))
	if r.Sign() != 0 {
		return logic.False(call)
	}
	return logic.Solved(call, false, inst(q))
}

func decideSqrt(call *logic.Term) logic.Result {
	v := ints(call)
	x, r := v[0], v[1]
	if x == nil {
		if r == nil {
			return logic.Unknown(call)
		}
		return logic.Solved(call, false, instance(call, new(big.Int).Mul(r, r), r))
	}
	if x.Sign() < 0 {
		return logic.False(call)
	}
	s := new(big.Int).Sqrt(x)
	if new(big.Int).Mul(s, s).Cmp(x) != 0 {
		return logic.False(call)
	}
	return logic.Solved(call, false, instance(call, x, s), instance(call, x, new(big.Int).Neg(s)))
}

func comparison(holds func(int) bool) logic.NativeFunc {
	return func(call *logic.Term) logic.Result {
		v := ints(call)
		if v[0] == nil || v[1] == nil {
			return logic.Unknown(call)
		}
		if holds(v[0].Cmp(v[1])) {
			return logic.True(call)
		}
		return logic.False(call)
	}
}
