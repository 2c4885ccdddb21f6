package label

import (
	"fmt"
	"go/ast"
	"go/token"
	"math"
	"strconv"

	"github.com/san-kum/atomscene/internal/atoms"
	"github.com/san-kum/atomscene/internal/errs"
	"gonum.org/v1/gonum/spatial/r3"
)

// Expressions use Go syntax restricted to literals, names from the
// [Scope], arithmetic, comparison and logic operators, vector indexing
// (v[0], v.x) and the functions below. There is no assignment, no access to
// anything outside the scope and no way to loop.
var funcs = map[string]func(args []any) (any, error){
	"abs":   math1(math.Abs),
	"sqrt":  math1(math.Sqrt),
	"floor": math1(math.Floor),
	"ceil":  math1(math.Ceil),
	"round": math1(math.Round),
	"min": func(args []any) (any, error) {
		return fold(args, math.Min)
	},
	"max": func(args []any) (any, error) {
		return fold(args, math.Max)
	},
	"norm": func(args []any) (any, error) {
		if len(args) != 1 {
			return nil, exprErr("norm takes 1 argument")
		}
		v, ok := args[0].(r3.Vec)
		if !ok {
			return nil, exprErr("norm needs a vector")
		}
		return r3.Norm(v), nil
	},
	"len": func(args []any) (any, error) {
		if len(args) != 1 {
			return nil, exprErr("len takes 1 argument")
		}
		s, ok := args[0].(string)
		if !ok {
			return nil, exprErr("len needs a string")
		}
		return float64(len(s)), nil
	},
	"format": func(args []any) (any, error) {
		if len(args) < 1 {
			return nil, exprErr("format needs a format string")
		}
		f, ok := args[0].(string)
		if !ok {
			return nil, exprErr("format needs a format string")
		}
		return fmt.Sprintf(f, args[1:]...), nil
	},
}

func exprErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errs.ErrExpression, fmt.Sprintf(format, args...))
}

func math1(f func(float64) float64) func([]any) (any, error) {
	return func(args []any) (any, error) {
		if len(args) != 1 {
			return nil, exprErr("expected 1 argument, got %d", len(args))
		}
		x, ok := args[0].(float64)
		if !ok {
			return nil, exprErr("expected a number, got %s", typeName(args[0]))
		}
		return f(x), nil
	}
}

func fold(args []any, f func(a, b float64) float64) (any, error) {
	if len(args) == 0 {
		return nil, exprErr("expected at least 1 argument")
	}
	acc := math.NaN()
	for i, a := range args {
		x, ok := a.(float64)
		if !ok {
			return nil, exprErr("argument %d is a %s, not a number", i+1, typeName(a))
		}
		if i == 0 {
			acc = x
		} else {
			acc = f(acc, x)
		}
	}
	return acc, nil
}

// check rejects syntax outside the supported subset before evaluation.
func check(e ast.Expr) error {
	var err error
	ast.Inspect(e, func(n ast.Node) bool {
		if err != nil || n == nil {
			return false
		}
		switch n := n.(type) {
		case *ast.BasicLit, *ast.Ident, *ast.ParenExpr, *ast.UnaryExpr, *ast.BinaryExpr, *ast.IndexExpr:
		case *ast.SelectorExpr:
			switch n.Sel.Name {
			case "x", "y", "z":
			default:
				err = exprErr("unknown component .%s", n.Sel.Name)
			}
		case *ast.CallExpr:
			id, ok := n.Fun.(*ast.Ident)
			if !ok || funcs[id.Name] == nil {
				err = exprErr("call of %s is not allowed", render(n.Fun))
			}
			if n.Ellipsis != token.NoPos {
				err = exprErr("variadic calls are not allowed")
			}
		default:
			err = exprErr("%T is not allowed in expressions", n)
		}
		return err == nil
	})
	return err
}

func render(e ast.Expr) string {
	if id, ok := e.(*ast.Ident); ok {
		return id.Name
	}
	return fmt.Sprintf("%T", e)
}

// Eval compiles and evaluates a single expression in s.
func Eval(src string, s Scope) (string, error) {
	e, err := parseExpr(src)
	if err != nil {
		return "", err
	}
	v, err := eval(e, s)
	if err != nil {
		return "", err
	}
	return format(v), nil
}

// Predicate is a compiled boolean expression, such as an atom selection.
type Predicate struct {
	src  string
	expr ast.Expr
}

func CompilePredicate(src string) (*Predicate, error) {
	e, err := parseExpr(src)
	if err != nil {
		return nil, err
	}
	return &Predicate{src: src, expr: e}, nil
}

// Match evaluates p in s. A result other than a bool is an error.
func (p *Predicate) Match(s Scope) (bool, error) {
	v, err := eval(p.expr, s)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, exprErr("%q gives a %s, not a bool", p.src, typeName(v))
	}
	return b, nil
}

func eval(e ast.Expr, s Scope) (any, error) {
	switch n := e.(type) {
	case *ast.BasicLit:
		switch n.Kind {
		case token.INT, token.FLOAT:
			f, err := strconv.ParseFloat(n.Value, 64)
			if err != nil {
				return nil, exprErr("bad number %s", n.Value)
			}
			return f, nil
		case token.STRING:
			str, err := strconv.Unquote(n.Value)
			if err != nil {
				return nil, exprErr("bad string %s", n.Value)
			}
			return str, nil
		}
		return nil, exprErr("unsupported literal %s", n.Value)
	case *ast.Ident:
		switch n.Name {
		case "true":
			return true, nil
		case "false":
			return false, nil
		case "pi":
			return math.Pi, nil
		}
		v, err := s.lookup(n.Name, true)
		if err != nil {
			return nil, err
		}
		return fromValue(v), nil
	case *ast.ParenExpr:
		return eval(n.X, s)
	case *ast.UnaryExpr:
		return evalUnary(n, s)
	case *ast.BinaryExpr:
		return evalBinary(n, s)
	case *ast.IndexExpr:
		x, err := eval(n.X, s)
		if err != nil {
			return nil, err
		}
		idx, err := eval(n.Index, s)
		if err != nil {
			return nil, err
		}
		v, ok := x.(r3.Vec)
		f, fok := idx.(float64)
		if !ok || !fok || f != math.Trunc(f) || f < 0 || f > 2 {
			return nil, exprErr("only vectors can be indexed, with 0, 1 or 2")
		}
		return atoms.Component(v, int(f)), nil
	case *ast.SelectorExpr:
		x, err := eval(n.X, s)
		if err != nil {
			return nil, err
		}
		v, ok := x.(r3.Vec)
		if !ok {
			return nil, exprErr(".%s of a %s", n.Sel.Name, typeName(x))
		}
		return atoms.Component(v, int(n.Sel.Name[0]-'x')), nil
	case *ast.CallExpr:
		fn := funcs[n.Fun.(*ast.Ident).Name]
		args := make([]any, len(n.Args))
		for i, a := range n.Args {
			v, err := eval(a, s)
			if err != nil {
				return nil, err
			}
			args[i] = v
		}
		return fn(args)
	}
	return nil, exprErr("%T is not allowed in expressions", e)
}

func evalUnary(n *ast.UnaryExpr, s Scope) (any, error) {
	x, err := eval(n.X, s)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case token.SUB:
		switch v := x.(type) {
		case float64:
			return -v, nil
		case r3.Vec:
			return r3.Scale(-1, v), nil
		}
	case token.ADD:
		if v, ok := x.(float64); ok {
			return v, nil
		}
	case token.NOT:
		if v, ok := x.(bool); ok {
			return !v, nil
		}
	}
	return nil, exprErr("operator %s does not apply to a %s", n.Op, typeName(x))
}

func evalBinary(n *ast.BinaryExpr, s Scope) (any, error) {
	x, err := eval(n.X, s)
	if err != nil {
		return nil, err
	}
	if n.Op == token.LAND || n.Op == token.LOR {
		b, ok := x.(bool)
		if !ok {
			return nil, exprErr("operator %s needs booleans", n.Op)
		}
		if (n.Op == token.LAND && !b) || (n.Op == token.LOR && b) {
			return b, nil
		}
		y, err := eval(n.Y, s)
		if err != nil {
			return nil, err
		}
		if yb, ok := y.(bool); ok {
			return yb, nil
		}
		return nil, exprErr("operator %s needs booleans", n.Op)
	}

	y, err := eval(n.Y, s)
	if err != nil {
		return nil, err
	}
	switch a := x.(type) {
	case float64:
		if b, ok := y.(float64); ok {
			return numeric(n.Op, a, b)
		}
		if b, ok := y.(r3.Vec); ok && n.Op == token.MUL {
			return r3.Scale(a, b), nil
		}
	case string:
		if b, ok := y.(string); ok {
			switch n.Op {
			case token.ADD:
				return a + b, nil
			case token.EQL:
				return a == b, nil
			case token.NEQ:
				return a != b, nil
			case token.LSS:
				return a < b, nil
			case token.GTR:
				return a > b, nil
			}
		}
	case r3.Vec:
		if b, ok := y.(r3.Vec); ok {
			switch n.Op {
			case token.ADD:
				return r3.Add(a, b), nil
			case token.SUB:
				return r3.Sub(a, b), nil
			case token.EQL:
				return a == b, nil
			case token.NEQ:
				return a != b, nil
			}
		}
		if b, ok := y.(float64); ok {
			switch n.Op {
			case token.MUL:
				return r3.Scale(b, a), nil
			case token.QUO:
				return r3.Scale(1/b, a), nil
			}
		}
	case bool:
		if b, ok := y.(bool); ok {
			switch n.Op {
			case token.EQL:
				return a == b, nil
			case token.NEQ:
				return a != b, nil
			}
		}
	}
	return nil, exprErr("operator %s does not apply to %s and %s", n.Op, typeName(x), typeName(y))
}

func numeric(op token.Token, a, b float64) (any, error) {
	switch op {
	case token.ADD:
		return a + b, nil
	case token.SUB:
		return a - b, nil
	case token.MUL:
		return a * b, nil
	case token.QUO:
		return a / b, nil
	case token.REM:
		return math.Mod(a, b), nil
	case token.EQL:
		return a == b, nil
	case token.NEQ:
		return a != b, nil
	case token.LSS:
		return a < b, nil
	case token.LEQ:
		return a <= b, nil
	case token.GTR:
		return a > b, nil
	case token.GEQ:
		return a >= b, nil
	}
	return nil, exprErr("operator %s does not apply to numbers", op)
}

func fromValue(v atoms.Value) any {
	switch v.Kind {
	case atoms.KindScalar:
		return v.Scalar
	case atoms.KindVector:
		return v.Vector
	default:
		return v.Str
	}
}

func typeName(v any) string {
	switch v.(type) {
	case float64:
		return "number"
	case string:
		return "string"
	case bool:
		return "bool"
	case r3.Vec:
		return "vector"
	}
	return fmt.Sprintf("%T", v)
}

func format(v any) string {
	switch x := v.(type) {
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case r3.Vec:
		return atoms.Vector(x).String()
	case string:
		return x
	}
	return fmt.Sprint(v)
}
