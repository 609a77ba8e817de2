package queryir

import (
	"fmt"

	"github.com/roach88/shopq/internal/schema"
)

// InferKind returns the semantic type of e evaluated against rows of table.
func InferKind(s *schema.Schema, table string, e Expr) (schema.Kind, error) {
	switch x := NormalizeExpr(e).(type) {
	case nil:
		return 0, fmt.Errorf("nil expression")
	case Col:
		p, err := s.Resolve(table, x.Ref)
		if err != nil {
			return 0, err
		}
		return p.Column.Kind, nil
	case Lit:
		if x.Value == nil {
			return 0, fmt.Errorf("literal without value")
		}
		return x.Value.Kind(), nil
	case Arith:
		return arithKind(s, table, x)
	case Greatest:
		l, err := InferKind(s, table, x.Left)
		if err != nil {
			return 0, err
		}
		r, err := InferKind(s, table, x.Right)
		if err != nil {
			return 0, err
		}
		if l != r {
			return 0, fmt.Errorf("greatest of %s and %s", l, r)
		}
		return l, nil
	case Agg:
		return aggKind(s, table, x)
	case JSONNumber:
		p, err := s.Resolve(table, x.Ref)
		if err != nil {
			return 0, err
		}
		if p.Column.Kind != schema.KindJSON {
			return 0, fmt.Errorf("%s is %s, not json", x.Ref, p.Column.Kind)
		}
		return schema.KindFloat, nil
	case Subquery:
		rel, err := s.ResolveRelation(table, x.Relation)
		if err != nil {
			return 0, err
		}
		return InferKind(s, rel.To, x.Value)
	case Exceeds:
		return schema.KindBool, nil
	case Rank:
		return schema.KindInt, nil
	case OutputRef:
		return 0, fmt.Errorf("output reference %q has no kind outside ORDER BY", x.Name)
	default:
		return 0, fmt.Errorf("unsupported expression type: %T", e)
	}
}

func isNumeric(k schema.Kind) bool {
	return k == schema.KindInt || k == schema.KindMoney || k == schema.KindFloat
}

func arithKind(s *schema.Schema, table string, a Arith) (schema.Kind, error) {
	l, err := InferKind(s, table, a.Left)
	if err != nil {
		return 0, err
	}
	r, err := InferKind(s, table, a.Right)
	if err != nil {
		return 0, err
	}
	if !isNumeric(l) || !isNumeric(r) {
		return 0, fmt.Errorf("arithmetic on %s %s %s", l, a.Op, r)
	}

	switch a.Op {
	case Mul:
		switch {
		case l == schema.KindMoney && r == schema.KindMoney:
			return 0, fmt.Errorf("money * money is not a money amount")
		case l == schema.KindMoney || r == schema.KindMoney:
			if l == schema.KindFloat || r == schema.KindFloat {
				return 0, fmt.Errorf("money * float loses precision")
			}
			return schema.KindMoney, nil
		case l == schema.KindFloat || r == schema.KindFloat:
			return schema.KindFloat, nil
		default:
			return schema.KindInt, nil
		}
	case Add, Sub:
		if l != r {
			return 0, fmt.Errorf("%s %s %s mixes kinds", l, a.Op, r)
		}
		return l, nil
	default:
		return 0, fmt.Errorf("unknown arithmetic operator %q", a.Op)
	}
}

func aggKind(s *schema.Schema, table string, a Agg) (schema.Kind, error) {
	if a.Func == AggCount {
		return schema.KindInt, nil
	}
	if a.Arg == nil {
		return 0, fmt.Errorf("%s needs an argument", a.Func)
	}
	k, err := InferKind(s, table, a.Arg)
	if err != nil {
		return 0, err
	}

	switch a.Func {
	case AggSum:
		if !isNumeric(k) {
			return 0, fmt.Errorf("SUM over %s", k)
		}
		return k, nil
	case AggAvg:
		if !isNumeric(k) {
			return 0, fmt.Errorf("AVG over %s", k)
		}
		if k == schema.KindInt {
			return schema.KindFloat, nil
		}
		return k, nil
	case AggMax, AggMin:
		switch k {
		case schema.KindJSON, schema.KindTextList, schema.KindBool:
			return 0, fmt.Errorf("%s over %s", a.Func, k)
		}
		return k, nil
	default:
		return 0, fmt.Errorf("unknown aggregate %q", a.Func)
	}
}
