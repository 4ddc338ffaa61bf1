package types

import (
	"fmt"

	"github.com/samber/lo"
	"gorm.io/gorm/clause"
)

type CommonFilterOperator string

const (
	CommonFilterOperatorEq    CommonFilterOperator = "eq"
	CommonFilterOperatorNotEq CommonFilterOperator = "not_eq"
	CommonFilterOperatorLt    CommonFilterOperator = "lt"
	CommonFilterOperatorLte   CommonFilterOperator = "lte"
	CommonFilterOperatorGt    CommonFilterOperator = "gt"
	CommonFilterOperatorGte   CommonFilterOperator = "gte"
	CommonFilterOperatorRange CommonFilterOperator = "range"
	CommonFilterOperatorIn    CommonFilterOperator = "in"
)

var commonFilterOperators = []CommonFilterOperator{
	CommonFilterOperatorEq,
	CommonFilterOperatorNotEq,
	CommonFilterOperatorLt,
	CommonFilterOperatorLte,
	CommonFilterOperatorGt,
	CommonFilterOperatorGte,
	CommonFilterOperatorRange,
	CommonFilterOperatorIn,
}

// CommonFilter is a single column condition used by admin listing endpoints.
type CommonFilter struct {
	Field    string               `json:"field"`
	Operator CommonFilterOperator `json:"operator"`
	Values   []any                `json:"values"`
}

// Validate rejects filters on columns outside allowed, unknown operators and
// empty value lists. Field names end up in SQL, so callers must validate.
func (f *CommonFilter) Validate(allowed []string) error {
	if !lo.Contains(allowed, f.Field) {
		return fmt.Errorf("filter on field %q is not allowed", f.Field)
	}
	if !lo.Contains(commonFilterOperators, f.Operator) {
		return fmt.Errorf("unsupported filter operator %q", f.Operator)
	}
	if len(f.Values) == 0 {
		return fmt.Errorf("filter on field %q has no values", f.Field)
	}
	if f.Operator == CommonFilterOperatorRange && len(f.Values) < 2 {
		return fmt.Errorf("range filter on field %q needs two values", f.Field)
	}
	return nil
}

// Build constructs a GORM expression.
func (f *CommonFilter) Build(builder clause.Builder) {
	if len(f.Values) == 0 {
		return
	}

	value := f.Values[0]

	switch f.Operator {
	case CommonFilterOperatorEq:
		clause.Eq{Column: f.Field, Value: value}.Build(builder)
	case CommonFilterOperatorNotEq:
		clause.Neq{Column: f.Field, Value: value}.Build(builder)
	case CommonFilterOperatorLt:
		clause.Lt{Column: f.Field, Value: value}.Build(builder)
	case CommonFilterOperatorLte:
		clause.Lte{Column: f.Field, Value: value}.Build(builder)
	case CommonFilterOperatorGt:
		clause.Gt{Column: f.Field, Value: value}.Build(builder)
	case CommonFilterOperatorGte:
		clause.Gte{Column: f.Field, Value: value}.Build(builder)
	case CommonFilterOperatorRange:
		if len(f.Values) < 2 {
			return
		}
		clause.And(clause.Gte{Column: f.Field, Value: f.Values[0]}, clause.Lte{Column: f.Field, Value: f.Values[1]}).Build(builder)
	case CommonFilterOperatorIn:
		clause.IN{Column: f.Field, Values: f.Values}.Build(builder)
	default:
		return
	}
}

// FiltersAnd combines filters into a single clause.Expression.
type FiltersAnd []*CommonFilter

func (w FiltersAnd) Build(builder clause.Builder) {
	if len(w) == 0 {
		builder.WriteString("1=1")
		return
	}
	exprs := make([]clause.Expression, 0, len(w))
	for _, f := range w {
		exprs = append(exprs, f)
	}
	clause.And(exprs...).Build(builder)
}
