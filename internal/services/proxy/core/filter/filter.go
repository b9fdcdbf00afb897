// Package filter translates AIP-160 journal filters into SQL WHERE fragments.
//
// Filters compare one journal field against one literal and combine
// comparisons with AND, OR and NOT, for example
//
//	dispute_id = 7 AND topic = "RULING"
//	ts >= timestamp("2026-01-02T00:00:00Z") AND NOT actor_id = "ab..."
package filter

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/event"
	"go.einride.tech/aip/filtering"
	expr "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

// SQLCondition is a WHERE fragment with positional parameters.
type SQLCondition struct {
	Clause string
	Params []any
}

// field describes one filterable journal column.
type field struct {
	column string
	typ    *expr.Type
	// normalize checks and canonicalizes a literal compared to the field.
	normalize func(any) (any, error)
}

var fields = map[string]field{
	"dispute_id":  {column: "dispute_id", typ: filtering.TypeInt, normalize: nonNegative},
	"seq":         {column: "seq", typ: filtering.TypeInt, normalize: nonNegative},
	"topic":       {column: "topic", typ: filtering.TypeString, normalize: topicName},
	"type":        {column: "event_type", typ: filtering.TypeString, normalize: asIs},
	"actor_id":    {column: "actor_id", typ: filtering.TypeString, normalize: lowerCase},
	"entity_type": {column: "entity_type", typ: filtering.TypeString, normalize: asIs},
	"ts":          {column: "timestamp", typ: filtering.TypeTimestamp, normalize: asIs},
}

var comparisons = map[string]string{
	filtering.FunctionEquals:        "=",
	filtering.FunctionNotEquals:     "!=",
	filtering.FunctionLessThan:      "<",
	filtering.FunctionLessEquals:    "<=",
	filtering.FunctionGreaterThan:   ">",
	filtering.FunctionGreaterEquals: ">=",
}

var declarations = sync.OnceValues(func() (*filtering.Declarations, error) {
	opts := []filtering.DeclarationOption{filtering.DeclareStandardFunctions()}
	for name, f := range fields {
		opts = append(opts, filtering.DeclareIdent(name, f.typ))
	}
	return filtering.NewDeclarations(opts...)
})

// ParseEventFilter checks raw against the journal fields and translates it.
// A blank filter yields an empty condition.
func ParseEventFilter(raw string) (SQLCondition, error) {
	if strings.TrimSpace(raw) == "" {
		return SQLCondition{}, nil
	}
	decls, err := declarations()
	if err != nil {
		return SQLCondition{}, fmt.Errorf("declare journal fields: %w", err)
	}
	parsed, err := filtering.ParseFilterString(raw, decls)
	if err != nil {
		return SQLCondition{}, fmt.Errorf("parse filter: %w", err)
	}
	var tr translator
	if err := tr.write(parsed.CheckedExpr.GetExpr()); err != nil {
		return SQLCondition{}, err
	}
	return SQLCondition{Clause: tr.clause.String(), Params: tr.params}, nil
}

type translator struct {
	clause strings.Builder
	params []any
}

func (tr *translator) write(e *expr.Expr) error {
	call := e.GetCallExpr()
	if call == nil {
		return fmt.Errorf("filter must be a comparison, got %T", e.GetExprKind())
	}
	args := call.GetArgs()
	switch fn := call.GetFunction(); fn {
	case filtering.FunctionAnd, filtering.FunctionOr:
		if len(args) != 2 {
			return fmt.Errorf("%s needs two operands", fn)
		}
		tr.clause.WriteByte('(')
		if err := tr.write(args[0]); err != nil {
			return err
		}
		tr.clause.WriteString(" " + fn + " ")
		if err := tr.write(args[1]); err != nil {
			return err
		}
		tr.clause.WriteByte(')')
		return nil
	case filtering.FunctionNot:
		if len(args) != 1 {
			return errors.New("NOT needs one operand")
		}
		tr.clause.WriteString("(NOT ")
		if err := tr.write(args[0]); err != nil {
			return err
		}
		tr.clause.WriteByte(')')
		return nil
	default:
		op, ok := comparisons[fn]
		if !ok {
			return fmt.Errorf("unsupported function %s", fn)
		}
		return tr.compare(op, args)
	}
}

func (tr *translator) compare(op string, args []*expr.Expr) error {
	if len(args) != 2 {
		return fmt.Errorf("%s needs a field and a value", op)
	}
	ident := args[0].GetIdentExpr()
	if ident == nil {
		return errors.New("left side of a comparison must be a field")
	}
	f, ok := fields[ident.GetName()]
	if !ok {
		return fmt.Errorf("unknown field %s", ident.GetName())
	}
	value, err := literal(args[1])
	if err != nil {
		return fmt.Errorf("%s: %w", ident.GetName(), err)
	}
	if value, err = f.normalize(value); err != nil {
		return fmt.Errorf("%s: %w", ident.GetName(), err)
	}
	tr.clause.WriteString(f.column + " " + op + " ?")
	tr.params = append(tr.params, value)
	return nil
}

// literal reads a constant or a timestamp("...") call. Timestamps become
// unix milliseconds, the journal's storage unit.
func literal(e *expr.Expr) (any, error) {
	if call := e.GetCallExpr(); call != nil {
		if call.GetFunction() != filtering.FunctionTimestamp || len(call.GetArgs()) != 1 {
			return nil, fmt.Errorf("unsupported value function %s", call.GetFunction())
		}
		raw := call.GetArgs()[0].GetConstExpr().GetStringValue()
		ts, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, fmt.Errorf("invalid timestamp %q", raw)
		}
		return ts.UTC().UnixMilli(), nil
	}
	c := e.GetConstExpr()
	if c == nil {
		return nil, errors.New("value must be a literal")
	}
	switch v := c.GetConstantKind().(type) {
	case *expr.Constant_StringValue:
		return v.StringValue, nil
	case *expr.Constant_Int64Value:
		return v.Int64Value, nil
	case *expr.Constant_Uint64Value:
		return v.Uint64Value, nil
	case *expr.Constant_BoolValue:
		return v.BoolValue, nil
	default:
		return nil, fmt.Errorf("unsupported literal %T", v)
	}
}

func asIs(v any) (any, error) { return v, nil }

func nonNegative(v any) (any, error) {
	if n, ok := v.(int64); ok && n < 0 {
		return nil, errors.New("must not be negative")
	}
	return v, nil
}

func topicName(v any) (any, error) {
	s, _ := v.(string)
	topic := event.Topic(strings.ToUpper(strings.TrimSpace(s)))
	if !topic.Valid() {
		return nil, fmt.Errorf("unknown topic %q", s)
	}
	return string(topic), nil
}

func lowerCase(v any) (any, error) {
	s, _ := v.(string)
	return strings.ToLower(strings.TrimSpace(s)), nil
}
