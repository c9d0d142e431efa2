// Licensed to the Apache Software Foundation (ASF) under one
// or more contributor license agreements.  See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership.  The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License.  You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package iceberg

import "fmt"

type BooleanExprVisitor[T any] interface {
	VisitTrue() T
	VisitFalse() T
	VisitNot(childResult T) T
	VisitAnd(left, right T) T
	VisitOr(left, right T) T
	VisitUnbound(UnboundPredicate) T
	VisitBound(BoundPredicate) T
}

// VisitExpr walks the expression tree bottom-up. Visitors signal failure
// by panicking with an error, which is recovered and returned here.
func VisitExpr[T any](expr BooleanExpression, visitor BooleanExprVisitor[T]) (res T, err error) {
	defer func() {
		if r := recover(); r != nil {
			switch e := r.(type) {
			case string:
				err = fmt.Errorf("error encountered during visitExpr: %s", e)
			case error:
				err = e
			default:
				panic(r)
			}
		}
	}()

	return visitBoolExpr(expr, visitor), err
}

func visitBoolExpr[T any](e BooleanExpression, visitor BooleanExprVisitor[T]) T {
	switch e := e.(type) {
	case AlwaysFalse:
		return visitor.VisitFalse()
	case AlwaysTrue:
		return visitor.VisitTrue()
	case AndExpr:
		left, right := visitBoolExpr(e.left, visitor), visitBoolExpr(e.right, visitor)

		return visitor.VisitAnd(left, right)
	case OrExpr:
		left, right := visitBoolExpr(e.left, visitor), visitBoolExpr(e.right, visitor)

		return visitor.VisitOr(left, right)
	case NotExpr:
		child := visitBoolExpr(e.child, visitor)

		return visitor.VisitNot(child)
	case UnboundPredicate:
		return visitor.VisitUnbound(e)
	case BoundPredicate:
		return visitor.VisitBound(e)
	}
	panic(fmt.Errorf("%w: VisitBooleanExpression type %s", ErrNotImplemented, e))
}

// BindExpr recursively binds each portion of an expression using the
// provided schema. Because the expression can end up being simplified
// to just AlwaysTrue/AlwaysFalse, this returns a BooleanExpression.
func BindExpr(s *Schema, expr BooleanExpression, caseSensitive bool) (BooleanExpression, error) {
	return VisitExpr(expr, &bindVisitor{schema: s, caseSensitive: caseSensitive})
}

type bindVisitor struct {
	schema        *Schema
	caseSensitive bool
}

func (*bindVisitor) VisitTrue() BooleanExpression  { return AlwaysTrue{} }
func (*bindVisitor) VisitFalse() BooleanExpression { return AlwaysFalse{} }
func (*bindVisitor) VisitNot(child BooleanExpression) BooleanExpression {
	return NewNot(child)
}

func (*bindVisitor) VisitAnd(left, right BooleanExpression) BooleanExpression {
	return NewAnd(left, right)
}

func (*bindVisitor) VisitOr(left, right BooleanExpression) BooleanExpression {
	return NewOr(left, right)
}

func (b *bindVisitor) VisitUnbound(pred UnboundPredicate) BooleanExpression {
	expr, err := pred.Bind(b.schema, b.caseSensitive)
	if err != nil {
		panic(err)
	}

	return expr
}

func (*bindVisitor) VisitBound(pred BoundPredicate) BooleanExpression {
	panic(fmt.Errorf("%w: found already bound predicate: %s", ErrInvalidArgument, pred))
}

// RewriteNotExpr pushes every Not in the expression down to the
// predicates by negating them.
func RewriteNotExpr(expr BooleanExpression) (BooleanExpression, error) {
	return VisitExpr(expr, rewriteNotVisitor{})
}

type rewriteNotVisitor struct{}

func (rewriteNotVisitor) VisitTrue() BooleanExpression  { return AlwaysTrue{} }
func (rewriteNotVisitor) VisitFalse() BooleanExpression { return AlwaysFalse{} }
func (rewriteNotVisitor) VisitNot(child BooleanExpression) BooleanExpression {
	return child.Negate()
}

func (rewriteNotVisitor) VisitAnd(left, right BooleanExpression) BooleanExpression {
	return NewAnd(left, right)
}

func (rewriteNotVisitor) VisitOr(left, right BooleanExpression) BooleanExpression {
	return NewOr(left, right)
}

func (rewriteNotVisitor) VisitUnbound(pred UnboundPredicate) BooleanExpression {
	return pred
}

func (rewriteNotVisitor) VisitBound(pred BoundPredicate) BooleanExpression {
	return pred
}

// Row is a single row of values keyed by field id. A missing key or a
// nil value is a null.
type Row map[int]any

// ExpressionEvaluator returns a function which evaluates the bound
// expression against individual rows.
func ExpressionEvaluator(bound BooleanExpression) func(Row) (bool, error) {
	return func(r Row) (bool, error) {
		return VisitExpr(bound, &rowEvaluator{row: r})
	}
}

type rowEvaluator struct {
	row Row
}

func (*rowEvaluator) VisitTrue() bool                { return true }
func (*rowEvaluator) VisitFalse() bool               { return false }
func (*rowEvaluator) VisitNot(child bool) bool       { return !child }
func (*rowEvaluator) VisitAnd(left, right bool) bool { return left && right }
func (*rowEvaluator) VisitOr(left, right bool) bool  { return left || right }

func (*rowEvaluator) VisitUnbound(pred UnboundPredicate) bool {
	panic(fmt.Errorf("%w: cannot evaluate unbound predicate: %s", ErrInvalidArgument, pred))
}

// rowValueFits reports whether a row value of type valType may be
// compared against a field of type fieldType. Timestamp values serve
// both timestamp types.
func rowValueFits(valType, fieldType Type) bool {
	if valType.Equals(fieldType) {
		return true
	}

	_, isTs := valType.(TimestampType)
	_, isTsTz := fieldType.(TimestampTzType)

	return isTs && isTsTz
}

func (e *rowEvaluator) VisitBound(pred BoundPredicate) bool {
	val := e.row[pred.Ref().Field().ID]

	switch p := pred.(type) {
	case *BoundUnaryPredicate:
		switch p.Op() {
		case OpIsNull:
			return val == nil
		case OpNotNull:
			return val != nil
		}
	case *BoundLiteralPredicate:
		if val == nil {
			// comparisons with null are never satisfied, except not-equal
			return p.Op() == OpNEQ
		}

		lit, err := LiteralFromAny(val)
		if err != nil {
			panic(err)
		}

		if fieldType := pred.Ref().Field().Type; !rowValueFits(lit.Type(), fieldType) {
			panic(fmt.Errorf("%w: row value %s for field %s has type %s",
				ErrType, lit, pred.Ref().Field().Name, lit.Type()))
		}

		c, ok := compareLiterals(lit, p.Literal())
		if !ok {
			panic(fmt.Errorf("%w: cannot compare %s with %s", ErrType, lit.Type(), p.Literal().Type()))
		}

		switch p.Op() {
		case OpLT:
			return c < 0
		case OpLTEQ:
			return c <= 0
		case OpGT:
			return c > 0
		case OpGTEQ:
			return c >= 0
		case OpEQ:
			return c == 0
		case OpNEQ:
			return c != 0
		}
	}

	panic(fmt.Errorf("%w: unhandled bound predicate: %s", ErrNotImplemented, pred))
}
