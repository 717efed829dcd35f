package table

import (
	"context"
	"slices"

	"github.com/dshills/cellstore/internal/event"
	"github.com/dshills/cellstore/internal/value"
)

// Aggregate folds the numeric values of a range into one value.
type Aggregate func(values []value.Value) (value.Value, error)

// Derive keeps target equal to agg over the numeric cells of source.
//
// target is written once immediately and again after every change inside
// source, through a range listener configured by opts. target must lie
// outside source, otherwise the listener re-triggers itself.
func Derive(ctx context.Context, target CellAddress, source CellRange, agg Aggregate, opts ...event.Option) (*event.Ref, error) {
	if target.table == nil {
		return nil, ErrInvalidTable
	}

	compute := func(ctx context.Context) error {
		s, err := source.table.Snapshot()
		if err != nil {
			return err
		}
		var nums []value.Value
		for _, c := range source.cells(s) {
			if c.Value.IsNumeric() {
				nums = append(nums, c.Value)
			}
		}
		v, err := agg(nums)
		if err != nil {
			return err
		}
		return target.Set(ctx, v)
	}

	opts = append(slices.Clone(opts), event.WithSkipHistory(true))
	ref, err := On(ctx, source, func(ctx context.Context, _ *event.Ref, _ []Event) error {
		return compute(ctx)
	}, opts...)
	if err != nil {
		return nil, err
	}
	if err := compute(ctx); err != nil {
		ref.Unsubscribe()
		return nil, err
	}
	return ref, nil
}

// Sum keeps target equal to the sum of the numeric cells of source.
func Sum(ctx context.Context, target CellAddress, source CellRange, opts ...event.Option) (*event.Ref, error) {
	return Derive(ctx, target, source, SumOf, opts...)
}

// Min keeps target equal to the smallest numeric cell of source.
func Min(ctx context.Context, target CellAddress, source CellRange, opts ...event.Option) (*event.Ref, error) {
	return Derive(ctx, target, source, MinOf, opts...)
}

// Max keeps target equal to the largest numeric cell of source.
func Max(ctx context.Context, target CellAddress, source CellRange, opts ...event.Option) (*event.Ref, error) {
	return Derive(ctx, target, source, MaxOf, opts...)
}

// Count keeps target equal to the number of numeric cells of source.
func Count(ctx context.Context, target CellAddress, source CellRange, opts ...event.Option) (*event.Ref, error) {
	return Derive(ctx, target, source, CountOf, opts...)
}

// SumOf adds values. The sum of nothing is Integer 0.
func SumOf(values []value.Value) (value.Value, error) {
	total := value.Int(0)
	for _, v := range values {
		var err error
		if total, err = value.Add(total, v); err != nil {
			return value.Empty, err
		}
	}
	return total, nil
}

// MinOf returns the smallest value, Empty for no values.
func MinOf(values []value.Value) (value.Value, error) {
	return extreme(values, -1)
}

// MaxOf returns the largest value, Empty for no values.
func MaxOf(values []value.Value) (value.Value, error) {
	return extreme(values, 1)
}

// CountOf returns the number of values.
func CountOf(values []value.Value) (value.Value, error) {
	return value.Int(int64(len(values))), nil
}

func extreme(values []value.Value, sign int) (value.Value, error) {
	if len(values) == 0 {
		return value.Empty, nil
	}
	best := values[0]
	for _, v := range values[1:] {
		c, err := value.Compare(v, best)
		if err != nil {
			return value.Empty, err
		}
		if c*sign > 0 {
			best = v
		}
	}
	return best, nil
}
