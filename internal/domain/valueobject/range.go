package valueobject

import (
	"github.com/staymate/staymate-bff/internal/pkg/apperror"
)

// Range - диапазон фильтра (цена, бюджет). Любая граница может отсутствовать.
type Range struct {
	Min *float64
	Max *float64
}

func NewRange(min, max *float64) (Range, error) {
	if (min != nil && *min < 0) || (max != nil && *max < 0) {
		return Range{}, apperror.New(apperror.ErrCodeValidation, "границы диапазона не могут быть отрицательными")
	}
	if min != nil && max != nil && *min > *max {
		return Range{}, apperror.New(apperror.ErrCodeValidation, "минимум не может превышать максимум")
	}
	return Range{Min: min, Max: max}, nil
}

func (r Range) Contains(v float64) bool {
	if r.Min != nil && v < *r.Min {
		return false
	}
	if r.Max != nil && v > *r.Max {
		return false
	}
	return true
}

func (r Range) IsZero() bool {
	return r.Min == nil && r.Max == nil
}
