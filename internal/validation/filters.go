package validation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/staymate/staymate-bff/internal/domain/valueobject"
	"github.com/staymate/staymate-bff/internal/pkg/apperror"
)

var validate = validator.New()

var numberBounds = "gte=0,lte=" + strconv.FormatFloat(MaxBudget, 'f', 0, 64)

// FilterRule описывает один фильтр страницы.
// Tag - правило validator/v10 для непустого значения (пустое значение всегда допустимо и не уходит в запрос).
type FilterRule struct {
	Key       string   `json:"key"`
	Tag       string   `json:"-"`
	Debounced bool     `json:"debounced"`
	Numeric   bool     `json:"numeric,omitempty"`
	Options   []string `json:"options,omitempty"`
}

// RangeRule связывает пару фильтров min/max.
type RangeRule struct {
	Min string
	Max string
}

// Text - свободный текст ограниченной длины.
func Text(key string, max int) FilterRule {
	return FilterRule{Key: key, Tag: "max=" + strconv.Itoa(max)}
}

// DebouncedText - текстовый фильтр, который применяется после паузы во вводе.
func DebouncedText(key string, max int) FilterRule {
	r := Text(key, max)
	r.Debounced = true
	return r
}

// Number - неотрицательное число.
func Number(key string) FilterRule {
	return FilterRule{Key: key, Tag: "numeric", Numeric: true}
}

// OneOf - значение из закрытого списка.
func OneOf(key string, options ...string) FilterRule {
	return FilterRule{Key: key, Tag: "oneof=" + strings.Join(options, " "), Options: options}
}

// ValidateFilters проверяет значения фильтров и возвращает нормализованную копию
// (значения обрезаны по краям). Неизвестные ключи отклоняются.
func ValidateFilters(rules []FilterRule, ranges []RangeRule, values map[string]string) (map[string]string, error) {
	byKey := make(map[string]FilterRule, len(rules))
	for _, r := range rules {
		byKey[r.Key] = r
	}

	out := make(map[string]string, len(values))
	for key, raw := range values {
		rule, ok := byKey[key]
		if !ok {
			return nil, apperror.New(apperror.ErrCodeValidation, fmt.Sprintf("неизвестный фильтр: %s", key))
		}
		value := strings.TrimSpace(raw)
		if value != "" && rule.Tag != "" {
			if err := validate.Var(value, rule.Tag); err != nil {
				return nil, apperror.New(apperror.ErrCodeValidation, filterError(key, err))
			}
		}
		if value != "" && rule.Numeric {
			n, _ := strconv.ParseFloat(value, 64)
			if err := validate.Var(n, numberBounds); err != nil {
				return nil, apperror.New(apperror.ErrCodeValidation, filterError(key, err))
			}
		}
		out[key] = value
	}

	for _, rr := range ranges {
		min, err := parseBound(out[rr.Min])
		if err != nil {
			return nil, err
		}
		max, err := parseBound(out[rr.Max])
		if err != nil {
			return nil, err
		}
		if _, err := valueobject.NewRange(min, max); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func parseBound(v string) (*float64, error) {
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, "граница диапазона должна быть числом")
	}
	return &f, nil
}

func filterError(key string, err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return "фильтр " + key + ": недопустимое значение"
	}
	fe := ve[0]
	switch fe.Tag() {
	case "numeric":
		return "фильтр " + key + " должен быть числом"
	case "gte", "lte":
		return fmt.Sprintf("фильтр %s вне допустимого диапазона", key)
	case "max":
		return fmt.Sprintf("фильтр %s должен быть не длиннее %s символов", key, fe.Param())
	case "oneof":
		return fmt.Sprintf("фильтр %s должен быть одним из: %s", key, fe.Param())
	default:
		return fmt.Sprintf("фильтр %s: недопустимое значение (%s)", key, fe.Tag())
	}
}
