package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staymate/staymate-bff/internal/pkg/apperror"
)

var roommateRules = []FilterRule{
	DebouncedText("location", MaxLocationLength),
	Number("minBudget"),
	Number("maxBudget"),
	OneOf("genderPreference", "MALE", "FEMALE", "ANY"),
}

var budgetRange = []RangeRule{{Min: "minBudget", Max: "maxBudget"}}

func TestValidateFilters_Normalizes(t *testing.T) {
	out, err := ValidateFilters(roommateRules, budgetRange, map[string]string{
		"location":  "  ",
		"minBudget": " 500 ",
		"maxBudget": "1000",
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"location": "", "minBudget": "500", "maxBudget": "1000"}, out)
}

func TestValidateFilters_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]string
		msg    string
	}{
		{"unknown key", map[string]string{"color": "red"}, "неизвестный фильтр: color"},
		{"not a number", map[string]string{"minBudget": "abc"}, "фильтр minBudget должен быть числом"},
		{"negative", map[string]string{"maxBudget": "-5"}, "фильтр maxBudget вне допустимого диапазона"},
		{"enum", map[string]string{"genderPreference": "OTHER"}, "фильтр genderPreference должен быть одним из: MALE FEMALE ANY"},
		{"inverted range", map[string]string{"minBudget": "1000", "maxBudget": "500"}, "минимум не может превышать максимум"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateFilters(roommateRules, budgetRange, tt.values)
			require.Error(t, err)
			assert.True(t, apperror.IsValidation(err))
			assert.Equal(t, tt.msg, apperror.UserMessage(err, ""))
		})
	}
}

func TestValidateFilters_TextLength(t *testing.T) {
	long := make([]rune, MaxLocationLength+1)
	for i := range long {
		long[i] = 'ঢ'
	}
	_, err := ValidateFilters(roommateRules, nil, map[string]string{"location": string(long)})
	assert.Error(t, err)

	_, err = ValidateFilters(roommateRules, nil, map[string]string{"location": string(long[:MaxLocationLength])})
	assert.NoError(t, err)
}

func TestValidateReason(t *testing.T) {
	assert.Error(t, ValidateReason("   "))
	assert.Error(t, ValidateReason("no"))
	assert.NoError(t, ValidateReason("document is blurry"))
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("Admin@StayMate.com"))
	assert.Error(t, ValidateEmail("admin"))
	assert.Error(t, ValidateEmail("admin@localhost"))
}
