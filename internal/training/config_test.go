package training

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Categories(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, []Category{
		CategoryClimbing, CategoryWeights, CategoryRunning, CategoryOther,
	}, cfg.Categories())
}

func TestConfig_Subcategories(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t,
		[]string{"Bouldering", "Sport Climbing", "Endurance", "Training Board"},
		cfg.Subcategories(CategoryClimbing),
	)
	assert.Equal(t,
		[]string{"Strength", "Hypertrophy", "Power"},
		cfg.Subcategories(CategoryWeights),
	)
	assert.Equal(t,
		[]string{"Road", "Trail", "Track"},
		cfg.Subcategories(CategoryRunning),
	)
	assert.Equal(t,
		[]string{"Yoga", "Stretching", "Mobility"},
		cfg.Subcategories(CategoryOther),
	)
	assert.Empty(t, cfg.Subcategories("Swimming"))
}

func TestConfig_FieldTypeFor(t *testing.T) {
	cfg := DefaultConfig()

	testCases := []struct {
		category    Category
		subcategory string
		fieldType   FieldType
	}{
		{CategoryClimbing, "Bouldering", FieldTypeBouldering},
		{CategoryClimbing, "Sport Climbing", FieldTypeSport},
		{CategoryClimbing, "Endurance", FieldTypeGeneric},
		{CategoryClimbing, "Training Board", FieldTypeGeneric},
		{CategoryWeights, "Strength", FieldTypeWeights},
		{CategoryWeights, "Hypertrophy", FieldTypeWeights},
		{CategoryWeights, "Power", FieldTypeWeights},
		{CategoryRunning, "Road", FieldTypeRunning},
		{CategoryRunning, "Trail", FieldTypeRunning},
		{CategoryRunning, "Track", FieldTypeRunning},
		{CategoryOther, "Yoga", FieldTypeGeneric},
		{CategoryOther, "Stretching", FieldTypeGeneric},
		{CategoryOther, "Mobility", FieldTypeGeneric},
	}
	for _, tc := range testCases {
		fieldType, ok := cfg.FieldTypeFor(tc.category, tc.subcategory)
		require.True(t, ok, "%s/%s", tc.category, tc.subcategory)
		assert.Equal(t, tc.fieldType, fieldType, "%s/%s", tc.category, tc.subcategory)
	}

	// subcategory from another category does not resolve
	_, ok := cfg.FieldTypeFor(CategoryRunning, "Bouldering")
	assert.False(t, ok)
	_, ok = cfg.FieldTypeFor("Swimming", "Freestyle")
	assert.False(t, ok)
}

func TestDateKey(t *testing.T) {
	key := DateKey("2024-03-15")
	require.True(t, key.Valid())

	parsed, err := key.Time()
	require.NoError(t, err)
	assert.Equal(t, 2024, parsed.Year())
	assert.Equal(t, NewDateKey(parsed), key)

	assert.False(t, DateKey("15.03.2024").Valid())
	assert.False(t, DateKey("2024-3-15").Valid())
	assert.False(t, DateKey("").Valid())
}
