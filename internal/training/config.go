package training

// Category is one of the four fixed training categories.
type Category string

const (
	CategoryClimbing Category = "Climbing"
	CategoryWeights  Category = "Weights"
	CategoryRunning  Category = "Running"
	CategoryOther    Category = "Other"
)

// FieldType is the variant discriminator selecting which detail
// fields a (category, subcategory) pair uses.
type FieldType string

const (
	FieldTypeGeneric    FieldType = "generic"
	FieldTypeRunning    FieldType = "running"
	FieldTypeWeights    FieldType = "weights"
	FieldTypeBouldering FieldType = "bouldering"
	FieldTypeSport      FieldType = "sport"
)

type subcategoryConfig struct {
	name      string
	fieldType FieldType
}

// Config is the static category -> sub-category -> field type mapping.
// It is read-only, process-wide and never mutated at runtime.
type Config struct {
	categories    []Category
	subcategories map[Category][]subcategoryConfig
}

var defaultConfig = &Config{
	categories: []Category{
		CategoryClimbing, CategoryWeights, CategoryRunning, CategoryOther,
	},
	subcategories: map[Category][]subcategoryConfig{
		CategoryClimbing: {
			{"Bouldering", FieldTypeBouldering},
			{"Sport Climbing", FieldTypeSport},
			{"Endurance", FieldTypeGeneric},
			{"Training Board", FieldTypeGeneric},
		},
		CategoryWeights: {
			{"Strength", FieldTypeWeights},
			{"Hypertrophy", FieldTypeWeights},
			{"Power", FieldTypeWeights},
		},
		CategoryRunning: {
			{"Road", FieldTypeRunning},
			{"Trail", FieldTypeRunning},
			{"Track", FieldTypeRunning},
		},
		CategoryOther: {
			{"Yoga", FieldTypeGeneric},
			{"Stretching", FieldTypeGeneric},
			{"Mobility", FieldTypeGeneric},
		},
	},
}

// DefaultConfig returns the process-wide training config.
func DefaultConfig() *Config {
	return defaultConfig
}

// Categories returns all categories in declaration order.
func (c *Config) Categories() []Category {
	return c.categories
}

// Subcategories returns the sub-category names declared for
// category, in declaration order.
func (c *Config) Subcategories(category Category) []string {
	subs := c.subcategories[category]
	names := make([]string, 0, len(subs))
	for _, sub := range subs {
		names = append(names, sub.name)
	}
	return names
}

// FieldTypeFor returns the field type tag declared for the
// (category, subcategory) pair.
func (c *Config) FieldTypeFor(category Category, subcategory string) (FieldType, bool) {
	for _, sub := range c.subcategories[category] {
		if sub.name == subcategory {
			return sub.fieldType, true
		}
	}
	return "", false
}
