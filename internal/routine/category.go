package routine

import "sort"

// CategoryConfig holds the display tokens of a category.
type CategoryConfig struct {
	Label string `json:"label"`
	Color string `json:"color"`
	Bg    string `json:"bg"`
}

// Category is a keyed CategoryConfig.
type Category struct {
	Key       string
	Config    CategoryConfig
	IsDefault bool
}

// Neutral tokens used for unknown categories.
const (
	NeutralColor = "text-gray-600"
	NeutralBg    = "bg-gray-100"
)

// DefaultCategories are built in and cannot be edited or removed.
var DefaultCategories = map[string]CategoryConfig{
	"exercise": {Label: "Exercise", Color: "text-orange-600", Bg: "bg-orange-100"},
	"study":    {Label: "Study", Color: "text-blue-600", Bg: "bg-blue-100"},
	"health":   {Label: "Health", Color: "text-green-600", Bg: "bg-green-100"},
	"other":    {Label: "Other", Color: NeutralColor, Bg: NeutralBg},
}

// DefaultCategoryOrder fixes the display order of the defaults.
var DefaultCategoryOrder = []string{"exercise", "study", "health", "other"}

// ColorPresets are offered when creating a custom category.
var ColorPresets = []CategoryConfig{
	{Color: "text-purple-600", Bg: "bg-purple-100"},
	{Color: "text-pink-600", Bg: "bg-pink-100"},
	{Color: "text-red-600", Bg: "bg-red-100"},
	{Color: "text-teal-600", Bg: "bg-teal-100"},
	{Color: "text-yellow-600", Bg: "bg-yellow-100"},
	{Color: "text-indigo-600", Bg: "bg-indigo-100"},
}

// IsDefaultCategory reports whether key names a built-in category.
func IsDefaultCategory(key string) bool {
	_, ok := DefaultCategories[key]
	return ok
}

// MergeCategories overlays custom categories on the defaults. A custom entry
// never replaces a default key.
func MergeCategories(custom map[string]CategoryConfig) map[string]CategoryConfig {
	merged := make(map[string]CategoryConfig, len(DefaultCategories)+len(custom))
	for k, v := range custom {
		merged[k] = v
	}
	for k, v := range DefaultCategories {
		merged[k] = v
	}
	return merged
}

// LookupCategory returns the config for key, or a neutral placeholder that
// uses the key as its label.
func LookupCategory(categories map[string]CategoryConfig, key string) CategoryConfig {
	if cfg, ok := categories[key]; ok {
		return cfg
	}
	return CategoryConfig{Label: key, Color: NeutralColor, Bg: NeutralBg}
}

// OrderedCategories lists defaults first in fixed order, then custom keys sorted.
func OrderedCategories(categories map[string]CategoryConfig) []Category {
	out := make([]Category, 0, len(categories))
	for _, key := range DefaultCategoryOrder {
		if cfg, ok := categories[key]; ok {
			out = append(out, Category{Key: key, Config: cfg, IsDefault: true})
		}
	}
	var custom []string
	for key := range categories {
		if !IsDefaultCategory(key) {
			custom = append(custom, key)
		}
	}
	sort.Strings(custom)
	for _, key := range custom {
		out = append(out, Category{Key: key, Config: categories[key]})
	}
	return out
}
