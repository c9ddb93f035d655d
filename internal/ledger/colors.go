package ledger

// Category colors are stored as palette keys, not raw values, so the UI can
// restyle without touching persisted data. Unknown keys fall back to
// DefaultColorKey instead of erroring.

const DefaultColorKey = "gray"

var palette = map[string]string{
	// Warm
	"red":    "#DC2626",
	"rose":   "#E11D48",
	"orange": "#EA580C",
	"amber":  "#D97706",
	"yellow": "#CA8A04",
	"brown":  "#92400E",

	// Nature
	"lime":    "#65A30D",
	"green":   "#16A34A",
	"emerald": "#059669",
	"teal":    "#0D9488",
	"cyan":    "#0891B2",
	"sky":     "#0284C7",

	// Cool
	"blue":    "#2563EB",
	"indigo":  "#4F46E5",
	"violet":  "#7C3AED",
	"purple":  "#9333EA",
	"fuchsia": "#C026D3",
	"pink":    "#DB2777",

	// Neutral
	"slate": "#475569",
	"gray":  "#4B5563",
	"zinc":  "#52525B",
	"stone": "#57534E",
}

// ColorKeys lists the palette keys in a stable display order.
var ColorKeys = []string{
	"red", "rose", "orange", "amber", "yellow", "brown",
	"lime", "green", "emerald", "teal", "cyan", "sky",
	"blue", "indigo", "violet", "purple", "fuchsia", "pink",
	"slate", "gray", "zinc", "stone",
}

// ColorValue resolves a palette key to its hex value, falling back to the
// default color for unknown keys.
func ColorValue(key string) string {
	if v, ok := palette[key]; ok {
		return v
	}
	return palette[DefaultColorKey]
}
