package domain

// LogoStyles lists the visual styles the composer understands.
var LogoStyles = []string{
	"minimal", "geometric", "circular", "badge", "wordmark",
	"lettermark", "abstract", "mascot", "emblem", "combination",
}

// ColorSchemes maps scheme names to their palette swatches, exposed on the
// catalog endpoint so clients can render pickers.
var ColorSchemes = map[string][]string{
	"professional": {"#2C3E50", "#3498DB", "#ECF0F1"},
	"vibrant":      {"#E74C3C", "#F39C12", "#9B59B6"},
	"nature":       {"#27AE60", "#16A085", "#F39C12"},
	"elegant":      {"#34495E", "#95A5A6", "#BDC3C7"},
	"modern":       {"#1ABC9C", "#3498DB", "#9B59B6"},
	"warm":         {"#E74C3C", "#E67E22", "#F39C12"},
	"cool":         {"#3498DB", "#9B59B6", "#1ABC9C"},
	"monochrome":   {"#2C3E50", "#7F8C8D", "#ECF0F1"},
}

// ModelInfo carries display metadata for one provider entry in the catalog.
// Cosmetic configuration only; routing happens on the ID.
type ModelInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Speed       string `json:"speed"`
	Quality     string `json:"quality"`
	Recommended bool   `json:"recommended,omitempty"`
}

// Models is the catalog of free generation backends.
var Models = []ModelInfo{
	{
		ID:          "stable-horde",
		Name:        "Numidia Imagine",
		Description: "Best for complex prompts, premium quality",
		Speed:       "medium (30-60s)",
		Quality:     "highest",
		Recommended: true,
	},
	{
		ID:          "pollinations",
		Name:        "Numidia Creative",
		Description: "Fast, reliable, no limits",
		Speed:       "fast (3-5s)",
		Quality:     "high",
	},
	{
		ID:          "miragic",
		Name:        "Numidia Detail",
		Description: "Detailed renders with enriched prompts",
		Speed:       "fast (5-10s)",
		Quality:     "high",
	},
	{
		ID:          "turbo",
		Name:        "Numidia Turbo",
		Description: "Fast, realistic, high quality",
		Speed:       "fast (3-5s)",
		Quality:     "high",
	},
}

// ModelByID returns catalog metadata for a provider id.
func ModelByID(id string) (ModelInfo, bool) {
	for _, m := range Models {
		if m.ID == id {
			return m, true
		}
	}
	return ModelInfo{}, false
}

// PlanOffer describes a purchasable subscription on the checkout page.
type PlanOffer struct {
	Name  string `json:"name"`
	Price string `json:"price"`
	Limit int    `json:"limit"`
}

// PlanOffers is the checkout catalog keyed by plan id.
var PlanOffers = map[string]PlanOffer{
	"basic": {Name: "Numidia AI Basic", Price: "5.00", Limit: 50},
	"pro":   {Name: "Numidia AI Pro", Price: "9.99", Limit: UnlimitedQuota},
}
