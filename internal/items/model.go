package items

import (
	"strings"
	"time"
)

type Category string

const (
	CategorySoccer    = Category("soccer")
	CategoryNature    = Category("nature")
	CategoryAdventure = Category("adventure")
	CategoryMusic     = Category("music")
	CategoryComfort   = Category("comfort")
)

// Categories is the fixed enumeration items are drawn from.
var Categories = []Category{
	CategorySoccer,
	CategoryNature,
	CategoryAdventure,
	CategoryMusic,
	CategoryComfort,
}

var categoryMessages = map[Category]string{
	CategorySoccer:    "Mamelodi Sundowns forever! ⚽",
	CategoryNature:    "Finding peace among the trees 🌳",
	CategoryAdventure: "Life is an adventure waiting to happen 🏔️",
	CategoryMusic:     "RnB and Hip Hop move the soul 🎵",
	CategoryComfort:   "Cozy vibes in baggy clothes 🏠",
}

var categoryColors = map[Category]string{
	CategorySoccer:    "#f97316",
	CategoryNature:    "#4ade80",
	CategoryAdventure: "#60a5fa",
	CategoryMusic:     "#c084fc",
	CategoryComfort:   "#fb7185",
}

// Message is the toast text shown when an item of this category is collected.
func (c Category) Message() string {
	return categoryMessages[c]
}

// Title is "Soccer star!" style heading for the collection toast.
func (c Category) Title() string {
	if c == "" {
		return ""
	}
	s := string(c)
	return strings.ToUpper(s[:1]) + s[1:] + " star!"
}

func (c Category) Color() string {
	if clr, ok := categoryColors[c]; ok {
		return clr
	}
	return "#facc15"
}

func (c Category) Valid() bool {
	_, ok := categoryMessages[c]
	return ok
}

type Item struct {
	ID        int       `json:"id"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Category  Category  `json:"category"`
	Color     string    `json:"color"`
	Collected bool      `json:"collected"`
	VX        float64   `json:"vx,omitempty"`
	VY        float64   `json:"vy,omitempty"`
	Rotation  float64   `json:"rot,omitempty"` // radians
	Spin      float64   `json:"spin,omitempty"`
	Size      float64   `json:"size"`
	SpawnedAt time.Time `json:"-"`
}

// Surface is the play area items live in.
type Surface struct {
	Width  float64
	Height float64
}

// Measurable reports whether the surface has a usable area.
func (s Surface) Measurable() bool {
	return s.Width > 0 && s.Height > 0
}
