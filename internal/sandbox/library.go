package sandbox

import "github.com/vytor/sandplay/internal/models"

// Categories lists the library groups in display order.
var Categories = []string{"People", "Building", "Nature", "Animal", "Transport", "Object"}

// LibraryGroup is one category of the item library.
type LibraryGroup struct {
	Category string               `json:"category"`
	Items    []models.LibraryItem `json:"items"`
}

// Library is the fixed set of items a child can drop onto a board.
type Library []models.LibraryItem

func item(id, category, label, color string) models.LibraryItem {
	return models.LibraryItem{ID: id, Name: category + " " + label, Category: category, Color: color}
}

// DefaultLibrary returns the built-in item library. Display names start with
// the category so the agent can bucket placed items by their first word.
func DefaultLibrary() Library {
	return Library{
		item("family", "People", "Family", "#2563eb"),
		item("baby", "People", "Baby", "#f472b6"),
		item("self", "People", "Self", "#ef4444"),

		item("house", "Building", "House", "#d97706"),
		item("castle", "Building", "Castle", "#9333ea"),
		item("school", "Building", "School", "#3b82f6"),

		item("tree", "Nature", "Tree", "#16a34a"),
		item("mountain", "Nature", "Mountain", "#4b5563"),
		item("waves", "Nature", "Waves", "#06b6d4"),
		item("flower", "Nature", "Flower", "#ec4899"),
		item("sun", "Nature", "Sun", "#eab308"),
		item("moon", "Nature", "Moon", "#818cf8"),
		item("star", "Nature", "Star", "#facc15"),
		item("cloud", "Nature", "Cloud", "#9ca3af"),
		item("rainbow", "Nature", "Rainbow", "#a855f7"),

		item("dog", "Animal", "Dog", "#b45309"),
		item("cat", "Animal", "Cat", "#4b5563"),
		item("bird", "Animal", "Bird", "#60a5fa"),
		item("fish", "Animal", "Fish", "#0891b2"),

		item("car", "Transport", "Car", "#dc2626"),
		item("plane", "Transport", "Plane", "#2563eb"),
		item("ship", "Transport", "Ship", "#0e7490"),

		item("shield", "Object", "Shield", "#374151"),
		item("music", "Object", "Music", "#a855f7"),
		item("camera", "Object", "Camera", "#1f2937"),
		item("gift", "Object", "Gift", "#ef4444"),
		item("location", "Object", "Location", "#f87171"),
	}
}

// Lookup finds a library item by id.
func (l Library) Lookup(id string) (models.LibraryItem, bool) {
	for _, it := range l {
		if it.ID == id {
			return it, true
		}
	}
	return models.LibraryItem{}, false
}

// Grouped returns the library split by category in Categories order.
func (l Library) Grouped() []LibraryGroup {
	groups := make([]LibraryGroup, 0, len(Categories))
	for _, c := range Categories {
		g := LibraryGroup{Category: c}
		for _, it := range l {
			if it.Category == c {
				g.Items = append(g.Items, it)
			}
		}
		if len(g.Items) > 0 {
			groups = append(groups, g)
		}
	}
	return groups
}

// WithImages returns a copy where every item whose "<id>.png" asset exists
// references it. Items without an asset keep an empty reference and are
// drawn as color swatches.
func (l Library) WithImages(has func(name string) bool) Library {
	out := make(Library, len(l))
	copy(out, l)
	for i := range out {
		name := out[i].ID + ".png"
		if has(name) {
			out[i].ImageRef = name
		}
	}
	return out
}
