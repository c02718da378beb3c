package models

// LibraryItem is an entry of the fixed item library a child drags from.
type LibraryItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	ImageRef string `json:"image,omitempty"`
	Color    string `json:"color"`
}

// PlacedItem is an instance of a library item positioned on a board.
type PlacedItem struct {
	ID        string  `json:"id"`
	LibraryID string  `json:"library_id"`
	Name      string  `json:"name"`
	Category  string  `json:"category,omitempty"`
	ImageRef  string  `json:"image,omitempty"`
	Color     string  `json:"color,omitempty"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Size      float64 `json:"size"`
}
