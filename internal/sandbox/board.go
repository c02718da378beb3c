// Package sandbox models the placement surface: items dropped from the
// library, moved and resized by single-pointer gestures, and exported as a
// JSON scene.
package sandbox

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/vytor/sandplay/internal/models"
)

const (
	DefaultSize = 40.0
	MinSize     = 30.0
	MaxSize     = 200.0

	// ExportFilename is the download name of an exported scene.
	ExportFilename = "sandbox-scene.json"
)

var (
	ErrGestureActive  = errors.New("another gesture is in progress")
	ErrNoGesture      = errors.New("no matching gesture in progress")
	ErrItemNotFound   = errors.New("item not found")
	ErrInvalidSurface = fmt.Errorf("surface must be at least %gx%g", MaxSize, MaxSize)
)

// Point is a pointer position relative to the surface's top-left corner.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Surface is the size of the live placement area.
type Surface struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type GestureKind string

const (
	GestureNone   GestureKind = "none"
	GestureMove   GestureKind = "move"
	GestureResize GestureKind = "resize"
)

type gesture struct {
	kind      GestureKind
	itemID    string
	offset    Point
	start     Point
	startSize float64
}

// Board holds the placed items of one surface. Only one gesture can be
// active at a time. Board is not safe for concurrent use.
type Board struct {
	surface Surface
	items   []models.PlacedItem
	active  *gesture
	newID   func(libraryID string) string
}

// NewBoard returns an empty board. The surface must fit the largest item.
func NewBoard(s Surface) (*Board, error) {
	if !(s.Width >= MaxSize && s.Height >= MaxSize) || math.IsInf(s.Width, 0) || math.IsInf(s.Height, 0) {
		return nil, ErrInvalidSurface
	}
	return &Board{
		surface: s,
		newID: func(libraryID string) string {
			return libraryID + "-" + uuid.NewString()
		},
	}, nil
}

func (b *Board) Surface() Surface {
	return b.surface
}

// Items returns a copy of the placed items in drop order.
func (b *Board) Items() []models.PlacedItem {
	return append([]models.PlacedItem{}, b.items...)
}

func (b *Board) Len() int {
	return len(b.items)
}

// Item returns the placed item with id.
func (b *Board) Item(id string) (models.PlacedItem, bool) {
	if i := b.index(id); i >= 0 {
		return b.items[i], true
	}
	return models.PlacedItem{}, false
}

// Active reports the kind of gesture in progress.
func (b *Board) Active() GestureKind {
	if b.active == nil {
		return GestureNone
	}
	return b.active.kind
}

// Drop places a new instance of lib centered on p.
func (b *Board) Drop(lib models.LibraryItem, p Point) models.PlacedItem {
	it := models.PlacedItem{
		ID:        b.newID(lib.ID),
		LibraryID: lib.ID,
		Name:      lib.Name,
		Category:  lib.Category,
		ImageRef:  lib.ImageRef,
		Color:     lib.Color,
		Size:      DefaultSize,
	}
	it.X, it.Y = b.clamp(p.X-DefaultSize/2, p.Y-DefaultSize/2, DefaultSize)
	b.items = append(b.items, it)
	return it
}

// BeginMove grabs item id at p. The grab offset is kept so the item does not
// jump under the pointer.
func (b *Board) BeginMove(id string, p Point) error {
	it, err := b.begin(id)
	if err != nil {
		return err
	}
	b.active = &gesture{
		kind:   GestureMove,
		itemID: id,
		offset: Point{X: p.X - it.X, Y: p.Y - it.Y},
	}
	return nil
}

// BeginResize grabs the resize handle of item id at p.
func (b *Board) BeginResize(id string, p Point) error {
	it, err := b.begin(id)
	if err != nil {
		return err
	}
	b.active = &gesture{
		kind:      GestureResize,
		itemID:    id,
		start:     p,
		startSize: it.Size,
	}
	return nil
}

func (b *Board) begin(id string) (models.PlacedItem, error) {
	if b.active != nil {
		return models.PlacedItem{}, ErrGestureActive
	}
	it, ok := b.Item(id)
	if !ok {
		return models.PlacedItem{}, ErrItemNotFound
	}
	return it, nil
}

// Move repositions the grabbed item to p minus the grab offset, clamped so
// the item stays inside the surface.
func (b *Board) Move(p Point) (models.PlacedItem, error) {
	i, err := b.target(GestureMove)
	if err != nil {
		return models.PlacedItem{}, err
	}
	it := &b.items[i]
	it.X, it.Y = b.clamp(p.X-b.active.offset.X, p.Y-b.active.offset.Y, it.Size)
	return *it, nil
}

// Resize grows or shrinks the grabbed item by the larger pointer delta
// since BeginResize, clamped to [MinSize, MaxSize].
func (b *Board) Resize(p Point) (models.PlacedItem, error) {
	i, err := b.target(GestureResize)
	if err != nil {
		return models.PlacedItem{}, err
	}
	g := b.active
	delta := math.Max(p.X-g.start.X, p.Y-g.start.Y)
	it := &b.items[i]
	it.Size = clampRange(g.startSize+delta, MinSize, MaxSize)
	it.X, it.Y = b.clamp(it.X, it.Y, it.Size)
	return *it, nil
}

// Pointer routes a pointer event to the active gesture.
func (b *Board) Pointer(p Point) (models.PlacedItem, error) {
	switch b.Active() {
	case GestureMove:
		return b.Move(p)
	case GestureResize:
		return b.Resize(p)
	default:
		return models.PlacedItem{}, ErrNoGesture
	}
}

func (b *Board) target(kind GestureKind) (int, error) {
	if b.active == nil || b.active.kind != kind {
		return -1, ErrNoGesture
	}
	i := b.index(b.active.itemID)
	if i < 0 {
		b.active = nil
		return -1, ErrItemNotFound
	}
	return i, nil
}

// End releases the pointer. It is a no-op without a gesture.
func (b *Board) End() {
	b.active = nil
}

// Delete removes item id and reports whether it was present. Deleting an
// unknown or already deleted item is not an error.
func (b *Board) Delete(id string) bool {
	i := b.index(id)
	if i < 0 {
		return false
	}
	b.items = append(b.items[:i], b.items[i+1:]...)
	if b.active != nil && b.active.itemID == id {
		b.active = nil
	}
	return true
}

// Clear removes every item and returns how many there were.
func (b *Board) Clear() int {
	n := len(b.items)
	b.items = nil
	b.active = nil
	return n
}

// Export renders the scene as an indented JSON array.
func (b *Board) Export() ([]byte, error) {
	return json.MarshalIndent(b.Items(), "", "  ")
}

func (b *Board) index(id string) int {
	for i := range b.items {
		if b.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (b *Board) clamp(x, y, size float64) (float64, float64) {
	return clampRange(x, 0, b.surface.Width-size), clampRange(y, 0, b.surface.Height-size)
}

func clampRange(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
