package editor

import "github.com/MarcoPoloResearchLab/modulux/internal/sections"

// CanvasDropID is the drop target id of the canvas itself.
const CanvasDropID = "canvas"

// DragItem is the payload of a drag. Palette entries carry only Type; sections
// already on the canvas carry only ID.
type DragItem struct {
	ID   string
	Type sections.Type
}

// PaletteItem builds the drag payload of a palette entry.
func PaletteItem(kind sections.Type) DragItem {
	return DragItem{ID: "palette-" + string(kind), Type: kind}
}

// SectionItem builds the drag payload of a placed section.
func SectionItem(sectionID string) DragItem {
	return DragItem{ID: sectionID}
}

type previewIDs struct{}

func (previewIDs) NewSectionID() string { return "preview" }

// DragStart returns the overlay preview for a palette item. Nothing is added.
// Palette items of unknown type have no preview.
func (s *Session) DragStart(item DragItem) (sections.Section, bool) {
	if item.Type == "" {
		s.mu.Lock()
		defer s.mu.Unlock()
		index := sections.IndexOf(s.collection, item.ID)
		if index < 0 {
			return sections.Section{}, false
		}
		return s.collection[index].Clone(), true
	}
	if !item.Type.Valid() {
		return sections.Section{}, false
	}
	return sections.Create(item.Type, 0, previewIDs{}), true
}

// DragEnd resolves a drop. A typed item dropped on the canvas is added; an
// untyped item dropped on a different section is reordered onto it.
// Drops with no target are ignored.
func (s *Session) DragEnd(item DragItem, overID string) bool {
	if overID == "" {
		return false
	}
	if item.Type != "" {
		if overID != CanvasDropID {
			return false
		}
		_, added := s.AddSection(item.Type)
		return added
	}
	if item.ID == overID {
		return false
	}
	return s.Reorder(item.ID, overID)
}
