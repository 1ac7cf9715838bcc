package sections

import (
	"errors"
	"fmt"
)

// The functions in this file never modify their input slice. Sections that an
// operation does not touch are carried over by value and may share payloads
// with the input; payloads are never mutated in place.

var (
	// ErrDuplicateSectionID indicates that two sections share an identifier.
	ErrDuplicateSectionID = errors.New("sections: duplicate section id")
	// ErrEmptySectionID indicates a section without an identifier.
	ErrEmptySectionID = errors.New("sections: empty section id")
)

// Create builds a visible section of the given type with its default template,
// positioned after currentLength existing sections.
func Create(kind Type, currentLength int, ids IDSource) Section {
	return Section{
		ID:        ids.NewSectionID(),
		Type:      kind,
		Data:      DefaultData(kind),
		Order:     currentLength,
		IsVisible: true,
	}
}

// Insert appends section and sets its order to its index.
func Insert(collection []Section, section Section) []Section {
	next := make([]Section, 0, len(collection)+1)
	next = append(next, collection...)
	section.Order = len(collection)
	return append(next, section)
}

// Reorder moves the section fromID to the position currently held by toID and
// renumbers every section. Unknown ids and fromID == toID leave the collection unchanged.
func Reorder(collection []Section, fromID, toID string) []Section {
	if fromID == toID {
		return collection
	}
	fromIndex := IndexOf(collection, fromID)
	toIndex := IndexOf(collection, toID)
	if fromIndex < 0 || toIndex < 0 {
		return collection
	}

	moved := collection[fromIndex]
	next := make([]Section, 0, len(collection))
	next = append(next, collection[:fromIndex]...)
	next = append(next, collection[fromIndex+1:]...)
	next = append(next[:toIndex], append([]Section{moved}, next[toIndex:]...)...)
	return renumber(next)
}

// UpdateData shallow-merges patch into the data of the section with sectionID.
// An unknown id leaves the collection unchanged. A patch value that does not fit
// the section's schema returns the input together with ErrInvalidPatch.
func UpdateData(collection []Section, sectionID string, patch Patch) ([]Section, error) {
	index := IndexOf(collection, sectionID)
	if index < 0 {
		return collection, nil
	}
	target := collection[index]
	merged, err := mergeData(target.Type, target.Data, patch)
	if err != nil {
		return collection, fmt.Errorf("section %s: %w", sectionID, err)
	}

	next := make([]Section, len(collection))
	copy(next, collection)
	target.Data = merged
	next[index] = target
	return next, nil
}

// Delete removes the section with sectionID and renumbers the survivors.
func Delete(collection []Section, sectionID string) []Section {
	index := IndexOf(collection, sectionID)
	if index < 0 {
		return collection
	}
	next := make([]Section, 0, len(collection)-1)
	next = append(next, collection[:index]...)
	next = append(next, collection[index+1:]...)
	return renumber(next)
}

// Duplicate appends a copy of the section with sectionID under a new id.
func Duplicate(collection []Section, sectionID string, ids IDSource) []Section {
	index := IndexOf(collection, sectionID)
	if index < 0 {
		return collection
	}
	source := collection[index]
	duplicate := Section{
		ID:        ids.NewSectionID(),
		Type:      source.Type,
		Data:      cloneData(source.Type, source.Data),
		Order:     len(collection),
		IsVisible: source.IsVisible,
	}
	next := make([]Section, 0, len(collection)+1)
	next = append(next, collection...)
	return append(next, duplicate)
}

// IndexOf returns the position of sectionID or -1.
func IndexOf(collection []Section, sectionID string) int {
	for index, section := range collection {
		if section.ID == sectionID {
			return index
		}
	}
	return -1
}

// Validate checks identifier presence and uniqueness across the collection.
func Validate(collection []Section) error {
	seen := make(map[string]struct{}, len(collection))
	for index, section := range collection {
		if section.ID == "" {
			return fmt.Errorf("%w: index %d", ErrEmptySectionID, index)
		}
		if _, exists := seen[section.ID]; exists {
			return fmt.Errorf("%w: %s", ErrDuplicateSectionID, section.ID)
		}
		seen[section.ID] = struct{}{}
	}
	return nil
}

// CloneAll deep-copies a collection.
func CloneAll(collection []Section) []Section {
	if collection == nil {
		return nil
	}
	copied := make([]Section, len(collection))
	for index, section := range collection {
		copied[index] = section.Clone()
	}
	return copied
}

func renumber(collection []Section) []Section {
	for index := range collection {
		collection[index].Order = index
	}
	return collection
}
