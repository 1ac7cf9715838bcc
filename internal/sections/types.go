package sections

import (
	"errors"
	"fmt"
	"strings"
)

// Type enumerates the section blocks a portfolio can contain.
type Type string

const (
	TypeNavigation   Type = "navigation"
	TypeHero         Type = "hero"
	TypeAbout        Type = "about"
	TypeProjects     Type = "projects"
	TypeSkills       Type = "skills"
	TypeExperience   Type = "experience"
	TypeEducation    Type = "education"
	TypeContact      Type = "contact"
	TypeTestimonials Type = "testimonials"
	TypeGallery      Type = "gallery"
)

// ErrUnknownType indicates that a raw type tag is not part of the catalog.
var ErrUnknownType = errors.New("sections: unknown section type")

// Descriptor describes a catalog entry as offered by the builder palette.
type Descriptor struct {
	Type        Type   `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// catalog is ordered the way the palette lists it.
var catalog = []Descriptor{
	{Type: TypeNavigation, Name: "Navigation Bar", Description: "Top navigation menu for your portfolio"},
	{Type: TypeHero, Name: "Hero Section", Description: "Introduction with name and title"},
	{Type: TypeAbout, Name: "About Section", Description: "Tell your story and background"},
	{Type: TypeProjects, Name: "Projects", Description: "Showcase your work and projects"},
	{Type: TypeSkills, Name: "Skills", Description: "Display your technical skills"},
	{Type: TypeExperience, Name: "Experience", Description: "Your work experience and career"},
	{Type: TypeEducation, Name: "Education", Description: "Educational background and certifications"},
	{Type: TypeContact, Name: "Contact", Description: "Contact information and social links"},
	{Type: TypeTestimonials, Name: "Testimonials", Description: "What clients and colleagues say about you"},
	{Type: TypeGallery, Name: "Gallery", Description: "Image gallery of your work"},
}

// Catalog returns a copy of the palette entries.
func Catalog() []Descriptor {
	entries := make([]Descriptor, len(catalog))
	copy(entries, catalog)
	return entries
}

// Types returns every catalogued section type in palette order.
func Types() []Type {
	types := make([]Type, 0, len(catalog))
	for _, entry := range catalog {
		types = append(types, entry.Type)
	}
	return types
}

// Valid reports whether the type is part of the catalog.
func (t Type) Valid() bool {
	for _, entry := range catalog {
		if entry.Type == t {
			return true
		}
	}
	return false
}

// String returns the raw type tag.
func (t Type) String() string {
	return string(t)
}

// ParseType normalizes and validates a raw type tag.
func ParseType(rawInput string) (Type, error) {
	candidate := Type(strings.ToLower(strings.TrimSpace(rawInput)))
	if !candidate.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownType, rawInput)
	}
	return candidate, nil
}
