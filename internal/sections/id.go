package sections

import "github.com/google/uuid"

const sectionIDPrefix = "section-"

// IDSource issues section identifiers.
type IDSource interface {
	NewSectionID() string
}

type uuidSource struct{}

// NewUUIDSource returns an IDSource backed by time-ordered UUIDv7 values. The
// random tail keeps ids distinct when several are issued within one millisecond.
func NewUUIDSource() IDSource {
	return uuidSource{}
}

func (uuidSource) NewSectionID() string {
	value, err := uuid.NewV7()
	if err != nil {
		value = uuid.New()
	}
	return sectionIDPrefix + value.String()
}
