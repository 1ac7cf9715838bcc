package sections

// BackgroundKind selects how a section background is painted.
type BackgroundKind string

const (
	BackgroundSolid    BackgroundKind = "solid"
	BackgroundGradient BackgroundKind = "gradient"
)

// Gradient describes a two-stop linear gradient.
type Gradient struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Direction string `json:"direction"`
}

// Background is the section backdrop.
type Background struct {
	Kind     BackgroundKind `json:"type"`
	Color    string         `json:"color,omitempty"`
	Gradient *Gradient      `json:"gradient,omitempty"`
}

// TextStyle carries the inline editor styling of a single text field.
type TextStyle struct {
	TextAlign  string `json:"textAlign,omitempty"`
	FontSize   string `json:"fontSize,omitempty"`
	FontWeight string `json:"fontWeight,omitempty"`
	Color      string `json:"color,omitempty"`
}

// Base holds the fields shared by every section variant.
type Base struct {
	Background Background           `json:"background"`
	Styles     map[string]TextStyle `json:"styles,omitempty"`
}

func (b *Base) base() *Base {
	return b
}

// Data is the type-specific payload of a section. The set of implementations is
// closed: one variant per catalogued Type plus GenericData.
type Data interface {
	SectionType() Type
	base() *Base
}

// NavItem is a single navigation link.
type NavItem struct {
	Name string `json:"name"`
	Href string `json:"href"`
}

// NavigationData backs the navigation bar.
type NavigationData struct {
	Base
	Title string    `json:"title"`
	Items []NavItem `json:"items"`
}

// SectionType implements Data.
func (*NavigationData) SectionType() Type { return TypeNavigation }

// HeroData backs the introduction block.
type HeroData struct {
	Base
	Name        string `json:"name"`
	Title       string `json:"title"`
	Subtitle    string `json:"subtitle"`
	Description string `json:"description"`
	Image       string `json:"image,omitempty"`
}

// SectionType implements Data.
func (*HeroData) SectionType() Type { return TypeHero }

// AboutData backs the about block.
type AboutData struct {
	Base
	Title   string `json:"title"`
	Content string `json:"content"`
	Image   string `json:"image,omitempty"`
}

// SectionType implements Data.
func (*AboutData) SectionType() Type { return TypeAbout }

// Project is a showcased piece of work.
type Project struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Image        string   `json:"image,omitempty"`
	Technologies []string `json:"technologies"`
	LiveURL      string   `json:"liveUrl,omitempty"`
	GitHubURL    string   `json:"githubUrl,omitempty"`
	Featured     bool     `json:"featured"`
}

// ProjectsData backs the projects block.
type ProjectsData struct {
	Base
	Title    string    `json:"title"`
	Projects []Project `json:"projects"`
}

// SectionType implements Data.
func (*ProjectsData) SectionType() Type { return TypeProjects }

// Skill is a named proficiency. Level is a percentage.
type Skill struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Level    int    `json:"level"`
	Category string `json:"category"`
	Icon     string `json:"icon,omitempty"`
}

// SkillsData backs the skills block.
type SkillsData struct {
	Base
	Title  string  `json:"title"`
	Skills []Skill `json:"skills"`
}

// SectionType implements Data.
func (*SkillsData) SectionType() Type { return TypeSkills }

// Experience is a single role.
type Experience struct {
	ID            string   `json:"id"`
	Company       string   `json:"company"`
	Position      string   `json:"position"`
	StartDate     string   `json:"startDate"`
	EndDate       string   `json:"endDate,omitempty"`
	Description   string   `json:"description"`
	Technologies  []string `json:"technologies"`
	IsCurrentRole bool     `json:"isCurrentRole"`
}

// ExperienceData backs the experience block.
type ExperienceData struct {
	Base
	Title       string       `json:"title"`
	Experiences []Experience `json:"experiences"`
}

// SectionType implements Data.
func (*ExperienceData) SectionType() Type { return TypeExperience }

// Education is a single qualification.
type Education struct {
	ID          string `json:"id"`
	Institution string `json:"institution"`
	Degree      string `json:"degree"`
	Field       string `json:"field"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate,omitempty"`
	Description string `json:"description,omitempty"`
	GPA         string `json:"gpa,omitempty"`
}

// EducationData backs the education block.
type EducationData struct {
	Base
	Title     string      `json:"title"`
	Education []Education `json:"education"`
}

// SectionType implements Data.
func (*EducationData) SectionType() Type { return TypeEducation }

// SocialLink is an external profile.
type SocialLink struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
	Icon     string `json:"icon"`
}

// ContactData backs the contact block.
type ContactData struct {
	Base
	Title    string                `json:"title"`
	Email    string                `json:"email"`
	Phone    string                `json:"phone"`
	Location string                `json:"location"`
	Social   map[string]SocialLink `json:"social"`
}

// SectionType implements Data.
func (*ContactData) SectionType() Type { return TypeContact }

// Testimonial is a quote attributed to a person.
type Testimonial struct {
	ID     string `json:"id"`
	Author string `json:"author"`
	Role   string `json:"role"`
	Quote  string `json:"quote"`
}

// TestimonialsData backs the testimonials block.
type TestimonialsData struct {
	Base
	Title        string        `json:"title"`
	Testimonials []Testimonial `json:"testimonials"`
}

// SectionType implements Data.
func (*TestimonialsData) SectionType() Type { return TypeTestimonials }

// GalleryImage is a single gallery entry.
type GalleryImage struct {
	ID      string `json:"id"`
	URL     string `json:"url"`
	Caption string `json:"caption"`
}

// GalleryData backs the gallery block.
type GalleryData struct {
	Base
	Title  string         `json:"title"`
	Images []GalleryImage `json:"images"`
}

// SectionType implements Data.
func (*GalleryData) SectionType() Type { return TypeGallery }

// GenericData is the payload for a type tag outside the catalog. It only keeps
// the shared fields.
type GenericData struct {
	Base
	kind Type
}

// SectionType implements Data.
func (d *GenericData) SectionType() Type { return d.kind }

// newData returns an empty variant for the type.
func newData(kind Type) Data {
	switch kind {
	case TypeNavigation:
		return &NavigationData{}
	case TypeHero:
		return &HeroData{}
	case TypeAbout:
		return &AboutData{}
	case TypeProjects:
		return &ProjectsData{}
	case TypeSkills:
		return &SkillsData{}
	case TypeExperience:
		return &ExperienceData{}
	case TypeEducation:
		return &EducationData{}
	case TypeContact:
		return &ContactData{}
	case TypeTestimonials:
		return &TestimonialsData{}
	case TypeGallery:
		return &GalleryData{}
	default:
		return &GenericData{kind: kind}
	}
}
