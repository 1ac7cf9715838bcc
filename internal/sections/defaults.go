package sections

// Placeholder copy used by freshly created sections.
const (
	DefaultHeroName        = "Your Name"
	DefaultHeroTitle       = "Your Professional Title"
	DefaultHeroDescription = "A brief introduction about yourself and what you do."
	DefaultContactEmail    = "your.email@example.com"
	DefaultContactPhone    = "+1 (555) 123-4567"
	DefaultContactLocation = "City, Country"
	defaultSurfaceColor    = "#ffffff"
	defaultGradientFrom    = "#2563eb"
	defaultGradientTo      = "#7c3aed"
	defaultGradientDir     = "to-r"
)

// DefaultBackground is the solid backdrop every non-hero section starts with.
func DefaultBackground() Background {
	return Background{Kind: BackgroundSolid, Color: defaultSurfaceColor}
}

func heroBackground() Background {
	return Background{
		Kind:     BackgroundGradient,
		Gradient: &Gradient{From: defaultGradientFrom, To: defaultGradientTo, Direction: defaultGradientDir},
	}
}

// DefaultData returns the placeholder template for the type. It never fails: a
// type outside the catalog gets a GenericData carrying only the default background.
func DefaultData(kind Type) Data {
	plain := Base{Background: DefaultBackground()}

	switch kind {
	case TypeNavigation:
		return &NavigationData{
			Base:  plain,
			Title: "Navigation",
			Items: []NavItem{
				{Name: "Home", Href: "#home"},
				{Name: "About", Href: "#about"},
				{Name: "Projects", Href: "#projects"},
				{Name: "Contact", Href: "#contact"},
			},
		}
	case TypeHero:
		return &HeroData{
			Base: Base{
				Background: heroBackground(),
				Styles: map[string]TextStyle{
					"name":        {TextAlign: "center", FontSize: "5xl", FontWeight: "bold", Color: "#ffffff"},
					"title":       {TextAlign: "center", FontSize: "2xl", FontWeight: "medium", Color: "#ffffff"},
					"description": {TextAlign: "center", FontSize: "lg", FontWeight: "normal", Color: "#e5e7eb"},
				},
			},
			Name:        DefaultHeroName,
			Title:       DefaultHeroTitle,
			Description: DefaultHeroDescription,
		}
	case TypeAbout:
		return &AboutData{
			Base:    plain,
			Title:   "About Me",
			Content: "Tell visitors about your background, what drives you and what you are working on.",
		}
	case TypeProjects:
		return &ProjectsData{
			Base:  plain,
			Title: "My Projects",
			Projects: []Project{
				{
					ID:           "project-1",
					Title:        "Sample Project",
					Description:  "Describe the problem, your role and the outcome.",
					Technologies: []string{"Go", "React"},
					Featured:     true,
				},
			},
		}
	case TypeSkills:
		return &SkillsData{
			Base:  plain,
			Title: "Skills & Expertise",
			Skills: []Skill{
				{ID: "skill-1", Name: "JavaScript", Level: 90, Category: "Technical"},
				{ID: "skill-2", Name: "React", Level: 85, Category: "Technical"},
				{ID: "skill-3", Name: "Node.js", Level: 80, Category: "Technical"},
			},
		}
	case TypeExperience:
		return &ExperienceData{
			Base:  plain,
			Title: "Experience",
			Experiences: []Experience{
				{
					ID:            "experience-1",
					Company:       "Company Name",
					Position:      "Your Position",
					StartDate:     "2022-01",
					Description:   "Key responsibilities and achievements.",
					Technologies:  []string{},
					IsCurrentRole: true,
				},
			},
		}
	case TypeEducation:
		return &EducationData{
			Base:  plain,
			Title: "Education",
			Education: []Education{
				{
					ID:          "education-1",
					Institution: "University Name",
					Degree:      "Bachelor of Science",
					Field:       "Computer Science",
					StartDate:   "2016-09",
					EndDate:     "2020-06",
				},
			},
		}
	case TypeContact:
		return &ContactData{
			Base:     plain,
			Title:    "Get In Touch",
			Email:    DefaultContactEmail,
			Phone:    DefaultContactPhone,
			Location: DefaultContactLocation,
			Social:   map[string]SocialLink{},
		}
	case TypeTestimonials:
		return &TestimonialsData{
			Base:  plain,
			Title: "Testimonials",
			Testimonials: []Testimonial{
				{ID: "testimonial-1", Author: "Client Name", Role: "Role, Company", Quote: "Working together was a pleasure."},
			},
		}
	case TypeGallery:
		return &GalleryData{
			Base:   plain,
			Title:  "Gallery",
			Images: []GalleryImage{},
		}
	default:
		return &GenericData{Base: plain, kind: kind}
	}
}

// BackgroundOf returns the background carried by any variant.
func BackgroundOf(data Data) Background {
	if data == nil {
		return Background{}
	}
	return data.base().Background
}
