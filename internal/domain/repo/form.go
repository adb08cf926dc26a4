package repo

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/bitsync/internal/domain"
)

// MaxDescriptionLength is the longest accepted repository description, in characters.
const MaxDescriptionLength = 500

var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

var gitignoreTemplates = map[string]bool{
	"": true, "node": true, "python": true, "java": true, "ruby": true, "csharp": true,
}

var licenses = map[string]bool{
	"": true, "mit": true, "apache": true, "gpl-3": true, "bsd-2": true,
}

// Form is the input of repository creation.
type Form struct {
	Name        string
	Description string
	IsPublic    bool
	Readme      bool
	Gitignore   string
	License     string
}

// Normalize trims free-text fields.
func (f Form) Normalize() Form {
	f.Name = strings.TrimSpace(f.Name)
	f.Description = strings.TrimSpace(f.Description)
	return f
}

// Validate checks every field and reports all rejections at once.
// Returns nil or a *domain.ValidationError.
func (f Form) Validate() error {
	verr := &domain.ValidationError{}

	switch {
	case f.Name == "":
		verr.Add("name", "Repository name is required")
	case !nameRegex.MatchString(f.Name):
		verr.Add("name", "Repository name can only contain letters, numbers, hyphens, underscores, and periods")
	}
	if utf8.RuneCountInString(f.Description) > MaxDescriptionLength {
		verr.Add("description", "Description must be less than 500 characters")
	}
	if !gitignoreTemplates[f.Gitignore] {
		verr.Add("gitignore", "Unknown .gitignore template")
	}
	if !licenses[f.License] {
		verr.Add("license", "Unknown license")
	}

	return verr.OrNil()
}
