package result

import (
	"path"
	"strings"
	"time"
)

// Kind discriminates the result variants.
type Kind string

// Kind constants.
const (
	KindRepository Kind = "repository"
	KindCode       Kind = "code"
	KindUser       Kind = "user"
)

// Item is one entry of a search result list: a Repository, a Code match or a User.
// The set of variants is closed; consumers switch on the concrete type.
type Item interface {
	Kind() Kind
	isItem()
}

// Repository is a repository hit.
type Repository struct {
	ID          string
	Name        string
	Owner       string
	Description string
	Stars       int
	Forks       int
	Language    string
	UpdatedAt   time.Time
	IsPublic    bool
}

// Kind implements Item.
func (Repository) Kind() Kind { return KindRepository }
func (Repository) isItem()    {}

// FullName returns owner/name.
func (r Repository) FullName() string { return r.Owner + "/" + r.Name }

// Line is a matching source line.
type Line struct {
	Number  int
	Content string
}

// Code is a file hit with its matching lines in file order.
type Code struct {
	ID            string
	FileName      string
	Path          string
	Repository    string
	Owner         string
	Language      string
	MatchingLines []Line
}

// Kind implements Item.
func (Code) Kind() Kind { return KindCode }
func (Code) isItem()    {}

// FullPath returns the file path inside the repository.
func (c Code) FullPath() string {
	if c.Path == "" {
		return c.FileName
	}
	return c.Path + "/" + c.FileName
}

// User is a user hit.
type User struct {
	ID              string
	Username        string
	FullName        string
	AvatarURL       string
	RepositoryCount int
}

// Kind implements Item.
func (User) Kind() Kind { return KindUser }
func (User) isItem()    {}

// Count tallies items per kind.
func Count(items []Item) map[Kind]int {
	counts := make(map[Kind]int, 3)
	for _, it := range items {
		counts[it.Kind()]++
	}
	return counts
}

// Repositories extracts the repository items, preserving order.
func Repositories(items []Item) []Repository {
	var out []Repository
	for _, it := range items {
		if r, ok := it.(Repository); ok {
			out = append(out, r)
		}
	}
	return out
}

var extLanguages = map[string]string{
	".ts":   "TypeScript",
	".tsx":  "TypeScript",
	".js":   "JavaScript",
	".jsx":  "JavaScript",
	".py":   "Python",
	".go":   "Go",
	".rs":   "Rust",
	".java": "Java",
	".cs":   "C#",
	".php":  "PHP",
	".rb":   "Ruby",
	".md":   "Markdown",
}

// LanguageForFile guesses a language from a file extension ("" if unknown).
func LanguageForFile(name string) string {
	return extLanguages[strings.ToLower(path.Ext(name))]
}

// ExtensionsFor returns the known file extensions of a language, in stable order.
func ExtensionsFor(language string) []string {
	var exts []string
	for _, ext := range []string{".ts", ".tsx", ".js", ".jsx", ".py", ".go", ".rs", ".java", ".cs", ".php", ".rb", ".md"} {
		if strings.EqualFold(extLanguages[ext], language) {
			exts = append(exts, ext)
		}
	}
	return exts
}
