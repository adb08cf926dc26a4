package file

import (
	"fmt"
	"path"
	"strings"

	"github.com/kailas-cloud/bitsync/internal/domain/search/result"
)

// MaxContentSize is the maximum file content size in bytes.
const MaxContentSize = 163840 // 160KB

// MaxMatchingLines caps the lines reported per code hit.
const MaxMatchingLines = 5

// File is a source file stored in a repository (immutable value object).
type File struct {
	id         string
	path       string
	repository string
	owner      string
	content    string
}

// New validates and creates a File. filePath is repository-relative ("src/utils/index.ts").
func New(id, filePath, repository, owner, content string) (File, error) {
	if id == "" {
		return File{}, fmt.Errorf("file ID is required")
	}
	filePath = strings.Trim(path.Clean("/"+filePath), "/")
	if filePath == "" {
		return File{}, fmt.Errorf("file path is required")
	}
	if repository == "" || owner == "" {
		return File{}, fmt.Errorf("file must belong to a repository")
	}
	if len(content) > MaxContentSize {
		return File{}, fmt.Errorf("content too large (max %d bytes)", MaxContentSize)
	}
	return File{id: id, path: filePath, repository: repository, owner: owner, content: content}, nil
}

// ID returns the file identifier.
func (f *File) ID() string { return f.id }

// Path returns the repository-relative path including the file name.
func (f *File) Path() string { return f.path }

// Name returns the base file name.
func (f *File) Name() string { return path.Base(f.path) }

// Dir returns the directory part of the path, "" at the repository root.
func (f *File) Dir() string {
	d := path.Dir(f.path)
	if d == "." {
		return ""
	}
	return d
}

// Repository returns the owning repository name.
func (f *File) Repository() string { return f.repository }

// Owner returns the repository owner.
func (f *File) Owner() string { return f.owner }

// Content returns the file text.
func (f *File) Content() string { return f.content }

// Language derives the language from the file extension.
func (f *File) Language() string { return result.LanguageForFile(f.Name()) }

// MatchLines returns up to limit lines containing query, case-insensitively,
// numbered from 1 in file order.
func (f *File) MatchLines(query string, limit int) []result.Line {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" || limit <= 0 {
		return nil
	}
	var lines []result.Line
	for i, line := range strings.Split(f.content, "\n") {
		if !strings.Contains(strings.ToLower(line), q) {
			continue
		}
		lines = append(lines, result.Line{Number: i + 1, Content: strings.TrimRight(line, "\r")})
		if len(lines) == limit {
			break
		}
	}
	return lines
}

// Hit renders the file as a code result for query. ok is false when no line matches.
func (f *File) Hit(query string) (result.Code, bool) {
	lines := f.MatchLines(query, MaxMatchingLines)
	if len(lines) == 0 {
		return result.Code{}, false
	}
	return result.Code{
		ID:            f.id,
		FileName:      f.Name(),
		Path:          f.Dir(),
		Repository:    f.repository,
		Owner:         f.owner,
		Language:      f.Language(),
		MatchingLines: lines,
	}, true
}
