package repos

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/bitsync/internal/domain"
	"github.com/kailas-cloud/bitsync/internal/domain/file"
	"github.com/kailas-cloud/bitsync/internal/domain/repo"
	"github.com/kailas-cloud/bitsync/internal/domain/search/result"
)

var ownerRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// Service handles repository creation and owner listings.
type Service struct {
	store Store
	now   func() time.Time
	newID func() string
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides repository and file ID generation.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// New creates a repository service.
func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, now: time.Now, newID: uuid.NewString}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates the form and stores a new repository with its initial files.
func (s *Service) Create(ctx context.Context, owner string, form repo.Form) (result.Repository, error) {
	if !ownerRegex.MatchString(owner) {
		return result.Repository{}, fmt.Errorf("%w: invalid owner %q", domain.ErrInvalidQuery, owner)
	}
	form = form.Normalize()
	if err := form.Validate(); err != nil {
		return result.Repository{}, fmt.Errorf("validate repository: %w", err)
	}

	now := s.now().UTC()
	r := result.Repository{
		ID:          s.newID(),
		Name:        form.Name,
		Owner:       owner,
		Description: form.Description,
		Language:    languageByGitignore[form.Gitignore],
		UpdatedAt:   now,
		IsPublic:    form.IsPublic,
	}

	files, err := s.initialFiles(r, form, now.Year())
	if err != nil {
		return result.Repository{}, err
	}

	if err := s.store.CreateRepository(ctx, r, files); err != nil {
		return result.Repository{}, fmt.Errorf("create repository: %w", err)
	}
	return r, nil
}

func (s *Service) initialFiles(r result.Repository, form repo.Form, year int) ([]file.File, error) {
	type scaffold struct{ path, body string }
	var scaffolds []scaffold
	if form.Readme {
		scaffolds = append(scaffolds, scaffold{"README.md", readmeBody(r.Name, r.Description)})
	}
	if form.Gitignore != "" {
		scaffolds = append(scaffolds, scaffold{".gitignore", gitignoreBodies[form.Gitignore]})
	}
	if form.License != "" {
		scaffolds = append(scaffolds, scaffold{"LICENSE", licenseBody(form.License, r.Owner, year)})
	}

	files := make([]file.File, 0, len(scaffolds))
	for _, sc := range scaffolds {
		f, err := file.New(s.newID(), sc.path, r.Name, r.Owner, sc.body)
		if err != nil {
			return nil, fmt.Errorf("initial file %s: %w", sc.path, err)
		}
		files = append(files, f)
	}
	return files, nil
}

// List returns owner's repositories narrowed and ordered by opts.
func (s *Service) List(ctx context.Context, owner string, opts repo.ListOptions) ([]result.Repository, error) {
	if !ownerRegex.MatchString(owner) {
		return nil, fmt.Errorf("%w: invalid owner %q", domain.ErrInvalidQuery, owner)
	}
	repos, err := s.store.ListByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list repositories: %w", err)
	}
	return opts.Apply(repos), nil
}
