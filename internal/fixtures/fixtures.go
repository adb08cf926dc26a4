// Package fixtures loads sample catalog data from YAML.
package fixtures

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/bitsync/internal/domain/file"
	"github.com/kailas-cloud/bitsync/internal/domain/search/result"
)

// Seeder writes fixture data into a store.
type Seeder interface {
	Seed(ctx context.Context, repos []result.Repository, files []file.File, users []result.User) error
}

// Dataset is the on-disk fixture layout.
type Dataset struct {
	Repositories []Repository `yaml:"repositories"`
	Users        []User       `yaml:"users"`
}

// Repository is a fixture repository with its files.
type Repository struct {
	ID          string    `yaml:"id"`
	Name        string    `yaml:"name"`
	Owner       string    `yaml:"owner"`
	Description string    `yaml:"description"`
	Stars       int       `yaml:"stars"`
	Forks       int       `yaml:"forks"`
	Language    string    `yaml:"language"`
	UpdatedAt   time.Time `yaml:"updated_at"`
	Public      bool      `yaml:"public"`
	Files       []File    `yaml:"files"`
}

// File is a fixture source file.
type File struct {
	ID      string `yaml:"id"`
	Path    string `yaml:"path"`
	Content string `yaml:"content"`
}

// User is a fixture user.
type User struct {
	ID              string `yaml:"id"`
	Username        string `yaml:"username"`
	FullName        string `yaml:"full_name"`
	AvatarURL       string `yaml:"avatar_url"`
	RepositoryCount int    `yaml:"repository_count"`
}

// Load parses a fixture file.
func Load(path string) (*Dataset, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read fixtures %s: %w", path, err)
	}
	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("parse fixtures %s: %w", path, err)
	}
	return &ds, nil
}

// Domain converts the dataset into catalog values.
// File IDs default to "<repository id>-<index>".
func (ds *Dataset) Domain() ([]result.Repository, []file.File, []result.User, error) {
	repos := make([]result.Repository, 0, len(ds.Repositories))
	var files []file.File
	for _, r := range ds.Repositories {
		if r.ID == "" || r.Name == "" || r.Owner == "" {
			return nil, nil, nil, fmt.Errorf("repository %q: id, name and owner are required", r.Name)
		}
		repos = append(repos, result.Repository{
			ID:          r.ID,
			Name:        r.Name,
			Owner:       r.Owner,
			Description: r.Description,
			Stars:       r.Stars,
			Forks:       r.Forks,
			Language:    r.Language,
			UpdatedAt:   r.UpdatedAt.UTC(),
			IsPublic:    r.Public,
		})
		for i, f := range r.Files {
			id := f.ID
			if id == "" {
				id = fmt.Sprintf("%s-%d", r.ID, i)
			}
			df, err := file.New(id, f.Path, r.Name, r.Owner, f.Content)
			if err != nil {
				return nil, nil, nil, fmt.Errorf("repository %s file %q: %w", r.Name, f.Path, err)
			}
			files = append(files, df)
		}
	}

	users := make([]result.User, 0, len(ds.Users))
	for _, u := range ds.Users {
		if u.ID == "" || u.Username == "" {
			return nil, nil, nil, fmt.Errorf("user %q: id and username are required", u.Username)
		}
		users = append(users, result.User{
			ID:              u.ID,
			Username:        u.Username,
			FullName:        u.FullName,
			AvatarURL:       u.AvatarURL,
			RepositoryCount: u.RepositoryCount,
		})
	}
	return repos, files, users, nil
}

// Apply loads path and seeds it into s.
func Apply(ctx context.Context, s Seeder, path string, logger *zap.Logger) error {
	ds, err := Load(path)
	if err != nil {
		return err
	}
	repos, files, users, err := ds.Domain()
	if err != nil {
		return fmt.Errorf("fixtures %s: %w", path, err)
	}
	if err := s.Seed(ctx, repos, files, users); err != nil {
		return fmt.Errorf("seed fixtures: %w", err)
	}
	logger.Info("fixtures loaded",
		zap.String("path", path),
		zap.Int("repositories", len(repos)),
		zap.Int("files", len(files)),
		zap.Int("users", len(users)),
	)
	return nil
}
