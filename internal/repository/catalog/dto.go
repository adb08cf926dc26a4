package catalog

import (
	"fmt"
	"strconv"
	"time"

	"github.com/kailas-cloud/bitsync/internal/domain/file"
	"github.com/kailas-cloud/bitsync/internal/domain/search/result"
)

// Hash field names shared by the index definitions and the DTOs.
const (
	fieldID          = "id"
	fieldName        = "name"
	fieldOwner       = "owner"
	fieldDescription = "description"
	fieldStars       = "stars"
	fieldForks       = "forks"
	fieldLanguage    = "language"
	fieldUpdatedAt   = "updated_at"
	fieldPublic      = "public"

	fieldPath       = "path"
	fieldRepository = "repository"
	fieldContent    = "content"

	fieldUsername  = "username"
	fieldFullName  = "full_name"
	fieldAvatarURL = "avatar_url"
	fieldRepoCount = "repository_count"
)

func boolTag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// repoToHash converts a repository to a map for HSET.
func repoToHash(r result.Repository) map[string]string {
	return map[string]string{
		fieldID:          r.ID,
		fieldName:        r.Name,
		fieldOwner:       r.Owner,
		fieldDescription: r.Description,
		fieldStars:       strconv.Itoa(r.Stars),
		fieldForks:       strconv.Itoa(r.Forks),
		fieldLanguage:    r.Language,
		fieldUpdatedAt:   strconv.FormatInt(r.UpdatedAt.Unix(), 10),
		fieldPublic:      boolTag(r.IsPublic),
	}
}

// repoFromHash hydrates a repository from an HGETALL or FT.SEARCH field map.
func repoFromHash(m map[string]string) (result.Repository, error) {
	stars, err := atoiOrZero(m[fieldStars])
	if err != nil {
		return result.Repository{}, fmt.Errorf("invalid stars: %w", err)
	}
	forks, err := atoiOrZero(m[fieldForks])
	if err != nil {
		return result.Repository{}, fmt.Errorf("invalid forks: %w", err)
	}
	updated, err := strconv.ParseInt(m[fieldUpdatedAt], 10, 64)
	if err != nil {
		return result.Repository{}, fmt.Errorf("invalid updated_at: %w", err)
	}
	return result.Repository{
		ID:          m[fieldID],
		Name:        m[fieldName],
		Owner:       m[fieldOwner],
		Description: m[fieldDescription],
		Stars:       stars,
		Forks:       forks,
		Language:    m[fieldLanguage],
		UpdatedAt:   time.Unix(updated, 0).UTC(),
		IsPublic:    m[fieldPublic] == "1",
	}, nil
}

// fileToHash converts a file to a map for HSET.
func fileToHash(f file.File) map[string]string {
	return map[string]string{
		fieldID:         f.ID(),
		fieldPath:       f.Path(),
		fieldRepository: f.Repository(),
		fieldOwner:      f.Owner(),
		fieldLanguage:   f.Language(),
		fieldContent:    f.Content(),
	}
}

// fileFromHash hydrates a file from an FT.SEARCH field map.
func fileFromHash(m map[string]string) (file.File, error) {
	f, err := file.New(m[fieldID], m[fieldPath], m[fieldRepository], m[fieldOwner], m[fieldContent])
	if err != nil {
		return file.File{}, fmt.Errorf("invalid file: %w", err)
	}
	return f, nil
}

// userToHash converts a user to a map for HSET.
func userToHash(u result.User) map[string]string {
	return map[string]string{
		fieldID:        u.ID,
		fieldUsername:  u.Username,
		fieldFullName:  u.FullName,
		fieldAvatarURL: u.AvatarURL,
		fieldRepoCount: strconv.Itoa(u.RepositoryCount),
	}
}

// userFromHash hydrates a user from an FT.SEARCH field map.
func userFromHash(m map[string]string) (result.User, error) {
	n, err := atoiOrZero(m[fieldRepoCount])
	if err != nil {
		return result.User{}, fmt.Errorf("invalid repository_count: %w", err)
	}
	return result.User{
		ID:              m[fieldID],
		Username:        m[fieldUsername],
		FullName:        m[fieldFullName],
		AvatarURL:       m[fieldAvatarURL],
		RepositoryCount: n,
	}, nil
}

func atoiOrZero(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("parse int: %w", err)
	}
	return n, nil
}
