package chi

import (
	"github.com/kailas-cloud/bitsync/internal/domain/search/outcome"
	"github.com/kailas-cloud/bitsync/internal/domain/search/request"
	"github.com/kailas-cloud/bitsync/internal/domain/search/result"
	"github.com/kailas-cloud/bitsync/pkg/api"
)

func searchResponseToAPI(req *request.Request, out outcome.Outcome) api.SearchResponse {
	items := make([]api.Item, 0, len(out.Items))
	for _, it := range out.Items {
		items = append(items, itemToAPI(it))
	}
	return api.SearchResponse{
		Query:       req.Text(),
		Category:    api.Category(req.Category()),
		Status:      api.SearchStatus(out.Status),
		Total:       out.Total(),
		Items:       items,
		Message:     out.Message,
		Suggestions: out.Suggestions,
	}
}

func itemToAPI(it result.Item) api.Item {
	switch v := it.(type) {
	case result.Repository:
		r := repositoryToAPI(v)
		return api.Item{Repository: &r}
	case result.Code:
		lines := make([]api.Line, len(v.MatchingLines))
		for i, l := range v.MatchingLines {
			lines[i] = api.Line{LineNumber: l.Number, Content: l.Content}
		}
		return api.Item{Code: &api.CodeMatch{
			ID:            v.ID,
			Name:          v.FileName,
			Path:          v.Path,
			Repository:    v.Repository,
			Owner:         v.Owner,
			Language:      v.Language,
			MatchingLines: lines,
		}}
	case result.User:
		return api.Item{User: &api.User{
			ID:              v.ID,
			Username:        v.Username,
			FullName:        v.FullName,
			AvatarURL:       v.AvatarURL,
			RepositoryCount: v.RepositoryCount,
		}}
	default:
		panic("unhandled result item type")
	}
}

func repositoryToAPI(r result.Repository) api.Repository {
	return api.Repository{
		ID:          r.ID,
		Name:        r.Name,
		Owner:       r.Owner,
		Description: r.Description,
		Stars:       r.Stars,
		Forks:       r.Forks,
		Language:    r.Language,
		UpdatedAt:   r.UpdatedAt,
		IsPublic:    r.IsPublic,
	}
}

func repositoriesToAPI(repos []result.Repository) []api.Repository {
	out := make([]api.Repository, len(repos))
	for i, r := range repos {
		out[i] = repositoryToAPI(r)
	}
	return out
}
