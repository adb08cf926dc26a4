package outcome

import (
	"errors"
	"fmt"

	"github.com/kailas-cloud/bitsync/internal/domain"
	"github.com/kailas-cloud/bitsync/internal/domain/search/category"
	"github.com/kailas-cloud/bitsync/internal/domain/search/result"
	"github.com/kailas-cloud/bitsync/pkg/api"
)

// Status is the displayable state of one pipeline run.
type Status string

// Status constants.
const (
	StatusIdle    Status = "idle"
	StatusResults Status = "results"
	StatusEmpty   Status = "empty"
	StatusFailed  Status = "failed"
)

// User-facing messages.
const (
	IdleMessage    = api.IdleMessage
	FailedMessage  = api.FailedMessage
	TimeoutMessage = api.TimeoutMessage
)

// Suggestions shown when a query matched nothing.
var refineSuggestions = []string{
	"Check the spelling of your search term",
	"Try using different keywords",
	"Try searching in a different category",
	"Use fewer or more general keywords",
}

// Outcome is what the screen renders for one query.
type Outcome struct {
	Status      Status
	Items       []result.Item
	Message     string
	Suggestions []string
}

// Idle is the outcome of a blank query.
func Idle() Outcome {
	return Outcome{Status: StatusIdle, Message: IdleMessage}
}

// FromItems classifies a successful run as results or empty.
func FromItems(query string, c category.Category, items []result.Item) Outcome {
	if len(items) == 0 {
		return Outcome{
			Status:      StatusEmpty,
			Message:     fmt.Sprintf("We couldn't find any matches for %q in %s.", query, c),
			Suggestions: append([]string(nil), refineSuggestions...),
		}
	}
	return Outcome{Status: StatusResults, Items: items}
}

// Failed turns a pipeline error into a retry prompt.
func Failed(err error) Outcome {
	msg := FailedMessage
	if errors.Is(err, domain.ErrQueryTimeout) {
		msg = TimeoutMessage
	}
	return Outcome{Status: StatusFailed, Message: msg}
}

// Total is the number of items in the outcome.
func (o Outcome) Total() int { return len(o.Items) }
