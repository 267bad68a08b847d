// Package places resolves free-text queries into candidate locations through an
// external geocoding collaborator.
package places

import (
	"context"
	"log/slog"
	"strings"

	"github.com/i474232898/weather-lookup/internal/apperror"
	"github.com/i474232898/weather-lookup/internal/result"
	"github.com/i474232898/weather-lookup/internal/weather"
)

// Prediction is a ranked candidate returned by a query.
type Prediction struct {
	PlaceID string
	Text    string
	// ref is finder-specific lookup data for the detail call.
	ref string
}

// Finder is the place search collaborator: ranked predictions, then a detail fetch per prediction.
type Finder interface {
	Predict(ctx context.Context, query string) ([]Prediction, error)
	// Details returns nil when the prediction cannot be resolved to coordinates.
	Details(ctx context.Context, p Prediction) (*weather.PlaceSearchResult, error)
}

// Repository runs searches against a Finder.
type Repository struct {
	finder Finder
	logger *slog.Logger
}

func NewRepository(finder Finder, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{finder: finder, logger: logger.With("component", "places")}
}

// Search streams the resolved places for query. A blank query yields an empty success
// without calling the finder. Predictions whose details fail are skipped.
func (r *Repository) Search(ctx context.Context, query string) <-chan result.Result[[]weather.PlaceSearchResult] {
	query = strings.TrimSpace(query)
	if query == "" {
		return result.Of(result.Loading[[]weather.PlaceSearchResult](), result.Success([]weather.PlaceSearchResult{}))
	}
	return result.Stream(ctx, func(ctx context.Context) ([]weather.PlaceSearchResult, error) {
		preds, err := r.finder.Predict(ctx, query)
		if err != nil {
			ae := apperror.Wrap(apperror.KindUnknown, err)
			if ae.Message == "" {
				ae.Message = "Failed to search places"
			}
			return nil, ae
		}

		out := make([]weather.PlaceSearchResult, 0, len(preds))
		for _, p := range preds {
			place, err := r.finder.Details(ctx, p)
			if err != nil {
				r.logger.Debug("place details failed", "place_id", p.PlaceID, "error", err)
				continue
			}
			if place != nil {
				out = append(out, *place)
			}
		}
		return out, nil
	})
}
