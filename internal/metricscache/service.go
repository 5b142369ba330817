package metricscache

import (
	"context"

	"github.com/insightboard/insightboard/internal/models"
)

// Service is the serving-path view of the cache. It never writes.
type Service struct {
	repo Repository
}

func NewService(r Repository) *Service {
	return &Service{repo: r}
}

// GetForUser returns metric key -> value for userID. An empty map means the
// worker has not produced anything for this user yet.
func (s *Service) GetForUser(ctx context.Context, userID int64) (map[string]models.MetricValue, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]models.MetricValue, len(rows))
	for _, m := range rows {
		out[m.Key] = m.Value
	}
	return out, nil
}
