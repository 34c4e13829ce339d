package ai

import (
	"context"
	"errors"

	"omnitask/backend/internal/models"
)

var ErrDisabled = errors.New("ai coaching is disabled")

// DisabledCoach stands in when no API key is configured. Every call fails
// with ErrDisabled, which handlers already treat as a silent no-op.
type DisabledCoach struct{}

func (DisabledCoach) BreakDownTask(ctx context.Context, title, description string) ([]string, error) {
	return nil, ErrDisabled
}

func (DisabledCoach) CoachingInsight(ctx context.Context, tasks []models.Task) (models.Insight, error) {
	return models.Insight{}, ErrDisabled
}
