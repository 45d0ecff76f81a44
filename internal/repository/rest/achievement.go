package rest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/msomdec/solifound/internal/domain"
)

// AchievementRepository reads user_achievements joined with achievements.
type AchievementRepository struct {
	c *Client
}

type achievementGrantRow struct {
	EarnedAt     time.Time `json:"earned_at"`
	Achievements struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description"`
	} `json:"achievements"`
}

func (r *AchievementRepository) ListByUser(ctx context.Context, userID string) ([]domain.Achievement, error) {
	var rows []achievementGrantRow
	err := r.c.do(ctx, request{
		method: http.MethodGet,
		path:   restPrefix + "user_achievements",
		query: url.Values{
			"select":  {"earned_at,achievements!inner(id,name,description)"},
			"user_id": {eq(userID)},
			"order":   {"earned_at.desc"},
		},
	}, &rows)
	if err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}

	out := make([]domain.Achievement, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.Achievement{
			ID:          row.Achievements.ID,
			Name:        row.Achievements.Name,
			Description: row.Achievements.Description,
			EarnedAt:    row.EarnedAt,
		})
	}
	return out, nil
}
