package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/msomdec/solifound/internal/domain"
)

// AchievementRepository reads achievements granted through user_achievements.
type AchievementRepository struct {
	db *sql.DB
}

func (r *AchievementRepository) ListByUser(ctx context.Context, userID string) ([]domain.Achievement, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT a.id, a.name, a.description, ua.earned_at
		 FROM user_achievements ua
		 JOIN achievements a ON a.id = ua.achievement_id
		 WHERE ua.user_id = ?
		 ORDER BY ua.earned_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	defer rows.Close()

	var out []domain.Achievement
	for rows.Next() {
		var a domain.Achievement
		if err := rows.Scan(&a.ID, &a.Name, &a.Description, &a.EarnedAt); err != nil {
			return nil, fmt.Errorf("scan achievement: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
