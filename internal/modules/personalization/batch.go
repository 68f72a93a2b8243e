package personalization

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/neurobridge-personalization/internal/platform/apierr"
	"github.com/yungbote/neurobridge-personalization/internal/platform/ctxutil"
	"github.com/yungbote/neurobridge-personalization/internal/platform/dbctx"
)

// ActiveUsers lists users with usage events inside the window. Service callers only.
func (u Usecases) ActiveUsers(ctx context.Context, window time.Duration, limit int) ([]uuid.UUID, error) {
	if rd := ctxutil.GetRequestData(ctx); rd == nil || rd.Role != ctxutil.RoleService {
		return nil, apierr.NotFound("not_found", nil)
	}
	if window <= 0 {
		return nil, apierr.InvalidInput("invalid_window", fmt.Errorf("window must be positive"))
	}
	ids, err := u.deps.Usage.ListActiveUserIDs(dbctx.Context{Ctx: ctx}, u.now().Add(-window), limit)
	if err != nil {
		return nil, internal("list_active_users", err)
	}
	return ids, nil
}

// RefreshUser re-runs insight analysis and the achievement check for one user.
func (u Usecases) RefreshUser(ctx context.Context, userID uuid.UUID) error {
	if _, err := u.AnalyzeInsights(ctx, userID); err != nil {
		return fmt.Errorf("analyze insights: %w", err)
	}
	if _, err := u.CheckAchievements(ctx, userID, nil); err != nil {
		return fmt.Errorf("check achievements: %w", err)
	}
	return nil
}
