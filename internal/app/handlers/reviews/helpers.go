package reviews

import (
	"context"
	"time"

	"meytle/internal/app/uow"
	domainreviews "meytle/internal/domain/reviews"
	domainuser "meytle/internal/domain/user"
)

func recalculateCompanionRating(ctx context.Context, unit uow.UnitOfWork, companionID domainuser.ID, now time.Time) error {
	reviews, _, err := unit.Reviews().ListByReviewee(ctx, companionID, 0, 0)
	if err != nil {
		return err
	}
	average := domainreviews.Average(reviews)

	profile, err := unit.Companions().ByID(ctx, companionID)
	if err != nil {
		return err
	}
	profile.UpdateRating(average, len(reviews), now)
	return unit.Companions().Save(ctx, profile)
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 100 {
		return 100
	}
	return limit
}
