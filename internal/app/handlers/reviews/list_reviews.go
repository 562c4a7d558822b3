package reviews

import (
	"context"
	"log/slog"

	"meytle/internal/app/dto"
	handlersupport "meytle/internal/app/handlers/support"
	"meytle/internal/app/queries"
	"meytle/internal/app/uow"
	domainreviews "meytle/internal/domain/reviews"
	domainuser "meytle/internal/domain/user"
)

const listCompanionReviewsKey = "reviews.companion.list"

// ListCompanionReviewsQuery retrieves reviews addressed to a companion.
type ListCompanionReviewsQuery struct {
	CompanionID string
	Limit       int
	Offset      int
}

func (q ListCompanionReviewsQuery) Key() string { return listCompanionReviewsKey }

// ListCompanionReviewsHandler loads a page of reviews plus the unpaged rating
// breakdown.
type ListCompanionReviewsHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *ListCompanionReviewsHandler) Handle(ctx context.Context, q ListCompanionReviewsQuery) (dto.ReviewCollection, error) {
	limit := normalizeLimit(q.Limit)
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ReviewCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	companionID := domainuser.ID(q.CompanionID)
	if _, err := unit.Companions().ByID(execCtx, companionID); err != nil {
		return dto.ReviewCollection{}, err
	}

	// The histogram and average cover every review, not just the page.
	all, _, err := unit.Reviews().ListByReviewee(execCtx, companionID, 0, 0)
	if err != nil {
		return dto.ReviewCollection{}, err
	}
	total := len(all)

	windowEnd := total
	if limit > 0 && offset+limit < windowEnd {
		windowEnd = offset + limit
	}
	if offset > windowEnd {
		offset = windowEnd
	}
	page := all[offset:windowEnd]

	if h.Logger != nil {
		h.Logger.Debug("companion reviews listed", "companion_id", companionID, "count", len(page), "total", total)
	}
	return dto.MapReviewCollection(page, total, domainreviews.Average(all), domainreviews.HistogramOf(all)), nil
}

var _ queries.Handler[ListCompanionReviewsQuery, dto.ReviewCollection] = (*ListCompanionReviewsHandler)(nil)
