package companion

import (
	"context"

	"meytle/internal/app/dto"
	handlersupport "meytle/internal/app/handlers/support"
	"meytle/internal/app/queries"
	"meytle/internal/app/uow"
	domainuser "meytle/internal/domain/user"
	"meytle/internal/domain/shared/fault"
)

const (
	getCompanionKey     = "companion.get"
	browseCompanionsKey = "companion.browse"
)

// GetCompanionQuery loads one companion's public profile. Unapproved profiles
// are only visible to their owner and to admins.
type GetCompanionQuery struct {
	CompanionID string
	ViewerID    string
	ViewerAdmin bool
}

func (q GetCompanionQuery) Key() string { return getCompanionKey }

type GetCompanionHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetCompanionHandler) Handle(ctx context.Context, q GetCompanionQuery) (dto.CompanionProfile, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.CompanionProfile{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	profile, err := unit.Companions().ByID(execCtx, domainuser.ID(q.CompanionID))
	if err != nil {
		return dto.CompanionProfile{}, err
	}
	ownView := q.ViewerID != "" && domainuser.ID(q.ViewerID) == profile.ID
	if !profile.Bookable() && !ownView && !q.ViewerAdmin {
		return dto.CompanionProfile{}, fault.NotFound("companion")
	}
	return dto.MapCompanionProfile(profile), nil
}

// BrowseCompanionsQuery pages the public companion directory.
type BrowseCompanionsQuery struct {
	Limit  int
	Offset int
	// IncludeAll lets admins see pending and inactive profiles too.
	IncludeAll bool
}

func (q BrowseCompanionsQuery) Key() string { return browseCompanionsKey }

type BrowseCompanionsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *BrowseCompanionsHandler) Handle(ctx context.Context, q BrowseCompanionsQuery) (dto.CompanionCollection, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.CompanionCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	profiles, total, err := unit.Companions().List(execCtx, !q.IncludeAll, limit, offset)
	if err != nil {
		return dto.CompanionCollection{}, err
	}
	return dto.MapCompanionCollection(profiles, total), nil
}

var _ queries.Handler[GetCompanionQuery, dto.CompanionProfile] = (*GetCompanionHandler)(nil)
var _ queries.Handler[BrowseCompanionsQuery, dto.CompanionCollection] = (*BrowseCompanionsHandler)(nil)
