package companion

import (
	"context"
	"strings"
	"time"

	"meytle/internal/app/commands"
	"meytle/internal/app/dto"
	"meytle/internal/app/uow"
	domaincompanion "meytle/internal/domain/companion"
	domainuser "meytle/internal/domain/user"
	"meytle/internal/domain/shared/fault"
)

const (
	updateProfileKey = "companion.update_profile"
	setActiveKey     = "companion.set_active"
	setPhotoKey      = "companion.set_photo"
)

// UpdateProfileCommand edits the companion's public details.
type UpdateProfileCommand struct {
	CompanionID string
	Bio         string
	City        string
	Services    []string
	Languages   []string
}

func (c UpdateProfileCommand) Key() string { return updateProfileKey }

// SetActiveCommand toggles whether the companion accepts new requests.
type SetActiveCommand struct {
	CompanionID string
	Active      bool
}

func (c SetActiveCommand) Key() string { return setActiveKey }

// SetPhotoCommand stores the URL of an uploaded profile photo.
type SetPhotoCommand struct {
	CompanionID string
	PhotoURL    string
}

func (c SetPhotoCommand) Key() string { return setPhotoKey }

// UpdateProfileHandler serves the self-service profile mutations.
type UpdateProfileHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *UpdateProfileHandler) Handle(ctx context.Context, cmd UpdateProfileCommand) (dto.CompanionProfile, error) {
	return h.mutate(ctx, cmd.CompanionID, func(profile *domaincompanion.Profile) {
		profile.UpdateDetails(cmd.Bio, cmd.City, cmd.Services, cmd.Languages, time.Now())
	})
}

func (h *UpdateProfileHandler) HandleSetActive(ctx context.Context, cmd SetActiveCommand) (dto.CompanionProfile, error) {
	return h.mutate(ctx, cmd.CompanionID, func(profile *domaincompanion.Profile) {
		profile.SetActive(cmd.Active, time.Now())
	})
}

func (h *UpdateProfileHandler) HandleSetPhoto(ctx context.Context, cmd SetPhotoCommand) (dto.CompanionProfile, error) {
	url := strings.TrimSpace(cmd.PhotoURL)
	if url == "" {
		return dto.CompanionProfile{}, fault.Validationf("photo_url", "photo url is required")
	}
	return h.mutate(ctx, cmd.CompanionID, func(profile *domaincompanion.Profile) {
		profile.SetPhotoURL(url, time.Now())
	})
}

func (h *UpdateProfileHandler) mutate(ctx context.Context, companionID string, apply func(*domaincompanion.Profile)) (dto.CompanionProfile, error) {
	unit, ok := uow.FromContext(ctx)
	managed := false
	committed := false
	if !ok {
		if h.UoWFactory == nil {
			return dto.CompanionProfile{}, ErrUnitOfWorkRequired
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{})
		if err != nil {
			return dto.CompanionProfile{}, err
		}
		ctx = uow.InjectUnitContext(ctx, unit)
		managed = true
	}
	if managed {
		defer func() {
			if !committed {
				_ = unit.Rollback(ctx)
			}
		}()
	}

	profile, err := unit.Companions().ByID(ctx, domainuser.ID(companionID))
	if err != nil {
		return dto.CompanionProfile{}, err
	}
	apply(profile)
	if err := unit.Companions().Save(ctx, profile); err != nil {
		return dto.CompanionProfile{}, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return dto.CompanionProfile{}, err
		}
		committed = true
	}
	return dto.MapCompanionProfile(profile), nil
}

var _ commands.Handler[UpdateProfileCommand, dto.CompanionProfile] = (*UpdateProfileHandler)(nil)
