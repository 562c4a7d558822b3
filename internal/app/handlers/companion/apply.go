package companion

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"meytle/internal/app/commands"
	"meytle/internal/app/dto"
	"meytle/internal/app/outbox"
	"meytle/internal/app/uow"
	domaincompanion "meytle/internal/domain/companion"
	domainuser "meytle/internal/domain/user"
	"meytle/internal/domain/shared/fault"
)

const applyKey = "companion.apply"

var ErrUnitOfWorkRequired = errors.New("companion: unit of work required")

// ApplyCommand opens a companion application for an existing user.
type ApplyCommand struct {
	ApplicantID string
	DisplayName string
	Bio         string
	City        string
	Services    []string
	Languages   []string
}

func (c ApplyCommand) Key() string { return applyKey }

type ApplyHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *ApplyHandler) Handle(ctx context.Context, cmd ApplyCommand) (dto.CompanionProfile, error) {
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

	applicantID := domainuser.ID(cmd.ApplicantID)
	if _, err := unit.Users().ByID(ctx, applicantID); err != nil {
		return dto.CompanionProfile{}, err
	}
	if existing, err := unit.Companions().ByID(ctx, applicantID); err == nil && existing != nil {
		return dto.CompanionProfile{}, fault.Conflictf("user %s already has a companion profile", applicantID)
	} else if err != nil && !errors.Is(err, domaincompanion.ErrNotFound) {
		return dto.CompanionProfile{}, err
	}

	profile, err := domaincompanion.Apply(domaincompanion.ApplyParams{
		ID:          applicantID,
		DisplayName: cmd.DisplayName,
		Bio:         cmd.Bio,
		City:        cmd.City,
		Services:    cmd.Services,
		Languages:   cmd.Languages,
		Now:         time.Now(),
	})
	if err != nil {
		return dto.CompanionProfile{}, err
	}
	if err := unit.Companions().Save(ctx, profile); err != nil {
		return dto.CompanionProfile{}, err
	}
	if err := outbox.Stage(ctx, h.Outbox, h.encoder(), &profile.EventRecorder); err != nil {
		return dto.CompanionProfile{}, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return dto.CompanionProfile{}, err
		}
		committed = true
	}

	if h.Logger != nil {
		h.Logger.Info("companion application submitted", "user_id", applicantID)
	}
	return dto.MapCompanionProfile(profile), nil
}

func (h *ApplyHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[ApplyCommand, dto.CompanionProfile] = (*ApplyHandler)(nil)
