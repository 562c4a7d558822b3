package companion

import (
	"context"
	"log/slog"
	"time"

	"meytle/internal/app/commands"
	"meytle/internal/app/dto"
	"meytle/internal/app/outbox"
	"meytle/internal/app/uow"
	domainuser "meytle/internal/domain/user"
)

const decideApplicationKey = "companion.decide"

// DecideApplicationCommand resolves a pending companion application. The HTTP
// layer restricts it to admins.
type DecideApplicationCommand struct {
	CompanionID string
	Approve     bool
	Reason      string
}

func (c DecideApplicationCommand) Key() string { return decideApplicationKey }

type DecideApplicationHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *DecideApplicationHandler) Handle(ctx context.Context, cmd DecideApplicationCommand) (dto.CompanionProfile, error) {
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

	companionID := domainuser.ID(cmd.CompanionID)
	profile, err := unit.Companions().ByID(ctx, companionID)
	if err != nil {
		return dto.CompanionProfile{}, err
	}

	now := time.Now().UTC()
	if cmd.Approve {
		if err := profile.Approve(now); err != nil {
			return dto.CompanionProfile{}, err
		}
		user, err := unit.Users().ByID(ctx, companionID)
		if err != nil {
			return dto.CompanionProfile{}, err
		}
		if err := user.EnsureRole(domainuser.RoleCompanion, now); err != nil {
			return dto.CompanionProfile{}, err
		}
		if err := unit.Users().Save(ctx, user); err != nil {
			return dto.CompanionProfile{}, err
		}
	} else {
		if err := profile.Reject(cmd.Reason, now); err != nil {
			return dto.CompanionProfile{}, err
		}
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
		h.Logger.Info("companion application decided", "companion_id", companionID, "approved", cmd.Approve)
	}
	return dto.MapCompanionProfile(profile), nil
}

func (h *DecideApplicationHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[DecideApplicationCommand, dto.CompanionProfile] = (*DecideApplicationHandler)(nil)
