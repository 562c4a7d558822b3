package user

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"meytle/internal/app/commands"
	"meytle/internal/app/dto"
	"meytle/internal/app/uow"
	domainaudit "meytle/internal/domain/audit"
	domainuser "meytle/internal/domain/user"
)

const setBlockedKey = "user.set_blocked"

var ErrUnitOfWorkRequired = errors.New("user: unit of work required")

// SetBlockedCommand toggles a user's access. Blocking revokes the user's
// sessions on the next token lookup; unblocking restores sign-in. The HTTP
// layer restricts it to admins.
type SetBlockedCommand struct {
	UserID  string
	ActorID string
	Blocked bool
	Origin  string
}

func (c SetBlockedCommand) Key() string { return setBlockedKey }

type SetBlockedHandler struct {
	UoWFactory uow.UoWFactory
	// Audit is appended outside the transaction; a failed append never
	// rolls back the block itself.
	Audit  domainaudit.Repository
	Logger *slog.Logger
}

func (h *SetBlockedHandler) Handle(ctx context.Context, cmd SetBlockedCommand) (dto.UserProfile, error) {
	unit, ok := uow.FromContext(ctx)
	managed := false
	committed := false
	if !ok {
		if h.UoWFactory == nil {
			return dto.UserProfile{}, ErrUnitOfWorkRequired
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{})
		if err != nil {
			return dto.UserProfile{}, err
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

	userID := domainuser.ID(cmd.UserID)
	user, err := unit.Users().ByID(ctx, userID)
	if err != nil {
		return dto.UserProfile{}, err
	}

	wasBlocked := user.Blocked
	user.SetBlocked(cmd.Blocked, time.Now().UTC())
	if err := unit.Users().Save(ctx, user); err != nil {
		return dto.UserProfile{}, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return dto.UserProfile{}, err
		}
		committed = true
	}

	if wasBlocked != user.Blocked {
		h.appendAudit(ctx, cmd, wasBlocked, user.Blocked)
	}
	if h.Logger != nil {
		h.Logger.Info("user block changed", "user_id", userID, "blocked", user.Blocked)
	}
	return dto.MapUserProfile(user), nil
}

func (h *SetBlockedHandler) appendAudit(ctx context.Context, cmd SetBlockedCommand, was, now bool) {
	if h.Audit == nil {
		return
	}
	oldSnapshot, _ := json.Marshal(map[string]bool{"blocked": was})
	newSnapshot, _ := json.Marshal(map[string]bool{"blocked": now})
	record := domainaudit.Record{
		ID:          uuid.NewString(),
		Kind:        domainaudit.KindUserBlockChanged,
		ActorID:     domainuser.ID(cmd.ActorID),
		SubjectID:   domainuser.ID(cmd.UserID),
		Origin:      cmd.Origin,
		OldSnapshot: oldSnapshot,
		NewSnapshot: newSnapshot,
		CreatedAt:   time.Now().UTC(),
	}
	if err := h.Audit.Append(ctx, record); err != nil && h.Logger != nil {
		h.Logger.Warn("block audit append failed", "user_id", cmd.UserID, "error", err)
	}
}

var _ commands.Handler[SetBlockedCommand, dto.UserProfile] = (*SetBlockedHandler)(nil)
