package usecase

import (
	"context"
	"strings"
	"time"

	"trueka/internal/domain/entity"
	"trueka/internal/infrastructure/docstore"
	"trueka/pkg/errors"
	"trueka/pkg/logger"

	ws "trueka/internal/infrastructure/websocket"
)

type UserUseCase struct {
	store *docstore.Store
	hub   EventEmitter
}

func NewUserUseCase(store *docstore.Store, hub EventEmitter) *UserUseCase {
	return &UserUseCase{
		store: store,
		hub:   hub,
	}
}

func (uc *UserUseCase) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	snapshot := uc.store.Snapshot()
	user, ok := snapshot.Users[userID]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	return user.Public(), nil
}

func (uc *UserUseCase) GetPublicProfile(ctx context.Context, userID string) (*entity.UserSummary, error) {
	snapshot := uc.store.Snapshot()
	user, ok := snapshot.Users[userID]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	summary := user.Summary()
	return &summary, nil
}

type UpdateProfileInput struct {
	DisplayName string
	Bio         string
	AvatarURL   string
}

func (uc *UserUseCase) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*entity.User, error) {
	return docstore.Mutate(uc.store, func(doc *docstore.Document) (*entity.User, error) {
		user, ok := doc.Users[userID]
		if !ok {
			return nil, errors.NotFound("User", nil)
		}

		if name := strings.TrimSpace(input.DisplayName); name != "" {
			user.DisplayName = name
		}
		user.Bio = input.Bio
		if input.AvatarURL != "" {
			user.AvatarURL = input.AvatarURL
		}
		user.UpdatedAt = time.Now()

		return user.Public(), nil
	})
}

// Block adds a directed block from owner to target. Already-blocked is a
// no-op so the operation is retry-safe.
func (uc *UserUseCase) Block(ctx context.Context, ownerID, targetID string) error {
	if ownerID == targetID {
		return errors.BadRequest("you cannot block yourself", nil)
	}

	return uc.store.Update(func(doc *docstore.Document) error {
		if _, ok := doc.Users[targetID]; !ok {
			return errors.NotFound("User", nil)
		}
		if doc.BlockBy(ownerID, targetID) != nil {
			return nil
		}

		block := &entity.Block{
			ID:        entity.NewID(entity.PrefixBlock),
			OwnerID:   ownerID,
			TargetID:  targetID,
			CreatedAt: time.Now(),
		}
		doc.Blocks[block.ID] = block
		logger.Info("user: %s blocked %s", ownerID, targetID)
		return nil
	})
}

func (uc *UserUseCase) Unblock(ctx context.Context, ownerID, targetID string) error {
	return uc.store.Update(func(doc *docstore.Document) error {
		block := doc.BlockBy(ownerID, targetID)
		if block == nil {
			return errors.NotFound("Block", nil)
		}
		delete(doc.Blocks, block.ID)
		return nil
	})
}

func (uc *UserUseCase) ListBlocked(ctx context.Context, ownerID string) ([]*entity.UserSummary, error) {
	snapshot := uc.store.Snapshot()
	blocked := []*entity.UserSummary{}
	for _, b := range snapshot.Blocks {
		if b.OwnerID != ownerID {
			continue
		}
		if target, ok := snapshot.Users[b.TargetID]; ok {
			summary := target.Summary()
			blocked = append(blocked, &summary)
		}
	}
	return blocked, nil
}

// SubmitVerification moves the caller into the pending verification state.
func (uc *UserUseCase) SubmitVerification(ctx context.Context, userID string) error {
	err := uc.store.Update(func(doc *docstore.Document) error {
		user, ok := doc.Users[userID]
		if !ok {
			return errors.NotFound("User", nil)
		}
		if user.VerificationStatus == entity.VerificationVerified {
			return errors.Conflict("account is already verified")
		}
		if user.VerificationStatus == entity.VerificationPending {
			return errors.Conflict("verification is already pending")
		}

		user.VerificationStatus = entity.VerificationPending
		user.UpdatedAt = time.Now()
		appendAudit(doc, userID, "verification.submitted", userID, "")
		return nil
	})
	if err != nil {
		return err
	}

	uc.emitVerificationChanged(userID, entity.VerificationPending)
	return nil
}

// DecideVerification lets an admin approve or reject a pending request.
func (uc *UserUseCase) DecideVerification(ctx context.Context, adminID, userID string, approve bool) error {
	status := entity.VerificationRejected
	if approve {
		status = entity.VerificationVerified
	}

	err := uc.store.Update(func(doc *docstore.Document) error {
		admin, ok := doc.Users[adminID]
		if !ok || admin.Role != entity.RoleAdmin {
			return errors.Forbidden("admin access required", nil)
		}
		user, ok := doc.Users[userID]
		if !ok {
			return errors.NotFound("User", nil)
		}
		if user.VerificationStatus != entity.VerificationPending {
			return errors.Conflict("no pending verification for this user")
		}

		user.VerificationStatus = status
		user.UpdatedAt = time.Now()
		appendAudit(doc, adminID, "verification.decided", userID, status)
		return nil
	})
	if err != nil {
		return err
	}

	uc.emitVerificationChanged(userID, status)
	return nil
}

// RecomputeReputation rebuilds the derived reputation summary from the
// transaction and swap records.
func (uc *UserUseCase) RecomputeReputation(ctx context.Context, userID string) (*entity.UserSummary, error) {
	return docstore.Mutate(uc.store, func(doc *docstore.Document) (*entity.UserSummary, error) {
		user, ok := doc.Users[userID]
		if !ok {
			return nil, errors.NotFound("User", nil)
		}
		recomputeReputation(doc, userID)
		summary := user.Summary()
		return &summary, nil
	})
}

func (uc *UserUseCase) emitVerificationChanged(userID, status string) {
	uc.hub.Emit(ws.NewEvent(ws.EventVerificationChanged, map[string]string{
		"user_id":    userID,
		"status":     status,
		"changed_at": time.Now().UTC().Format(time.RFC3339),
	}), ws.ToIdentities(userID))
}

// recomputeReputation derives the reputation counters for one user from the
// graph. Called inside a mutation.
func recomputeReputation(doc *docstore.Document, userID string) {
	user, ok := doc.Users[userID]
	if !ok {
		return
	}

	sales := 0
	for _, tx := range doc.Transactions {
		if tx.SellerID == userID {
			sales++
		}
	}
	swaps := 0
	for _, s := range doc.Swaps {
		if s.Status == entity.SwapStatusAccepted && (s.SenderID == userID || s.ReceiverID == userID) {
			swaps++
		}
	}

	user.SalesCount = sales
	user.SwapsCount = swaps
}

func appendAudit(doc *docstore.Document, actorID, action, targetID, detail string) {
	doc.Audit = append(doc.Audit, &entity.AuditEntry{
		ID:        entity.NewID(entity.PrefixAudit),
		ActorID:   actorID,
		Action:    action,
		TargetID:  targetID,
		Detail:    detail,
		CreatedAt: time.Now(),
	})
}
