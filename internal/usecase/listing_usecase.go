package usecase

import (
	"context"
	"sort"
	"strings"
	"time"

	"trueka/internal/domain/entity"
	"trueka/internal/infrastructure/docstore"
	"trueka/pkg/errors"
	"trueka/pkg/logger"

	ws "trueka/internal/infrastructure/websocket"
)

type ListingUseCase struct {
	store *docstore.Store
	hub   EventEmitter
}

func NewListingUseCase(store *docstore.Store, hub EventEmitter) *ListingUseCase {
	return &ListingUseCase{
		store: store,
		hub:   hub,
	}
}

type ListingInput struct {
	Title       string
	Description string
	Category    string
	Images      []string
}

func (uc *ListingUseCase) Create(ctx context.Context, ownerID string, input ListingInput) (*entity.ListingView, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, errors.BadRequest("title is required", nil)
	}

	view, err := docstore.Mutate(uc.store, func(doc *docstore.Document) (*entity.ListingView, error) {
		if _, ok := doc.Users[ownerID]; !ok {
			return nil, errors.NotFound("User", nil)
		}

		now := time.Now()
		listing := &entity.Listing{
			ID:          entity.NewID(entity.PrefixListing),
			OwnerID:     ownerID,
			Title:       strings.TrimSpace(input.Title),
			Description: input.Description,
			Category:    input.Category,
			Images:      input.Images,
			Status:      entity.ListingStatusActive,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		doc.Listings[listing.ID] = listing

		return projectListing(doc, listing), nil
	})
	if err != nil {
		return nil, err
	}

	uc.hub.Emit(ws.NewEvent(ws.EventListingCreated, view), ws.Broadcast())
	return view, nil
}

func (uc *ListingUseCase) Update(ctx context.Context, actorID, listingID string, input ListingInput) (*entity.ListingView, error) {
	view, err := docstore.Mutate(uc.store, func(doc *docstore.Document) (*entity.ListingView, error) {
		listing, ok := doc.Listings[listingID]
		if !ok {
			return nil, errors.NotFound("Listing", nil)
		}
		if listing.OwnerID != actorID {
			return nil, errors.Forbidden("only the owner can edit a listing", nil)
		}
		if listing.Status == entity.ListingStatusSold {
			return nil, errors.Conflict("a sold listing can no longer be edited")
		}

		if strings.TrimSpace(input.Title) != "" {
			listing.Title = strings.TrimSpace(input.Title)
		}
		if input.Description != "" {
			listing.Description = input.Description
		}
		if input.Category != "" {
			listing.Category = input.Category
		}
		if input.Images != nil {
			listing.Images = input.Images
		}
		listing.UpdatedAt = time.Now()

		return projectListing(doc, listing), nil
	})
	if err != nil {
		return nil, err
	}

	uc.hub.Emit(ws.NewEvent(ws.EventListingUpdated, view), ws.Broadcast())
	return view, nil
}

// ownerTransitions are the status changes a listing owner may request.
// Sold is reachable only through transaction creation.
var ownerTransitions = map[string]bool{
	entity.ListingStatusActive:     true,
	entity.ListingStatusPaused:     true,
	entity.ListingStatusRemoved:    true,
	entity.ListingStatusFinalizado: true,
}

// SetStatus applies an owner- or admin-initiated status transition.
func (uc *ListingUseCase) SetStatus(ctx context.Context, actorID, listingID, status string) (*entity.ListingView, error) {
	view, err := docstore.Mutate(uc.store, func(doc *docstore.Document) (*entity.ListingView, error) {
		listing, ok := doc.Listings[listingID]
		if !ok {
			return nil, errors.NotFound("Listing", nil)
		}
		actor, ok := doc.Users[actorID]
		if !ok {
			return nil, errors.NotFound("User", nil)
		}

		isAdmin := actor.Role == entity.RoleAdmin
		isOwner := listing.OwnerID == actorID

		switch {
		case status == entity.ListingStatusSold:
			return nil, errors.BadRequest("listings are marked sold by completing a transaction", nil)
		case status == entity.ListingStatusSuspended:
			if !isAdmin {
				return nil, errors.Forbidden("only admins can suspend a listing", nil)
			}
		case listing.Status == entity.ListingStatusSuspended:
			if !isAdmin {
				return nil, errors.Forbidden("a suspended listing can only be restored by an admin", nil)
			}
			if status != entity.ListingStatusActive {
				return nil, errors.BadRequest("a suspended listing can only be restored to active", nil)
			}
		case !ownerTransitions[status]:
			return nil, errors.BadRequest("unknown listing status: "+status, nil)
		case !isOwner && !isAdmin:
			return nil, errors.Forbidden("only the owner can change listing status", nil)
		case listing.Status == entity.ListingStatusSold:
			return nil, errors.Conflict("a sold listing can no longer change status")
		}

		listing.Status = status
		listing.UpdatedAt = time.Now()
		if isAdmin && !isOwner {
			appendAudit(doc, actorID, "listing.status", listingID, status)
		}

		return projectListing(doc, listing), nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("listing: %s status changed to %s by %s", listingID, status, actorID)
	uc.hub.Emit(ws.NewEvent(ws.EventListingUpdated, view), ws.Broadcast())
	return view, nil
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Browse returns one page of the publicly visible listings, newest first,
// plus the total visible count for pagination.
func (uc *ListingUseCase) Browse(ctx context.Context, page, pageSize int) ([]*entity.ListingView, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}

	snapshot := uc.store.Snapshot()
	views := []*entity.ListingView{}
	for _, l := range snapshot.Listings {
		if l.Visible() {
			views = append(views, projectListing(snapshot, l))
		}
	}
	sort.Slice(views, func(i, j int) bool {
		return views[i].CreatedAt.After(views[j].CreatedAt)
	})

	total := int64(len(views))
	start := (page - 1) * pageSize
	if start >= len(views) {
		return []*entity.ListingView{}, total, nil
	}
	end := start + pageSize
	if end > len(views) {
		end = len(views)
	}
	return views[start:end], total, nil
}

func (uc *ListingUseCase) GetByID(ctx context.Context, listingID string) (*entity.ListingView, error) {
	snapshot := uc.store.Snapshot()
	listing, ok := snapshot.Listings[listingID]
	if !ok {
		return nil, errors.NotFound("Listing", nil)
	}
	return projectListing(snapshot, listing), nil
}

func (uc *ListingUseCase) ListByOwner(ctx context.Context, ownerID string) ([]*entity.ListingView, error) {
	snapshot := uc.store.Snapshot()
	views := []*entity.ListingView{}
	for _, l := range snapshot.Listings {
		if l.OwnerID == ownerID {
			views = append(views, projectListing(snapshot, l))
		}
	}
	sort.Slice(views, func(i, j int) bool {
		return views[i].CreatedAt.After(views[j].CreatedAt)
	})
	return views, nil
}

// projectListing enriches a raw listing with its owner's public summary so
// event consumers never see the bare stored record. The listing is copied:
// views built inside a mutation must not leak live graph references.
func projectListing(doc *docstore.Document, listing *entity.Listing) *entity.ListingView {
	clone := *listing
	clone.Images = append([]string(nil), listing.Images...)
	view := &entity.ListingView{Listing: &clone}
	if owner, ok := doc.Users[listing.OwnerID]; ok {
		view.Owner = owner.Summary()
	}
	return view
}
