package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"trueka/internal/domain/entity"
	"trueka/internal/infrastructure/docstore"
	"trueka/pkg/errors"
	"trueka/pkg/logger"

	ws "trueka/internal/infrastructure/websocket"
)

type SwapUseCase struct {
	store *docstore.Store
	hub   EventEmitter
}

func NewSwapUseCase(store *docstore.Store, hub EventEmitter) *SwapUseCase {
	return &SwapUseCase{
		store: store,
		hub:   hub,
	}
}

type ProposeSwapInput struct {
	ListingID       string
	ItemDescription string
	ItemImageURL    string
	Message         string
	CashAmount      float64
	CashDirection   string
}

// Propose creates a pending barter offer against a listing. The receiver is
// always the listing owner.
func (uc *SwapUseCase) Propose(ctx context.Context, senderID string, input ProposeSwapInput) (*entity.Swap, error) {
	if strings.TrimSpace(input.ItemDescription) == "" {
		return nil, errors.BadRequest("the offered item needs a description", nil)
	}
	if input.CashDirection != "" &&
		input.CashDirection != entity.CashToSender && input.CashDirection != entity.CashToReceiver {
		return nil, errors.BadRequest("cash direction must be to_sender or to_receiver", nil)
	}

	return docstore.Mutate(uc.store, func(doc *docstore.Document) (*entity.Swap, error) {
		listing, ok := doc.Listings[input.ListingID]
		if !ok {
			return nil, errors.NotFound("Listing", nil)
		}
		if listing.OwnerID == senderID {
			return nil, errors.BadRequest("you cannot propose a swap on your own listing", nil)
		}
		if _, ok := doc.Users[senderID]; !ok {
			return nil, errors.NotFound("User", nil)
		}

		now := time.Now()
		swap := &entity.Swap{
			ID:         entity.NewID(entity.PrefixSwap),
			SenderID:   senderID,
			ReceiverID: listing.OwnerID,
			ListingID:  listing.ID,
			OfferedItem: entity.OfferedItem{
				Description: strings.TrimSpace(input.ItemDescription),
				ImageURL:    input.ItemImageURL,
			},
			Message:       input.Message,
			CashAmount:    input.CashAmount,
			CashDirection: input.CashDirection,
			Status:        entity.SwapStatusPending,
			ReadBy:        []string{senderID},
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		doc.Swaps[swap.ID] = swap

		logger.Info("swap: %s proposed by %s on listing %s", swap.ID, senderID, listing.ID)
		return cloneSwap(swap), nil
	})
}

type AcceptSwapResult struct {
	Swap         *entity.Swap             `json:"swap"`
	Conversation *entity.ConversationView `json:"conversation"`
}

// Accept moves a pending swap to accepted and opens the deal thread. When no
// conversation exists for the listing and pair, one is created seeded with a
// system message summarizing the offer; when one exists but is still empty,
// the same summary is appended — either path looks identical to the
// participants.
func (uc *SwapUseCase) Accept(ctx context.Context, actorID, swapID string) (*AcceptSwapResult, error) {
	type acceptOutcome struct {
		swap   *entity.Swap
		result *conversationResult
	}

	outcome, err := docstore.Mutate(uc.store, func(doc *docstore.Document) (*acceptOutcome, error) {
		swap, ok := doc.Swaps[swapID]
		if !ok {
			return nil, errors.NotFound("Swap", nil)
		}
		if swap.ReceiverID != actorID {
			return nil, errors.Forbidden("only the receiver can accept a swap", nil)
		}
		if swap.Terminal() {
			return nil, errors.Conflict("this swap has already been " + swap.Status)
		}

		now := time.Now()
		swap.Status = entity.SwapStatusAccepted
		swap.UpdatedAt = now
		swap.MarkRead(actorID)

		conv := doc.FindConversation(swap.ListingID, swap.SenderID, swap.ReceiverID)
		if conv == nil {
			conv = &entity.Conversation{
				ID:            entity.NewID(entity.PrefixConversation),
				ListingID:     swap.ListingID,
				Participants:  []string{swap.SenderID, swap.ReceiverID},
				Messages:      []*entity.Message{},
				CreatedAt:     now,
				LastMessageAt: now,
			}
			doc.Conversations[conv.ID] = conv
			appendMessage(conv, actorID, entity.MessageKindSystem, swapSummary(swap), nil)
		} else if len(conv.Messages) == 0 {
			appendMessage(conv, actorID, entity.MessageKindSystem, swapSummary(swap), nil)
		}

		recomputeReputation(doc, swap.SenderID)
		recomputeReputation(doc, swap.ReceiverID)

		return &acceptOutcome{
			swap:   cloneSwap(swap),
			result: buildConversationResult(doc, conv),
		}, nil
	})
	if err != nil {
		return nil, err
	}

	for participantID, view := range outcome.result.views {
		uc.hub.Emit(ws.NewEvent(ws.EventConversationUpsert, view), ws.ToIdentities(participantID))
	}

	return &AcceptSwapResult{
		Swap:         outcome.swap,
		Conversation: outcome.result.views[actorID],
	}, nil
}

// Reject is receiver-only and legal only from pending.
func (uc *SwapUseCase) Reject(ctx context.Context, actorID, swapID, reason string) (*entity.Swap, error) {
	return docstore.Mutate(uc.store, func(doc *docstore.Document) (*entity.Swap, error) {
		swap, ok := doc.Swaps[swapID]
		if !ok {
			return nil, errors.NotFound("Swap", nil)
		}
		if swap.ReceiverID != actorID {
			return nil, errors.Forbidden("only the receiver can reject a swap", nil)
		}
		if swap.Terminal() {
			return nil, errors.Conflict("this swap has already been " + swap.Status)
		}

		swap.Status = entity.SwapStatusRejected
		swap.RejectReason = reason
		swap.UpdatedAt = time.Now()
		swap.MarkRead(actorID)
		return cloneSwap(swap), nil
	})
}

// Cancel is sender-only and legal only from pending.
func (uc *SwapUseCase) Cancel(ctx context.Context, actorID, swapID string) (*entity.Swap, error) {
	return docstore.Mutate(uc.store, func(doc *docstore.Document) (*entity.Swap, error) {
		swap, ok := doc.Swaps[swapID]
		if !ok {
			return nil, errors.NotFound("Swap", nil)
		}
		if swap.SenderID != actorID {
			return nil, errors.Forbidden("only the sender can cancel a swap", nil)
		}
		if swap.Terminal() {
			return nil, errors.Conflict("this swap has already been " + swap.Status)
		}

		swap.Status = entity.SwapStatusCancelled
		swap.UpdatedAt = time.Now()
		swap.MarkRead(actorID)
		return cloneSwap(swap), nil
	})
}

// MarkRead lets either party mark the proposal read; monotonic like message
// read state.
func (uc *SwapUseCase) MarkRead(ctx context.Context, actorID, swapID string) (*entity.Swap, error) {
	return docstore.Mutate(uc.store, func(doc *docstore.Document) (*entity.Swap, error) {
		swap, ok := doc.Swaps[swapID]
		if !ok {
			return nil, errors.NotFound("Swap", nil)
		}
		if swap.SenderID != actorID && swap.ReceiverID != actorID {
			return nil, errors.Forbidden("you are not part of this swap", nil)
		}
		swap.MarkRead(actorID)
		return cloneSwap(swap), nil
	})
}

// ListForUser returns swaps the user sent or received, newest first.
func (uc *SwapUseCase) ListForUser(ctx context.Context, userID string) ([]*entity.Swap, error) {
	snapshot := uc.store.Snapshot()
	swaps := []*entity.Swap{}
	for _, s := range snapshot.Swaps {
		if s.SenderID == userID || s.ReceiverID == userID {
			swaps = append(swaps, cloneSwap(s))
		}
	}
	sort.Slice(swaps, func(i, j int) bool {
		return swaps[i].CreatedAt.After(swaps[j].CreatedAt)
	})
	return swaps, nil
}

func (uc *SwapUseCase) Get(ctx context.Context, actorID, swapID string) (*entity.Swap, error) {
	snapshot := uc.store.Snapshot()
	swap, ok := snapshot.Swaps[swapID]
	if !ok {
		return nil, errors.NotFound("Swap", nil)
	}
	if swap.SenderID != actorID && swap.ReceiverID != actorID {
		return nil, errors.Forbidden("you are not part of this swap", nil)
	}
	return cloneSwap(swap), nil
}

// CompleteTransactionForConversation records the conclusion of the deal
// behind a listing-scoped thread. Exactly-once: when a transaction already
// exists for the conversation the existing one is returned unchanged;
// otherwise one is created, the buyer is inferred as the participant who is
// not the listing owner, and the listing flips to sold.
func (uc *SwapUseCase) CompleteTransactionForConversation(ctx context.Context, actorID, conversationID string) (*entity.Transaction, error) {
	type completeOutcome struct {
		tx          *entity.Transaction
		created     bool
		listingView *entity.ListingView
		result      *conversationResult
	}

	outcome, err := docstore.Mutate(uc.store, func(doc *docstore.Document) (*completeOutcome, error) {
		conv, ok := doc.Conversations[conversationID]
		if !ok {
			return nil, errors.NotFound("Conversation", nil)
		}
		if conv.ListingID == "" {
			return nil, errors.BadRequest("this conversation is not tied to a listing", nil)
		}
		listing, ok := doc.Listings[conv.ListingID]
		if !ok {
			return nil, errors.NotFound("Listing", nil)
		}
		if listing.OwnerID != actorID {
			return nil, errors.Forbidden("only the listing owner can complete the sale", nil)
		}

		if existing := doc.TransactionForConversation(conversationID); existing != nil {
			tx := *existing
			return &completeOutcome{tx: &tx}, nil
		}

		buyerID := conv.OtherParticipant(listing.OwnerID)
		if buyerID == "" {
			return nil, errors.BadRequest("the listing owner is not part of this conversation", nil)
		}

		tx := &entity.Transaction{
			ID:             entity.NewID(entity.PrefixTransaction),
			ConversationID: conversationID,
			ListingID:      listing.ID,
			SellerID:       listing.OwnerID,
			BuyerID:        buyerID,
			CreatedAt:      time.Now(),
		}
		doc.Transactions[tx.ID] = tx

		listing.Status = entity.ListingStatusSold
		listing.UpdatedAt = tx.CreatedAt

		recomputeReputation(doc, tx.SellerID)
		recomputeReputation(doc, tx.BuyerID)

		txCopy := *tx
		return &completeOutcome{
			tx:          &txCopy,
			created:     true,
			listingView: projectListing(doc, listing),
			result:      buildConversationResult(doc, conv),
		}, nil
	})
	if err != nil {
		return nil, err
	}

	if outcome.created {
		logger.Info("swap: transaction %s recorded for conversation %s", outcome.tx.ID, conversationID)
		uc.hub.Emit(ws.NewEvent(ws.EventConversationTx, outcome.tx),
			ws.ToIdentities(outcome.tx.SellerID, outcome.tx.BuyerID))
		uc.hub.Emit(ws.NewEvent(ws.EventListingUpdated, outcome.listingView), ws.Broadcast())
	}
	return outcome.tx, nil
}

// swapSummary is the system message seeded into the deal thread on accept.
func swapSummary(swap *entity.Swap) string {
	summary := fmt.Sprintf("Swap accepted: %s", swap.OfferedItem.Description)
	if swap.CashAmount > 0 {
		switch swap.CashDirection {
		case entity.CashToSender:
			summary += fmt.Sprintf(" plus %.2f to the proposer", swap.CashAmount)
		case entity.CashToReceiver:
			summary += fmt.Sprintf(" plus %.2f to the owner", swap.CashAmount)
		}
	}
	return summary
}

func cloneSwap(swap *entity.Swap) *entity.Swap {
	clone := *swap
	clone.ReadBy = append([]string(nil), swap.ReadBy...)
	return &clone
}
