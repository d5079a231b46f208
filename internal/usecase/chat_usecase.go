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

type ChatUseCase struct {
	store *docstore.Store
	hub   EventEmitter
	files AttachmentStore
	deals *SwapUseCase
}

func NewChatUseCase(store *docstore.Store, hub EventEmitter, files AttachmentStore, deals *SwapUseCase) *ChatUseCase {
	return &ChatUseCase{
		store: store,
		hub:   hub,
		files: files,
		deals: deals,
	}
}

type StartConversationInput struct {
	ToUserID    string
	ListingID   string
	Body        string
	Attachments [][]byte
}

// conversationResult carries a committed conversation out of a mutation with
// one view per participant, so each peer receives their own other_user.
type conversationResult struct {
	conversationID string
	views          map[string]*entity.ConversationView
}

// Start opens (or reuses) the thread between the caller and another user,
// optionally scoped to a listing. Threads are deduplicated by the
// (listing, unordered participant pair) identity: a second start against the
// same scope appends to the existing thread instead of creating a twin.
func (uc *ChatUseCase) Start(ctx context.Context, fromID string, input StartConversationInput) (*entity.ConversationView, error) {
	if fromID == input.ToUserID {
		return nil, errors.BadRequest("you cannot start a conversation with yourself", nil)
	}

	attachments, err := uc.storeAttachments(input.Attachments)
	if err != nil {
		return nil, err
	}

	result, err := docstore.Mutate(uc.store, func(doc *docstore.Document) (*conversationResult, error) {
		if _, ok := doc.Users[fromID]; !ok {
			return nil, errors.NotFound("User", nil)
		}
		if _, ok := doc.Users[input.ToUserID]; !ok {
			return nil, errors.NotFound("User", nil)
		}
		if input.ListingID != "" {
			if _, ok := doc.Listings[input.ListingID]; !ok {
				return nil, errors.NotFound("Listing", nil)
			}
		}
		if doc.BlockedBetween(fromID, input.ToUserID) {
			return nil, errors.Forbidden("messaging is blocked between these users", nil)
		}

		conv := doc.FindConversation(input.ListingID, fromID, input.ToUserID)
		if conv == nil {
			now := time.Now()
			conv = &entity.Conversation{
				ID:            entity.NewID(entity.PrefixConversation),
				ListingID:     input.ListingID,
				Participants:  []string{fromID, input.ToUserID},
				Messages:      []*entity.Message{},
				CreatedAt:     now,
				LastMessageAt: now,
			}
			doc.Conversations[conv.ID] = conv
		}

		if strings.TrimSpace(input.Body) != "" || len(attachments) > 0 {
			appendMessage(conv, fromID, entity.MessageKindText, input.Body, attachments)
		}

		return buildConversationResult(doc, conv), nil
	})
	if err != nil {
		uc.discardAttachments(attachments)
		return nil, err
	}

	uc.emitConversation(result)
	return result.views[fromID], nil
}

type SendMessageInput struct {
	Body        string
	Attachments [][]byte
}

// SendMessage appends to an existing thread. A message needs a non-empty
// body or at least one stored attachment.
func (uc *ChatUseCase) SendMessage(ctx context.Context, senderID, conversationID string, input SendMessageInput) (*entity.ConversationView, error) {
	attachments, err := uc.storeAttachments(input.Attachments)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Body) == "" && len(attachments) == 0 {
		return nil, errors.BadRequest("a message needs a body or an attachment", nil)
	}

	result, err := docstore.Mutate(uc.store, func(doc *docstore.Document) (*conversationResult, error) {
		conv, ok := doc.Conversations[conversationID]
		if !ok {
			return nil, errors.NotFound("Conversation", nil)
		}
		if !conv.HasParticipant(senderID) {
			return nil, errors.Forbidden("you are not part of this conversation", nil)
		}
		if doc.BlockedBetween(senderID, conv.OtherParticipant(senderID)) {
			return nil, errors.Forbidden("messaging is blocked between these users", nil)
		}

		appendMessage(conv, senderID, entity.MessageKindText, input.Body, attachments)
		return buildConversationResult(doc, conv), nil
	})
	if err != nil {
		uc.discardAttachments(attachments)
		return nil, err
	}

	uc.emitConversation(result)
	return result.views[senderID], nil
}

// MarkRead adds the reader to every message's read-by set. The set only ever
// grows; re-reading is a no-op.
func (uc *ChatUseCase) MarkRead(ctx context.Context, readerID, conversationID string) (*entity.ConversationView, error) {
	result, err := docstore.Mutate(uc.store, func(doc *docstore.Document) (*conversationResult, error) {
		conv, ok := doc.Conversations[conversationID]
		if !ok {
			return nil, errors.NotFound("Conversation", nil)
		}
		if !conv.HasParticipant(readerID) {
			return nil, errors.Forbidden("you are not part of this conversation", nil)
		}

		for _, msg := range conv.Messages {
			msg.MarkRead(readerID)
		}
		return buildConversationResult(doc, conv), nil
	})
	if err != nil {
		return nil, err
	}

	uc.emitConversation(result)
	return result.views[readerID], nil
}

// Remove deletes the thread entirely and tells both participants.
func (uc *ChatUseCase) Remove(ctx context.Context, requesterID, conversationID string) error {
	participants, err := docstore.Mutate(uc.store, func(doc *docstore.Document) ([]string, error) {
		conv, ok := doc.Conversations[conversationID]
		if !ok {
			return nil, errors.NotFound("Conversation", nil)
		}
		if !conv.HasParticipant(requesterID) {
			return nil, errors.Forbidden("you are not part of this conversation", nil)
		}

		delete(doc.Conversations, conversationID)
		return append([]string(nil), conv.Participants...), nil
	})
	if err != nil {
		return err
	}

	logger.Info("chat: conversation %s removed by %s", conversationID, requesterID)
	uc.hub.Emit(ws.NewEvent(ws.EventConversationRemoved, map[string]string{
		"conversation_id": conversationID,
	}), ws.ToIdentities(participants...))
	return nil
}

// Complete concludes the deal behind this thread. Sale semantics live in the
// deal workflow; this only delegates.
func (uc *ChatUseCase) Complete(ctx context.Context, actorID, conversationID string) (*entity.Transaction, error) {
	return uc.deals.CompleteTransactionForConversation(ctx, actorID, conversationID)
}

// List returns the caller's threads, most recently active first.
func (uc *ChatUseCase) List(ctx context.Context, userID string) ([]*entity.ConversationView, error) {
	snapshot := uc.store.Snapshot()
	views := []*entity.ConversationView{}
	for _, conv := range snapshot.Conversations {
		if conv.HasParticipant(userID) {
			views = append(views, conversationViewFor(snapshot, conv, userID))
		}
	}
	sort.Slice(views, func(i, j int) bool {
		return views[i].LastMessageAt.After(views[j].LastMessageAt)
	})
	return views, nil
}

func (uc *ChatUseCase) Get(ctx context.Context, userID, conversationID string) (*entity.ConversationView, error) {
	snapshot := uc.store.Snapshot()
	conv, ok := snapshot.Conversations[conversationID]
	if !ok {
		return nil, errors.NotFound("Conversation", nil)
	}
	if !conv.HasParticipant(userID) {
		return nil, errors.Forbidden("you are not part of this conversation", nil)
	}
	return conversationViewFor(snapshot, conv, userID), nil
}

// storeAttachments persists raw attachment content up to the per-message
// cap; anything past the cap is silently truncated.
func (uc *ChatUseCase) storeAttachments(raw [][]byte) ([]entity.Attachment, error) {
	if len(raw) > entity.MaxMessageAttachments {
		logger.Warn("chat: truncating %d attachments to the cap of %d", len(raw), entity.MaxMessageAttachments)
		raw = raw[:entity.MaxMessageAttachments]
	}

	attachments := make([]entity.Attachment, 0, len(raw))
	for _, content := range raw {
		stored, err := uc.files.Store(content)
		if err != nil {
			return nil, errors.Internal("Failed to store attachment", err)
		}
		attachments = append(attachments, entity.Attachment{
			URL:      stored.PublicURL,
			MimeType: stored.MimeType,
		})
	}
	return attachments, nil
}

// discardAttachments reclaims files stored ahead of a mutation that ended up
// rejecting the message, so blocked or invalid sends leave no orphans under
// the upload dir.
func (uc *ChatUseCase) discardAttachments(attachments []entity.Attachment) {
	for _, a := range attachments {
		if err := uc.files.Remove(a.URL); err != nil {
			logger.Warn("chat: could not reclaim attachment %s: %v", a.URL, err)
		}
	}
}

func (uc *ChatUseCase) emitConversation(result *conversationResult) {
	for participantID, view := range result.views {
		uc.hub.Emit(ws.NewEvent(ws.EventConversationUpsert, view), ws.ToIdentities(participantID))
	}
}

// appendMessage appends to the thread and bumps last-activity. The sender
// starts in the read-by set of their own message.
func appendMessage(conv *entity.Conversation, senderID, kind, body string, attachments []entity.Attachment) *entity.Message {
	now := time.Now()
	msg := &entity.Message{
		ID:          entity.NewID(entity.PrefixMessage),
		SenderID:    senderID,
		Kind:        kind,
		Body:        strings.TrimSpace(body),
		Attachments: attachments,
		ReadBy:      []string{senderID},
		CreatedAt:   now,
	}
	conv.Messages = append(conv.Messages, msg)
	conv.LastMessageAt = now
	return msg
}

// buildConversationResult snapshots one view per participant so emissions
// never leak live graph references.
func buildConversationResult(doc *docstore.Document, conv *entity.Conversation) *conversationResult {
	result := &conversationResult{
		conversationID: conv.ID,
		views:          make(map[string]*entity.ConversationView, len(conv.Participants)),
	}
	for _, p := range conv.Participants {
		result.views[p] = conversationViewFor(doc, conv, p)
	}
	return result
}

// conversationViewFor deep-copies the thread and attaches the viewer's peer
// summary plus the listing scope, when present.
func conversationViewFor(doc *docstore.Document, conv *entity.Conversation, viewerID string) *entity.ConversationView {
	clone := &entity.Conversation{
		ID:            conv.ID,
		ListingID:     conv.ListingID,
		Participants:  append([]string(nil), conv.Participants...),
		Messages:      make([]*entity.Message, 0, len(conv.Messages)),
		CreatedAt:     conv.CreatedAt,
		LastMessageAt: conv.LastMessageAt,
	}
	for _, msg := range conv.Messages {
		m := *msg
		m.ReadBy = append([]string(nil), msg.ReadBy...)
		m.Attachments = append([]entity.Attachment(nil), msg.Attachments...)
		clone.Messages = append(clone.Messages, &m)
	}

	view := &entity.ConversationView{Conversation: clone}
	if listing, ok := doc.Listings[conv.ListingID]; ok {
		l := *listing
		view.Listing = &l
	}
	if other, ok := doc.Users[conv.OtherParticipant(viewerID)]; ok {
		view.OtherUser = other.Summary()
	}
	return view
}
