package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Musanse/shiteni-sub006/internal/apperr"
	"github.com/Musanse/shiteni-sub006/internal/broadcast"
	"github.com/Musanse/shiteni-sub006/internal/identity"
	"github.com/Musanse/shiteni-sub006/internal/inbox"
	"github.com/Musanse/shiteni-sub006/internal/models"
	"github.com/Musanse/shiteni-sub006/internal/repository"
)

// EventSink receives a message.sent event for every stored message. Like the
// live broadcast it is notification only: failures are logged and swallowed.
type EventSink interface {
	MessageSent(ctx context.Context, m *models.Message) error
}

// MessageService is the send path and the read operations around the message
// store. Persistence happens-before broadcast; a send either stores one
// complete message or returns an error with nothing written.
type MessageService struct {
	store    repository.MessageStore
	resolver *identity.Resolver
	broker   *broadcast.Broker
	events   EventSink
	log      *zap.SugaredLogger
}

func NewMessageService(store repository.MessageStore, resolver *identity.Resolver, broker *broadcast.Broker, sink EventSink, log *zap.SugaredLogger) *MessageService {
	return &MessageService{store: store, resolver: resolver, broker: broker, events: sink, log: log}
}

// ResolveCaller classifies the authenticated caller. Exposed for the ws
// layer, which needs the canonical party id (and unit channel) to subscribe.
func (s *MessageService) ResolveCaller(ctx context.Context, c identity.Caller) (models.CallerIdentity, error) {
	return s.resolver.Resolve(ctx, c)
}

// Send validates, resolves both parties, persists one message and notifies
// live viewers.
func (s *MessageService) Send(ctx context.Context, caller identity.Caller, targetID, content string, msgType models.MessageType) (*models.Message, error) {
	targetID = strings.TrimSpace(targetID)
	content = strings.TrimSpace(content)
	if targetID == "" {
		return nil, apperr.Validation("target_id", "is required")
	}
	if content == "" {
		return nil, apperr.Validation("content", "must not be empty")
	}
	if msgType == "" {
		msgType = models.TypeText
	}
	if !msgType.Valid() {
		return nil, apperr.Validation("message_type", "unknown")
	}

	me, err := s.resolver.Resolve(ctx, caller)
	if err != nil {
		return nil, err
	}
	other, err := s.resolver.ResolveCounterpart(ctx, targetID)
	if err != nil {
		return nil, err
	}

	// conversation_id is assigned here, once, and never recomputed: the
	// business unit's id whenever one party is a unit, the admin's own id
	// for admin threads.
	var convID string
	switch me.Kind {
	case models.KindStaff:
		convID = me.PartyID
	case models.KindAdmin:
		convID = me.PartyID
	default:
		convID = other.PartyID
	}

	m := &models.Message{
		ID:             uuid.NewString(),
		ConversationID: convID,
		SenderID:       me.PartyID,
		RecipientID:    other.PartyID,
		SenderName:     me.Account.Name,
		SenderEmail:    me.Account.Email,
		SenderRole:     me.Account.Role,
		RecipientName:  other.Account.Name,
		RecipientEmail: other.Account.Email,
		RecipientRole:  other.Account.Role,
		Content:        content,
		Type:           msgType,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.store.Insert(ctx, m); err != nil {
		return nil, apperr.Storage("insert message", err)
	}

	s.notify(ctx, m)
	return m, nil
}

// notify fans the stored message out to live viewers and the event sink.
// Best-effort on both legs; the message is already durable.
func (s *MessageService) notify(ctx context.Context, m *models.Message) {
	if n := s.broker.Publish(m.RecipientID, "message", m); n == 0 && m.RecipientID != m.ConversationID {
		// nobody on the recipient's own channel; try the conversation channel
		s.broker.Publish(m.ConversationID, "message", m)
	}
	if s.events != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.events.MessageSent(ctx, m); err != nil {
				s.log.Warnw("message.sent publish failed", "message_id", m.ID, "err", err)
			}
		}()
	}
}

// ListConversations returns one summary per counterpart for the caller,
// newest conversation first. Staff results are scoped to their unit's
// conversation id so no vendor ever sees another vendor's threads.
func (s *MessageService) ListConversations(ctx context.Context, caller identity.Caller) ([]models.ConversationSummary, error) {
	me, err := s.resolver.Resolve(ctx, caller)
	if err != nil {
		return nil, err
	}
	scope := ""
	if me.Kind == models.KindStaff {
		scope = me.PartyID
	}
	msgs, err := s.store.ListForParty(ctx, me.PartyID, scope)
	if err != nil {
		return nil, apperr.Storage("list messages", err)
	}
	return inbox.Project(me.PartyID, msgs), nil
}

// ListThread returns the chronological exchange between the caller and a
// counterpart, oldest first, capped at limit when limit > 0.
func (s *MessageService) ListThread(ctx context.Context, caller identity.Caller, counterpartID string, limit int64) ([]*models.Message, error) {
	me, err := s.resolver.Resolve(ctx, caller)
	if err != nil {
		return nil, err
	}
	other, err := s.resolver.ResolveCounterpart(ctx, counterpartID)
	if err != nil {
		return nil, err
	}
	msgs, err := s.store.ListBetween(ctx, me.PartyID, other.PartyID, limit)
	if err != nil {
		return nil, apperr.Storage("list thread", err)
	}
	return msgs, nil
}

// MarkRead acknowledges the given messages for the caller. Only messages
// addressed to the caller flip; the operation is idempotent.
func (s *MessageService) MarkRead(ctx context.Context, caller identity.Caller, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, apperr.Validation("message_ids", "must not be empty")
	}
	me, err := s.resolver.Resolve(ctx, caller)
	if err != nil {
		return 0, err
	}
	n, err := s.store.MarkRead(ctx, ids, me.PartyID)
	if err != nil {
		return 0, apperr.Storage("mark read", err)
	}
	return n, nil
}

// Remove soft-deletes a message. Moderation only, hence admin only: the row
// stays for audit but disappears from every derived view.
func (s *MessageService) Remove(ctx context.Context, caller identity.Caller, id string) error {
	me, err := s.resolver.Resolve(ctx, caller)
	if err != nil {
		return err
	}
	if me.Kind != models.KindAdmin {
		return apperr.Unauthorized("only admins can remove messages")
	}
	if err := s.store.SoftDelete(ctx, id); err != nil {
		return apperr.Storage("soft delete", err)
	}
	return nil
}

// PollThread is the catch-up path for viewers without a live connection: it
// re-queries the store on a fixed interval for messages newer than the last
// seen timestamp and streams them until ctx is cancelled. At-least-once;
// clients dedup by message id.
func (s *MessageService) PollThread(ctx context.Context, caller identity.Caller, counterpartID string, since time.Time, interval time.Duration) (<-chan *models.Message, error) {
	me, err := s.resolver.Resolve(ctx, caller)
	if err != nil {
		return nil, err
	}
	other, err := s.resolver.ResolveCounterpart(ctx, counterpartID)
	if err != nil {
		return nil, err
	}

	out := make(chan *models.Message, 64)
	go func() {
		defer close(out)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		// The store query is inclusive at the cursor timestamp; seen holds
		// the ids already delivered at that instant so bursts sharing one
		// millisecond-truncated created_at are neither skipped nor repeated.
		last := since
		seen := map[string]struct{}{}
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			msgs, err := s.store.ListNewer(ctx, me.PartyID, other.PartyID, last)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				s.log.Warnw("catch-up poll failed", "party", me.PartyID, "err", err)
				continue
			}
			for _, m := range msgs {
				if _, ok := seen[m.ID]; ok {
					continue
				}
				select {
				case out <- m:
				case <-ctx.Done():
					return
				}
				if m.CreatedAt.After(last) {
					last = m.CreatedAt
					seen = map[string]struct{}{m.ID: {}}
				} else {
					seen[m.ID] = struct{}{}
				}
			}
		}
	}()
	return out, nil
}
