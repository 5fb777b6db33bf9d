// Package inbox derives conversation summaries from the message store.
// A conversation is never persisted: it exists only as the grouping computed
// here, so there is no second aggregate to keep consistent with the store.
package inbox

import (
	"sort"

	"github.com/Musanse/shiteni-sub006/internal/models"
)

type group struct {
	last   *models.Message
	unread int
}

// Project folds a time-sorted message slice into one summary per counterpart.
// msgs must be ascending by (created_at, id) and already scoped to the viewer
// (non-deleted, viewer is a party, vendor scoping applied by the store query).
//
// Per group: the representative is the maximum (created_at, id) message;
// unread counts only messages the counterpart sent that the viewer has not
// acknowledged. Output is sorted by representative timestamp, newest first.
func Project(viewerID string, msgs []*models.Message) []models.ConversationSummary {
	groups := make(map[string]*group)
	order := make([]string, 0)

	for _, m := range msgs {
		if m.IsDeleted {
			continue
		}
		cp := m.CounterpartOf(viewerID)
		g, ok := groups[cp]
		if !ok {
			g = &group{}
			groups[cp] = g
			order = append(order, cp)
		}
		// ascending input, so the latest seen message is the representative
		g.last = m
		if m.SenderID == cp && !m.IsRead {
			g.unread++
		}
	}

	out := make([]models.ConversationSummary, 0, len(order))
	for _, cp := range order {
		g := groups[cp]
		out = append(out, summarize(viewerID, cp, g))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].CounterpartID > out[j].CounterpartID
	})
	return out
}

func summarize(viewerID, counterpartID string, g *group) models.ConversationSummary {
	m := g.last
	s := models.ConversationSummary{
		CounterpartID:   counterpartID,
		LastMessage:     m.Content,
		LastMessageType: m.Type,
		Timestamp:       m.CreatedAt,
		UnreadCount:     g.unread,
		IsFromMe:        m.SenderID == viewerID,
	}
	// display fields come from the representative's send-time snapshot,
	// oriented to the other party
	if m.SenderID == viewerID {
		s.CounterpartName = m.RecipientName
		s.CounterpartEmail = m.RecipientEmail
	} else {
		s.CounterpartName = m.SenderName
		s.CounterpartEmail = m.SenderEmail
	}
	return s
}
