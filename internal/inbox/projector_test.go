package inbox

import (
	"testing"
	"time"

	"github.com/Musanse/shiteni-sub006/internal/models"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func msg(id, sender, recipient string, at time.Time, read bool) *models.Message {
	return &models.Message{
		ID:             id,
		SenderID:       sender,
		RecipientID:    recipient,
		SenderName:     "name-" + sender,
		SenderEmail:    sender + "@test",
		RecipientName:  "name-" + recipient,
		RecipientEmail: recipient + "@test",
		Content:        "content-" + id,
		Type:           models.TypeText,
		IsRead:         read,
		CreatedAt:      at,
	}
}

func TestProject_GroupsByCounterpart(t *testing.T) {
	msgs := []*models.Message{
		msg("m1", "cust1", "hotelA", base, false),
		msg("m2", "hotelA", "cust1", base.Add(time.Minute), false),
		msg("m3", "cust1", "pharmB", base.Add(2*time.Minute), false),
	}
	out := Project("cust1", msgs)
	if len(out) != 2 {
		t.Fatalf("expected 2 conversations, got %d", len(out))
	}
	// newest conversation first
	if out[0].CounterpartID != "pharmB" || out[1].CounterpartID != "hotelA" {
		t.Fatalf("unexpected order: %s, %s", out[0].CounterpartID, out[1].CounterpartID)
	}
}

func TestProject_LastMessageWinsAndTieBreak(t *testing.T) {
	// m2 and m3 share a timestamp; later position in the (created_at, id)
	// sorted input must win
	msgs := []*models.Message{
		msg("a1", "cust1", "hotelA", base, false),
		msg("a2", "hotelA", "cust1", base.Add(time.Minute), false),
		msg("a3", "hotelA", "cust1", base.Add(time.Minute), false),
	}
	out := Project("cust1", msgs)
	if len(out) != 1 {
		t.Fatalf("expected 1 conversation, got %d", len(out))
	}
	if out[0].LastMessage != "content-a3" {
		t.Fatalf("expected representative a3, got %q", out[0].LastMessage)
	}
	if out[0].IsFromMe {
		t.Fatal("last message was from counterpart, IsFromMe should be false")
	}
}

func TestProject_UnreadCountsOnlyCounterpartMessages(t *testing.T) {
	msgs := []*models.Message{
		msg("m1", "hotelA", "cust1", base, false),
		msg("m2", "hotelA", "cust1", base.Add(time.Second), false),
		msg("m3", "hotelA", "cust1", base.Add(2*time.Second), true),
		// caller's own unsent-unread must never count against the caller
		msg("m4", "cust1", "hotelA", base.Add(3*time.Second), false),
	}
	out := Project("cust1", msgs)
	if len(out) != 1 {
		t.Fatalf("expected 1 conversation, got %d", len(out))
	}
	if out[0].UnreadCount != 2 {
		t.Fatalf("expected 2 unread, got %d", out[0].UnreadCount)
	}
	// the same history seen from the hotel: cust1 sent one unread message
	hotelView := Project("hotelA", msgs)
	if hotelView[0].UnreadCount != 1 {
		t.Fatalf("expected 1 unread for hotel, got %d", hotelView[0].UnreadCount)
	}
}

func TestProject_SkipsDeleted(t *testing.T) {
	del := msg("m2", "hotelA", "cust1", base.Add(time.Minute), false)
	del.IsDeleted = true
	msgs := []*models.Message{
		msg("m1", "hotelA", "cust1", base, false),
		del,
	}
	out := Project("cust1", msgs)
	if out[0].LastMessage != "content-m1" {
		t.Fatalf("deleted message leaked as representative: %q", out[0].LastMessage)
	}
	if out[0].UnreadCount != 1 {
		t.Fatalf("deleted message counted as unread: %d", out[0].UnreadCount)
	}
}

func TestProject_CounterpartDisplayOrientation(t *testing.T) {
	msgs := []*models.Message{
		msg("m1", "cust1", "hotelA", base, false),
	}
	out := Project("cust1", msgs)
	if out[0].CounterpartName != "name-hotelA" || out[0].CounterpartEmail != "hotelA@test" {
		t.Fatalf("counterpart display not oriented to the other party: %+v", out[0])
	}
	if !out[0].IsFromMe {
		t.Fatal("expected IsFromMe for caller-sent representative")
	}

	other := Project("hotelA", msgs)
	if other[0].CounterpartName != "name-cust1" {
		t.Fatalf("expected cust1 display, got %q", other[0].CounterpartName)
	}
}

func TestProject_Empty(t *testing.T) {
	if out := Project("cust1", nil); len(out) != 0 {
		t.Fatalf("expected no conversations, got %d", len(out))
	}
}
