package chat

import (
	"context"
	"testing"
	"time"
)

func TestLatestMessagePerRoom_SingleRoundTrip(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)
	ctx := context.Background()

	room1 := &ChatRoom{Name: "one"}
	room2 := &ChatRoom{Name: "two"}
	room3 := &ChatRoom{Name: "silent"}
	for _, r := range []*ChatRoom{room1, room2, room3} {
		if err := repo.CreateRoom(ctx, r); err != nil {
			t.Fatalf("create room: %v", err)
		}
	}

	sue := createUser(t, db, "Sue")
	min := createUser(t, db, "Min")

	seed := []struct {
		user uint64
		room uint64
		text string
	}{
		{sue.ID, room1.ID, "oldest in one"},
		{min.ID, room1.ID, "newest in one"},
		{min.ID, room2.ID, "only in two"},
	}
	for _, s := range seed {
		if err := repo.InsertMessage(ctx, &Message{UserID: s.user, RoomID: s.room, Content: s.text}); err != nil {
			t.Fatalf("insert %q: %v", s.text, err)
		}
	}

	latest, err := repo.LatestMessagePerRoom(ctx)
	if err != nil {
		t.Fatalf("latest per room: %v", err)
	}
	if len(latest) != 2 {
		t.Fatalf("expected entries for 2 rooms, got %d", len(latest))
	}
	if got := latest[room1.ID]; got.Content != "newest in one" || got.Username != "Min" {
		t.Fatalf("room1 latest: %+v", got)
	}
	if got := latest[room2.ID]; got.Content != "only in two" || got.Username != "Min" {
		t.Fatalf("room2 latest: %+v", got)
	}
	if _, ok := latest[room3.ID]; ok {
		t.Fatalf("room without messages must be absent from the aggregate")
	}
}

func TestRecentVisitorCounts_Grouped(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)
	ctx := context.Background()
	now := time.Now()

	room1 := &ChatRoom{Name: "one"}
	room2 := &ChatRoom{Name: "two"}
	for _, r := range []*ChatRoom{room1, room2} {
		if err := repo.CreateRoom(ctx, r); err != nil {
			t.Fatalf("create room: %v", err)
		}
	}
	sue := createUser(t, db, "Sue")
	min := createUser(t, db, "Min")

	visits := []Visit{
		{UserID: sue.ID, RoomID: room1.ID, VisitedAt: now.Add(-5 * time.Minute)},
		{UserID: min.ID, RoomID: room1.ID, VisitedAt: now},
		{UserID: sue.ID, RoomID: room2.ID, VisitedAt: now.Add(-2 * time.Hour)}, // expired
	}
	for i := range visits {
		if err := repo.RecordVisit(ctx, &visits[i]); err != nil {
			t.Fatalf("record visit: %v", err)
		}
	}

	counts, err := repo.RecentVisitorCounts(ctx, now, PresenceWindow)
	if err != nil {
		t.Fatalf("recent visitor counts: %v", err)
	}
	if counts[room1.ID] != 2 {
		t.Fatalf("room1: expected 2, got %d", counts[room1.ID])
	}
	if _, ok := counts[room2.ID]; ok {
		t.Fatalf("room2 has no visits in the window, must be absent")
	}
}

func TestGetRoom_NotFound(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)

	if _, err := repo.GetRoom(context.Background(), 12345); err == nil {
		t.Fatalf("expected error for missing room")
	}
}
