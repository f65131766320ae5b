package storage

import (
	"context"
	"testing"
)

func TestConversationRepo_CreateAndGet(t *testing.T) {
	db := newTestDB(t)
	repo := NewConversationRepo(db)
	ctx := context.Background()

	conv, err := repo.Create(ctx, "What is the refund policy")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if conv.ID == "" {
		t.Fatal("Create() returned empty ID")
	}
	if conv.Title != "What is the refund policy" {
		t.Errorf("Title = %q", conv.Title)
	}

	got, err := repo.GetByID(ctx, conv.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.ID != conv.ID {
		t.Errorf("GetByID() ID = %s, want %s", got.ID, conv.ID)
	}

	if _, err := repo.GetByID(ctx, "missing"); err != ErrNotFound {
		t.Errorf("GetByID(missing) error = %v, want ErrNotFound", err)
	}
}

func TestConversationRepo_ListRecent(t *testing.T) {
	db := newTestDB(t)
	repo := NewConversationRepo(db)
	ctx := context.Background()

	for _, title := range []string{"first", "second", "third"} {
		if _, err := repo.Create(ctx, title); err != nil {
			t.Fatalf("Create(%s) error = %v", title, err)
		}
	}

	convs, err := repo.ListRecent(ctx, 2)
	if err != nil {
		t.Fatalf("ListRecent() error = %v", err)
	}
	if len(convs) != 2 {
		t.Fatalf("ListRecent() returned %d conversations, want 2", len(convs))
	}
}

func TestMessageRepo_InsertAndList(t *testing.T) {
	db := newTestDB(t)
	convRepo := NewConversationRepo(db)
	msgRepo := NewMessageRepo(db)
	ctx := context.Background()

	conv, err := convRepo.Create(ctx, "test")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	question := &MessageRecord{
		ConversationID: conv.ID,
		Role:           "user",
		Content:        "What is the refund policy?",
	}
	if err := msgRepo.Insert(ctx, question); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if question.ID == "" {
		t.Fatal("Insert() did not assign an ID")
	}

	answer := &MessageRecord{
		ConversationID: conv.ID,
		Role:           "assistant",
		Content:        "Refunds are issued within 30 days.",
		SourceType:     "local",
		Sources:        `["policy.txt"]`,
	}
	if err := msgRepo.Insert(ctx, answer); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	msgs, err := msgRepo.ListByConversation(ctx, conv.ID)
	if err != nil {
		t.Fatalf("ListByConversation() error = %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[0].Role != "user" || msgs[1].Role != "assistant" {
		t.Errorf("message order = [%s, %s], want [user, assistant]", msgs[0].Role, msgs[1].Role)
	}
	if msgs[1].SourceType != "local" || msgs[1].Sources != `["policy.txt"]` {
		t.Errorf("assistant evidence = (%s, %s)", msgs[1].SourceType, msgs[1].Sources)
	}

	empty, err := msgRepo.ListByConversation(ctx, "no-such-conversation")
	if err != nil {
		t.Fatalf("ListByConversation() error = %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("messages for unknown conversation = %v, want empty", empty)
	}
}
