package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"ragbot/internal/rag"
	"ragbot/internal/service"
	"ragbot/internal/storage"
)

func init() {
	// Suppress logs from slog.Default() used in the service layer
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// fakeEngine returns a fixed answer and records the questions it saw.
type fakeEngine struct {
	result    rag.AnswerResult
	questions []string
}

func (f *fakeEngine) Answer(ctx context.Context, req rag.QueryRequest) rag.AnswerResult {
	f.questions = append(f.questions, req.Question)
	return f.result
}

func newService(t *testing.T, engine rag.Engine) (service.ChatService, *storage.MessageRepo) {
	t.Helper()
	db, err := storage.New(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	if err := storage.Migrate(db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	msgRepo := storage.NewMessageRepo(db)
	return service.NewChatService(engine, storage.NewConversationRepo(db), msgRepo), msgRepo
}

func TestChatService_AskNewConversation(t *testing.T) {
	engine := &fakeEngine{result: rag.AnswerResult{
		Content:    "Refunds are issued within 30 days.\n\n📄 From: [policy.txt]",
		Sources:    []string{"policy.txt"},
		SourceType: rag.SourceLocal,
	}}
	svc, msgRepo := newService(t, engine)
	ctx := context.Background()

	resp, err := svc.Ask(ctx, service.AskRequest{Question: "What is the refund policy?"})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if resp.ConversationID == "" {
		t.Fatal("Ask() did not start a conversation")
	}
	if resp.Answer.SourceType != rag.SourceLocal {
		t.Errorf("SourceType = %q", resp.Answer.SourceType)
	}

	msgs, err := msgRepo.ListByConversation(ctx, resp.ConversationID)
	if err != nil {
		t.Fatalf("ListByConversation() error = %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want question and answer", len(msgs))
	}
	if msgs[0].Role != "user" || msgs[0].Content != "What is the refund policy?" {
		t.Errorf("user message = %+v", msgs[0])
	}
	if msgs[1].Role != "assistant" || msgs[1].SourceType != "local" || msgs[1].Sources != `["policy.txt"]` {
		t.Errorf("assistant message = %+v", msgs[1])
	}
}

func TestChatService_AskContinuesConversation(t *testing.T) {
	engine := &fakeEngine{result: rag.AnswerResult{Content: "answer", SourceType: rag.SourceLLM, Sources: []string{}}}
	svc, _ := newService(t, engine)
	ctx := context.Background()

	first, err := svc.Ask(ctx, service.AskRequest{Question: "first question"})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	second, err := svc.Ask(ctx, service.AskRequest{
		Question:       "second question",
		ConversationID: first.ConversationID,
	})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if second.ConversationID != first.ConversationID {
		t.Errorf("follow-up got conversation %s, want %s", second.ConversationID, first.ConversationID)
	}

	history, err := svc.History(ctx, first.ConversationID)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 4 {
		t.Errorf("history has %d messages, want 4", len(history))
	}
}

func TestChatService_AskValidation(t *testing.T) {
	engine := &fakeEngine{}
	svc, _ := newService(t, engine)

	_, err := svc.Ask(context.Background(), service.AskRequest{Question: ""})
	var validationErr *service.ValidationError
	if !errors.As(err, &validationErr) || validationErr.Field != "question" {
		t.Errorf("Ask() error = %v, want ValidationError on question", err)
	}
	if len(engine.questions) != 0 {
		t.Error("engine should not run for an empty question")
	}
}

func TestChatService_AskUnknownConversation(t *testing.T) {
	svc, _ := newService(t, &fakeEngine{})

	_, err := svc.Ask(context.Background(), service.AskRequest{
		Question:       "hello",
		ConversationID: "no-such-id",
	})
	if !errors.Is(err, service.ErrNotFound) {
		t.Errorf("Ask() error = %v, want ErrNotFound", err)
	}
}

func TestChatService_HistoryUnknownConversation(t *testing.T) {
	svc, _ := newService(t, &fakeEngine{})

	_, err := svc.History(context.Background(), "no-such-id")
	if !errors.Is(err, service.ErrNotFound) {
		t.Errorf("History() error = %v, want ErrNotFound", err)
	}
}

func TestChatService_ListConversations(t *testing.T) {
	engine := &fakeEngine{result: rag.AnswerResult{Content: "a", SourceType: rag.SourceLLM, Sources: []string{}}}
	svc, _ := newService(t, engine)
	ctx := context.Background()

	for _, q := range []string{"one", "two", "three"} {
		if _, err := svc.Ask(ctx, service.AskRequest{Question: q}); err != nil {
			t.Fatalf("Ask(%s) error = %v", q, err)
		}
	}

	convs, err := svc.ListConversations(ctx, 2)
	if err != nil {
		t.Fatalf("ListConversations() error = %v", err)
	}
	if len(convs) != 2 {
		t.Errorf("got %d conversations, want 2", len(convs))
	}
}
