package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"crowdfund-ledger/internal/core/domain"
	"crowdfund-ledger/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

// syncBuffer is a goroutine-safe log sink.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestAuditService_Log_PersistsToRepo(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockAuditRepository(ctrl)
	svc := NewAuditService(mockRepo, zerolog.Nop())

	done := make(chan struct{})
	mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, log *domain.AuditLog) error {
			if log.Action != domain.AuditActionWithdraw {
				t.Errorf("expected WITHDRAW, got %s", log.Action)
			}
			close(done)
			return nil
		},
	)

	who := domain.Identity("owner")
	svc.Log(context.Background(), &domain.AuditLog{
		ID:           uuid.New(),
		Identity:     &who,
		Action:       domain.AuditActionWithdraw,
		ResourceType: "withdrawal",
		ResourceID:   uuid.New().String(),
		IPAddress:    "127.0.0.1",
		CreatedAt:    time.Now(),
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("audit log not persisted in time")
	}
}

func TestAuditService_Log_RepoErrorIsLogged(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	var out syncBuffer
	mockRepo := mocks.NewMockAuditRepository(ctrl)
	svc := NewAuditService(mockRepo, zerolog.New(&out))

	done := make(chan struct{})
	mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, *domain.AuditLog) error {
			defer close(done)
			return errors.New("db down")
		},
	)

	svc.Log(context.Background(), &domain.AuditLog{ID: uuid.New(), Action: domain.AuditActionLogin, ResourceType: "session"})

	<-done
	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "failed to persist audit log")
	}, time.Second, 10*time.Millisecond)
}

func TestAuditService_Log_NilRepo(t *testing.T) {
	var out syncBuffer
	svc := NewAuditService(nil, zerolog.New(&out))

	who := domain.Identity("alice")
	svc.Log(context.Background(), &domain.AuditLog{
		ID:           uuid.New(),
		Identity:     &who,
		Action:       domain.AuditActionWithdrawDenied,
		ResourceType: "withdrawal",
		IPAddress:    "127.0.0.1",
		CreatedAt:    time.Now(),
	})

	assert.Eventually(t, func() bool {
		s := out.String()
		return strings.Contains(s, `"action":"WITHDRAW_DENIED"`) &&
			strings.Contains(s, `"identity":"alice"`)
	}, time.Second, 10*time.Millisecond)
}
