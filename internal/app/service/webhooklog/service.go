// Package webhooklog keeps the audit trail of payment webhook deliveries.
package webhooklog

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/fatflowers/extpay/internal/models"
	"github.com/fatflowers/extpay/pkg/logctx"
	"github.com/fatflowers/extpay/pkg/tool"
)

type Service struct {
	db      *gorm.DB
	log     *zap.SugaredLogger
	pending sync.WaitGroup
}

func New(db *gorm.DB, log *zap.SugaredLogger) *Service { return &Service{db: db, log: log} }

// Save asynchronously persists a webhook log entry. Nil input is ignored.
func (s *Service) Save(ctx context.Context, entry *models.WebhookLog) {
	if entry == nil {
		return
	}
	if entry.ID == "" {
		entry.ID = tool.GenerateUUIDV7()
	}
	if entry.TraceID == "" {
		entry.TraceID = logctx.TraceID(ctx)
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	lg := logctx.FromCtx(ctx, s.log)
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		// the request context may already be cancelled
		if err := s.db.WithContext(context.WithoutCancel(ctx)).Create(entry).Error; err != nil {
			lg.Errorf("failed to save webhook log: %v", err)
		}
	}()
}

// Wait blocks until every pending Save finished.
func (s *Service) Wait() {
	s.pending.Wait()
}

// ByWebhookID returns the entries of one delivery, oldest first.
func (s *Service) ByWebhookID(ctx context.Context, webhookID string) ([]models.WebhookLog, error) {
	var rows []models.WebhookLog
	err := s.db.WithContext(ctx).Where("webhook_id = ?", webhookID).Order("created_at, id").Find(&rows).Error
	return rows, err
}

// JSON encodes v for the Data/Result columns; encoding failures yield null.
func JSON(v any) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("null")
	}
	return datatypes.JSON(b)
}

func register(lc fx.Lifecycle, s *Service) {
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			s.Wait()
			return nil
		},
	})
}

var Module = fx.Options(
	fx.Provide(New),
	fx.Invoke(register),
)
