package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/Kawdoor/aizer/internal/identity"
	"github.com/Kawdoor/aizer/internal/models"
	"github.com/Kawdoor/aizer/pkg/logger"
	"github.com/Kawdoor/aizer/pkg/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const exportBatchSize = 10000

type AuditEntry struct {
	UserID       *uuid.UUID
	GroupID      *uuid.UUID
	Action       string
	ResourceType string
	ResourceID   *uuid.UUID
	Details      map[string]interface{}
	IPAddress    string
	RequestID    string
}

// Archive receives NDJSON audit exports. storage.MinIOClient implements it.
type Archive interface {
	Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error
}

// AuditService writes audit rows off the request path and periodically
// ships new rows to the archive.
type AuditService struct {
	DB      *gorm.DB
	Archive Archive

	mu     sync.RWMutex
	closed bool
	queue  chan models.AuditLog
	done   chan struct{}
}

func NewAuditService(db *gorm.DB, archive Archive, queueSize int) *AuditService {
	if queueSize <= 0 {
		queueSize = 1000
	}
	s := &AuditService{
		DB:      db,
		Archive: archive,
		queue:   make(chan models.AuditLog, queueSize),
		done:    make(chan struct{}),
	}
	go s.processQueue()
	return s
}

func (s *AuditService) LogAsync(entry AuditEntry) {
	row := models.AuditLog{
		UserID:       entry.UserID,
		GroupID:      entry.GroupID,
		Action:       entry.Action,
		ResourceType: entry.ResourceType,
		ResourceID:   entry.ResourceID,
		Details:      entry.Details,
		IPAddress:    entry.IPAddress,
		RequestID:    entry.RequestID,
		CreatedAt:    time.Now().UTC(),
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}

	select {
	case s.queue <- row:
	default:
		logger.Warn("audit_queue_full", map[string]interface{}{
			"action":  entry.Action,
			"dropped": true,
		})
	}
}

func (s *AuditService) processQueue() {
	defer close(s.done)
	for row := range s.queue {
		if err := s.DB.Create(&row).Error; err != nil {
			logger.Error("audit_log_insert_failed", err, map[string]interface{}{
				"action": row.Action,
			})
		}
	}
}

// Close stops accepting entries and waits until queued rows are written.
func (s *AuditService) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		<-s.done
		return
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()
	<-s.done
}

// WatchSessions records every session event published by broker until the
// returned stop function is called.
func (s *AuditService) WatchSessions(broker *identity.Broker) (stop func()) {
	events, unsubscribe := broker.Subscribe(64)
	finished := make(chan struct{})

	go func() {
		defer close(finished)
		for evt := range events {
			userID := evt.UserID
			s.LogAsync(AuditEntry{
				UserID:       &userID,
				Action:       "session." + string(evt.Type),
				ResourceType: "user",
				ResourceID:   &userID,
				Details: map[string]interface{}{
					"at": evt.At.Format(time.RFC3339Nano),
				},
			})
		}
	}()

	return func() {
		unsubscribe()
		<-finished
	}
}

// GroupActivity pages through a group's audit trail, newest first.
func (s *AuditService) GroupActivity(ctx context.Context, groupID uuid.UUID, page utils.PaginationParams) ([]models.AuditLog, int64, error) {
	q := s.DB.WithContext(ctx).Model(&models.AuditLog{}).Where("group_id = ?", groupID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	logs := []models.AuditLog{}
	if err := q.Scopes(page.Scope).Order("created_at DESC").Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

// StartExporter exports new audit rows every interval until ctx is done.
func (s *AuditService) StartExporter(ctx context.Context, interval time.Duration) {
	if s.Archive == nil || interval <= 0 {
		logger.Info("audit_exporter_disabled", map[string]interface{}{
			"archive":  s.Archive != nil,
			"interval": interval.String(),
		})
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.ExportOnce(ctx); err != nil {
					logger.Error("audit_export_failed", err, nil)
				}
			}
		}
	}()

	logger.Info("audit_exporter_started", map[string]interface{}{
		"interval": interval.String(),
	})
}

// ExportOnce uploads rows newer than the export cursor as one NDJSON object
// and advances the cursor. It returns the number of rows exported.
func (s *AuditService) ExportOnce(ctx context.Context) (int, error) {
	if s.Archive == nil {
		return 0, errors.New("no archive configured")
	}
	db := s.DB.WithContext(ctx)

	var cursor models.AuditExportCursor
	err := db.First(&cursor).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cursor = models.AuditExportCursor{LastExportAt: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)}
		err = db.Create(&cursor).Error
	}
	if err != nil {
		return 0, fmt.Errorf("load export cursor: %w", err)
	}

	var logs []models.AuditLog
	if err := db.Where("created_at > ?", cursor.LastExportAt).
		Order("created_at ASC").
		Limit(exportBatchSize).
		Find(&logs).Error; err != nil {
		return 0, fmt.Errorf("query audit logs: %w", err)
	}
	if len(logs) == 0 {
		return 0, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, log := range logs {
		if err := enc.Encode(log); err != nil {
			return 0, fmt.Errorf("encode audit log %s: %w", log.ID, err)
		}
	}

	now := time.Now().UTC()
	objectName := fmt.Sprintf("audit-logs/%s/%s.ndjson", now.Format("2006/01/02"), now.Format("15-04-05.000"))
	if err := s.Archive.Upload(ctx, objectName, &buf, int64(buf.Len()), "application/x-ndjson"); err != nil {
		return 0, fmt.Errorf("upload %s: %w", objectName, err)
	}

	if err := db.Model(&cursor).Updates(map[string]interface{}{
		"last_export_at": logs[len(logs)-1].CreatedAt,
		"exported_count": gorm.Expr("exported_count + ?", len(logs)),
	}).Error; err != nil {
		return 0, fmt.Errorf("advance export cursor: %w", err)
	}

	logger.Info("audit_export_success", map[string]interface{}{
		"object_name": objectName,
		"count":       len(logs),
	})
	return len(logs), nil
}
