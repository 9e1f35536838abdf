package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/facebookgo/clock"

	"github.com/yungbote/storyfeed-backend/internal/data/repos"
	types "github.com/yungbote/storyfeed-backend/internal/domain"
	"github.com/yungbote/storyfeed-backend/internal/feed"
	"github.com/yungbote/storyfeed-backend/internal/platform/apierr"
	"github.com/yungbote/storyfeed-backend/internal/platform/ctxutil"
	"github.com/yungbote/storyfeed-backend/internal/platform/logger"
)

const maxDeviceIDLength = 128

type ViewInput struct {
	ContentID   string     `json:"id"`
	ContentType string     `json:"type"`
	Timestamp   *time.Time `json:"timestamp,omitempty"`
}

type ViewMetrics interface {
	IncViewRecorded(contentType string)
}

// ViewService keeps the server-side copy of a device's view log.
type ViewService interface {
	Record(ctx context.Context, deviceID string, in ViewInput) (*types.ViewRecord, error)
	History(ctx context.Context, deviceID string, limit int) ([]feed.ViewRecord, error)
	Forget(ctx context.Context, deviceID string) (int64, error)
}

type viewService struct {
	log     *logger.Logger
	clk     clock.Clock
	views   repos.ViewRecordRepo
	metrics ViewMetrics
}

func NewViewService(log *logger.Logger, views repos.ViewRecordRepo, clk clock.Clock, metrics ViewMetrics) ViewService {
	if clk == nil {
		clk = clock.New()
	}
	return &viewService{
		log:     log.With("service", "ViewService"),
		clk:     clk,
		views:   views,
		metrics: metrics,
	}
}

func validDeviceID(deviceID string) (string, error) {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return "", apierr.BadRequest("missing_device_id", "deviceId is required")
	}
	if len(deviceID) > maxDeviceIDLength {
		return "", apierr.BadRequest("invalid_device_id", "deviceId longer than %d characters", maxDeviceIDLength)
	}
	return deviceID, nil
}

func (s *viewService) Record(ctx context.Context, deviceID string, in ViewInput) (*types.ViewRecord, error) {
	deviceID, err := validDeviceID(deviceID)
	if err != nil {
		return nil, err
	}
	contentID := strings.TrimSpace(in.ContentID)
	if contentID == "" {
		return nil, apierr.BadRequest("missing_content_id", "id is required")
	}
	switch in.ContentType {
	case feed.ContentTypeStory, feed.ContentTypeInfoCard:
	default:
		return nil, apierr.BadRequest("invalid_content_type", "type must be %q or %q, got %q",
			feed.ContentTypeStory, feed.ContentTypeInfoCard, in.ContentType)
	}
	viewedAt := s.clk.Now().UTC()
	if in.Timestamp != nil && !in.Timestamp.IsZero() {
		viewedAt = in.Timestamp.UTC()
	}

	rows, err := s.views.Create(ctx, nil, []*types.ViewRecord{{
		DeviceID:    deviceID,
		ContentID:   contentID,
		ContentType: in.ContentType,
		ViewedAt:    viewedAt,
	}})
	if err != nil {
		s.log.With(ctxutil.LogFields(ctx)...).Error("view record insert failed", "error", err, "device_id", deviceID)
		return nil, apierr.Internal("view_store_unavailable", fmt.Errorf("record view: %w", err))
	}
	if s.metrics != nil {
		s.metrics.IncViewRecorded(in.ContentType)
	}
	return rows[0], nil
}

// History returns the device's views newest first.
func (s *viewService) History(ctx context.Context, deviceID string, limit int) ([]feed.ViewRecord, error) {
	deviceID, err := validDeviceID(deviceID)
	if err != nil {
		return nil, err
	}
	if limit < 0 {
		return nil, apierr.BadRequest("invalid_limit", "limit must be >= 0, got %d", limit)
	}
	rows, err := s.views.ListByDevice(ctx, nil, deviceID, limit)
	if err != nil {
		return nil, apierr.Internal("view_store_unavailable", fmt.Errorf("list views: %w", err))
	}
	out := make([]feed.ViewRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ToFeed())
	}
	return out, nil
}

func (s *viewService) Forget(ctx context.Context, deviceID string) (int64, error) {
	deviceID, err := validDeviceID(deviceID)
	if err != nil {
		return 0, err
	}
	n, err := s.views.DeleteByDevice(ctx, nil, deviceID)
	if err != nil {
		return 0, apierr.Internal("view_store_unavailable", fmt.Errorf("forget views: %w", err))
	}
	s.log.Info("view log cleared", "device_id", deviceID, "deleted", n)
	return n, nil
}
