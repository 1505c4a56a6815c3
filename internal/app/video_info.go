package app

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/frenesis/frenesis/internal/domain"
)

// VideoInfoService looks up video metadata for the preview shown before a
// download starts.
type VideoInfoService struct {
	provider  domain.VideoInfoProvider
	validator domain.URLValidator
	publisher domain.EventPublisher
	logger    *zap.Logger
}

// NewVideoInfoService creates a new video info service
func NewVideoInfoService(provider domain.VideoInfoProvider, validator domain.URLValidator, publisher domain.EventPublisher, logger *zap.Logger) *VideoInfoService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VideoInfoService{
		provider:  provider,
		validator: validator,
		publisher: publisher,
		logger:    logger,
	}
}

// Lookup fetches metadata for url and announces it with a video_info_ready event
func (s *VideoInfoService) Lookup(ctx context.Context, url string) (*domain.VideoInfo, error) {
	url = strings.TrimSpace(url)
	if url == "" || (s.validator != nil && !s.validator.Valid(url)) {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidURL, url)
	}

	info, err := s.provider.VideoInfo(ctx, url)
	if err != nil {
		s.logger.Warn("Video info lookup failed", zap.String("url", url), zap.Error(err))
		return nil, fmt.Errorf("failed to fetch video info: %w", err)
	}

	s.logger.Debug("Video info ready", zap.String("url", url), zap.String("title", info.Title))

	if s.publisher != nil {
		s.publisher.Publish(domain.Event{Type: domain.EventVideoInfoReady, Info: info})
	}
	return info, nil
}
