package service

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/kapu/lessonlens/internal/constants"
	"github.com/kapu/lessonlens/internal/domain"
)

// MetadataService resolves video title, channel and duration through the
// YouTube Data API. Resolution is best-effort enrichment: every failure path
// degrades to placeholder metadata instead of failing the analysis.
type MetadataService struct {
	service    *youtube.Service
	logger     *zap.Logger
	quotaUsed  int
	quotaMu    sync.Mutex
	quotaReset time.Time
}

// QuotaExceededError signals the daily API budget is spent.
type QuotaExceededError struct {
	Used      int
	Limit     int
	Requested int
	ResetTime time.Time
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("YouTube API quota exceeded: used %d/%d, requested %d, resets at %s",
		e.Used, e.Limit, e.Requested, e.ResetTime.Format(time.RFC3339))
}

// NewMetadataService creates the resolver. An empty API key is allowed: the
// resolver is simply never constructed and callers use placeholders.
func NewMetadataService(apiKey string, logger *zap.Logger) (*MetadataService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("YouTube API key is required")
	}

	service, err := youtube.NewService(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	ms := &MetadataService{
		service:    service,
		logger:     logger,
		quotaReset: nextQuotaReset(),
	}

	logger.Info("YouTube metadata service initialized",
		zap.Time("quota_reset", ms.quotaReset))

	return ms, nil
}

// nextQuotaReset is midnight Pacific Time, when the Data API quota refills.
func nextQuotaReset() time.Time {
	pt, _ := time.LoadLocation("America/Los_Angeles")
	now := time.Now().In(pt)
	return time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, pt)
}

func (ms *MetadataService) checkQuota(cost int) error {
	ms.quotaMu.Lock()
	defer ms.quotaMu.Unlock()

	now := time.Now()
	if now.After(ms.quotaReset) {
		ms.quotaUsed = 0
		ms.quotaReset = nextQuotaReset()
		ms.logger.Info("YouTube API quota auto-reset",
			zap.Time("next_reset", ms.quotaReset))
	}

	if ms.quotaUsed+cost > constants.MetadataConfig.DailyQuotaLimit-constants.MetadataConfig.QuotaSafetyMargin {
		return &QuotaExceededError{
			Used:      ms.quotaUsed,
			Limit:     constants.MetadataConfig.DailyQuotaLimit,
			Requested: cost,
			ResetTime: ms.quotaReset,
		}
	}
	return nil
}

func (ms *MetadataService) consumeQuota(cost int) {
	ms.quotaMu.Lock()
	defer ms.quotaMu.Unlock()

	ms.quotaUsed += cost
	ms.logger.Debug("YouTube API quota consumed",
		zap.Int("cost", cost),
		zap.Int("used", ms.quotaUsed))
}

// Resolve fetches metadata for one video. It never returns an error: any
// failure is logged and answered with placeholder metadata.
func (ms *MetadataService) Resolve(ctx context.Context, videoID string) *domain.VideoMetadata {
	if err := ms.checkQuota(constants.MetadataConfig.VideosQuotaCost); err != nil {
		ms.logger.Warn("Skipping metadata lookup", zap.Error(err))
		return domain.PlaceholderMetadata(videoID)
	}

	ctx, cancel := context.WithTimeout(ctx, constants.MetadataConfig.ResolveTimeout)
	defer cancel()

	call := ms.service.Videos.List([]string{"snippet", "contentDetails"}).Id(videoID)
	resp, err := call.Context(ctx).Do()
	if err != nil {
		ms.logger.Warn("Metadata lookup failed",
			zap.String("video_id", videoID),
			zap.Error(err))
		return domain.PlaceholderMetadata(videoID)
	}
	ms.consumeQuota(constants.MetadataConfig.VideosQuotaCost)

	if len(resp.Items) == 0 {
		ms.logger.Warn("Metadata lookup returned no items",
			zap.String("video_id", videoID))
		return domain.PlaceholderMetadata(videoID)
	}

	item := resp.Items[0]
	meta := &domain.VideoMetadata{
		ID:    videoID,
		Title: item.Snippet.Title,
	}
	if meta.Title == "" {
		meta.Title = domain.PlaceholderTitle
	}
	meta.ChannelName = item.Snippet.ChannelTitle
	if item.ContentDetails != nil {
		meta.Duration = formatISO8601Duration(item.ContentDetails.Duration)
	}

	ms.logger.Debug("Metadata resolved",
		zap.String("video_id", videoID),
		zap.String("title", meta.Title))
	return meta
}

var iso8601DurationPattern = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// formatISO8601Duration converts the API's PT#H#M#S form into a clock string
// (H:MM:SS above an hour, MM:SS below). Unparseable input passes through
// empty.
func formatISO8601Duration(raw string) string {
	match := iso8601DurationPattern.FindStringSubmatch(raw)
	if match == nil {
		return ""
	}

	hours, _ := strconv.Atoi(match[1])
	minutes, _ := strconv.Atoi(match[2])
	seconds, _ := strconv.Atoi(match[3])

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
