package constants

import "time"

var InputLimits = struct {
	IntentionMinLength int
	IntentionMaxLength int
}{
	IntentionMinLength: 10,
	IntentionMaxLength: 1000,
}

var PromptLimits = struct {
	TranscriptBudget int     // characters of transcript included in the full prompt
	DegradedBudget   int     // much smaller excerpt for the degraded retry
	BoundaryWindow   float64 // fraction of the budget scanned backward for a sentence break
}{
	TranscriptBudget: 3000,
	DegradedBudget:   800,
	BoundaryWindow:   0.2,
}

var AnalysisTimeouts = struct {
	Full     time.Duration
	Degraded time.Duration
}{
	Full:     3 * time.Minute,
	Degraded: 45 * time.Second,
}

var NormalizerLimits = struct {
	MaxKeyPoints   int
	MaxInsights    int
	MaxTimestamps  int
	HeuristicScore int // assumed score when no pattern is found in the raw text
}{
	MaxKeyPoints:   6,
	MaxInsights:    6,
	MaxTimestamps:  10,
	HeuristicScore: 50,
}

var CaptionConfig = struct {
	Languages        []string // preference order; empty string matches any auto-generated track
	HTTPTimeout      time.Duration
	MaxFetchRetries  uint64
	WatchPageTimeout time.Duration
}{
	Languages:        []string{"en", "en-US"},
	HTTPTimeout:      15 * time.Second,
	MaxFetchRetries:  3,
	WatchPageTimeout: 20 * time.Second,
}

var CacheTTL = struct {
	Transcript time.Duration
	DedupKey   time.Duration // safety bound so a crashed process cannot wedge a key forever
}{
	Transcript: 6 * time.Hour,
	DedupKey:   10 * time.Minute,
}

var CircuitBreakerConfig = struct {
	FailureThreshold    int
	ResetTimeout        time.Duration
	RateLimitTimeout    time.Duration
	HealthCheckInterval time.Duration
	HealthCheckTimeout  time.Duration
}{
	FailureThreshold:    3,
	ResetTimeout:        30 * time.Second,
	RateLimitTimeout:    1 * time.Hour,
	HealthCheckInterval: 10 * time.Minute,
	HealthCheckTimeout:  10 * time.Second,
}

var MetadataConfig = struct {
	DailyQuotaLimit   int
	VideosQuotaCost   int
	QuotaSafetyMargin int
	ResolveTimeout    time.Duration
}{
	DailyQuotaLimit:   10000,
	VideosQuotaCost:   1,
	QuotaSafetyMargin: 500,
	ResolveTimeout:    10 * time.Second,
}

var ServerConfig = struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}{
	ReadTimeout:     30 * time.Second,
	WriteTimeout:    5 * time.Minute, // analysis responses can take minutes
	ShutdownTimeout: 10 * time.Second,
}
