package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/kapu/lessonlens/internal/domain"
)

// SpeechTranscriber produces a transcript by downloading the audio track and
// running a local speech-to-text model. It is the bottom rung of the
// strategy ladder: slow and expensive, used only when no caption track
// exists.
type SpeechTranscriber struct {
	ytDlpBinary  string
	ffmpegBinary string
	whisperBin   string
	whisperModel string
	logger       *zap.Logger
}

type SpeechConfig struct {
	YtDlpBinary  string
	FFmpegBinary string
	WhisperBin   string
	WhisperModel string
}

func NewSpeechTranscriber(cfg SpeechConfig, logger *zap.Logger) *SpeechTranscriber {
	return &SpeechTranscriber{
		ytDlpBinary:  cfg.YtDlpBinary,
		ffmpegBinary: cfg.FFmpegBinary,
		whisperBin:   cfg.WhisperBin,
		whisperModel: cfg.WhisperModel,
		logger:       logger,
	}
}

func (t *SpeechTranscriber) Source() domain.SourceStrategy {
	return domain.SourceLocalSpeechToText
}

// whisperOutput matches the JSON file the whisper CLI writes next to its
// input.
type whisperOutput struct {
	Text     string `json:"text"`
	Segments []struct {
		Text string `json:"text"`
	} `json:"segments"`
}

func (t *SpeechTranscriber) Fetch(ctx context.Context, videoID string) (string, error) {
	tmpDir, err := os.MkdirTemp("", "lessonlens-stt-")
	if err != nil {
		return "", fmt.Errorf("failed to create work directory: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	audioPath := filepath.Join(tmpDir, "audio.m4a")
	wavPath := filepath.Join(tmpDir, "audio.wav")

	t.logger.Info("Starting local speech-to-text", zap.String("video_id", videoID))

	if err := t.runCommand(ctx, t.ytDlpBinary,
		"--no-playlist",
		"-f", "bestaudio[ext=m4a]/bestaudio",
		"-o", audioPath,
		fmt.Sprintf(watchPageURLFormat, videoID),
	); err != nil {
		return "", fmt.Errorf("audio download failed: %w", err)
	}

	// Whisper wants mono 16kHz PCM.
	if err := t.runCommand(ctx, t.ffmpegBinary,
		"-y",
		"-i", audioPath,
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		wavPath,
	); err != nil {
		return "", fmt.Errorf("audio transcode failed: %w", err)
	}

	if err := t.runCommand(ctx, t.whisperBin,
		"--model", t.whisperModel,
		"--output_format", "json",
		"--output_dir", tmpDir,
		wavPath,
	); err != nil {
		return "", fmt.Errorf("speech-to-text failed: %w", err)
	}

	data, err := os.ReadFile(filepath.Join(tmpDir, "audio.json"))
	if err != nil {
		return "", fmt.Errorf("speech-to-text output missing: %w", err)
	}

	var output whisperOutput
	if err := json.Unmarshal(data, &output); err != nil {
		return "", fmt.Errorf("failed to decode speech-to-text output: %w", err)
	}

	if len(output.Segments) > 0 {
		var sb strings.Builder
		for _, seg := range output.Segments {
			sb.WriteString(seg.Text)
			sb.WriteByte(' ')
		}
		return sb.String(), nil
	}
	return output.Text, nil
}

func (t *SpeechTranscriber) runCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w (output: %s)", name, err, tailOf(string(output), 300))
	}
	return nil
}

// tailOf keeps the last n bytes of command output, where the useful error
// usually is.
func tailOf(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
