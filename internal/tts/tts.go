package tts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"movie-workflow/internal/utils"
)

// DurationProber 探测音频文件的真实时长
type DurationProber interface {
	ProbeDuration(ctx context.Context, path string) (float64, error)
}

// Processor 旁白合成处理器，封装客户端调用与音频时长探测
type Processor struct {
	logger *zap.Logger
	client *Client
	prober DurationProber
}

// NewProcessor 创建旁白合成处理器
func NewProcessor(logger *zap.Logger, client *Client, prober DurationProber) *Processor {
	return &Processor{
		logger: logger,
		client: client,
		prober: prober,
	}
}

// Synthesize 为一段文本合成旁白音频，返回音频文件路径及其真实时长
// 合成服务失败时返回SynthesisError，由调用方中止整个任务
func (tp *Processor) Synthesize(ctx context.Context, text, language, voiceProfile, outputFile string) (string, float64, error) {
	if err := os.MkdirAll(filepath.Dir(outputFile), 0755); err != nil {
		return "", 0, &utils.SynthesisError{Err: fmt.Errorf("创建音频输出目录失败: %w", err)}
	}

	if err := tp.client.Synthesize(ctx, text, language, voiceProfile, outputFile); err != nil {
		return "", 0, &utils.SynthesisError{Err: err}
	}

	if _, err := os.Stat(outputFile); err != nil {
		return "", 0, &utils.SynthesisError{Err: fmt.Errorf("合成后音频文件不存在: %w", err)}
	}

	duration, err := tp.prober.ProbeDuration(ctx, outputFile)
	if err != nil {
		return "", 0, &utils.SynthesisError{Err: fmt.Errorf("探测旁白时长失败: %w", err)}
	}

	tp.logger.Info("旁白合成完成",
		zap.String("output_file", outputFile),
		zap.Float64("时长", duration),
	)

	return outputFile, duration, nil
}
