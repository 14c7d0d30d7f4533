/*分块导出*/
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"movie-workflow/internal/render"
	"movie-workflow/internal/utils"
)

// DefaultChunkSeconds 每个分块的默认时长上限（15分钟）
const DefaultChunkSeconds = 900.0

// Encoder 拼接编码协作方
type Encoder interface {
	Concat(ctx context.Context, inputs []string, outputFile string) error
}

// Exporter 分块导出器
// 将场景单元按时长上限分组，逐组落盘为中间产物，最后合并为最终输出，
// 任一时刻只持有约一个分块的媒体资源
type Exporter struct {
	logger       *zap.Logger
	encoder      Encoder
	chunkSeconds float64
}

// NewExporter 创建分块导出器；chunkSeconds不大于0时使用默认上限
func NewExporter(logger *zap.Logger, encoder Encoder, chunkSeconds float64) *Exporter {
	if chunkSeconds <= 0 {
		chunkSeconds = DefaultChunkSeconds
	}
	return &Exporter{
		logger:       logger,
		encoder:      encoder,
		chunkSeconds: chunkSeconds,
	}
}

// Export 将有序的场景单元序列导出为最终输出文件
// 分组规则：组非空且再加入当前单元会超上限时先落盘当前组；
// 新组的第一个单元无条件接受，单个超长场景独占一组而不会被切开。
// 任何落盘失败都会中止整个导出，不产生部分结果
func (e *Exporter) Export(ctx context.Context, units []*render.SceneUnit, tmpDir, outputPath string) error {
	if len(units) == 0 {
		return &utils.InputError{Msg: "没有可导出的场景单元"}
	}

	if err := os.MkdirAll(tmpDir, 0755); err != nil {
		return &utils.EncodeError{Op: "export", Err: fmt.Errorf("创建分块目录失败: %w", err)}
	}

	var (
		group       []*render.SceneUnit
		accumulated float64
		partPaths   []string
	)

	flush := func() error {
		partPath := filepath.Join(tmpDir, fmt.Sprintf("part_%d.mp4", len(partPaths)))

		files := make([]string, len(group))
		for i, u := range group {
			files[i] = u.File
		}

		e.logger.Info("落盘分块",
			zap.Int("分块", len(partPaths)),
			zap.Int("场景数", len(group)),
			zap.Float64("时长", accumulated),
		)

		if err := e.encoder.Concat(ctx, files, partPath); err != nil {
			return fmt.Errorf("分块 %d 落盘失败: %w", len(partPaths), err)
		}
		partPaths = append(partPaths, partPath)

		// 释放已落盘分组占用的资源
		for _, u := range group {
			u.Release(e.logger)
		}
		group = nil
		accumulated = 0
		return nil
	}

	for _, unit := range units {
		if len(group) > 0 && accumulated+unit.Duration > e.chunkSeconds {
			if err := flush(); err != nil {
				return err
			}
		}
		group = append(group, unit)
		accumulated += unit.Duration
	}

	if len(group) > 0 {
		if err := flush(); err != nil {
			return err
		}
	}

	// 按落盘顺序合并全部中间产物
	e.logger.Info("合并分块",
		zap.Int("分块数", len(partPaths)),
		zap.String("输出", outputPath),
	)
	if err := e.encoder.Concat(ctx, partPaths, outputPath); err != nil {
		return fmt.Errorf("合并最终输出失败: %w", err)
	}

	// 删除中间产物；删除失败不影响导出结果
	for _, p := range partPaths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			e.logger.Warn("删除中间产物失败", zap.Error(&utils.CleanupError{Path: p, Err: err}))
		}
	}

	return nil
}
