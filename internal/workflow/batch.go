package workflow

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"movie-workflow/internal/assets"
)

// BatchRender 渲染目录中的所有脚本文件
// 每个*.txt脚本产出一部电影，资产目录（可选）中的文件按类型拆分为共享资产池；
// 单个脚本失败只记录日志，不影响其余脚本
func (p *Processor) BatchRender(ctx context.Context, scriptDir, assetDir, outputDir string) error {
	files, err := filepath.Glob(filepath.Join(scriptDir, "*.txt"))
	if err != nil {
		return err
	}

	var images, videos []string
	if assetDir != "" {
		entries, err := os.ReadDir(assetDir)
		if err != nil {
			p.logger.Warn("读取资产目录失败", zap.String("目录", assetDir), zap.Error(err))
		} else {
			var paths []string
			for _, entry := range entries {
				if !entry.IsDir() {
					paths = append(paths, filepath.Join(assetDir, entry.Name()))
				}
			}
			images, videos = assets.SplitByKind(paths)
		}
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			p.logger.Warn("读取脚本文件失败",
				zap.String("文件", file),
				zap.Error(err),
			)
			continue
		}

		name := strings.TrimSuffix(filepath.Base(file), ".txt")
		outputPath := filepath.Join(outputDir, name+".mp4")

		_, err = p.RenderMovie(ctx, MovieParams{
			JobID:      name,
			Script:     string(content),
			Images:     images,
			Clips:      videos,
			OutputPath: outputPath,
		})
		if err != nil {
			p.logger.Warn("渲染脚本失败",
				zap.String("文件", file),
				zap.Error(err),
			)
			continue
		}

		p.logger.Info("脚本渲染完成",
			zap.String("文件", file),
			zap.String("输出", outputPath),
		)
	}

	return nil
}
