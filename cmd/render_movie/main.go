/*命令行渲染工具：单脚本或整目录批量渲染，不依赖Web服务*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"movie-workflow/internal/assets"
	"movie-workflow/internal/media"
	"movie-workflow/internal/workflow"
)

func main() {
	scriptFile := flag.String("script", "", "脚本文件路径（与-script-dir二选一）")
	scriptDir := flag.String("script-dir", "", "脚本目录，批量渲染其中全部*.txt")
	assetDir := flag.String("assets", "", "资产目录，图片视频混放")
	output := flag.String("o", "movie.mp4", "输出文件（单脚本）或输出目录（批量）")
	resolution := flag.String("resolution", "", "输出分辨率，如1920x1080，默认取配置")
	fps := flag.Int("fps", 0, "输出帧率，默认取配置")
	voice := flag.String("voice", "", "旁白音色，默认取配置")
	effect := flag.String("effect", "", "场景特效名称")
	workers := flag.Int("workers", 0, "场景渲染并发数，默认取配置")
	flag.Parse()

	if *scriptFile == "" && *scriptDir == "" {
		fmt.Fprintln(os.Stderr, "必须指定-script或-script-dir")
		flag.Usage()
		os.Exit(2)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := loadConfig(logger)
	if err != nil {
		logger.Fatal("加载配置失败", zap.Error(err))
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}

	processor, err := workflow.NewProcessor(logger, cfg)
	if err != nil {
		logger.Fatal("初始化工作流失败", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *scriptDir != "" {
		if err := processor.BatchRender(ctx, *scriptDir, *assetDir, *output); err != nil {
			logger.Fatal("批量渲染失败", zap.Error(err))
		}
		return
	}

	content, err := os.ReadFile(*scriptFile)
	if err != nil {
		logger.Fatal("读取脚本文件失败", zap.String("文件", *scriptFile), zap.Error(err))
	}

	var images, videos []string
	if *assetDir != "" {
		entries, err := os.ReadDir(*assetDir)
		if err != nil {
			logger.Fatal("读取资产目录失败", zap.String("目录", *assetDir), zap.Error(err))
		}
		var paths []string
		for _, entry := range entries {
			if !entry.IsDir() {
				paths = append(paths, filepath.Join(*assetDir, entry.Name()))
			}
		}
		images, videos = assets.SplitByKind(paths)
	}

	name := strings.TrimSuffix(filepath.Base(*scriptFile), filepath.Ext(*scriptFile))
	result, err := processor.RenderMovie(ctx, workflow.MovieParams{
		JobID:        name,
		Script:       string(content),
		Images:       images,
		Clips:        videos,
		VoiceProfile: *voice,
		FrameRate:    *fps,
		Resolution:   *resolution,
		Effect:       *effect,
		OutputPath:   *output,
	})
	if err != nil {
		logger.Fatal("渲染失败", zap.Error(err))
	}

	logger.Info("渲染完成", zap.String("输出", result))
}

// loadConfig 从config.yaml读取工作流配置，缺失项使用默认值
func loadConfig(logger *zap.Logger) (workflow.Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if exe, err := os.Executable(); err == nil {
		v.AddConfigPath(filepath.Dir(exe))
	}

	v.SetDefault("tts.base_url", "http://localhost:7860")
	v.SetDefault("tts.language", "en")
	v.SetDefault("render.resolution", "1920x1080")
	v.SetDefault("render.frame_rate", 24)
	v.SetDefault("render.chunk_seconds", 900)
	v.SetDefault("render.workers", 1)
	v.SetDefault("render.work_dir", "output")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return workflow.Config{}, err
		}
		logger.Warn("未找到配置文件，使用默认配置")
	}

	res, err := media.ParseResolution(v.GetString("render.resolution"))
	if err != nil {
		return workflow.Config{}, err
	}

	return workflow.Config{
		Resolution:   res,
		FrameRate:    v.GetInt("render.frame_rate"),
		ChunkSeconds: v.GetFloat64("render.chunk_seconds"),
		Language:     v.GetString("tts.language"),
		VoiceProfile: v.GetString("render.voice_profile"),
		Workers:      v.GetInt("render.workers"),
		WorkDir:      v.GetString("render.work_dir"),
		TTSBaseURL:   v.GetString("tts.base_url"),
		FontPath:     v.GetString("image.font_path"),
	}, nil
}
