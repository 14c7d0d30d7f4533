/*工作流编排*/
package workflow

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"movie-workflow/internal/assets"
	"movie-workflow/internal/export"
	"movie-workflow/internal/media"
	"movie-workflow/internal/render"
	"movie-workflow/internal/script"
	"movie-workflow/internal/tts"
	"movie-workflow/internal/utils"
	"movie-workflow/pkg/broadcast"
)

// Config 工作流配置
// 所有默认值在进程启动时从配置文件解析为显式字段，运行中不读取全局状态
type Config struct {
	Resolution   media.Resolution
	FrameRate    int
	ChunkSeconds float64
	Language     string
	VoiceProfile string
	Workers      int    // 场景渲染并发数，1为顺序渲染
	WorkDir      string // 运行期工作目录，每次任务在其下创建独立子目录
	TTSBaseURL   string
	FontPath     string
}

// MovieParams 一次完整电影渲染请求
type MovieParams struct {
	JobID        string
	Script       string
	Images       []string // 图片资产池
	Clips        []string // 视频资产池
	VoiceProfile string   // 为空时使用配置默认值
	FrameRate    int      // 不大于0时使用配置默认值
	Resolution   string   // 形如"1920x1080"，为空时使用配置默认值
	Effect       string
	OutputPath   string
}

// CharacterParams 角色短片渲染请求
type CharacterParams struct {
	ImagePath  string
	Name       string
	Duration   float64 // 不大于0时默认6秒
	Resolution string  // 为空时默认1280x720
}

// Processor 工作流处理器，串联分段、资产分配、场景渲染与分块导出
type Processor struct {
	logger   *zap.Logger
	cfg      Config
	renderer *render.Renderer
	exporter *export.Exporter
	visuals  render.VisualGenerator
	progress *broadcast.Service
}

// NewProcessor 创建工作流处理器并初始化各个工具
func NewProcessor(logger *zap.Logger, cfg Config) (*Processor, error) {
	if cfg.Resolution.Width <= 0 || cfg.Resolution.Height <= 0 {
		return nil, fmt.Errorf("工作流配置缺少有效分辨率")
	}
	if cfg.FrameRate <= 0 {
		return nil, fmt.Errorf("工作流配置缺少有效帧率")
	}

	encoder := media.NewFFmpeg(logger)
	encoder.SetFontPath(cfg.FontPath)

	ttsClient := tts.NewClient(logger, cfg.TTSBaseURL)
	narrator := tts.NewProcessor(logger, ttsClient, encoder)

	renderer := render.NewRenderer(logger, narrator, encoder, encoder)
	exporter := export.NewExporter(logger, encoder, cfg.ChunkSeconds)

	return NewProcessorWith(logger, cfg, renderer, exporter, encoder), nil
}

// NewProcessorWith 使用外部提供的渲染器和导出器创建处理器
func NewProcessorWith(logger *zap.Logger, cfg Config, renderer *render.Renderer, exporter *export.Exporter, visuals render.VisualGenerator) *Processor {
	return &Processor{
		logger:   logger,
		cfg:      cfg,
		renderer: renderer,
		exporter: exporter,
		visuals:  visuals,
	}
}

// SetProgress 设置进度广播服务，为nil时不广播
func (p *Processor) SetProgress(service *broadcast.Service) {
	p.progress = service
}

// Renderer 返回场景渲染器，供调用方注册特效
func (p *Processor) Renderer() *render.Renderer {
	return p.renderer
}

// RenderMovie 从脚本和可选资产渲染完整电影，返回最终输出路径
// 同步阻塞，可能运行数分钟；任一环节失败都会中止并清理场景资源
func (p *Processor) RenderMovie(ctx context.Context, params MovieParams) (string, error) {
	start := time.Now()

	// 1. 脚本分段
	scenes := script.Segment(params.Script)
	if len(scenes) == 0 {
		return "", &utils.InputError{Msg: "脚本为空或没有有效段落"}
	}

	resolution, frameRate, voiceProfile, err := p.resolveOptions(params)
	if err != nil {
		return "", err
	}

	p.logger.Info("开始渲染电影",
		zap.String("job_id", params.JobID),
		zap.Int("场景数", len(scenes)),
		zap.String("分辨率", resolution.String()),
		zap.Int("帧率", frameRate),
		zap.String("输出", params.OutputPath),
	)
	p.notify(params.JobID, "segment", fmt.Sprintf("脚本分段完成，共%d个场景", len(scenes)))

	// 2. 资产分配
	assignments := assets.Resolve(len(scenes), params.Images, params.Clips)

	// 3. 创建本次任务独立的工作目录
	if err := os.MkdirAll(p.cfg.WorkDir, 0755); err != nil {
		return "", &utils.EncodeError{Op: "workspace", Err: fmt.Errorf("创建工作目录失败: %w", err)}
	}
	runDir, err := os.MkdirTemp(p.cfg.WorkDir, "movie_run_")
	if err != nil {
		return "", &utils.EncodeError{Op: "workspace", Err: fmt.Errorf("创建任务目录失败: %w", err)}
	}
	defer p.removeDirQuietly(runDir)

	// 4. 逐场景渲染
	units, err := p.renderScenes(ctx, scenes, assignments, params, resolution, frameRate, voiceProfile, runDir)

	// 无论导出成败，所有场景单元资源最终都会被释放
	defer func() {
		for _, u := range units {
			if u != nil {
				u.Release(p.logger)
			}
		}
	}()

	if err != nil {
		return "", err
	}
	p.notify(params.JobID, "render", fmt.Sprintf("%d个场景渲染完成", len(units)))

	// 5. 分块导出并合并
	chunkDir := filepath.Join(runDir, "chunks")
	if err := p.exporter.Export(ctx, units, chunkDir, params.OutputPath); err != nil {
		return "", err
	}

	p.logger.Info("电影渲染完成",
		zap.String("job_id", params.JobID),
		zap.String("输出", params.OutputPath),
		zap.Duration("耗时", time.Since(start)),
	)
	p.notify(params.JobID, "export", "最终输出已生成")

	return params.OutputPath, nil
}

// resolveOptions 将请求参数与配置默认值合并为本次运行的显式选项
func (p *Processor) resolveOptions(params MovieParams) (media.Resolution, int, string, error) {
	resolution := p.cfg.Resolution
	if params.Resolution != "" {
		parsed, err := media.ParseResolution(params.Resolution)
		if err != nil {
			return media.Resolution{}, 0, "", &utils.InputError{Msg: err.Error()}
		}
		resolution = parsed
	}

	frameRate := p.cfg.FrameRate
	if params.FrameRate > 0 {
		frameRate = params.FrameRate
	}

	voiceProfile := p.cfg.VoiceProfile
	if params.VoiceProfile != "" {
		voiceProfile = params.VoiceProfile
	}

	return resolution, frameRate, voiceProfile, nil
}

// renderScenes 按场景顺序渲染全部场景单元
// Workers大于1时使用有界并发，结果仍按原始场景顺序排列，
// 导出阶段消费的始终是原始顺序
func (p *Processor) renderScenes(ctx context.Context, scenes []script.Scene, assignments []assets.Assignment,
	params MovieParams, resolution media.Resolution, frameRate int, voiceProfile, runDir string) ([]*render.SceneUnit, error) {

	renderOne := func(ctx context.Context, i int) (*render.SceneUnit, error) {
		return p.renderer.RenderScene(ctx, render.Params{
			Index:        i,
			Scene:        scenes[i],
			Assignment:   assignments[i],
			Language:     p.cfg.Language,
			VoiceProfile: voiceProfile,
			Resolution:   resolution,
			FrameRate:    frameRate,
			Effect:       params.Effect,
			WorkDir:      runDir,
		})
	}

	units := make([]*render.SceneUnit, len(scenes))

	workers := p.cfg.Workers
	if workers <= 1 {
		for i := range scenes {
			unit, err := renderOne(ctx, i)
			if err != nil {
				p.releaseAll(units)
				return nil, err
			}
			units[i] = unit
		}
		return units, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	sem := make(chan struct{}, workers)

	for i := range scenes {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()

			if ctx.Err() != nil {
				return
			}

			unit, err := renderOne(ctx, i)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
					cancel()
				}
				return
			}
			units[i] = unit
		}(i)
	}
	wg.Wait()

	if firstErr != nil {
		p.releaseAll(units)
		return nil, firstErr
	}
	return units, nil
}

// RenderCharacterClip 从单张图片渲染角色短片（推拉镜头加淡入，无声）
func (p *Processor) RenderCharacterClip(ctx context.Context, params CharacterParams) (string, error) {
	if _, err := os.Stat(params.ImagePath); err != nil {
		return "", &utils.AssetIOError{Path: params.ImagePath, Err: err}
	}

	duration := params.Duration
	if duration <= 0 {
		duration = 6
	}

	resolution := media.Resolution{Width: 1280, Height: 720}
	if params.Resolution != "" {
		parsed, err := media.ParseResolution(params.Resolution)
		if err != nil {
			return "", &utils.InputError{Msg: err.Error()}
		}
		resolution = parsed
	}

	name := params.Name
	if name == "" {
		name = "char"
	}
	name = strings.ReplaceAll(name, " ", "_")

	if err := os.MkdirAll(p.cfg.WorkDir, 0755); err != nil {
		return "", &utils.EncodeError{Op: "workspace", Err: fmt.Errorf("创建工作目录失败: %w", err)}
	}
	outputFile := filepath.Join(p.cfg.WorkDir, fmt.Sprintf("%s_char_%d.mp4", name, time.Now().Unix()))

	p.logger.Info("渲染角色短片",
		zap.String("图片", params.ImagePath),
		zap.Float64("时长", duration),
		zap.String("输出", outputFile),
	)

	if err := p.visuals.KenBurns(ctx, params.ImagePath, duration, resolution, p.cfg.FrameRate, 0.3, outputFile); err != nil {
		return "", err
	}

	return outputFile, nil
}

func (p *Processor) releaseAll(units []*render.SceneUnit) {
	for i, u := range units {
		if u != nil {
			u.Release(p.logger)
			units[i] = nil
		}
	}
}

func (p *Processor) notify(jobID, stage, msg string) {
	if p.progress == nil {
		return
	}
	p.progress.SendStage(jobID, stage, msg)
}

func (p *Processor) removeDirQuietly(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		p.logger.Warn("清理任务目录失败", zap.String("目录", dir), zap.Error(err))
	}
}
