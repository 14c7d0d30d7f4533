/*场景渲染*/
package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"movie-workflow/internal/assets"
	"movie-workflow/internal/media"
	"movie-workflow/internal/script"
	"movie-workflow/internal/utils"
)

// Narrator 旁白合成协作方
type Narrator interface {
	Synthesize(ctx context.Context, text, language, voiceProfile, outputFile string) (audioFile string, duration float64, err error)
}

// VisualGenerator 视觉轨道生成协作方
type VisualGenerator interface {
	KenBurns(ctx context.Context, imagePath string, duration float64, res media.Resolution, fps int, fadeIn float64, outputFile string) error
	FitVideo(ctx context.Context, videoPath string, duration float64, res media.Resolution, fps int, outputFile string) error
	SolidClip(ctx context.Context, text string, duration float64, res media.Resolution, fps int, outputFile string) error
}

// Muxer 音画合并协作方
type Muxer interface {
	Mux(ctx context.Context, videoFile, audioFile string, duration float64, outputFile string) error
}

// SceneUnit 一个渲染完成的场景单元
// Duration是创建时确定的权威时长，之后不再变化；
// 音轨按合成结果原样附加，与视觉轨道不做时长对齐
type SceneUnit struct {
	Index         int     `json:"index"`
	File          string  `json:"file"`
	VisualFile    string  `json:"visual_file"`
	AudioFile     string  `json:"audio_file"`
	Duration      float64 `json:"duration"`
	AudioDuration float64 `json:"audio_duration"`
}

// Release 删除场景单元的所有中间文件
// 清理失败只记录日志，可安全重复调用
func (u *SceneUnit) Release(logger *zap.Logger) {
	for _, path := range []string{u.File, u.VisualFile, u.AudioFile} {
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			logger.Warn("清理场景单元文件失败", zap.Error(&utils.CleanupError{Path: path, Err: err}))
		}
	}
}

// Params 单个场景的渲染参数
type Params struct {
	Index            int
	Scene            script.Scene
	Assignment       assets.Assignment
	DurationOverride float64 // 大于0时覆盖分段器的估算时长
	Language         string
	VoiceProfile     string
	Resolution       media.Resolution
	FrameRate        int
	Effect           string
	WorkDir          string
}

// Renderer 场景渲染器
type Renderer struct {
	logger   *zap.Logger
	narrator Narrator
	visuals  VisualGenerator
	muxer    Muxer
	effects  *EffectRegistry
}

// NewRenderer 创建场景渲染器
func NewRenderer(logger *zap.Logger, narrator Narrator, visuals VisualGenerator, muxer Muxer) *Renderer {
	return &Renderer{
		logger:   logger,
		narrator: narrator,
		visuals:  visuals,
		muxer:    muxer,
		effects:  NewEffectRegistry(logger),
	}
}

// Effects 返回特效表，供调用方注册新特效
func (r *Renderer) Effects() *EffectRegistry {
	return r.effects
}

// RenderScene 渲染一个场景为场景单元
// 视觉轨道始终贴合权威时长；优先使用图片资产，其次视频，最后纯色占位
func (r *Renderer) RenderScene(ctx context.Context, p Params) (*SceneUnit, error) {
	duration := p.Scene.Duration
	if p.DurationOverride > 0 {
		duration = p.DurationOverride
	}

	r.logger.Info("开始渲染场景",
		zap.Int("场景", p.Index),
		zap.Float64("时长", duration),
		zap.String("image", p.Assignment.Image),
		zap.String("video", p.Assignment.Video),
	)

	// 1. 合成旁白
	audioFile := filepath.Join(p.WorkDir, fmt.Sprintf("scene_%03d_tts.wav", p.Index))
	audioFile, audioDuration, err := r.narrator.Synthesize(ctx, p.Scene.Text, p.Language, p.VoiceProfile, audioFile)
	if err != nil {
		return nil, err
	}

	// 2. 生成视觉轨道
	visualFile := filepath.Join(p.WorkDir, fmt.Sprintf("scene_%03d_visual.mp4", p.Index))
	if err := r.renderVisual(ctx, p, duration, visualFile); err != nil {
		return nil, err
	}

	// 3. 合并音画
	unitFile := filepath.Join(p.WorkDir, fmt.Sprintf("scene_%03d.mp4", p.Index))
	if err := r.muxer.Mux(ctx, visualFile, audioFile, duration, unitFile); err != nil {
		return nil, err
	}

	// 4. 应用命名特效
	unitFile, err = r.effects.Apply(ctx, p.Effect, unitFile)
	if err != nil {
		return nil, err
	}

	return &SceneUnit{
		Index:         p.Index,
		File:          unitFile,
		VisualFile:    visualFile,
		AudioFile:     audioFile,
		Duration:      duration,
		AudioDuration: audioDuration,
	}, nil
}

// renderVisual 按资产优先级生成贴合权威时长的视觉轨道
func (r *Renderer) renderVisual(ctx context.Context, p Params, duration float64, outputFile string) error {
	if p.Assignment.Image != "" {
		if err := checkAsset(p.Assignment.Image); err != nil {
			return err
		}
		return r.visuals.KenBurns(ctx, p.Assignment.Image, duration, p.Resolution, p.FrameRate, 0, outputFile)
	}

	if p.Assignment.Video != "" {
		if err := checkAsset(p.Assignment.Video); err != nil {
			return err
		}
		return r.visuals.FitVideo(ctx, p.Assignment.Video, duration, p.Resolution, p.FrameRate, outputFile)
	}

	return r.visuals.SolidClip(ctx, p.Scene.Text, duration, p.Resolution, p.FrameRate, outputFile)
}

// checkAsset 确认资产文件存在且可读
func checkAsset(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return &utils.AssetIOError{Path: path, Err: err}
	}
	file.Close()
	return nil
}
