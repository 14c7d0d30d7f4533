package render

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"movie-workflow/internal/assets"
	"movie-workflow/internal/media"
	"movie-workflow/internal/script"
	"movie-workflow/internal/utils"
)

// fakeNarrator 记录调用并写出假音频文件
type fakeNarrator struct {
	texts    []string
	voices   []string
	duration float64
	err      error
}

func (n *fakeNarrator) Synthesize(ctx context.Context, text, language, voiceProfile, outputFile string) (string, float64, error) {
	if n.err != nil {
		return "", 0, n.err
	}
	n.texts = append(n.texts, text)
	n.voices = append(n.voices, voiceProfile)
	os.WriteFile(outputFile, []byte("audio"), 0644)
	return outputFile, n.duration, nil
}

// fakeVisuals 记录每次调用走了哪条视觉路径
type fakeVisuals struct {
	kenBurnsCalls []string
	fitVideoCalls []string
	solidCalls    []string
	durations     []float64
}

func (v *fakeVisuals) KenBurns(ctx context.Context, imagePath string, duration float64, res media.Resolution, fps int, fadeIn float64, outputFile string) error {
	v.kenBurnsCalls = append(v.kenBurnsCalls, imagePath)
	v.durations = append(v.durations, duration)
	return os.WriteFile(outputFile, []byte("visual"), 0644)
}

func (v *fakeVisuals) FitVideo(ctx context.Context, videoPath string, duration float64, res media.Resolution, fps int, outputFile string) error {
	v.fitVideoCalls = append(v.fitVideoCalls, videoPath)
	v.durations = append(v.durations, duration)
	return os.WriteFile(outputFile, []byte("visual"), 0644)
}

func (v *fakeVisuals) SolidClip(ctx context.Context, text string, duration float64, res media.Resolution, fps int, outputFile string) error {
	v.solidCalls = append(v.solidCalls, text)
	v.durations = append(v.durations, duration)
	return os.WriteFile(outputFile, []byte("visual"), 0644)
}

type fakeMuxer struct {
	durations []float64
}

func (m *fakeMuxer) Mux(ctx context.Context, videoFile, audioFile string, duration float64, outputFile string) error {
	m.durations = append(m.durations, duration)
	return os.WriteFile(outputFile, []byte("unit"), 0644)
}

func newTestRenderer(t *testing.T) (*Renderer, *fakeNarrator, *fakeVisuals, *fakeMuxer) {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	narrator := &fakeNarrator{duration: 3}
	visuals := &fakeVisuals{}
	muxer := &fakeMuxer{}
	return NewRenderer(logger, narrator, visuals, muxer), narrator, visuals, muxer
}

func baseParams(t *testing.T) Params {
	t.Helper()
	return Params{
		Index:        0,
		Scene:        script.Scene{Text: "一个测试场景", Duration: 6},
		Language:     "zh",
		VoiceProfile: "default",
		Resolution:   media.Resolution{Width: 1280, Height: 720},
		FrameRate:    24,
		WorkDir:      t.TempDir(),
	}
}

func writeTempAsset(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("asset"), 0644); err != nil {
		t.Fatalf("创建测试资产失败: %v", err)
	}
	return path
}

func TestRenderSceneSolidFallback(t *testing.T) {
	renderer, narrator, visuals, muxer := newTestRenderer(t)

	unit, err := renderer.RenderScene(context.Background(), baseParams(t))
	if err != nil {
		t.Fatalf("渲染失败: %v", err)
	}

	if len(visuals.solidCalls) != 1 {
		t.Errorf("无资产时应走纯色占位路径，实际调用 %d 次", len(visuals.solidCalls))
	}
	if len(narrator.texts) != 1 || narrator.texts[0] != "一个测试场景" {
		t.Errorf("旁白合成应收到场景文本: %v", narrator.texts)
	}
	if unit.Duration != 6 {
		t.Errorf("单元时长应为估算时长6秒，实际 %.1f", unit.Duration)
	}
	if unit.AudioDuration != 3 {
		t.Errorf("音轨时长应原样保留3秒，实际 %.1f", unit.AudioDuration)
	}
	if len(muxer.durations) != 1 || muxer.durations[0] != 6 {
		t.Errorf("合并应使用权威时长: %v", muxer.durations)
	}
}

func TestRenderSceneImagePriority(t *testing.T) {
	renderer, _, visuals, _ := newTestRenderer(t)

	p := baseParams(t)
	p.Assignment = assets.Assignment{
		Image: writeTempAsset(t, "cover.png"),
		Video: writeTempAsset(t, "broll.mp4"),
	}

	if _, err := renderer.RenderScene(context.Background(), p); err != nil {
		t.Fatalf("渲染失败: %v", err)
	}

	// 图片和视频同时分配时图片优先
	if len(visuals.kenBurnsCalls) != 1 {
		t.Errorf("应走推拉镜头路径，实际 %d 次", len(visuals.kenBurnsCalls))
	}
	if len(visuals.fitVideoCalls) != 0 {
		t.Errorf("图片优先时不应使用视频资产")
	}
}

func TestRenderSceneVideoPath(t *testing.T) {
	renderer, _, visuals, _ := newTestRenderer(t)

	p := baseParams(t)
	p.Assignment = assets.Assignment{Video: writeTempAsset(t, "broll.mp4")}

	if _, err := renderer.RenderScene(context.Background(), p); err != nil {
		t.Fatalf("渲染失败: %v", err)
	}

	if len(visuals.fitVideoCalls) != 1 {
		t.Errorf("只有视频资产时应走视频适配路径")
	}
}

func TestRenderSceneDurationOverride(t *testing.T) {
	renderer, _, visuals, _ := newTestRenderer(t)

	p := baseParams(t)
	p.DurationOverride = 10

	unit, err := renderer.RenderScene(context.Background(), p)
	if err != nil {
		t.Fatalf("渲染失败: %v", err)
	}

	if unit.Duration != 10 {
		t.Errorf("覆盖时长应为权威时长，实际 %.1f", unit.Duration)
	}
	if visuals.durations[0] != 10 {
		t.Errorf("视觉轨道应贴合权威时长，实际 %.1f", visuals.durations[0])
	}
}

func TestRenderSceneMissingAsset(t *testing.T) {
	renderer, _, _, _ := newTestRenderer(t)

	p := baseParams(t)
	p.Assignment = assets.Assignment{Image: "/不存在/missing.png"}

	_, err := renderer.RenderScene(context.Background(), p)
	if err == nil {
		t.Fatal("资产缺失时应返回错误")
	}

	var assetErr *utils.AssetIOError
	if !errors.As(err, &assetErr) {
		t.Errorf("错误类型应为AssetIOError: %v", err)
	}
}

func TestRenderSceneSynthesisFailure(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	narrator := &fakeNarrator{err: &utils.SynthesisError{Err: errors.New("服务不可达")}}
	renderer := NewRenderer(logger, narrator, &fakeVisuals{}, &fakeMuxer{})

	_, err := renderer.RenderScene(context.Background(), baseParams(t))

	var synthErr *utils.SynthesisError
	if !errors.As(err, &synthErr) {
		t.Errorf("错误类型应为SynthesisError: %v", err)
	}
}

func TestSceneUnitRelease(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	dir := t.TempDir()

	unit := &SceneUnit{
		File:       filepath.Join(dir, "unit.mp4"),
		VisualFile: filepath.Join(dir, "visual.mp4"),
		AudioFile:  filepath.Join(dir, "audio.wav"),
	}
	for _, p := range []string{unit.File, unit.VisualFile, unit.AudioFile} {
		os.WriteFile(p, []byte("x"), 0644)
	}

	unit.Release(logger)
	for _, p := range []string{unit.File, unit.VisualFile, unit.AudioFile} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("文件应已删除: %s", p)
		}
	}

	// 重复释放不应出问题
	unit.Release(logger)
}
