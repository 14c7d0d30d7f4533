/*媒体编码*/
package media

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"movie-workflow/internal/utils"
)

// Resolution 视频分辨率
type Resolution struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// ParseResolution 解析 "1920x1080" 形式的分辨率字符串
func ParseResolution(s string) (Resolution, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "x")
	if len(parts) != 2 {
		return Resolution{}, fmt.Errorf("分辨率格式错误: %s", s)
	}

	width, err := strconv.Atoi(parts[0])
	if err != nil {
		return Resolution{}, fmt.Errorf("分辨率宽度解析失败: %s", s)
	}
	height, err := strconv.Atoi(parts[1])
	if err != nil {
		return Resolution{}, fmt.Errorf("分辨率高度解析失败: %s", s)
	}
	if width <= 0 || height <= 0 {
		return Resolution{}, fmt.Errorf("分辨率必须为正数: %s", s)
	}

	return Resolution{Width: width, Height: height}, nil
}

// FFmpeg 基于ffmpeg/ffprobe命令行的媒体编码器
type FFmpeg struct {
	logger     *zap.Logger
	ffmpegBin  string
	ffprobeBin string
	fontPath   string
}

// NewFFmpeg 创建媒体编码器
func NewFFmpeg(logger *zap.Logger) *FFmpeg {
	return &FFmpeg{
		logger:     logger,
		ffmpegBin:  "ffmpeg",
		ffprobeBin: "ffprobe",
	}
}

// SetFontPath 设置占位画面使用的字体文件路径
func (f *FFmpeg) SetFontPath(fontPath string) {
	f.fontPath = fontPath
}

// ProbeDuration 获取媒体文件的真实时长（秒）
func (f *FFmpeg) ProbeDuration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, f.ffprobeBin, "-v", "quiet",
		"-show_entries", "format=duration", "-of", "csv=p=0", path)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe执行失败: %w", err)
	}

	durationStr := strings.TrimSpace(string(output))
	duration, err := strconv.ParseFloat(durationStr, 64)
	if err != nil {
		return 0, fmt.Errorf("解析时长失败: %q: %w", durationStr, err)
	}

	return duration, nil
}

// LoopCount 计算短视频铺满目标时长所需的播放次数
// 源时长过小时按0.1秒保护，避免除零
func LoopCount(native, target float64) int {
	if native < 0.1 {
		native = 0.1
	}
	return int(math.Ceil(target / native))
}

// kenBurnsFilter 构造慢速推拉镜头的滤镜串
func kenBurnsFilter(res Resolution, duration float64, fps int, fadeIn float64) string {
	frames := int(duration * float64(fps))
	filter := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d,"+
			"zoompan=z='min(zoom+0.0008,1.12)':x='iw/2-(iw/zoom/2)':y='ih/2-(ih/zoom/2)':d=%d:s=%dx%d:fps=%d,"+
			"format=yuv420p",
		res.Width*2, res.Height*2, res.Width*2, res.Height*2,
		frames, res.Width, res.Height, fps)
	if fadeIn > 0 {
		filter += fmt.Sprintf(",fade=t=in:st=0:d=%.2f", fadeIn)
	}
	return filter
}

// fitVideoFilter 构造视频适配目标分辨率的滤镜串
func fitVideoFilter(res Resolution) string {
	return fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,format=yuv420p",
		res.Width, res.Height, res.Width, res.Height)
}

// KenBurns 从静态图片生成推拉镜头视觉轨道，时长精确匹配目标时长
func (f *FFmpeg) KenBurns(ctx context.Context, imagePath string, duration float64, res Resolution, fps int, fadeIn float64, outputFile string) error {
	args := []string{
		"-y", "-loop", "1", "-i", imagePath,
		"-vf", kenBurnsFilter(res, duration, fps, fadeIn),
		"-t", formatSeconds(duration),
		"-r", strconv.Itoa(fps),
		"-c:v", "libx264", "-pix_fmt", "yuv420p", "-an",
		outputFile,
	}
	return f.run(ctx, "ken_burns", args)
}

// FitVideo 将视频资产适配到目标时长：长则截断，短则首尾循环后截断
// 源视频的原始音轨被丢弃，旁白音频由调用方另行合成
func (f *FFmpeg) FitVideo(ctx context.Context, videoPath string, duration float64, res Resolution, fps int, outputFile string) error {
	native, err := f.ProbeDuration(ctx, videoPath)
	if err != nil {
		return &utils.AssetIOError{Path: videoPath, Err: err}
	}

	args := []string{"-y"}
	if native < duration {
		loops := LoopCount(native, duration)
		// -stream_loop是额外播放次数，总次数为loops
		args = append(args, "-stream_loop", strconv.Itoa(loops-1))
	}
	args = append(args,
		"-i", videoPath,
		"-vf", fitVideoFilter(res),
		"-t", formatSeconds(duration),
		"-r", strconv.Itoa(fps),
		"-c:v", "libx264", "-pix_fmt", "yuv420p", "-an",
		outputFile,
	)
	return f.run(ctx, "fit_video", args)
}

// SolidClip 生成纯色占位视觉轨道，画面中央带场景提示文字
func (f *FFmpeg) SolidClip(ctx context.Context, text string, duration float64, res Resolution, fps int, outputFile string) error {
	framePath := filepath.Join(filepath.Dir(outputFile),
		strings.TrimSuffix(filepath.Base(outputFile), filepath.Ext(outputFile))+"_frame.png")

	if err := WritePlaceholderFrame(text, res, f.fontPath, framePath); err != nil {
		return &utils.EncodeError{Op: "solid_frame", Err: err}
	}
	defer f.removeQuietly(framePath)

	args := []string{
		"-y", "-loop", "1", "-i", framePath,
		"-vf", "format=yuv420p",
		"-t", formatSeconds(duration),
		"-r", strconv.Itoa(fps),
		"-c:v", "libx264", "-pix_fmt", "yuv420p", "-an",
		outputFile,
	}
	return f.run(ctx, "solid_clip", args)
}

// Mux 将视觉轨道与旁白音轨合并为一个场景单元文件
// 容器在权威时长处截断，音频与画面不做同步对齐，两者都从0时刻开始
func (f *FFmpeg) Mux(ctx context.Context, videoFile, audioFile string, duration float64, outputFile string) error {
	args := []string{
		"-y", "-i", videoFile, "-i", audioFile,
		"-map", "0:v:0", "-map", "1:a:0",
		"-c:v", "copy", "-c:a", "aac",
		"-t", formatSeconds(duration),
		outputFile,
	}
	return f.run(ctx, "mux", args)
}

// Concat 按顺序无重编码拼接多个视频文件
func (f *FFmpeg) Concat(ctx context.Context, inputs []string, outputFile string) error {
	if len(inputs) == 0 {
		return &utils.EncodeError{Op: "concat", Err: fmt.Errorf("没有可拼接的输入文件")}
	}

	listFile := outputFile + ".list.txt"
	if err := writeConcatList(inputs, listFile); err != nil {
		return &utils.EncodeError{Op: "concat", Err: err}
	}
	defer f.removeQuietly(listFile)

	args := []string{
		"-y", "-f", "concat", "-safe", "0",
		"-i", listFile,
		"-c", "copy",
		outputFile,
	}
	return f.run(ctx, "concat", args)
}

// writeConcatList 生成concat分离器使用的清单文件
func writeConcatList(inputs []string, listFile string) error {
	var lines []string
	for _, in := range inputs {
		abs, err := filepath.Abs(in)
		if err != nil {
			abs = in
		}
		// concat清单中的单引号需要转义
		escaped := strings.ReplaceAll(abs, "'", `'\''`)
		lines = append(lines, fmt.Sprintf("file '%s'", escaped))
	}
	return os.WriteFile(listFile, []byte(strings.Join(lines, "\n")+"\n"), 0644)
}

// run 执行ffmpeg命令，失败时携带输出内容返回编码错误
func (f *FFmpeg) run(ctx context.Context, op string, args []string) error {
	f.logger.Debug("执行ffmpeg命令",
		zap.String("op", op),
		zap.Strings("args", args),
	)

	cmd := exec.CommandContext(ctx, f.ffmpegBin, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		f.logger.Error("ffmpeg执行失败",
			zap.String("op", op),
			zap.Error(err),
			zap.String("output", tail(string(output), 800)),
		)
		return &utils.EncodeError{Op: op, Err: fmt.Errorf("%w: %s", err, tail(string(output), 200))}
	}
	return nil
}

func (f *FFmpeg) removeQuietly(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		f.logger.Warn("删除临时文件失败", zap.String("文件", path), zap.Error(err))
	}
}

// formatSeconds 将秒数格式化为ffmpeg的时长参数
func formatSeconds(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', 3, 64)
}

// tail 截取输出的末尾部分用于日志
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
