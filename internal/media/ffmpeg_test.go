package media

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestParseResolution(t *testing.T) {
	res, err := ParseResolution("1920x1080")
	if err != nil {
		t.Fatalf("解析分辨率失败: %v", err)
	}
	if res.Width != 1920 || res.Height != 1080 {
		t.Errorf("分辨率解析错误: %+v", res)
	}

	if res.String() != "1920x1080" {
		t.Errorf("分辨率字符串化错误: %s", res.String())
	}

	res, err = ParseResolution(" 1280X720 ")
	if err != nil {
		t.Fatalf("大写X的分辨率应可解析: %v", err)
	}
	if res.Width != 1280 || res.Height != 720 {
		t.Errorf("分辨率解析错误: %+v", res)
	}

	for _, bad := range []string{"", "1920", "1920x", "x1080", "axb", "0x1080", "-1x720"} {
		if _, err := ParseResolution(bad); err == nil {
			t.Errorf("非法分辨率 %q 应返回错误", bad)
		}
	}
}

func TestLoopCount(t *testing.T) {
	// 3秒素材铺满7秒需要循环3次
	if n := LoopCount(3, 7); n != 3 {
		t.Errorf("LoopCount(3, 7) = %d，期望 3", n)
	}

	if n := LoopCount(5, 5); n != 1 {
		t.Errorf("LoopCount(5, 5) = %d，期望 1", n)
	}

	if n := LoopCount(10, 4); n != 1 {
		t.Errorf("LoopCount(10, 4) = %d，期望 1", n)
	}

	// 源时长过小时按0.1秒保护
	if n := LoopCount(0, 1); n != 10 {
		t.Errorf("LoopCount(0, 1) = %d，期望 10", n)
	}
}

func TestKenBurnsFilter(t *testing.T) {
	res := Resolution{Width: 1280, Height: 720}

	filter := kenBurnsFilter(res, 8, 24, 0)
	if !strings.Contains(filter, "zoompan") {
		t.Errorf("推拉镜头滤镜应包含zoompan: %s", filter)
	}
	if !strings.Contains(filter, "d=192") {
		t.Errorf("8秒24帧应为192帧: %s", filter)
	}
	if !strings.Contains(filter, "s=1280x720") {
		t.Errorf("滤镜应输出目标分辨率: %s", filter)
	}
	if strings.Contains(filter, "fade") {
		t.Errorf("未指定淡入时不应有fade: %s", filter)
	}

	withFade := kenBurnsFilter(res, 6, 24, 0.3)
	if !strings.Contains(withFade, "fade=t=in:st=0:d=0.30") {
		t.Errorf("指定淡入时应有fade滤镜: %s", withFade)
	}
}

func TestWriteConcatList(t *testing.T) {
	dir := t.TempDir()
	listFile := filepath.Join(dir, "concat.txt")

	inputs := []string{
		filepath.Join(dir, "part_0.mp4"),
		filepath.Join(dir, "it's.mp4"),
	}
	if err := writeConcatList(inputs, listFile); err != nil {
		t.Fatalf("写入拼接清单失败: %v", err)
	}

	data, err := os.ReadFile(listFile)
	if err != nil {
		t.Fatalf("读取拼接清单失败: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("拼接清单应有2行，实际 %d 行", len(lines))
	}
	if !strings.HasPrefix(lines[0], "file '") {
		t.Errorf("清单行格式错误: %s", lines[0])
	}
	if !strings.Contains(lines[1], `'\''`) {
		t.Errorf("单引号应被转义: %s", lines[1])
	}
}

func TestSolidClipEncode(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("跳过测试：系统中没有ffmpeg")
	}

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	dir := t.TempDir()
	out := filepath.Join(dir, "solid.mp4")

	f := NewFFmpeg(logger)
	err := f.SolidClip(context.Background(), "测试场景", 2, Resolution{Width: 320, Height: 180}, 24, out)
	if err != nil {
		t.Fatalf("生成占位片段失败: %v", err)
	}

	if _, err := os.Stat(out); err != nil {
		t.Fatalf("输出文件不存在: %v", err)
	}

	if _, err := exec.LookPath("ffprobe"); err == nil {
		duration, err := f.ProbeDuration(context.Background(), out)
		if err != nil {
			t.Fatalf("探测时长失败: %v", err)
		}
		if duration < 1.8 || duration > 2.2 {
			t.Errorf("占位片段时长 %.2f 偏离目标2秒", duration)
		}
	}
}
