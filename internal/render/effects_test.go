package render

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"
)

type upperEffect struct{}

func (upperEffect) Apply(ctx context.Context, inputFile string) (string, error) {
	return strings.ToUpper(inputFile), nil
}

func TestEffectRegistryIdentity(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	er := NewEffectRegistry(logger)

	// cinematic是占位实现，不改变输入
	out, err := er.Apply(context.Background(), "cinematic", "scene.mp4")
	if err != nil {
		t.Fatalf("应用特效失败: %v", err)
	}
	if out != "scene.mp4" {
		t.Errorf("占位特效不应改变输入: %s", out)
	}

	// 未知名称按恒等处理
	out, err = er.Apply(context.Background(), "vhs_glitch", "scene.mp4")
	if err != nil {
		t.Fatalf("未知特效不应报错: %v", err)
	}
	if out != "scene.mp4" {
		t.Errorf("未知特效不应改变输入: %s", out)
	}

	// 空名称直接跳过
	out, _ = er.Apply(context.Background(), "", "scene.mp4")
	if out != "scene.mp4" {
		t.Errorf("空特效名不应改变输入: %s", out)
	}
}

func TestEffectRegistryRegister(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	er := NewEffectRegistry(logger)

	er.Register("upper", upperEffect{})
	out, err := er.Apply(context.Background(), "upper", "scene.mp4")
	if err != nil {
		t.Fatalf("应用注册特效失败: %v", err)
	}
	if out != "SCENE.MP4" {
		t.Errorf("注册特效未生效: %s", out)
	}
}
