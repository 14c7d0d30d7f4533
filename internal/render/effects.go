package render

import (
	"context"

	"go.uber.org/zap"
)

// Effect 场景视觉特效变换
// Apply接收场景单元文件，返回处理后的文件路径；恒等实现原样返回输入
type Effect interface {
	Apply(ctx context.Context, inputFile string) (string, error)
}

// identityEffect 恒等特效，不做任何处理
type identityEffect struct{}

func (identityEffect) Apply(ctx context.Context, inputFile string) (string, error) {
	return inputFile, nil
}

// EffectRegistry 按名称注册的特效表
// 未注册的名称按恒等处理，新增特效不需要改动渲染器
type EffectRegistry struct {
	logger  *zap.Logger
	effects map[string]Effect
}

// NewEffectRegistry 创建特效表并注册内置特效
func NewEffectRegistry(logger *zap.Logger) *EffectRegistry {
	er := &EffectRegistry{
		logger:  logger,
		effects: make(map[string]Effect),
	}

	// cinematic目前是占位实现，等待后续接入真实的调色/VFX能力
	er.Register("cinematic", identityEffect{})

	return er
}

// Register 注册一个命名特效
func (er *EffectRegistry) Register(name string, effect Effect) {
	er.effects[name] = effect
}

// Apply 按名称应用特效；空名称和未知名称按恒等处理
func (er *EffectRegistry) Apply(ctx context.Context, name, inputFile string) (string, error) {
	if name == "" {
		return inputFile, nil
	}

	effect, ok := er.effects[name]
	if !ok {
		er.logger.Debug("未知特效名称，按恒等处理", zap.String("effect", name))
		return inputFile, nil
	}

	return effect.Apply(ctx, inputFile)
}
