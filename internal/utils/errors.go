package utils

import "fmt"

// InputError 输入错误（空脚本、非法参数等），导致整个渲染任务中止
type InputError struct {
	Msg string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("输入错误: %s", e.Msg)
}

// AssetIOError 资产文件错误（缺失或不可读），导致整个渲染任务中止
type AssetIOError struct {
	Path string
	Err  error
}

func (e *AssetIOError) Error() string {
	return fmt.Sprintf("资产文件不可用: %s: %v", e.Path, e.Err)
}

func (e *AssetIOError) Unwrap() error {
	return e.Err
}

// SynthesisError 语音合成错误（网络或服务失败），导致整个渲染任务中止
type SynthesisError struct {
	Err error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("语音合成失败: %v", e.Err)
}

func (e *SynthesisError) Unwrap() error {
	return e.Err
}

// EncodeError 媒体编码错误（ffmpeg写入失败），导致整个渲染任务中止
type EncodeError struct {
	Op  string
	Err error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("媒体编码失败(%s): %v", e.Op, e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

// CleanupError 资源清理错误（临时文件删除失败等）
// 清理错误只记录日志，不影响任务成败
type CleanupError struct {
	Path string
	Err  error
}

func (e *CleanupError) Error() string {
	return fmt.Sprintf("资源清理失败: %s: %v", e.Path, e.Err)
}

func (e *CleanupError) Unwrap() error {
	return e.Err
}
