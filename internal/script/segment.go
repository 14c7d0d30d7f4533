/*脚本分段*/
package script

import (
	"math"
	"strings"
)

const (
	// 按150词/分钟的语速估算，约2.5词/秒
	wordsPerSecond = 2.5
	// 每个场景的最短时长（秒）
	minSceneSeconds = 4.0
)

// Scene 脚本场景
type Scene struct {
	Text     string  `json:"text"`
	Duration float64 `json:"duration"` // 估算时长（秒）
}

// Segment 将脚本文本按空行拆分为有序的场景序列
// 空脚本或纯空白脚本返回空切片，由调用方决定如何处理
func Segment(text string) []Scene {
	normalized := strings.ReplaceAll(text, "\r\n", "\n")

	var scenes []Scene
	for _, part := range strings.Split(normalized, "\n\n") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		scenes = append(scenes, Scene{
			Text:     part,
			Duration: EstimateDuration(part),
		})
	}

	return scenes
}

// EstimateDuration 根据词数估算场景时长（秒）
// 估算值向下取整到整秒，且不低于最短时长，保证同一输入结果稳定
func EstimateDuration(text string) float64 {
	words := len(strings.Fields(text))
	seconds := math.Floor(float64(words) / wordsPerSecond)
	if seconds < minSceneSeconds {
		seconds = minSceneSeconds
	}
	return seconds
}
