/*资产分配*/
package assets

import (
	"path/filepath"
	"strings"
)

// Kind 资产类型
type Kind int

const (
	KindUnknown Kind = iota
	KindImage
	KindVideo
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindVideo:
		return "video"
	default:
		return "unknown"
	}
}

var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".bmp":  true,
}

var videoExts = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".webm": true,
	".mkv":  true,
	".avi":  true,
}

// Classify 根据文件扩展名判断资产类型，不读取文件内容
func Classify(path string) Kind {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case imageExts[ext]:
		return KindImage
	case videoExts[ext]:
		return KindVideo
	default:
		return KindUnknown
	}
}

// Assignment 单个场景的资产分配结果，空字符串表示该类型未分配
type Assignment struct {
	Image string `json:"image,omitempty"`
	Video string `json:"video,omitempty"`
}

// Resolve 将图片池和视频池按轮询方式分配到每个场景
// 纯映射，不触碰文件内容；池比场景少时同一资产会被多个场景复用
func Resolve(sceneCount int, images, videos []string) []Assignment {
	assignments := make([]Assignment, sceneCount)
	for i := 0; i < sceneCount; i++ {
		if len(images) > 0 {
			assignments[i].Image = images[i%len(images)]
		}
		if len(videos) > 0 {
			assignments[i].Video = videos[i%len(videos)]
		}
	}
	return assignments
}

// SplitByKind 将混合的资产路径按类型拆分为图片池和视频池，未知类型被忽略
func SplitByKind(paths []string) (images, videos []string) {
	for _, p := range paths {
		switch Classify(p) {
		case KindImage:
			images = append(images, p)
		case KindVideo:
			videos = append(videos, p)
		}
	}
	return images, videos
}
