package database

import (
	"gorm.io/gorm"
)

// ProcessStatus 任务处理状态
type ProcessStatus string

const (
	StatusPending    ProcessStatus = "pending"
	StatusProcessing ProcessStatus = "processing"
	StatusCompleted  ProcessStatus = "completed"
	StatusFailed     ProcessStatus = "failed"
)

// RenderJob 渲染任务记录 - 每次电影渲染请求对应一条
type RenderJob struct {
	gorm.Model
	JobID      string        `json:"job_id" gorm:"uniqueIndex"`      // 任务UUID
	Title      string        `json:"title"`                          // 电影标题
	Status     ProcessStatus `json:"status" gorm:"default:pending"`  // 处理状态
	SceneCount int           `json:"scene_count"`                    // 场景数
	Duration   float64       `json:"duration"`                       // 成片总时长（秒）
	Resolution string        `json:"resolution"`                     // 输出分辨率
	FrameRate  int           `json:"frame_rate"`                     // 输出帧率
	OutputFile string        `json:"output_file,omitempty"`          // 最终输出文件
	ErrorMsg   string        `json:"error_msg,omitempty"`            // 错误信息
}
