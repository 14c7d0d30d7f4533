package types

// ProgressLog 结构存储渲染任务的进度信息
type ProgressLog struct {
	JobID     string `json:"jobId"`
	Stage     string `json:"stage"` // "segment", "render", "export"
	Message   string `json:"message"`
	Type      string `json:"type"` // "info", "success", "error"
	Timestamp string `json:"timestamp"`
}
