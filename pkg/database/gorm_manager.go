package database

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GormManager GORM数据库管理器
type GormManager struct {
	DB *gorm.DB
}

// NewGormManager 创建新的GORM数据库管理器
func NewGormManager(dbPath string) (*GormManager, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %v", err)
	}

	// 创建GORM配置，启用日志记录
	newLogger := logger.New(
		log.New(log.Writer(), "\r\n", log.LstdFlags), // io writer
		logger.Config{
			SlowThreshold:             time.Second,   // 慢SQL阈值
			LogLevel:                  logger.Silent, // 日志级别
			IgnoreRecordNotFoundError: true,          // 忽略ErrRecordNotFound错误
			Colorful:                  false,         // 禁用彩色打印
		},
	)

	// 连接数据库
	dsn := fmt.Sprintf("%s?_busy_timeout=10000&_journal_mode=WAL&_foreign_keys=on", dbPath)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: newLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %v", err)
	}

	manager := &GormManager{DB: db}

	// 自动迁移数据库表
	if err := manager.Migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %v", err)
	}

	return manager, nil
}

// Migrate 执行数据库迁移
func (gm *GormManager) Migrate() error {
	return gm.DB.AutoMigrate(&RenderJob{})
}

// Close 关闭数据库连接
func (gm *GormManager) Close() error {
	sqlDB, err := gm.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// CreateRenderJob 创建渲染任务记录
func (gm *GormManager) CreateRenderJob(jobID, title, resolution string, frameRate int) (*RenderJob, error) {
	job := &RenderJob{
		JobID:      jobID,
		Title:      title,
		Resolution: resolution,
		FrameRate:  frameRate,
		Status:     StatusPending,
	}

	result := gm.DB.Create(job)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to create render job: %v", result.Error)
	}

	return job, nil
}

// MarkJobProcessing 将任务标记为处理中
func (gm *GormManager) MarkJobProcessing(jobID string, sceneCount int) error {
	result := gm.DB.Model(&RenderJob{}).Where("job_id = ?", jobID).Updates(map[string]interface{}{
		"status":      StatusProcessing,
		"scene_count": sceneCount,
	})
	return result.Error
}

// MarkJobCompleted 将任务标记为完成
func (gm *GormManager) MarkJobCompleted(jobID, outputFile string, duration float64) error {
	result := gm.DB.Model(&RenderJob{}).Where("job_id = ?", jobID).Updates(map[string]interface{}{
		"status":      StatusCompleted,
		"output_file": outputFile,
		"duration":    duration,
	})
	return result.Error
}

// MarkJobFailed 将任务标记为失败
func (gm *GormManager) MarkJobFailed(jobID, errorMsg string) error {
	result := gm.DB.Model(&RenderJob{}).Where("job_id = ?", jobID).Updates(map[string]interface{}{
		"status":    StatusFailed,
		"error_msg": errorMsg,
	})
	return result.Error
}

// GetRenderJob 根据JobID获取任务记录
func (gm *GormManager) GetRenderJob(jobID string) (*RenderJob, error) {
	var job RenderJob
	result := gm.DB.First(&job, "job_id = ?", jobID)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get render job: %v", result.Error)
	}
	return &job, nil
}

// ListRenderJobs 按创建时间倒序列出最近的任务记录
func (gm *GormManager) ListRenderJobs(limit int) ([]RenderJob, error) {
	if limit <= 0 {
		limit = 50
	}

	var jobs []RenderJob
	result := gm.DB.Order("created_at DESC").Limit(limit).Find(&jobs)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list render jobs: %v", result.Error)
	}
	return jobs, nil
}
