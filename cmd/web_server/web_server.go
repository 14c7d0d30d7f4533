/*Web服务*/
package web_server

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"movie-workflow/internal/media"
	"movie-workflow/internal/script"
	"movie-workflow/internal/utils"
	"movie-workflow/internal/workflow"
	"movie-workflow/pkg/broadcast"
	"movie-workflow/pkg/database"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Server Web服务，对外暴露电影渲染的HTTP接口
type Server struct {
	logger    *zap.Logger
	processor *workflow.Processor
	db        *database.GormManager
	progress  *broadcast.Service
	prober    *media.FFmpeg
	uploadDir string
	outputDir string
}

// NewServer 创建Web服务
func NewServer(logger *zap.Logger, processor *workflow.Processor, db *database.GormManager,
	progress *broadcast.Service, uploadDir, outputDir string) *Server {
	return &Server{
		logger:    logger,
		processor: processor,
		db:        db,
		progress:  progress,
		prober:    media.NewFFmpeg(logger),
		uploadDir: uploadDir,
		outputDir: outputDir,
	}
}

// Run 启动HTTP服务并阻塞
func (s *Server) Run(port string) error {
	router := gin.Default()

	router.GET("/", s.statusHandler)
	router.POST("/generate_movie", s.generateMovieHandler)
	router.POST("/character_from_image", s.characterFromImageHandler)
	router.GET("/download/:filename", s.downloadHandler)
	router.GET("/api/jobs", s.jobsHandler)
	router.GET("/ws", s.wsHandler)

	s.logger.Info("Web服务启动", zap.String("port", port))
	return router.Run(":" + port)
}

func (s *Server) statusHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "Movie Workflow API is running!"})
}

// generateMovieHandler 从脚本和上传的资产渲染完整电影
// 同步处理，长脚本可能运行数分钟，超时控制由调用方负责
func (s *Server) generateMovieHandler(c *gin.Context) {
	scriptText := c.PostForm("script")
	if strings.TrimSpace(scriptText) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "script is required", "status": "error"})
		return
	}

	title := c.DefaultPostForm("title", "movie")
	voice := c.PostForm("voice")
	effect := c.PostForm("effect")
	targetResolution := c.PostForm("target_resolution")

	targetFPS := 0
	if fpsStr := c.PostForm("target_fps"); fpsStr != "" {
		fps, err := strconv.Atoi(fpsStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid target_fps", "status": "error"})
			return
		}
		targetFPS = fps
	}

	jobID := uuid.New().String()

	// 保存上传的资产到本次任务独立的目录
	runUploadDir := filepath.Join(s.uploadDir, jobID)
	images, err := s.saveUploads(c, "images", runUploadDir)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "status": "error"})
		return
	}
	clips, err := s.saveUploads(c, "clips", runUploadDir)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "status": "error"})
		return
	}
	defer s.removeDirQuietly(runUploadDir)

	if _, err := s.db.CreateRenderJob(jobID, title, targetResolution, targetFPS); err != nil {
		s.logger.Error("创建任务记录失败", zap.Error(err))
	}
	if err := s.db.MarkJobProcessing(jobID, len(script.Segment(scriptText))); err != nil {
		s.logger.Warn("更新任务状态失败", zap.Error(err))
	}

	if err := os.MkdirAll(s.outputDir, 0755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "无法创建输出目录", "status": "error"})
		return
	}
	outputFilename := strings.ReplaceAll(title, " ", "_") + ".mp4"
	outputPath := filepath.Join(s.outputDir, outputFilename)

	// 渲染是主要耗时环节
	result, err := s.processor.RenderMovie(c.Request.Context(), workflow.MovieParams{
		JobID:        jobID,
		Script:       scriptText,
		Images:       images,
		Clips:        clips,
		VoiceProfile: voice,
		FrameRate:    targetFPS,
		Resolution:   targetResolution,
		Effect:       effect,
		OutputPath:   outputPath,
	})
	if err != nil {
		s.failJob(jobID, err)
		c.JSON(statusFromError(err), gin.H{"error": err.Error(), "status": "error", "job_id": jobID})
		return
	}

	duration, probeErr := s.prober.ProbeDuration(c.Request.Context(), result)
	if probeErr != nil {
		s.logger.Warn("探测成片时长失败", zap.Error(probeErr))
	}
	if err := s.db.MarkJobCompleted(jobID, outputFilename, duration); err != nil {
		s.logger.Warn("更新任务记录失败", zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{"status": "done", "file": outputFilename, "job_id": jobID})
}

// characterFromImageHandler 从单张图片生成角色短片
func (s *Server) characterFromImageHandler(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required", "status": "error"})
		return
	}
	name := c.DefaultPostForm("name", "character")

	runUploadDir := filepath.Join(s.uploadDir, uuid.New().String())
	imagePath := filepath.Join(runUploadDir, filepath.Base(fileHeader.Filename))
	if err := c.SaveUploadedFile(fileHeader, imagePath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "保存上传文件失败", "status": "error"})
		return
	}
	defer s.removeDirQuietly(runUploadDir)

	outputPath, err := s.processor.RenderCharacterClip(c.Request.Context(), workflow.CharacterParams{
		ImagePath:  imagePath,
		Name:       name,
		Duration:   8,
		Resolution: "1280x720",
	})
	if err != nil {
		c.JSON(statusFromError(err), gin.H{"error": err.Error(), "status": "error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "done", "file": filepath.Base(outputPath)})
}

// downloadHandler 下载成片文件
func (s *Server) downloadHandler(c *gin.Context) {
	filename := c.Param("filename")
	if filename != filepath.Base(filename) || strings.HasPrefix(filename, ".") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file name", "status": "error"})
		return
	}

	path := filepath.Join(s.outputDir, filename)
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found", "status": "error"})
		return
	}

	c.Header("Content-Type", "video/mp4")
	c.FileAttachment(path, filename)
}

// jobsHandler 列出最近的渲染任务记录
func (s *Server) jobsHandler(c *gin.Context) {
	limit := 50
	if limitStr := c.Query("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil {
			limit = parsed
		}
	}

	jobs, err := s.db.ListRenderJobs(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "status": "error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

// wsHandler 通过WebSocket推送渲染进度
func (s *Server) wsHandler(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Error("WebSocket升级失败", zap.Error(err))
		return
	}

	client := s.progress.RegisterClient()

	var once sync.Once
	closeClient := func() {
		once.Do(func() {
			s.progress.UnregisterClient(client)
			conn.Close()
		})
	}

	// 读取协程只用于感知客户端断开
	go func() {
		defer closeClient()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	go func() {
		defer closeClient()
		for msg := range client.Send {
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		}
	}()
}

// saveUploads 保存一组上传文件，返回保存后的路径列表
func (s *Server) saveUploads(c *gin.Context, field, dir string) ([]string, error) {
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, fmt.Errorf("解析上传表单失败: %w", err)
	}

	var saved []string
	for _, fileHeader := range form.File[field] {
		path, err := s.saveUpload(c, fileHeader, dir)
		if err != nil {
			return nil, err
		}
		saved = append(saved, path)
	}
	return saved, nil
}

func (s *Server) saveUpload(c *gin.Context, fileHeader *multipart.FileHeader, dir string) (string, error) {
	name := filepath.Base(fileHeader.Filename)
	if name == "." || name == string(filepath.Separator) {
		return "", fmt.Errorf("非法的上传文件名: %s", fileHeader.Filename)
	}

	path := filepath.Join(dir, name)
	if err := c.SaveUploadedFile(fileHeader, path); err != nil {
		return "", fmt.Errorf("保存上传文件失败: %w", err)
	}
	return path, nil
}

func (s *Server) failJob(jobID string, cause error) {
	if err := s.db.MarkJobFailed(jobID, cause.Error()); err != nil {
		s.logger.Warn("更新任务记录失败", zap.Error(err))
	}
	s.progress.SendError(jobID, cause.Error())
}

func (s *Server) removeDirQuietly(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		s.logger.Warn("清理上传目录失败", zap.String("目录", dir), zap.Error(err))
	}
}

// statusFromError 将核心错误类型映射为HTTP状态码
func statusFromError(err error) int {
	var (
		inputErr *utils.InputError
		assetErr *utils.AssetIOError
		synthErr *utils.SynthesisError
	)
	switch {
	case errors.As(err, &inputErr), errors.As(err, &assetErr):
		return http.StatusBadRequest
	case errors.As(err, &synthErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
