package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"movie-workflow/cmd/web_server"
	"movie-workflow/internal/media"
	"movie-workflow/internal/mcp"
	"movie-workflow/internal/workflow"
	"movie-workflow/pkg/broadcast"
	"movie-workflow/pkg/database"
)

func main() {
	fmt.Println("启动电影渲染工作流系统...")

	// .env是可选的，本地开发用
	_ = godotenv.Load()

	// 1. 初始化日志（第一个操作，用于记录）
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Printf("创建logger失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// 2. 加载配置文件 - 首先尝试当前工作目录，然后尝试可执行文件目录
	loadConfig(logger)

	// 3. 执行自检程序
	runSelfCheck(logger)

	// 4. 初始化数据库
	db, err := database.NewGormManager(viper.GetString("database.path"))
	if err != nil {
		logger.Fatal("初始化数据库失败", zap.Error(err))
	}
	defer db.Close()

	// 5. 创建工作流处理器
	cfg, err := buildWorkflowConfig()
	if err != nil {
		logger.Fatal("解析工作流配置失败", zap.Error(err))
	}
	processor, err := workflow.NewProcessor(logger, cfg)
	if err != nil {
		logger.Fatal("创建工作流处理器失败", zap.Error(err))
	}

	// 6. 启动进度广播服务
	progress := broadcast.NewService()
	var wg sync.WaitGroup
	wg.Add(1)
	go progress.Start(&wg)
	processor.SetProgress(progress)

	// 7. MCP服务器通过标准输入输出工作，仅在MCP模式下启动
	if os.Getenv("MCP_STDIO_MODE") == "true" {
		runMCPMode(logger, processor)
		return
	}

	// 8. 启动Web服务器
	server := web_server.NewServer(logger, processor, db, progress,
		viper.GetString("server.upload_dir"), viper.GetString("server.output_dir"))

	go func() {
		if err := server.Run(viper.GetString("server.port")); err != nil {
			logger.Fatal("Web服务器启动失败", zap.Error(err))
		}
	}()

	fmt.Printf("Web服务器运行在 http://localhost:%s\n", viper.GetString("server.port"))
	fmt.Println("按 Ctrl+C 停止服务")

	// 等待退出信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	fmt.Println("\n正在关闭服务器...")
	progress.Close()
	wg.Wait()
}

// runMCPMode 以标准输入输出方式运行MCP服务器，阻塞到连接断开
func runMCPMode(logger *zap.Logger, processor *workflow.Processor) {
	// 重要：MCP模式下不要向stdout打印任何内容！使用logger记录到stderr。
	mcpServer, err := mcp.NewServer(processor, logger)
	if err != nil {
		logger.Fatal("创建MCP服务器失败", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := mcpServer.Start(ctx); err != nil {
		logger.Fatal("MCP服务器启动失败", zap.Error(err))
	}
}

// loadConfig 加载配置文件并设置默认值
func loadConfig(logger *zap.Logger) {
	// 尝试在当前工作目录查找配置文件
	wd, _ := os.Getwd()
	configPath := filepath.Join(wd, "config.yaml")

	// 如果当前工作目录没有配置文件，尝试可执行文件所在目录
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		exe, exeErr := os.Executable()
		if exeErr != nil {
			logger.Fatal("无法获取可执行文件路径", zap.Error(exeErr))
		}
		configPath = filepath.Join(filepath.Dir(exe), "config.yaml")
	}

	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.upload_dir", "uploads")
	viper.SetDefault("server.output_dir", "output")
	viper.SetDefault("database.path", "data/movie_workflow.db")
	viper.SetDefault("tts.base_url", "http://localhost:7860")
	viper.SetDefault("tts.language", "en")
	viper.SetDefault("render.resolution", "1920x1080")
	viper.SetDefault("render.frame_rate", 24)
	viper.SetDefault("render.chunk_seconds", 900)
	viper.SetDefault("render.workers", 1)
	viper.SetDefault("render.work_dir", "output")

	viper.SetConfigFile(configPath)
	if err := viper.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			logger.Warn("未找到配置文件，使用默认配置", zap.String("configPath", configPath))
			return
		}
		logger.Fatal("读取配置文件失败",
			zap.String("configPath", configPath),
			zap.Error(err),
		)
	}
	logger.Info("配置文件加载成功", zap.String("path", configPath))
}

// buildWorkflowConfig 将viper配置解析为工作流的显式配置
func buildWorkflowConfig() (workflow.Config, error) {
	res, err := media.ParseResolution(viper.GetString("render.resolution"))
	if err != nil {
		return workflow.Config{}, err
	}

	return workflow.Config{
		Resolution:   res,
		FrameRate:    viper.GetInt("render.frame_rate"),
		ChunkSeconds: viper.GetFloat64("render.chunk_seconds"),
		Language:     viper.GetString("tts.language"),
		VoiceProfile: viper.GetString("render.voice_profile"),
		Workers:      viper.GetInt("render.workers"),
		WorkDir:      viper.GetString("render.work_dir"),
		TTSBaseURL:   viper.GetString("tts.base_url"),
		FontPath:     viper.GetString("image.font_path"),
	}, nil
}

// runSelfCheck 执行自检程序
func runSelfCheck(logger *zap.Logger) {
	fmt.Println("🔍 执行自检程序...")

	serviceChecks := []struct {
		name  string
		fatal bool // ffmpeg缺失无法渲染任何内容，直接退出
		fn    func() error
	}{
		{"ffmpeg", true, func() error { return checkBinary("ffmpeg") }},
		{"ffprobe", true, func() error { return checkBinary("ffprobe") }},
		{"TTS服务", false, checkTTS},
	}

	for _, check := range serviceChecks {
		fmt.Printf("  📋 检查%s...", check.name)
		if err := check.fn(); err != nil {
			fmt.Printf(" ❌ (%v)\n", err)
			if check.fatal {
				logger.Fatal("必需的依赖不可用", zap.String("依赖", check.name), zap.Error(err))
			}
			fmt.Printf("⚠️  %s不可用，相关功能在服务启动前需要就绪\n", check.name)
		} else {
			fmt.Printf(" ✅\n")
		}
	}
}

// checkBinary 检查可执行文件是否在PATH中
func checkBinary(name string) error {
	_, err := exec.LookPath(name)
	return err
}

// checkTTS 检查语音合成服务是否可达
func checkTTS() error {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(viper.GetString("tts.base_url"))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("状态码: %d", resp.StatusCode)
	}

	return nil
}
