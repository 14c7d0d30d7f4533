package broadcast

import (
	"sync"
	"time"

	"movie-workflow/pkg/types"
)

// Service 渲染进度广播服务，将进度消息扇出到所有WebSocket客户端
type Service struct {
	broadcastChan chan types.ProgressLog
	clients       map[*Client]bool
	register      chan *Client
	unregister    chan *Client // 通道用于注销特定客户端
	shutdown      chan bool    // 通道用于关闭整个服务
	mutex         sync.Mutex
}

// Client 表示一个WebSocket客户端
type Client struct {
	Send chan types.ProgressLog // 通道用于发送消息
}

// NewService 创建新的广播服务
func NewService() *Service {
	return &Service{
		broadcastChan: make(chan types.ProgressLog, 100),
		clients:       make(map[*Client]bool),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		shutdown:      make(chan bool),
	}
}

// Start 启动广播服务
func (b *Service) Start(wg *sync.WaitGroup) {
	defer wg.Done()
	for {
		select {
		case client := <-b.register:
			b.mutex.Lock()
			b.clients[client] = true
			b.mutex.Unlock()
		case client := <-b.unregister:
			b.mutex.Lock()
			if _, ok := b.clients[client]; ok {
				delete(b.clients, client)
				close(client.Send)
			}
			b.mutex.Unlock()
		case <-b.shutdown:
			b.mutex.Lock()
			for client := range b.clients {
				delete(b.clients, client)
				close(client.Send)
			}
			b.mutex.Unlock()
			return
		case message := <-b.broadcastChan:
			b.mutex.Lock()
			// 发送给所有注册的客户端
			for client := range b.clients {
				select {
				case client.Send <- message:
				default:
					// 如果发送失败，移除客户端
					delete(b.clients, client)
					close(client.Send)
				}
			}
			b.mutex.Unlock()
		}
	}
}

// SendStage 发送阶段进度消息
func (b *Service) SendStage(jobID, stage, msg string) {
	b.broadcastChan <- types.ProgressLog{
		JobID:     jobID,
		Stage:     stage,
		Type:      "info",
		Message:   msg,
		Timestamp: GetTimeStr(),
	}
}

// SendError 发送错误消息
func (b *Service) SendError(jobID, msg string) {
	b.broadcastChan <- types.ProgressLog{
		JobID:     jobID,
		Stage:     "error",
		Type:      "error",
		Message:   msg,
		Timestamp: GetTimeStr(),
	}
}

// RegisterClient 注册客户端
func (b *Service) RegisterClient() *Client {
	client := &Client{
		Send: make(chan types.ProgressLog, 256), // 缓冲通道，避免阻塞
	}
	b.register <- client
	return client
}

// UnregisterClient 注销客户端
func (b *Service) UnregisterClient(client *Client) {
	b.unregister <- client
}

// Close 关闭广播服务
func (b *Service) Close() {
	b.shutdown <- true
}

func GetTimeStr() string {
	return time.Now().Format("2006-01-02 15:04:05")
}
