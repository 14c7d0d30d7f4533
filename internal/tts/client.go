/*语音合成*/
package tts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"
)

// Client 封装旁白合成服务的HTTP API调用
type Client struct {
	BaseURL    string
	Logger     *zap.Logger
	HTTPClient *http.Client
}

// NewClient 创建新的客户端实例
func NewClient(logger *zap.Logger, baseURL string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:7860" // 默认地址
	}

	return &Client{
		BaseURL: baseURL,
		Logger:  logger,
		HTTPClient: &http.Client{
			Timeout: 300 * time.Second, // 语音合成可能需要较长时间
		},
	}
}

type synthesizeRequest struct {
	Text         string `json:"text"`
	Language     string `json:"language"`
	VoiceProfile string `json:"voice_profile"`
}

type synthesizeResponse struct {
	Success     bool   `json:"success"`
	AudioBase64 string `json:"audio_base64,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Synthesize 调用合成服务，将返回的音频写入outputFile
func (c *Client) Synthesize(ctx context.Context, text, language, voiceProfile, outputFile string) error {
	reqBody, err := json.Marshal(synthesizeRequest{
		Text:         text,
		Language:     language,
		VoiceProfile: voiceProfile,
	})
	if err != nil {
		return fmt.Errorf("序列化合成请求失败: %w", err)
	}

	url := c.BaseURL + "/synthesize"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("创建合成请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.Logger.Info("调用语音合成服务",
		zap.String("url", url),
		zap.String("voice_profile", voiceProfile),
		zap.Int("text_len", len(text)),
	)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("合成服务请求失败: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("读取合成响应失败: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("合成服务返回状态 %d: %s", resp.StatusCode, tail(string(body), 200))
	}

	var result synthesizeResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("解析合成响应失败: %w", err)
	}
	if !result.Success {
		return fmt.Errorf("合成服务报告失败: %s", result.Error)
	}
	if result.AudioBase64 == "" {
		return fmt.Errorf("合成响应中没有音频数据")
	}

	audio, err := base64.StdEncoding.DecodeString(result.AudioBase64)
	if err != nil {
		return fmt.Errorf("解码音频数据失败: %w", err)
	}

	if err := os.WriteFile(outputFile, audio, 0644); err != nil {
		return fmt.Errorf("写入音频文件失败: %w", err)
	}

	return nil
}

// Ping 检查合成服务是否可达
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/", nil)
	if err != nil {
		return err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
