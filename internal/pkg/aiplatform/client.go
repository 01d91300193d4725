package aiplatform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"subleet-admin/internal/pkg/config"
	"subleet-admin/internal/pkg/metrics"
)

const (
	DefaultTimeout = 30 * time.Second
	BaseRetryDelay = 500 * time.Millisecond

	upstreamName = "ai_platform"
)

// Client 向量库与助手资源的 REST 客户端
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	maxRetries int
	retryDelay time.Duration
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// NewClient 创建客户端
func NewClient(cfg *config.AIPlatformConfig, logger *zap.Logger, m *metrics.Metrics) *Client {
	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil || timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		maxRetries: cfg.MaxRetries,
		retryDelay: BaseRetryDelay,
		logger:     logger,
		metrics:    m,
	}
}

// Assistant 助手资源
type Assistant struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Model        string `json:"model"`
	Instructions string `json:"instructions"`
	CreatedAt    int64  `json:"created_at"`
}

// AssistantSpec 创建助手的参数
type AssistantSpec struct {
	Name          string
	Instructions  string
	Model         string
	VectorStoreID string
}

// AssistantPatch 更新助手, nil 字段不修改
type AssistantPatch struct {
	Instructions *string `json:"instructions,omitempty"`
	Model        *string `json:"model,omitempty"`
}

type idResponse struct {
	ID string `json:"id"`
}

// CreateVectorStore 创建向量库, 返回 ID
func (c *Client) CreateVectorStore(ctx context.Context, name string) (string, error) {
	var resp idResponse
	if err := c.do(ctx, "create_vector_store", http.MethodPost, "/vector_stores", map[string]string{"name": name}, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", fmt.Errorf("create vector store: empty id in response")
	}
	return resp.ID, nil
}

// DeleteVectorStore 删除向量库, 已不存在视为成功
func (c *Client) DeleteVectorStore(ctx context.Context, id string) error {
	err := c.do(ctx, "delete_vector_store", http.MethodDelete, "/vector_stores/"+id, nil, nil)
	if IsNotFound(err) {
		return nil
	}
	return err
}

// CreateAssistant 创建带 file_search 的助手并挂载向量库
func (c *Client) CreateAssistant(ctx context.Context, spec AssistantSpec) (*Assistant, error) {
	body := map[string]interface{}{
		"name":         spec.Name,
		"instructions": spec.Instructions,
		"model":        spec.Model,
		"tools":        []map[string]string{{"type": "file_search"}},
		"tool_resources": map[string]interface{}{
			"file_search": map[string]interface{}{
				"vector_store_ids": []string{spec.VectorStoreID},
			},
		},
	}
	var a Assistant
	if err := c.do(ctx, "create_assistant", http.MethodPost, "/assistants", body, &a); err != nil {
		return nil, err
	}
	if a.ID == "" {
		return nil, fmt.Errorf("create assistant: empty id in response")
	}
	return &a, nil
}

// UpdateAssistant 修改助手指令或模型
func (c *Client) UpdateAssistant(ctx context.Context, id string, patch AssistantPatch) (*Assistant, error) {
	var a Assistant
	if err := c.do(ctx, "update_assistant", http.MethodPost, "/assistants/"+id, patch, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// DeleteAssistant 删除助手, 已不存在视为成功
func (c *Client) DeleteAssistant(ctx context.Context, id string) error {
	err := c.do(ctx, "delete_assistant", http.MethodDelete, "/assistants/"+id, nil, nil)
	if IsNotFound(err) {
		return nil
	}
	return err
}

func (c *Client) do(ctx context.Context, op, method, path string, body, result interface{}) error {
	start := time.Now()
	err := c.doRequest(ctx, method, path, body, result)
	c.metrics.ObserveUpstream(upstreamName, op, time.Since(start), err)
	return err
}

// doRequest 带退避重试的请求
// POST 非幂等, 只在 429 (请求未被处理) 时重试; GET/DELETE 在网络错误和 5xx 时也重试
func (c *Client) doRequest(ctx context.Context, method, path string, body, result interface{}) error {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		payload = b
	}

	url := c.baseURL + path
	idempotent := method == http.MethodGet || method == http.MethodDelete

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(math.Pow(2, float64(attempt-1))) * c.retryDelay
			delay += time.Duration(rand.Int63n(int64(delay/2) + 1))

			c.logger.Debug("重试 AI 平台请求", zap.Int("attempt", attempt), zap.Duration("delay", delay), zap.String("url", url))

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("OpenAI-Beta", "assistants=v2")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if idempotent && ctx.Err() == nil {
				continue
			}
			return err
		}

		respBody, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read response body: %w", err)
			if idempotent {
				continue
			}
			return lastErr
		}

		if resp.StatusCode >= 400 {
			apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
			var errResp struct {
				Error struct {
					Message string `json:"message"`
				} `json:"error"`
			}
			if json.Unmarshal(respBody, &errResp) == nil {
				apiErr.Message = errResp.Error.Message
			}

			lastErr = apiErr
			if resp.StatusCode == http.StatusTooManyRequests || (idempotent && IsRetryable(apiErr)) {
				continue
			}
			return apiErr
		}

		if result != nil && len(respBody) > 0 {
			if err := json.Unmarshal(respBody, result); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}
		}
		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}
