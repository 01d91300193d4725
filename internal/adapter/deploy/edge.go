package deploy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"subleet-admin/internal/core/artifact"
	"subleet-admin/internal/pkg/config"
	"subleet-admin/internal/pkg/metrics"
)

const (
	defaultEdgeTimeout = 60 * time.Second
	baseRetryDelay     = time.Second
	upstreamName       = "edge_host"
)

// HostError 部署平台拒绝请求 (鉴权、配额、源码非法等)
type HostError struct {
	StatusCode int
	Body       string
}

func (e *HostError) Error() string {
	return fmt.Sprintf("edge host error (status %d): %s", e.StatusCode, e.Body)
}

func isRetryable(err error) bool {
	var hostErr *HostError
	if errors.As(err, &hostErr) {
		return hostErr.StatusCode == http.StatusTooManyRequests || hostErr.StatusCode >= 500
	}
	return true // 网络错误
}

// EdgeDeployer 通过管理 API 部署 Deno 函数
type EdgeDeployer struct {
	client      *http.Client
	baseURL     string
	projectRef  string
	accessToken string
	maxRetries  int
	retryDelay  time.Duration
	logger      *zap.Logger
	metrics     *metrics.Metrics
}

// NewEdgeDeployer 创建部署器
func NewEdgeDeployer(cfg *config.EdgeHostConfig, logger *zap.Logger, m *metrics.Metrics) *EdgeDeployer {
	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil || timeout <= 0 {
		timeout = defaultEdgeTimeout
	}
	return &EdgeDeployer{
		client:      &http.Client{Timeout: timeout},
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		projectRef:  cfg.ProjectRef,
		accessToken: cfg.AccessToken,
		maxRetries:  cfg.MaxRetries,
		retryDelay:  baseRetryDelay,
		logger:      logger,
		metrics:     m,
	}
}

type functionMetadata struct {
	Name           string    `json:"name"`
	Version        string    `json:"version"`
	VerifyJWT      bool      `json:"verify_jwt"`
	ImportMap      importMap `json:"import_map"`
	EntrypointPath string    `json:"entrypoint_path"`
}

type importMap struct {
	Imports map[string]string `json:"imports"`
}

// Deploy 部署函数
// 部署以 slug 为粒度幂等, 网络错误、429、5xx 都可以安全重试
func (d *EdgeDeployer) Deploy(ctx context.Context, slug string, src *artifact.Source) (*DeploymentMeta, error) {
	if slug == "" || src == nil {
		return nil, fmt.Errorf("deploy: slug and source are required")
	}

	body, contentType, err := buildDeployBody(slug, src)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/v1/projects/%s/functions/deploy?slug=%s", d.baseURL, d.projectRef, url.QueryEscape(slug))

	start := time.Now()
	var meta DeploymentMeta
	err = d.withRetry(ctx, "deploy", func() error {
		return d.send(ctx, http.MethodPost, endpoint, contentType, body, &meta)
	})
	d.metrics.ObserveUpstream(upstreamName, "deploy", time.Since(start), err)
	if err != nil {
		return nil, err
	}
	if meta.Slug == "" {
		meta.Slug = slug
	}

	d.logger.Info("函数部署成功",
		zap.String("slug", slug),
		zap.String("variant", src.Variant),
		zap.String("digest", src.Digest),
		zap.Int("version", meta.Version))
	return &meta, nil
}

// Delete 删除函数, 404 视为成功
func (d *EdgeDeployer) Delete(ctx context.Context, slug string) error {
	endpoint := fmt.Sprintf("%s/v1/projects/%s/functions/%s", d.baseURL, d.projectRef, url.PathEscape(slug))

	start := time.Now()
	err := d.withRetry(ctx, "delete", func() error {
		return d.send(ctx, http.MethodDelete, endpoint, "", nil, nil)
	})
	var hostErr *HostError
	if errors.As(err, &hostErr) && hostErr.StatusCode == http.StatusNotFound {
		err = nil
	}
	d.metrics.ObserveUpstream(upstreamName, "delete", time.Since(start), err)
	if err == nil {
		d.logger.Info("函数已删除", zap.String("slug", slug))
	}
	return err
}

func buildDeployBody(slug string, src *artifact.Source) ([]byte, string, error) {
	meta := functionMetadata{
		Name:           slug,
		Version:        "1",
		VerifyJWT:      false,
		ImportMap:      importMap{Imports: map[string]string{"openai": "npm:openai"}},
		EntrypointPath: src.Entrypoint,
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, "", fmt.Errorf("marshal metadata: %w", err)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("metadata", string(metaJSON)); err != nil {
		return nil, "", err
	}
	part, err := w.CreateFormFile("file", src.Entrypoint)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.WriteString(part, src.Content); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

func (d *EdgeDeployer) withRetry(ctx context.Context, op string, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= d.maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(math.Pow(2, float64(attempt-1))) * d.retryDelay
			delay += time.Duration(rand.Int63n(int64(delay/2) + 1))
			d.logger.Warn("部署平台请求失败, 准备重试",
				zap.String("op", op), zap.Int("attempt", attempt), zap.Duration("delay", delay), zap.Error(lastErr))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		lastErr = fn()
		if lastErr == nil || ctx.Err() != nil || !isRetryable(lastErr) {
			return lastErr
		}
	}
	return lastErr
}

func (d *EdgeDeployer) send(ctx context.Context, method, endpoint, contentType string, body []byte, result interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+d.accessToken)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode >= 400 {
		return &HostError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}
