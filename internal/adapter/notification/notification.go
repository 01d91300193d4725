package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"subleet-admin/internal/pkg/config"
)

// NotificationType 通知类型
type NotificationType string

const (
	NotifyProvisionFailed    NotificationType = "provision_failed"    // 开通失败
	NotifyDeployFailed       NotificationType = "deploy_failed"       // 重新部署失败, 线上与数据库不一致
	NotifyKeyRotated         NotificationType = "key_rotated"         // 密钥已轮换
	NotifyReconcileRecover   NotificationType = "reconcile_recover"   // 巡检补偿成功
	NotifyReconcileAbandon   NotificationType = "reconcile_abandon"   // 巡检放弃
	NotifyTeardownIncomplete NotificationType = "teardown_incomplete" // 删除后有残留资源
)

// NotificationMessage 通知消息
type NotificationMessage struct {
	Type      NotificationType       `json:"type"`
	Title     string                 `json:"title"`
	Content   string                 `json:"content"`
	Timestamp time.Time              `json:"timestamp"`
	Extra     map[string]interface{} `json:"extra,omitempty"`
}

// ProjectEvent 项目生命周期事件
type ProjectEvent struct {
	Type        NotificationType
	ProjectID   int64
	ProjectName string
	Slug        string
	RunID       string
	Message     string
}

// Notifier 通知器接口
type Notifier interface {
	// Send 发送通知
	Send(ctx context.Context, msg *NotificationMessage) error

	// SendProjectEvent 发送项目事件通知
	SendProjectEvent(ctx context.Context, ev *ProjectEvent) error
}

// New 按配置创建通知器, 未启用时只记录日志
func New(cfg *config.NotificationConfig, logger *zap.Logger) Notifier {
	logNotifier := NewLogNotifier(logger)
	if !cfg.Enabled || cfg.Provider != "lark" {
		return logNotifier
	}
	return NewMultiNotifier(logger, logNotifier, NewLarkNotifier(cfg.LarkWebhook, true, logger))
}

// buildProjectMessage 事件转消息, 各通知器共用
func buildProjectMessage(ev *ProjectEvent) *NotificationMessage {
	var title, color string
	switch ev.Type {
	case NotifyProvisionFailed:
		title = "❌ 项目开通失败"
		color = "red"
	case NotifyDeployFailed:
		title = "⚠️ 函数重新部署失败"
		color = "orange"
	case NotifyKeyRotated:
		title = "🔑 项目密钥已轮换"
		color = "blue"
	case NotifyReconcileRecover:
		title = "✅ 部署补偿成功"
		color = "green"
	case NotifyReconcileAbandon:
		title = "❌ 部署补偿放弃"
		color = "red"
	case NotifyTeardownIncomplete:
		title = "⚠️ 项目删除存在残留"
		color = "orange"
	default:
		title = "📢 项目通知"
		color = "grey"
	}

	content := fmt.Sprintf("**项目**: %s (ID: %d)\n**函数**: %s\n**运行记录**: %s\n**消息**: %s",
		ev.ProjectName, ev.ProjectID, ev.Slug, ev.RunID, ev.Message)

	return &NotificationMessage{
		Type:      ev.Type,
		Title:     title,
		Content:   content,
		Timestamp: time.Now(),
		Extra: map[string]interface{}{
			"project_id": ev.ProjectID,
			"slug":       ev.Slug,
			"run_id":     ev.RunID,
			"color":      color,
		},
	}
}

// ============= Lark 通知适配器 =============

// LarkNotifier Lark通知器
type LarkNotifier struct {
	webhookURL string
	enabled    bool
	logger     *zap.Logger
	client     *http.Client
}

// NewLarkNotifier 创建Lark通知器
func NewLarkNotifier(webhookURL string, enabled bool, logger *zap.Logger) *LarkNotifier {
	return &LarkNotifier{
		webhookURL: webhookURL,
		enabled:    enabled,
		logger:     logger,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Send 发送通知
func (n *LarkNotifier) Send(ctx context.Context, msg *NotificationMessage) error {
	if !n.enabled {
		n.logger.Debug("通知已禁用,跳过发送")
		return nil
	}

	if n.webhookURL == "" {
		n.logger.Warn("Lark Webhook URL未配置")
		return nil
	}

	jsonData, err := json.Marshal(n.buildLarkMessage(msg))
	if err != nil {
		return fmt.Errorf("序列化消息失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("发送请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Lark API返回错误状态码: %d", resp.StatusCode)
	}

	n.logger.Info("Lark通知发送成功",
		zap.String("type", string(msg.Type)),
		zap.String("title", msg.Title))
	return nil
}

// SendProjectEvent 发送项目事件
func (n *LarkNotifier) SendProjectEvent(ctx context.Context, ev *ProjectEvent) error {
	return n.Send(ctx, buildProjectMessage(ev))
}

// buildLarkMessage 构建Lark卡片消息
func (n *LarkNotifier) buildLarkMessage(msg *NotificationMessage) map[string]interface{} {
	color := "grey"
	if c, ok := msg.Extra["color"].(string); ok {
		color = c
	}

	return map[string]interface{}{
		"msg_type": "interactive",
		"card": map[string]interface{}{
			"header": map[string]interface{}{
				"title": map[string]interface{}{
					"tag":     "plain_text",
					"content": msg.Title,
				},
				"template": color,
			},
			"elements": []interface{}{
				map[string]interface{}{
					"tag": "div",
					"text": map[string]interface{}{
						"tag":     "lark_md",
						"content": msg.Content,
					},
				},
				map[string]interface{}{
					"tag": "div",
					"text": map[string]interface{}{
						"tag":     "plain_text",
						"content": fmt.Sprintf("时间: %s", msg.Timestamp.Format("2006-01-02 15:04:05")),
					},
				},
			},
		},
	}
}

// ============= 多通知器 =============

// MultiNotifier 多通知器(支持同时发送到多个渠道)
type MultiNotifier struct {
	notifiers []Notifier
	logger    *zap.Logger
}

// NewMultiNotifier 创建多通知器
func NewMultiNotifier(logger *zap.Logger, notifiers ...Notifier) *MultiNotifier {
	return &MultiNotifier{
		notifiers: notifiers,
		logger:    logger,
	}
}

// Send 发送到所有通知器, 单个失败不影响其他渠道
func (m *MultiNotifier) Send(ctx context.Context, msg *NotificationMessage) error {
	var lastErr error
	for _, notifier := range m.notifiers {
		if err := notifier.Send(ctx, msg); err != nil {
			m.logger.Error("发送通知失败", zap.Error(err))
			lastErr = err
		}
	}
	return lastErr
}

// SendProjectEvent 发送项目事件到所有通知器
func (m *MultiNotifier) SendProjectEvent(ctx context.Context, ev *ProjectEvent) error {
	var lastErr error
	for _, notifier := range m.notifiers {
		if err := notifier.SendProjectEvent(ctx, ev); err != nil {
			m.logger.Error("发送项目通知失败", zap.Error(err))
			lastErr = err
		}
	}
	return lastErr
}

// ============= 日志通知器(仅记录日志,不发送实际通知) =============

// LogNotifier 日志通知器
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier 创建日志通知器
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{
		logger: logger,
	}
}

// Send 记录通知到日志
func (n *LogNotifier) Send(ctx context.Context, msg *NotificationMessage) error {
	n.logger.Info("📢 通知",
		zap.String("type", string(msg.Type)),
		zap.String("title", msg.Title),
		zap.String("content", msg.Content),
		zap.Any("extra", msg.Extra))
	return nil
}

// SendProjectEvent 记录项目事件到日志
func (n *LogNotifier) SendProjectEvent(ctx context.Context, ev *ProjectEvent) error {
	n.logger.Info("📢 项目通知",
		zap.String("type", string(ev.Type)),
		zap.Int64("project_id", ev.ProjectID),
		zap.String("slug", ev.Slug),
		zap.String("run_id", ev.RunID),
		zap.String("message", ev.Message))
	return nil
}
