package deploy

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"subleet-admin/internal/core/artifact"
)

// MockDeployer 模拟部署器, 记录每个 slug 当前的线上源码
type MockDeployer struct {
	mock.Mock

	// 可控行为
	deployDelay   time.Duration
	deployError   error
	deleteError   error
	failOnVariant string // 只对指定版本返回错误, 空表示不区分

	deployCalled map[string]int
	deleteCalled map[string]int
	live         map[string]*artifact.Source
	history      []*artifact.Source
	mu           sync.Mutex
}

func NewMockDeployer() *MockDeployer {
	return &MockDeployer{
		deployCalled: make(map[string]int),
		deleteCalled: make(map[string]int),
		live:         make(map[string]*artifact.Source),
	}
}

// === 配置方法 ===

func (m *MockDeployer) SetDeployError(err error) *MockDeployer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deployError = err
	m.failOnVariant = ""
	return m
}

// SetDeployErrorFor 仅在部署指定版本时失败
func (m *MockDeployer) SetDeployErrorFor(variant string, err error) *MockDeployer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deployError = err
	m.failOnVariant = variant
	return m
}

func (m *MockDeployer) SetDeleteError(err error) *MockDeployer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteError = err
	return m
}

func (m *MockDeployer) SetDeployDelay(d time.Duration) *MockDeployer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deployDelay = d
	return m
}

// === 接口实现 ===

func (m *MockDeployer) Deploy(ctx context.Context, slug string, src *artifact.Source) (*DeploymentMeta, error) {
	m.mu.Lock()
	m.deployCalled[slug]++
	delay := m.deployDelay
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deployError != nil && (m.failOnVariant == "" || m.failOnVariant == src.Variant) {
		return nil, m.deployError
	}
	m.live[slug] = src
	m.history = append(m.history, src)
	return &DeploymentMeta{
		ID:      "mock-" + slug,
		Slug:    slug,
		Name:    slug,
		Version: m.deployCalled[slug],
		Status:  "ACTIVE",
	}, nil
}

func (m *MockDeployer) Delete(ctx context.Context, slug string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteCalled[slug]++
	if m.deleteError != nil {
		return m.deleteError
	}
	delete(m.live, slug)
	return nil
}

// === 查询方法 ===

// Live 返回 slug 当前的线上源码, 未部署或已删除返回 nil
func (m *MockDeployer) Live(slug string) *artifact.Source {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.live[slug]
}

// History 按部署顺序返回所有成功部署的源码
func (m *MockDeployer) History() []*artifact.Source {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*artifact.Source, len(m.history))
	copy(out, m.history)
	return out
}

// === 验证方法 ===

func (m *MockDeployer) AssertDeployCalled(t mock.TestingT, slug string, times int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deployCalled[slug] != times {
		t.Errorf("Deploy for %s called %d times, want %d", slug, m.deployCalled[slug], times)
	}
}

func (m *MockDeployer) AssertDeleteCalled(t mock.TestingT, slug string, times int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteCalled[slug] != times {
		t.Errorf("Delete for %s called %d times, want %d", slug, m.deleteCalled[slug], times)
	}
}
