package lifecycle

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"subleet-admin/internal/model"
	"subleet-admin/internal/pkg/aiplatform"
	"subleet-admin/internal/repository"
	pkgErrors "subleet-admin/pkg/responses"
)

// memStore 内存实现的四个仓储接口
type memStore struct {
	mu        sync.Mutex
	nextID    int64
	projects  map[int64]model.Project
	keys      map[int64]model.APIKey
	resources map[int64]model.AIResource
	runs      map[string]model.ProvisionRun

	createBundleErr error
	replaceErr      error
	updateErrs      []error // 按调用顺序返回, nil 表示成功
	deleteErr       error
}

func newMemStore() *memStore {
	return &memStore{
		projects:  make(map[int64]model.Project),
		keys:      make(map[int64]model.APIKey),
		resources: make(map[int64]model.AIResource),
		runs:      make(map[string]model.ProvisionRun),
	}
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

// === ProjectRepository ===

func (s *memStore) CreateBundle(ctx context.Context, b *model.ProjectBundle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createBundleErr != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "创建项目失败", s.createBundleErr)
	}
	b.Project.ID = s.id()
	b.Project.CreatedAt = time.Now()
	s.projects[b.Project.ID] = *b.Project
	if b.Key != nil {
		b.Key.ID = s.id()
		b.Key.ProjectID = b.Project.ID
		s.keys[b.Project.ID] = *b.Key
	}
	if b.Resource != nil {
		b.Resource.ID = s.id()
		b.Resource.ProjectID = b.Project.ID
		s.resources[b.Project.ID] = *b.Resource
	}
	return nil
}

func (s *memStore) FindByID(ctx context.Context, id int64) (*model.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return nil, pkgErrors.ErrRecordNotFound
	}
	return &p, nil
}

func (s *memStore) FindBundle(ctx context.Context, id int64) (*model.ProjectBundle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return nil, pkgErrors.ErrRecordNotFound
	}
	b := &model.ProjectBundle{Project: &p}
	if k, ok := s.keys[id]; ok {
		b.Key = &k
	}
	if r, ok := s.resources[id]; ok {
		b.Resource = &r
	}
	return b, nil
}

func (s *memStore) ListByOwner(ctx context.Context, ownerID int64, page, pageSize int) ([]*model.Project, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Project
	for _, p := range s.projects {
		if ownerID == 0 || p.OwnerID == ownerID {
			p := p
			out = append(out, &p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (s *memStore) CountByOwner(ctx context.Context, ownerID int64) (int64, error) {
	_, n, err := s.ListByOwner(ctx, ownerID, 1, 100)
	return n, err
}

func (s *memStore) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.updateErrs) > 0 {
		err := s.updateErrs[0]
		s.updateErrs = s.updateErrs[1:]
		if err != nil {
			return err
		}
	}
	p, ok := s.projects[id]
	if !ok {
		return pkgErrors.ErrRecordNotFound
	}
	for k, v := range fields {
		switch k {
		case "working":
			p.Working = v.(bool)
		case "origin_url":
			p.OriginURL = v.(string)
		default:
			return fmt.Errorf("unexpected field %s", k)
		}
	}
	s.projects[id] = p
	return nil
}

func (s *memStore) DeleteCascade(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.projects, id)
	delete(s.keys, id)
	delete(s.resources, id)
	return nil
}

// === APIKeyRepository ===

type memKeys struct{ *memStore }

func (s memKeys) FindByProject(ctx context.Context, projectID int64) (*model.APIKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k, ok := s.keys[projectID]
	if !ok {
		return nil, pkgErrors.ErrRecordNotFound
	}
	return &k, nil
}

func (s memKeys) Replace(ctx context.Context, key *model.APIKey, expectVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.replaceErr != nil {
		return s.replaceErr
	}
	cur, ok := s.keys[key.ProjectID]
	if !ok || cur.Version != expectVersion {
		return repository.ErrVersionConflict
	}
	now := time.Now()
	cur.EncryptedKey = key.EncryptedKey
	cur.KeyHash = key.KeyHash
	cur.IsDisplayed = key.IsDisplayed
	cur.Version = expectVersion + 1
	cur.RotatedAt = &now
	cur.CreatedAt = now
	s.keys[key.ProjectID] = cur
	key.Version = cur.Version
	key.RotatedAt = &now
	key.CreatedAt = now
	return nil
}

func (s memKeys) MarkDisplayed(ctx context.Context, projectID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k, ok := s.keys[projectID]
	if !ok {
		return false, pkgErrors.ErrRecordNotFound
	}
	if k.IsDisplayed {
		return false, nil
	}
	k.IsDisplayed = true
	s.keys[projectID] = k
	return true, nil
}

// === AIResourceRepository ===

type memResources struct{ *memStore }

func (s memResources) FindByProject(ctx context.Context, projectID int64) (*model.AIResource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.resources[projectID]
	if !ok {
		return nil, pkgErrors.ErrRecordNotFound
	}
	return &r, nil
}

func (s memResources) UpdateModel(ctx context.Context, projectID int64, modelName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.resources[projectID]
	if !ok {
		return pkgErrors.ErrRecordNotFound
	}
	r.Model = modelName
	s.resources[projectID] = r
	return nil
}

// === ProvisionRunRepository ===

type memRuns struct{ *memStore }

func (s memRuns) Create(ctx context.Context, run *model.ProvisionRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	run.ID = s.id()
	s.runs[run.RunID] = *run
	return nil
}

func (s memRuns) FindByRunID(ctx context.Context, runID string) (*model.ProvisionRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.runs[runID]
	if !ok {
		return nil, pkgErrors.ErrRecordNotFound
	}
	return &r, nil
}

func (s memRuns) Transition(ctx context.Context, runID, from, to string, upd repository.RunUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.runs[runID]
	if !ok || r.State != from {
		return repository.ErrStateConflict
	}
	r.State = to
	if upd.ProjectID > 0 {
		r.ProjectID = upd.ProjectID
	}
	if upd.Detail != nil {
		r.Detail = upd.Detail
	}
	if upd.ErrorMessage != nil {
		r.ErrorMessage = *upd.ErrorMessage
	}
	s.runs[runID] = r
	return nil
}

func (s memRuns) IncrementAttempts(ctx context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.runs[runID]
	r.Attempts++
	s.runs[runID] = r
	return nil
}

func (s memRuns) ListByState(ctx context.Context, state string, maxAttempts, limit int) ([]*model.ProvisionRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.ProvisionRun
	for _, r := range s.runs {
		if r.State == state && r.Attempts < maxAttempts {
			r := r
			out = append(out, &r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s memRuns) ListByProject(ctx context.Context, projectID int64, limit int) ([]*model.ProvisionRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.ProvisionRun
	for _, r := range s.runs {
		if r.ProjectID == projectID {
			r := r
			out = append(out, &r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// fakeAI AI 平台桩
type fakeAI struct {
	mu                sync.Mutex
	seq               int
	vectorStores      map[string]bool
	assistants        map[string]aiplatform.Assistant
	createVSErr       error
	createAssistErr   error
	deleteAssistErr   error
	updateAssistErr   error
	lastAssistantSpec aiplatform.AssistantSpec
}

func newFakeAI() *fakeAI {
	return &fakeAI{vectorStores: make(map[string]bool), assistants: make(map[string]aiplatform.Assistant)}
}

func (f *fakeAI) CreateVectorStore(ctx context.Context, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createVSErr != nil {
		return "", f.createVSErr
	}
	f.seq++
	id := fmt.Sprintf("vs_%d", f.seq)
	f.vectorStores[id] = true
	return id, nil
}

func (f *fakeAI) DeleteVectorStore(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.vectorStores, id)
	return nil
}

func (f *fakeAI) CreateAssistant(ctx context.Context, spec aiplatform.AssistantSpec) (*aiplatform.Assistant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastAssistantSpec = spec
	if f.createAssistErr != nil {
		return nil, f.createAssistErr
	}
	f.seq++
	a := aiplatform.Assistant{ID: fmt.Sprintf("asst_%d", f.seq), Name: spec.Name, Model: spec.Model, Instructions: spec.Instructions}
	f.assistants[a.ID] = a
	return &a, nil
}

func (f *fakeAI) UpdateAssistant(ctx context.Context, id string, patch aiplatform.AssistantPatch) (*aiplatform.Assistant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateAssistErr != nil {
		return nil, f.updateAssistErr
	}
	a, ok := f.assistants[id]
	if !ok {
		return nil, &aiplatform.APIError{StatusCode: 404, Message: "no such assistant"}
	}
	if patch.Model != nil {
		a.Model = *patch.Model
	}
	if patch.Instructions != nil {
		a.Instructions = *patch.Instructions
	}
	f.assistants[id] = a
	return &a, nil
}

func (f *fakeAI) DeleteAssistant(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteAssistErr != nil {
		return f.deleteAssistErr
	}
	delete(f.assistants, id)
	return nil
}
