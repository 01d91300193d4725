package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"subleet-admin/internal/core/lifecycle"
	"subleet-admin/internal/dto"
	"subleet-admin/internal/model"
	"subleet-admin/internal/pkg/cache"
	"subleet-admin/internal/repository"
	"subleet-admin/pkg/constants"
	pkgErrors "subleet-admin/pkg/responses"
)

type mockLifecycle struct {
	mock.Mock
}

func (m *mockLifecycle) Provision(ctx context.Context, req lifecycle.ProvisionRequest) (*lifecycle.ProvisionResult, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*lifecycle.ProvisionResult)
	return res, args.Error(1)
}

func (m *mockLifecycle) Reveal(ctx context.Context, projectID int64) (string, error) {
	args := m.Called(ctx, projectID)
	return args.String(0), args.Error(1)
}

func (m *mockLifecycle) Acknowledge(ctx context.Context, projectID int64) error {
	return m.Called(ctx, projectID).Error(0)
}

func (m *mockLifecycle) KeyStatus(ctx context.Context, projectID int64) (*lifecycle.KeyStatus, error) {
	args := m.Called(ctx, projectID)
	st, _ := args.Get(0).(*lifecycle.KeyStatus)
	return st, args.Error(1)
}

func (m *mockLifecycle) VerifyKey(ctx context.Context, projectID int64, plaintext string) (*model.Project, error) {
	args := m.Called(ctx, projectID, plaintext)
	p, _ := args.Get(0).(*model.Project)
	return p, args.Error(1)
}

func (m *mockLifecycle) Rotate(ctx context.Context, projectID int64) (*lifecycle.RotationResult, error) {
	args := m.Called(ctx, projectID)
	res, _ := args.Get(0).(*lifecycle.RotationResult)
	return res, args.Error(1)
}

func (m *mockLifecycle) SetActive(ctx context.Context, projectID int64, active bool) (*lifecycle.DeployOutcome, error) {
	args := m.Called(ctx, projectID, active)
	o, _ := args.Get(0).(*lifecycle.DeployOutcome)
	return o, args.Error(1)
}

func (m *mockLifecycle) UpdateOrigin(ctx context.Context, projectID int64, originURL string) (*lifecycle.DeployOutcome, error) {
	args := m.Called(ctx, projectID, originURL)
	o, _ := args.Get(0).(*lifecycle.DeployOutcome)
	return o, args.Error(1)
}

func (m *mockLifecycle) UpdateAssistant(ctx context.Context, projectID int64, upd lifecycle.AssistantUpdate) (*model.AIResource, error) {
	args := m.Called(ctx, projectID, upd)
	r, _ := args.Get(0).(*model.AIResource)
	return r, args.Error(1)
}

func (m *mockLifecycle) Delete(ctx context.Context, projectID int64) (*lifecycle.TeardownReport, error) {
	args := m.Called(ctx, projectID)
	r, _ := args.Get(0).(*lifecycle.TeardownReport)
	return r, args.Error(1)
}

func (m *mockLifecycle) Reconcile(ctx context.Context) (*lifecycle.ReconcileReport, error) {
	args := m.Called(ctx)
	r, _ := args.Get(0).(*lifecycle.ReconcileReport)
	return r, args.Error(1)
}

// mockProjects 只实现用到的方法, 其余调用会 panic
type mockProjects struct {
	repository.ProjectRepository
	mock.Mock
}

func (m *mockProjects) FindByID(ctx context.Context, id int64) (*model.Project, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*model.Project)
	return p, args.Error(1)
}

func (m *mockProjects) ListByOwner(ctx context.Context, ownerID int64, page, pageSize int) ([]*model.Project, int64, error) {
	args := m.Called(ctx, ownerID, page, pageSize)
	ps, _ := args.Get(0).([]*model.Project)
	return ps, args.Get(1).(int64), args.Error(2)
}

type mockResources struct {
	repository.AIResourceRepository
	mock.Mock
}

func (m *mockResources) FindByProject(ctx context.Context, projectID int64) (*model.AIResource, error) {
	args := m.Called(ctx, projectID)
	r, _ := args.Get(0).(*model.AIResource)
	return r, args.Error(1)
}

type mockRuns struct {
	repository.ProvisionRunRepository
	mock.Mock
}

func (m *mockRuns) ListByProject(ctx context.Context, projectID int64, limit int) ([]*model.ProvisionRun, error) {
	args := m.Called(ctx, projectID, limit)
	rs, _ := args.Get(0).([]*model.ProvisionRun)
	return rs, args.Error(1)
}

var (
	owner  = Caller{UserID: 7, Role: "owner"}
	other  = Caller{UserID: 8, Role: "owner"}
	admin  = Caller{UserID: 1, Role: "admin"}
	viewer = Caller{UserID: 7, Role: "viewer"}
)

type fixture struct {
	lc        *mockLifecycle
	projects  *mockProjects
	resources *mockResources
	runs      *mockRuns
	redis     *miniredis.Miniredis
	projSvc   ProjectService
	keySvc    APIKeyService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	c := cache.NewRedisCache(client, "test", time.Minute, zap.NewNop())

	f := &fixture{
		lc:        &mockLifecycle{},
		projects:  &mockProjects{},
		resources: &mockResources{},
		runs:      &mockRuns{},
		redis:     mr,
	}
	f.projSvc = NewProjectService(f.lc, f.projects, f.resources, f.runs, c, zap.NewNop())
	f.keySvc = NewAPIKeyService(f.lc, f.projects, c, zap.NewNop())
	return f
}

func acme() *model.Project {
	p := &model.Project{
		Name:             "Acme",
		OwnerID:          7,
		OriginURL:        "https://acme.example",
		Working:          true,
		EdgeFunctionSlug: "subleet-acme-abc-xyz123",
	}
	p.ID = 42
	return p
}

func TestToAppError(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{lifecycle.ErrValidation, pkgErrors.CodeBadRequest},
		{lifecycle.ErrQuotaExceeded, pkgErrors.CodeQuotaExceeded},
		{fmt.Errorf("%w: project 3", lifecycle.ErrNotFound), pkgErrors.CodeNotFound},
		{lifecycle.ErrAlreadyDisplayed, pkgErrors.CodeAlreadyDisplayed},
		{lifecycle.ErrConcurrentRotation, pkgErrors.CodeConflict},
		{lifecycle.ErrIntegrity, pkgErrors.CodeIntegrityError},
		{lifecycle.ErrInvalidKey, pkgErrors.CodeUnauthorized},
		{lifecycle.ErrProjectDisabled, pkgErrors.CodeForbidden},
		{lifecycle.ErrConfiguration, pkgErrors.CodeConfigError},
		{&lifecycle.StepError{Kind: lifecycle.ErrUpstream, Step: lifecycle.StepDeploy, Err: errors.New("502")}, pkgErrors.CodeUpstreamError},
		{&lifecycle.StepError{Kind: lifecycle.ErrConsistency, Step: lifecycle.StepDeploy, Err: errors.New("502")}, pkgErrors.CodeConsistencyError},
		{&lifecycle.StepError{Kind: lifecycle.ErrPersistence, Step: lifecycle.StepPersist, Err: pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "写入失败", errors.New("deadlock"))}, pkgErrors.CodeDatabaseError},
		{pkgErrors.ErrRecordNotFound, pkgErrors.CodeNotFound},
		{errors.New("boom"), pkgErrors.CodeInternalError},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			assert.True(t, pkgErrors.IsCode(toAppError(tc.err), tc.code))
		})
	}
	assert.Nil(t, toAppError(nil))
}

func TestCreateForOtherOwnerRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.projSvc.Create(ctx, owner, &dto.CreateProjectRequest{Name: "Acme", OriginURL: "*", OwnerID: 99})
	assert.True(t, pkgErrors.IsCode(err, pkgErrors.CodeForbidden))

	_, err = f.projSvc.Create(ctx, viewer, &dto.CreateProjectRequest{Name: "Acme", OriginURL: "*"})
	assert.True(t, pkgErrors.IsCode(err, pkgErrors.CodeForbidden))

	f.lc.On("Provision", ctx, lifecycle.ProvisionRequest{OwnerID: 99, Name: "Acme", OriginURL: "*"}).
		Return(&lifecycle.ProvisionResult{RunID: "r1", State: constants.RunStateArtifactDeployed, ProjectID: 5, PlaintextKey: "sleet_x", Persisted: true}, nil)
	resp, err := f.projSvc.Create(ctx, admin, &dto.CreateProjectRequest{Name: "Acme", OriginURL: "*", OwnerID: 99})
	require.NoError(t, err)
	assert.Equal(t, "sleet_x", resp.APIKey)
	f.lc.AssertExpectations(t)
}

func TestCreateDeployFailureStillReturnsKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	deployErr := &lifecycle.StepError{Kind: lifecycle.ErrUpstream, Step: lifecycle.StepDeploy, Err: errors.New("host 503")}

	f.lc.On("Provision", ctx, mock.Anything).Return(&lifecycle.ProvisionResult{
		RunID:        "r1",
		State:        constants.RunStateDeployFailed,
		ProjectID:    42,
		Slug:         "subleet-acme",
		PlaintextKey: "sleet_abc",
		Persisted:    true,
		Deploy:       lifecycle.DeployOutcome{Attempted: true, Error: "host 503"},
	}, deployErr)

	resp, err := f.projSvc.Create(ctx, owner, &dto.CreateProjectRequest{Name: "Acme", OriginURL: "*"})
	require.Error(t, err)
	assert.True(t, pkgErrors.IsCode(err, pkgErrors.CodeUpstreamError))
	require.NotNil(t, resp)
	assert.Equal(t, "sleet_abc", resp.APIKey)
	assert.NotEmpty(t, resp.Warning)
	assert.False(t, resp.Deploy.Live)
}

func TestCreateFailureBeforePersistReportsResources(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res := &lifecycle.ProvisionResult{
		RunID:        "r1",
		State:        constants.RunStatePersistFailed,
		Slug:         "subleet-acme",
		PlaintextKey: "sleet_never_stored",
	}
	res.Resources.VectorStoreID = "vs_1"
	res.Resources.AssistantID = "asst_1"
	f.lc.On("Provision", ctx, mock.Anything).Return(res,
		&lifecycle.StepError{Kind: lifecycle.ErrPersistence, Step: lifecycle.StepPersist, Err: errors.New("deadlock")})

	resp, err := f.projSvc.Create(ctx, owner, &dto.CreateProjectRequest{Name: "Acme", OriginURL: "*"})
	assert.True(t, pkgErrors.IsCode(err, pkgErrors.CodeDatabaseError))
	require.NotNil(t, resp)
	assert.Equal(t, "r1", resp.RunID)
	assert.Equal(t, constants.RunStatePersistFailed, resp.State)
	assert.Equal(t, "vs_1", resp.VectorStoreID)
	assert.Equal(t, "asst_1", resp.AssistantID)
	assert.False(t, resp.Persisted)
	assert.Empty(t, resp.APIKey)
	assert.Contains(t, resp.Warning, "vs_1")
	assert.Contains(t, resp.Warning, "asst_1")
}

func TestCreateFailureBeforeAnyResource(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.lc.On("Provision", ctx, mock.Anything).Return(&lifecycle.ProvisionResult{
		RunID: "r1",
		State: constants.RunStateAIResourceFailed,
	}, &lifecycle.StepError{Kind: lifecycle.ErrUpstream, Step: lifecycle.StepCreateVectorStore, Err: errors.New("500")})

	resp, err := f.projSvc.Create(ctx, owner, &dto.CreateProjectRequest{Name: "Acme", OriginURL: "*"})
	assert.True(t, pkgErrors.IsCode(err, pkgErrors.CodeUpstreamError))
	require.NotNil(t, resp)
	assert.Equal(t, constants.RunStateAIResourceFailed, resp.State)
	assert.Empty(t, resp.VectorStoreID)
	assert.Empty(t, resp.AssistantID)

	f.lc.ExpectedCalls = nil
	f.lc.On("Provision", ctx, mock.Anything).Return(nil, lifecycle.ErrQuotaExceeded)
	_, err = f.projSvc.Create(ctx, owner, &dto.CreateProjectRequest{Name: "Acme", OriginURL: "*"})
	assert.True(t, pkgErrors.IsCode(err, pkgErrors.CodeQuotaExceeded))
}

func TestGetByIDIsCachedPerOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.projects.On("FindByID", ctx, int64(42)).Return(acme(), nil).Once()
	f.resources.On("FindByProject", ctx, int64(42)).Return(&model.AIResource{VectorStoreID: "vs_1", AssistantID: "asst_1", Model: "gpt-4.1-nano"}, nil).Once()
	f.lc.On("KeyStatus", ctx, int64(42)).Return(&lifecycle.KeyStatus{Exists: true, IsDisplayed: true, Version: 1}, nil).Once()

	first, err := f.projSvc.GetByID(ctx, owner, 42)
	require.NoError(t, err)
	assert.Equal(t, "asst_1", first.AssistantID)
	assert.True(t, f.redis.Exists("test:project:42:7"))

	second, err := f.projSvc.GetByID(ctx, owner, 42)
	require.NoError(t, err)
	assert.Equal(t, first.EdgeFunctionSlug, second.EdgeFunctionSlug)
	assert.Equal(t, int64(1), second.APIKey.Version)

	f.projects.AssertExpectations(t)
	f.lc.AssertExpectations(t)
}

func TestGetByIDRejectsOtherOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.projects.On("FindByID", ctx, int64(42)).Return(acme(), nil)

	_, err := f.projSvc.GetByID(ctx, other, 42)
	assert.True(t, pkgErrors.IsCode(err, pkgErrors.CodeForbidden))
	assert.False(t, f.redis.Exists("test:project:42:8"))

	f.projects.ExpectedCalls = nil
	f.projects.On("FindByID", ctx, int64(43)).Return(nil, pkgErrors.ErrRecordNotFound)
	_, err = f.projSvc.GetByID(ctx, other, 43)
	assert.True(t, pkgErrors.IsCode(err, pkgErrors.CodeNotFound))
}

func TestListOwnerPaginatesCachedList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	projects := make([]*model.Project, 0, 3)
	for i := 1; i <= 3; i++ {
		p := acme()
		p.ID = int64(i)
		projects = append(projects, p)
	}
	f.projects.On("ListByOwner", ctx, int64(7), 1, maxOwnerProjects).Return(projects, int64(3), nil).Once()

	page1, total, err := f.projSvc.List(ctx, owner, &dto.ProjectListQuery{PageQuery: dto.PageQuery{Page: 1, PageSize: 2}})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, page1, 2)

	page2, _, err := f.projSvc.List(ctx, owner, &dto.ProjectListQuery{PageQuery: dto.PageQuery{Page: 2, PageSize: 2}})
	require.NoError(t, err)
	require.Len(t, page2, 1)
	assert.Equal(t, int64(3), page2[0].ID)

	page3, _, err := f.projSvc.List(ctx, owner, &dto.ProjectListQuery{PageQuery: dto.PageQuery{Page: 3, PageSize: 2}})
	require.NoError(t, err)
	assert.Empty(t, page3)
	f.projects.AssertExpectations(t)
}

func TestListAdminSeesAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.projects.On("ListByOwner", ctx, int64(0), 1, 10).Return([]*model.Project{acme()}, int64(1), nil)

	list, total, err := f.projSvc.List(ctx, admin, &dto.ProjectListQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "Acme", list[0].Name)
}

func TestSetActiveInvalidatesCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.redis.Set("test:project:42:7", `{"id":42}`)
	f.redis.Set("test:projects:7", `[]`)

	f.projects.On("FindByID", ctx, int64(42)).Return(acme(), nil)
	f.lc.On("SetActive", ctx, int64(42), false).Return(&lifecycle.DeployOutcome{Attempted: true, Live: true, Variant: "disabled", Version: 2}, nil)

	active := false
	resp, err := f.projSvc.SetActive(ctx, owner, 42, &dto.SetActiveRequest{Active: &active})
	require.NoError(t, err)
	assert.Equal(t, "disabled", resp.Variant)
	assert.False(t, f.redis.Exists("test:project:42:7"))
	assert.False(t, f.redis.Exists("test:projects:7"))
}

func TestUpdateOriginRolledBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.projects.On("FindByID", ctx, int64(42)).Return(acme(), nil)
	f.lc.On("UpdateOrigin", ctx, int64(42), "https://new.example").Return(
		&lifecycle.DeployOutcome{Attempted: true, Error: "503"},
		&lifecycle.StepError{Kind: lifecycle.ErrUpstream, Step: lifecycle.StepDeploy, Err: errors.New("503")},
	)

	resp, err := f.projSvc.UpdateOrigin(ctx, owner, 42, &dto.UpdateOriginRequest{OriginURL: "https://new.example"})
	assert.Nil(t, resp)
	assert.True(t, pkgErrors.IsCode(err, pkgErrors.CodeUpstreamError))
}

func TestUpdateAssistantModelAdminOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.projects.On("FindByID", ctx, int64(42)).Return(acme(), nil)

	_, err := f.projSvc.UpdateAssistant(ctx, owner, 42, &dto.UpdateAssistantRequest{})
	assert.True(t, pkgErrors.IsCode(err, pkgErrors.CodeBadRequest))

	model4 := "gpt-4.1-mini"
	_, err = f.projSvc.UpdateAssistant(ctx, owner, 42, &dto.UpdateAssistantRequest{Model: &model4})
	assert.True(t, pkgErrors.IsCode(err, pkgErrors.CodeForbidden))

	f.lc.On("UpdateAssistant", ctx, int64(42), lifecycle.AssistantUpdate{Model: &model4}).
		Return(&model.AIResource{AssistantID: "asst_1", VectorStoreID: "vs_1", Model: model4}, nil)
	resp, err := f.projSvc.UpdateAssistant(ctx, admin, 42, &dto.UpdateAssistantRequest{Model: &model4})
	require.NoError(t, err)
	assert.Equal(t, model4, resp.Model)
}

func TestDeleteReportsIncompleteTeardown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.projects.On("FindByID", ctx, int64(42)).Return(acme(), nil)
	f.lc.On("Delete", ctx, int64(42)).Return(&lifecycle.TeardownReport{
		RunID:              "r9",
		ProjectID:          42,
		ArtifactDeleted:    true,
		VectorStoreDeleted: true,
		Errors:             []string{"delete assistant: 500"},
	}, nil)

	resp, err := f.projSvc.Delete(ctx, owner, 42)
	require.NoError(t, err)
	assert.False(t, resp.AssistantDeleted)
	assert.Len(t, resp.Errors, 1)

	_, err = f.projSvc.Delete(ctx, other, 42)
	assert.True(t, pkgErrors.IsCode(err, pkgErrors.CodeForbidden))
}

func TestListRuns(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.projects.On("FindByID", ctx, int64(42)).Return(acme(), nil)
	f.runs.On("ListByProject", ctx, int64(42), runHistoryLimit).Return([]*model.ProvisionRun{
		{RunID: "r1", Kind: constants.RunKindProvision, State: constants.RunStateDeployFailed, Attempts: 2},
	}, nil)

	runs, err := f.projSvc.ListRuns(ctx, viewer, 42)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, constants.RunStateLabel(constants.RunStateDeployFailed), runs[0].StateLabel)
}

func TestReconcileAdminOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.projSvc.Reconcile(ctx, owner)
	assert.True(t, pkgErrors.IsCode(err, pkgErrors.CodeForbidden))

	f.lc.On("Reconcile", ctx).Return(&lifecycle.ReconcileReport{Scanned: 2, Recovered: 1, Failed: 1}, nil)
	report, err := f.projSvc.Reconcile(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Recovered)
}

func TestRevealAndMarkDisplayed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.projects.On("FindByID", ctx, int64(42)).Return(acme(), nil)
	f.lc.On("Reveal", ctx, int64(42)).Return("sleet_abc", nil).Once()

	resp, err := f.keySvc.Reveal(ctx, owner, 42)
	require.NoError(t, err)
	assert.Equal(t, "sleet_abc", resp.APIKey)

	_, err = f.keySvc.Reveal(ctx, viewer, 42)
	assert.True(t, pkgErrors.IsCode(err, pkgErrors.CodeForbidden))

	f.redis.Set("test:project:42:7", `{"id":42}`)
	f.lc.On("Acknowledge", ctx, int64(42)).Return(nil)
	require.NoError(t, f.keySvc.MarkDisplayed(ctx, owner, 42))
	assert.False(t, f.redis.Exists("test:project:42:7"))

	f.lc.On("Reveal", ctx, int64(42)).Return("", lifecycle.ErrAlreadyDisplayed)
	_, err = f.keySvc.Reveal(ctx, owner, 42)
	assert.True(t, pkgErrors.IsCode(err, pkgErrors.CodeAlreadyDisplayed))
}

func TestRotateConsistencyWarningKeepsKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.projects.On("FindByID", ctx, int64(42)).Return(acme(), nil)
	f.lc.On("Rotate", ctx, int64(42)).Return(&lifecycle.RotationResult{
		RunID:        "r2",
		State:        constants.RunStateDeployFailed,
		ProjectID:    42,
		PlaintextKey: "sleet_new",
		Version:      2,
		Persisted:    true,
	}, &lifecycle.StepError{Kind: lifecycle.ErrConsistency, Step: lifecycle.StepDeploy, Err: errors.New("503")}).Once()

	resp, err := f.keySvc.Rotate(ctx, admin, 42)
	require.Error(t, err)
	assert.True(t, pkgErrors.IsCode(err, pkgErrors.CodeConsistencyError))
	require.NotNil(t, resp)
	assert.Equal(t, "sleet_new", resp.APIKey)
	assert.Equal(t, int64(2), resp.Version)

	f.lc.On("Rotate", ctx, int64(42)).Return(nil, lifecycle.ErrConcurrentRotation).Once()
	resp, err = f.keySvc.Rotate(ctx, owner, 42)
	assert.Nil(t, resp)
	assert.True(t, pkgErrors.IsCode(err, pkgErrors.CodeConflict))
}

func TestVerify(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.keySvc.Verify(ctx, 0, "sleet_x")
	assert.ErrorIs(t, err, pkgErrors.ErrInvalidAPIKey)

	f.lc.On("VerifyKey", ctx, int64(42), "sleet_ok").Return(acme(), nil)
	f.lc.On("VerifyKey", ctx, int64(42), "sleet_bad").Return(nil, lifecycle.ErrInvalidKey)
	f.lc.On("VerifyKey", ctx, int64(43), "sleet_ok").Return(nil, fmt.Errorf("%w: project 43", lifecycle.ErrNotFound))

	p, err := f.keySvc.Verify(ctx, 42, "sleet_ok")
	require.NoError(t, err)
	assert.Equal(t, "Acme", p.Name)

	_, err = f.keySvc.Verify(ctx, 42, "sleet_bad")
	assert.True(t, pkgErrors.IsCode(err, pkgErrors.CodeUnauthorized))

	_, err = f.keySvc.Verify(ctx, 43, "sleet_ok")
	assert.ErrorIs(t, err, pkgErrors.ErrInvalidAPIKey)
}
