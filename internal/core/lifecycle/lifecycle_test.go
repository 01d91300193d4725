package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"subleet-admin/internal/adapter/deploy"
	"subleet-admin/internal/core/artifact"
	"subleet-admin/internal/model"
	"subleet-admin/internal/pkg/crypto"
	"subleet-admin/internal/pkg/metrics"
	"subleet-admin/pkg/constants"
)

const testSecret = "0123456789abcdef0123456789abcdef-secret"

func TestMain(m *testing.M) {
	crypto.HashCost = bcrypt.MinCost
	os.Exit(m.Run())
}

type harness struct {
	mgr      *Manager
	store    *memStore
	ai       *fakeAI
	deployer *deploy.MockDeployer
}

func newHarness(t *testing.T, tweak ...func(*Options)) *harness {
	t.Helper()
	store := newMemStore()
	ai := newFakeAI()
	deployer := deploy.NewMockDeployer()

	opts := Options{
		EncryptionSecret:    testSecret,
		KeyPrefix:           "sleet_",
		KeyBytes:            24,
		SlugPrefix:          "subleet",
		DefaultModel:        "gpt-4.1-nano",
		SupportedModels:     []string{"gpt-4.1-nano", "gpt-4.1-mini"},
		Instructions:        "answer from the documents",
		MaxProjectsPerOwner: 0,
		StepTimeout:         5 * time.Second,
		ReconcileAttempts:   3,
		ReconcileBatchSize:  10,
	}
	for _, fn := range tweak {
		fn(&opts)
	}

	mgr, err := NewManager(Deps{
		Projects:  store,
		Keys:      memKeys{store},
		Resources: memResources{store},
		Runs:      memRuns{store},
		AI:        ai,
		Deployer:  deployer,
		Metrics:   metrics.New(),
	}, opts, zap.NewNop())
	require.NoError(t, err)
	return &harness{mgr: mgr, store: store, ai: ai, deployer: deployer}
}

func (h *harness) provision(t *testing.T, name, origin string) *ProvisionResult {
	t.Helper()
	res, err := h.mgr.Provision(context.Background(), ProvisionRequest{OwnerID: 1, Name: name, OriginURL: origin})
	require.NoError(t, err)
	return res
}

func (h *harness) run(t *testing.T, runID string) model.ProvisionRun {
	t.Helper()
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	r, ok := h.store.runs[runID]
	require.True(t, ok, "run %s not recorded", runID)
	return r
}

// liveConst 取出线上源码中的常量值
func liveConst(t *testing.T, src *artifact.Source, name string) string {
	t.Helper()
	require.NotNil(t, src, "nothing deployed")
	re := regexp.MustCompile(`(?m)^const ` + name + ` = (".*");$`)
	m := re.FindStringSubmatch(src.Content)
	require.Len(t, m, 2, "const %s not found", name)
	var v string
	require.NoError(t, json.Unmarshal([]byte(m[1]), &v))
	return v
}

var keyPattern = regexp.MustCompile(`^sleet_[0-9a-f]{48}$`)

func TestNewManager_RejectsWeakSecret(t *testing.T) {
	_, err := NewManager(Deps{}, Options{EncryptionSecret: "short"}, zap.NewNop())
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestProvision_Acme(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	res := h.provision(t, "Acme", "https://acme.example/")

	assert.Regexp(t, keyPattern, res.PlaintextKey)
	assert.True(t, res.Persisted)
	assert.True(t, res.Deploy.Live)
	assert.Equal(t, constants.RunStateArtifactDeployed, res.State)
	assert.Equal(t, "asst_2", res.Resources.AssistantID)
	assert.Equal(t, "vs_1", h.ai.lastAssistantSpec.VectorStoreID)
	assert.True(t, strings.HasPrefix(res.Slug, "subleet-acme-"))

	live := h.deployer.Live(res.Slug)
	assert.Equal(t, artifact.VariantEnabled, live.Variant)
	assert.Equal(t, "https://acme.example", liveConst(t, live, "ALLOWED_ORIGIN"))
	assert.Equal(t, res.PlaintextKey, liveConst(t, live, "PROJECT_API_KEY"))

	// 开通响应即为展示
	status, err := h.mgr.KeyStatus(ctx, res.ProjectID)
	require.NoError(t, err)
	assert.True(t, status.Exists)
	assert.True(t, status.IsDisplayed)
	assert.False(t, status.CanBeViewed)

	_, err = h.mgr.Reveal(ctx, res.ProjectID)
	assert.ErrorIs(t, err, ErrAlreadyDisplayed)
	assert.False(t, errors.Is(err, ErrNotFound))

	// 库中只有密文, 摘要可校验
	stored := h.store.keys[res.ProjectID]
	assert.NotContains(t, stored.EncryptedKey, res.PlaintextKey)
	plain, err := crypto.DecryptAPIKey(stored.EncryptedKey, testSecret)
	require.NoError(t, err)
	assert.Equal(t, res.PlaintextKey, plain)

	run := h.run(t, res.RunID)
	assert.Equal(t, res.ProjectID, run.ProjectID)
	assert.NotContains(t, string(run.Detail), res.PlaintextKey)
}

func TestProvision_Validation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	cases := []ProvisionRequest{
		{OwnerID: 1, Name: "", OriginURL: "https://a.example"},
		{OwnerID: 1, Name: "x", OriginURL: "ftp://a.example"},
		{OwnerID: 1, Name: "x", OriginURL: "https://a.example/path"},
		{OwnerID: 0, Name: "x", OriginURL: "*"},
		{OwnerID: 1, Name: strings.Repeat("n", 101), OriginURL: "*"},
	}
	for _, req := range cases {
		_, err := h.mgr.Provision(ctx, req)
		assert.ErrorIs(t, err, ErrValidation, "%+v", req)
	}
	assert.Empty(t, h.ai.vectorStores, "no remote call before validation passes")
}

func TestProvision_Quota(t *testing.T) {
	h := newHarness(t, func(o *Options) { o.MaxProjectsPerOwner = 1 })

	h.provision(t, "first", "*")
	_, err := h.mgr.Provision(context.Background(), ProvisionRequest{OwnerID: 1, Name: "second", OriginURL: "*"})
	assert.ErrorIs(t, err, ErrQuotaExceeded)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = h.mgr.Provision(context.Background(), ProvisionRequest{OwnerID: 2, Name: "other", OriginURL: "*"})
	assert.NoError(t, err)
}

func TestProvision_AssistantFailureKeepsVectorStore(t *testing.T) {
	h := newHarness(t)
	h.ai.createAssistErr = errors.New("rate limited")

	res, err := h.mgr.Provision(context.Background(), ProvisionRequest{OwnerID: 1, Name: "demo", OriginURL: "*"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Equal(t, StepCreateAssistant, FailedStep(err))

	require.NotNil(t, res)
	assert.Equal(t, constants.RunStateAIResourceFailed, res.State)
	assert.Equal(t, "vs_1", res.Resources.VectorStoreID)
	assert.True(t, h.ai.vectorStores["vs_1"], "completed steps are not undone")
	assert.Empty(t, res.PlaintextKey)
	assert.False(t, res.Persisted)
	assert.Empty(t, h.store.projects)
}

func TestProvision_PersistFailure(t *testing.T) {
	h := newHarness(t)
	h.store.createBundleErr = errors.New("connection refused")

	res, err := h.mgr.Provision(context.Background(), ProvisionRequest{OwnerID: 1, Name: "demo", OriginURL: "*"})
	assert.ErrorIs(t, err, ErrPersistence)
	assert.Equal(t, constants.RunStatePersistFailed, res.State)
	assert.NotEmpty(t, res.Resources.AssistantID)
	assert.Empty(t, res.PlaintextKey)
	assert.Nil(t, h.deployer.Live(res.Slug))
}

func TestProvision_DeployFailureThenReconcile(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.deployer.SetDeployError(errors.New("edge host 502"))

	res, err := h.mgr.Provision(ctx, ProvisionRequest{OwnerID: 1, Name: "demo", OriginURL: "*"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Equal(t, StepDeploy, FailedStep(err))
	assert.Equal(t, constants.RunStateDeployFailed, res.State)
	assert.True(t, res.Persisted)
	assert.Regexp(t, keyPattern, res.PlaintextKey, "persisted key is still disclosed")
	assert.False(t, res.Deploy.Live)
	assert.Contains(t, res.Deploy.Error, "502")

	h.deployer.SetDeployError(nil)
	report, err := h.mgr.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Recovered)

	assert.Equal(t, res.PlaintextKey, liveConst(t, h.deployer.Live(res.Slug), "PROJECT_API_KEY"))
	assert.Equal(t, constants.RunStateArtifactDeployed, h.run(t, res.RunID).State)

	report, err = h.mgr.Reconcile(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.Scanned)
}

func TestRevealOnceThenAcknowledge(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	res := h.provision(t, "demo", "*")

	// 模拟一把尚未展示的密钥
	h.store.mu.Lock()
	k := h.store.keys[res.ProjectID]
	k.IsDisplayed = false
	h.store.keys[res.ProjectID] = k
	h.store.mu.Unlock()

	plain, err := h.mgr.Reveal(ctx, res.ProjectID)
	require.NoError(t, err)
	assert.Equal(t, res.PlaintextKey, plain)

	require.NoError(t, h.mgr.Acknowledge(ctx, res.ProjectID))
	require.NoError(t, h.mgr.Acknowledge(ctx, res.ProjectID), "acknowledge is idempotent")

	_, err = h.mgr.Reveal(ctx, res.ProjectID)
	assert.ErrorIs(t, err, ErrAlreadyDisplayed)
}

func TestReveal_NotFoundAndIntegrity(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.mgr.Reveal(ctx, 404)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, errors.Is(err, ErrAlreadyDisplayed))
	assert.ErrorIs(t, h.mgr.Acknowledge(ctx, 404), ErrNotFound)

	status, err := h.mgr.KeyStatus(ctx, 404)
	require.NoError(t, err)
	assert.False(t, status.Exists)

	res := h.provision(t, "demo", "*")
	h.store.mu.Lock()
	k := h.store.keys[res.ProjectID]
	k.IsDisplayed = false
	h.store.keys[res.ProjectID] = k
	h.store.mu.Unlock()

	other := newHarness(t, func(o *Options) { o.EncryptionSecret = "ffffffffffffffffffffffffffffffff-other" })
	other.mgr.keys = memKeys{h.store}
	_, err = other.mgr.Reveal(ctx, res.ProjectID)
	assert.ErrorIs(t, err, ErrIntegrity)
}

func TestRotate_TwiceInSequence(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	res := h.provision(t, "demo", "https://demo.example")

	first, err := h.mgr.Rotate(ctx, res.ProjectID)
	require.NoError(t, err)
	second, err := h.mgr.Rotate(ctx, res.ProjectID)
	require.NoError(t, err)

	assert.Regexp(t, keyPattern, first.PlaintextKey)
	assert.NotEqual(t, res.PlaintextKey, first.PlaintextKey)
	assert.NotEqual(t, first.PlaintextKey, second.PlaintextKey)
	assert.Equal(t, int64(2), first.Version)
	assert.Equal(t, int64(3), second.Version)

	assert.Equal(t, second.PlaintextKey, liveConst(t, h.deployer.Live(res.Slug), "PROJECT_API_KEY"))

	_, err = h.mgr.VerifyKey(ctx, res.ProjectID, res.PlaintextKey)
	assert.ErrorIs(t, err, ErrInvalidKey)
	_, err = h.mgr.VerifyKey(ctx, res.ProjectID, first.PlaintextKey)
	assert.ErrorIs(t, err, ErrInvalidKey)
	_, err = h.mgr.VerifyKey(ctx, res.ProjectID, second.PlaintextKey)
	assert.NoError(t, err)

	_, err = h.mgr.Reveal(ctx, res.ProjectID)
	assert.ErrorIs(t, err, ErrAlreadyDisplayed, "rotation response is the disclosure")
}

func TestRotate_DeployFailureIsConsistencyWarning(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	res := h.provision(t, "demo", "*")

	h.deployer.SetDeployError(errors.New("edge host timeout"))
	rot, err := h.mgr.Rotate(ctx, res.ProjectID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConsistency)
	assert.False(t, errors.Is(err, ErrPersistence))
	assert.Equal(t, StepDeploy, FailedStep(err))

	assert.True(t, rot.Persisted)
	assert.Regexp(t, keyPattern, rot.PlaintextKey)
	assert.Equal(t, constants.RunStateDeployFailed, rot.State)
	assert.Equal(t, res.PlaintextKey, liveConst(t, h.deployer.Live(res.Slug), "PROJECT_API_KEY"), "old key still live")

	h.deployer.SetDeployError(nil)
	report, err := h.mgr.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Recovered)
	assert.Equal(t, rot.PlaintextKey, liveConst(t, h.deployer.Live(res.Slug), "PROJECT_API_KEY"))
}

func TestRotate_VersionConflict(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	res := h.provision(t, "demo", "*")

	h.mgr.keys = conflictingKeys{memKeys{h.store}}

	rot, err := h.mgr.Rotate(ctx, res.ProjectID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConcurrentRotation)
	assert.ErrorIs(t, err, ErrConsistency)
	assert.False(t, rot.Persisted)
	assert.NotEmpty(t, rot.PlaintextKey, "new key is live and must be handed out")
	assert.Equal(t, constants.RunStatePersistFailed, rot.State)
}

// conflictingKeys Replace 前先把版本加一, 模拟另一个进程抢先完成轮换
type conflictingKeys struct{ memKeys }

func (c conflictingKeys) Replace(ctx context.Context, key *model.APIKey, expectVersion int64) error {
	c.mu.Lock()
	k := c.keys[key.ProjectID]
	k.Version++
	c.keys[key.ProjectID] = k
	c.mu.Unlock()
	return c.memKeys.Replace(ctx, key, expectVersion)
}

func TestRotate_ConcurrentRunsAgree(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	res := h.provision(t, "demo", "*")
	h.deployer.SetDeployDelay(5 * time.Millisecond)

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.mgr.Rotate(ctx, res.ProjectID)
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	assert.Equal(t, int64(5), h.store.keys[res.ProjectID].Version)
	liveKey := liveConst(t, h.deployer.Live(res.Slug), "PROJECT_API_KEY")
	_, err := h.mgr.VerifyKey(ctx, res.ProjectID, liveKey)
	assert.NoError(t, err, "live artifact embeds the stored key")
}

func TestRotate_NotFound(t *testing.T) {
	h := newHarness(t)
	_, err := h.mgr.Rotate(context.Background(), 77)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetActive_DeactivateThenReactivate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	res := h.provision(t, "Acme", "https://acme.example")

	outcome, err := h.mgr.SetActive(ctx, res.ProjectID, false)
	require.NoError(t, err)
	assert.Equal(t, artifact.VariantDisabled, outcome.Variant)
	live := h.deployer.Live(res.Slug)
	assert.Equal(t, artifact.VariantDisabled, live.Variant)
	assert.Equal(t, artifact.DisabledMessage("Acme"), liveConst(t, live, "DISABLED_MESSAGE"))
	assert.NotContains(t, live.Content, res.PlaintextKey)

	_, err = h.mgr.VerifyKey(ctx, res.ProjectID, res.PlaintextKey)
	assert.ErrorIs(t, err, ErrProjectDisabled)

	// 停用期间轮换, 线上仍是停用版本
	rot, err := h.mgr.Rotate(ctx, res.ProjectID)
	require.NoError(t, err)
	assert.Equal(t, artifact.VariantDisabled, h.deployer.Live(res.Slug).Variant)

	_, err = h.mgr.UpdateOrigin(ctx, res.ProjectID, "https://new.acme.example")
	require.NoError(t, err)

	outcome, err = h.mgr.SetActive(ctx, res.ProjectID, true)
	require.NoError(t, err)
	assert.True(t, outcome.Live)
	live = h.deployer.Live(res.Slug)
	assert.Equal(t, artifact.VariantEnabled, live.Variant)
	assert.Equal(t, rot.PlaintextKey, liveConst(t, live, "PROJECT_API_KEY"))
	assert.Equal(t, "https://new.acme.example", liveConst(t, live, "ALLOWED_ORIGIN"))

	_, err = h.mgr.VerifyKey(ctx, res.ProjectID, rot.PlaintextKey)
	assert.NoError(t, err)
}

func TestSetActive_DeployFailureRollsBack(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	res := h.provision(t, "demo", "*")

	h.deployer.SetDeployErrorFor(artifact.VariantDisabled, errors.New("quota exceeded"))
	_, err := h.mgr.SetActive(ctx, res.ProjectID, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstream)

	assert.True(t, h.store.projects[res.ProjectID].Working)
	assert.Equal(t, artifact.VariantEnabled, h.deployer.Live(res.Slug).Variant)

	runs, _ := memRuns{h.store}.ListByProject(ctx, res.ProjectID, 10)
	require.NotEmpty(t, runs)
	assert.Equal(t, constants.RunStateRolledBack, runs[0].State)
}

func TestSetActive_RollbackFailureIsConsistencyWarning(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	res := h.provision(t, "demo", "*")

	h.deployer.SetDeployErrorFor(artifact.VariantDisabled, errors.New("edge host 503"))
	h.store.updateErrs = []error{nil, errors.New("db gone")}

	_, err := h.mgr.SetActive(ctx, res.ProjectID, false)
	assert.ErrorIs(t, err, ErrConsistency)
	assert.Equal(t, StepRollback, FailedStep(err))
	assert.False(t, h.store.projects[res.ProjectID].Working)

	// 巡检按数据库状态补偿
	h.deployer.SetDeployError(nil)
	_, err = h.mgr.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, artifact.VariantDisabled, h.deployer.Live(res.Slug).Variant)
}

func TestUpdateOrigin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	res := h.provision(t, "demo", "*")

	_, err := h.mgr.UpdateOrigin(ctx, res.ProjectID, "javascript:alert(1)")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = h.mgr.UpdateOrigin(ctx, res.ProjectID, "https://shop.example/")
	require.NoError(t, err)
	assert.Equal(t, "https://shop.example", h.store.projects[res.ProjectID].OriginURL)
	assert.Equal(t, "https://shop.example", liveConst(t, h.deployer.Live(res.Slug), "ALLOWED_ORIGIN"))

	h.deployer.SetDeployError(errors.New("edge host 500"))
	_, err = h.mgr.UpdateOrigin(ctx, res.ProjectID, "https://other.example")
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Equal(t, "https://shop.example", h.store.projects[res.ProjectID].OriginURL, "rolled back")
}

func TestUpdateAssistant(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	res := h.provision(t, "demo", "*")

	bad := "gpt-unknown"
	_, err := h.mgr.UpdateAssistant(ctx, res.ProjectID, AssistantUpdate{Model: &bad})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = h.mgr.UpdateAssistant(ctx, res.ProjectID, AssistantUpdate{})
	assert.ErrorIs(t, err, ErrValidation)

	good := "gpt-4.1-mini"
	instr := "be brief"
	updated, err := h.mgr.UpdateAssistant(ctx, res.ProjectID, AssistantUpdate{Model: &good, Instructions: &instr})
	require.NoError(t, err)
	assert.Equal(t, good, updated.Model)
	assert.Equal(t, good, h.store.resources[res.ProjectID].Model)
	assert.Equal(t, instr, h.ai.assistants[res.Resources.AssistantID].Instructions)

	h.ai.updateAssistErr = errors.New("503")
	_, err = h.mgr.UpdateAssistant(ctx, res.ProjectID, AssistantUpdate{Instructions: &instr})
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestDelete_BestEffort(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	res := h.provision(t, "demo", "*")
	h.ai.deleteAssistErr = errors.New("assistant api down")

	report, err := h.mgr.Delete(ctx, res.ProjectID)
	require.NoError(t, err)
	assert.False(t, report.Complete())
	assert.True(t, report.ArtifactDeleted)
	assert.False(t, report.AssistantDeleted)
	assert.True(t, report.VectorStoreDeleted)
	assert.Len(t, report.Errors, 1)

	assert.Nil(t, h.deployer.Live(res.Slug))
	assert.Empty(t, h.store.projects)
	assert.Empty(t, h.store.keys)
	assert.Equal(t, constants.RunStateTornDown, h.run(t, report.RunID).State)

	_, err = h.mgr.Delete(ctx, res.ProjectID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReconcile_AbandonsDeletedProjectAndExhaustedRuns(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.deployer.SetDeployError(errors.New("down"))
	gone, _ := h.mgr.Provision(ctx, ProvisionRequest{OwnerID: 1, Name: "gone", OriginURL: "*"})
	stuck, _ := h.mgr.Provision(ctx, ProvisionRequest{OwnerID: 1, Name: "stuck", OriginURL: "*"})

	_, err := h.mgr.Delete(ctx, gone.ProjectID)
	require.NoError(t, err)

	report, err := h.mgr.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Scanned)
	assert.Equal(t, 1, report.Abandoned)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, constants.RunStateAbandoned, h.run(t, gone.RunID).State)

	for i := 0; i < 2; i++ {
		_, err = h.mgr.Reconcile(ctx)
		require.NoError(t, err)
	}
	r := h.run(t, stuck.RunID)
	assert.Equal(t, constants.RunStateAbandoned, r.State)
	assert.Equal(t, 3, r.Attempts)
}

func TestGenerateSlug(t *testing.T) {
	re := regexp.MustCompile(`^subleet-[a-z0-9-]+-[0-9a-z]+-[0-9a-z]{6}$`)

	s := GenerateSlug("subleet", "Mon Projet Été!")
	assert.Regexp(t, re, s)
	assert.True(t, strings.HasPrefix(s, "subleet-mon-projet-t-"))

	assert.True(t, strings.HasPrefix(GenerateSlug("subleet", "***"), "subleet-project-"))
	assert.NotEqual(t, GenerateSlug("subleet", "a"), GenerateSlug("subleet", "a"))

	long := GenerateSlug("subleet", strings.Repeat("abc-", 30))
	parts := strings.Split(strings.TrimPrefix(long, "subleet-"), "-")
	assert.LessOrEqual(t, len(strings.Join(parts[:len(parts)-2], "-")), slugNameMaxLen)
}

func TestProjectLocks(t *testing.T) {
	l := newProjectLocks()
	unlock := l.Lock(1)

	acquired := make(chan struct{})
	done := make(chan struct{})
	go func() {
		u := l.Lock(1)
		close(acquired)
		u()
		close(done)
	}()

	select {
	case <-acquired:
		t.Fatal("second lock acquired while first is held")
	case <-time.After(20 * time.Millisecond):
	}

	// 其他项目不受影响
	l.Lock(2)()

	unlock()
	<-done
	l.mu.Lock()
	defer l.mu.Unlock()
	assert.Empty(t, l.locks)
}
