package ruleengine

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orchestrix/telemetry-core/internal/core/domain"
	"github.com/orchestrix/telemetry-core/internal/core/port"
)

type fakeTenants struct{ tenant *domain.Tenant }

func (f *fakeTenants) FindBySlug(_ context.Context, slug string) (*domain.Tenant, error) {
	return f.tenant, nil
}
func (f *fakeTenants) FindByID(_ context.Context, id int64) (*domain.Tenant, error) {
	return f.tenant, nil
}

type fakeRules struct{ rules []*domain.Rule }

func (f *fakeRules) ListApplicable(_ context.Context, tenantID, deviceID int64) ([]*domain.Rule, error) {
	return f.rules, nil
}
func (f *fakeRules) FindByID(_ context.Context, id int64) (*domain.Rule, error) {
	for _, r := range f.rules {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, domain.ErrRuleNotFound
}

type fakeCooldowns struct {
	mu   sync.Mutex
	rows map[[2]int64]*domain.Cooldown
}

func newFakeCooldowns() *fakeCooldowns {
	return &fakeCooldowns{rows: map[[2]int64]*domain.Cooldown{}}
}

func (f *fakeCooldowns) Find(_ context.Context, ruleID, deviceID int64) (*domain.Cooldown, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[[2]int64{ruleID, deviceID}], nil
}

func (f *fakeCooldowns) Upsert(_ context.Context, ruleID, deviceID int64, triggeredAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[[2]int64{ruleID, deviceID}] = &domain.Cooldown{RuleID: ruleID, DeviceID: deviceID, LastTriggered: triggeredAt}
	return nil
}

type fakeAlerts struct {
	mu     sync.Mutex
	nextID int64
	alerts []*domain.Alert
}

func (f *fakeAlerts) Create(_ context.Context, alert *domain.Alert) (*domain.Alert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	alert.ID = f.nextID
	f.alerts = append(f.alerts, alert)
	return alert, nil
}
func (f *fakeAlerts) FindByID(_ context.Context, id int64) (*domain.Alert, error) {
	for _, a := range f.alerts {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, domain.ErrAlertNotFound
}
func (f *fakeAlerts) MarkNotificationSent(_ context.Context, id int64) error { return nil }

type fakeJobs struct {
	mu    sync.Mutex
	tasks []port.NotifyTask
}

func (f *fakeJobs) EnqueueRuleEval(_ context.Context, task port.RuleEvalTask) error { return nil }
func (f *fakeJobs) EnqueueNotify(_ context.Context, task port.NotifyTask) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, task)
	return nil
}
func (f *fakeJobs) EnqueueAnalytics(_ context.Context, tenantID, jobID int64, params map[string]any) error {
	return nil
}
func (f *fakeJobs) EnqueueReport(_ context.Context, tenantID, jobID int64, params map[string]any) error {
	return nil
}

func voltageRule(id int64, cooldownMinutes int) *domain.Rule {
	return &domain.Rule{
		ID:              id,
		TenantID:        1,
		Name:            "High Voltage",
		Scope:           domain.RuleScopeDevice,
		CooldownMinutes: cooldownMinutes,
		Active:          true,
		ScheduleType:    domain.ScheduleAlways,
		Severity:        domain.SeverityHigh,
		Condition: domain.Condition{
			Operator: "AND",
			Conditions: []domain.Condition{
				{Parameter: "voltage", Operator: "gt", Value: 100},
			},
		},
	}
}

func TestRuleEngine_CooldownSuppressesSecondFire(t *testing.T) {
	tenants := &fakeTenants{tenant: &domain.Tenant{ID: 1, Timezone: "UTC"}}
	rules := &fakeRules{rules: []*domain.Rule{voltageRule(1, 5)}}
	cooldowns := newFakeCooldowns()
	alerts := &fakeAlerts{}
	jobs := &fakeJobs{}
	task := New(tenants, rules, cooldowns, alerts, jobs)

	t0 := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	err := task.Run(context.Background(), port.RuleEvalTask{
		TenantID: 1, DeviceID: 10, Metrics: map[string]float64{"voltage": 245.5}, Timestamp: t0,
	})
	require.NoError(t, err)
	assert.Len(t, alerts.alerts, 1)
	assert.Len(t, jobs.tasks, 1)

	row, _ := cooldowns.Find(context.Background(), 1, 10)
	require.NotNil(t, row)
	assert.Equal(t, t0, row.LastTriggered)

	t1 := t0.Add(30 * time.Second)
	err = task.Run(context.Background(), port.RuleEvalTask{
		TenantID: 1, DeviceID: 10, Metrics: map[string]float64{"voltage": 245.5}, Timestamp: t1,
	})
	require.NoError(t, err)
	assert.Len(t, alerts.alerts, 1, "second fire within cooldown must not materialize a new alert")
	assert.Len(t, jobs.tasks, 1)
}

func TestRuleEngine_NestedCondition(t *testing.T) {
	rule := &domain.Rule{
		ID:           1,
		TenantID:     1,
		Name:         "Nested",
		Scope:        domain.RuleScopeGlobal,
		Active:       true,
		ScheduleType: domain.ScheduleAlways,
		Severity:     domain.SeverityMedium,
		Condition: domain.Condition{
			Operator: "AND",
			Conditions: []domain.Condition{
				{Parameter: "temp", Operator: "gt", Value: 50},
				{
					Operator: "OR",
					Conditions: []domain.Condition{
						{Parameter: "pressure", Operator: "lt", Value: 50},
						{Parameter: "humidity", Operator: "gt", Value: 80},
					},
				},
			},
		},
	}

	tenants := &fakeTenants{tenant: &domain.Tenant{ID: 1}}
	cases := []struct {
		name    string
		metrics map[string]float64
		want    int
	}{
		{"matches", map[string]float64{"temp": 60, "pressure": 100, "humidity": 90}, 1},
		{"no_match", map[string]float64{"temp": 60, "pressure": 100, "humidity": 70}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rules := &fakeRules{rules: []*domain.Rule{rule}}
			cooldowns := newFakeCooldowns()
			alerts := &fakeAlerts{}
			jobs := &fakeJobs{}
			task := New(tenants, rules, cooldowns, alerts, jobs)

			err := task.Run(context.Background(), port.RuleEvalTask{
				TenantID: 1, DeviceID: 10, Metrics: tc.metrics, Timestamp: time.Now(),
			})
			require.NoError(t, err)
			assert.Len(t, alerts.alerts, tc.want)
		})
	}
}

// badCooldowns fails Find for a specific rule ID, simulating a
// per-rule fault so the isolation guarantee can be exercised without
// reaching into the pure evaluator (which never errors, per its
// totality invariant).
type badCooldowns struct {
	failRuleID int64
}

func (b *badCooldowns) Find(_ context.Context, ruleID, deviceID int64) (*domain.Cooldown, error) {
	if ruleID == b.failRuleID {
		return nil, assertErr{"boom"}
	}
	return nil, nil
}
func (b *badCooldowns) Upsert(_ context.Context, ruleID, deviceID int64, triggeredAt time.Time) error {
	return nil
}

type assertErr struct{ msg string }

func (e assertErr) Error() string { return e.msg }

func TestRuleEngine_OneBadRuleDoesNotStarveOthers(t *testing.T) {
	r1 := voltageRule(1, 0)
	r1.Name = "R1"
	r2 := voltageRule(2, 0)
	r2.Name = "R2"

	tenants := &fakeTenants{tenant: &domain.Tenant{ID: 1}}
	rules := &fakeRules{rules: []*domain.Rule{r1, r2}}
	cooldowns := &badCooldowns{failRuleID: 2}
	alerts := &fakeAlerts{}
	jobs := &fakeJobs{}
	task := New(tenants, rules, cooldowns, alerts, jobs)

	err := task.Run(context.Background(), port.RuleEvalTask{
		TenantID: 1, DeviceID: 10, Metrics: map[string]float64{"voltage": 245.5}, Timestamp: time.Now(),
	})
	require.NoError(t, err)
	require.Len(t, alerts.alerts, 1)
	assert.Equal(t, int64(1), alerts.alerts[0].RuleID)
}

func TestRuleEngine_ScheduleGateTimeWindow(t *testing.T) {
	cfg := domain.TimeWindowSchedule{Days: []int{1, 2, 3, 4, 5}, StartTime: "09:00", EndTime: "17:00"}
	raw, err := json.Marshal(cfg)
	require.NoError(t, err)
	rule := voltageRule(1, 0)
	rule.ScheduleType = domain.ScheduleTimeWindow
	rule.ScheduleConfig = raw

	monday10am := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC) // a Monday
	monday8pm := time.Date(2024, 1, 15, 20, 0, 0, 0, time.UTC)

	assert.True(t, scheduled(rule, monday10am, time.UTC))
	assert.False(t, scheduled(rule, monday8pm, time.UTC))
}

func TestRuleEngine_ScheduleGateFailsOpenOnBadConfig(t *testing.T) {
	rule := voltageRule(1, 0)
	rule.ScheduleType = domain.ScheduleTimeWindow
	rule.ScheduleConfig = []byte(`not json`)
	assert.True(t, scheduled(rule, time.Now(), time.UTC))
}
