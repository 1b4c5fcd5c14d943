package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAnalyticsFilter(t *testing.T) {
	now := time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		month, year string
		want        AnalyticsFilter
		wantErr     bool
	}{
		{"不筛选", "", "", AnalyticsFilter{}, false},
		{"只给年份", "", "2023", AnalyticsFilter{Year: 2023}, false},
		{"只给月份按今年", "3", "", AnalyticsFilter{Month: 3, Year: 2024}, false},
		{"往年任意月份", "12", "2023", AnalyticsFilter{Month: 12, Year: 2023}, false},
		{"本月", "6", "2024", AnalyticsFilter{Month: 6, Year: 2024}, false},
		{"未来月份", "7", "2024", AnalyticsFilter{}, true},
		{"未来年份", "", "2025", AnalyticsFilter{}, true},
		{"年份过早", "", "1999", AnalyticsFilter{}, true},
		{"月份越界", "13", "", AnalyticsFilter{}, true},
		{"月份为零", "0", "", AnalyticsFilter{}, true},
		{"非数字", "abc", "", AnalyticsFilter{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAnalyticsFilter(tt.month, tt.year, now)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAnalyticsFilterRange(t *testing.T) {
	start, end, ok := AnalyticsFilter{Month: 12, Year: 2023}.Range(time.UTC)
	require.True(t, ok)
	assert.Equal(t, time.Date(2023, time.December, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), end)

	start, end, ok = AnalyticsFilter{Year: 2023}.Range(time.UTC)
	require.True(t, ok)
	assert.Equal(t, time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), end)

	_, _, ok = AnalyticsFilter{}.Range(time.UTC)
	assert.False(t, ok)
}

// memoryCache 记录缓存命中与失效
type memoryCache struct {
	data        map[string]*ProjectAnalytics
	invalidated int
}

func (c *memoryCache) key(projectID uuid.UUID, f AnalyticsFilter) string {
	return fmt.Sprintf("%s/%s", projectID, analyticsField(f))
}

func (c *memoryCache) Get(_ context.Context, projectID uuid.UUID, f AnalyticsFilter) (*ProjectAnalytics, bool) {
	v, ok := c.data[c.key(projectID, f)]
	return v, ok
}

func (c *memoryCache) Set(_ context.Context, projectID uuid.UUID, f AnalyticsFilter, v *ProjectAnalytics) {
	c.data[c.key(projectID, f)] = v
}

func (c *memoryCache) Invalidate(context.Context, uuid.UUID) {
	c.invalidated++
	c.data = map[string]*ProjectAnalytics{}
}

func TestGetProjectAnalytics(t *testing.T) {
	env := newTestEnv(t)
	fx := env.fixture(t, 0, 0)
	cache := &memoryCache{data: map[string]*ProjectAnalytics{}}
	env.ledger.SetCache(cache)
	bob := env.user(t, "bob")
	env.member(t, fx.project, bob, 0)
	travel := env.category(t, fx.project, "travel")

	_, err := env.ledger.CreateBudgetRecord(env.ctx, BudgetRecordInput{
		ProjectID: fx.project.ID, ActorID: fx.manager.ID, Amount: 2000, IsIncome: true,
	})
	require.NoError(t, err)
	for _, u := range []uuid.UUID{fx.alice.ID, bob.ID} {
		_, err = env.ledger.SendFunds(env.ctx, FundsInput{ProjectID: fx.project.ID, MemberID: u, ActorID: fx.manager.ID, Funds: 500})
		require.NoError(t, err)
	}

	spend := func(actor, category uuid.UUID, amount int64) {
		_, err := env.ledger.CreateTransaction(env.ctx, TransactionInput{
			ProjectID: fx.project.ID, ActorID: actor, CategoryID: category, Amount: amount,
		})
		require.NoError(t, err)
	}
	spend(fx.alice.ID, fx.category.ID, 100)
	spend(fx.alice.ID, travel.ID, 300)
	spend(bob.ID, fx.category.ID, 50)

	got, err := env.ledger.GetProjectAnalytics(env.ctx, fx.project.ID, fx.manager.ID, AnalyticsFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2000), got.TotalEarnings)
	assert.Equal(t, int64(450), got.TotalSpendings)
	assert.Equal(t, []CategorySpending{{Name: "travel", TotalSpendings: 300}, {Name: "food", TotalSpendings: 150}}, got.TopCategories)
	assert.Equal(t, []MemberSpending{{Username: "alice", TotalAmount: 400}, {Username: "bob", TotalAmount: 50}}, got.TopMembers)

	// 第二次读取命中缓存
	cached, err := env.ledger.GetProjectAnalytics(env.ctx, fx.project.ID, fx.manager.ID, AnalyticsFilter{})
	require.NoError(t, err)
	assert.Same(t, got, cached)

	// 资金变动后缓存失效
	before := cache.invalidated
	spend(bob.ID, travel.ID, 1)
	assert.Greater(t, cache.invalidated, before)
	fresh, err := env.ledger.GetProjectAnalytics(env.ctx, fx.project.ID, fx.manager.ID, AnalyticsFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(451), fresh.TotalSpendings)

	// 往年没有数据
	old, err := env.ledger.GetProjectAnalytics(env.ctx, fx.project.ID, fx.manager.ID, AnalyticsFilter{Year: 2001})
	require.NoError(t, err)
	assert.Zero(t, old.TotalEarnings)
	assert.Zero(t, old.TotalSpendings)
	assert.Empty(t, old.TopCategories)

	_, err = env.ledger.GetProjectAnalytics(env.ctx, fx.project.ID, fx.alice.ID, AnalyticsFilter{})
	assert.ErrorIs(t, err, ErrPermission)
}

func TestAnalyticsCacheKeys(t *testing.T) {
	id := uuid.MustParse("7f1c6c1e-8d52-4f8e-9c55-0a7c2d6e9b11")
	assert.Equal(t, "walet:analytics:7f1c6c1e-8d52-4f8e-9c55-0a7c2d6e9b11", analyticsKey(id))
	assert.Equal(t, "0-0", analyticsField(AnalyticsFilter{}))
	assert.Equal(t, "2024-3", analyticsField(AnalyticsFilter{Month: 3, Year: 2024}))
}
