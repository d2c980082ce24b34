package planner_test

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/airsocial/mission-control/capacity"
	"github.com/airsocial/mission-control/planner"
	"github.com/airsocial/mission-control/planner/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func jan2024() capacity.Date { return capacity.NewDate(2024, time.January, 1) }

func seedStore(t *testing.T) *store.Memory {
	t.Helper()
	ctx := context.Background()
	m := store.NewMemory()

	require.NoError(t, m.SaveClient(ctx, planner.Client{ID: "client-a", Name: "Acme", TeamID: "team-north"}))
	require.NoError(t, m.SaveClient(ctx, planner.Client{ID: "client-b", Name: "Bolt", TeamID: "team-north"}))
	require.NoError(t, m.SaveClient(ctx, planner.Client{ID: "client-c", Name: "Core", TeamID: "team-south"}))

	items := []capacity.LineItem{
		{ID: "li-1", ClientID: "client-a", Service: "seo", BillingType: capacity.BillingRecurring,
			MonthlyValue: decimal.NewFromInt(1000), IsActive: true, AssigneeID: "member-1"},
		{ID: "li-2", ClientID: "client-b", Service: "content", BillingType: capacity.BillingRecurring,
			MonthlyValue: decimal.NewFromInt(500), IsActive: true, AssigneeID: "member-2"},
		{ID: "li-3", ClientID: "client-c", Service: "seo", BillingType: capacity.BillingRecurring,
			MonthlyValue: decimal.NewFromInt(250), IsActive: true},
	}
	for _, item := range items {
		require.NoError(t, m.SaveLineItem(ctx, item))
	}

	require.NoError(t, m.SetTarget(ctx, "seo", decimal.NewFromInt(2000)))
	require.NoError(t, m.SetTarget(ctx, "content", decimal.NewFromInt(1000)))
	return m
}

// =============================================================================
// CAPACITY QUERIES
// =============================================================================

func TestPlanner_Capacity_ServiceGrouping(t *testing.T) {
	p := planner.New(seedStore(t))

	result, err := p.Capacity(context.Background(), jan2024(), planner.GroupByService)
	require.NoError(t, err)

	require.Len(t, result.Groups, 2)
	require.Equal(t, "seo", result.Groups[0].Key)
	require.True(t, result.Groups[0].Actual.Equal(decimal.NewFromInt(1250)))
	require.True(t, result.Groups[0].Target.Equal(decimal.NewFromInt(2000)))

	// Overall target is the sum of per-service targets, counted once.
	require.True(t, result.TotalTarget.Equal(decimal.NewFromInt(3000)),
		"total target %s, want 3000", result.TotalTarget)
}

func TestPlanner_Capacity_TeamGrouping(t *testing.T) {
	p := planner.New(seedStore(t))

	result, err := p.Capacity(context.Background(), jan2024(), planner.GroupByTeam)
	require.NoError(t, err)

	byKey := map[string]decimal.Decimal{}
	for _, g := range result.Groups {
		byKey[g.Key] = g.Actual
	}
	require.True(t, byKey["team-north"].Equal(decimal.NewFromInt(1500)))
	require.True(t, byKey["team-south"].Equal(decimal.NewFromInt(250)))

	// Team grouping scores against the derived team total, not the sum of
	// service targets double-counted.
	require.True(t, result.TotalTarget.Equal(decimal.NewFromInt(3000)))
}

func TestPlanner_Capacity_UnknownGrouping(t *testing.T) {
	p := planner.New(seedStore(t))

	_, err := p.Capacity(context.Background(), jan2024(), planner.GroupingMode("clients"))
	require.ErrorIs(t, err, planner.ErrUnknownGrouping)
}

func TestPlanner_Capacity_ExcludedService(t *testing.T) {
	ctx := context.Background()
	m := seedStore(t)
	require.NoError(t, m.SaveLineItem(ctx, capacity.LineItem{
		ID: "li-am", ClientID: "client-a", Service: "account-management",
		BillingType: capacity.BillingRecurring, MonthlyValue: decimal.NewFromInt(900), IsActive: true,
	}))

	p := planner.New(m, "account-management")
	result, err := p.Capacity(ctx, jan2024(), planner.GroupByService)
	require.NoError(t, err)

	for _, g := range result.Groups {
		require.NotEqual(t, "account-management", g.Key)
	}
	require.True(t, result.TotalActual.Equal(decimal.NewFromInt(1750)))
}

// =============================================================================
// FORECAST QUERIES
// =============================================================================

func TestPlanner_Forecast_MemberScopedPercent(t *testing.T) {
	p := planner.New(seedStore(t))

	points, err := p.Forecast(context.Background(), planner.ForecastQuery{
		Grouping:   planner.GroupByService,
		Start:      jan2024(),
		MonthCount: 2,
		Mode:       capacity.ModePercent,
		MemberID:   "member-1",
	})
	require.NoError(t, err)
	require.Len(t, points, 2)

	// member-1 bills 1000 against the derived team total of 3000.
	want := decimal.NewFromInt(1000).Div(decimal.NewFromInt(3000)).Mul(decimal.NewFromInt(100))
	require.True(t, points[0].Total.Equal(want), "got %s, want %s", points[0].Total, want)

	// Breakdown divides by the same single target, so it sums to the total.
	sum := decimal.Zero
	for _, b := range points[0].Breakdown {
		sum = sum.Add(b.Value)
	}
	require.True(t, sum.Equal(points[0].Total))
}

func TestPlanner_Forecast_TeamScopeFiltersClients(t *testing.T) {
	p := planner.New(seedStore(t))

	points, err := p.Forecast(context.Background(), planner.ForecastQuery{
		Grouping:   planner.GroupByService,
		Start:      jan2024(),
		MonthCount: 1,
		Mode:       capacity.ModeAmounts,
		TeamID:     "team-south",
	})
	require.NoError(t, err)

	// Only client-c belongs to team-south.
	require.True(t, points[0].Total.Equal(decimal.NewFromInt(250)),
		"got %s, want 250", points[0].Total)
}

func TestPlanner_Forecast_CachedUntilInvalidated(t *testing.T) {
	ctx := context.Background()
	m := seedStore(t)
	p := planner.New(m)

	query := planner.ForecastQuery{
		Grouping:   planner.GroupByService,
		Start:      jan2024(),
		MonthCount: 3,
		Mode:       capacity.ModeAmounts,
	}

	first, err := p.Forecast(ctx, query)
	require.NoError(t, err)

	// A write the planner has not been told about is invisible...
	require.NoError(t, m.SaveLineItem(ctx, capacity.LineItem{
		ID: "li-new", ClientID: "client-a", Service: "seo",
		BillingType: capacity.BillingRecurring, MonthlyValue: decimal.NewFromInt(400), IsActive: true,
	}))
	cached, err := p.Forecast(ctx, query)
	require.NoError(t, err)
	require.True(t, reflect.DeepEqual(first, cached), "expected memoized result")

	// ...until the cache is invalidated.
	p.Invalidate()
	fresh, err := p.Forecast(ctx, query)
	require.NoError(t, err)
	require.True(t, fresh[0].Total.Equal(decimal.NewFromInt(2150)),
		"got %s, want 2150 after invalidation", fresh[0].Total)
}

func TestPlanner_Forecast_ExplicitTeamTotalWins(t *testing.T) {
	ctx := context.Background()
	m := seedStore(t)
	require.NoError(t, m.SetTarget(ctx, capacity.TeamTotalKey, decimal.NewFromInt(5000)))

	p := planner.New(m)
	points, err := p.Forecast(ctx, planner.ForecastQuery{
		Grouping:   planner.GroupByMember,
		Start:      jan2024(),
		MonthCount: 1,
		Mode:       capacity.ModePercent,
	})
	require.NoError(t, err)

	// 1750 billed against the explicit 5000, not the derived 3000.
	want := decimal.NewFromInt(1750).Div(decimal.NewFromInt(5000)).Mul(decimal.NewFromInt(100))
	require.True(t, points[0].Total.Equal(want), "got %s, want %s", points[0].Total, want)
}
