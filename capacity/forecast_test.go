package capacity_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/airsocial/mission-control/capacity"
)

func TestForecast_ItemActiveInMiddleMonthOnly(t *testing.T) {
	// GIVEN: a 3-month forecast from January for a project only in February
	items := []capacity.LineItem{
		oneOff("li-1", "client-a", "seo", 2800,
			datePtr(2024, time.February, 1), datePtr(2024, time.February, 29)),
	}

	points := capacity.Forecast(items, jan2024(), 3,
		capacity.GroupByService, capacity.Targets{}, capacity.ModeAmounts, nil)

	if len(points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(points))
	}

	// THEN: January and March report 0, February the full value
	if !points[0].Total.IsZero() {
		t.Errorf("January total: got %s, want 0", points[0].Total)
	}
	if !points[1].Total.Equal(decimal.NewFromInt(2800)) {
		t.Errorf("February total: got %s, want 2800", points[1].Total)
	}
	if !points[2].Total.IsZero() {
		t.Errorf("March total: got %s, want 0", points[2].Total)
	}
}

func TestForecast_MonthSequenceNormalized(t *testing.T) {
	// GIVEN: a start date in the middle of a month
	points := capacity.Forecast(nil, capacity.NewDate(2024, time.November, 17), 4,
		capacity.GroupByService, capacity.Targets{}, capacity.ModeAmounts, nil)

	want := []capacity.Date{
		capacity.NewDate(2024, time.November, 1),
		capacity.NewDate(2024, time.December, 1),
		capacity.NewDate(2025, time.January, 1),
		capacity.NewDate(2025, time.February, 1),
	}
	for i, p := range points {
		if !p.Month.Equal(want[i]) {
			t.Errorf("point %d: got %s, want %s", i, p.Month, want[i])
		}
	}
}

func TestForecast_PercentModeUsesOverallTarget(t *testing.T) {
	// GIVEN: a member-scoped forecast with a single effective target of
	// 2000 and two service groups billing 1000 and 500
	items := []capacity.LineItem{
		recurring("li-1", "client-a", "seo", 1000),
		recurring("li-2", "client-b", "content", 500),
	}
	targets := capacity.Targets{capacity.TeamTotalKey: decimal.NewFromInt(2000)}

	points := capacity.Forecast(items, jan2024(), 1,
		capacity.GroupByService, targets, capacity.ModePercent, nil)

	p := points[0]

	// THEN: total is 75%, breakdown entries are 50% and 25% of the SAME
	// overall target, so the bars sum to the total bar.
	if !p.Total.Equal(decimal.NewFromInt(75)) {
		t.Errorf("total percent: got %s, want 75", p.Total)
	}
	if !p.Breakdown[0].Value.Equal(decimal.NewFromInt(50)) {
		t.Errorf("seo percent: got %s, want 50", p.Breakdown[0].Value)
	}
	if !p.Breakdown[1].Value.Equal(decimal.NewFromInt(25)) {
		t.Errorf("content percent: got %s, want 25", p.Breakdown[1].Value)
	}

	sum := decimal.Zero
	for _, b := range p.Breakdown {
		sum = sum.Add(b.Value)
	}
	if !sum.Equal(p.Total) {
		t.Errorf("breakdown sums to %s, total is %s", sum, p.Total)
	}
}

func TestForecast_PercentModeZeroTarget(t *testing.T) {
	items := []capacity.LineItem{
		recurring("li-1", "client-a", "seo", 1000),
	}

	points := capacity.Forecast(items, jan2024(), 1,
		capacity.GroupByService, capacity.Targets{}, capacity.ModePercent, nil)

	if !points[0].Total.IsZero() {
		t.Errorf("no target must yield 0 percent, got %s", points[0].Total)
	}
	for _, b := range points[0].Breakdown {
		if !b.Value.IsZero() {
			t.Errorf("breakdown %q: got %s, want 0", b.Key, b.Value)
		}
	}
}

func TestForecast_AmountModeBreakdownMatchesGroups(t *testing.T) {
	items := []capacity.LineItem{
		recurring("li-1", "client-a", "seo", 900),
		recurring("li-2", "client-b", "content", 300),
	}

	points := capacity.Forecast(items, jan2024(), 1,
		capacity.GroupByService, capacity.Targets{}, capacity.ModeAmounts, nil)

	p := points[0]
	if len(p.Breakdown) != len(p.Capacity.Groups) {
		t.Fatalf("breakdown/groups length mismatch: %d vs %d",
			len(p.Breakdown), len(p.Capacity.Groups))
	}
	for i, g := range p.Capacity.Groups {
		if p.Breakdown[i].Key != g.Key || !p.Breakdown[i].Value.Equal(g.Actual) {
			t.Errorf("breakdown %d: got %s=%s, want %s=%s",
				i, p.Breakdown[i].Key, p.Breakdown[i].Value, g.Key, g.Actual)
		}
	}
}

func TestForecast_RestartableAndSideEffectFree(t *testing.T) {
	items := []capacity.LineItem{
		recurring("li-1", "client-a", "seo", 1000),
		oneOff("li-2", "client-b", "content", 3000,
			datePtr(2024, time.January, 16), datePtr(2024, time.February, 14)),
	}
	targets := capacity.Targets{"seo": decimal.NewFromInt(1000)}

	itemsBefore := make([]capacity.LineItem, len(items))
	copy(itemsBefore, items)

	agg := capacity.NewAggregator("account-management")
	first := capacity.Forecast(items, jan2024(), 6, capacity.GroupByService, targets, capacity.ModeAmounts, agg)
	second := capacity.Forecast(items, jan2024(), 6, capacity.GroupByService, targets, capacity.ModeAmounts, agg)

	if !reflect.DeepEqual(first, second) {
		t.Error("identical calls produced different output")
	}
	if !reflect.DeepEqual(items, itemsBefore) {
		t.Error("forecast mutated the items slice")
	}
}

func TestForecast_NonPositiveMonthCount(t *testing.T) {
	for _, n := range []int{0, -3} {
		points := capacity.Forecast(nil, jan2024(), n,
			capacity.GroupByService, capacity.Targets{}, capacity.ModeAmounts, nil)
		if len(points) != 0 {
			t.Errorf("monthCount=%d: expected empty series, got %d points", n, len(points))
		}
	}
}
