package capacity_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/airsocial/mission-control/capacity"
)

func jan2024() capacity.Date { return capacity.NewDate(2024, time.January, 1) }

func TestAggregate_TargetsAndPercentages(t *testing.T) {
	// GIVEN: one group at 125% of target, one group with no target entry
	items := []capacity.LineItem{
		recurring("li-1", "client-a", "seo", 1250),
		recurring("li-2", "client-b", "paid-advertising", 400),
	}
	targets := capacity.Targets{"seo": decimal.NewFromInt(1000)}

	agg := capacity.NewAggregator()
	result := agg.Aggregate(items, jan2024(), capacity.GroupByService, targets)

	if len(result.Groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(result.Groups))
	}

	seo := result.Groups[0]
	if seo.Key != "seo" {
		t.Fatalf("expected seo first (largest actual), got %q", seo.Key)
	}
	if !seo.Percent.Equal(decimal.NewFromInt(125)) {
		t.Errorf("seo percent: got %s, want 125", seo.Percent)
	}

	ads := result.Groups[1]
	if !ads.Percent.IsZero() {
		t.Errorf("missing target must report 0 percent, got %s", ads.Percent)
	}

	// The untargeted group's actual still counts toward the overall total.
	if !result.TotalActual.Equal(decimal.NewFromInt(1650)) {
		t.Errorf("total actual: got %s, want 1650", result.TotalActual)
	}
}

func TestAggregate_OverallTargetIncludesUnbilledKeys(t *testing.T) {
	// GIVEN: a target for a service with no billing this month
	items := []capacity.LineItem{
		recurring("li-1", "client-a", "seo", 500),
	}
	targets := capacity.Targets{
		"seo":     decimal.NewFromInt(1000),
		"content": decimal.NewFromInt(2000), // nothing billed
	}

	result := capacity.NewAggregator().Aggregate(items, jan2024(), capacity.GroupByService, targets)

	if !result.TotalTarget.Equal(decimal.NewFromInt(3000)) {
		t.Errorf("total target: got %s, want 3000 (unbilled targets count)", result.TotalTarget)
	}
	// 500 / 3000 * 100
	want := decimal.NewFromInt(500).Div(decimal.NewFromInt(3000)).Mul(decimal.NewFromInt(100))
	if !result.TotalPercent.Equal(want) {
		t.Errorf("total percent: got %s, want %s", result.TotalPercent, want)
	}
}

func TestAggregate_ZeroTargetNeverNaN(t *testing.T) {
	items := []capacity.LineItem{
		recurring("li-1", "client-a", "seo", 1000),
	}
	targets := capacity.Targets{"seo": decimal.Zero}

	result := capacity.NewAggregator().Aggregate(items, jan2024(), capacity.GroupByService, targets)

	if !result.Groups[0].Percent.IsZero() {
		t.Errorf("zero target must yield 0 percent, got %s", result.Groups[0].Percent)
	}
	if !result.TotalPercent.IsZero() {
		t.Errorf("zero total target must yield 0 percent, got %s", result.TotalPercent)
	}
}

func TestAggregate_EmptyMonth(t *testing.T) {
	// GIVEN: a one-off project entirely outside the queried month
	items := []capacity.LineItem{
		oneOff("li-1", "client-a", "seo", 3000,
			datePtr(2024, time.June, 1), datePtr(2024, time.June, 30)),
	}

	result := capacity.NewAggregator().Aggregate(items, jan2024(), capacity.GroupByService, capacity.Targets{})

	if len(result.Groups) != 0 {
		t.Errorf("expected no groups, got %d", len(result.Groups))
	}
	if !result.TotalActual.IsZero() || !result.TotalTarget.IsZero() || !result.TotalPercent.IsZero() {
		t.Errorf("expected zero totals, got actual=%s target=%s percent=%s",
			result.TotalActual, result.TotalTarget, result.TotalPercent)
	}
}

func TestAggregate_ExcludedServiceSkipped(t *testing.T) {
	items := []capacity.LineItem{
		recurring("li-1", "client-a", "seo", 1000),
		recurring("li-2", "client-a", "account-management", 900),
	}
	targets := capacity.Targets{
		"seo":                decimal.NewFromInt(1000),
		"account-management": decimal.NewFromInt(500),
	}

	agg := capacity.NewAggregator("account-management")
	result := agg.Aggregate(items, jan2024(), capacity.GroupByService, targets)

	if len(result.Groups) != 1 || result.Groups[0].Key != "seo" {
		t.Fatalf("excluded service must not produce a group: %+v", result.Groups)
	}
	if !result.TotalActual.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("total actual: got %s, want 1000", result.TotalActual)
	}
}

func TestAggregate_DistinctClientsSummedAmounts(t *testing.T) {
	// GIVEN: one client with two line items in the same group, plus another client
	items := []capacity.LineItem{
		recurring("li-1", "client-a", "seo", 600),
		recurring("li-2", "client-a", "seo", 400),
		recurring("li-3", "client-b", "seo", 250),
	}

	result := capacity.NewAggregator().Aggregate(items, jan2024(), capacity.GroupByService, capacity.Targets{})

	g := result.Groups[0]
	if !g.Actual.Equal(decimal.NewFromInt(1250)) {
		t.Errorf("actual: got %s, want 1250 (all amounts summed)", g.Actual)
	}
	wantClients := []capacity.ClientID{"client-a", "client-b"}
	if !reflect.DeepEqual(g.Clients, wantClients) {
		t.Errorf("clients: got %v, want %v (distinct, first-seen order)", g.Clients, wantClients)
	}
}

func TestAggregate_ZeroAllocationCreatesNoBucket(t *testing.T) {
	// An item present in the input but allocating zero must not produce a
	// group with an empty contributor list.
	items := []capacity.LineItem{
		oneOff("li-1", "client-a", "web-design", 3000, nil, nil), // missing dates
		recurring("li-2", "client-b", "seo", 500),
	}

	result := capacity.NewAggregator().Aggregate(items, jan2024(), capacity.GroupByService, capacity.Targets{})

	for _, g := range result.Groups {
		if g.Key == "web-design" {
			t.Errorf("zero-allocation item created bucket %+v", g)
		}
	}
}

func TestAggregate_OrderingDescendingWithStableTies(t *testing.T) {
	// GIVEN: ties between paid-advertising and content (both 300)
	items := []capacity.LineItem{
		recurring("li-1", "client-a", "paid-advertising", 300),
		recurring("li-2", "client-b", "seo", 900),
		recurring("li-3", "client-c", "content", 300),
	}

	agg := capacity.NewAggregator()
	first := agg.Aggregate(items, jan2024(), capacity.GroupByService, capacity.Targets{})

	wantOrder := []string{"seo", "paid-advertising", "content"}
	for i, key := range wantOrder {
		if first.Groups[i].Key != key {
			t.Fatalf("position %d: got %q, want %q", i, first.Groups[i].Key, key)
		}
	}

	// Determinism: a second call yields the identical ordering and values.
	second := agg.Aggregate(items, jan2024(), capacity.GroupByService, capacity.Targets{})
	if !reflect.DeepEqual(first, second) {
		t.Error("repeated aggregation produced different results")
	}
}

func TestAggregate_GroupByAssignee(t *testing.T) {
	itemA := recurring("li-1", "client-a", "seo", 700)
	itemA.AssigneeID = "member-1"
	itemB := recurring("li-2", "client-b", "content", 300)
	// itemB has no assignee

	result := capacity.NewAggregator().Aggregate(
		[]capacity.LineItem{itemA, itemB}, jan2024(), capacity.GroupByAssignee, capacity.Targets{})

	if len(result.Groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(result.Groups))
	}
	if result.Groups[0].Key != "member-1" {
		t.Errorf("got %q, want member-1 first", result.Groups[0].Key)
	}
	if result.Groups[1].Key != capacity.UnassignedKey {
		t.Errorf("items without assignee must land under %q, got %q",
			capacity.UnassignedKey, result.Groups[1].Key)
	}
}

func TestAggregate_DoesNotMutateInputs(t *testing.T) {
	items := []capacity.LineItem{
		recurring("li-1", "client-a", "seo", 1000),
		recurring("li-2", "client-b", "content", 500),
	}
	targets := capacity.Targets{"seo": decimal.NewFromInt(1000)}

	itemsBefore := make([]capacity.LineItem, len(items))
	copy(itemsBefore, items)
	targetsBefore := capacity.Targets{"seo": decimal.NewFromInt(1000)}

	capacity.NewAggregator().Aggregate(items, jan2024(), capacity.GroupByService, targets)

	if !reflect.DeepEqual(items, itemsBefore) {
		t.Error("items slice was mutated")
	}
	if len(targets) != len(targetsBefore) || !targets["seo"].Equal(targetsBefore["seo"]) {
		t.Error("targets map was mutated")
	}
}

func TestAggregate_NegativeValueFlowsThrough(t *testing.T) {
	// Business sanity of inputs is not validated; a negative value (a
	// credit, say) flows through arithmetically.
	credit := recurring("li-1", "client-a", "seo", 0)
	credit.MonthlyValue = decimal.NewFromInt(-200)
	items := []capacity.LineItem{
		credit,
		recurring("li-2", "client-b", "seo", 1000),
	}

	result := capacity.NewAggregator().Aggregate(items, jan2024(), capacity.GroupByService, capacity.Targets{})

	if !result.TotalActual.Equal(decimal.NewFromInt(800)) {
		t.Errorf("total: got %s, want 800", result.TotalActual)
	}
}
