package solve

import (
	"math"
	"testing"

	"catalogdeal/pkg/core/cashflow"
)

const tol = 1e-4

func TestAnnualIRRRecoversKnownRate(t *testing.T) {
	const rate = 0.15
	flows := make([]float64, 10)
	for i := range flows {
		flows[i] = 100_000
	}
	cost := PresentValue(flows, rate)

	irr, ok := AnnualIRR(cost, flows)
	if !ok {
		t.Fatalf("expected AnnualIRR to converge")
	}
	if math.Abs(irr-rate) > 1e-3 {
		t.Errorf("AnnualIRR = %v, want ~%v", irr, rate)
	}
}

func TestAnnualIRRNoSolutionWhenCostExceedsTotal(t *testing.T) {
	flows := []float64{10, 10, 10}
	if _, ok := AnnualIRR(1000, flows); ok {
		t.Fatalf("expected no IRR solution when cost exceeds total cash flow")
	}
}

func TestWeeklyIRRWidensBoundsWhenNeeded(t *testing.T) {
	flows := make([]float64, 520)
	for i := range flows {
		flows[i] = 5000
	}
	// A low cost relative to this stream implies a weekly IRR well above
	// 10%, forcing the bound-widening branch.
	irr, ok := WeeklyIRR(40_000, flows)
	if !ok {
		t.Fatalf("expected WeeklyIRR to converge")
	}
	if irr <= 0.11 {
		t.Errorf("expected widened-bound weekly IRR well above 0.10, got %v", irr)
	}
}

func TestMaxCostForIRRMatchesPresentValue(t *testing.T) {
	flows := []float64{100_000, 90_000, 80_000}
	const rate = 0.12
	got := MaxCostForIRR(rate, flows)
	want := PresentValue(flows, rate)
	if math.Abs(got-want) > tol {
		t.Errorf("MaxCostForIRR = %v, want %v", got, want)
	}
}

func TestGenerateWeeklyGrossSeriesSumsToAnnualGross(t *testing.T) {
	mult := [cashflow.NumYears]float64{1.0, 0.70, 0.50, 0.38, 0.30, 0.25, 0.21, 0.18, 0.16, 0.145}
	series := GenerateWeeklyGrossSeries(1_000_000, mult)
	if len(series) != 520 {
		t.Fatalf("expected 520 weekly entries, got %d", len(series))
	}
	var yearOneSum float64
	for _, v := range series[:52] {
		yearOneSum += v
	}
	if math.Abs(yearOneSum-1_000_000) > 1.0 {
		t.Errorf("year 1 weekly sum = %v, want ~1,000,000", yearOneSum)
	}
}

func TestComputeWeeklyCashFlowsRecoupsAdvance(t *testing.T) {
	weeklyGross := make([]float64, 520)
	for i := range weeklyGross {
		weeklyGross[i] = 10_000
	}
	cf := ComputeWeeklyCashFlows(weeklyGross, 0.30, 100_000, 1.0, false)
	if cf.RecoupWeek == 0 {
		t.Fatalf("expected recoupment within the 520-week projection")
	}

	var cumLabel float64
	for i := 0; i < cf.RecoupWeek; i++ {
		cumLabel += cf.LabelCashIn[i]
	}
	if cumLabel < 100_000-tol {
		t.Errorf("cumulative label cash at recoup week = %v, want >= 100,000", cumLabel)
	}
}

func TestPaybackWeekZeroWhenNeverRecouped(t *testing.T) {
	weeklyGross := make([]float64, 52)
	for i := range weeklyGross {
		weeklyGross[i] = 100
	}
	week := PaybackWeek(weeklyGross, 0.30, 10_000_000, 1.0, false)
	if week != 0 {
		t.Errorf("expected payback week 0 for an infeasible cost, got %d", week)
	}
}

func TestMaxCostAtPaybackHorizonProfitSplitReturnsHorizonGross(t *testing.T) {
	weeklyGross := make([]float64, 520)
	for i := range weeklyGross {
		weeklyGross[i] = 10_000
	}
	got := MaxCostAtPaybackHorizon(cashflow.ProfitSplit, weeklyGross, 0.50, 1.0, false, 78)
	want := 10_000.0 * 78
	if math.Abs(got-want) > tol {
		t.Errorf("MaxCostAtPaybackHorizon(ProfitSplit) = %v, want %v", got, want)
	}
}

func TestMaxCostAtPaybackHorizonRecoupsWithinHorizon(t *testing.T) {
	weeklyGross := make([]float64, 520)
	for i := range weeklyGross {
		weeklyGross[i] = 10_000
	}
	maxCost := MaxCostAtPaybackHorizon(cashflow.Distribution, weeklyGross, 0.70, 1.0, false, 78)
	week := PaybackWeek(weeklyGross, 0.70, maxCost, 1.0, false)
	if week == 0 || week > 78 {
		t.Errorf("expected recoup within horizon at the solved max cost, got week %d", week)
	}
}

func TestMaxCostAtTargetIRRYieldsApproximatelyTargetIRR(t *testing.T) {
	eng := &cashflow.Engine{
		Year1Total:  1_000_000,
		Multipliers: [cashflow.NumYears]float64{1.0, 0.70, 0.50, 0.38, 0.30, 0.25, 0.21, 0.18, 0.16, 0.145},
		LabelShare:  0.70,
		DealType:    cashflow.Royalty,
	}
	const target = 0.15
	cost := MaxCostAtTargetIRR(target, eng, 1.0, false)

	rows := eng.WithRecoup(cost, cost)
	labelCF := make([]float64, len(rows))
	for i, r := range rows {
		labelCF[i] = r.LabelIn
	}
	irr, ok := AnnualIRR(cost, labelCF)
	if !ok {
		t.Fatalf("expected AnnualIRR to converge at the solved cost")
	}
	if math.Abs(irr-target) > 0.01 {
		t.Errorf("realized IRR at solved cost = %v, want ~%v", irr, target)
	}
}
