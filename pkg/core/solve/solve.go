// Package solve implements the engine's root-finding valuation solvers:
// IRR on annual or weekly cash flows, maximum deal cost at a target IRR,
// and maximum deal cost recoupable within a payback horizon.
//
// Every solver here is monotone in its free variable over the relevant
// domain, so plain bisection with fixed bounds and iteration caps is
// adequate — no Newton's method without a safeguarded fallback.
package solve

import (
	"math"

	"catalogdeal/pkg/core/cashflow"
)

const weeksPerYear = 52

// AnnualIRR finds r such that Σ CF_t/(1+r)^t (t=1..len(cashFlows)) == cost,
// by bisection on [-0.5, 2.0], 100 iterations, tolerance 1e-6. Returns
// (0, false) if total cash flow doesn't exceed cost (no positive-IRR
// solution).
func AnnualIRR(cost float64, cashFlows []float64) (irr float64, ok bool) {
	if cost <= 0 {
		return 0, false
	}
	var total float64
	for _, cf := range cashFlows {
		total += cf
	}
	if total <= cost {
		return 0, false
	}

	npv := func(r float64) float64 {
		if r <= -1 {
			return math.Inf(1)
		}
		var pv float64
		for i, cf := range cashFlows {
			pv += cf / math.Pow(1+r, float64(i+1))
		}
		return pv - cost
	}

	lo, hi := -0.5, 2.0
	var mid float64
	for i := 0; i < 100; i++ {
		mid = (lo + hi) / 2
		n := npv(mid)
		if math.Abs(n) < 1e-6 {
			return mid, true
		}
		if n > 0 {
			lo = mid
		} else {
			hi = mid
		}
		if hi-lo < 1e-6/100 {
			break
		}
	}
	return (lo + hi) / 2, true
}

// WeeklyIRR finds the weekly IRR on weekly cash flows, bisecting on
// [-0.01, 0.10] and widening to [-0.01, 0.5] if the upper bound's NPV is
// still positive.
func WeeklyIRR(cost float64, weeklyCashFlows []float64) (irr float64, ok bool) {
	if cost <= 0 {
		return 0, false
	}
	var total float64
	for _, cf := range weeklyCashFlows {
		total += cf
	}
	if total <= cost {
		return 0, false
	}

	npv := func(r float64) float64 {
		if r <= -1 {
			return math.Inf(1)
		}
		var pv float64
		for i, cf := range weeklyCashFlows {
			pv += cf / math.Pow(1+r, float64(i+1))
		}
		return pv - cost
	}

	lo, hi := -0.01, 0.10
	if npv(lo) < 0 {
		return 0, false
	}
	if npv(hi) > 0 {
		hi = 0.5
	}

	var mid float64
	for i := 0; i < 100; i++ {
		mid = (lo + hi) / 2
		n := npv(mid)
		if math.Abs(n) < 1e-6 {
			return mid, true
		}
		if n > 0 {
			lo = mid
		} else {
			hi = mid
		}
		if hi-lo < 1e-6/100 {
			break
		}
	}
	return (lo + hi) / 2, true
}

// PresentValue discounts cashFlows (years 1..N) at rate.
func PresentValue(cashFlows []float64, rate float64) float64 {
	var pv float64
	for i, cf := range cashFlows {
		pv += cf / math.Pow(1+rate, float64(i+1))
	}
	return pv
}

// MaxCostForIRR is the closed-form max cost for a target IRR against a
// fixed cash-flow series with no cost-dependent recoupment (cost = PV of
// flows at target_irr). This matches the Royalty case, where the label cash
// flow doesn't depend on cost; MaxCostAtTargetIRR does not call it and
// bisects for Royalty like the other deal types.
func MaxCostForIRR(targetIRR float64, cashFlows []float64) float64 {
	if targetIRR <= -1 {
		return 0
	}
	pv := PresentValue(cashFlows, targetIRR)
	if pv < 0 {
		return 0
	}
	return pv
}

// GenerateWeeklyGrossSeries spreads each year's total evenly across its 52
// weeks, producing a 520-week gross series.
func GenerateWeeklyGrossSeries(year1Total float64, multipliers [cashflow.NumYears]float64) []float64 {
	out := make([]float64, 0, cashflow.NumYears*weeksPerYear)
	for y := 0; y < cashflow.NumYears; y++ {
		weekly := year1Total * multipliers[y] / float64(weeksPerYear)
		for w := 0; w < weeksPerYear; w++ {
			out = append(out, weekly)
		}
	}
	return out
}

// WeeklyCashFlows is the weekly recoupment-waterfall simulation result.
type WeeklyCashFlows struct {
	LabelCashIn []float64
	ArtistPay   []float64
	Gross       []float64
	RecoupWeek  int // 1-indexed, 0 if never recouped
	Recoupable  float64
}

// ComputeWeeklyCashFlows simulates the weekly recoupment waterfall for
// Distribution/Royalty-style deals: each week, label withholds from the
// artist's due share until recoupable is fully recovered, then the plain
// split applies.
func ComputeWeeklyCashFlows(weeklyGross []float64, labelShare, totalCost, advanceSharePct float64, marketingRecoupable bool) WeeklyCashFlows {
	advance := totalCost * advanceSharePct
	var recoupable float64
	if marketingRecoupable {
		recoupable = totalCost
	} else {
		recoupable = advance
	}
	artistShare := 1.0 - labelShare

	res := WeeklyCashFlows{
		LabelCashIn: make([]float64, len(weeklyGross)),
		ArtistPay:   make([]float64, len(weeklyGross)),
		Gross:       append([]float64(nil), weeklyGross...),
		Recoupable:  recoupable,
	}

	remaining := recoupable
	for i, gross := range weeklyGross {
		labelBase := gross * labelShare
		artistDue := gross * artistShare

		if remaining > 0 {
			withheld := remaining
			if artistDue < withheld {
				withheld = artistDue
			}
			remaining -= withheld
			res.LabelCashIn[i] = labelBase + withheld
			res.ArtistPay[i] = artistDue - withheld
			if remaining <= 0 && res.RecoupWeek == 0 {
				res.RecoupWeek = i + 1
			}
		} else {
			res.LabelCashIn[i] = labelBase
			res.ArtistPay[i] = artistDue
		}
	}
	return res
}

// PaybackWeek returns the first week (1-indexed) at which cumulative label
// cash-in reaches totalCost, or 0 if it never does.
func PaybackWeek(weeklyGross []float64, labelShare, totalCost, advanceSharePct float64, marketingRecoupable bool) int {
	cf := ComputeWeeklyCashFlows(weeklyGross, labelShare, totalCost, advanceSharePct, marketingRecoupable)
	var cum float64
	for i, v := range cf.LabelCashIn {
		cum += v
		if cum >= totalCost {
			return i + 1
		}
	}
	return 0
}

// MaxCostAtPaybackHorizon solves for the maximum deal cost recoupable
// within horizonWeeks (default 78). Profit Split's recoup capacity is the
// full horizon gross (expenses come off the top, no withholding); for
// Distribution and Royalty, bisect on cost within the relevant recoup
// capacity.
func MaxCostAtPaybackHorizon(dealType cashflow.DealType, weeklyGross []float64, labelShare, advanceSharePct float64, marketingRecoupable bool, horizonWeeks int) float64 {
	horizon := horizonWeeks
	if horizon > len(weeklyGross) {
		horizon = len(weeklyGross)
	}
	var grossInHorizon float64
	for _, g := range weeklyGross[:horizon] {
		grossInHorizon += g
	}

	if dealType == cashflow.ProfitSplit {
		return grossInHorizon
	}

	// For Distribution the bisection bound is the artist's share of horizon
	// gross; for Royalty it's the royalty rate times horizon gross. Both come
	// out to (1 - labelShare) since Royalty's labelShare is 1 - royalty.
	recoupCapacity := grossInHorizon * (1.0 - labelShare)

	lo, hi := 0.0, recoupCapacity
	best := 0.0
	for i := 0; i < 100; i++ {
		mid := (lo + hi) / 2
		week := PaybackWeek(weeklyGross, labelShare, mid, advanceSharePct, marketingRecoupable)
		if week != 0 && week <= horizonWeeks {
			best = mid
			lo = mid
		} else {
			hi = mid
		}
		if hi-lo < 1.0 {
			break
		}
	}
	return best
}

// MaxCostAtTargetIRR bisects on cost in [0, Σ gross] to find the largest
// deal cost whose realized annual label IRR equals targetIRR within $100.
// For each trial cost, the deal-type-specific cash-flow series is rebuilt
// (Royalty is cost-independent; Distribution is 100%-during-recoup on the
// recoupable portion; ProfitSplit deducts proportional expense) and its
// annual IRR computed.
func MaxCostAtTargetIRR(targetIRR float64, engine *cashflow.Engine, advanceSharePct float64, marketingRecoupable bool) float64 {
	var totalGross float64
	for _, y := range engine.YearlyGross() {
		totalGross += y.Gross
	}

	lo, hi := 0.0, totalGross
	best := 0.0
	for i := 0; i < 100; i++ {
		mid := (lo + hi) / 2
		rows := engine.WithRecoup(mid, cashflow.RecoupAmount(mid, advanceSharePct, marketingRecoupable))
		labelCF := make([]float64, len(rows))
		for j, r := range rows {
			labelCF[j] = r.LabelIn
		}

		irr, ok := AnnualIRR(mid, labelCF)
		switch {
		case mid <= 0:
			hi = mid
		case !ok:
			hi = mid
		case irr > targetIRR:
			best = mid
			lo = mid
		default:
			hi = mid
		}
		if hi-lo < 100.0 {
			break
		}
	}
	if best <= 0 {
		best = lo
	}
	return best
}
