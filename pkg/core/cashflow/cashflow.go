// Package cashflow turns a year-1 gross revenue figure, a ten-year
// cumulative multiplier series, and a deal structure into per-year
// (gross, label_in, artist_out) cash flows.
//
// The three deal types are a closed variant set rather than an inheritance
// tree: DealType gates a switch inside WithRecoup, keeping each
// deal's recoupment semantics legible in one place. Decay multipliers are
// cumulative relative to Year 1 — they are applied directly
// (gross_y = year1 * M[y]), never compounded.
package cashflow

const NumYears = 10

// DealType is the deal structure that determines recoupment semantics.
type DealType int

const (
	Distribution DealType = iota
	ProfitSplit
	Royalty
)

// LabelShare computes the label's base share of gross revenue. Distinct
// from the caller-facing "deal percent" knob, whose meaning depends on
// DealType: Distribution's deal_percent IS label_share, Royalty's is the
// artist's royalty (so label_share = 1-deal_percent).
func LabelShare(dealType DealType, dealPercent float64) float64 {
	switch dealType {
	case Royalty:
		return 1.0 - dealPercent
	default: // Distribution, ProfitSplit
		return dealPercent
	}
}

// Year is one year's cash-flow row.
type Year struct {
	Year       int
	Multiplier float64
	Gross      float64
	LabelIn    float64
	ArtistOut  float64
}

// Engine computes cash flows for a fixed (year1 gross, multiplier series,
// label share, deal type) combination.
type Engine struct {
	Year1Total  float64
	Multipliers [NumYears]float64
	LabelShare  float64
	DealType    DealType
}

func (e *Engine) artistShare() float64 { return 1.0 - e.LabelShare }

// YearlyGross returns (year, multiplier, gross) for years 1..10, with no
// cash-flow split applied.
func (e *Engine) YearlyGross() []Year {
	out := make([]Year, NumYears)
	for i := 0; i < NumYears; i++ {
		out[i] = Year{Year: i + 1, Multiplier: e.Multipliers[i], Gross: e.Year1Total * e.Multipliers[i]}
	}
	return out
}

// NoRecoup computes the steady-state split with no recoupment effects: the
// correct lifetime cash flow for Royalty, and the post-recoup steady state
// for the other two deal types (used for PV/IRR baselines).
func (e *Engine) NoRecoup() []Year {
	rows := e.YearlyGross()
	for i := range rows {
		rows[i].LabelIn = rows[i].Gross * e.LabelShare
		rows[i].ArtistOut = rows[i].Gross * e.artistShare()
	}
	return rows
}

// RecoupAmount is the portion of a deal's total cost the label recovers
// through the revenue waterfall: the advance, plus marketing when the deal
// makes marketing recoupable.
func RecoupAmount(totalCost, advanceSharePct float64, marketingRecoupable bool) float64 {
	if marketingRecoupable {
		return totalCost
	}
	return totalCost * advanceSharePct
}

// WithRecoup computes the deal-type-specific cash flows. totalCost is the
// full deal cost (the Profit Split expense basis); recoupAmount is the part
// a Distribution deal withholds from the revenue stream. Royalty ignores
// both.
func (e *Engine) WithRecoup(totalCost, recoupAmount float64) []Year {
	switch e.DealType {
	case Royalty:
		return e.royalty()
	case ProfitSplit:
		return e.profitSplit(totalCost)
	default:
		return e.fundedDistribution(recoupAmount)
	}
}

// royalty: label gets a fixed percentage of gross forever, no recoupment
// waterfall. The advance is an external Year-0 outflow, never recovered
// from this stream.
func (e *Engine) royalty() []Year {
	return e.NoRecoup()
}

// fundedDistribution: label takes 100% of gross until the recoupable
// amount is recovered, then reverts to label_share. Applied at annual
// granularity: within a year, if residual unrecouped R>0,
// label_in = min(gross,R) + label_share*max(0,gross-R); artist_out =
// artist_share*max(0,gross-R).
func (e *Engine) fundedDistribution(recoupAmount float64) []Year {
	rows := e.YearlyGross()
	remaining := recoupAmount
	for i := range rows {
		gross := rows[i].Gross
		if remaining > 0 {
			recouped := remaining
			if gross < recouped {
				recouped = gross
			}
			residual := gross - recouped
			rows[i].LabelIn = recouped + e.LabelShare*residual
			rows[i].ArtistOut = e.artistShare() * residual
			remaining -= recouped
		} else {
			rows[i].LabelIn = gross * e.LabelShare
			rows[i].ArtistOut = gross * e.artistShare()
		}
	}
	return rows
}

// profitSplit: expenses equal to totalCost are allocated across years
// proportionally to gross, then net profit (gross - expense, floored at 0)
// is split. Value is permanently reduced, not just delayed.
func (e *Engine) profitSplit(totalCost float64) []Year {
	rows := e.YearlyGross()
	var totalGross float64
	for _, r := range rows {
		totalGross += r.Gross
	}
	for i := range rows {
		var expense float64
		if totalGross > 0 {
			expense = totalCost * rows[i].Gross / totalGross
		} else {
			expense = totalCost / float64(NumYears)
		}
		net := rows[i].Gross - expense
		if net < 0 {
			net = 0
		}
		rows[i].LabelIn = net * e.LabelShare
		rows[i].ArtistOut = net * e.artistShare()
	}
	return rows
}
