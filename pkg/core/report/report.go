// Package report renders a RecommendationResult or ViabilityResult as a
// human-readable Markdown deal memo, validated with goldmark before it's
// handed back to the caller.
package report

import (
	"fmt"
	"strings"

	"catalogdeal/pkg/core/engine"
	"catalogdeal/pkg/core/utils"

	"github.com/google/uuid"
)

// Memo is a rendered deal memo plus the run ID it was stamped with.
type Memo struct {
	RunID    string
	Markdown string
}

func marketBreakdownSection(bd engine.MarketBreakdown) string {
	var b strings.Builder
	b.WriteString("## Market Breakdown\n\n")
	b.WriteString("| Country | Share | Rate |\n|---|---|---|\n")
	for _, m := range bd.Markets {
		fmt.Fprintf(&b, "| %s | %.1f%% | $%.5f |\n", m.Country, m.Share*100, m.Rate)
	}
	fmt.Fprintf(&b, "| Rest of world | %.1f%% | $%.5f |\n", bd.RestShare*100, bd.RestRate)
	return b.String()
}

func cashFlowTable(rows []engine.YearlyCashFlow) string {
	var b strings.Builder
	b.WriteString("## Yearly Cash Flow\n\n")
	b.WriteString("| Year | Multiplier | Gross | Label In | Artist Out | Label In @7.5% |\n|---|---|---|---|---|---|\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "| %d | %.3f | $%.0f | $%.0f | $%.0f | $%.0f |\n",
			r.Year, r.Multiplier, r.Gross, r.LabelIn, r.ArtistOut, r.DiscountedLabelIn7_5)
	}
	return b.String()
}

// RenderRecommendation builds a deal memo for a RecommendDealCost result,
// stamping it with a fresh run ID.
func RenderRecommendation(res engine.RecommendationResult) (Memo, error) {
	runID := uuid.NewString()

	var b strings.Builder
	fmt.Fprintf(&b, "# Deal Cost Recommendation (%s)\n\n", runID)
	if res.Unconverged {
		b.WriteString("> One or more decay-curve solves did not fully converge; figures below are best-effort.\n\n")
	}

	fmt.Fprintf(&b, "## Payback Recommendation (%d-week horizon)\n\n", res.PaybackReco.HorizonWeeks)
	fmt.Fprintf(&b, "Max cost: **$%.0f** (advance $%.0f, marketing $%.0f)", res.PaybackReco.MaxCost, res.PaybackReco.Advance, res.PaybackReco.Marketing)
	if res.PaybackReco.RecoupWeek > 0 {
		fmt.Fprintf(&b, ", recoups week %d", res.PaybackReco.RecoupWeek)
	} else {
		b.WriteString(", does not recoup within horizon")
	}
	if res.PaybackReco.ImpliedIRRValid {
		fmt.Fprintf(&b, ", implied annual IRR %.1f%%", res.PaybackReco.ImpliedIRR*100)
	}
	b.WriteString("\n\n")

	b.WriteString("## IRR Recommendations\n\n")
	b.WriteString("| Target IRR | Max Cost | Advance | Marketing |\n|---|---|---|---|\n")
	for _, r := range res.IRRRecos {
		fmt.Fprintf(&b, "| %.0f%% | $%.0f | $%.0f | $%.0f |\n", r.TargetIRR*100, r.MaxCost, r.Advance, r.Marketing)
	}
	b.WriteString("\n")

	b.WriteString(cashFlowTable(res.CashFlow))
	b.WriteString("\n")
	b.WriteString(marketBreakdownSection(res.MarketBreakdown))

	md := utils.CleanMarkdown(b.String())
	if !utils.ValidateMarkdown(md) {
		return Memo{}, fmt.Errorf("rendered deal memo failed markdown validation")
	}
	return Memo{RunID: runID, Markdown: md}, nil
}

// RenderViability builds a deal memo for an EvaluateDealViability result.
func RenderViability(res engine.ViabilityResult) (Memo, error) {
	runID := uuid.NewString()

	var b strings.Builder
	fmt.Fprintf(&b, "# Deal Viability Assessment (%s)\n\n", runID)
	if res.Unconverged {
		b.WriteString("> One or more decay-curve solves did not fully converge; figures below are best-effort.\n\n")
	}

	b.WriteString("## Label Return\n\n")
	fmt.Fprintf(&b, "- NPV: **$%.0f**\n", res.Label.NPV)
	if res.Label.IRRValid {
		fmt.Fprintf(&b, "- IRR: **%.1f%%**\n", res.Label.IRR*100)
	} else {
		b.WriteString("- IRR: did not converge\n")
	}
	fmt.Fprintf(&b, "- MOIC: **%.2fx**\n", res.Label.MOIC)
	if res.Label.PaybackYear > 0 {
		fmt.Fprintf(&b, "- Payback: year %d\n\n", res.Label.PaybackYear)
	} else {
		b.WriteString("- Payback: does not recoup within the projection window\n\n")
	}

	b.WriteString("## Artist Return\n\n")
	fmt.Fprintf(&b, "- NPV incl. advance: **$%.0f**\n", res.Artist.NPVInclAdvance)
	fmt.Fprintf(&b, "- Total cash incl. advance: **$%.0f**\n", res.Artist.TotalCashInclAdvance)
	if res.Artist.BreakevenYear > 0 {
		fmt.Fprintf(&b, "- Royalty breakeven: year %d\n\n", res.Artist.BreakevenYear)
	} else {
		b.WriteString("- Royalty breakeven: not reached in the projection window\n\n")
	}

	b.WriteString(cashFlowTable(res.CashFlow))
	b.WriteString("\n")
	b.WriteString(marketBreakdownSection(res.MarketBreakdown))

	md := utils.CleanMarkdown(b.String())
	if !utils.ValidateMarkdown(md) {
		return Memo{}, fmt.Errorf("rendered deal memo failed markdown validation")
	}
	return Memo{RunID: runID, Markdown: md}, nil
}
