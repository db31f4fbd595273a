// Package engine is the orchestrator: it wires the rate table, decay
// calibration, level curve, track aggregator, cash-flow engine, and
// valuation solvers into the two operations a caller actually wants —
// recommend a maximum deal cost, or evaluate the viability of a given one.
package engine

import (
	"fmt"

	"catalogdeal/pkg/core/cashflow"
	"catalogdeal/pkg/core/config"
	"catalogdeal/pkg/core/curve"
	"catalogdeal/pkg/core/dealerr"
	"catalogdeal/pkg/core/decay"
	"catalogdeal/pkg/core/rates"
	"catalogdeal/pkg/core/solve"
	"catalogdeal/pkg/core/track"
)

// MarketShare is one country's contribution to the blended audio rate.
type MarketShare struct {
	Country string
	Share   float64
}

// DealInputs is the caller-supplied description of a catalog and a
// candidate deal structure.
type DealInputs struct {
	Genre       string
	MarketMix   []MarketShare
	WeeklyAudio float64 // ignored if Tracks is non-empty
	WeeklyVideo float64

	// CatalogTracks is the number of existing tracks the aggregate
	// WeeklyAudio/WeeklyVideo figures are spread across. Only consulted in
	// aggregate mode (Tracks empty): ExtraTracks new songs owed under the
	// deal are modeled as adding ExtraTracks * (WeeklyAudio/CatalogTracks)
	// to the effective weekly streams, matching the per-track catalog
	// aggregator's own extra-track handling.
	CatalogTracks int
	Tracks        []track.Track
	ExtraTracks   int

	WeeksPostPeak int
	DecayMode     string // "annual" or "weekly", overrides Config.DecayMode if set

	// UseTrackLevel forces track-level decay on or off. Nil defers to the
	// engine config, which in turn defaults to on whenever Tracks is
	// non-empty.
	UseTrackLevel *bool

	DealType            cashflow.DealType
	DealPercent         float64
	AdvanceSharePct     float64 // advance as a fraction of total deal cost
	MarketingRecoupable bool
}

// MarketBreakdown reports where blended revenue comes from: each named
// market's resolved rate and share, plus the unresolved remainder.
type MarketBreakdown struct {
	Markets   []MarketRate
	RestShare float64
	RestRate  float64
}

// MarketRate is one resolved country's contribution.
type MarketRate struct {
	Country string
	Share   float64
	Rate    float64
}

// YearlyCashFlow is one year's projected revenue and cash-flow split, with
// a fixed-rate discounted column independent of the caller's NPV discount
// rate.
type YearlyCashFlow struct {
	Year                 int
	Multiplier           float64
	Gross                float64
	LabelIn              float64
	ArtistOut            float64
	DiscountedLabelIn7_5 float64
}

// PaybackRecommendation is the maximum deal cost recoupable within the
// configured payback horizon, split into advance and marketing per the
// caller's advance_share.
type PaybackRecommendation struct {
	HorizonWeeks int
	MaxCost      float64
	Advance      float64
	Marketing    float64
	RecoupWeek   int // 0 if no positive cost recoups within the horizon

	// ImpliedIRR is the realized annual label IRR at MaxCost.
	ImpliedIRR      float64
	ImpliedIRRValid bool
}

// IRRRecommendation is the maximum deal cost at which realized annual
// label IRR equals a target rate, with the advance/marketing split.
type IRRRecommendation struct {
	TargetIRR float64
	MaxCost   float64
	Advance   float64
	Marketing float64
}

// LabelMetrics summarizes a deal cost's realized return to the label.
type LabelMetrics struct {
	NPV         float64
	IRR         float64
	IRRValid    bool
	MOIC        float64
	PaybackYear int // 0 if never
}

// RecommendationResult is the output of RecommendDealCost.
type RecommendationResult struct {
	PaybackReco     PaybackRecommendation
	IRRRecos        []IRRRecommendation
	CashFlow        []YearlyCashFlow
	MarketBreakdown MarketBreakdown
	Unconverged     bool
}

// ArtistMetrics summarizes a deal's return to the artist, including the
// advance they received up front.
type ArtistMetrics struct {
	NPVInclAdvance       float64 // discounted artist_out for years 1-10, plus the Year-0 advance
	TotalCashInclAdvance float64
	BreakevenYear        int // first year cumulative artist royalty (excl. advance) is >= 0; 0 if n/a
}

// ViabilityResult is the output of EvaluateDealViability.
type ViabilityResult struct {
	Label           LabelMetrics
	Artist          ArtistMetrics
	CashFlow        []YearlyCashFlow
	MarketBreakdown MarketBreakdown
	Unconverged     bool
}

// Orchestrator holds the loaded calibration tables and configuration for
// one pricing session.
type Orchestrator struct {
	RateTable  *rates.Table
	DecayTable *decay.Table
	Config     config.EngineConfig
}

// New constructs an Orchestrator from already-loaded tables.
func New(rt *rates.Table, dt *decay.Table, cfg config.EngineConfig) *Orchestrator {
	return &Orchestrator{RateTable: rt, DecayTable: dt, Config: cfg}
}

func (o *Orchestrator) decayMode(in DealInputs) string {
	if in.DecayMode != "" {
		return in.DecayMode
	}
	return o.Config.DecayMode
}

func (o *Orchestrator) useTrackLevel(in DealInputs) bool {
	if len(in.Tracks) == 0 {
		return false
	}
	if in.UseTrackLevel != nil {
		return *in.UseTrackLevel
	}
	if o.Config.UseTrackLevelDecay != nil {
		return *o.Config.UseTrackLevelDecay
	}
	return true
}

func (o *Orchestrator) blendedAudioRate(in DealInputs) (float64, MarketBreakdown, error) {
	shares := make(map[string]float64, len(in.MarketMix))
	for _, m := range in.MarketMix {
		shares[m.Country] = m.Share
	}
	blend, err := o.RateTable.BlendAudio(shares, o.Config.RowMode)
	if err != nil {
		return 0, MarketBreakdown{}, err
	}

	var totalShare float64
	bd := MarketBreakdown{}
	for _, m := range in.MarketMix {
		totalShare += m.Share
		rate, err := o.RateTable.Rate(m.Country)
		if err != nil {
			return 0, MarketBreakdown{}, err
		}
		bd.Markets = append(bd.Markets, MarketRate{Country: m.Country, Share: m.Share, Rate: rate.AudioRate})
	}
	bd.RestShare = 1.0 - totalShare
	if bd.RestShare > 0 {
		if o.Config.RowMode == rates.RowUSA {
			if r, err := o.RateTable.Rate("USA"); err == nil {
				bd.RestRate = r.AudioRate
			} else {
				bd.RestRate = o.RateTable.AverageAudio()
			}
		} else {
			bd.RestRate = o.RateTable.AverageAudio()
		}
	}
	return blend, bd, nil
}

// yearlyMultipliers computes the ten-year cumulative multiplier series and
// year-1 gross total for the given deal inputs, using either the annual
// calibration directly or the anchored weekly curve, per decay_mode.
func (o *Orchestrator) yearlyMultipliers(in DealInputs, blendedAudioRate float64) (year1 float64, multipliers [10]float64, unconverged bool, err error) {
	// Video has no top-market split in the source rate workbook: every
	// catalog gets the same global average video rate regardless of market
	// mix.
	videoRate := o.RateTable.AverageVideo()

	trackLevel := o.useTrackLevel(in)

	weeklyRates, err := o.DecayTable.WeeklyRates(in.Genre)
	if err != nil {
		return 0, multipliers, false, err
	}
	mode := o.decayMode(in)
	if mode != "annual" && weeklyRates == nil {
		// Genres without a calibrated year-1 weekly-rate vector degrade to
		// the annual multipliers.
		mode = "annual"
	}

	effAudio, effVideo := in.WeeklyAudio, in.WeeklyVideo
	if len(in.Tracks) > 0 && (!trackLevel || mode == "annual") {
		// Track data supplied but track-level decay switched off, or not
		// available without a weekly curve: collapse the catalog into
		// aggregate weekly streams.
		var sumAudio, sumVideo float64
		for _, tr := range in.Tracks {
			sumAudio += tr.WeeklyAudio
			sumVideo += tr.WeeklyVideo
		}
		n := float64(len(in.Tracks))
		effAudio = sumAudio + float64(in.ExtraTracks)*sumAudio/n
		effVideo = sumVideo + float64(in.ExtraTracks)*sumVideo/n
	}
	if !trackLevel && in.ExtraTracks > 0 && in.CatalogTracks > 0 && len(in.Tracks) == 0 {
		meanAudio := in.WeeklyAudio / float64(in.CatalogTracks)
		meanVideo := in.WeeklyVideo / float64(in.CatalogTracks)
		effAudio += float64(in.ExtraTracks) * meanAudio
		effVideo += float64(in.ExtraTracks) * meanVideo
	}

	if mode == "annual" {
		multipliers, err = o.DecayTable.AnnualMultipliers(in.Genre)
		if err != nil {
			return 0, multipliers, false, err
		}
		year1 = effAudio*52*blendedAudioRate + effVideo*52*videoRate
		return year1, multipliers, false, nil
	}

	annualMults, err := o.DecayTable.AnnualMultipliers(in.Genre)
	if err != nil {
		return 0, multipliers, false, err
	}
	lvl, err := curve.Build(weeklyRates, annualMults)
	if err != nil {
		return 0, multipliers, false, err
	}

	if trackLevel {
		agg, err := track.Sum(lvl, in.Tracks, in.ExtraTracks, blendedAudioRate, videoRate)
		if err != nil {
			return 0, multipliers, lvl.Unconverged, err
		}
		return agg.AnnualTotal[0], agg.AnnualMultiplier, lvl.Unconverged, nil
	}

	anchored, err := curve.Anchor(lvl, in.WeeksPostPeak, effAudio, effVideo, blendedAudioRate, videoRate)
	if err != nil {
		return 0, multipliers, lvl.Unconverged, err
	}
	return anchored.AnnualTotal[0], anchored.AnnualMultiplier, lvl.Unconverged, nil
}

func toYearlyCashFlow(rows []cashflow.Year) []YearlyCashFlow {
	out := make([]YearlyCashFlow, len(rows))
	for i, r := range rows {
		out[i] = YearlyCashFlow{
			Year:                 r.Year,
			Multiplier:           r.Multiplier,
			Gross:                r.Gross,
			LabelIn:              r.LabelIn,
			ArtistOut:            r.ArtistOut,
			DiscountedLabelIn7_5: r.LabelIn / pow1p(0.075, r.Year),
		}
	}
	return out
}

func pow1p(rate float64, year int) float64 {
	v := 1.0
	for i := 0; i < year; i++ {
		v *= 1 + rate
	}
	return v
}

// validate rejects negative streams, out-of-range percents, and a negative
// weeks-post-peak offset before any computation runs. catalog_tracks < 1 is only an error when
// ExtraTracks needs it to compute a per-track average.
func validate(in DealInputs) error {
	if in.WeeklyAudio < 0 || in.WeeklyVideo < 0 {
		return dealerr.New(dealerr.InvalidInput, "weekly streams must be >= 0")
	}
	if in.DealPercent < 0 || in.DealPercent > 1 {
		return dealerr.New(dealerr.InvalidInput, fmt.Sprintf("deal_percent must be in [0,1], got %v", in.DealPercent))
	}
	if in.AdvanceSharePct < 0 || in.AdvanceSharePct > 1 {
		return dealerr.New(dealerr.InvalidInput, fmt.Sprintf("advance_share must be in [0,1], got %v", in.AdvanceSharePct))
	}
	if in.WeeksPostPeak < 0 {
		return dealerr.New(dealerr.InvalidInput, fmt.Sprintf("weeks_post_peak must be >= 0, got %d", in.WeeksPostPeak))
	}
	if in.ExtraTracks > 0 && len(in.Tracks) == 0 && in.CatalogTracks < 1 {
		return dealerr.New(dealerr.InvalidInput, "catalog_tracks must be >= 1 when extra_tracks > 0")
	}
	for _, tr := range in.Tracks {
		if tr.WeeklyAudio < 0 || tr.WeeklyVideo < 0 || tr.WeeksSinceRelease < 0 {
			return dealerr.New(dealerr.InvalidInput, "track streams and age must be >= 0")
		}
	}
	return nil
}

// RecommendDealCost computes the maximum deal cost the label can pay under
// an 18-month (78-week default) payback criterion and each configured
// target-IRR criterion.
func (o *Orchestrator) RecommendDealCost(in DealInputs) (RecommendationResult, error) {
	if err := validate(in); err != nil {
		return RecommendationResult{}, err
	}
	blendedAudioRate, marketBreakdown, err := o.blendedAudioRate(in)
	if err != nil {
		return RecommendationResult{}, fmt.Errorf("resolving market mix: %w", err)
	}
	year1, multipliers, unconverged, err := o.yearlyMultipliers(in, blendedAudioRate)
	if err != nil {
		return RecommendationResult{}, fmt.Errorf("building revenue projection: %w", err)
	}

	labelShare := cashflow.LabelShare(in.DealType, in.DealPercent)
	eng := &cashflow.Engine{Year1Total: year1, Multipliers: multipliers, LabelShare: labelShare, DealType: in.DealType}

	weeklyGross := solve.GenerateWeeklyGrossSeries(year1, multipliers)
	horizon := o.Config.PaybackHorizonWeeks
	if horizon <= 0 {
		horizon = 78
	}
	maxCostPayback := solve.MaxCostAtPaybackHorizon(in.DealType, weeklyGross, labelShare, in.AdvanceSharePct, in.MarketingRecoupable, horizon)

	paybackReco := PaybackRecommendation{
		HorizonWeeks: horizon,
		MaxCost:      maxCostPayback,
		Advance:      maxCostPayback * in.AdvanceSharePct,
		Marketing:    maxCostPayback * (1 - in.AdvanceSharePct),
	}
	if maxCostPayback > 0 {
		paybackReco.RecoupWeek = solve.PaybackWeek(weeklyGross, labelShare, maxCostPayback, in.AdvanceSharePct, in.MarketingRecoupable)
		rows := eng.WithRecoup(maxCostPayback, cashflow.RecoupAmount(maxCostPayback, in.AdvanceSharePct, in.MarketingRecoupable))
		labelCF := make([]float64, len(rows))
		for i, r := range rows {
			labelCF[i] = r.LabelIn
		}
		paybackReco.ImpliedIRR, paybackReco.ImpliedIRRValid = solve.AnnualIRR(maxCostPayback, labelCF)
	}

	result := RecommendationResult{
		PaybackReco:     paybackReco,
		MarketBreakdown: marketBreakdown,
		Unconverged:     unconverged,
	}

	targets := o.Config.IRRTargets
	if len(targets) == 0 {
		targets = []float64{0.10, 0.15}
	}
	for _, target := range targets {
		maxCost := solve.MaxCostAtTargetIRR(target, eng, in.AdvanceSharePct, in.MarketingRecoupable)
		result.IRRRecos = append(result.IRRRecos, IRRRecommendation{
			TargetIRR: target,
			MaxCost:   maxCost,
			Advance:   maxCost * in.AdvanceSharePct,
			Marketing: maxCost * (1 - in.AdvanceSharePct),
		})
	}

	// The projected waterfall is illustrated at the 15%-IRR recommended cost.
	// When 0.15 isn't among the configured targets, fall back to the highest
	// target's cost; with no IRR targets at all, the payback cost.
	illustrationCost := maxCostPayback
	bestTarget := -1.0
	for _, r := range result.IRRRecos {
		if r.TargetIRR == 0.15 {
			illustrationCost = r.MaxCost
			bestTarget = r.TargetIRR
			break
		}
		if r.TargetIRR > bestTarget {
			illustrationCost = r.MaxCost
			bestTarget = r.TargetIRR
		}
	}
	result.CashFlow = toYearlyCashFlow(eng.WithRecoup(illustrationCost, cashflow.RecoupAmount(illustrationCost, in.AdvanceSharePct, in.MarketingRecoupable)))
	return result, nil
}

// EvaluateDealViability computes NPV/IRR/MOIC/payback for a specific
// (advance, marketing) deal cost against a catalog's projected revenue.
func (o *Orchestrator) EvaluateDealViability(in DealInputs, advance, marketing, discountRate float64) (ViabilityResult, error) {
	if err := validate(in); err != nil {
		return ViabilityResult{}, err
	}
	blendedAudioRate, marketBreakdown, err := o.blendedAudioRate(in)
	if err != nil {
		return ViabilityResult{}, fmt.Errorf("resolving market mix: %w", err)
	}
	year1, multipliers, unconverged, err := o.yearlyMultipliers(in, blendedAudioRate)
	if err != nil {
		return ViabilityResult{}, fmt.Errorf("building revenue projection: %w", err)
	}

	totalCost := advance + marketing
	recoupAmount := advance
	if in.MarketingRecoupable {
		recoupAmount = totalCost
	}
	labelShare := cashflow.LabelShare(in.DealType, in.DealPercent)
	eng := &cashflow.Engine{Year1Total: year1, Multipliers: multipliers, LabelShare: labelShare, DealType: in.DealType}
	rows := eng.WithRecoup(totalCost, recoupAmount)

	labelCF := make([]float64, len(rows))
	var totalLabelIn, totalArtistOut float64
	for i, r := range rows {
		labelCF[i] = r.LabelIn
		totalLabelIn += r.LabelIn
		totalArtistOut += r.ArtistOut
	}

	npv := solve.PresentValue(labelCF, discountRate) - totalCost
	// A non-convergent IRR degrades this one metric rather than failing the
	// whole operation; the rest of the result (NPV, MOIC, payback, cash
	// flow) is still valid.
	irr, irrOK := solve.AnnualIRR(totalCost, labelCF)
	if !irrOK {
		unconverged = true
	}
	moic := 0.0
	if totalCost > 0 {
		moic = (totalLabelIn) / totalCost
	}

	weeklyGross := solve.GenerateWeeklyGrossSeries(year1, multipliers)
	paybackWeek := solve.PaybackWeek(weeklyGross, labelShare, totalCost, advance/maxFloat(totalCost, 1), in.MarketingRecoupable)
	paybackYear := 0
	if paybackWeek > 0 {
		paybackYear = (paybackWeek-1)/52 + 1
	}

	artistCF := make([]float64, len(rows))
	breakevenYear := 0
	var cumArtist float64
	for i, r := range rows {
		artistCF[i] = r.ArtistOut
		cumArtist += r.ArtistOut
		if breakevenYear == 0 && cumArtist >= 0 {
			breakevenYear = r.Year
		}
	}
	artistNPV := advance + solve.PresentValue(artistCF, discountRate)

	return ViabilityResult{
		Label: LabelMetrics{
			NPV:         npv,
			IRR:         irr,
			IRRValid:    irrOK,
			MOIC:        moic,
			PaybackYear: paybackYear,
		},
		Artist: ArtistMetrics{
			NPVInclAdvance:       artistNPV,
			TotalCashInclAdvance: totalArtistOut + advance,
			BreakevenYear:        breakevenYear,
		},
		CashFlow:        toYearlyCashFlow(rows),
		MarketBreakdown: marketBreakdown,
		Unconverged:     unconverged,
	}, nil
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
