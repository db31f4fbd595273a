// Command valuate runs the catalog deal pricing engine from the command
// line: -mode=recommend prices the maximum deal cost for a catalog,
// -mode=evaluate scores the viability of a specific deal.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"catalogdeal/pkg/core/config"
	"catalogdeal/pkg/core/engine"
	"catalogdeal/pkg/core/report"
	"catalogdeal/pkg/core/track"
	"catalogdeal/pkg/core/utils"
)

// trackRequest is one catalog track in the CLI's per-track input mode.
type trackRequest struct {
	WeeksSinceRelease int     `json:"weeks_since_release"`
	WeeklyAudio       float64 `json:"weekly_audio"`
	WeeklyVideo       float64 `json:"weekly_video"`
}

// request is the CLI's lenient-decoded input shape. MarketMix keys are
// country names, values are the fraction of weekly streams from that
// country (not required to sum to 1 — the remainder falls to row_mode).
type request struct {
	Genre               string             `json:"genre"`
	MarketMix           map[string]float64 `json:"market_mix"`
	WeeklyAudioStreams  float64            `json:"weekly_audio_streams"`
	WeeklyVideoStreams  float64            `json:"weekly_video_streams"`
	CatalogTracks       int                `json:"catalog_tracks"`
	Tracks              []trackRequest     `json:"tracks"`
	UseTrackLevel       *bool              `json:"use_track_level"`
	WeeksPostPeak       int                `json:"weeks_post_peak"`
	ExtraTracks         int                `json:"extra_tracks"`
	DealType            string             `json:"deal_type"`
	DealPercent         float64            `json:"deal_percent"`
	AdvanceSharePct     float64            `json:"advance_share_pct"`
	MarketingRecoupable bool               `json:"marketing_recoupable"`
	Advance             float64            `json:"advance"`
	Marketing           float64            `json:"marketing"`
	DiscountRate        float64            `json:"discount_rate"`
}

func (r request) toDealInputs() (engine.DealInputs, error) {
	dealType, err := config.ParseDealType(r.DealType)
	if err != nil {
		return engine.DealInputs{}, err
	}
	var mix []engine.MarketShare
	for country, share := range r.MarketMix {
		mix = append(mix, engine.MarketShare{Country: country, Share: share})
	}
	var tracks []track.Track
	for _, tr := range r.Tracks {
		tracks = append(tracks, track.Track{
			WeeksSinceRelease: tr.WeeksSinceRelease,
			WeeklyAudio:       tr.WeeklyAudio,
			WeeklyVideo:       tr.WeeklyVideo,
		})
	}
	return engine.DealInputs{
		Genre:               r.Genre,
		MarketMix:           mix,
		WeeklyAudio:         r.WeeklyAudioStreams,
		WeeklyVideo:         r.WeeklyVideoStreams,
		CatalogTracks:       r.CatalogTracks,
		Tracks:              tracks,
		UseTrackLevel:       r.UseTrackLevel,
		ExtraTracks:         r.ExtraTracks,
		WeeksPostPeak:       r.WeeksPostPeak,
		DealType:            dealType,
		DealPercent:         r.DealPercent,
		AdvanceSharePct:     r.AdvanceSharePct,
		MarketingRecoupable: r.MarketingRecoupable,
	}, nil
}

func main() {
	_ = godotenv.Load()

	mode := flag.String("mode", "recommend", "recommend | evaluate")
	dataFlag := flag.String("data", "", "deal request JSON payload")
	configPath := flag.String("config", "", "engine config YAML path")
	overridesPath := flag.String("overrides", "", "hjson assumption overrides path")
	ratesPath := flag.String("rates", "", "country rate table CSV path")
	decayPath := flag.String("decay", "", "decay calibration CSV path")
	flag.Parse()

	if *dataFlag == "" {
		fmt.Fprintln(os.Stderr, "[ERROR] -data is required")
		os.Exit(1)
	}

	var req request
	if _, err := utils.SmartParse(*dataFlag, &req); err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] parsing -data: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.LoadEngineConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] loading config: %v\n", err)
		os.Exit(1)
	}
	cfg, err = config.ApplyHjsonOverrides(cfg, *overridesPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] applying overrides: %v\n", err)
		os.Exit(1)
	}

	rt, err := config.LoadRateTable(*ratesPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] loading rate table: %v\n", err)
		os.Exit(1)
	}
	dt, err := config.LoadDecayCalibration(*decayPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] loading decay calibration: %v\n", err)
		os.Exit(1)
	}

	orch := engine.New(rt, dt, cfg)
	in, err := req.toDealInputs()
	if err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] invalid request: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("=== Catalog Deal Engine ===")

	switch *mode {
	case "recommend":
		res, err := orch.RecommendDealCost(in)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[ERROR] recommend_deal_cost: %v\n", err)
			os.Exit(1)
		}
		if res.Unconverged {
			fmt.Println("[WARNING] one or more decay solves did not fully converge")
		}
		memo, err := report.RenderRecommendation(res)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[ERROR] rendering memo: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(memo.Markdown)

	case "evaluate":
		discountRate := req.DiscountRate
		if discountRate == 0 {
			discountRate = cfg.DiscountRate
		}
		res, err := orch.EvaluateDealViability(in, req.Advance, req.Marketing, discountRate)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[ERROR] evaluate_deal_viability: %v\n", err)
			os.Exit(1)
		}
		if res.Unconverged {
			fmt.Println("[WARNING] one or more decay solves did not fully converge")
		}
		memo, err := report.RenderViability(res)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[ERROR] rendering memo: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(memo.Markdown)

	default:
		fmt.Fprintf(os.Stderr, "[ERROR] unknown mode %q\n", *mode)
		os.Exit(1)
	}
}
