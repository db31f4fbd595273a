// Package track aggregates a per-track catalog against a shared unshifted
// level curve, decaying each track independently from its own age.
package track

import "catalogdeal/pkg/core/curve"

const numYears = 10

// Track is one catalog track's current weekly performance and age.
type Track struct {
	WeeksSinceRelease int // k_i >= 0
	WeeklyAudio       float64
	WeeklyVideo       float64
}

// Aggregate is the result of summing every track's independently-decayed
// contribution.
type Aggregate struct {
	AnnualAudio      [numYears]float64
	AnnualVideo      [numYears]float64
	AnnualTotal      [numYears]float64
	AnnualMultiplier [numYears]float64 // relative to aggregate Year 1
}

// Sum decays each track from its own age offset against lvl and aggregates
// the contributions into ten annual totals. "Extra tracks" (new songs owed
// under the deal) are modeled as additional pseudo-tracks at k=0 with
// per-track audio/video equal to the catalog average.
func Sum(lvl *curve.Level, tracks []Track, extraTracks int, blendedAudioRate, videoRate float64) (*Aggregate, error) {
	all := make([]Track, 0, len(tracks)+extraTracks)
	all = append(all, tracks...)

	if extraTracks > 0 && len(tracks) > 0 {
		var avgAudio, avgVideo float64
		for _, t := range tracks {
			avgAudio += t.WeeklyAudio
			avgVideo += t.WeeklyVideo
		}
		avgAudio /= float64(len(tracks))
		avgVideo /= float64(len(tracks))
		for i := 0; i < extraTracks; i++ {
			all = append(all, Track{WeeksSinceRelease: 0, WeeklyAudio: avgAudio, WeeklyVideo: avgVideo})
		}
	}

	agg := &Aggregate{}
	for _, t := range all {
		a, err := curve.Anchor(lvl, t.WeeksSinceRelease, t.WeeklyAudio, t.WeeklyVideo, blendedAudioRate, videoRate)
		if err != nil {
			return nil, err
		}
		for y := 0; y < numYears; y++ {
			agg.AnnualAudio[y] += a.AnnualAudio[y]
			agg.AnnualVideo[y] += a.AnnualVideo[y]
			agg.AnnualTotal[y] += a.AnnualTotal[y]
		}
	}

	year1 := agg.AnnualTotal[0]
	for y := 0; y < numYears; y++ {
		if year1 > 0 {
			agg.AnnualMultiplier[y] = agg.AnnualTotal[y] / year1
		}
	}
	return agg, nil
}
