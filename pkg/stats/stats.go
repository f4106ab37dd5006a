// Package stats summarizes engagement over a finished crawl result.
package stats

import (
	"math"
	"sort"

	"creatorjoy/pkg/models"
)

// Sample is the engagement of one item.
type Sample struct {
	Views    int64
	Likes    int64
	Comments int64
}

// Compute returns the statistics block for samples. The median is the
// element at index n/2 of the sorted views, which picks the upper of the two
// middle values for even n. The mean is floored. An item is an outlier when
// its views strictly exceed twice the median.
func Compute(samples []Sample) models.Stats {
	var s models.Stats
	if len(samples) == 0 {
		return s
	}

	views := make([]int64, len(samples))
	for i, smp := range samples {
		views[i] = smp.Views
		s.TotalViews += smp.Views
		s.TotalLikes += smp.Likes
		s.TotalComments += smp.Comments
	}

	sorted := append([]int64(nil), views...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	n := int64(len(sorted))
	s.MedianViews = sorted[n/2]
	s.AvgViews = floorDiv(s.TotalViews, n)
	s.MinViews = sorted[0]
	s.MaxViews = sorted[n-1]
	s.OutlierThreshold = 2 * s.MedianViews

	for _, v := range views {
		if v > s.OutlierThreshold {
			s.OutliersCount++
		}
	}

	if s.AvgViews != 0 {
		s.ConsistencyScore = math.Round(float64(s.MedianViews)/float64(s.AvgViews)*100*100) / 100
	}
	return s
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// FromReels computes statistics over Instagram reels.
func FromReels(reels []models.Reel) models.Stats {
	samples := make([]Sample, len(reels))
	for i, r := range reels {
		samples[i] = Sample{Views: r.ViewCount, Likes: r.Likes, Comments: r.Comments}
	}
	return Compute(samples)
}

// FromVideos computes statistics over YouTube videos. Likes and comments are
// not carried by the listing and stay zero.
func FromVideos(videos []models.Video) models.Stats {
	samples := make([]Sample, len(videos))
	for i, v := range videos {
		samples[i] = Sample{Views: v.ViewCount}
	}
	return Compute(samples)
}
