package stats

import (
	"testing"

	"creatorjoy/pkg/models"

	"github.com/stretchr/testify/assert"
)

func views(vs ...int64) []Sample {
	out := make([]Sample, len(vs))
	for i, v := range vs {
		out[i] = Sample{Views: v}
	}
	return out
}

func TestComputeEvenLength(t *testing.T) {
	s := Compute(views(1000, 10, 30, 20))

	assert.Equal(t, int64(30), s.MedianViews, "index n/2 of sorted views")
	assert.Equal(t, int64(265), s.AvgViews)
	assert.Equal(t, int64(60), s.OutlierThreshold)
	assert.Equal(t, 1, s.OutliersCount)
	assert.Equal(t, int64(1060), s.TotalViews)
	assert.Equal(t, int64(10), s.MinViews)
	assert.Equal(t, int64(1000), s.MaxViews)
	assert.Equal(t, 11.32, s.ConsistencyScore)
}

func TestComputeOddLength(t *testing.T) {
	s := Compute(views(5, 1, 3))

	assert.Equal(t, int64(3), s.MedianViews)
	assert.Equal(t, int64(3), s.AvgViews)
	assert.Equal(t, 0, s.OutliersCount)
	assert.Equal(t, 100.0, s.ConsistencyScore)
}

func TestComputeFloorMean(t *testing.T) {
	s := Compute(views(1, 2))
	assert.Equal(t, int64(1), s.AvgViews)
	assert.Equal(t, int64(2), s.MedianViews)
	assert.Equal(t, 200.0, s.ConsistencyScore)
}

func TestComputeThresholdIsStrict(t *testing.T) {
	s := Compute(views(10, 10, 20))
	assert.Equal(t, int64(20), s.OutlierThreshold)
	assert.Equal(t, 0, s.OutliersCount)
}

func TestComputeEmpty(t *testing.T) {
	assert.Equal(t, models.Stats{}, Compute(nil))
}

func TestComputeZeroMean(t *testing.T) {
	s := Compute(views(0, 0, 0))
	assert.Equal(t, 0.0, s.ConsistencyScore)
	assert.Equal(t, 0, s.OutliersCount)
}

func TestFromReels(t *testing.T) {
	s := FromReels([]models.Reel{
		{ID: "1", ViewCount: 100, Likes: 10, Comments: 1},
		{ID: "2", ViewCount: 300, Likes: 20, Comments: 2},
	})
	assert.Equal(t, int64(400), s.TotalViews)
	assert.Equal(t, int64(30), s.TotalLikes)
	assert.Equal(t, int64(3), s.TotalComments)
	assert.Equal(t, int64(300), s.MedianViews)
}

func TestFromVideos(t *testing.T) {
	s := FromVideos([]models.Video{{ViewCount: 7}, {ViewCount: 9}})
	assert.Equal(t, int64(16), s.TotalViews)
	assert.Equal(t, int64(0), s.TotalLikes)
}
