package availability

import (
	"testing"

	"github.com/stretchr/testify/require"

	"meetslot/internal/timerange"
)

func tr(start, end int) timerange.TimeRange {
	return timerange.MustNew(start, end)
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name string
		busy []timerange.TimeRange
		want []timerange.TimeRange
	}{
		{
			name: "empty",
			busy: nil,
			want: nil,
		},
		{
			name: "overlapping ranges merge",
			busy: []timerange.TimeRange{tr(800, 1000), tr(600, 900)},
			want: []timerange.TimeRange{tr(600, 1000)},
		},
		{
			name: "nested range does not shrink the outer one",
			busy: []timerange.TimeRange{tr(600, 900), tr(700, 800)},
			want: []timerange.TimeRange{tr(600, 900)},
		},
		{
			name: "duplicates collapse",
			busy: []timerange.TimeRange{tr(600, 700), tr(600, 700), tr(600, 700)},
			want: []timerange.TimeRange{tr(600, 700)},
		},
		{
			name: "touching ranges stay separate",
			busy: []timerange.TimeRange{tr(700, 800), tr(600, 700)},
			want: []timerange.TimeRange{tr(600, 700), tr(700, 800)},
		},
		{
			name: "disjoint ranges are sorted",
			busy: []timerange.TimeRange{tr(1200, 1300), tr(0, 60), tr(600, 660)},
			want: []timerange.TimeRange{tr(0, 60), tr(600, 660), tr(1200, 1300)},
		},
		{
			name: "empty ranges are ignored",
			busy: []timerange.TimeRange{tr(600, 900), tr(700, 700), tr(800, 1000)},
			want: []timerange.TimeRange{tr(600, 1000)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Merge(tt.busy))
		})
	}
}

func TestMerge_DoesNotModifyInput(t *testing.T) {
	busy := []timerange.TimeRange{tr(800, 1000), tr(600, 900)}
	_ = Merge(busy)
	require.Equal(t, []timerange.TimeRange{tr(800, 1000), tr(600, 900)}, busy)
}

func TestFreeGaps(t *testing.T) {
	tests := []struct {
		name     string
		busy     []timerange.TimeRange
		duration int
		want     []timerange.TimeRange
	}{
		{
			name:     "no busy time leaves the whole day",
			duration: 30,
			want:     []timerange.TimeRange{timerange.WholeDay},
		},
		{
			name:     "gaps before, between and after",
			busy:     []timerange.TimeRange{tr(480, 510), tr(540, 570)},
			duration: 30,
			want:     []timerange.TimeRange{tr(0, 480), tr(510, 540), tr(570, 1440)},
		},
		{
			name:     "short gaps are dropped",
			busy:     []timerange.TimeRange{tr(480, 510), tr(540, 570)},
			duration: 31,
			want:     []timerange.TimeRange{tr(0, 480), tr(570, 1440)},
		},
		{
			name:     "busy whole day leaves nothing",
			busy:     []timerange.TimeRange{timerange.WholeDay},
			duration: 1,
			want:     []timerange.TimeRange{},
		},
		{
			name:     "busy at the day edges",
			busy:     []timerange.TimeRange{tr(0, 60), tr(1380, 1440)},
			duration: 60,
			want:     []timerange.TimeRange{tr(60, 1380)},
		},
		{
			name:     "touching busy ranges produce no zero-length gap",
			busy:     []timerange.TimeRange{tr(600, 700), tr(700, 800)},
			duration: 0,
			want:     []timerange.TimeRange{tr(0, 600), tr(800, 1440)},
		},
		{
			name:     "duration longer than the whole day",
			duration: 1441,
			want:     []timerange.TimeRange{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, FreeGaps(tt.busy, tt.duration))
		})
	}
}
