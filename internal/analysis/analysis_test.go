package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TobiSchelling/climatetrends/internal/dataset"
)

func table(field string, pairs ...float64) dataset.Table {
	t := dataset.Table{Field: field}
	for i := 0; i+1 < len(pairs); i += 2 {
		t.Records = append(t.Records, dataset.Record{Year: int(pairs[i]), Value: pairs[i+1]})
	}
	return t
}

func TestTrailingMovingAverage(t *testing.T) {
	got := TrailingMovingAverage([]float64{1, 2, 3, 4, 5, 6, 7}, 5)

	require.Len(t, got, 7)
	for i := 0; i < 4; i++ {
		assert.True(t, math.IsNaN(got[i]), "index %d should be undefined", i)
	}
	assert.InDelta(t, 3.0, got[4], 1e-12)
	assert.InDelta(t, 4.0, got[5], 1e-12)
	assert.InDelta(t, 5.0, got[6], 1e-12)
}

func TestTrailingMovingAverageShortSeries(t *testing.T) {
	got := TrailingMovingAverage([]float64{1, 2, 3}, 5)
	for _, v := range got {
		assert.True(t, math.IsNaN(v))
	}
	assert.Empty(t, TrailingMovingAverage(nil, 5))
}

func TestTrailingMovingAverageWindowOne(t *testing.T) {
	assert.Equal(t, []float64{4, 5, 6}, TrailingMovingAverage([]float64{4, 5, 6}, 1))
}

func TestLinearFit(t *testing.T) {
	xs := []float64{2000, 2001, 2002, 2003}
	ys := []float64{10, 12, 14, 16}

	line := LinearFit(xs, ys)
	assert.InDelta(t, 2.0, line.Slope, 1e-9)
	assert.InDelta(t, 20.0, line.At(2005), 1e-6)
}

func TestLinearFitDegenerate(t *testing.T) {
	assert.True(t, math.IsNaN(LinearFit([]float64{1}, []float64{1}).Slope))
	assert.True(t, math.IsNaN(LinearFit([]float64{3, 3}, []float64{1, 2}).Slope))
	assert.True(t, math.IsNaN(LinearFit(nil, nil).Slope))
}

func TestInnerJoinKeepsOnlySharedYears(t *testing.T) {
	temp := table(dataset.TemperatureField, 1998, 0.6, 2000, 0.4, 2001, 0.5, 2002, 0.6)
	co2 := table(dataset.CO2Field, 2002, 26, 2000, 25, 2001, 25.5, 2010, 33)
	sea := table(dataset.SeaLevelField, 1990, 7, 2000, 8, 2001, 8.1, 2002, 8.2, 2013, 9)

	m := InnerJoin(temp, co2, sea)

	assert.Equal(t, []int{2000, 2001, 2002}, m.Years)
	assert.Equal(t, []string{"Temperature", "CO2_Emissions", "Sea_Level"}, m.Fields)
	assert.Equal(t, []float64{0.4, 0.5, 0.6}, m.Columns[0])
	assert.Equal(t, []float64{25, 25.5, 26}, m.Columns[1])
	assert.Equal(t, []float64{8, 8.1, 8.2}, m.Columns[2])
}

func TestInnerJoinDisjoint(t *testing.T) {
	m := InnerJoin(table("a", 1, 1), table("b", 2, 2))
	assert.Equal(t, 0, m.Len())
	assert.Len(t, m.Columns, 2)
}

func TestCorrelationMatrix(t *testing.T) {
	m := Merged{
		Years:  []int{2000, 2001, 2002, 2003},
		Fields: []string{"a", "b", "c"},
		Columns: [][]float64{
			{1, 2, 3, 4},
			{2, 4, 6, 8},
			{4, 3, 2, 1},
		},
	}

	corr := CorrelationMatrix(m)
	r, c := corr.Dims()
	require.Equal(t, 3, r)
	require.Equal(t, 3, c)

	for i := 0; i < 3; i++ {
		assert.InDelta(t, 1.0, corr.At(i, i), 1e-12)
	}
	assert.InDelta(t, 1.0, corr.At(0, 1), 1e-12)
	assert.InDelta(t, -1.0, corr.At(0, 2), 1e-12)
	assert.InDelta(t, -1.0, corr.At(2, 1), 1e-12)
}

func TestCorrelationMatrixTooFewYears(t *testing.T) {
	m := Merged{Years: []int{2000}, Fields: []string{"a", "b", "c"}, Columns: [][]float64{{1}, {2}, {3}}}

	corr := CorrelationMatrix(m)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			assert.True(t, math.IsNaN(corr.At(i, j)))
		}
	}
}

func TestCorrelationMatrixNoColumns(t *testing.T) {
	assert.Nil(t, CorrelationMatrix(Merged{}))
}
