package analysis

import (
	"math"

	"github.com/pable/go-padel-metrics/internal/model"
)

// CorrelationColumns are the numeric columns of the correlation matrix, in
// row and column order.
var CorrelationColumns = []string{model.ColMerit, model.ColChemistry, model.ColPerformance, model.ColGameDiff}

// CorrelationMatrix holds pairwise Pearson coefficients. A nil cell is
// undefined: fewer than two matches or a constant column.
type CorrelationMatrix struct {
	Columns []string
	Values  [][]*float64
}

// At returns the coefficient of columns a and b, nil when either is unknown
// or the pair is undefined.
func (m CorrelationMatrix) At(a, b string) *float64 {
	i, j := indexOf(m.Columns, a), indexOf(m.Columns, b)
	if i < 0 || j < 0 {
		return nil
	}
	return m.Values[i][j]
}

func indexOf(xs []string, s string) int {
	for i, x := range xs {
		if x == s {
			return i
		}
	}
	return -1
}

// Correlations computes the Pearson matrix of CorrelationColumns over
// records.
func Correlations(records []model.MatchRecord) CorrelationMatrix {
	series := make([][]float64, len(CorrelationColumns))
	for i := range series {
		series[i] = make([]float64, len(records))
	}
	for k, r := range records {
		series[0][k] = r.Merit
		series[1][k] = r.Chemistry
		series[2][k] = r.Performance
		series[3][k] = r.GameDiff
	}

	m := CorrelationMatrix{
		Columns: append([]string{}, CorrelationColumns...),
		Values:  make([][]*float64, len(series)),
	}
	for i := range series {
		m.Values[i] = make([]*float64, len(series))
		for j := range series {
			if j < i {
				m.Values[i][j] = m.Values[j][i]
				continue
			}
			m.Values[i][j] = pearson(series[i], series[j])
		}
	}
	return m
}

func pearson(x, y []float64) *float64 {
	if len(x) != len(y) || len(x) < 2 {
		return nil
	}
	mx, my := mean(x), mean(y)
	var num, denX, denY float64
	for i := range x {
		dx, dy := x[i]-mx, y[i]-my
		num += dx * dy
		denX += dx * dx
		denY += dy * dy
	}
	if denX == 0 || denY == 0 {
		return nil
	}
	r := num / (math.Sqrt(denX) * math.Sqrt(denY))
	// Rounding can push |r| a hair past one.
	r = math.Max(-1, math.Min(1, r))
	return &r
}

func mean(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s / float64(len(xs))
}
