package forecast

import (
	"math"
	"math/rand"

	"github.com/g0tchi/soleflip-sub003/internal/domain"
	"github.com/g0tchi/soleflip-sub003/pkg/formulas"
)

// The tree models are deterministic: both use a fixed-seed source so repeated
// runs over identical history produce identical forecasts.
const treeSeed = 42

// hyperparameters for the supervised models; tuned for daily retail demand
// series of a few hundred points.
const (
	forestTrees     = 40
	forestMaxDepth  = 6
	boostRounds     = 120
	boostMaxDepth   = 2
	boostShrinkage  = 0.1
	minSamplesSplit = 6
	minSamplesLeaf  = 3
)

// randomForestModel trains a bagged ensemble of regression trees over the
// engineered calendar features and forecasts recursively.
func randomForestModel(series domain.Series, horizon int, _ Config) ([]float64, error) {
	rows, targets := supervisedSet(series)
	if len(rows) < 2*minSamplesSplit {
		return nil, &domain.ModelFitError{Model: string(ModelRandomForest), Reason: "too few supervised samples"}
	}

	forest := fitForest(rows, targets, rand.New(rand.NewSource(treeSeed)))
	return recursiveForecast(forest.predict, series, horizon), nil
}

// gradientBoostModel fits shallow trees to the running residual, shrunk by the
// learning rate, and forecasts recursively.
func gradientBoostModel(series domain.Series, horizon int, _ Config) ([]float64, error) {
	rows, targets := supervisedSet(series)
	if len(rows) < 2*minSamplesSplit {
		return nil, &domain.ModelFitError{Model: string(ModelGradientBoost), Reason: "too few supervised samples"}
	}

	booster := fitBoost(rows, targets)
	return recursiveForecast(booster.predict, series, horizon), nil
}

// treeNode is a binary regression tree node. Leaves carry the mean target.
type treeNode struct {
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
	value     float64
	leaf      bool
}

func (n *treeNode) predict(row []float64) float64 {
	for !n.leaf {
		if row[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.value
}

// fitTree grows a regression tree greedily, minimizing the squared error of
// each split. featureSubset, when non-nil, restricts candidate features
// (used by the forest for decorrelation).
func fitTree(rows [][]float64, targets []float64, depth, maxDepth int, featureSubset []int) *treeNode {
	if len(targets) < minSamplesSplit || depth >= maxDepth || formulas.Variance(targets) == 0 {
		return &treeNode{leaf: true, value: formulas.Mean(targets)}
	}

	features := featureSubset
	if features == nil {
		features = make([]int, len(rows[0]))
		for i := range features {
			features[i] = i
		}
	}

	bestFeature, bestThreshold, bestScore := -1, 0.0, math.Inf(1)
	for _, f := range features {
		thresholds := candidateThresholds(rows, f)
		for _, th := range thresholds {
			score, ok := splitScore(rows, targets, f, th)
			if ok && score < bestScore {
				bestFeature, bestThreshold, bestScore = f, th, score
			}
		}
	}

	if bestFeature < 0 {
		return &treeNode{leaf: true, value: formulas.Mean(targets)}
	}

	var leftRows, rightRows [][]float64
	var leftY, rightY []float64
	for i, row := range rows {
		if row[bestFeature] <= bestThreshold {
			leftRows = append(leftRows, row)
			leftY = append(leftY, targets[i])
		} else {
			rightRows = append(rightRows, row)
			rightY = append(rightY, targets[i])
		}
	}

	return &treeNode{
		feature:   bestFeature,
		threshold: bestThreshold,
		left:      fitTree(leftRows, leftY, depth+1, maxDepth, featureSubset),
		right:     fitTree(rightRows, rightY, depth+1, maxDepth, featureSubset),
	}
}

// candidateThresholds picks a handful of quantile cut points for a feature.
func candidateThresholds(rows [][]float64, feature int) []float64 {
	vals := make([]float64, len(rows))
	for i, row := range rows {
		vals[i] = row[feature]
	}

	quantiles := []float64{0.2, 0.4, 0.5, 0.6, 0.8}
	out := make([]float64, 0, len(quantiles))
	seen := map[float64]bool{}
	for _, q := range quantiles {
		th := formulas.Quantile(q, vals)
		if !seen[th] {
			seen[th] = true
			out = append(out, th)
		}
	}
	return out
}

// splitScore returns the summed squared error of the two halves.
func splitScore(rows [][]float64, targets []float64, feature int, threshold float64) (float64, bool) {
	var leftY, rightY []float64
	for i, row := range rows {
		if row[feature] <= threshold {
			leftY = append(leftY, targets[i])
		} else {
			rightY = append(rightY, targets[i])
		}
	}
	if len(leftY) < minSamplesLeaf || len(rightY) < minSamplesLeaf {
		return 0, false
	}
	return sse(leftY) + sse(rightY), true
}

func sse(y []float64) float64 {
	mean := formulas.Mean(y)
	var sum float64
	for _, v := range y {
		sum += (v - mean) * (v - mean)
	}
	return sum
}

// forest is a bagged set of regression trees.
type forest struct {
	trees []*treeNode
}

func fitForest(rows [][]float64, targets []float64, rng *rand.Rand) *forest {
	nFeatures := len(rows[0])
	subsetSize := int(math.Ceil(math.Sqrt(float64(nFeatures))))

	f := &forest{trees: make([]*treeNode, 0, forestTrees)}
	for t := 0; t < forestTrees; t++ {
		// Bootstrap sample.
		sampleRows := make([][]float64, len(rows))
		sampleY := make([]float64, len(rows))
		for i := range rows {
			j := rng.Intn(len(rows))
			sampleRows[i] = rows[j]
			sampleY[i] = targets[j]
		}

		// Random feature subset per tree.
		perm := rng.Perm(nFeatures)
		subset := append([]int(nil), perm[:subsetSize]...)

		f.trees = append(f.trees, fitTree(sampleRows, sampleY, 0, forestMaxDepth, subset))
	}
	return f
}

func (f *forest) predict(row []float64) float64 {
	var sum float64
	for _, t := range f.trees {
		sum += t.predict(row)
	}
	return sum / float64(len(f.trees))
}

// boost is a gradient-boosted stack of shallow trees over the mean baseline.
type boost struct {
	base  float64
	trees []*treeNode
}

func fitBoost(rows [][]float64, targets []float64) *boost {
	b := &boost{base: formulas.Mean(targets)}

	residuals := make([]float64, len(targets))
	for i, y := range targets {
		residuals[i] = y - b.base
	}

	for r := 0; r < boostRounds; r++ {
		tree := fitTree(rows, residuals, 0, boostMaxDepth, nil)
		b.trees = append(b.trees, tree)
		for i, row := range rows {
			residuals[i] -= boostShrinkage * tree.predict(row)
		}
	}
	return b
}

func (b *boost) predict(row []float64) float64 {
	pred := b.base
	for _, t := range b.trees {
		pred += boostShrinkage * t.predict(row)
	}
	return pred
}
