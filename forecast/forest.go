package forecast

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
)

// RandomForest is a bagged ensemble of CART regression trees: bootstrap
// samples, every feature considered at each split, squared-error criterion,
// no depth limit. Prediction is the mean over trees. Fitting is
// deterministic for a given seed.
type RandomForest struct {
	Trees           int
	Seed            int64
	MinSamplesSplit int

	trees    []*tree
	features int
}

// NewRandomForest creates an unfitted forest.
func NewRandomForest(trees int, seed int64) *RandomForest {
	return &RandomForest{Trees: trees, Seed: seed, MinSamplesSplit: 2}
}

// Fit grows the trees on X (one row per sample) and target y.
func (f *RandomForest) Fit(X [][]float64, y []float64) error {
	if len(X) == 0 {
		return errors.New("no training samples")
	}
	if len(X) != len(y) {
		return fmt.Errorf("%d feature rows for %d targets", len(X), len(y))
	}
	width := len(X[0])
	for i, row := range X {
		if len(row) != width {
			return fmt.Errorf("row %d has %d features, want %d", i, len(row), width)
		}
	}
	if f.Trees < 1 {
		return fmt.Errorf("forest needs at least one tree, got %d", f.Trees)
	}
	minSplit := f.MinSamplesSplit
	if minSplit < 2 {
		minSplit = 2
	}

	rng := rand.New(rand.NewSource(f.Seed))
	f.features = width
	f.trees = make([]*tree, f.Trees)
	for i := range f.trees {
		treeRng := rand.New(rand.NewSource(rng.Int63()))

		sample := make([]int, len(X))
		for j := range sample {
			sample[j] = treeRng.Intn(len(X))
		}

		t := &tree{minSplit: minSplit}
		t.grow(X, y, sample, treeRng)
		f.trees[i] = t
	}
	return nil
}

// Predict returns the ensemble mean for each row.
func (f *RandomForest) Predict(X [][]float64) ([]float64, error) {
	if len(f.trees) == 0 {
		return nil, errors.New("forest is not fitted")
	}
	out := make([]float64, len(X))
	for i, row := range X {
		if len(row) != f.features {
			return nil, fmt.Errorf("row %d has %d features, want %d", i, len(row), f.features)
		}
		var sum float64
		for _, t := range f.trees {
			sum += t.predict(row)
		}
		out[i] = sum / float64(len(f.trees))
	}
	return out, nil
}

// =============================================================================
// REGRESSION TREE
// =============================================================================

type node struct {
	leaf      bool
	value     float64
	feature   int
	threshold float64
	left      int
	right     int
}

type tree struct {
	nodes    []node
	minSplit int
}

func (t *tree) grow(X [][]float64, y []float64, sample []int, rng *rand.Rand) {
	t.nodes = t.nodes[:0]
	t.build(X, y, sample, rng)
}

// build appends the subtree for sample and returns its root index.
func (t *tree) build(X [][]float64, y []float64, sample []int, rng *rand.Rand) int {
	idx := len(t.nodes)
	t.nodes = append(t.nodes, node{leaf: true, value: mean(y, sample)})

	if len(sample) < t.minSplit || constant(y, sample) {
		return idx
	}

	feature, threshold, ok := bestSplit(X, y, sample, rng)
	if !ok {
		return idx
	}

	var left, right []int
	for _, s := range sample {
		if X[s][feature] <= threshold {
			left = append(left, s)
		} else {
			right = append(right, s)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return idx
	}

	l := t.build(X, y, left, rng)
	r := t.build(X, y, right, rng)
	t.nodes[idx] = node{feature: feature, threshold: threshold, left: l, right: r}
	return idx
}

func (t *tree) predict(row []float64) float64 {
	n := t.nodes[0]
	for !n.leaf {
		if row[n.feature] <= n.threshold {
			n = t.nodes[n.left]
		} else {
			n = t.nodes[n.right]
		}
	}
	return n.value
}

// bestSplit maximizes the squared-error reduction. Features are visited in a
// random order; the first best split found wins ties.
func bestSplit(X [][]float64, y []float64, sample []int, rng *rand.Rand) (feature int, threshold float64, ok bool) {
	n := len(sample)
	var total float64
	for _, s := range sample {
		total += y[s]
	}
	// Maximizing sumL²/nL + sumR²/nR is equivalent to minimizing the
	// children's summed squared error. The parent score is the baseline.
	best := total * total / float64(n)

	sorted := make([]int, n)
	for _, f := range rng.Perm(len(X[sample[0]])) {
		copy(sorted, sample)
		sort.SliceStable(sorted, func(a, b int) bool { return X[sorted[a]][f] < X[sorted[b]][f] })

		var leftSum float64
		for k := 1; k < n; k++ {
			leftSum += y[sorted[k-1]]
			lo, hi := X[sorted[k-1]][f], X[sorted[k]][f]
			if lo == hi {
				continue
			}
			rightSum := total - leftSum
			score := leftSum*leftSum/float64(k) + rightSum*rightSum/float64(n-k)
			if score > best+1e-12 {
				best = score
				feature, threshold, ok = f, lo+(hi-lo)/2, true
			}
		}
	}
	return feature, threshold, ok
}

func mean(y []float64, sample []int) float64 {
	if len(sample) == 0 {
		return 0
	}
	var sum float64
	for _, s := range sample {
		sum += y[s]
	}
	return sum / float64(len(sample))
}

func constant(y []float64, sample []int) bool {
	for _, s := range sample[1:] {
		if y[s] != y[sample[0]] {
			return false
		}
	}
	return true
}
