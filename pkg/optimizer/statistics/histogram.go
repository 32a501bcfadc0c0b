// Package statistics implements the histogram estimation contracts of
// §3.4/§4.6: three bucket-partitioning variants over a value ordinal
// space shared by numeric and (alphabet-bounded) string columns.
package statistics

import (
	"fmt"
	"math"
	"sort"

	"coredb/pkg/types"

	"golang.org/x/exp/constraints"
)

// Variant selects how a Histogram's buckets partition the value space
// (§3.4).
type Variant int

const (
	EqualNumElements Variant = iota
	EqualWidth
	EqualHeight
)

// Bucket is one histogram bucket: its value range plus row/distinct
// counts (§3.4).
type Bucket struct {
	Min, Max               types.Field
	minOrd, maxOrd         float64
	Count, DistinctCount   int64
}

// Histogram estimates predicate selectivity over one column (§4.6).
type Histogram struct {
	dataType types.DataType
	alphabet *types.Alphabet // non-nil only for StringType histograms
	variant  Variant
	buckets  []Bucket
	total    int64
}

// point is one distinct value plus its row count, the raw material every
// bucket-partitioning variant consumes.
type point struct {
	value types.Field
	ord   float64
	count int64
}

func numericOrdinal[T constraints.Integer | constraints.Float](v T) float64 { return float64(v) }

// ordinalOf maps a Field to a float64 preserving its type's natural
// order, so every variant's bucket math (interpolation, width, ranking)
// runs over a single numeric domain regardless of underlying type.
func ordinalOf(dt types.DataType, f types.Field, alphabet *types.Alphabet) (float64, error) {
	switch dt {
	case types.Int32Type:
		return numericOrdinal(f.(*types.Int32Field).Value), nil
	case types.Int64Type:
		return numericOrdinal(f.(*types.Int64Field).Value), nil
	case types.Float32Type:
		return numericOrdinal(f.(*types.Float32Field).Value), nil
	case types.Float64Type:
		return numericOrdinal(f.(*types.Float64Field).Value), nil
	case types.StringType:
		return stringOrdinal(alphabet, f.(*types.StringField).Value), nil
	default:
		return 0, fmt.Errorf("statistics: type %s has no histogram ordinal", dt)
	}
}

// stringOrdinal encodes s as a base-|alphabet| fraction in [0,1),
// preserving lexicographic order, so string buckets can reuse the exact
// same interpolation arithmetic as numeric buckets.
func stringOrdinal(alphabet *types.Alphabet, s string) float64 {
	base := float64(alphabet.Base())
	ord := 0.0
	scale := 1.0
	for _, r := range s {
		scale /= base
		ord += float64(alphabet.IndexOf(r)+1) * scale
	}
	return ord
}

// nextOrdinal returns the ordinal of the value immediately after f: for
// floats, math.Nextafter; for ints, f+1; for strings, the alphabet's
// NextValue (§4.6's LessThan boundary convention).
func nextOrdinal(dt types.DataType, f types.Field, alphabet *types.Alphabet) (float64, error) {
	switch dt {
	case types.Int32Type:
		return numericOrdinal(f.(*types.Int32Field).Value + 1), nil
	case types.Int64Type:
		return numericOrdinal(f.(*types.Int64Field).Value + 1), nil
	case types.Float32Type:
		v := float64(f.(*types.Float32Field).Value)
		return math.Nextafter(v, math.Inf(1)), nil
	case types.Float64Type:
		v := f.(*types.Float64Field).Value
		return math.Nextafter(v, math.Inf(1)), nil
	case types.StringType:
		next, err := alphabet.NextValue(f.(*types.StringField).Value)
		if err != nil {
			return 0, err
		}
		return stringOrdinal(alphabet, next), nil
	default:
		return 0, fmt.Errorf("statistics: type %s has no successor ordinal", dt)
	}
}

// VariantBuckets is NewHistogram's partitioning request: which variant,
// and how many buckets to target.
type VariantBuckets struct {
	Variant Variant
	Target  int
}

// NewHistogram partitions sortedDistinct (ascending, deduplicated) with
// parallel per-value row counts into a Histogram (§3.4).
func NewHistogram(dt types.DataType, alphabet *types.Alphabet, sortedDistinct []types.Field, counts []int64, req VariantBuckets) (*Histogram, error) {
	if len(sortedDistinct) != len(counts) {
		return nil, fmt.Errorf("statistics: value/count length mismatch (%d vs %d)", len(sortedDistinct), len(counts))
	}
	if dt == types.StringType && alphabet == nil {
		return nil, fmt.Errorf("statistics: string histograms require an alphabet")
	}
	if req.Target <= 0 {
		return nil, fmt.Errorf("statistics: target bucket count must be positive")
	}

	points := make([]point, len(sortedDistinct))
	var total int64
	for i, v := range sortedDistinct {
		ord, err := ordinalOf(dt, v, alphabet)
		if err != nil {
			return nil, err
		}
		points[i] = point{value: v, ord: ord, count: counts[i]}
		total += counts[i]
	}
	sort.Slice(points, func(i, j int) bool { return points[i].ord < points[j].ord })

	var buckets []Bucket
	switch req.Variant {
	case EqualNumElements:
		buckets = partitionEqualNumElements(points, req.Target)
	case EqualWidth:
		buckets = partitionEqualWidth(points, req.Target)
	case EqualHeight:
		buckets = partitionEqualHeight(points, req.Target, total)
	default:
		return nil, fmt.Errorf("statistics: unknown histogram variant %d", req.Variant)
	}

	return &Histogram{dataType: dt, alphabet: alphabet, variant: req.Variant, buckets: buckets, total: total}, nil
}

func bucketFromPoints(pts []point) Bucket {
	var count, distinct int64
	for _, p := range pts {
		count += p.count
		distinct++
	}
	return Bucket{
		Min: pts[0].value, Max: pts[len(pts)-1].value,
		minOrd: pts[0].ord, maxOrd: pts[len(pts)-1].ord,
		Count: count, DistinctCount: distinct,
	}
}

// partitionEqualNumElements gives every bucket ⌊D/B⌋ distinct values,
// with D mod B leading buckets getting one extra (§3.4).
func partitionEqualNumElements(points []point, targetBuckets int) []Bucket {
	d := len(points)
	b := targetBuckets
	if b > d {
		b = d
	}
	base, rem := d/b, d%b
	var buckets []Bucket
	idx := 0
	for i := 0; i < b; i++ {
		size := base
		if i < rem {
			size++
		}
		buckets = append(buckets, bucketFromPoints(points[idx:idx+size]))
		idx += size
	}
	return buckets
}

// partitionEqualWidth divides [vmin, vmax] into B intervals of equal
// float64 ordinal width; the last interval's upper bound is vmax itself,
// and an interval holding no value yields no bucket (§3.4). Widths are not
// rounded to whole units, so no interval absorbs a remainder.
func partitionEqualWidth(points []point, targetBuckets int) []Bucket {
	vmin, vmax := points[0].ord, points[len(points)-1].ord
	width := (vmax - vmin) / float64(targetBuckets)
	if width <= 0 {
		return []Bucket{bucketFromPoints(points)}
	}

	var buckets []Bucket
	idx := 0
	for i := 0; i < targetBuckets && idx < len(points); i++ {
		upper := vmin + width*float64(i+1)
		if i == targetBuckets-1 {
			upper = vmax
		}
		start := idx
		for idx < len(points) && (points[idx].ord <= upper || i == targetBuckets-1) {
			idx++
		}
		if idx == start {
			continue
		}
		buckets = append(buckets, bucketFromPoints(points[start:idx]))
	}
	return buckets
}

// partitionEqualHeight targets total/B rows per bucket; ties in the
// cumulative count may force fewer realised buckets than requested
// (§3.4).
func partitionEqualHeight(points []point, targetBuckets int, total int64) []Bucket {
	targetHeight := total / int64(targetBuckets)
	if targetHeight <= 0 {
		targetHeight = 1
	}

	var buckets []Bucket
	start := 0
	var running int64
	for i, p := range points {
		running += p.count
		last := i == len(points)-1
		if running >= targetHeight && !last {
			buckets = append(buckets, bucketFromPoints(points[start:i+1]))
			start = i + 1
			running = 0
		} else if last {
			buckets = append(buckets, bucketFromPoints(points[start:i+1]))
		}
	}
	return buckets
}

// bucketOf returns the bucket whose range contains ord, if any.
func (h *Histogram) bucketOf(ord float64) (Bucket, bool) {
	for _, b := range h.buckets {
		if ord >= b.minOrd && ord <= b.maxOrd {
			return b, true
		}
	}
	return Bucket{}, false
}

// lessThanCardinality sums full buckets strictly below v plus a linear
// interpolation fraction of the bucket containing v (§4.6).
func (h *Histogram) lessThanCardinality(v types.Field) (float64, error) {
	ord, err := ordinalOf(h.dataType, v, h.alphabet)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, b := range h.buckets {
		if b.maxOrd < ord {
			total += float64(b.Count)
			continue
		}
		if ord < b.minOrd {
			continue
		}
		nextMax, err := nextOrdinal(h.dataType, b.Max, h.alphabet)
		if err != nil {
			return 0, err
		}
		denom := nextMax - b.minOrd
		if denom <= 0 {
			continue
		}
		frac := (ord - b.minOrd) / denom
		if frac < 0 {
			frac = 0
		}
		if frac > 1 {
			frac = 1
		}
		total += frac * float64(b.Count)
	}
	return total, nil
}

// EstimateCardinality implements §4.6's estimate_cardinality(v, op).
func (h *Histogram) EstimateCardinality(v types.Field, op types.Predicate) (float64, error) {
	switch op {
	case types.Equals:
		ord, err := ordinalOf(h.dataType, v, h.alphabet)
		if err != nil {
			return 0, err
		}
		b, ok := h.bucketOf(ord)
		if !ok || b.DistinctCount == 0 {
			return 0, nil
		}
		return float64(b.Count) / float64(b.DistinctCount), nil

	case types.NotEquals:
		eq, err := h.EstimateCardinality(v, types.Equals)
		if err != nil {
			return 0, err
		}
		return math.Max(float64(h.total)-eq, 0), nil

	case types.LessThan:
		return h.lessThanCardinality(v)

	case types.LessThanOrEqual:
		next, err := h.nextValue(v)
		if err != nil {
			return 0, err
		}
		return h.lessThanCardinality(next)

	case types.GreaterThanOrEqual:
		lt, err := h.lessThanCardinality(v)
		if err != nil {
			return 0, err
		}
		return math.Max(float64(h.total)-lt, 0), nil

	case types.GreaterThan:
		next, err := h.nextValue(v)
		if err != nil {
			return 0, err
		}
		lt, err := h.lessThanCardinality(next)
		if err != nil {
			return 0, err
		}
		return math.Max(float64(h.total)-lt, 0), nil

	default:
		return 0, fmt.Errorf("statistics: unsupported predicate %s for histogram estimation", op)
	}
}

// CanPrune implements §4.6's can_prune(v, op): true guarantees the true
// result is empty.
func (h *Histogram) CanPrune(v types.Field, op types.Predicate) (bool, error) {
	est, err := h.EstimateCardinality(v, op)
	if err != nil {
		return false, err
	}
	return est <= 0, nil
}

func (h *Histogram) nextValue(v types.Field) (types.Field, error) {
	switch h.dataType {
	case types.Int32Type:
		return types.NewInt32Field(v.(*types.Int32Field).Value + 1), nil
	case types.Int64Type:
		return types.NewInt64Field(v.(*types.Int64Field).Value + 1), nil
	case types.Float32Type:
		f := v.(*types.Float32Field).Value
		return types.NewFloat32Field(float32(math.Nextafter(float64(f), math.Inf(1)))), nil
	case types.Float64Type:
		f := v.(*types.Float64Field).Value
		return types.NewFloat64Field(math.Nextafter(f, math.Inf(1))), nil
	case types.StringType:
		next, err := h.alphabet.NextValue(v.(*types.StringField).Value)
		if err != nil {
			return nil, err
		}
		return types.NewStringField(next), nil
	default:
		return nil, fmt.Errorf("statistics: type %s has no successor", h.dataType)
	}
}

// Total is the histogram's total row count.
func (h *Histogram) Total() int64 { return h.total }

// Buckets exposes the realised buckets, for tests and introspection.
func (h *Histogram) Buckets() []Bucket { return h.buckets }
