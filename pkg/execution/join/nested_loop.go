package join

import (
	"context"
	"fmt"

	engerr "coredb/pkg/error"
	"coredb/pkg/execution"
	"coredb/pkg/iterator"
	"coredb/pkg/logging"
	"coredb/pkg/primitives"
	"coredb/pkg/segment"
	"coredb/pkg/storage"
	"coredb/pkg/types"

	"golang.org/x/sync/errgroup"
)

// NestedLoopJoin implements the block/reference nested-loop join
// algorithm of §4.5, over the two child operators feeding it. For a
// Right join, (Left, Right) and the predicate are swapped internally to
// make the fully-preserved side "left" for the duration of the algorithm
// (§4.5); the swap is reflected in the emitted column order, matching the
// pseudocode literally.
type NestedLoopJoin struct {
	execution.Base

	Left, Right execution.Operator
	Mode        Mode
	Predicate   execution.ColumnPredicate

	ChunkCapacity int
	Workers       int
}

// NewNestedLoopJoin builds a join operator over two child operators.
func NewNestedLoopJoin(left, right execution.Operator, mode Mode, pred execution.ColumnPredicate, chunkCapacity, workers int) *NestedLoopJoin {
	return &NestedLoopJoin{
		Left:          left,
		Right:         right,
		Mode:          mode,
		Predicate:     pred,
		ChunkCapacity: chunkCapacity,
		Workers:       workers,
	}
}

func (j *NestedLoopJoin) DeepCopy() execution.Operator {
	return &NestedLoopJoin{
		Left:          j.Left.DeepCopy(),
		Right:         j.Right.DeepCopy(),
		Mode:          j.Mode,
		Predicate:     j.Predicate,
		ChunkCapacity: j.ChunkCapacity,
		Workers:       j.Workers,
	}
}

// chunkResult is the per-outer-chunk partial output computed by one
// fork-join worker (§5): a slice of the final PosLists plus, for outer
// modes, the match bitsets needed to NULL-extend unmatched rows.
type chunkResult struct {
	posLeft, posRight segment.PosList
	leftMatches       *primitives.MatchSet
	rightHits         map[primitives.ChunkID]*primitives.MatchSet
}

// Execute runs the join to completion, materializing a single References
// output chunk (§4.5). Idempotent per §4.4.
func (j *NestedLoopJoin) Execute(ctx context.Context) (*storage.Table, error) {
	if j.Executed() {
		out, _ := j.GetOutput()
		return out, nil
	}
	log := logging.WithOperator("NestedLoopJoin")

	left, err := j.Left.Execute(ctx)
	if err != nil {
		return nil, err
	}
	right, err := j.Right.Execute(ctx)
	if err != nil {
		return nil, err
	}

	mode, pred := j.Mode, j.Predicate
	if mode == Right {
		left, right = right, left
		pred = pred.Flip()
		mode = Left
	}

	if mode == Cross {
		return j.materializeCross(left, right)
	}

	results := make([]chunkResult, left.ChunkCount())
	group, gctx := errgroup.WithContext(ctx)
	if j.Workers > 0 {
		group.SetLimit(j.Workers)
	}

	for chunkIdx := 0; chunkIdx < left.ChunkCount(); chunkIdx++ {
		chunkIdx := chunkIdx
		group.Go(func() error {
			if err := gctx.Err(); err != nil {
				return engerr.Wrap(err, "JOIN_CANCELLED", "NestedLoopJoin", "join")
			}
			res, err := joinOneLeftChunk(left, right, primitives.ChunkID(chunkIdx), mode, pred)
			if err != nil {
				return err
			}
			results[chunkIdx] = res
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	posLeft, posRight := mergeResults(results)
	if mode == Outer {
		appendUnmatchedRight(&posLeft, &posRight, results, right)
	}

	outTable, err := j.materialize(left, right, posLeft, posRight, mode)
	if err != nil {
		return nil, err
	}
	log.Debug("join complete", "left_chunks", left.ChunkCount(), "right_chunks", right.ChunkCount(), "rows", outTable.RowCount())

	j.SetOutput(outTable)
	return outTable, nil
}

// joinOneLeftChunk runs the inner two loops of §4.5's algorithm for a
// single left chunk against every right chunk, returning that chunk's
// contribution to the output PosLists.
func joinOneLeftChunk(left, right *storage.Table, chunkL primitives.ChunkID, mode Mode, pred execution.ColumnPredicate) (chunkResult, error) {
	lChunk := left.GetChunk(int(chunkL))
	lCol := lChunk.Column(pred.LeftColumn)

	res := chunkResult{}
	if mode.leftOuterExtends() || mode.isSetFilter() {
		res.leftMatches = primitives.NewMatchSet()
	}
	if mode == Outer {
		res.rightHits = make(map[primitives.ChunkID]*primitives.MatchSet)
	}

	lValues, lNulls, err := materializeColumn(lCol)
	if err != nil {
		return res, err
	}

	for chunkR := 0; chunkR < right.ChunkCount(); chunkR++ {
		rChunk := right.GetChunk(chunkR)
		rCol := rChunk.Column(pred.RightColumn)
		rValues, rNulls, err := materializeColumn(rCol)
		if err != nil {
			return res, err
		}

		var rightMatches *primitives.MatchSet
		if mode == Outer {
			rightMatches = primitives.NewMatchSet()
			res.rightHits[primitives.ChunkID(chunkR)] = rightMatches
		}

		for lOff, lVal := range lValues {
			if lNulls[lOff] {
				continue
			}
			for rOff, rVal := range rValues {
				if rNulls[rOff] {
					continue
				}
				matched, err := lVal.Compare(pred.Op, rVal)
				if err != nil {
					return res, engerr.Wrap(err, "JOIN_PREDICATE_FAILED", "NestedLoopJoin", "join")
				}
				if !matched {
					continue
				}
				res.posLeft = append(res.posLeft, primitives.RowID{ChunkID: chunkL, ChunkOffset: primitives.ChunkOffset(lOff)})
				res.posRight = append(res.posRight, primitives.RowID{ChunkID: primitives.ChunkID(chunkR), ChunkOffset: primitives.ChunkOffset(rOff)})
				if res.leftMatches != nil {
					res.leftMatches.Mark(primitives.ChunkOffset(lOff))
				}
				if rightMatches != nil {
					rightMatches.Mark(primitives.ChunkOffset(rOff))
				}
			}
		}
	}

	if mode.isSetFilter() {
		res.posLeft = applySetFilter(mode, lChunk.RowCount(), chunkL, res.leftMatches)
		res.posRight = nil
		return res, nil
	}

	if mode.leftOuterExtends() {
		res.leftMatches.Unmatched(lChunk.RowCount(), func(off primitives.ChunkOffset) {
			res.posLeft = append(res.posLeft, primitives.RowID{ChunkID: chunkL, ChunkOffset: off})
			res.posRight = append(res.posRight, primitives.NullRowID)
		})
	}

	return res, nil
}

// applySetFilter rebuilds the PosList for Semi/Anti mode: at most one
// entry per left row, no right-side columns emitted (§4.12).
func applySetFilter(mode Mode, rowCount int, chunkL primitives.ChunkID, matches *primitives.MatchSet) segment.PosList {
	var pos segment.PosList
	for off := 0; off < rowCount; off++ {
		matched := matches.Matched(primitives.ChunkOffset(off))
		want := matched
		if mode == Anti {
			want = !matched
		}
		if want {
			pos = append(pos, primitives.RowID{ChunkID: chunkL, ChunkOffset: primitives.ChunkOffset(off)})
		}
	}
	return pos
}

// mergeResults concatenates per-chunk results in chunk order, so the
// output PosList ordering is deterministic regardless of goroutine
// completion order (§5's "position-list ordering is deterministic").
func mergeResults(results []chunkResult) (segment.PosList, segment.PosList) {
	var posLeft, posRight segment.PosList
	for _, r := range results {
		posLeft = append(posLeft, r.posLeft...)
		posRight = append(posRight, r.posRight...)
	}
	return posLeft, posRight
}

// appendUnmatchedRight merges every left-chunk worker's view of which
// right rows it matched, then appends a NULL-extended left side for every
// right row nobody matched, completing the FullOuter branch of §4.5.
func appendUnmatchedRight(posLeft, posRight *segment.PosList, results []chunkResult, right *storage.Table) {
	merged := make(map[primitives.ChunkID]*primitives.MatchSet)
	for _, r := range results {
		for chunkID, ms := range r.rightHits {
			rowCount := right.GetChunk(int(chunkID)).RowCount()
			existing, ok := merged[chunkID]
			if !ok {
				merged[chunkID] = ms
				continue
			}
			for off := 0; off < rowCount; off++ {
				if ms.Matched(primitives.ChunkOffset(off)) {
					existing.Mark(primitives.ChunkOffset(off))
				}
			}
		}
	}
	for chunkIdx := 0; chunkIdx < right.ChunkCount(); chunkIdx++ {
		chunkID := primitives.ChunkID(chunkIdx)
		ms, ok := merged[chunkID]
		rowCount := right.GetChunk(chunkIdx).RowCount()
		if !ok {
			ms = primitives.NewMatchSet()
		}
		ms.Unmatched(rowCount, func(off primitives.ChunkOffset) {
			*posLeft = append(*posLeft, primitives.NullRowID)
			*posRight = append(*posRight, primitives.RowID{ChunkID: chunkID, ChunkOffset: off})
		})
	}
}

// materializeColumn resolves an entire column's values/nulls up front so
// the O(|L|·|R|) inner loop of §4.5 does one iterator dispatch instead of
// re-walking a dictionary or reference indirection per comparison.
func materializeColumn(seg segment.Segment) ([]types.Field, []bool, error) {
	values := make([]types.Field, seg.Size())
	nulls := make([]bool, seg.Size())
	err := iterator.Dispatch(seg, func(value types.Field, isNull bool, offset int) error {
		nulls[offset] = isNull
		if !isNull {
			values[offset] = value
		}
		return nil
	})
	return values, nulls, err
}

// materialize builds the single output References chunk of §4.5: left
// columns followed by right columns (Semi/Anti omit the right side,
// §4.12), each a ReferenceSegment over the flattened PosList.
func (j *NestedLoopJoin) materialize(left, right *storage.Table, posLeft, posRight segment.PosList, mode Mode) (*storage.Table, error) {
	leftSchema := left.Schema()
	var rightSchema []storage.ColumnDef
	if !mode.isSetFilter() {
		rightSchema = right.Schema()
	}

	widenLeft := mode == Right || mode == Outer
	widenRight := mode == Left || mode == Outer

	outSchema := make([]storage.ColumnDef, 0, len(leftSchema)+len(rightSchema))
	for _, c := range leftSchema {
		outSchema = append(outSchema, storage.ColumnDef{Name: c.Name, Type: c.Type, Nullable: c.Nullable || widenLeft})
	}
	for _, c := range rightSchema {
		outSchema = append(outSchema, storage.ColumnDef{Name: c.Name, Type: c.Type, Nullable: c.Nullable || widenRight})
	}

	outTable := storage.NewTable(outSchema, storage.References, j.ChunkCapacity)
	if len(posLeft) == 0 {
		return outTable, nil
	}

	columns := make([]segment.Segment, 0, len(outSchema))
	for colIdx := range leftSchema {
		res := resolveColumn(left, colIdx, j.ChunkCapacity)
		flattened := flattenPosList(res, posLeft)
		columns = append(columns, segment.NewReferenceSegment(res.target, res.targetCol, &flattened))
	}
	if !mode.isSetFilter() {
		for colIdx := range rightSchema {
			res := resolveColumn(right, colIdx, j.ChunkCapacity)
			flattened := flattenPosList(res, posRight)
			columns = append(columns, segment.NewReferenceSegment(res.target, res.targetCol, &flattened))
		}
	}

	if err := outTable.AppendChunk(columns, nil); err != nil {
		return nil, fmt.Errorf("join: %w", err)
	}
	return outTable, nil
}

// materializeCross builds the unrestricted Cartesian product for Cross
// mode: every left row paired with every right row, no predicate applied.
func (j *NestedLoopJoin) materializeCross(left, right *storage.Table) (*storage.Table, error) {
	var posLeft, posRight segment.PosList
	for cl := 0; cl < left.ChunkCount(); cl++ {
		lRows := left.GetChunk(cl).RowCount()
		for lo := 0; lo < lRows; lo++ {
			for cr := 0; cr < right.ChunkCount(); cr++ {
				rRows := right.GetChunk(cr).RowCount()
				for ro := 0; ro < rRows; ro++ {
					posLeft = append(posLeft, primitives.RowID{ChunkID: primitives.ChunkID(cl), ChunkOffset: primitives.ChunkOffset(lo)})
					posRight = append(posRight, primitives.RowID{ChunkID: primitives.ChunkID(cr), ChunkOffset: primitives.ChunkOffset(ro)})
				}
			}
		}
	}
	outTable, err := j.materialize(left, right, posLeft, posRight, Cross)
	if err != nil {
		return nil, err
	}
	j.SetOutput(outTable)
	return outTable, nil
}
