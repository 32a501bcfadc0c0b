package execution

import (
	"context"
	"fmt"

	engerr "coredb/pkg/error"
	"coredb/pkg/iterator"
	"coredb/pkg/primitives"
	"coredb/pkg/segment"
	"coredb/pkg/storage"
	"coredb/pkg/types"
)

// Selection filters its child's output down to the rows satisfying every
// one of a conjunction of column-vs-literal predicates, emitting a
// References table over the matching PosList (§4.4: "Selections...
// emit References"). Carrying a conjunction rather than one operator per
// predicate is what §4.11's "collapse adjacent post-filters" step
// compiles down to: a vertex's local edges collapse into one Selection
// instead of a chain. Grounded on the teacher's tuple-at-a-time Filter,
// generalized to the chunk/PosList domain.
type Selection struct {
	Base

	Child      Operator
	Predicates []ColumnPredicate
}

// NewSelection builds a filter over child using a conjunction of
// column-vs-literal predicates (§4.11's push-down target for
// single-vertex predicates).
func NewSelection(child Operator, predicates ...ColumnPredicate) (*Selection, error) {
	if len(predicates) == 0 {
		return nil, fmt.Errorf("execution: selection requires at least one predicate")
	}
	for _, p := range predicates {
		if !p.IsLiteral() {
			return nil, fmt.Errorf("execution: selection predicate must compare a column against a literal")
		}
	}
	return &Selection{Child: child, Predicates: predicates}, nil
}

func (s *Selection) DeepCopy() Operator {
	return &Selection{Child: s.Child.DeepCopy(), Predicates: append([]ColumnPredicate(nil), s.Predicates...)}
}

func (s *Selection) Execute(ctx context.Context) (*storage.Table, error) {
	if s.Executed() {
		out, _ := s.GetOutput()
		return out, nil
	}

	input, err := s.Child.Execute(ctx)
	if err != nil {
		return nil, err
	}

	outSchema := input.Schema()
	outTable := storage.NewTable(outSchema, storage.References, input.ChunkCapacity())

	pos, err := s.matchingRows(ctx, input)
	if err != nil {
		return nil, err
	}
	if len(pos) == 0 {
		s.SetOutput(outTable)
		return outTable, nil
	}

	columns := make([]segment.Segment, len(outSchema))
	for col := range outSchema {
		columns[col] = segment.NewReferenceSegment(input, col, &pos)
	}
	if err := outTable.AppendChunk(columns, nil); err != nil {
		return nil, fmt.Errorf("selection: %w", err)
	}

	s.SetOutput(outTable)
	return outTable, nil
}

// matchingRows scans every chunk of input and collects the RowID of each
// row satisfying every predicate in the conjunction. A null value never
// satisfies any condition, so a row with a null in any predicate column
// is excluded.
func (s *Selection) matchingRows(ctx context.Context, input *storage.Table) (segment.PosList, error) {
	var pos segment.PosList
	for chunkIdx := 0; chunkIdx < input.ChunkCount(); chunkIdx++ {
		if err := ctx.Err(); err != nil {
			return nil, engerr.Wrap(err, "SELECTION_CANCELLED", "Selection", "execution")
		}
		chunk := input.GetChunk(chunkIdx)
		rowCount := chunk.RowCount()
		match := make([]bool, rowCount)
		for i := range match {
			match[i] = true
		}

		for _, pred := range s.Predicates {
			col := chunk.Column(pred.LeftColumn)
			iterErr := iterator.Dispatch(col, func(value types.Field, isNull bool, offset int) error {
				if !match[offset] {
					return nil
				}
				if isNull {
					match[offset] = false
					return nil
				}
				matched, err := value.Compare(pred.Op, pred.Literal)
				if err != nil {
					return err
				}
				match[offset] = matched
				return nil
			})
			if iterErr != nil {
				return nil, fmt.Errorf("selection: %w", iterErr)
			}
		}

		for offset, ok := range match {
			if ok {
				pos = append(pos, primitives.RowID{ChunkID: primitives.ChunkID(chunkIdx), ChunkOffset: primitives.ChunkOffset(offset)})
			}
		}
	}
	return pos, nil
}
