package join

import (
	"context"
	"testing"

	"coredb/pkg/execution"
	"coredb/pkg/segment"
	"coredb/pkg/storage"
	"coredb/pkg/types"
)

// leafOperator wraps an already-built table as a zero-work Operator, the
// stand-in a scan node would normally play in these tests.
type leafOperator struct {
	execution.Base
	table *storage.Table
}

func newLeaf(table *storage.Table) *leafOperator { return &leafOperator{table: table} }

func (l *leafOperator) Execute(ctx context.Context) (*storage.Table, error) {
	l.SetOutput(l.table)
	return l.table, nil
}

func (l *leafOperator) DeepCopy() execution.Operator { return &leafOperator{table: l.table} }

func int32Table(t *testing.T, name string, values []int32, nullable bool) *storage.Table {
	t.Helper()
	variants := make([]types.AllTypeVariant, len(values))
	for i, v := range values {
		variants[i] = types.NewVariant(types.NewInt32Field(v))
	}
	seg, err := segment.NewValueSegmentFromVariants(types.Int32Type, variants)
	if err != nil {
		t.Fatalf("build segment: %v", err)
	}
	schema := []storage.ColumnDef{{Name: name, Type: types.Int32Type, Nullable: nullable}}
	table := storage.NewTable(schema, storage.Data, 64)
	if err := table.AppendChunk([]segment.Segment{seg}, nil); err != nil {
		t.Fatalf("append chunk: %v", err)
	}
	return table
}

func equiPredicate() execution.ColumnPredicate {
	return execution.ColumnPredicate{LeftColumn: 0, RightColumn: 0, Op: types.Equals}
}

func fieldAt(t *testing.T, table *storage.Table, chunk, col, row int) (types.Field, bool) {
	t.Helper()
	value, isNull, err := table.GetChunk(chunk).Column(col).At(row)
	if err != nil {
		t.Fatalf("read (%d,%d,%d): %v", chunk, col, row, err)
	}
	return value, isNull
}

func int32Value(t *testing.T, table *storage.Table, chunk, col, row int) (int32, bool) {
	t.Helper()
	v, isNull := fieldAt(t, table, chunk, col, row)
	if isNull {
		return 0, true
	}
	f, ok := v.(*types.Int32Field)
	if !ok {
		t.Fatalf("expected *Int32Field, got %T", v)
	}
	return f.Value, false
}

// TestInnerEquiJoin covers S2: L=[1,2,3,4], R=[3,3,5], inner join on a=b
// yields exactly two rows, both (a=3,b=3).
func TestInnerEquiJoin(t *testing.T) {
	left := int32Table(t, "a", []int32{1, 2, 3, 4}, false)
	right := int32Table(t, "b", []int32{3, 3, 5}, false)

	j := NewNestedLoopJoin(newLeaf(left), newLeaf(right), Inner, equiPredicate(), 64, 0)
	out, err := j.Execute(context.Background())
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if out.RowCount() != 2 {
		t.Fatalf("expected 2 rows, got %d", out.RowCount())
	}
	for row := 0; row < 2; row++ {
		a, _ := int32Value(t, out, 0, 0, row)
		b, _ := int32Value(t, out, 0, 1, row)
		if a != 3 || b != 3 {
			t.Errorf("row %d: got (a=%d, b=%d), want (3,3)", row, a, b)
		}
	}
}

// TestLeftOuterJoinNoMatches covers S3: L=[1], R=[2,3], left outer on
// a=b yields one row (1, null).
func TestLeftOuterJoinNoMatches(t *testing.T) {
	left := int32Table(t, "a", []int32{1}, false)
	right := int32Table(t, "b", []int32{2, 3}, true)

	j := NewNestedLoopJoin(newLeaf(left), newLeaf(right), Left, equiPredicate(), 64, 0)
	out, err := j.Execute(context.Background())
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if out.RowCount() != 1 {
		t.Fatalf("expected 1 row, got %d", out.RowCount())
	}
	a, aNull := int32Value(t, out, 0, 0, 0)
	if aNull || a != 1 {
		t.Fatalf("expected a=1, got null=%v val=%d", aNull, a)
	}
	_, bNull := fieldAt(t, out, 0, 1, 0)
	if !bNull {
		t.Fatalf("expected b=null")
	}
}

// TestInnerJoinNoMatches checks invariant 3's bound (output size <=
// |L|*|R|) on a case with no matches at all: the inner join must emit
// zero rows.
func TestInnerJoinNoMatches(t *testing.T) {
	left := int32Table(t, "a", []int32{1, 2}, false)
	right := int32Table(t, "b", []int32{10, 20}, false)

	j := NewNestedLoopJoin(newLeaf(left), newLeaf(right), Inner, equiPredicate(), 64, 0)
	out, err := j.Execute(context.Background())
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if out.RowCount() != 0 {
		t.Fatalf("expected 0 rows, got %d", out.RowCount())
	}
}

// TestFullOuterJoin checks invariant 4: every L row appears >=1 time and
// every R row appears >=1 time, unmatched rows NULL-extended exactly once.
func TestFullOuterJoin(t *testing.T) {
	left := int32Table(t, "a", []int32{1, 2}, true)
	right := int32Table(t, "b", []int32{2, 3}, true)

	j := NewNestedLoopJoin(newLeaf(left), newLeaf(right), Outer, equiPredicate(), 64, 0)
	out, err := j.Execute(context.Background())
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if out.RowCount() != 3 {
		t.Fatalf("expected 3 rows (1,null) (2,2) (null,3), got %d", out.RowCount())
	}

	seenLeftOne, seenRightThree, matched := false, false, false
	for row := 0; row < out.RowCount(); row++ {
		a, aNull := int32Value(t, out, 0, 0, row)
		b, bNull := int32Value(t, out, 0, 1, row)
		switch {
		case !aNull && a == 1 && bNull:
			seenLeftOne = true
		case !bNull && b == 3 && aNull:
			seenRightThree = true
		case !aNull && !bNull && a == 2 && b == 2:
			matched = true
		default:
			t.Errorf("unexpected row %d: a=%v(null=%v) b=%v(null=%v)", row, a, aNull, b, bNull)
		}
	}
	if !seenLeftOne || !seenRightThree || !matched {
		t.Fatalf("missing expected rows: leftOne=%v rightThree=%v matched=%v", seenLeftOne, seenRightThree, matched)
	}
}

// TestRightJoinNormalization checks that Right join is equivalent to a
// Left join with sides swapped: every right row appears at least once.
func TestRightJoinNormalization(t *testing.T) {
	left := int32Table(t, "a", []int32{1}, false)
	right := int32Table(t, "b", []int32{2, 3}, true)

	j := NewNestedLoopJoin(newLeaf(left), newLeaf(right), Right, equiPredicate(), 64, 0)
	out, err := j.Execute(context.Background())
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if out.RowCount() != 2 {
		t.Fatalf("expected 2 rows, got %d", out.RowCount())
	}
}

// TestCrossJoin verifies the unrestricted Cartesian product size.
func TestCrossJoin(t *testing.T) {
	left := int32Table(t, "a", []int32{1, 2}, false)
	right := int32Table(t, "b", []int32{10, 20, 30}, false)

	j := NewNestedLoopJoin(newLeaf(left), newLeaf(right), Cross, execution.ColumnPredicate{}, 64, 0)
	out, err := j.Execute(context.Background())
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if out.RowCount() != 6 {
		t.Fatalf("expected 6 rows, got %d", out.RowCount())
	}
	if out.GetChunk(0).ColumnCount() != 2 {
		t.Fatalf("expected 2 output columns, got %d", out.GetChunk(0).ColumnCount())
	}
}

// TestSemiJoin verifies Semi mode keeps only matched left rows, with no
// right-side columns in the output (§4.12).
func TestSemiJoin(t *testing.T) {
	left := int32Table(t, "a", []int32{1, 2, 3}, false)
	right := int32Table(t, "b", []int32{2, 3, 3}, false)

	j := NewNestedLoopJoin(newLeaf(left), newLeaf(right), Semi, equiPredicate(), 64, 0)
	out, err := j.Execute(context.Background())
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if out.RowCount() != 2 {
		t.Fatalf("expected 2 rows (a=2,a=3), got %d", out.RowCount())
	}
	if out.GetChunk(0).ColumnCount() != 1 {
		t.Fatalf("expected 1 output column for Semi join, got %d", out.GetChunk(0).ColumnCount())
	}
	for row := 0; row < out.RowCount(); row++ {
		a, _ := int32Value(t, out, 0, 0, row)
		if a != 2 && a != 3 {
			t.Errorf("row %d: unexpected a=%d", row, a)
		}
	}
}

// TestAntiJoin verifies Anti mode keeps only unmatched left rows.
func TestAntiJoin(t *testing.T) {
	left := int32Table(t, "a", []int32{1, 2, 3}, false)
	right := int32Table(t, "b", []int32{2, 3}, false)

	j := NewNestedLoopJoin(newLeaf(left), newLeaf(right), Anti, equiPredicate(), 64, 0)
	out, err := j.Execute(context.Background())
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if out.RowCount() != 1 {
		t.Fatalf("expected 1 row (a=1), got %d", out.RowCount())
	}
	a, _ := int32Value(t, out, 0, 0, 0)
	if a != 1 {
		t.Fatalf("expected a=1, got %d", a)
	}
}

// TestDummyTableFallback verifies that a left outer join against a
// zero-chunk References table doesn't panic and NULL-extends every left
// row, exercising resolveColumn's dummy-table fallback path (§4.3).
func TestDummyTableFallback(t *testing.T) {
	left := int32Table(t, "a", []int32{1, 2}, false)
	emptyRight := storage.NewTable([]storage.ColumnDef{{Name: "b", Type: types.Int32Type, Nullable: true}}, storage.References, 64)

	j := NewNestedLoopJoin(newLeaf(left), newLeaf(emptyRight), Left, equiPredicate(), 64, 0)
	out, err := j.Execute(context.Background())
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if out.RowCount() != 2 {
		t.Fatalf("expected 2 NULL-extended rows joining against an empty table, got %d", out.RowCount())
	}
	for row := 0; row < out.RowCount(); row++ {
		_, bNull := fieldAt(t, out, 0, 1, row)
		if !bNull {
			t.Errorf("row %d: expected b=null", row)
		}
	}
}

// TestPosListFlattening verifies that joining over a References input
// (itself the output of a prior join) emits ReferenceSegments pointing at
// the deepest Data table, not at the intermediate References table.
func TestPosListFlattening(t *testing.T) {
	base := int32Table(t, "a", []int32{10, 20, 30}, false)
	other := int32Table(t, "x", []int32{99, 99, 99}, false)

	firstJoin := NewNestedLoopJoin(newLeaf(base), newLeaf(other), Cross, execution.ColumnPredicate{}, 64, 0)
	intermediate, err := firstJoin.Execute(context.Background())
	if err != nil {
		t.Fatalf("first join: %v", err)
	}
	if intermediate.Type() != storage.References {
		t.Fatalf("expected References table from join output")
	}

	filterRight := int32Table(t, "f", []int32{10}, false)
	secondJoin := NewNestedLoopJoin(newLeaf(intermediate), newLeaf(filterRight), Inner,
		execution.ColumnPredicate{LeftColumn: 0, RightColumn: 0, Op: types.Equals}, 64, 0)
	out, err := secondJoin.Execute(context.Background())
	if err != nil {
		t.Fatalf("second join: %v", err)
	}
	if out.RowCount() != 3 {
		t.Fatalf("expected 3 rows (a=10 crossed with 3 'other' rows), got %d", out.RowCount())
	}
	seg, ok := out.GetChunk(0).Column(0).(*segment.ReferenceSegment)
	if !ok {
		t.Fatalf("expected column 0 to be a ReferenceSegment")
	}
	if seg.ReferencedTable() != segment.ReferenceTarget(base) {
		t.Fatalf("expected flattened reference to point at the base Data table, not the intermediate References table")
	}
}
