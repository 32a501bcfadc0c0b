package segment

import (
	"fmt"
	"sort"

	"coredb/pkg/types"
)

// attributeVector is a compressed vector of dictionary indices, width-sized
// to the smallest unsigned integer type that can hold maxValue (§3.2:
// "attribute vector width chosen from dictionary cardinality").
type attributeVector interface {
	Len() int
	Get(i int) uint32
	Set(i int, v uint32)
}

type attrVecU8 []uint8
type attrVecU16 []uint16
type attrVecU32 []uint32

func (a attrVecU8) Len() int          { return len(a) }
func (a attrVecU8) Get(i int) uint32  { return uint32(a[i]) }
func (a attrVecU8) Set(i int, v uint32) { a[i] = uint8(v) }

func (a attrVecU16) Len() int          { return len(a) }
func (a attrVecU16) Get(i int) uint32  { return uint32(a[i]) }
func (a attrVecU16) Set(i int, v uint32) { a[i] = uint16(v) }

func (a attrVecU32) Len() int          { return len(a) }
func (a attrVecU32) Get(i int) uint32  { return a[i] }
func (a attrVecU32) Set(i int, v uint32) { a[i] = v }

// newAttributeVector allocates an attribute vector sized to represent
// values in [0, maxValue] (maxValue = dictionary.size(), the null id).
func newAttributeVector(length int, maxValue uint32) attributeVector {
	switch {
	case maxValue <= 0xFF:
		return make(attrVecU8, length)
	case maxValue <= 0xFFFF:
		return make(attrVecU16, length)
	default:
		return make(attrVecU32, length)
	}
}

// DictionarySegment stores a sorted, deduplicated dictionary of distinct
// values plus a compressed attribute vector of dictionary indices per row.
// A distinguished index equal to len(dictionary) encodes NULL (§3.2).
type DictionarySegment struct {
	dataType   types.DataType
	dictionary []types.Field // strictly sorted, unique
	attrVec    attributeVector
	nullID     uint32
}

// Dictionary returns the sorted-unique dictionary vector.
func (ds *DictionarySegment) Dictionary() []types.Field { return ds.dictionary }

// NullValueID is the attribute-vector index that encodes NULL:
// len(dictionary).
func (ds *DictionarySegment) NullValueID() uint32 { return ds.nullID }

func (ds *DictionarySegment) Type() types.DataType { return ds.dataType }
func (ds *DictionarySegment) Size() int            { return ds.attrVec.Len() }
func (ds *DictionarySegment) Nullable() bool       { return true }

func (ds *DictionarySegment) At(i int) (types.Field, bool, error) {
	if i < 0 || i >= ds.attrVec.Len() {
		return nil, false, fmt.Errorf("segment: offset %d out of range [0,%d)", i, ds.attrVec.Len())
	}
	id := ds.attrVec.Get(i)
	if id == ds.nullID {
		return nil, true, nil
	}
	return ds.dictionary[id], false, nil
}

func (ds *DictionarySegment) Iterate(fn func(value types.Field, isNull bool, offset int) error) error {
	for i := 0; i < ds.attrVec.Len(); i++ {
		id := ds.attrVec.Get(i)
		if id == ds.nullID {
			if err := fn(nil, true, i); err != nil {
				return err
			}
			continue
		}
		if err := fn(ds.dictionary[id], false, i); err != nil {
			return err
		}
	}
	return nil
}

// ValueID performs the binary search from §4.2 step 4: the dictionary
// index of v, or (0, false) if v is not present.
func (ds *DictionarySegment) ValueID(v types.Field) (uint32, bool) {
	n := len(ds.dictionary)
	idx := sort.Search(n, func(i int) bool { return !ds.dictionary[i].Less(v) })
	if idx < n && ds.dictionary[idx].Equals(v) {
		return uint32(idx), true
	}
	return 0, false
}
