package segment

import (
	"fmt"
	"sort"
	"strings"

	"coredb/pkg/types"
)

// FixedStringDictionarySegment is a DictionarySegment specialized for
// strings that all fit within a bounded length: the dictionary is packed
// into a single fixed-width buffer instead of a slice of *StringField,
// trading dictionary memory for a predictable stride (§3.2).
type FixedStringDictionarySegment struct {
	width      int // packed slot width in bytes, right-padded
	packed     []byte
	dictSize   int
	attrVec    attributeVector
	nullID     uint32
}

// EncodeFixedStringDictionary builds a FixedStringDictionarySegment from a
// ValueSegment<String>, following §4.2's contract with the fixed-width
// packing addition: every string is right-padded with NUL bytes to the
// width of the longest observed string, but equality/ordering always
// compares the original (unpadded) string (§4.2 guarantee).
func EncodeFixedStringDictionary(vs *ValueSegment) (*FixedStringDictionarySegment, error) {
	if vs.Type() != types.StringType {
		return nil, fmt.Errorf("segment: FixedStringDictionarySegment requires a string ValueSegment, got %s", vs.Type())
	}

	distinct := map[string]struct{}{}
	maxLen := 0
	err := vs.Iterate(func(value types.Field, isNull bool, offset int) error {
		if isNull {
			return nil
		}
		s := value.(*types.StringField).Value
		distinct[s] = struct{}{}
		if len(s) > maxLen {
			maxLen = len(s)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sorted := make([]string, 0, len(distinct))
	for s := range distinct {
		sorted = append(sorted, s)
	}
	sort.Strings(sorted)

	width := maxLen
	if width == 0 {
		width = 1
	}
	packed := make([]byte, 0, width*len(sorted))
	for _, s := range sorted {
		packed = append(packed, []byte(s)...)
		packed = append(packed, make([]byte, width-len(s))...)
	}

	nullID := uint32(len(sorted))
	fs := &FixedStringDictionarySegment{
		width:    width,
		packed:   packed,
		dictSize: len(sorted),
		nullID:   nullID,
	}
	attrVec := newAttributeVector(vs.Size(), nullID)
	fs.attrVec = attrVec

	err = vs.Iterate(func(value types.Field, isNull bool, offset int) error {
		if isNull {
			attrVec.Set(offset, nullID)
			return nil
		}
		s := value.(*types.StringField).Value
		id, ok := fs.valueID(s)
		if !ok {
			return fmt.Errorf("segment: %q missing from its own fixed-string dictionary", s)
		}
		attrVec.Set(offset, id)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return fs, nil
}

func (fs *FixedStringDictionarySegment) slot(id int) string {
	start := id * fs.width
	return strings.TrimRight(string(fs.packed[start:start+fs.width]), "\x00")
}

func (fs *FixedStringDictionarySegment) valueID(s string) (uint32, bool) {
	n := fs.dictSize
	idx := sort.Search(n, func(i int) bool { return fs.slot(i) >= s })
	if idx < n && fs.slot(idx) == s {
		return uint32(idx), true
	}
	return 0, false
}

func (fs *FixedStringDictionarySegment) Type() types.DataType { return types.StringType }
func (fs *FixedStringDictionarySegment) Size() int            { return fs.attrVec.Len() }
func (fs *FixedStringDictionarySegment) Nullable() bool       { return true }
func (fs *FixedStringDictionarySegment) NullValueID() uint32  { return fs.nullID }
func (fs *FixedStringDictionarySegment) DictionarySize() int  { return fs.dictSize }

func (fs *FixedStringDictionarySegment) DictionaryValue(id int) types.Field {
	return types.NewStringField(fs.slot(id))
}

func (fs *FixedStringDictionarySegment) At(i int) (types.Field, bool, error) {
	if i < 0 || i >= fs.attrVec.Len() {
		return nil, false, fmt.Errorf("segment: offset %d out of range [0,%d)", i, fs.attrVec.Len())
	}
	id := fs.attrVec.Get(i)
	if id == fs.nullID {
		return nil, true, nil
	}
	return fs.DictionaryValue(int(id)), false, nil
}

func (fs *FixedStringDictionarySegment) Iterate(fn func(value types.Field, isNull bool, offset int) error) error {
	for i := 0; i < fs.attrVec.Len(); i++ {
		id := fs.attrVec.Get(i)
		if id == fs.nullID {
			if err := fn(nil, true, i); err != nil {
				return err
			}
			continue
		}
		if err := fn(fs.DictionaryValue(int(id)), false, i); err != nil {
			return err
		}
	}
	return nil
}
