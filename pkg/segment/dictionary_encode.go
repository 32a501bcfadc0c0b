package segment

import (
	"github.com/google/btree"

	"coredb/pkg/types"
)

// fieldItem adapts a types.Field to btree.Item so the dictionary-build
// step (§4.2 steps 1-2: "build the dictionary... sort ascending;
// deduplicate") can use an ordered in-memory tree instead of a
// sort-then-manual-dedup pass — the same shape as an in-memory sorted
// index, just built once at encode time and then flattened.
type fieldItem struct{ f types.Field }

func (a fieldItem) Less(than btree.Item) bool {
	return a.f.Less(than.(fieldItem).f)
}

// EncodeDictionary builds a DictionarySegment from a ValueSegment,
// following the contract of §4.2:
//  1. build the dictionary from non-null values,
//  2. sort ascending and deduplicate,
//  3. assign null_value_id = dictionary.size(),
//  4. build an attribute vector via binary search (or the null id),
//  5. compress the attribute vector to a width sized for
//     dictionary.size()+1.
func EncodeDictionary(vs *ValueSegment) (*DictionarySegment, error) {
	tree := btree.New(32)
	err := vs.Iterate(func(value types.Field, isNull bool, offset int) error {
		if isNull {
			return nil
		}
		tree.ReplaceOrInsert(fieldItem{value})
		return nil
	})
	if err != nil {
		return nil, err
	}

	dictionary := make([]types.Field, 0, tree.Len())
	tree.Ascend(func(item btree.Item) bool {
		dictionary = append(dictionary, item.(fieldItem).f)
		return true
	})

	nullID := uint32(len(dictionary))
	attrVec := newAttributeVector(vs.Size(), nullID)

	ds := &DictionarySegment{
		dataType:   vs.Type(),
		dictionary: dictionary,
		attrVec:    attrVec,
		nullID:     nullID,
	}

	err = vs.Iterate(func(value types.Field, isNull bool, offset int) error {
		if isNull {
			attrVec.Set(offset, nullID)
			return nil
		}
		id, ok := ds.ValueID(value)
		if !ok {
			// Cannot happen: every non-null value was inserted into tree
			// above, so it must resolve to a dictionary entry.
			return errNotInDictionary(value)
		}
		attrVec.Set(offset, id)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return ds, nil
}

func errNotInDictionary(v types.Field) error {
	return &dictionaryError{value: v}
}

type dictionaryError struct{ value types.Field }

func (e *dictionaryError) Error() string {
	return "segment: value " + e.value.String() + " missing from its own dictionary (invariant violation)"
}
