package permission

import (
	"fmt"
	"math/bits"
	"strings"
)

const (
	// lowWordIDs is the number of ids held by the low word.
	lowWordIDs = 63
	// MaxID is the highest id a Set can address.
	MaxID = lowWordIDs + 64
)

// Set is a 128-bit permission mask. It is a value type: every operation
// returns a new Set and never mutates the receiver.
type Set struct {
	Low  uint64 `json:"low"`
	High uint64 `json:"high"`
}

// Empty returns a Set with no permission bits.
func Empty() Set {
	return Set{}
}

// Of returns a Set holding the given ids. It panics on an id outside the catalog.
func Of(ids ...ID) Set {
	var s Set
	for _, id := range ids {
		s = s.With(id)
	}
	return s
}

// FromWords builds a Set from raw words.
func FromWords(low, high uint64) Set {
	return Set{Low: low, High: high}
}

// FromColumns builds a Set from the signed bigint representation used in storage.
func FromColumns(flags1, flags2 int64) Set {
	return Set{Low: uint64(flags1), High: uint64(flags2)}
}

// Columns returns the words bit-cast to int64 for bigint columns.
func (s Set) Columns() (flags1, flags2 int64) {
	return int64(s.Low), int64(s.High)
}

// Validate reports whether id is a catalog entry.
func Validate(id ID) error {
	if id < 1 || int(id) > Count {
		return &UnknownPermissionError{ID: id}
	}
	return nil
}

func mustKnow(id ID) {
	if err := Validate(id); err != nil {
		panic(err)
	}
}

// position maps an id to its word and bit without catalog validation.
func position(id ID) (word int, bit uint) {
	if id <= lowWordIDs {
		return 0, uint(id - 1)
	}
	return 1, uint(id - lowWordIDs - 1)
}

// Has reports whether id is set. It panics if id is not in the catalog.
func (s Set) Has(id ID) bool {
	mustKnow(id)
	word, bit := position(id)
	if word == 0 {
		return s.Low&(1<<bit) != 0
	}
	return s.High&(1<<bit) != 0
}

// With returns a copy of s with id set. It panics if id is not in the catalog.
func (s Set) With(id ID) Set {
	mustKnow(id)
	word, bit := position(id)
	if word == 0 {
		s.Low |= 1 << bit
	} else {
		s.High |= 1 << bit
	}
	return s
}

// Without returns a copy of s with id cleared. It panics if id is not in the catalog.
func (s Set) Without(id ID) Set {
	mustKnow(id)
	word, bit := position(id)
	if word == 0 {
		s.Low &^= 1 << bit
	} else {
		s.High &^= 1 << bit
	}
	return s
}

// Union returns the bitwise OR of s and other.
func (s Set) Union(other Set) Set {
	return Set{Low: s.Low | other.Low, High: s.High | other.High}
}

// Intersect returns the bitwise AND of s and other.
func (s Set) Intersect(other Set) Set {
	return Set{Low: s.Low & other.Low, High: s.High & other.High}
}

// Difference returns the bits of s that are not in other.
func (s Set) Difference(other Set) Set {
	return Set{Low: s.Low &^ other.Low, High: s.High &^ other.High}
}

// IsEmpty reports whether no bit is set.
func (s Set) IsEmpty() bool {
	return s.Low == 0 && s.High == 0
}

// Contains reports whether every bit of other is also in s.
func (s Set) Contains(other Set) bool {
	return s.Intersect(other) == other
}

// HasAll reports whether every id is set.
func (s Set) HasAll(ids ...ID) bool {
	return s.Contains(Of(ids...))
}

// HasAny reports whether at least one id is set. An empty list is false.
func (s Set) HasAny(ids ...ID) bool {
	return !s.Intersect(Of(ids...)).IsEmpty()
}

// IDs lists the set ids in ascending order.
func (s Set) IDs() []ID {
	ids := make([]ID, 0, bits.OnesCount64(s.Low)+bits.OnesCount64(s.High))
	for w := s.Low; w != 0; w &= w - 1 {
		ids = append(ids, ID(bits.TrailingZeros64(w)+1))
	}
	for w := s.High; w != 0; w &= w - 1 {
		ids = append(ids, ID(bits.TrailingZeros64(w)+lowWordIDs+1))
	}
	return ids
}

// String renders the set as catalog names, falling back to numeric ids.
func (s Set) String() string {
	ids := s.IDs()
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = id.String()
	}
	return "{" + strings.Join(names, ",") + "}"
}

// AllUpTo returns the Set with ids 1..n set.
func AllUpTo(n int) (Set, error) {
	if n < 0 {
		return Set{}, fmt.Errorf("permission: negative catalog size %d", n)
	}
	if n > MaxID {
		return Set{}, fmt.Errorf("%w: %d ids exceed %d", ErrCatalogOverflow, n, MaxID)
	}
	var s Set
	if n >= lowWordIDs {
		s.Low = 1<<lowWordIDs - 1
	} else {
		s.Low = 1<<uint(n) - 1
	}
	switch high := n - lowWordIDs; {
	case high <= 0:
	case high == 64:
		s.High = ^uint64(0)
	default:
		s.High = 1<<uint(high) - 1
	}
	return s, nil
}

var allKnown = mustAllUpTo(Count)

func mustAllUpTo(n int) Set {
	s, err := AllUpTo(n)
	if err != nil {
		panic(err)
	}
	return s
}

// AllKnown returns the Set with every catalog id set.
func AllKnown() Set {
	return allKnown
}
