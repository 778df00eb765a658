package permission

import (
	"fmt"
	"strconv"
)

// ID identifies one catalog permission.
type ID uint8

// Category groups catalog entries for listing and documentation.
type Category uint8

const (
	CategoryInteraction Category = iota + 1
	CategoryCuration
	CategoryLifecycle
	CategoryEditorial
	CategoryModeration
	CategoryMonetization
	CategoryPromotion
	CategoryPublishing
	CategoryQuality
	CategoryAnalytics
	CategoryCollaboration
	CategoryAdministration
)

var categoryNames = map[Category]string{
	CategoryInteraction:    "interaction",
	CategoryCuration:       "curation",
	CategoryLifecycle:      "lifecycle",
	CategoryEditorial:      "editorial",
	CategoryModeration:     "moderation",
	CategoryMonetization:   "monetization",
	CategoryPromotion:      "promotion",
	CategoryPublishing:     "publishing",
	CategoryQuality:        "quality",
	CategoryAnalytics:      "analytics",
	CategoryCollaboration:  "collaboration",
	CategoryAdministration: "administration",
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return "category(" + strconv.Itoa(int(c)) + ")"
}

// MarshalText encodes the category by name.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Entry describes one catalog permission.
type Entry struct {
	ID       ID       `json:"id"`
	Name     string   `json:"name"`
	Category Category `json:"category"`
}

var byName map[string]ID

func init() {
	byName = make(map[string]ID, len(entries))
	for i, e := range entries {
		if int(e.ID) != i+1 {
			panic(fmt.Sprintf("permission: catalog entry %d has id %d, ids must be dense", i+1, e.ID))
		}
		if e.Name == "" {
			panic(fmt.Sprintf("permission: catalog entry %d has no name", e.ID))
		}
		if _, dup := byName[e.Name]; dup {
			panic("permission: duplicate catalog name " + e.Name)
		}
		if _, ok := categoryNames[e.Category]; !ok {
			panic(fmt.Sprintf("permission: catalog entry %s has no category", e.Name))
		}
		byName[e.Name] = e.ID
	}
}

// Catalog returns every entry ordered by id.
func Catalog() []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries[:])
	return out
}

// Lookup returns the catalog entry for id.
func Lookup(id ID) (Entry, error) {
	if err := Validate(id); err != nil {
		return Entry{}, err
	}
	return entries[id-1], nil
}

// ByName resolves an entry by its exact name.
func ByName(name string) (ID, bool) {
	id, ok := byName[name]
	return id, ok
}

func (id ID) String() string {
	if id >= 1 && int(id) <= Count {
		return entries[id-1].Name
	}
	return "permission(" + strconv.Itoa(int(id)) + ")"
}
