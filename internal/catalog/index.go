package catalog

import (
	"strings"
)

// IndexEntry is one artist in a letter bucket, shaped for the API layer
type IndexEntry map[string]map[string]any

// BuildIndex produces the alphabetic artist index: artists bucketed by
// the upper-cased first character of their name, read order preserved
// within each bucket. Artists with an empty name are skipped.
func (s *Store) BuildIndex() (map[string][]IndexEntry, error) {
	// Descending name order is what index consumers have always seen
	artists, err := s.GetArtists(nil, &Order{Field: "name", Desc: true})
	if err != nil {
		return nil, err
	}

	index := make(map[string][]IndexEntry)
	for _, artist := range artists {
		name := artist.Get("name")
		if name == "" {
			continue
		}
		first := strings.ToUpper(string([]rune(name)[0]))
		index[first] = append(index[first], IndexEntry{"artist": artist.Public()})
	}
	return index, nil
}
