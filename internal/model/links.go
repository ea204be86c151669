package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// LinkKind tells the two MapLocationLink shapes apart.
type LinkKind uint8

const (
	// LinkBare is a name-only entry, typically typed in by hand.
	LinkBare LinkKind = iota
	// LinkStructured is a discovered location with place details.
	LinkStructured
)

// MapLocationLink is a maps location attached to a company. It is either
// a bare name or a structured record; use BareLink and StructuredLink to
// build one.
type MapLocationLink struct {
	Kind        LinkKind
	Name        string
	URL         string
	PlaceID     string
	ReviewCount int
	Address     string
}

// BareLink returns a name-only link.
func BareLink(name string) MapLocationLink {
	return MapLocationLink{Kind: LinkBare, Name: strings.TrimSpace(name)}
}

// StructuredLink returns a link with place details.
func StructuredLink(name, url, placeID string, reviewCount int) MapLocationLink {
	return MapLocationLink{
		Kind:        LinkStructured,
		Name:        strings.TrimSpace(name),
		URL:         strings.TrimSpace(url),
		PlaceID:     strings.TrimSpace(placeID),
		ReviewCount: reviewCount,
	}
}

// Key is the merge key: the case-folded display name, or the URL for a
// structured link without a name.
func (l MapLocationLink) Key() string {
	if k := strings.ToLower(strings.TrimSpace(l.Name)); k != "" {
		return k
	}
	if l.Kind == LinkStructured {
		return strings.ToLower(strings.TrimSpace(l.URL))
	}
	return ""
}

// DisplayName returns the name, falling back to the URL.
func (l MapLocationLink) DisplayName() string {
	if l.Name != "" {
		return l.Name
	}
	return l.URL
}

// complete reports whether a structured link carries both a URL and a
// review count.
func (l MapLocationLink) complete() bool {
	return l.Kind == LinkStructured && l.URL != "" && l.ReviewCount > 0
}

// supersedes reports whether l should replace existing under the same key.
func (l MapLocationLink) supersedes(existing MapLocationLink) bool {
	if l.Kind != LinkStructured {
		return false
	}
	if existing.Kind == LinkBare {
		return true
	}
	return !existing.complete()
}

type structuredLinkJSON struct {
	Name         string `json:"name"`
	URL          string `json:"url,omitempty"`
	PlaceID      string `json:"place_id,omitempty"`
	ReviewsCount any    `json:"reviews_count,omitempty"`
	Address      string `json:"address,omitempty"`
}

// MarshalJSON writes a bare link as a string and a structured link as an
// object.
func (l MapLocationLink) MarshalJSON() ([]byte, error) {
	if l.Kind == LinkBare {
		return json.Marshal(l.Name)
	}
	out := structuredLinkJSON{
		Name:    l.Name,
		URL:     l.URL,
		PlaceID: l.PlaceID,
		Address: l.Address,
	}
	if l.ReviewCount > 0 {
		out.ReviewsCount = l.ReviewCount
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts either shape.
func (l *MapLocationLink) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return eris.Wrap(err, "model: decode bare map link")
		}
		*l = BareLink(name)
		return nil
	}

	var raw structuredLinkJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return eris.Wrap(err, "model: decode map link")
	}
	*l = StructuredLink(raw.Name, raw.URL, raw.PlaceID, reviewCount(raw.ReviewsCount))
	l.Address = strings.TrimSpace(raw.Address)
	return nil
}

// reviewCount tolerates the number, string and "1,234" forms the
// discovery job has been seen to emit.
func reviewCount(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(n), ",", "")
		if i, err := strconv.Atoi(s); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int(f)
		}
	}
	return 0
}

// NormalizeLinks trims every entry, drops empty ones and keeps the first
// entry per key, letting a later structured link supersede an earlier
// weaker one in place.
func NormalizeLinks(links []MapLocationLink) []MapLocationLink {
	out := make([]MapLocationLink, 0, len(links))
	index := make(map[string]int, len(links))
	for _, l := range links {
		if l.Kind == LinkBare {
			l = BareLink(l.Name)
		} else {
			addr := strings.TrimSpace(l.Address)
			l = StructuredLink(l.Name, l.URL, l.PlaceID, l.ReviewCount)
			l.Address = addr
		}
		key := l.Key()
		if key == "" {
			continue
		}
		if i, ok := index[key]; ok {
			if l.supersedes(out[i]) {
				out[i] = l
			}
			continue
		}
		index[key] = len(out)
		out = append(out, l)
	}
	return out
}

// MergeLocations merges discovered links into existing ones by display
// name. A discovered structured link replaces a bare entry, or a
// structured entry missing its URL or review count, in its original
// position. Unseen names are appended in discovery order.
func MergeLocations(existing, discovered []MapLocationLink) []MapLocationLink {
	return NormalizeLinks(append(NormalizeLinks(existing), NormalizeLinks(discovered)...))
}
