// Package aggregate computes the derived metadata of a protocol from its
// member items: the distinct categories, tags, properties, and uses across
// all items plus the distinct side-effect fragments.
//
// Aggregation is a pure single pass over already-resolved items. It performs
// no I/O, never fails, and is safe for concurrent use. Despite the
// "common_" field names, properties and uses are unions across the items.
package aggregate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/apothecary/pkg/types"
)

// Mode selects where properties and uses come from.
type Mode string

// Aggregation modes.
const (
	// ModeEntity unions the Property and Use entities associated with each
	// item, keyed by id.
	ModeEntity Mode = "entity"

	// ModeFreeText splits each item's PropertiesText and UsesText on commas,
	// keyed by the trimmed fragment.
	ModeFreeText Mode = "free_text"
)

// ErrUnknownMode is returned by New and ParseMode for unrecognized modes.
var ErrUnknownMode = errors.New("unknown aggregation mode")

// ParseMode converts a configuration string into a Mode. The empty string
// selects ModeEntity.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.TrimSpace(s)) {
	case "", ModeEntity:
		return ModeEntity, nil
	case ModeFreeText:
		return ModeFreeText, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Aggregator computes ProtocolAggregatedMetadata in a fixed Mode.
type Aggregator struct {
	mode Mode
}

// New returns an Aggregator for mode.
func New(mode Mode) (*Aggregator, error) {
	m, err := ParseMode(string(mode))
	if err != nil {
		return nil, err
	}
	return &Aggregator{mode: m}, nil
}

// Mode reports the aggregator's mode.
func (a *Aggregator) Mode() Mode {
	return a.mode
}

// Aggregate summarizes items in entity mode.
func Aggregate(items []types.Item) types.ProtocolAggregatedMetadata {
	return aggregate(items, ModeEntity)
}

// Aggregate summarizes items. Output collections are never nil and keep
// the order in which each distinct key was first seen; when the same key
// appears more than once the last instance's value is kept.
func (a *Aggregator) Aggregate(items []types.Item) types.ProtocolAggregatedMetadata {
	return aggregate(items, a.mode)
}

func aggregate(items []types.Item, mode Mode) types.ProtocolAggregatedMetadata {
	categories := newOrderedSet[types.Category]()
	tags := newOrderedSet[types.Tag]()
	properties := newOrderedSet[types.Property]()
	uses := newOrderedSet[types.Use]()
	sideEffects := newOrderedSet[string]()

	for _, item := range items {
		categories.put(item.Category.ID, item.Category)
		for _, tag := range item.Tags {
			tags.put(tag.ID, tag)
		}

		switch mode {
		case ModeFreeText:
			for _, name := range splitOptional(item.PropertiesText) {
				properties.put(name, types.Property{Name: name})
			}
			for _, name := range splitOptional(item.UsesText) {
				uses.put(name, types.Use{Name: name})
			}
		default:
			for _, p := range item.Properties {
				properties.put(p.ID, p)
			}
			for _, u := range item.Uses {
				uses.put(u.ID, u)
			}
		}

		for _, effect := range splitOptional(item.PotentialSideEffects) {
			sideEffects.put(effect, effect)
		}
	}

	return types.ProtocolAggregatedMetadata{
		CommonProperties: properties.values(),
		CommonUses:       uses.values(),
		AllSideEffects:   sideEffects.values(),
		Categories:       categories.values(),
		Tags:             tags.values(),
	}
}

// SplitFragments splits s on commas, trims each fragment, and drops empty
// fragments. Repeats within s are kept; deduplication happens across the
// whole aggregation.
func SplitFragments(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func splitOptional(s *string) []string {
	if s == nil {
		return nil
	}
	return SplitFragments(*s)
}

// orderedSet is a string-keyed map that remembers first-insertion order.
type orderedSet[V any] struct {
	keys []string
	vals map[string]V
}

func newOrderedSet[V any]() *orderedSet[V] {
	return &orderedSet[V]{vals: make(map[string]V)}
}

// put stores v under key, overwriting any earlier value without moving the
// key's position.
func (s *orderedSet[V]) put(key string, v V) {
	if _, ok := s.vals[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.vals[key] = v
}

func (s *orderedSet[V]) values() []V {
	out := make([]V, 0, len(s.keys))
	for _, k := range s.keys {
		out = append(out, s.vals[k])
	}
	return out
}
