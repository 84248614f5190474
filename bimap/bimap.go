// Package bimap implements a bidirectional map. The mode vocabulary tables use
// it to translate between device strings and Home Assistant strings without
// maintaining two mirrored maps by hand.
package bimap

// BiMap holds pairs that can be looked up from either side.
type BiMap struct {
	immutable bool
	forward   map[interface{}]interface{}
	inverse   map[interface{}]interface{}
}

// NewBiMap returns an empty, mutable BiMap.
func NewBiMap() *BiMap {
	return &BiMap{
		forward: make(map[interface{}]interface{}),
		inverse: make(map[interface{}]interface{}),
	}
}

// Insert adds a key/value pair, replacing any previous pairing of either side.
func (b *BiMap) Insert(key, value interface{}) {
	b.mustBeMutable()
	if oldValue, ok := b.forward[key]; ok {
		delete(b.inverse, oldValue)
	}
	if oldKey, ok := b.inverse[value]; ok {
		delete(b.forward, oldKey)
	}
	b.forward[key] = value
	b.inverse[value] = key
}

// Get looks a value up by key.
func (b *BiMap) Get(key interface{}) (interface{}, bool) {
	value, ok := b.forward[key]
	return value, ok
}

// GetInverse looks a key up by value.
func (b *BiMap) GetInverse(value interface{}) (interface{}, bool) {
	key, ok := b.inverse[value]
	return key, ok
}

// Exists reports whether the key is present.
func (b *BiMap) Exists(key interface{}) bool {
	_, ok := b.forward[key]
	return ok
}

// ExistsInverse reports whether the value is present.
func (b *BiMap) ExistsInverse(value interface{}) bool {
	_, ok := b.inverse[value]
	return ok
}

// Delete removes the pair with the given key, if present.
func (b *BiMap) Delete(key interface{}) {
	b.mustBeMutable()
	value, ok := b.forward[key]
	if !ok {
		return
	}
	delete(b.forward, key)
	delete(b.inverse, value)
}

// DeleteInverse removes the pair with the given value, if present.
func (b *BiMap) DeleteInverse(value interface{}) {
	b.mustBeMutable()
	key, ok := b.inverse[value]
	if !ok {
		return
	}
	delete(b.forward, key)
	delete(b.inverse, value)
}

// Size returns the number of pairs.
func (b *BiMap) Size() int {
	return len(b.forward)
}

// GetForwardMap returns the key-to-value map.
func (b *BiMap) GetForwardMap() map[interface{}]interface{} {
	return b.forward
}

// GetInverseMap returns the value-to-key map.
func (b *BiMap) GetInverseMap() map[interface{}]interface{} {
	return b.inverse
}

// MakeImmutable freezes the map. Mutation afterwards panics. The vocabulary
// tables are frozen at package init so a misplaced Insert fails loudly.
func (b *BiMap) MakeImmutable() {
	b.immutable = true
}

func (b *BiMap) mustBeMutable() {
	if b.immutable {
		panic("BiMap is immutable")
	}
}
