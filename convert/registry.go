package convert

import (
	"go.uber.org/zap"
)

// maxKeyAttempts bounds regeneration of colliding mark definition keys.
const maxKeyAttempts = 8

// register mints a key that is not live in the open block, builds the
// definition with it and appends it to the block's registry.
func (b *builder) register(keys KeyGenerator, build func(key string) MarkDef) (string, *Error) {
	in := b.current()
	if in == nil {
		return "", imbalance("mark definition outside of a block")
	}
	for attempt := 0; attempt < maxKeyAttempts; attempt++ {
		key := keys.NextKey()
		if key == "" || in.MarkDef(key) != nil {
			b.log.Debug("Regenerating mark definition key", zap.String("key", key), zap.Int("attempt", attempt))
			continue
		}
		in.MarkDefs = append(in.MarkDefs, build(key))
		return key, nil
	}
	return "", imbalance("unable to mint a unique key after %d attempts", maxKeyAttempts)
}

// lookup reports whether key is registered in the open block.
func (b *builder) lookup(key string) bool {
	in := b.current()
	return in != nil && in.MarkDef(key) != nil
}
