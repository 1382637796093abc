package vectorstore

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Collection names must match ^[a-z0-9_]{1,64}$ in both Qdrant and chromem.
const (
	maxCollectionLength = 64
	hashSuffixLength    = 9 // _<8-char-hash>
	collectionPrefix    = "kb_"
)

// CollectionForKB derives the collection name for a knowledge base id.
//
// The id is lowercased, invalid characters become underscores, runs of
// underscores collapse, and overlong names are truncated with a hash suffix
// so distinct ids never collide after truncation.
//
// Examples:
//
//	"kb-A"        -> "kb_kb_a"
//	"9f3c…(uuid)" -> "kb_9f3c…"
func CollectionForKB(kbID string) string {
	var b strings.Builder
	b.Grow(len(kbID))
	for _, r := range strings.ToLower(kbID) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}

	name := b.String()
	for strings.Contains(name, "__") {
		name = strings.ReplaceAll(name, "__", "_")
	}
	name = strings.Trim(name, "_")

	name = collectionPrefix + name
	if len(name) > maxCollectionLength {
		name = truncateWithHash(name)
	}
	return name
}

// truncateWithHash keeps the name prefix and appends a short content hash so
// two long ids with a shared prefix stay distinguishable.
func truncateWithHash(name string) string {
	sum := sha256.Sum256([]byte(name))
	suffix := "_" + hex.EncodeToString(sum[:])[:hashSuffixLength-1]
	return name[:maxCollectionLength-hashSuffixLength] + suffix
}
