package gallery

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// keyTimeLayout is fixed-width UTC, so lexicographic order on keys is upload
// order and sorting descending yields newest first.
const keyTimeLayout = "20060102T150405.000Z"

// NewStorageKey synthesizes a collision-resistant storage key for an uploaded
// file: a sortable timestamp prefix, a random token, and the original
// extension. Repeated uploads of the same filename never collide. An empty or
// unrecognized extension still produces a valid key.
func NewStorageKey(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return time.Now().UTC().Format(keyTimeLayout) + "_" + uuid.NewString() + ext
}
