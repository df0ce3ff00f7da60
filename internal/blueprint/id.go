package blueprint

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// IDSource produces blueprint ids for a generation time.
type IDSource func(now time.Time) string

// NewID returns "BP-YYYYMMDD-XXXXXX" where the suffix is six uppercase hex
// characters taken from a random UUID.
func NewID(now time.Time) string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "BP-" + now.UTC().Format("20060102") + "-" + strings.ToUpper(hex[:6])
}
