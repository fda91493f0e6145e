package extract

import (
	"fmt"
	"os"
)

// UniquePath returns base if nothing exists there, otherwise the first
// of base.1, base.2, ... that is unused. Used so repeated nested
// archives with the same name never collide.
func UniquePath(base string) string {
	if _, err := os.Lstat(base); err != nil {
		return base
	}
	for i := 1; ; i++ {
		cand := fmt.Sprintf("%s.%d", base, i)
		if _, err := os.Lstat(cand); err != nil {
			return cand
		}
	}
}
