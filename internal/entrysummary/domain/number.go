package domain

import (
	"fmt"
	"strings"
	"time"
)

// FormatEntryNumber renders <prefix><YY><seq> with a seven digit sequence.
func FormatEntryNumber(prefix string, at time.Time, seq int64) string {
	return fmt.Sprintf("%s%02d%07d", strings.ToUpper(strings.TrimSpace(prefix)), at.Year()%100, seq)
}
