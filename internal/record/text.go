package record

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	SourceTimeLayout = "Mon Jan 02 15:04:05 -0700 2006"
	OutputTimeLayout = "02/01/2006 15:04:05"
)

// URLs first so their punctuation does not split them before they are removed.
var noise = regexp.MustCompile(`\w+://\S+|[^0-9A-Za-z \t]`)

// CleanText removes URLs and every character outside ASCII letters, digits and
// blanks, then collapses whitespace. A mention keeps its handle without the sigil.
func CleanText(text string) string {
	return strings.Join(strings.Fields(noise.ReplaceAllString(text, " ")), " ")
}

// NormalizeTimestamp rewrites a source timestamp as DD/MM/YYYY HH:MM:SS,
// keeping the wall clock of the source offset.
func NormalizeTimestamp(createdAt string) (string, error) {
	t, err := time.Parse(SourceTimeLayout, createdAt)
	if err != nil {
		return "", fmt.Errorf("normalize timestamp %q: %w", createdAt, err)
	}
	return t.Format(OutputTimeLayout), nil
}
