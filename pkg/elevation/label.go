package elevation

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/width"

	"github.com/lehigh-university-libraries/cadfeat/pkg/geom"
)

// %%p is the CAD control code for the plus-minus sign written on the zero level
var labelPattern = regexp.MustCompile(`^(?:%%[pP])?[+-]?\d*\.\d+$`)

// normalize folds full-width digits and punctuation to ASCII and trims spaces
func normalize(text string) string {
	return strings.TrimSpace(width.Fold.String(text))
}

// IsLabel reports whether text reads as an elevation value such as "12.500", "-3.200"
// or "%%p0.000"
func IsLabel(text string) bool {
	return labelPattern.MatchString(normalize(text))
}

// Labels keeps the texts that read as elevation values
func Labels(texts []geom.TextEntity) []geom.TextEntity {
	var out []geom.TextEntity
	for _, t := range texts {
		if IsLabel(t.Text) {
			out = append(out, t)
		}
	}
	return out
}

// ParseLabel returns the numeric value of an elevation label. Text that does not parse
// yields 0 and false.
func ParseLabel(text string) (float64, bool) {
	s := normalize(text)
	if len(s) >= 3 && strings.EqualFold(s[:3], "%%p") {
		s = strings.TrimSpace(s[3:])
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
