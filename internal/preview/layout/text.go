package layout

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Separator joins the parts of a composite line.
const Separator = " • "

// Initials returns up to two upper-cased initials of name, or "?" when
// name is blank. Names are NFC-normalized so a decomposed accent stays
// attached to its letter.
func Initials(name string) string {
	fields := strings.Fields(norm.NFC.String(name))
	if len(fields) == 0 {
		return "?"
	}
	var b strings.Builder
	for _, f := range fields {
		r := []rune(f)
		b.WriteString(string(r[0]))
	}
	runes := []rune(strings.ToUpper(b.String()))
	if len(runes) > 2 {
		runes = runes[:2]
	}
	return string(runes)
}

// JoinNonBlank joins the non-blank trimmed parts with sep. It returns ""
// when every part is blank, so no separator ever dangles.
func JoinNonBlank(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

// Quote wraps s in typographic double quotes.
func Quote(s string) string {
	return "“" + strings.TrimSpace(s) + "”"
}

// EndorsementLabel formats an engagement count, e.g. "1 endorsement",
// "7 endorsements".
func EndorsementLabel(n int64) string {
	if n == 1 {
		return "1 endorsement"
	}
	return strconv.FormatInt(n, 10) + " endorsements"
}

func isBlank(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool { return !unicode.IsSpace(r) }) < 0
}
