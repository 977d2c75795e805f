// Package parse extracts a calorie quantity from loosely structured
// free-form text: plain numbers, multiplication and additive expressions,
// and numbers with a calorie-unit suffix.
package parse

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	numberRe = regexp.MustCompile(`\d+(?:[.,]\d+)?`)
	// A multiplication word ("на"/"times") or an x between or beside
	// numbers. "х" is the Cyrillic letter, common in Russian-keyboard
	// input.
	mulWordRe = regexp.MustCompile(`(^|\s)(на|times)(\s|$)`)
	mulXRe    = regexp.MustCompile(`(\d|\s|^)[xх](\d|\s|$)`)
	spaceRe   = regexp.MustCompile(`\s+`)
)

// Parser turns a raw text line into an integer calorie amount. Unit is the
// set of literal suffix tokens recognized as "calories".
type Parser struct {
	units []string
}

// New builds a parser recognizing the given unit suffixes. Suffixes are
// matched case-insensitively against the end of the input, longest first,
// so "ккал" wins over "кал".
func New(units []string) *Parser {
	lowered := make([]string, len(units))
	for i, u := range units {
		lowered[i] = strings.ToLower(u)
	}
	sort.Slice(lowered, func(i, j int) bool { return len(lowered[i]) > len(lowered[j]) })
	return &Parser{units: lowered}
}

// Parse extracts the calorie amount from text. found is false when no
// numeric token exists under any rule; that is a negative result, not an
// error. Fractional results round half up. A leading "-" is never treated
// as a sign: negative corrections do not go through the parser.
//
// Precedence: multiplication expression, additive expression, unit-suffixed
// number, first standalone number.
func (p *Parser) Parse(text string) (int, bool) {
	t := normalize(text)
	if t == "" {
		return 0, false
	}

	if strings.ContainsAny(t, "×*") || mulWordRe.MatchString(t) || mulXRe.MatchString(t) {
		if nums := numbers(t); len(nums) > 0 {
			product := 1.0
			for _, n := range nums {
				product *= n
			}
			return roundHalfUp(product), true
		}
		return 0, false
	}

	if strings.Contains(t, "+") {
		if nums := numbers(t); len(nums) > 0 {
			sum := 0.0
			for _, n := range nums {
				sum += n
			}
			return roundHalfUp(sum), true
		}
		return 0, false
	}

	for _, unit := range p.units {
		if rest, ok := strings.CutSuffix(t, unit); ok {
			t = strings.TrimSpace(rest)
			break
		}
	}

	if tok := numberRe.FindString(t); tok != "" {
		v, err := strconv.ParseFloat(strings.ReplaceAll(tok, ",", "."), 64)
		if err != nil {
			return 0, false
		}
		return roundHalfUp(v), true
	}
	return 0, false
}

func normalize(text string) string {
	return spaceRe.ReplaceAllString(strings.TrimSpace(strings.ToLower(text)), " ")
}

func numbers(t string) []float64 {
	var out []float64
	for _, tok := range numberRe.FindAllString(t, -1) {
		v, err := strconv.ParseFloat(strings.ReplaceAll(tok, ",", "."), 64)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}
