package parse

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/scrubdub/hewbot/internal/category"
	"github.com/scrubdub/hewbot/internal/models"
)

// gameTimeRe matches a candidate time expression: optional "at"/"half"
// modifiers, a numeric body with optional :/. minutes, and trailing letters
// so "3an" style typos are captured and then rejected semantically.
var gameTimeRe = regexp.MustCompile(`(?i)\b(at )?(half )?((\d+([:.]\d+)?)([a-z]*))\b`)

// submatch index pairs in gameTimeRe results
const (
	groupStripBefore = 1
	groupModifiers   = 2
	groupTime        = 3
	groupAmPM        = 6
)

var (
	sextupleRe    = regexp.MustCompile(`(?i)\bsextuple\b`)
	competitiveRe = regexp.MustCompile(`(?i)compet(itive)?|1v1`)
)

// competitive-mode overrides
const (
	competMode       = "compet"
	competMaxPlayers = 2
	competPlayTime   = 20
)

// TooManyTimeSpecsError reports an ambiguous command: several time
// expressions tied for highest specificity with different resolved times.
// The competing substrings are surfaced so the user can disambiguate.
type TooManyTimeSpecsError struct {
	Specs []string
}

func (e *TooManyTimeSpecsError) Error() string {
	return fmt.Sprintf("too many time specs: %s", strings.Join(e.Specs, ", "))
}

// Initiation is a successfully parsed scheduling command
type Initiation struct {
	// When is the resolved start time
	When models.TimeOfDay

	// Description is the command text with the time expression and
	// capacity/mode keywords removed
	Description string

	// MaxPlayers is the roster capacity after keyword and category overrides
	MaxPlayers int

	// PlayTime is the duration in minutes
	PlayTime int

	// Mode is the optional game mode
	Mode string
}

// timeMatch is one candidate expression with its resolved time
type timeMatch struct {
	text        string
	start, end  int
	when        models.TimeOfDay
	specificity int
}

// ParseInitiation scans free text for a scheduling command. It returns
// (nil, nil) when the text contains no valid time expression, and a
// *TooManyTimeSpecsError when the intended time is ambiguous.
func ParseInitiation(text string, cat *category.Category) (*Initiation, error) {
	matches := collectTimeMatches(text)
	if len(matches) == 0 {
		return nil, nil
	}

	chosen, err := mostSpecific(matches)
	if err != nil {
		return nil, err
	}

	desc := text[:chosen.start] + text[chosen.end:]

	maxPlayers := cat.DefaultMaxPlayers
	playTime := cat.DefaultPlayTime
	mode := ""

	if sextupleRe.MatchString(desc) {
		desc = sextupleRe.ReplaceAllString(desc, "")
		maxPlayers = 6
	}

	if competitiveRe.MatchString(desc) {
		desc = competitiveRe.ReplaceAllString(desc, "")
		maxPlayers = competMaxPlayers
		playTime = competPlayTime
		mode = competMode
	} else if cat.ForceTwoPlayer {
		maxPlayers = 2
		playTime = cat.DefaultPlayTime
	}

	desc = strings.Join(strings.Fields(desc), " ")

	return &Initiation{
		When:        chosen.when,
		Description: desc,
		MaxPlayers:  maxPlayers,
		PlayTime:    playTime,
		Mode:        mode,
	}, nil
}

// collectTimeMatches finds every syntactic time expression whose value the
// time parser accepts, scoring each for specificity.
func collectTimeMatches(text string) []timeMatch {
	var matches []timeMatch

	for _, idx := range gameTimeRe.FindAllStringSubmatchIndex(text, -1) {
		timeStart := idx[2*groupTime]
		if timeStart > 0 && text[timeStart-1] == '-' {
			// negative numbers are not times
			continue
		}

		token := text[timeStart:idx[2*groupTime+1]]
		previous := group(text, idx, groupModifiers)

		when, ok := maybeParseTime(token, strings.TrimSpace(previous))
		if !ok {
			continue
		}

		spec := 0
		if group(text, idx, groupAmPM) != "" {
			spec++ // "3pm", very likely the time meant
		}
		if strings.ContainsAny(token, ":.") {
			spec++
		}
		if strings.Contains(strings.ToLower(group(text, idx, groupStripBefore)), "at") {
			spec++ // "at 3", likely the time they want
		}

		matches = append(matches, timeMatch{
			text:        text[idx[0]:idx[1]],
			start:       idx[0],
			end:         idx[1],
			when:        when,
			specificity: spec,
		})
	}

	return matches
}

// mostSpecific picks the highest-specificity match. Several matches at the
// top are fine as long as they all resolve to the same time; otherwise the
// command is ambiguous.
func mostSpecific(matches []timeMatch) (timeMatch, error) {
	if len(matches) == 1 {
		return matches[0], nil
	}

	sorted := make([]timeMatch, len(matches))
	copy(sorted, matches)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].specificity > sorted[j].specificity
	})

	top := sorted[0]
	ambiguous := false
	specs := []string{top.text}
	for _, m := range sorted[1:] {
		if m.specificity != top.specificity {
			break
		}
		specs = append(specs, m.text)
		if m.when != top.when {
			ambiguous = true
		}
	}

	if ambiguous {
		return timeMatch{}, &TooManyTimeSpecsError{Specs: specs}
	}

	return top, nil
}

// group extracts a submatch by index, "" when unmatched
func group(text string, idx []int, n int) string {
	if idx[2*n] < 0 {
		return ""
	}
	return text[idx[2*n]:idx[2*n+1]]
}
