package parse

import (
	"regexp"
	"strconv"
	"strings"
)

var parameterRe = regexp.MustCompile(`(?i)^([a-z]+)=(.*)$`)

// StatsRequest is a parsed "stats [year] [channel] [k=<int>]" command
type StatsRequest struct {
	// Channel restricts the summary to one channel's category ("" = current)
	Channel string

	// Year restricts the summary to games announced that year (0 = all)
	Year int

	// Params carries numeric overrides such as k (rating K-factor)
	Params map[string]int
}

// ParseStatsRequest parses the free-form arguments of a stats command.
// Returns ok=false on unrecognised input.
func ParseStatsRequest(rest string) (*StatsRequest, bool) {
	req := &StatsRequest{Params: map[string]int{}}

	for _, part := range strings.Fields(rest) {
		if req.Year == 0 && len(part) == 4 {
			if year, err := strconv.Atoi(part); err == nil {
				req.Year = year
				continue
			}
		}

		if m := parameterRe.FindStringSubmatch(part); m != nil {
			value, err := strconv.Atoi(m[2])
			if err != nil {
				return nil, false
			}
			req.Params[strings.ToLower(m[1])] = value
			continue
		}

		if req.Channel == "" {
			req.Channel = part
			continue
		}

		return nil, false
	}

	return req, true
}
