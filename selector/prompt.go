package selector

import (
	"errors"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// Prompt is shown after the numbered list of cluster members
const Prompt = "Images to save? [default=1, a for all, c for cancel] "

var (
	// ErrCancelled is returned when the user aborts the run
	ErrCancelled = errors.New("selection cancelled")

	// ErrInvalidResponse is returned for responses that must be asked again
	ErrInvalidResponse = errors.New("invalid response")
)

// ParseResponse interprets one answer to Prompt and returns the members to
// keep. An empty answer keeps the first member, "a..." keeps all of them and
// "c..." returns ErrCancelled. Otherwise the answer must be a comma separated
// list of 1-based indices; a single bad index rejects the whole answer.
func ParseResponse(response string, members []string) ([]string, error) {
	answer := strings.ToLower(strings.TrimSpace(response))

	switch {
	case answer == "":
		return members[:1], nil
	case strings.HasPrefix(answer, "a"):
		return members, nil
	case strings.HasPrefix(answer, "c"):
		return nil, ErrCancelled
	}

	keep := make(map[int]bool)
	for _, token := range strings.Split(answer, ",") {
		index, ok := parseIndex(strings.TrimSpace(token), len(members))
		if !ok {
			return nil, ErrInvalidResponse
		}
		keep[index] = true
	}

	return lo.Filter(members, func(_ string, i int) bool {
		return keep[i]
	}), nil
}

// parseIndex converts a 1-based index into a 0-based one
func parseIndex(token string, count int) (int, bool) {
	if token == "" {
		return 0, false
	}
	for _, r := range token {
		if r < '0' || r > '9' {
			return 0, false
		}
	}

	n, err := strconv.Atoi(token)
	if err != nil || n < 1 || n > count {
		return 0, false
	}
	return n - 1, true
}
