// Package slot implements the slot-token vocabulary used by the booking
// ledger.  A slot is an opaque token naming one bookable interval within a
// day, written as a half-open clock range such as "20:00-21:00".  Two
// separator spellings exist in historical data (ASCII hyphen and en-dash),
// so every token is normalized once at the ingestion boundary; the rest of
// the system only ever sees the hyphen spelling and compares tokens by
// equality.
package slot

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

const clockLayout = "15:04"

// Normalize canonicalises a single slot token: surrounding whitespace is
// trimmed and any en-dash or em-dash separator is replaced with an ASCII
// hyphen.  Normalize does not validate the token.
func Normalize(token string) string {
	t := strings.TrimSpace(token)
	t = strings.ReplaceAll(t, "–", "-") // en-dash
	t = strings.ReplaceAll(t, "—", "-") // em-dash
	return t
}

// NormalizeAll normalizes every token in the given slice and returns a new
// slice sorted in ascending order.  The input is not modified.
func NormalizeAll(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, Normalize(t))
	}
	sort.Strings(out)
	return out
}

// interval is the parsed form of a token, used only for validation.
type interval struct {
	start time.Time
	end   time.Time
}

func parse(token string) (interval, error) {
	parts := strings.Split(token, "-")
	if len(parts) != 2 {
		return interval{}, fmt.Errorf("slot %q: want HH:MM-HH:MM", token)
	}
	start, err := time.Parse(clockLayout, parts[0])
	if err != nil {
		return interval{}, fmt.Errorf("slot %q: bad start time", token)
	}
	end, err := time.Parse(clockLayout, parts[1])
	if err != nil {
		return interval{}, fmt.Errorf("slot %q: bad end time", token)
	}
	if !start.Before(end) {
		return interval{}, fmt.Errorf("slot %q: start must precede end", token)
	}
	return interval{start: start, end: end}, nil
}

// Validate checks a normalized slot set: it must be non-empty, every token
// must be a well-formed half-open clock range, and the intervals must be
// mutually non-overlapping.  Tokens are expected to have been normalized
// already; callers should use NormalizeAll first.
func Validate(tokens []string) error {
	if len(tokens) == 0 {
		return fmt.Errorf("at least one slot is required")
	}
	ivs := make([]interval, 0, len(tokens))
	seen := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if _, dup := seen[t]; dup {
			return fmt.Errorf("slot %q appears more than once", t)
		}
		seen[t] = struct{}{}
		iv, err := parse(t)
		if err != nil {
			return err
		}
		ivs = append(ivs, iv)
	}
	sort.Slice(ivs, func(i, j int) bool { return ivs[i].start.Before(ivs[j].start) })
	for i := 1; i < len(ivs); i++ {
		if ivs[i].start.Before(ivs[i-1].end) {
			return fmt.Errorf("slots overlap each other")
		}
	}
	return nil
}

// Overlaps reports whether two normalized slot sets share any token.
// Slots are quantized to a fixed grid, so token equality is a sufficient
// intersection test; no grid size is assumed here.
func Overlaps(a, b []string) bool {
	set := make(map[string]struct{}, len(a))
	for _, t := range a {
		set[t] = struct{}{}
	}
	for _, t := range b {
		if _, ok := set[t]; ok {
			return true
		}
	}
	return false
}
