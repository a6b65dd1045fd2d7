package quiz

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/jask/shortcutquiz/internal/shortcuts"
)

// Policy decides which commands a quiz asks about.
type Policy string

const (
	PolicyLowestScore Policy = "lowest_score"
	PolicyRandom      Policy = "random"
	PolicyMixed       Policy = "mixed"
)

func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(s); p {
	case PolicyLowestScore, PolicyRandom, PolicyMixed:
		return p, nil
	}
	return "", fmt.Errorf("unknown selection policy %q", s)
}

// Eligible returns the enabled commands that have at least one enabled
// keybinding, sorted.
func Eligible(table shortcuts.Table) []string {
	var out []string
	for _, c := range table.Commands() {
		s := table[c]
		if s.Enabled && s.EnabledCount() > 0 {
			out = append(out, c)
		}
	}
	return out
}

// SelectCommands picks up to n eligible commands by policy.
//
//   - lowest_score: lowest learning state first, ties in random order.
//   - random: a uniform sample.
//   - mixed: floor(n/2) lowest-scored, then ceil(n/2) sampled from the rest,
//     shuffled together.
func SelectCommands(table shortcuts.Table, n int, policy Policy, rng *rand.Rand) []string {
	if n <= 0 {
		return nil
	}
	pool := Eligible(table)
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	byScore := func(cmds []string) {
		sort.SliceStable(cmds, func(i, j int) bool {
			return table[cmds[i]].LearningState < table[cmds[j]].LearningState
		})
	}

	switch policy {
	case PolicyRandom:
		return head(pool, n)
	case PolicyMixed:
		sorted := append([]string(nil), pool...)
		byScore(sorted)
		lowest := head(sorted, n/2)
		taken := make(map[string]bool, len(lowest))
		for _, c := range lowest {
			taken[c] = true
		}
		var rest []string
		for _, c := range pool {
			if !taken[c] {
				rest = append(rest, c)
			}
		}
		picked := append(append([]string(nil), lowest...), head(rest, n-n/2)...)
		rng.Shuffle(len(picked), func(i, j int) { picked[i], picked[j] = picked[j], picked[i] })
		return picked
	default:
		byScore(pool)
		return head(pool, n)
	}
}

func head(s []string, n int) []string {
	if n > len(s) {
		n = len(s)
	}
	return s[:n]
}
