package tracking

import (
	"github.com/assakaf/hackwatch/hackwatch/cryptohack"
)

// Diff returns every fetched challenge absent from the stored solved set,
// preserving fetch order so one cycle always produces the same sequence.
// The stored set is never shrunk: a fetched set missing previously recorded
// solves is treated as a stale read and only contributes additions.
func Diff(stored map[string]struct{}, fetched []cryptohack.SolvedChallenge) []cryptohack.SolvedChallenge {
	var newlySolved []cryptohack.SolvedChallenge
	seen := make(map[string]struct{}, len(fetched))
	for _, challenge := range fetched {
		if _, ok := stored[challenge.Name]; ok {
			continue
		}
		// A repeated name within one fetch must not yield two events.
		if _, ok := seen[challenge.Name]; ok {
			continue
		}
		seen[challenge.Name] = struct{}{}
		newlySolved = append(newlySolved, challenge)
	}
	return newlySolved
}
