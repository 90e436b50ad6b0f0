package components

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/davidwalker2235/hcongame/internal/model"
)

// RankingListID is the element of the ranking page swapped by updates
const RankingListID = "ranking-list"

// Ranking messages
const (
	RankingEmpty = "No ranking data available"
	RankingError = "Error loading ranking data"
)

type entryField struct {
	Class string
	Label string
	Value string
}

// entryFields lists the optional details of an entry, extra fields last
// in key order
func entryFields(e model.LeaderboardEntry) []entryField {
	var fields []entryField
	if e.HighestLevel > 0 {
		fields = append(fields, entryField{"level", "Level", strconv.Itoa(e.HighestLevel)})
	}
	if e.Score != 0 {
		fields = append(fields, entryField{"score", "Score", strconv.FormatFloat(e.Score, 'f', -1, 64)})
	}
	if e.Attempts > 0 {
		fields = append(fields, entryField{"attempts", "Attempts", strconv.Itoa(e.Attempts)})
	}
	if e.CompletedAt != nil {
		fields = append(fields, entryField{"completed", "Completed", e.CompletedAt.Format("2006-01-02 15:04")})
	}

	keys := make([]string, 0, len(e.Extra))
	for k := range e.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fields = append(fields, entryField{"extra", k, fmt.Sprint(e.Extra[k])})
	}
	return fields
}
