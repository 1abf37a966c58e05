package domain

import (
	"fmt"
	"strings"

	"github.com/lumenad-public/HogwartsForSlack/internal/points/storage"
)

// Houses is the fixed set of groups balances are aggregated under.
// Aggregation assumes exactly this set and no others.
var Houses = []string{"gryffindor", "slytherin", "ravenclaw", "hufflepuff"}

// IsHouse reports whether a normalized key names one of the fixed houses.
func IsHouse(key string) bool {
	for _, house := range Houses {
		if key == house {
			return true
		}
	}
	return false
}

// DisplayName composes a member's full display name from the optional
// fullname, nickname and title fields.
//
// A nickname is inserted between the first and last fields of the base name;
// a one-word base name simply gets the nickname appended. A title becomes a
// "the <title>" suffix. It's one thing to give @soren points. It's another
// thing to give them to Soren "Teach-me-how-to-Diggery" Diggery, the Prefect
// of Hufflepuff.
func DisplayName(record storage.MemberRecord) string {
	name := record.FullName
	if name == "" {
		name = record.Name
	}

	if record.Nickname != "" {
		fields := strings.Fields(name)
		switch {
		case len(fields) >= 2:
			name = fmt.Sprintf("%s %q %s", fields[0], record.Nickname, fields[len(fields)-1])
		case len(fields) == 1:
			name = fmt.Sprintf("%s %q", fields[0], record.Nickname)
		}
	}

	if record.Title != "" {
		name = fmt.Sprintf("%s the %s", name, record.Title)
	}
	return name
}
