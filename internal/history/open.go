package history

import (
	"strings"

	"github.com/personachat/personachat/internal/history/mongodb"
	"github.com/personachat/personachat/internal/history/postgres"
	"github.com/personachat/personachat/internal/history/sqlite"
)

// Open selects a history backend from a DATABASE_URL style connection
// string. Anything that is not a postgres or mongodb URL is treated as a
// SQLite file path, which is the default store.
func Open(databaseURL string) Store {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return postgres.New(databaseURL)
	case strings.HasPrefix(databaseURL, "mongodb://"), strings.HasPrefix(databaseURL, "mongodb+srv://"):
		return mongodb.New(databaseURL)
	default:
		return sqlite.New(strings.TrimPrefix(databaseURL, "file:"))
	}
}
