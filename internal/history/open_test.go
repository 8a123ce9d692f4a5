package history

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/personachat/personachat/internal/history/mongodb"
	"github.com/personachat/personachat/internal/history/postgres"
	"github.com/personachat/personachat/internal/history/sqlite"
)

func TestOpenSelectsBackendByScheme(t *testing.T) {
	assert.IsType(t, &postgres.Postgres{}, Open("postgres://localhost/chat"))
	assert.IsType(t, &postgres.Postgres{}, Open("postgresql://localhost/chat"))
	assert.IsType(t, &mongodb.MongoDB{}, Open("mongodb://localhost:27017"))
	assert.IsType(t, &mongodb.MongoDB{}, Open("mongodb+srv://cluster.example.net"))
	assert.IsType(t, &sqlite.SQLite{}, Open("file:/tmp/chat.db"))
	assert.IsType(t, &sqlite.SQLite{}, Open("/tmp/chat.db"))
	assert.IsType(t, &sqlite.SQLite{}, Open(":memory:"))
}
