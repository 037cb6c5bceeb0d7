package pagination

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestNormalizeLimit(t *testing.T) {
	require.Equal(t, DefaultLimit, NormalizeLimit(0))
	require.Equal(t, DefaultLimit, NormalizeLimit(-3))
	require.Equal(t, MaxLimit, NormalizeLimit(MaxLimit+50))
	require.Equal(t, 7, NormalizeLimit(7))
}

func TestCursorEncodingIsQuerySafe(t *testing.T) {
	want := Cursor{CreatedAt: time.Date(2025, 3, 1, 10, 0, 0, 123, time.UTC), ID: uuid.New()}
	encoded := EncodeCursor(want)
	require.NotContains(t, encoded, "=")
	require.NotContains(t, encoded, "+")
	require.NotContains(t, encoded, "/")

	got, err := ParseCursor(encoded)
	require.NoError(t, err)
	require.True(t, want.CreatedAt.Equal(got.CreatedAt))
	require.Equal(t, want.ID, got.ID)

	empty, err := ParseCursor("  ")
	require.NoError(t, err)
	require.Nil(t, empty)
}

func TestParseCursorRejectsMalformed(t *testing.T) {
	for _, value := range []string{
		"not-base64!",
		base64.RawURLEncoding.EncodeToString([]byte("no-separator")),
		base64.RawURLEncoding.EncodeToString([]byte("abc." + uuid.NewString())),
		base64.RawURLEncoding.EncodeToString([]byte("123.not-a-uuid")),
	} {
		_, err := ParseCursor(value)
		require.ErrorIs(t, err, ErrInvalidCursor, value)
	}
}

func dryRun(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{DryRun: true})
	require.NoError(t, err)
	return db
}

type listed struct {
	ID        uuid.UUID
	CreatedAt time.Time
}

func TestKeysetScope(t *testing.T) {
	db := dryRun(t)

	first, err := Keyset(Params{Limit: 5})
	require.NoError(t, err)
	stmt := db.Table("orders").Scopes(first).Find(&[]listed{}).Statement
	sql := stmt.SQL.String()
	require.NotContains(t, sql, "created_at <")
	require.Contains(t, sql, "ORDER BY created_at DESC,id DESC")
	require.Contains(t, sql, "LIMIT 6")

	next, err := Keyset(Params{Limit: 5, Cursor: EncodeCursor(Cursor{CreatedAt: time.Now(), ID: uuid.New()})})
	require.NoError(t, err)
	stmt = db.Table("orders").Where("user_id = ?", uuid.New()).Scopes(next).Find(&[]listed{}).Statement
	sql = stmt.SQL.String()
	require.True(t, strings.Contains(sql, "(created_at < ? OR (created_at = ? AND id < ?))"), sql)
	require.Len(t, stmt.Vars, 4)

	_, err = Keyset(Params{Cursor: "!!"})
	require.ErrorIs(t, err, ErrInvalidCursor)
}

func TestTrim(t *testing.T) {
	base := time.Now().UTC()
	rows := []listed{{uuid.New(), base}, {uuid.New(), base.Add(-time.Minute)}, {uuid.New(), base.Add(-2 * time.Minute)}}
	position := func(r listed) Cursor { return Cursor{CreatedAt: r.CreatedAt, ID: r.ID} }

	page, next := Trim(rows, 2, position)
	require.Len(t, page, 2)
	cursor, err := ParseCursor(next)
	require.NoError(t, err)
	require.Equal(t, rows[1].ID, cursor.ID)

	page, next = Trim(rows[:2], 2, position)
	require.Len(t, page, 2)
	require.Empty(t, next)
}
