package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlwrap/internal/shared"
)

func TestStream_YieldsAllRows(t *testing.T) {
	testDB := NewTestDBFile(t)
	seedUsers(t, testDB)
	conn := testDB.Conn(t)

	var got ResultSet
	for row, err := range Stream(context.Background(), conn, "SELECT id, name FROM users ORDER BY id") {
		require.NoError(t, err)
		got = append(got, row)
	}

	assert.Equal(t, ResultSet{{int64(1), "Alice"}, {int64(2), "Bob"}}, got)
}

func TestStream_QueryError(t *testing.T) {
	testDB := NewTestDBFile(t)
	conn := testDB.Conn(t)

	var errs []error
	for row, err := range Stream(context.Background(), conn, "SELECT * FROM missing") {
		assert.Nil(t, row)
		errs = append(errs, err)
	}

	require.Len(t, errs, 1)
	assert.True(t, shared.HasKind(errs[0], shared.KindQuery))
}

func TestStreamQuery_ClosesAfterIteration(t *testing.T) {
	testDB := NewTestDBFile(t)
	seedUsers(t, testDB)
	probe := &Probe{}

	count := 0
	for _, err := range StreamQuery(context.Background(), probe.Wrap(testDB.Open), "SELECT * FROM users") {
		require.NoError(t, err)
		assert.False(t, probe.Last().Closed())
		count++
	}

	assert.Equal(t, 2, count)
	assert.Equal(t, 1, probe.Opened())
	assert.True(t, probe.AllClosed())
}

func TestStreamQuery_ClosesOnBreak(t *testing.T) {
	testDB := NewTestDBFile(t)
	seedUsers(t, testDB)
	probe := &Probe{}

	count := 0
	for _, err := range StreamQuery(context.Background(), probe.Wrap(testDB.Open), "SELECT * FROM users") {
		require.NoError(t, err)
		count++
		break
	}

	assert.Equal(t, 1, count)
	assert.True(t, probe.AllClosed())
}

func TestStreamQuery_OpenError(t *testing.T) {
	opener := FileOpener(t.TempDir()+"/missing.db", DefaultOptions())

	var errs []error
	for _, err := range StreamQuery(context.Background(), opener, "SELECT 1") {
		errs = append(errs, err)
	}

	require.Len(t, errs, 1)
	assert.True(t, shared.IsUnavailable(errs[0]))
}
