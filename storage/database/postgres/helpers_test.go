package pgrepos

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwalimu/shule/core"
)

func Test_wrapDBErr(t *testing.T) {
	assert.NoError(t, wrapDBErr(nil, "committing transaction"))

	err := wrapDBErr(driver.ErrBadConn, "finding photo")
	require.Error(t, err)
	assert.True(t, core.IsShutdown(err))
	assert.Contains(t, err.Error(), "finding photo")

	cause := errors.New("syntax error at or near")
	err = wrapDBErr(cause, "querying albums")
	require.Error(t, err)
	assert.False(t, core.IsShutdown(err))
	assert.Equal(t, cause, errors.Cause(err))
	assert.Contains(t, err.Error(), "querying albums")

	// wrapped bad connections still count
	err = wrapDBErr(errors.Wrap(driver.ErrBadConn, "pinging"), "finding photo")
	assert.True(t, core.IsShutdown(err))
}

// beginFailingDB fails to open a transaction; nothing else should be called.
type beginFailingDB struct {
	core.DB
	err error
}

func (db beginFailingDB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	return nil, db.err
}

func Test_withTx_beginFailure(t *testing.T) {
	db := beginFailingDB{err: driver.ErrBadConn}

	called := false
	err := withTx(context.Background(), db, func(tx core.DBTransactor) error {
		called = true
		return nil
	})

	require.Error(t, err)
	assert.False(t, called)
	assert.True(t, core.IsShutdown(err))
	assert.Contains(t, err.Error(), "beginning transaction")
}

func Test_orderingClause(t *testing.T) {
	assert.Equal(t, "", orderingClause(nil, ""))
	assert.Equal(t, " ORDER BY created_at DESC", orderingClause(nil, "created_at DESC"))
	assert.Equal(t, " ORDER BY student_name ASC, issued_at DESC", orderingClause([]core.DBOrdering{
		{Field: "student_name", Ascending: true},
		{Field: "issued_at"},
	}, "created_at DESC"))
}
