package pgrepos

import (
	"context"
	"database/sql/driver"
	"strings"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/mwalimu/shule/core"
)

// wrapDBErr wraps repository errors. A connection the pool has already given
// up on cannot recover inside a request, so it surfaces as a shutdown error
// for the API error handler to act on.
func wrapDBErr(err error, msg string) error {
	if errors.Cause(err) == driver.ErrBadConn {
		return core.NewShutdownError(msg + ": " + err.Error())
	}
	return errors.Wrap(err, msg)
}

// withTx runs fn inside a transaction; any error from fn rolls it back.
func withTx(ctx context.Context, db core.DB, fn func(core.DBTransactor) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return wrapDBErr(err, "beginning transaction")
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return wrapDBErr(tx.Commit(), "committing transaction")
}

func orderingClause(ordering []core.DBOrdering, fallback string) string {
	if len(ordering) == 0 {
		if fallback == "" {
			return ""
		}
		return " ORDER BY " + fallback
	}
	orderList := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		orderList = append(orderList, ord.String())
	}
	return " ORDER BY " + strings.Join(orderList, ", ")
}

func boolPtrToNull(b *bool) null.Bool {
	return null.BoolFromPtr(b)
}

func intPtrToNull(i *int) null.Int {
	return null.IntFromPtr(i)
}
