package store

import "database/sql"

// expectOneRow turns an update that matched nothing into sql.ErrNoRows so
// callers can treat it like a failed single-row fetch.
func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
