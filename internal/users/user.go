// Package users reads and updates the users table.
package users

import "sqlwrap/internal/platform/sqlite"

// User is one row of the users table.
type User struct {
	ID    int64  `db:"id"`
	Name  string `db:"name"`
	Age   int    `db:"age"`
	Email string `db:"email"`
}

// String formats u the same way as a row of SELECT * FROM users.
func (u User) String() string {
	return sqlite.Row{u.ID, u.Name, int64(u.Age), u.Email}.String()
}
