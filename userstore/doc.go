// Package userstore implements [authcore.UserDirectory] on PostgreSQL.
//
// [Open] connects via lib/pq and [Postgres.Migrate] applies the embedded
// schema migrations. Email uniqueness is enforced case-insensitively by the
// database; a violation surfaces as [authcore.ErrDuplicateEmail].
package userstore
