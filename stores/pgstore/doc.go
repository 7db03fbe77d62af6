// Package pgstore provides PostgreSQL-backed reference implementations of
// the webauth repositories on pgx. The schema it expects is in schema.sql;
// hosts with an existing user table typically implement
// webauth.PrincipalRepository over their own schema and take only the token
// and validation-code stores from here.
package pgstore
