// Package authz carries the caller's permission to alter schema into the
// planner and executor.
package authz

import (
	"errors"
	"fmt"
)

// ErrAuthorizationDenied is returned before any planning or execution work
// when the token does not grant schema changes.
var ErrAuthorizationDenied = errors.New("authorization denied: caller is not permitted to alter schema")

// Token is issued by the surrounding application after it has authenticated
// the caller. The zero value grants nothing.
type Token struct {
	Subject     string
	AlterSchema bool
}

// AllowSchemaChanges returns a token permitting schema changes for subject.
func AllowSchemaChanges(subject string) Token {
	return Token{Subject: subject, AlterSchema: true}
}

// RequireAlterSchema returns ErrAuthorizationDenied unless tok permits
// schema changes.
func RequireAlterSchema(tok Token) error {
	if !tok.AlterSchema {
		if tok.Subject == "" {
			return ErrAuthorizationDenied
		}
		return fmt.Errorf("%w (subject %q)", ErrAuthorizationDenied, tok.Subject)
	}
	return nil
}
