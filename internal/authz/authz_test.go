package authz

import (
	"errors"
	"testing"
)

func TestRequireAlterSchema(t *testing.T) {
	if err := RequireAlterSchema(AllowSchemaChanges("ci")); err != nil {
		t.Errorf("RequireAlterSchema(allowed) = %v, want nil", err)
	}
	if err := RequireAlterSchema(Token{}); !errors.Is(err, ErrAuthorizationDenied) {
		t.Errorf("RequireAlterSchema(zero) = %v, want ErrAuthorizationDenied", err)
	}
	err := RequireAlterSchema(Token{Subject: "viewer"})
	if !errors.Is(err, ErrAuthorizationDenied) {
		t.Errorf("RequireAlterSchema(viewer) = %v, want ErrAuthorizationDenied", err)
	}
}
