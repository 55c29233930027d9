package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/userservice/internal/common"
)

func TestAuthorize(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		authID  string
		ownerID string
		want    error
	}{
		{"owner", "u1", "u1", nil},
		{"other user", "u2", "u1", common.ErrForbidden},
		{"anonymous", "", "u1", common.ErrUnauthenticated},
		{"anonymous and no owner", "", "", common.ErrUnauthenticated},
		{"no owner", "u1", "", common.ErrForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Authorize(tc.authID, tc.ownerID)
			if tc.want == nil {
				if err != nil {
					t.Fatalf("expected allowed, got %v", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestAuthorize_TokenForUserIsAllowedOnlyForThatUser(t *testing.T) {
	t.Parallel()

	v := NewVerifier("k", "iss", "sub", time.Minute)

	for _, uid := range []string{"a", "b", "c"} {
		tok, err := v.Issue(uid)
		if err != nil {
			t.Fatalf("Issue error: %v", err)
		}
		got, err := v.Verify(tok)
		if err != nil {
			t.Fatalf("Verify error: %v", err)
		}
		for _, owner := range []string{"a", "b", "c"} {
			err := Authorize(got, owner)
			if (owner == uid) != (err == nil) {
				t.Fatalf("token for %s, owner %s: got %v", uid, owner, err)
			}
		}
	}
}
