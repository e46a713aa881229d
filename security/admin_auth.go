package security

import (
	"crypto/subtle"
	"net/http"

	"github.com/pocketbase/pocketbase/core"
	"golang.org/x/crypto/bcrypt"

	"test12/internal/status"
)

const AdminTokenHeader = "x-admin-token"

// AdminAuth checks the admin token header. A bcrypt hash is preferred; the
// plain token is compared in constant time. With neither configured every
// request is refused.
type AdminAuth struct {
	token string
	hash  []byte
}

func NewAdminAuth(token, hash string) *AdminAuth {
	a := &AdminAuth{token: token}
	if hash != "" {
		a.hash = []byte(hash)
	}
	return a
}

func (a *AdminAuth) Enabled() bool {
	return a.token != "" || len(a.hash) > 0
}

func (a *AdminAuth) Check(presented string) error {
	if presented == "" || !a.Enabled() {
		return status.ErrUnauthorized
	}
	if len(a.hash) > 0 {
		if bcrypt.CompareHashAndPassword(a.hash, []byte(presented)) != nil {
			return status.ErrUnauthorized
		}
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(a.token), []byte(presented)) != 1 {
		return status.ErrUnauthorized
	}
	return nil
}

func (a *AdminAuth) Middleware() func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if err := a.Check(e.Request.Header.Get(AdminTokenHeader)); err != nil {
			return e.JSON(http.StatusUnauthorized, map[string]any{"ok": false, "reason": status.Code(err)})
		}
		return e.Next()
	}
}
