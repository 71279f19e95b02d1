// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"newagro/internal/models"
	"newagro/internal/session"
)

func requestWithSession(data *session.Data) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/admin/produtos", nil)
	if data == nil {
		return r
	}
	return r.WithContext(context.WithValue(r.Context(), SessionKey, data))
}

func TestRequireAuth(t *testing.T) {
	tests := []struct {
		name         string
		session      *session.Data
		wantStatus   int
		wantLocation string
	}{
		{"anonymous redirected to login", nil, http.StatusSeeOther, "/login"},
		{"signed in passes", &session.Data{Role: "customer"}, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, _ := okHandler()
			rr := httptest.NewRecorder()
			RequireAuth(handler).ServeHTTP(rr, requestWithSession(tt.session))

			if rr.Code != tt.wantStatus {
				t.Errorf("status: got %d, want %d", rr.Code, tt.wantStatus)
			}
			if loc := rr.Header().Get("Location"); loc != tt.wantLocation {
				t.Errorf("location: got %q, want %q", loc, tt.wantLocation)
			}
		})
	}
}

// fakeRoleChecker answers role checks from a fixed map, optionally
// failing every lookup.
type fakeRoleChecker struct {
	admins map[uuid.UUID]bool
	err    error
	calls  int
}

func (f *fakeRoleChecker) HasRole(userID uuid.UUID, role models.Role) (bool, error) {
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	return role == models.RoleAdmin && f.admins[userID], nil
}

// Non-admins never see the panel; they are sent back to the storefront
// instead of getting an error page. The stored role is consulted on
// every request, so a session is not enough on its own.
func TestRequireAdmin(t *testing.T) {
	adminID := uuid.New()
	revokedID := uuid.New()

	tests := []struct {
		name         string
		session      *session.Data
		checkerErr   error
		wantStatus   int
		wantLocation string
		wantChecked  bool
	}{
		{"anonymous", nil, nil, http.StatusSeeOther, "/", false},
		{"customer", &session.Data{UserID: adminID, Role: "customer"}, nil, http.StatusSeeOther, "/", false},
		{"admin", &session.Data{UserID: adminID, Role: "admin"}, nil, http.StatusOK, "", true},
		{"revoked admin session", &session.Data{UserID: revokedID, Role: "admin"}, nil, http.StatusSeeOther, "/", true},
		{"role check error fails closed", &session.Data{UserID: adminID, Role: "admin"}, errors.New("db down"), http.StatusSeeOther, "/", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := &fakeRoleChecker{admins: map[uuid.UUID]bool{adminID: true}, err: tt.checkerErr}
			handler, _ := okHandler()
			rr := httptest.NewRecorder()
			RequireAdmin(checker)(handler).ServeHTTP(rr, requestWithSession(tt.session))

			if rr.Code != tt.wantStatus {
				t.Errorf("status: got %d, want %d", rr.Code, tt.wantStatus)
			}
			if loc := rr.Header().Get("Location"); loc != tt.wantLocation {
				t.Errorf("location: got %q, want %q", loc, tt.wantLocation)
			}
			if checked := checker.calls > 0; checked != tt.wantChecked {
				t.Errorf("store consulted: got %v, want %v", checked, tt.wantChecked)
			}
		})
	}
}

func TestRequire2FA(t *testing.T) {
	tests := []struct {
		name         string
		session      *session.Data
		wantStatus   int
		wantLocation string
	}{
		{"admin without 2fa sent to setup", &session.Data{Role: "admin"}, http.StatusSeeOther, "/admin/2fa/setup"},
		{"admin with 2fa passes", &session.Data{Role: "admin", TwoFADone: true}, http.StatusOK, ""},
		{"customer passes untouched", &session.Data{Role: "customer"}, http.StatusOK, ""},
		{"anonymous passes untouched", nil, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, _ := okHandler()
			rr := httptest.NewRecorder()
			Require2FA(handler).ServeHTTP(rr, requestWithSession(tt.session))

			if rr.Code != tt.wantStatus {
				t.Errorf("status: got %d, want %d", rr.Code, tt.wantStatus)
			}
			if loc := rr.Header().Get("Location"); loc != tt.wantLocation {
				t.Errorf("location: got %q, want %q", loc, tt.wantLocation)
			}
		})
	}
}

func TestSessionFromCtx(t *testing.T) {
	if got := SessionFromCtx(context.Background()); got != nil {
		t.Errorf("empty context: got %+v", got)
	}

	data := &session.Data{Email: "x@y.z"}
	ctx := context.WithValue(context.Background(), SessionKey, data)
	if got := SessionFromCtx(ctx); got != data {
		t.Errorf("got %+v", got)
	}
}
