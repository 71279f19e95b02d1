package store

import (
	"testing"

	"github.com/google/uuid"

	"newagro/internal/models"
)

func TestUserCreateAndFind(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db)

	email := "test-user-create@newagro.test"
	t.Cleanup(func() { cleanUsers(t, db, email) })

	u, err := s.Create(email, "secret123", "Test User", models.RoleCustomer)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.Email != email || u.Role != models.RoleCustomer {
		t.Errorf("unexpected user: %+v", u)
	}
	if u.PasswordHash == "secret123" {
		t.Error("password stored in plaintext")
	}

	byEmail, err := s.FindByEmail(email)
	if err != nil || byEmail == nil {
		t.Fatalf("FindByEmail: %v, %v", byEmail, err)
	}
	byID, err := s.FindByID(u.ID)
	if err != nil || byID == nil {
		t.Fatalf("FindByID: %v, %v", byID, err)
	}
	if byID.ID != byEmail.ID {
		t.Error("lookups disagree")
	}
}

func TestUserFindMissing(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db)

	u, err := s.FindByEmail("does-not-exist@newagro.test")
	if err != nil {
		t.Fatalf("missing user must not error: %v", err)
	}
	if u != nil {
		t.Errorf("want nil, got %+v", u)
	}
}

func TestUserCheckPassword(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db)

	email := "test-user-password@newagro.test"
	t.Cleanup(func() { cleanUsers(t, db, email) })

	u, err := s.Create(email, "correct-horse", "Test User", models.RoleCustomer)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if !s.CheckPassword(u, "correct-horse") {
		t.Error("correct password rejected")
	}
	if s.CheckPassword(u, "wrong") {
		t.Error("wrong password accepted")
	}
}

func TestUserHasRole(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db)

	email := "test-user-role@newagro.test"
	t.Cleanup(func() { cleanUsers(t, db, email) })

	u, err := s.Create(email, "secret123", "Test Admin", models.RoleAdmin)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	ok, err := s.HasRole(u.ID, models.RoleAdmin)
	if err != nil {
		t.Fatalf("HasRole: %v", err)
	}
	if !ok {
		t.Error("admin user should have admin role")
	}

	ok, err = s.HasRole(u.ID, models.RoleCustomer)
	if err != nil {
		t.Fatalf("HasRole: %v", err)
	}
	if ok {
		t.Error("admin user should not have customer role")
	}

	// A missing user yields false, not an error.
	ok, err = s.HasRole(uuid.New(), models.RoleAdmin)
	if err != nil {
		t.Fatalf("HasRole missing user: %v", err)
	}
	if ok {
		t.Error("missing user should not have any role")
	}
}

func TestUserTOTPLifecycle(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db)

	email := "test-user-totp@newagro.test"
	t.Cleanup(func() { cleanUsers(t, db, email) })

	u, err := s.Create(email, "secret123", "Test Admin", models.RoleAdmin)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !u.Needs2FASetup() {
		t.Error("fresh admin should need 2FA setup")
	}

	if err := s.SetTOTPSecret(u.ID, "JBSWY3DPEHPK3PXP"); err != nil {
		t.Fatalf("SetTOTPSecret: %v", err)
	}
	if err := s.EnableTOTP(u.ID); err != nil {
		t.Fatalf("EnableTOTP: %v", err)
	}

	got, err := s.FindByID(u.ID)
	if err != nil || got == nil {
		t.Fatalf("FindByID: %v, %v", got, err)
	}
	if got.TOTPSecret == nil || *got.TOTPSecret != "JBSWY3DPEHPK3PXP" {
		t.Errorf("secret: %v", got.TOTPSecret)
	}
	if !got.TOTPEnabled || got.Needs2FASetup() {
		t.Errorf("totp not enabled: %+v", got)
	}
}
