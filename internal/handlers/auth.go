package handlers

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"

	"newagro/internal/middleware"
	"newagro/internal/models"
	"newagro/internal/render"
	"newagro/internal/session"
	"newagro/internal/store"
)

// totpIssuer is the issuer name shown in authenticator apps.
const totpIssuer = "NEWagro"

// Auth groups all authentication-related HTTP handlers. Customers get a
// plain credential login; admins additionally go through TOTP before the
// panel opens.
type Auth struct {
	renderer  *render.Renderer
	sessions  *session.Store
	userStore *store.UserStore
}

// NewAuth creates a new Auth handler group.
func NewAuth(renderer *render.Renderer, sessions *session.Store, userStore *store.UserStore) *Auth {
	return &Auth{
		renderer:  renderer,
		sessions:  sessions,
		userStore: userStore,
	}
}

// LoginPage renders the combined login/register form.
func (a *Auth) LoginPage(w http.ResponseWriter, r *http.Request) {
	// Already signed in: send the user where they belong.
	sess := middleware.SessionFromCtx(r.Context())
	if sess != nil {
		if sess.Role == "admin" && sess.TwoFADone {
			http.Redirect(w, r, "/admin/produtos", http.StatusSeeOther)
			return
		}
		if sess.Role != "admin" {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
	}

	a.renderer.Page(w, r, "login", &render.PageData{
		Title: "Entrar",
		Data:  map[string]any{},
	})
}

// LoginSubmit processes the login form.
func (a *Auth) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	user, err := a.userStore.FindByEmail(email)
	if err != nil {
		slog.Error("login lookup failed", "error", err)
		a.loginError(w, r, email, "Ocorreu um erro inesperado. Tente novamente.")
		return
	}

	if user == nil || !a.userStore.CheckPassword(user, password) {
		a.loginError(w, r, email, "E-mail ou senha inválidos.")
		return
	}

	// Customers are done after the password check; admins still owe a
	// TOTP code before the session counts as fully authenticated.
	_, err = a.sessions.Create(r.Context(), w, &session.Data{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        string(user.Role),
		TwoFADone:   !user.IsAdmin(),
	})
	if err != nil {
		slog.Error("session create failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if !user.IsAdmin() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if user.Needs2FASetup() {
		http.Redirect(w, r, "/admin/2fa/setup", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/admin/2fa/verify", http.StatusSeeOther)
}

// RegisterSubmit creates a new customer account and signs it in.
func (a *Auth) RegisterSubmit(w http.ResponseWriter, r *http.Request) {
	displayName := strings.TrimSpace(r.FormValue("display_name"))
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	if displayName == "" || email == "" {
		a.registerError(w, r, "Informe nome e e-mail.")
		return
	}
	if len(password) < 6 {
		a.registerError(w, r, "A senha deve ter pelo menos 6 caracteres.")
		return
	}

	existing, err := a.userStore.FindByEmail(email)
	if err != nil {
		slog.Error("register lookup failed", "error", err)
		a.registerError(w, r, "Ocorreu um erro inesperado. Tente novamente.")
		return
	}
	if existing != nil {
		a.registerError(w, r, "Este e-mail já está cadastrado.")
		return
	}

	user, err := a.userStore.Create(email, password, displayName, models.RoleCustomer)
	if err != nil {
		slog.Error("register create failed", "error", err)
		a.registerError(w, r, "Não foi possível criar a conta. Tente novamente.")
		return
	}

	_, err = a.sessions.Create(r.Context(), w, &session.Data{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        string(user.Role),
		TwoFADone:   true,
	})
	if err != nil {
		slog.Error("session create failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// TwoFASetupPage generates a TOTP secret and displays the QR code.
func (a *Auth) TwoFASetupPage(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: sess.Email,
	})
	if err != nil {
		slog.Error("totp generate failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if err := a.userStore.SetTOTPSecret(sess.UserID, key.Secret()); err != nil {
		slog.Error("save totp secret failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	qrPNG, err := qrcode.Encode(key.URL(), qrcode.Medium, 256)
	if err != nil {
		slog.Error("qr code generation failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.renderer.Page(w, r, "2fa_setup", &render.PageData{
		Title: "Configurar 2FA",
		Data: map[string]any{
			"QRCode": base64.StdEncoding.EncodeToString(qrPNG),
			"Secret": key.Secret(),
		},
	})
}

// TwoFAVerifyPage renders the 2FA code entry form.
func (a *Auth) TwoFAVerifyPage(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	a.renderer.Page(w, r, "2fa_verify", &render.PageData{
		Title: "Verificação em duas etapas",
	})
}

// TwoFAVerifySubmit validates the TOTP code and completes authentication.
// Handles both first-time setup confirmation and routine verification.
func (a *Auth) TwoFAVerifySubmit(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	code := r.FormValue("code")

	user, err := a.userStore.FindByID(sess.UserID)
	if err != nil || user == nil {
		slog.Error("user lookup for 2fa failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if user.TOTPSecret == nil {
		http.Redirect(w, r, "/admin/2fa/setup", http.StatusSeeOther)
		return
	}

	if !totp.Validate(code, *user.TOTPSecret) {
		if !user.TOTPEnabled {
			// Still in setup: re-render the QR so the user can retry.
			qrPNG, _ := qrcode.Encode(
				fmt.Sprintf("otpauth://totp/%s:%s?secret=%s&issuer=%s",
					totpIssuer, user.Email, *user.TOTPSecret, totpIssuer),
				qrcode.Medium, 256,
			)
			a.renderer.Page(w, r, "2fa_setup", &render.PageData{
				Title: "Configurar 2FA",
				Data: map[string]any{
					"Error":  "Código inválido. Tente novamente.",
					"QRCode": base64.StdEncoding.EncodeToString(qrPNG),
					"Secret": *user.TOTPSecret,
				},
			})
			return
		}

		a.renderer.Page(w, r, "2fa_verify", &render.PageData{
			Title: "Verificação em duas etapas",
			Data:  map[string]any{"Error": "Código inválido. Tente novamente."},
		})
		return
	}

	if !user.TOTPEnabled {
		if err := a.userStore.EnableTOTP(user.ID); err != nil {
			slog.Error("enable totp failed", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
	}

	sess.TwoFADone = true
	if err := a.sessions.Update(r.Context(), r, sess); err != nil {
		slog.Error("session update failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/admin/produtos", http.StatusSeeOther)
}

// Logout destroys the session and returns to the storefront.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	a.sessions.Destroy(r.Context(), w, r)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (a *Auth) loginError(w http.ResponseWriter, r *http.Request, email, msg string) {
	a.renderer.Page(w, r, "login", &render.PageData{
		Title: "Entrar",
		Data:  map[string]any{"Error": msg, "Email": email},
	})
}

func (a *Auth) registerError(w http.ResponseWriter, r *http.Request, msg string) {
	a.renderer.Page(w, r, "login", &render.PageData{
		Title: "Entrar",
		Data:  map[string]any{"Error": msg, "ShowRegister": true},
	})
}
