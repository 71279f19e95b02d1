package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// Seed populates the database with initial development data: a default
// admin user and a handful of catalog items so the storefront is not
// empty on first run. No-op when any users already exist.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	// Hash the default admin password. The admin must set up 2FA on
	// first login (totp_enabled = false).
	hash, err := bcrypt.GenerateFromPassword([]byte("admin"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO users (email, password_hash, display_name, role, totp_enabled)
		VALUES ($1, $2, $3, $4, $5)
	`, "admin@newagro.local", string(hash), "Admin", "admin", false)
	if err != nil {
		return fmt.Errorf("seed insert admin: %w", err)
	}

	// A few representative catalog rows: precision-agriculture products
	// and the field services the store offers.
	_, err = db.Exec(`
		INSERT INTO products (name, description, category, item_type, price, stock, is_active, sort_order)
		VALUES
		('Piloto automático AgroPilot X1', 'Kit completo de piloto automático com motor elétrico de direção.', 'Pilotos automáticos', 'product', 24900.00, 3, TRUE, 10),
		('GPS agrícola NavField 200', 'Receptor GNSS com correção RTK e monitor touchscreen de 10".', 'GPS agrícola', 'product', 8990.00, 7, TRUE, 20),
		('Sensor de pulverização SprayEye', 'Controle de seção automático para barras de pulverização.', 'Pulverização', 'product', NULL, NULL, TRUE, 30),
		('Calibração de pulverizador', 'Calibração profissional em campo, com relatório de aplicação.', 'Serviços de campo', 'service', 650.00, NULL, TRUE, 40),
		('Conserto de monitor GPS', 'Diagnóstico e reparo de monitores e displays das principais marcas.', 'Serviços de campo', 'service', NULL, NULL, TRUE, 50)
	`)
	if err != nil {
		return fmt.Errorf("seed insert products: %w", err)
	}

	slog.Info("database seeded with default admin user and sample catalog",
		"email", "admin@newagro.local",
		"password", "admin",
	)

	return nil
}
