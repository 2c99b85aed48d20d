package storage

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"fest-engine/internal/config"
	"fest-engine/internal/logger"
)

type PostgreSQLStore struct {
	db  *sql.DB
	log *logger.Logger
}

// NewPostgreSQLStoreWithDB wraps an existing connection, used when the
// fee store shares the engine's pool.
func NewPostgreSQLStoreWithDB(db *sql.DB, log *logger.Logger) (*PostgreSQLStore, error) {
	store := &PostgreSQLStore{db: db, log: log}
	if err := store.initTables(); err != nil {
		return nil, fmt.Errorf("failed to initialize fee payment tables: %w", err)
	}
	return store, nil
}

func NewPostgreSQLStore(cfg config.DatabaseConfig, log *logger.Logger) (*PostgreSQLStore, error) {
	log.Info("DATABASE", fmt.Sprintf("Connecting to PostgreSQL at %s:%s", cfg.Host, cfg.Port))

	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MaxLifetime)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &PostgreSQLStore{db: db, log: log}
	if err := store.initTables(); err != nil {
		return nil, fmt.Errorf("failed to initialize fee payment tables: %w", err)
	}

	log.Info("DATABASE", "Fee payment storage ready")
	return store, nil
}

func (s *PostgreSQLStore) initTables() error {
	query := `
    CREATE TABLE IF NOT EXISTS fee_payments (
        payment_id VARCHAR(36) PRIMARY KEY,
        registration_id VARCHAR(36) NOT NULL,
        event_id VARCHAR(36) NOT NULL,
        user_id VARCHAR(64) NOT NULL,
        amount DECIMAL(10,2) NOT NULL,
        currency VARCHAR(8) NOT NULL,
        status VARCHAR(50) NOT NULL,
        intent_id VARCHAR(64),
        client_secret VARCHAR(128),
        created_date TIMESTAMP DEFAULT CURRENT_TIMESTAMP
    );
    `
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create fee_payments table: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_fee_payments_registration_id ON fee_payments(registration_id);",
		"CREATE INDEX IF NOT EXISTS idx_fee_payments_intent_id ON fee_payments(intent_id);",
		"CREATE INDEX IF NOT EXISTS idx_fee_payments_status ON fee_payments(status);",
	}
	for _, indexQuery := range indexes {
		if _, err := s.db.Exec(indexQuery); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

func (s *PostgreSQLStore) SaveFeePayment(payment *FeePayment) error {
	query := `
    INSERT INTO fee_payments (
        payment_id, registration_id, event_id, user_id, amount, currency, status, intent_id, client_secret, created_date
    ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    `
	_, err := s.db.Exec(query,
		payment.PaymentID, payment.RegistrationID, payment.EventID, payment.UserID,
		payment.Amount, payment.Currency, payment.Status, payment.IntentID,
		payment.ClientSecret, payment.CreatedDate,
	)
	if err != nil {
		s.log.Error("DATABASE", fmt.Sprintf("Failed to save fee payment %s: %s", payment.PaymentID, err.Error()))
		return fmt.Errorf("failed to save fee payment: %w", err)
	}
	return nil
}

func (s *PostgreSQLStore) GetFeePayment(id string) (*FeePayment, error) {
	return s.getOne("payment_id", id)
}

func (s *PostgreSQLStore) GetByRegistrationID(registrationID string) (*FeePayment, error) {
	return s.getOne("registration_id", registrationID)
}

func (s *PostgreSQLStore) GetByIntentID(intentID string) (*FeePayment, error) {
	return s.getOne("intent_id", intentID)
}

func (s *PostgreSQLStore) getOne(column, value string) (*FeePayment, error) {
	query := fmt.Sprintf(`
    SELECT payment_id, registration_id, event_id, user_id, amount, currency, status, intent_id, client_secret, created_date
    FROM fee_payments WHERE %s = $1
    `, column)

	payment := &FeePayment{}
	err := s.db.QueryRow(query, value).Scan(
		&payment.PaymentID, &payment.RegistrationID, &payment.EventID, &payment.UserID,
		&payment.Amount, &payment.Currency, &payment.Status, &payment.IntentID,
		&payment.ClientSecret, &payment.CreatedDate,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("fee payment not found")
		}
		return nil, fmt.Errorf("failed to get fee payment: %w", err)
	}
	return payment, nil
}

func (s *PostgreSQLStore) UpdateStatus(paymentID, status string) error {
	_, err := s.db.Exec(`UPDATE fee_payments SET status = $1 WHERE payment_id = $2`, status, paymentID)
	if err != nil {
		s.log.Error("DATABASE", fmt.Sprintf("Failed to update fee payment %s: %s", paymentID, err.Error()))
		return fmt.Errorf("failed to update fee payment: %w", err)
	}
	return nil
}

func (s *PostgreSQLStore) Close() error {
	return s.db.Close()
}

func (s *PostgreSQLStore) HealthCheck() error {
	return s.db.Ping()
}
