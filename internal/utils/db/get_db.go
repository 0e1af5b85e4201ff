package db

import (
	"context"
	"fmt"

	"github.com/Tirvu/api-parceiros/internal/config"
	"gorm.io/gorm"
)

// GetDB abre a conexão; sem DB_USERNAME/DB_PASSWORD as credenciais vêm do Secrets Manager.
func GetDB(ctx context.Context, cfg config.DBConfig) (*gorm.DB, error) {
	username, password := cfg.User, cfg.Password
	if username == "" || password == "" {
		creds, err := retrieveCredentials(ctx, cfg.SecretID)
		if err != nil {
			return nil, fmt.Errorf("db credentials: %w", err)
		}
		username, password = creds.Username, creds.Password
	}
	return ConnectDataBase(cfg.Port, cfg.Host, cfg.Name, username, password, cfg.SSLDisable)
}
