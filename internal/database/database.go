package database

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/coding-shalabh/nexora-api-sub000/internal/config"
	"github.com/coding-shalabh/nexora-api-sub000/pkg/mysql"
)

func NewConnection(cfg *config.Config, logger *zap.Logger) (*gorm.DB, error) {
	return mysql.NewConnection(context.Background(), cfg.Database, logger)
}
