package repo

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/skywatch-aero/alertmirror/internal/service/alerts/internal/db/models"
)

type AlertRepositoryInterface interface {
	WithTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error
	GetAlertConfigurations(ctx context.Context) ([]models.AlertConfiguration, error)
	GetAlertConfiguration(ctx context.Context, alertID int64) (*models.AlertConfiguration, error)
	UpsertAlertConfiguration(ctx context.Context, record models.AlertConfiguration) (*models.AlertConfiguration, error)
	UpdateAlertConfiguration(ctx context.Context, alertID int64, record models.AlertConfiguration) (*models.AlertConfiguration, error)
	DeleteAlertConfiguration(ctx context.Context, alertID int64) (int64, error)
	CreateAlertEvent(ctx context.Context, record models.AlertEvent) (*models.AlertEvent, error)
	GetAlertEvents(ctx context.Context) ([]models.AlertEvent, error)
	CreateDivergenceRecord(ctx context.Context, record models.DivergenceRecord) (*models.DivergenceRecord, error)
	CreateDivergenceRecords(ctx context.Context, tx pgx.Tx, records []models.DivergenceRecord) error
	GetDivergenceRecords(ctx context.Context) ([]models.DivergenceRecord, error)
	GetDivergenceRecordsByAction(ctx context.Context, action string) ([]models.DivergenceRecord, error)
}
