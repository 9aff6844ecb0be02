/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

package repo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dialect"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/um"

	"github.com/skywatch-aero/alertmirror/internal/service/alerts/internal/db/models"
	svcutils "github.com/skywatch-aero/alertmirror/internal/service/common/utils"
)

type AlertsRepository struct {
	Db svcutils.DBQuery
}

// Compile time check for interface implementation
var _ AlertRepositoryInterface = (*AlertsRepository)(nil)

// TimeNow allows test to override time.Now
var TimeNow = time.Now

// WithTransaction a helper function do transaction without exposing anything internal to repo
func (ar *AlertsRepository) WithTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return pgx.BeginFunc(ctx, ar.Db, fn) //nolint:wrapcheck
}

// GetAlertConfigurations grabs all rows of alert_configurations
func (ar *AlertsRepository) GetAlertConfigurations(ctx context.Context) ([]models.AlertConfiguration, error) {
	return svcutils.FindAll[models.AlertConfiguration](ctx, ar.Db)
}

// GetAlertConfiguration grabs a row of alert_configurations using a primary key
func (ar *AlertsRepository) GetAlertConfiguration(ctx context.Context, alertID int64) (*models.AlertConfiguration, error) {
	return svcutils.Find[models.AlertConfiguration](ctx, ar.Db, alertID)
}

// upsertConfigurationFields lists the insert columns of alert_configurations in the order their
// values are bound below; created_at keeps its server default.
var upsertConfigurationFields = []string{
	"AlertID", "Ident", "Origin", "Destination", "AircraftType",
	"StartDate", "EndDate", "MaxWeekly", "Eta",
	"Arrival", "Departure", "Cancelled", "Diverted", "Filed",
}

// UpsertAlertConfiguration stores the mirror row for a remotely accepted configuration.  A stale
// row under the same alert_id (a delete that diverged earlier, or remote id reuse) is replaced
// wholesale so the mirror converges back onto the remote state.
func (ar *AlertsRepository) UpsertAlertConfiguration(ctx context.Context, record models.AlertConfiguration) (*models.AlertConfiguration, error) {
	m := models.AlertConfiguration{}
	dbTags := svcutils.GetAllDBTagsFromStruct(m)

	query := psql.Insert(im.Into(m.TableName()), im.Returning(dbTags.Columns()...))
	query.Expression.Columns = svcutils.GetColumns(record, upsertConfigurationFields)
	query.Apply(im.Values(psql.Arg(
		record.AlertID, record.Ident, record.Origin, record.Destination, record.AircraftType,
		record.StartDate, record.EndDate, record.MaxWeekly, record.Eta,
		record.Arrival, record.Departure, record.Cancelled, record.Diverted, record.Filed,
	)))

	// created_at deliberately not excluded: a replaced stale row keeps its original mirror entry time
	query.Apply(im.OnConflictOnConstraint(m.OnConflict()).DoUpdate(
		im.SetExcluded(dbTags["Ident"]),
		im.SetExcluded(dbTags["Origin"]),
		im.SetExcluded(dbTags["Destination"]),
		im.SetExcluded(dbTags["AircraftType"]),
		im.SetExcluded(dbTags["StartDate"]),
		im.SetExcluded(dbTags["EndDate"]),
		im.SetExcluded(dbTags["MaxWeekly"]),
		im.SetExcluded(dbTags["Eta"]),
		im.SetExcluded(dbTags["Arrival"]),
		im.SetExcluded(dbTags["Departure"]),
		im.SetExcluded(dbTags["Cancelled"]),
		im.SetExcluded(dbTags["Diverted"]),
		im.SetExcluded(dbTags["Filed"]),
	))

	sql, params, err := query.Build(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build query for configuration upsert: %w", err)
	}

	rows, _ := ar.Db.Query(ctx, sql, params...) // note: err is passed on to Collect* func so we can ignore this
	stored, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[models.AlertConfiguration])
	if err != nil {
		return nil, fmt.Errorf("failed to extract upserted configuration: %w", err)
	}

	return &stored, nil
}

// UpdateAlertConfiguration overwrites every caller-settable column of the mirror row matching the
// alert id, including setting cleared filter fields back to NULL.  ErrNotFound is returned when
// the mirror does not track the id; configurations registered outside this service have no mirror
// row and callers treat that outcome as normal.
func (ar *AlertsRepository) UpdateAlertConfiguration(ctx context.Context, alertID int64, record models.AlertConfiguration) (*models.AlertConfiguration, error) {
	m := models.AlertConfiguration{}
	dbTags := svcutils.GetAllDBTagsFromStruct(m)

	query := psql.Update(
		um.Table(m.TableName()),
		um.SetCol(dbTags["Ident"]).ToArg(record.Ident),
		um.SetCol(dbTags["Origin"]).ToArg(record.Origin),
		um.SetCol(dbTags["Destination"]).ToArg(record.Destination),
		um.SetCol(dbTags["AircraftType"]).ToArg(record.AircraftType),
		um.SetCol(dbTags["StartDate"]).ToArg(record.StartDate),
		um.SetCol(dbTags["EndDate"]).ToArg(record.EndDate),
		um.SetCol(dbTags["MaxWeekly"]).ToArg(record.MaxWeekly),
		um.SetCol(dbTags["Eta"]).ToArg(record.Eta),
		um.SetCol(dbTags["Arrival"]).ToArg(record.Arrival),
		um.SetCol(dbTags["Departure"]).ToArg(record.Departure),
		um.SetCol(dbTags["Cancelled"]).ToArg(record.Cancelled),
		um.SetCol(dbTags["Diverted"]).ToArg(record.Diverted),
		um.SetCol(dbTags["Filed"]).ToArg(record.Filed),
		um.Where(psql.Quote(m.PrimaryKey()).EQ(psql.Arg(alertID))),
		um.Returning(dbTags.Columns()...),
	)

	sql, params, err := query.Build(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build query for configuration update: %w", err)
	}

	records, err := svcutils.ExecuteCollectRows[models.AlertConfiguration](ctx, ar.Db, sql, params)
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return nil, svcutils.ErrNotFound
	}

	return &records[0], nil
}

// DeleteAlertConfiguration deletes a row of alert_configurations using a primary key.  Zero rows
// affected means the mirror never tracked the id.
func (ar *AlertsRepository) DeleteAlertConfiguration(ctx context.Context, alertID int64) (int64, error) {
	expr := psql.Quote(models.AlertConfiguration{}.PrimaryKey()).EQ(psql.Arg(alertID))
	return svcutils.Delete[models.AlertConfiguration](ctx, ar.Db, expr)
}

// CreateAlertEvent appends a delivered alert notification.  receipt_time is stamped here in UTC
// rather than by the database so tests can pin it through TimeNow.
func (ar *AlertsRepository) CreateAlertEvent(ctx context.Context, record models.AlertEvent) (*models.AlertEvent, error) {
	record.ReceiptTime = TimeNow().UTC()
	return svcutils.Create[models.AlertEvent](ctx, ar.Db, record,
		"ReceiptTime", "AlertID", "FaFlightID", "LongDescription", "ShortDescription",
		"Summary", "EventCode", "Ident", "Registration", "AircraftType", "Origin", "Destination")
}

// GetAlertEvents grabs all rows of alert_events
func (ar *AlertsRepository) GetAlertEvents(ctx context.Context) ([]models.AlertEvent, error) {
	return svcutils.FindAll[models.AlertEvent](ctx, ar.Db)
}

// CreateDivergenceRecord appends a single divergence record outside any transaction.  detected_at
// keeps its server default.
func (ar *AlertsRepository) CreateDivergenceRecord(ctx context.Context, record models.DivergenceRecord) (*models.DivergenceRecord, error) {
	return svcutils.Create[models.DivergenceRecord](ctx, ar.Db, record,
		"DivergenceID", "AlertID", "Action", "Detail")
}

// CreateDivergenceRecords appends a batch of divergence records under the caller's transaction so
// a full audit pass lands atomically.
func (ar *AlertsRepository) CreateDivergenceRecords(ctx context.Context, tx pgx.Tx, records []models.DivergenceRecord) error {
	if len(records) == 0 {
		slog.Warn("No records for divergence insert")
		return nil
	}

	m := models.DivergenceRecord{}
	query := psql.Insert(im.Into(m.TableName()))

	query.Expression.Columns = svcutils.GetColumns(records[0], []string{
		"DivergenceID", "AlertID", "Action", "Detail",
	})

	values := make([]bob.Mod[*dialect.InsertQuery], 0, len(records))
	for _, record := range records {
		values = append(values, im.Values(psql.Arg(
			record.DivergenceID, record.AlertID, record.Action, record.Detail,
		)))
	}
	query.Apply(values...)

	sql, params, err := query.Build(ctx)
	if err != nil {
		return fmt.Errorf("failed to build query for divergence insert: %w", err)
	}

	_, err = tx.Exec(ctx, sql, params...)
	if err != nil {
		return fmt.Errorf("failed to execute divergence insert query: %w", err)
	}

	return nil
}

// GetDivergenceRecords grabs all rows of divergence_records
func (ar *AlertsRepository) GetDivergenceRecords(ctx context.Context) ([]models.DivergenceRecord, error) {
	return svcutils.FindAll[models.DivergenceRecord](ctx, ar.Db)
}

// GetDivergenceRecordsByAction returns the divergence records recorded with the given action
func (ar *AlertsRepository) GetDivergenceRecordsByAction(ctx context.Context, action string) ([]models.DivergenceRecord, error) {
	m := models.DivergenceRecord{}
	dbTags := svcutils.GetAllDBTagsFromStruct(m)
	return svcutils.Search[models.DivergenceRecord](ctx, ar.Db,
		psql.Quote(dbTags["Action"]).EQ(psql.Arg(action)))
}
