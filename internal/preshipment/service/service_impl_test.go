package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	auditdomain "github.com/smallbiznis/ftzflow/internal/audit/domain"
	auditservice "github.com/smallbiznis/ftzflow/internal/audit/service"
	"github.com/smallbiznis/ftzflow/internal/clock"
	customerdomain "github.com/smallbiznis/ftzflow/internal/customer/domain"
	customerservice "github.com/smallbiznis/ftzflow/internal/customer/service"
	inventorydomain "github.com/smallbiznis/ftzflow/internal/inventory/domain"
	inventoryservice "github.com/smallbiznis/ftzflow/internal/inventory/service"
	preshipmentdomain "github.com/smallbiznis/ftzflow/internal/preshipment/domain"
	preshipmentrepo "github.com/smallbiznis/ftzflow/internal/preshipment/repository"
	preshipmentservice "github.com/smallbiznis/ftzflow/internal/preshipment/service"
	"github.com/smallbiznis/ftzflow/pkg/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db       *gorm.DB
	node     *snowflake.Node
	clock    *clock.FakeClock
	svc      preshipmentdomain.Service
	audit    auditdomain.Service
	customer customerdomain.Customer
}

type failingInventory struct{}

func (failingInventory) Decrement(context.Context, inventorydomain.DecrementRequest) (inventorydomain.DecrementResult, error) {
	return inventorydomain.DecrementResult{}, errors.New("inventory offline")
}

func (failingInventory) GetLots(context.Context, []snowflake.ID) (map[snowflake.ID]inventorydomain.Lot, error) {
	return nil, errors.New("inventory offline")
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&customerdomain.Customer{},
		&inventorydomain.Lot{},
		&inventorydomain.Transaction{},
		&preshipmentdomain.Preshipment{},
		&preshipmentdomain.PreshipmentItem{},
		&auditdomain.AuditLog{},
	))
	return db
}

func newFixture(t *testing.T, inventory inventorydomain.Service) *fixture {
	t.Helper()

	db := setupTestDB(t)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC))

	if inventory == nil {
		inventory = inventoryservice.NewService(inventoryservice.Params{
			DB:    db,
			Log:   zap.NewNop(),
			GenID: node,
			Clock: fake,
		})
	}
	auditSvc := auditservice.NewService(auditservice.Params{DB: db, Log: zap.NewNop(), GenID: node})

	customer := customerdomain.Customer{ID: node.Generate(), Code: "ACME", Name: "Acme Motors"}
	require.NoError(t, db.Create(&customer).Error)

	svc := preshipmentservice.NewService(preshipmentservice.Params{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Clock:       fake,
		Repo:        preshipmentrepo.Provide(),
		Inventory:   inventory,
		AuditSvc:    auditSvc,
		CustomerSvc: customerservice.New(customerservice.Params{DB: db, Log: zap.NewNop()}),
	})

	return &fixture{db: db, node: node, clock: fake, svc: svc, audit: auditSvc, customer: customer}
}

func (f *fixture) createLot(t *testing.T, quantity int64) inventorydomain.Lot {
	t.Helper()
	lot := inventorydomain.Lot{
		ID:         f.node.Generate(),
		PartID:     f.node.Generate(),
		LotNumber:  "LOT-" + f.node.Generate().String(),
		Quantity:   quantity,
		Status:     inventorydomain.LotStatusActive,
		ZoneStatus: inventorydomain.ZoneStatusPrivilegedForeign,
	}
	require.NoError(t, f.db.Create(&lot).Error)
	return lot
}

func (f *fixture) createPreshipment(t *testing.T, shipmentID string, items ...preshipmentdomain.CreateItemRequest) preshipmentdomain.Preshipment {
	t.Helper()
	if len(items) == 0 {
		items = []preshipmentdomain.CreateItemRequest{{
			PartID:    f.node.Generate(),
			Quantity:  5,
			UnitValue: decimal.RequireFromString("12.50"),
		}}
	}
	p, err := f.svc.Create(context.Background(), preshipmentdomain.CreateRequest{
		ShipmentID:       shipmentID,
		CustomerID:       f.customer.ID,
		PortOfEntry:      "2304",
		FilerCode:        "ABC",
		ImporterOfRecord: "12-3456789",
		Consignee:        "Acme Motors",
		Items:            items,
	})
	require.NoError(t, err)
	return p
}

// advance walks a preshipment forward until it reaches target.
func (f *fixture) advance(t *testing.T, shipmentID string, target preshipmentdomain.Stage) {
	t.Helper()
	for _, stage := range preshipmentdomain.Stages[1:] {
		_, err := f.svc.TransitionStage(context.Background(), shipmentID, stage)
		require.NoError(t, err)
		if stage == target {
			return
		}
	}
}

func validSignoff() preshipmentdomain.SignoffRequest {
	return preshipmentdomain.SignoffRequest{
		DriverName:          "Rosa Diaz",
		DriverLicenseNumber: "d1234567",
		LicensePlateNumber:  "tx-7766",
		CarrierName:         "Lone Star Freight",
	}
}

func TestCreateStartsInPlanning(t *testing.T) {
	f := newFixture(t, nil)
	p := f.createPreshipment(t, "SHP-1")

	assert.Equal(t, preshipmentdomain.StagePlanning, p.Stage)

	loaded, err := f.svc.Get(context.Background(), "SHP-1")
	require.NoError(t, err)
	require.Len(t, loaded.Items, 1)
	assert.True(t, loaded.Items[0].UnitValue.Equal(decimal.RequireFromString("12.5")))
}

func TestCreateRejectsDuplicateShipmentID(t *testing.T) {
	f := newFixture(t, nil)
	f.createPreshipment(t, "SHP-1")

	_, err := f.svc.Create(context.Background(), preshipmentdomain.CreateRequest{
		ShipmentID: "SHP-1",
		CustomerID: f.customer.ID,
	})
	assert.ErrorIs(t, err, preshipmentdomain.ErrDuplicateShipmentID)
}

func TestCreateRejectsUnknownCustomer(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.Create(context.Background(), preshipmentdomain.CreateRequest{
		ShipmentID: "SHP-1",
		CustomerID: f.node.Generate(),
	})
	assert.ErrorIs(t, err, preshipmentdomain.ErrInvalidCustomer)
}

func TestTransitionStagePersistsAllowedEdges(t *testing.T) {
	f := newFixture(t, nil)
	f.createPreshipment(t, "SHP-1")
	ctx := context.Background()

	p, err := f.svc.TransitionStage(ctx, "SHP-1", preshipmentdomain.StagePicking)
	require.NoError(t, err)
	assert.Equal(t, preshipmentdomain.StagePicking, p.Stage)

	p, err = f.svc.TransitionStage(ctx, "SHP-1", preshipmentdomain.StagePlanning)
	require.NoError(t, err)
	assert.Equal(t, preshipmentdomain.StagePlanning, p.Stage)

	_, err = f.svc.TransitionStage(ctx, "SHP-1", preshipmentdomain.StageLoading)
	assert.ErrorIs(t, err, preshipmentdomain.ErrInvalidTransition)

	loaded, err := f.svc.Get(ctx, "SHP-1")
	require.NoError(t, err)
	assert.Equal(t, preshipmentdomain.StagePlanning, loaded.Stage)

	logs, err := f.audit.ListByTarget(ctx, "preshipment", "SHP-1")
	require.NoError(t, err)
	assert.Len(t, logs, 2)
}

func TestTransitionToCurrentStageIsNoop(t *testing.T) {
	f := newFixture(t, nil)
	f.createPreshipment(t, "SHP-1")

	p, err := f.svc.TransitionStage(context.Background(), "SHP-1", preshipmentdomain.StagePlanning)
	require.NoError(t, err)
	assert.Equal(t, preshipmentdomain.StagePlanning, p.Stage)
}

func TestTransitionStageNotFound(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.TransitionStage(context.Background(), "missing", preshipmentdomain.StagePicking)
	assert.ErrorIs(t, err, preshipmentdomain.ErrNotFound)
}

func TestTransitionStageDetectsConcurrentChange(t *testing.T) {
	f := newFixture(t, nil)
	p := f.createPreshipment(t, "SHP-1")

	repo := preshipmentrepo.Provide()
	ok, err := repo.UpdateStage(context.Background(), f.db, p.ID, preshipmentdomain.StagePicking, preshipmentdomain.StagePacking, f.clock.Now())
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.UpdateStage(context.Background(), f.db, p.ID, preshipmentdomain.StagePlanning, preshipmentdomain.StagePicking, f.clock.Now())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestShippedIsTerminal(t *testing.T) {
	f := newFixture(t, nil)
	f.createPreshipment(t, "SHP-1")
	f.advance(t, "SHP-1", preshipmentdomain.StageStaged)

	_, err := f.svc.FinalizeShipment(context.Background(), "SHP-1", validSignoff())
	require.NoError(t, err)

	_, err = f.svc.TransitionStage(context.Background(), "SHP-1", preshipmentdomain.StagePicking)
	var terr *preshipmentdomain.TransitionError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, preshipmentdomain.StageShipped, terr.From)
	assert.Equal(t, preshipmentdomain.StagePicking, terr.To)
}

func TestFinalizeFromPlanningFails(t *testing.T) {
	f := newFixture(t, nil)
	f.createPreshipment(t, "SHP-1")

	_, err := f.svc.FinalizeShipment(context.Background(), "SHP-1", validSignoff())
	require.ErrorIs(t, err, preshipmentdomain.ErrInvalidStageForSignoff)

	loaded, err := f.svc.Get(context.Background(), "SHP-1")
	require.NoError(t, err)
	assert.Equal(t, preshipmentdomain.StagePlanning, loaded.Stage)
	assert.Nil(t, loaded.ShippedAt)
}

func TestFinalizeNamesMissingFields(t *testing.T) {
	f := newFixture(t, nil)
	f.createPreshipment(t, "SHP-1")
	f.advance(t, "SHP-1", preshipmentdomain.StageReadyToShip)

	_, err := f.svc.FinalizeShipment(context.Background(), "SHP-1", preshipmentdomain.SignoffRequest{
		DriverName:         "Rosa Diaz",
		LicensePlateNumber: "   ",
	})
	require.ErrorIs(t, err, preshipmentdomain.ErrMissingSignoffFields)

	var missing *validation.MissingFieldsError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"driver_license_number", "license_plate_number"}, missing.Fields)

	loaded, err := f.svc.Get(context.Background(), "SHP-1")
	require.NoError(t, err)
	assert.Equal(t, preshipmentdomain.StageReadyToShip, loaded.Stage)
}

func TestFinalizeRejectsMalformedSignature(t *testing.T) {
	f := newFixture(t, nil)
	f.createPreshipment(t, "SHP-1")
	f.advance(t, "SHP-1", preshipmentdomain.StageStaged)

	req := validSignoff()
	req.SignatureImage = "data:image/png;base64,%%%"
	_, err := f.svc.FinalizeShipment(context.Background(), "SHP-1", req)
	assert.ErrorIs(t, err, preshipmentdomain.ErrInvalidSignature)
}

func TestFinalizeDecrementsLotsAndAudits(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	partial := f.createLot(t, 100)
	drained := f.createLot(t, 4)

	p := f.createPreshipment(t, "SHP-1",
		preshipmentdomain.CreateItemRequest{PartID: partial.PartID, LotID: &partial.ID, Quantity: 30, UnitValue: decimal.NewFromInt(2)},
		preshipmentdomain.CreateItemRequest{PartID: drained.PartID, LotID: &drained.ID, Quantity: 10, UnitValue: decimal.NewFromInt(3)},
		preshipmentdomain.CreateItemRequest{PartID: f.node.Generate(), Quantity: 1, UnitValue: decimal.NewFromInt(1)},
	)
	f.advance(t, "SHP-1", preshipmentdomain.StageReadyToShip)

	req := validSignoff()
	req.SignatureImage = "data:image/png;base64,aGVsbG8="
	shipped, err := f.svc.FinalizeShipment(ctx, "SHP-1", req)
	require.NoError(t, err)
	assert.Equal(t, preshipmentdomain.StageShipped, shipped.Stage)
	require.NotNil(t, shipped.ShippedAt)
	assert.Equal(t, f.clock.Now(), shipped.ShippedAt.UTC())

	var lots []inventorydomain.Lot
	require.NoError(t, f.db.Order("quantity desc").Find(&lots).Error)
	require.Len(t, lots, 2)
	assert.Equal(t, int64(70), lots[0].Quantity)
	assert.Equal(t, inventorydomain.LotStatusActive, lots[0].Status)
	assert.Equal(t, int64(0), lots[1].Quantity)
	assert.Equal(t, inventorydomain.LotStatusExhausted, lots[1].Status)

	var txCount int64
	require.NoError(t, f.db.Model(&inventorydomain.Transaction{}).Where("source_id = ?", p.ID).Count(&txCount).Error)
	assert.Equal(t, int64(2), txCount)

	logs, err := f.audit.ListByTarget(ctx, "preshipment", "SHP-1")
	require.NoError(t, err)
	last := logs[len(logs)-1]
	assert.Equal(t, "preshipment.shipped", last.Action)
	assert.Equal(t, "****7766", last.Metadata["license_plate_number"])
	assert.Equal(t, "****4567", last.Metadata["driver_license_number"])
}

func TestFinalizeSurvivesInventoryFailure(t *testing.T) {
	f := newFixture(t, failingInventory{})
	lotID := f.node.Generate()
	f.createPreshipment(t, "SHP-1", preshipmentdomain.CreateItemRequest{
		PartID:    f.node.Generate(),
		LotID:     &lotID,
		Quantity:  3,
		UnitValue: decimal.NewFromInt(9),
	})
	f.advance(t, "SHP-1", preshipmentdomain.StageStaged)

	shipped, err := f.svc.FinalizeShipment(context.Background(), "SHP-1", validSignoff())
	require.NoError(t, err)
	assert.Equal(t, preshipmentdomain.StageShipped, shipped.Stage)

	loaded, err := f.svc.Get(context.Background(), "SHP-1")
	require.NoError(t, err)
	assert.Equal(t, preshipmentdomain.StageShipped, loaded.Stage)
	assert.Equal(t, "D1234567", loaded.DriverLicenseNumber)
}

func TestTransitionToShippedRequiresSignoff(t *testing.T) {
	f := newFixture(t, nil)
	f.createPreshipment(t, "SHP-1")
	f.advance(t, "SHP-1", preshipmentdomain.StageStaged)

	_, err := f.svc.TransitionStage(context.Background(), "SHP-1", preshipmentdomain.StageShipped)
	require.ErrorIs(t, err, preshipmentdomain.ErrSignoffRequired)

	loaded, err := f.svc.Get(context.Background(), "SHP-1")
	require.NoError(t, err)
	assert.Equal(t, preshipmentdomain.StageStaged, loaded.Stage)
	assert.Nil(t, loaded.ShippedAt)

	shipped, err := f.svc.FinalizeShipment(context.Background(), "SHP-1", validSignoff())
	require.NoError(t, err)
	assert.Equal(t, preshipmentdomain.StageShipped, shipped.Stage)
}

func TestLinkEntrySummaryOnlyClaimsUnfiledPreshipments(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	a := f.createPreshipment(t, "SHP-A")
	b := f.createPreshipment(t, "SHP-B")
	repo := preshipmentrepo.Provide()

	first := f.node.Generate()
	ok, err := repo.LinkEntrySummary(ctx, f.db, preshipmentdomain.LinkRequest{
		PreshipmentIDs: []snowflake.ID{a.ID},
		EntrySummaryID: first,
		EntryNumber:    "FTZ250000001",
		Status:         "DRAFT",
	}, f.clock.Now())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.LinkEntrySummary(ctx, f.db, preshipmentdomain.LinkRequest{
		PreshipmentIDs: []snowflake.ID{a.ID, b.ID},
		EntrySummaryID: f.node.Generate(),
		EntryNumber:    "FTZ250000002",
		Status:         "FILED",
	}, f.clock.Now())
	require.NoError(t, err)
	assert.False(t, ok)

	loaded, err := f.svc.Get(ctx, "SHP-A")
	require.NoError(t, err)
	require.NotNil(t, loaded.EntrySummaryID)
	assert.Equal(t, first, *loaded.EntrySummaryID)

	require.NoError(t, repo.UnlinkEntrySummary(ctx, f.db, first, f.clock.Now()))
	loaded, err = f.svc.Get(ctx, "SHP-A")
	require.NoError(t, err)
	assert.Nil(t, loaded.EntrySummaryID)
	assert.Nil(t, loaded.EntrySummaryStatus)
}
