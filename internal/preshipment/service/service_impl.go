package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/go-playground/validator/v10"
	auditdomain "github.com/smallbiznis/ftzflow/internal/audit/domain"
	"github.com/smallbiznis/ftzflow/internal/audit/masking"
	"github.com/smallbiznis/ftzflow/internal/clock"
	customerdomain "github.com/smallbiznis/ftzflow/internal/customer/domain"
	inventorydomain "github.com/smallbiznis/ftzflow/internal/inventory/domain"
	"github.com/smallbiznis/ftzflow/internal/observability/metrics"
	preshipmentdomain "github.com/smallbiznis/ftzflow/internal/preshipment/domain"
	"github.com/smallbiznis/ftzflow/pkg/db"
	"github.com/smallbiznis/ftzflow/pkg/validation"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const targetTypePreshipment = "preshipment"

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        preshipmentdomain.Repository
	Inventory   inventorydomain.Service
	AuditSvc    auditdomain.Service
	CustomerSvc customerdomain.Service
	Metrics     *metrics.Metrics `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	repo      preshipmentdomain.Repository
	inventory inventorydomain.Service
	auditSvc  auditdomain.Service
	customers customerdomain.Service
	metrics   *metrics.Metrics
	validate  *validator.Validate
}

func NewService(p Params) preshipmentdomain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("preshipment.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		repo:      p.Repo,
		inventory: p.Inventory,
		auditSvc:  p.AuditSvc,
		customers: p.CustomerSvc,
		metrics:   p.Metrics,
		validate:  validation.New(),
	}
}

func (s *Service) Create(ctx context.Context, req preshipmentdomain.CreateRequest) (preshipmentdomain.Preshipment, error) {
	shipmentID := strings.TrimSpace(req.ShipmentID)
	if shipmentID == "" {
		return preshipmentdomain.Preshipment{}, preshipmentdomain.ErrInvalidShipmentID
	}
	if req.CustomerID == 0 {
		return preshipmentdomain.Preshipment{}, preshipmentdomain.ErrInvalidCustomer
	}
	if _, err := s.customers.GetByID(ctx, req.CustomerID); err != nil {
		if errors.Is(err, customerdomain.ErrNotFound) {
			return preshipmentdomain.Preshipment{}, preshipmentdomain.ErrInvalidCustomer
		}
		return preshipmentdomain.Preshipment{}, err
	}

	now := s.clock.Now()
	preshipment := preshipmentdomain.Preshipment{
		ID:               s.genID.Generate(),
		ShipmentID:       shipmentID,
		CustomerID:       req.CustomerID,
		Stage:            preshipmentdomain.StagePlanning,
		PortOfEntry:      strings.TrimSpace(req.PortOfEntry),
		FilerCode:        strings.TrimSpace(req.FilerCode),
		ImporterOfRecord: strings.TrimSpace(req.ImporterOfRecord),
		Consignee:        strings.TrimSpace(req.Consignee),
		FTZID:            strings.TrimSpace(req.FTZID),
		CarrierCode:      strings.TrimSpace(req.CarrierCode),
		ModeOfTransport:  strings.TrimSpace(req.ModeOfTransport),
		BillOfLading:     strings.TrimSpace(req.BillOfLading),
		EntryNumber:      optionalString(req.EntryNumber),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	items := make([]preshipmentdomain.PreshipmentItem, 0, len(req.Items))
	for _, item := range req.Items {
		if item.PartID == 0 || item.Quantity <= 0 || item.UnitValue.IsNegative() || item.DutyRate.IsNegative() {
			return preshipmentdomain.Preshipment{}, preshipmentdomain.ErrInvalidItem
		}
		items = append(items, preshipmentdomain.PreshipmentItem{
			ID:              s.genID.Generate(),
			PreshipmentID:   preshipment.ID,
			PartID:          item.PartID,
			LotID:           item.LotID,
			Quantity:        item.Quantity,
			UnitValue:       item.UnitValue,
			HTSCode:         strings.TrimSpace(item.HTSCode),
			CountryOfOrigin: strings.ToUpper(strings.TrimSpace(item.CountryOfOrigin)),
			Description:     strings.TrimSpace(item.Description),
			DutyRate:        item.DutyRate,
			CreatedAt:       now,
		})
	}
	preshipment.Items = items

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.Insert(ctx, tx, &preshipment)
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return preshipmentdomain.Preshipment{}, preshipmentdomain.ErrDuplicateShipmentID
		}
		return preshipmentdomain.Preshipment{}, err
	}

	s.log.Info("preshipment created",
		zap.String("shipment_id", shipmentID),
		zap.Int("items", len(items)),
	)
	return preshipment, nil
}

func (s *Service) Get(ctx context.Context, shipmentID string) (preshipmentdomain.Preshipment, error) {
	preshipment, err := s.load(ctx, shipmentID)
	if err != nil {
		return preshipmentdomain.Preshipment{}, err
	}
	return *preshipment, nil
}

// TransitionStage validates the edge before writing and persists it with a
// compare-and-set on the current stage. Shipped is only reachable through
// FinalizeShipment, which carries the sign-off, inventory decrement and
// completion audit.
func (s *Service) TransitionStage(ctx context.Context, shipmentID string, target preshipmentdomain.Stage) (preshipmentdomain.Preshipment, error) {
	if !target.Valid() {
		return preshipmentdomain.Preshipment{}, preshipmentdomain.ErrInvalidStage
	}
	preshipment, err := s.load(ctx, shipmentID)
	if err != nil {
		return preshipmentdomain.Preshipment{}, err
	}

	from := preshipment.Stage
	if err := preshipmentdomain.ValidateTransition(from, target); err != nil {
		return preshipmentdomain.Preshipment{}, err
	}
	if from == target {
		return *preshipment, nil
	}
	if target == preshipmentdomain.StageShipped {
		return preshipmentdomain.Preshipment{}, fmt.Errorf("%w: %s -> %s", preshipmentdomain.ErrSignoffRequired, from, target)
	}

	now := s.clock.Now()
	var updated bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		updated, err = s.repo.UpdateStage(ctx, tx, preshipment.ID, from, target, now)
		return err
	})
	if err != nil {
		return preshipmentdomain.Preshipment{}, err
	}
	if !updated {
		return preshipmentdomain.Preshipment{}, preshipmentdomain.ErrStageConflict
	}

	preshipment.Stage = target
	preshipment.UpdatedAt = now
	s.metrics.RecordStageTransition(ctx, from.String(), target.String())
	s.recordAudit(ctx, auditdomain.Entry{
		ActorType:  auditdomain.ActorTypeUser,
		Action:     "preshipment.stage_changed",
		TargetType: targetTypePreshipment,
		TargetID:   preshipment.ShipmentID,
		Metadata: map[string]any{
			"from_stage": from.String(),
			"to_stage":   target.String(),
		},
	})
	return *preshipment, nil
}

// FinalizeShipment records the driver sign-off and moves the preshipment to
// Shipped. Inventory decrement and the completion audit run after the stage
// write and never undo it.
func (s *Service) FinalizeShipment(ctx context.Context, shipmentID string, req preshipmentdomain.SignoffRequest) (preshipmentdomain.Preshipment, error) {
	preshipment, err := s.load(ctx, shipmentID)
	if err != nil {
		return preshipmentdomain.Preshipment{}, err
	}

	from := preshipment.Stage
	if !from.CanSignOff() {
		s.metrics.RecordSignoff(ctx, "rejected")
		return preshipmentdomain.Preshipment{}, preshipmentdomain.ErrInvalidStageForSignoff
	}

	record, err := s.signoffRecord(req)
	if err != nil {
		s.metrics.RecordSignoff(ctx, "rejected")
		return preshipmentdomain.Preshipment{}, err
	}

	now := s.clock.Now()
	var updated bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		updated, err = s.repo.MarkShipped(ctx, tx, preshipment.ID, from, record, now)
		return err
	})
	if err != nil {
		return preshipmentdomain.Preshipment{}, err
	}
	if !updated {
		return preshipmentdomain.Preshipment{}, preshipmentdomain.ErrStageConflict
	}

	preshipment.Stage = preshipmentdomain.StageShipped
	preshipment.DriverName = record.DriverName
	preshipment.DriverLicenseNumber = record.DriverLicenseNumber
	preshipment.LicensePlateNumber = record.LicensePlateNumber
	preshipment.CarrierName = record.CarrierName
	preshipment.SignedOffBy = record.SignedOffBy
	preshipment.SignatureImage = record.SignatureImage
	preshipment.ShippedAt = &now
	preshipment.UpdatedAt = now

	s.metrics.RecordSignoff(ctx, "shipped")
	s.metrics.RecordStageTransition(ctx, from.String(), preshipmentdomain.StageShipped.String())

	decremented, failed := s.decrementInventory(ctx, preshipment)
	s.recordAudit(ctx, auditdomain.Entry{
		ActorType:  auditdomain.ActorTypeDriver,
		ActorID:    record.DriverName,
		Action:     "preshipment.shipped",
		TargetType: targetTypePreshipment,
		TargetID:   preshipment.ShipmentID,
		Metadata: masking.MaskFields(map[string]any{
			"from_stage":            from.String(),
			"driver_name":           record.DriverName,
			"driver_license_number": record.DriverLicenseNumber,
			"license_plate_number":  record.LicensePlateNumber,
			"carrier_name":          record.CarrierName,
			"signed_off_by":         record.SignedOffBy,
			"has_signature":         record.SignatureImage != nil,
			"lots_decremented":      decremented,
			"lots_failed":           failed,
		}, masking.SignerKeys...),
	})

	s.log.Info("preshipment shipped",
		zap.String("shipment_id", preshipment.ShipmentID),
		zap.String("from_stage", from.String()),
		zap.Int("lots_decremented", decremented),
		zap.Int("lots_failed", failed),
	)
	return *preshipment, nil
}

func (s *Service) signoffRecord(req preshipmentdomain.SignoffRequest) (preshipmentdomain.SignoffRecord, error) {
	req.DriverName = strings.TrimSpace(req.DriverName)
	req.DriverLicenseNumber = strings.TrimSpace(req.DriverLicenseNumber)
	req.LicensePlateNumber = strings.TrimSpace(req.LicensePlateNumber)
	if err := s.validate.Struct(req); err != nil {
		return preshipmentdomain.SignoffRecord{}, validation.FromValidator(preshipmentdomain.ErrMissingSignoffFields, err)
	}

	signature, err := normalizeSignature(req.SignatureImage)
	if err != nil {
		return preshipmentdomain.SignoffRecord{}, err
	}

	signedBy := strings.TrimSpace(req.SignedBy)
	if signedBy == "" {
		signedBy = req.DriverName
	}
	return preshipmentdomain.SignoffRecord{
		DriverName:          req.DriverName,
		DriverLicenseNumber: strings.ToUpper(req.DriverLicenseNumber),
		LicensePlateNumber:  strings.ToUpper(req.LicensePlateNumber),
		CarrierName:         strings.TrimSpace(req.CarrierName),
		SignedOffBy:         signedBy,
		SignatureImage:      signature,
	}, nil
}

// normalizeSignature accepts raw base64 or a data URL and returns nil when
// no signature was captured.
func normalizeSignature(raw string) (*string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	payload := raw
	if strings.HasPrefix(raw, "data:") {
		idx := strings.Index(raw, ";base64,")
		if idx < 0 {
			return nil, preshipmentdomain.ErrInvalidSignature
		}
		payload = raw[idx+len(";base64,"):]
	}
	if _, err := base64.StdEncoding.DecodeString(payload); err != nil {
		return nil, preshipmentdomain.ErrInvalidSignature
	}
	return &raw, nil
}

func (s *Service) decrementInventory(ctx context.Context, preshipment *preshipmentdomain.Preshipment) (int, int) {
	var decremented, failed int
	for _, item := range preshipment.Items {
		if item.LotID == nil || *item.LotID == 0 {
			continue
		}
		_, err := s.inventory.Decrement(ctx, inventorydomain.DecrementRequest{
			LotID:      *item.LotID,
			Quantity:   item.Quantity,
			SourceType: targetTypePreshipment,
			SourceID:   preshipment.ID,
			Reference:  preshipment.ShipmentID,
		})
		if err != nil {
			failed++
			s.metrics.RecordInventoryDecrementFailure(ctx)
			s.log.Error("inventory decrement failed",
				zap.String("shipment_id", preshipment.ShipmentID),
				zap.String("lot_id", item.LotID.String()),
				zap.Int64("quantity", item.Quantity),
				zap.Error(err),
			)
			continue
		}
		decremented++
	}
	return decremented, failed
}

func (s *Service) recordAudit(ctx context.Context, entry auditdomain.Entry) {
	if s.auditSvc == nil {
		return
	}
	if err := s.auditSvc.Record(ctx, entry); err != nil {
		s.log.Warn("audit record failed",
			zap.String("action", entry.Action),
			zap.String("target_id", entry.TargetID),
			zap.Error(err),
		)
	}
}

func (s *Service) load(ctx context.Context, shipmentID string) (*preshipmentdomain.Preshipment, error) {
	shipmentID = strings.TrimSpace(shipmentID)
	if shipmentID == "" {
		return nil, preshipmentdomain.ErrInvalidShipmentID
	}
	preshipment, err := s.repo.FindByShipmentID(ctx, s.db, shipmentID)
	if err != nil {
		return nil, err
	}
	if preshipment == nil {
		return nil, preshipmentdomain.ErrNotFound
	}
	return preshipment, nil
}

func optionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
