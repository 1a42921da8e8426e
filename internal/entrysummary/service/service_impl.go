package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	auditdomain "github.com/smallbiznis/ftzflow/internal/audit/domain"
	"github.com/smallbiznis/ftzflow/internal/buildlock"
	"github.com/smallbiznis/ftzflow/internal/clock"
	"github.com/smallbiznis/ftzflow/internal/config"
	customerdomain "github.com/smallbiznis/ftzflow/internal/customer/domain"
	entrysummarydomain "github.com/smallbiznis/ftzflow/internal/entrysummary/domain"
	inventorydomain "github.com/smallbiznis/ftzflow/internal/inventory/domain"
	obscontext "github.com/smallbiznis/ftzflow/internal/observability/context"
	"github.com/smallbiznis/ftzflow/internal/observability/metrics"
	partdomain "github.com/smallbiznis/ftzflow/internal/part/domain"
	preshipmentdomain "github.com/smallbiznis/ftzflow/internal/preshipment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	pathSingle       = "single"
	pathConsolidated = "consolidated"

	cleanupAttempts = 3
	cleanupBackoff  = 50 * time.Millisecond
)

type Params struct {
	fx.In

	DB              *gorm.DB
	Log             *zap.Logger
	GenID           *snowflake.Node
	Clock           clock.Clock
	Repo            entrysummarydomain.Repository
	PreshipmentRepo preshipmentdomain.Repository
	PartSvc         partdomain.Service
	CustomerSvc     customerdomain.Service
	InventorySvc    inventorydomain.Service
	AuditSvc        auditdomain.Service
	Filing          *config.FilingConfigHolder
	Locker          buildlock.Locker `optional:"true"`
	Metrics         *metrics.Metrics `optional:"true"`
}

type Service struct {
	db              *gorm.DB
	log             *zap.Logger
	genID           *snowflake.Node
	clock           clock.Clock
	repo            entrysummarydomain.Repository
	preshipmentRepo preshipmentdomain.Repository
	parts           partdomain.Service
	customers       customerdomain.Service
	inventory       inventorydomain.Service
	auditSvc        auditdomain.Service
	filing          *config.FilingConfigHolder
	locker          buildlock.Locker
	metrics         *metrics.Metrics
}

func NewService(p Params) entrysummarydomain.Service {
	locker := p.Locker
	if locker == nil {
		locker = buildlock.NewLocker(nil)
	}
	return &Service{
		db:              p.DB,
		log:             p.Log.Named("entrysummary.service"),
		genID:           p.GenID,
		clock:           p.Clock,
		repo:            p.Repo,
		preshipmentRepo: p.PreshipmentRepo,
		parts:           p.PartSvc,
		customers:       p.CustomerSvc,
		inventory:       p.InventorySvc,
		auditSvc:        p.AuditSvc,
		filing:          p.Filing,
		locker:          locker,
		metrics:         p.Metrics,
	}
}

// buildPlan is everything a build writes in its transaction.
type buildPlan struct {
	path        string
	header      entrysummarydomain.EntrySummary
	entryNumber string
	lines       []entrysummarydomain.LineItem
	zoneStatus  []zoneClaim
	members     []snowflake.ID
	memberState entrysummarydomain.FilingStatus
	group       *entrysummarydomain.Group
	actor       string
}

type zoneClaim struct {
	status string
	lotID  *snowflake.ID
}

// BuildFromPreshipment files one preshipment as a DRAFT entry summary.
// Items whose part does not resolve are left out and reported in the result.
func (s *Service) BuildFromPreshipment(ctx context.Context, shipmentID string) (entrysummarydomain.BuildResult, error) {
	shipmentID = strings.TrimSpace(shipmentID)
	if shipmentID == "" {
		return entrysummarydomain.BuildResult{}, preshipmentdomain.ErrInvalidShipmentID
	}
	preshipment, err := s.loadUnfiled(ctx, shipmentID)
	if err != nil {
		return entrysummarydomain.BuildResult{}, err
	}
	if err := entrysummarydomain.ValidatePreshipment(*preshipment); err != nil {
		return entrysummarydomain.BuildResult{}, err
	}

	cfg := s.filing.Get()
	release, err := s.obtainLock(ctx, "preshipment:"+preshipment.ID.String(), cfg.LockTTL)
	if err != nil {
		return entrysummarydomain.BuildResult{}, err
	}
	defer s.releaseLock(ctx, release)

	// A competing build may have finished while we waited for the lock.
	preshipment, err = s.loadUnfiled(ctx, shipmentID)
	if err != nil {
		return entrysummarydomain.BuildResult{}, err
	}

	lines, claims, skipped, err := s.singleLines(ctx, preshipment, cfg)
	if err != nil {
		return entrysummarydomain.BuildResult{}, err
	}
	if len(lines) == 0 {
		return entrysummarydomain.BuildResult{SkippedItems: skipped}, entrysummarydomain.ErrNoLineItems
	}

	preshipmentID := preshipment.ID
	plan := buildPlan{
		path: pathSingle,
		header: entrysummarydomain.EntrySummary{
			EntryType:                    cfg.EntryType,
			FilerCode:                    preshipment.FilerCode,
			PortOfEntry:                  preshipment.PortOfEntry,
			ImporterOfRecord:             preshipment.ImporterOfRecord,
			Consignee:                    preshipment.Consignee,
			FTZID:                        preshipment.FTZID,
			CarrierCode:                  preshipment.CarrierCode,
			ModeOfTransport:              preshipment.ModeOfTransport,
			BillOfLading:                 preshipment.BillOfLading,
			FilingStatus:                 entrysummarydomain.FilingStatusDraft,
			ConsolidatedSummaryIndicator: entrysummarydomain.ConsolidatedIndicatorNo,
			PreshipmentID:                &preshipmentID,
		},
		lines:       lines,
		zoneStatus:  claims,
		members:     []snowflake.ID{preshipment.ID},
		memberState: entrysummarydomain.FilingStatusDraft,
		actor:       actorFrom(ctx),
	}
	if preshipment.EntryNumber != nil {
		plan.entryNumber = strings.TrimSpace(*preshipment.EntryNumber)
	}

	summary, err := s.persist(ctx, plan, cfg)
	if err != nil {
		return entrysummarydomain.BuildResult{SkippedItems: skipped}, err
	}

	if len(skipped) > 0 {
		s.log.Warn("preshipment items left out of entry summary",
			zap.String("shipment_id", preshipment.ShipmentID),
			zap.String("entry_number", summary.EntryNumber),
			zap.Int("skipped", len(skipped)),
		)
	}
	s.recordAudit(ctx, summary, pathSingle, map[string]any{
		"shipment_id":   preshipment.ShipmentID,
		"skipped_items": len(skipped),
	})
	return entrysummarydomain.BuildResult{EntrySummary: summary, SkippedItems: skipped}, nil
}

func (s *Service) loadUnfiled(ctx context.Context, shipmentID string) (*preshipmentdomain.Preshipment, error) {
	preshipment, err := s.preshipmentRepo.FindByShipmentID(ctx, s.db, shipmentID)
	if err != nil {
		return nil, err
	}
	if preshipment == nil {
		return nil, preshipmentdomain.ErrNotFound
	}
	if preshipment.EntrySummaryID != nil {
		return nil, fmt.Errorf("%w: %s", entrysummarydomain.ErrAlreadyFiled, shipmentID)
	}
	return preshipment, nil
}

func (s *Service) singleLines(ctx context.Context, preshipment *preshipmentdomain.Preshipment, cfg config.FilingConfig) ([]entrysummarydomain.LineItem, []zoneClaim, []entrysummarydomain.SkippedItem, error) {
	partIDs := make([]snowflake.ID, 0, len(preshipment.Items))
	lotIDs := make([]snowflake.ID, 0, len(preshipment.Items))
	for _, item := range preshipment.Items {
		partIDs = append(partIDs, item.PartID)
		if item.LotID != nil {
			lotIDs = append(lotIDs, *item.LotID)
		}
	}

	parts, err := s.parts.Resolve(ctx, partIDs)
	if err != nil {
		return nil, nil, nil, err
	}
	lots := map[snowflake.ID]inventorydomain.Lot{}
	if len(lotIDs) > 0 {
		lots, err = s.inventory.GetLots(ctx, lotIDs)
		if err != nil {
			return nil, nil, nil, err
		}
	}

	now := s.clock.Now()
	lines := make([]entrysummarydomain.LineItem, 0, len(preshipment.Items))
	claims := make([]zoneClaim, 0, len(preshipment.Items))
	var skipped []entrysummarydomain.SkippedItem
	for _, item := range preshipment.Items {
		part, ok := parts[item.PartID]
		if !ok {
			skipped = append(skipped, entrysummarydomain.SkippedItem{
				ItemID: item.ID,
				PartID: item.PartID,
				Reason: "part_not_found",
			})
			continue
		}

		unitValue := part.StandardValue
		if unitValue.IsZero() {
			unitValue = item.UnitValue
		}
		entered := entrysummarydomain.EnteredValue(unitValue, item.Quantity)
		partID := part.ID

		lines = append(lines, entrysummarydomain.LineItem{
			ID:              s.genID.Generate(),
			LineNumber:      len(lines) + 1,
			PartID:          &partID,
			HTSCode:         entrysummarydomain.FormatHTSCode(firstNonEmpty(item.HTSCode, part.HTSCode)),
			CountryOfOrigin: strings.ToUpper(firstNonEmpty(item.CountryOfOrigin, part.CountryOfOrigin)),
			Description:     firstNonEmpty(item.Description, part.Description),
			Quantity:        item.Quantity,
			UnitValue:       unitValue,
			TotalValue:      entered,
			DutyRate:        item.DutyRate,
			DutyAmount:      entrysummarydomain.DutyAmount(entered, item.DutyRate),
			CreatedAt:       now,
		})

		claim := zoneClaim{status: cfg.DefaultZoneStatus}
		if item.LotID != nil {
			if lot, ok := lots[*item.LotID]; ok && lot.ZoneStatus.Valid() {
				lotID := lot.ID
				claim = zoneClaim{status: string(lot.ZoneStatus), lotID: &lotID}
			}
		}
		claims = append(claims, claim)
	}
	return lines, claims, skipped, nil
}

// BuildFromGroup consolidates every member preshipment of a group into one
// FILED entry summary and marks the group filed.
func (s *Service) BuildFromGroup(ctx context.Context, groupID snowflake.ID) (entrysummarydomain.BuildResult, error) {
	group, err := s.repo.FindGroup(ctx, s.db, groupID)
	if err != nil {
		return entrysummarydomain.BuildResult{}, err
	}
	if group == nil {
		return entrysummarydomain.BuildResult{}, entrysummarydomain.ErrGroupNotFound
	}
	if !group.Status.Buildable() {
		return entrysummarydomain.BuildResult{}, fmt.Errorf("%w: %s", entrysummarydomain.ErrInvalidGroupStatus, group.Status)
	}

	memberIDs, err := s.repo.ListGroupPreshipmentIDs(ctx, s.db, group.ID)
	if err != nil {
		return entrysummarydomain.BuildResult{}, err
	}
	if len(memberIDs) == 0 {
		return entrysummarydomain.BuildResult{}, entrysummarydomain.ErrEmptyGroup
	}

	cfg := s.filing.Get()
	release, err := s.obtainLock(ctx, "group:"+group.ID.String(), cfg.LockTTL)
	if err != nil {
		return entrysummarydomain.BuildResult{}, err
	}
	defer s.releaseLock(ctx, release)

	members, err := s.loadMembers(ctx, memberIDs)
	if err != nil {
		return entrysummarydomain.BuildResult{}, err
	}
	for _, member := range members {
		if member.EntrySummaryID != nil {
			return entrysummarydomain.BuildResult{}, fmt.Errorf("%w: %s", entrysummarydomain.ErrAlreadyFiled, member.ShipmentID)
		}
	}

	customerIDs := make([]snowflake.ID, 0, len(members))
	for _, member := range members {
		customerIDs = append(customerIDs, member.CustomerID)
	}
	names, err := s.customers.NamesByID(ctx, customerIDs)
	if err != nil {
		return entrysummarydomain.BuildResult{}, err
	}

	sources := make([]entrysummarydomain.ConsolidationSource, 0, len(members))
	for _, member := range members {
		source := entrysummarydomain.ConsolidationSource{
			PreshipmentID: member.ID,
			CustomerName:  names[member.CustomerID],
			Items:         make([]entrysummarydomain.ConsolidationItem, 0, len(member.Items)),
		}
		for _, item := range member.Items {
			total := entrysummarydomain.RoundMoney(item.TotalValue())
			source.Items = append(source.Items, entrysummarydomain.ConsolidationItem{
				HTSCode:         item.HTSCode,
				CountryOfOrigin: item.CountryOfOrigin,
				Description:     item.Description,
				Quantity:        item.Quantity,
				TotalValue:      total,
				DutyRate:        item.DutyRate,
				DutyAmount:      entrysummarydomain.DutyAmount(total, item.DutyRate),
			})
		}
		sources = append(sources, source)
	}

	consolidated := entrysummarydomain.ConsolidateLineItems(sources)
	if len(consolidated) == 0 {
		return entrysummarydomain.BuildResult{}, entrysummarydomain.ErrNoLineItems
	}

	now := s.clock.Now()
	lines := make([]entrysummarydomain.LineItem, 0, len(consolidated))
	claims := make([]zoneClaim, 0, len(consolidated))
	for _, line := range consolidated {
		lines = append(lines, entrysummarydomain.LineItem{
			ID:                    s.genID.Generate(),
			LineNumber:            line.LineNumber,
			HTSCode:               line.HTSCode,
			CountryOfOrigin:       line.CountryOfOrigin,
			Description:           line.Description,
			Quantity:              line.Quantity,
			UnitValue:             line.UnitValue(),
			TotalValue:            line.TotalValue,
			DutyRate:              line.DutyRate,
			DutyAmount:            line.DutyAmount,
			SourcePreshipments:    line.SourcePreshipments,
			SourceCustomers:       line.SourceCustomers,
			ConsolidatedFromCount: line.ConsolidatedFromCount,
			CreatedAt:             now,
		})
		claims = append(claims, zoneClaim{status: cfg.DefaultZoneStatus})
	}

	// The first member supplies the importer and transport fields.
	lead := members[0]
	groupRef := group.ID
	plan := buildPlan{
		path: pathConsolidated,
		header: entrysummarydomain.EntrySummary{
			EntryType:                    cfg.EntryType,
			FilerCode:                    firstNonEmpty(group.FilerCode, lead.FilerCode),
			PortOfEntry:                  firstNonEmpty(group.PortOfEntry, lead.PortOfEntry),
			ImporterOfRecord:             lead.ImporterOfRecord,
			Consignee:                    lead.Consignee,
			FTZID:                        firstNonEmpty(group.FTZID, lead.FTZID),
			CarrierCode:                  lead.CarrierCode,
			ModeOfTransport:              lead.ModeOfTransport,
			BillOfLading:                 lead.BillOfLading,
			FilingStatus:                 entrysummarydomain.FilingStatusFiled,
			ConsolidatedSummaryIndicator: entrysummarydomain.ConsolidatedIndicatorYes,
			GroupID:                      &groupRef,
		},
		lines:       lines,
		zoneStatus:  claims,
		members:     memberIDs,
		memberState: entrysummarydomain.FilingStatusFiled,
		group:       group,
		actor:       actorFrom(ctx),
	}

	summary, err := s.persist(ctx, plan, cfg)
	if err != nil {
		return entrysummarydomain.BuildResult{}, err
	}

	s.recordAudit(ctx, summary, pathConsolidated, map[string]any{
		"group_id":    group.ID.String(),
		"members":     len(memberIDs),
		"source_rows": countItems(members),
	})
	return entrysummarydomain.BuildResult{EntrySummary: summary}, nil
}

func (s *Service) loadMembers(ctx context.Context, ids []snowflake.ID) ([]preshipmentdomain.Preshipment, error) {
	rows, err := s.preshipmentRepo.FindByIDs(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[snowflake.ID]preshipmentdomain.Preshipment, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}

	members := make([]preshipmentdomain.Preshipment, 0, len(ids))
	for _, id := range ids {
		row, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", preshipmentdomain.ErrNotFound, id)
		}
		members = append(members, row)
	}
	return members, nil
}

// persist writes the header, lines, zone statuses, totals and back
// references in one transaction.
func (s *Service) persist(ctx context.Context, plan buildPlan, cfg config.FilingConfig) (entrysummarydomain.EntrySummary, error) {
	started := time.Now()
	defer func() { s.metrics.RecordBuildDuration(ctx, plan.path, time.Since(started)) }()

	now := s.clock.Now()
	header := plan.header
	header.ID = s.genID.Generate()
	header.CreatedBy = plan.actor
	header.CreatedAt = now
	header.UpdatedAt = now

	var (
		// committing is set once every write succeeded; a failure after that
		// came from the commit itself and its outcome is unknown.
		committing bool
		totals     entrysummarydomain.GrandTotals
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		number := plan.entryNumber
		if number == "" {
			seq, err := s.repo.NextSequence(ctx, tx, cfg.EntryNumberPrefix, now)
			if err != nil {
				return err
			}
			number = entrysummarydomain.FormatEntryNumber(cfg.EntryNumberPrefix, now, seq)
		}
		header.EntryNumber = number

		if err := s.repo.InsertHeader(ctx, tx, &header); err != nil {
			return err
		}

		lines := make([]entrysummarydomain.LineItem, len(plan.lines))
		statuses := make([]entrysummarydomain.FTZMerchandiseStatus, 0, len(plan.lines))
		for i, line := range plan.lines {
			line.EntrySummaryID = header.ID
			lines[i] = line
			statuses = append(statuses, entrysummarydomain.FTZMerchandiseStatus{
				ID:             s.genID.Generate(),
				EntrySummaryID: header.ID,
				LineItemID:     line.ID,
				ZoneStatus:     plan.zoneStatus[i].status,
				LotID:          plan.zoneStatus[i].lotID,
				CreatedAt:      now,
			})
		}
		if err := s.repo.InsertLineItems(ctx, tx, lines); err != nil {
			return err
		}
		if err := s.repo.InsertFTZStatuses(ctx, tx, statuses); err != nil {
			return err
		}

		var err error
		totals, err = s.refreshTotals(ctx, tx, header.ID, nil, now)
		if err != nil {
			return err
		}

		if plan.group != nil {
			ok, err := s.repo.MarkGroupFiled(ctx, tx, plan.group.ID, plan.group.Status, header.ID, plan.actor, now)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: group changed during build", entrysummarydomain.ErrInvalidGroupStatus)
			}
		}

		header.LineItems = lines
		linked, err := s.preshipmentRepo.LinkEntrySummary(ctx, tx, preshipmentdomain.LinkRequest{
			PreshipmentIDs: plan.members,
			EntrySummaryID: header.ID,
			EntryNumber:    number,
			Status:         string(plan.memberState),
		}, now)
		if err != nil {
			return err
		}
		if !linked {
			return entrysummarydomain.ErrAlreadyFiled
		}
		committing = true
		return nil
	})
	if err != nil {
		s.metrics.RecordEntrySummaryRollback(ctx, plan.path, rollbackReason(err))
		s.log.Error("entry summary build rolled back",
			zap.String("path", plan.path),
			zap.String("entry_number", header.EntryNumber),
			zap.Error(err),
		)
		if committing {
			s.discard(ctx, plan, header.ID)
		}
		return entrysummarydomain.EntrySummary{}, err
	}

	header.GrandTotals = &totals
	s.metrics.RecordEntrySummary(ctx, plan.path)
	s.log.Info("entry summary created",
		zap.String("path", plan.path),
		zap.String("entry_number", header.EntryNumber),
		zap.Int("lines", len(header.LineItems)),
		zap.String("total_entered_value", totals.TotalEnteredValue.StringFixed(2)),
	)
	return header, nil
}

// discard removes this attempt's header, children and back references
// after a commit whose outcome is unknown. Everything is keyed by the
// attempt's own header id, so rows of other builds are never touched. A
// rolled back attempt leaves nothing behind and deletes are idempotent.
func (s *Service) discard(ctx context.Context, plan buildPlan, headerID snowflake.ID) {
	ctx = context.WithoutCancel(ctx)
	var err error
	for attempt := 1; attempt <= cleanupAttempts; attempt++ {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			now := s.clock.Now()
			if err := s.preshipmentRepo.UnlinkEntrySummary(ctx, tx, headerID, now); err != nil {
				return err
			}
			if plan.group != nil {
				if err := s.repo.RevertGroupFiled(ctx, tx, plan.group.ID, headerID, plan.group.Status, now); err != nil {
					return err
				}
			}
			return s.repo.DeleteByID(ctx, tx, headerID)
		})
		if err == nil {
			return
		}
		s.log.Warn("entry summary cleanup failed",
			zap.String("entry_summary_id", headerID.String()),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		time.Sleep(time.Duration(attempt) * cleanupBackoff)
	}
	s.log.Error("entry summary cleanup exhausted retries",
		zap.String("entry_summary_id", headerID.String()),
		zap.Error(err),
	)
}

func (s *Service) CreateGroup(ctx context.Context, req entrysummarydomain.CreateGroupRequest) (entrysummarydomain.Group, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return entrysummarydomain.Group{}, entrysummarydomain.ErrInvalidGroupName
	}

	now := s.clock.Now()
	group := entrysummarydomain.Group{
		ID:          s.genID.Generate(),
		Name:        name,
		FilerCode:   strings.TrimSpace(req.FilerCode),
		PortOfEntry: strings.TrimSpace(req.PortOfEntry),
		FTZID:       strings.TrimSpace(req.FTZID),
		TargetDate:  req.TargetDate,
		Status:      entrysummarydomain.GroupStatusReadyForReview,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.InsertGroup(ctx, s.db, &group); err != nil {
		return entrysummarydomain.Group{}, err
	}
	return group, nil
}

// AddPreshipments assigns preshipments to a group, snapshotting their item
// count, quantity and value. Existing members are left untouched.
func (s *Service) AddPreshipments(ctx context.Context, groupID snowflake.ID, shipmentIDs []string) ([]entrysummarydomain.GroupPreshipment, error) {
	group, err := s.repo.FindGroup(ctx, s.db, groupID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, entrysummarydomain.ErrGroupNotFound
	}
	if group.Status == entrysummarydomain.GroupStatusFiled {
		return nil, fmt.Errorf("%w: %s", entrysummarydomain.ErrInvalidGroupStatus, group.Status)
	}

	existing, err := s.repo.ListGroupPreshipmentIDs(ctx, s.db, group.ID)
	if err != nil {
		return nil, err
	}
	seen := make(map[snowflake.ID]struct{}, len(existing))
	for _, id := range existing {
		seen[id] = struct{}{}
	}

	now := s.clock.Now()
	members := make([]entrysummarydomain.GroupPreshipment, 0, len(shipmentIDs))
	for _, shipmentID := range shipmentIDs {
		shipmentID = strings.TrimSpace(shipmentID)
		if shipmentID == "" {
			return nil, preshipmentdomain.ErrInvalidShipmentID
		}
		preshipment, err := s.preshipmentRepo.FindByShipmentID(ctx, s.db, shipmentID)
		if err != nil {
			return nil, err
		}
		if preshipment == nil {
			return nil, fmt.Errorf("%w: %s", preshipmentdomain.ErrNotFound, shipmentID)
		}
		if preshipment.EntrySummaryID != nil {
			return nil, fmt.Errorf("%w: %s", entrysummarydomain.ErrAlreadyFiled, shipmentID)
		}
		if _, ok := seen[preshipment.ID]; ok {
			continue
		}
		seen[preshipment.ID] = struct{}{}

		member := entrysummarydomain.GroupPreshipment{
			ID:            s.genID.Generate(),
			GroupID:       group.ID,
			PreshipmentID: preshipment.ID,
			ItemCount:     len(preshipment.Items),
			TotalValue:    decimal.Zero,
			CreatedAt:     now,
		}
		for _, item := range preshipment.Items {
			member.TotalQuantity += item.Quantity
			member.TotalValue = member.TotalValue.Add(item.TotalValue())
		}
		members = append(members, member)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.InsertGroupPreshipments(ctx, tx, members)
	})
	if err != nil {
		return nil, err
	}
	return members, nil
}

func (s *Service) ApproveGroup(ctx context.Context, groupID snowflake.ID, approver string) (entrysummarydomain.Group, error) {
	group, err := s.repo.FindGroup(ctx, s.db, groupID)
	if err != nil {
		return entrysummarydomain.Group{}, err
	}
	if group == nil {
		return entrysummarydomain.Group{}, entrysummarydomain.ErrGroupNotFound
	}
	if group.Status != entrysummarydomain.GroupStatusReadyForReview {
		return entrysummarydomain.Group{}, fmt.Errorf("%w: %s", entrysummarydomain.ErrInvalidGroupStatus, group.Status)
	}

	approver = firstNonEmpty(approver, actorFrom(ctx))
	now := s.clock.Now()
	ok, err := s.repo.ApproveGroup(ctx, s.db, group.ID, approver, now)
	if err != nil {
		return entrysummarydomain.Group{}, err
	}
	if !ok {
		return entrysummarydomain.Group{}, entrysummarydomain.ErrInvalidGroupStatus
	}

	group.Status = entrysummarydomain.GroupStatusApproved
	group.ApprovedBy = approver
	group.ApprovedAt = &now
	group.UpdatedAt = now
	return *group, nil
}

func (s *Service) Get(ctx context.Context, entryNumber string) (entrysummarydomain.EntrySummary, error) {
	entryNumber = strings.TrimSpace(entryNumber)
	if entryNumber == "" {
		return entrysummarydomain.EntrySummary{}, entrysummarydomain.ErrNotFound
	}
	summary, err := s.repo.FindByEntryNumber(ctx, s.db, entryNumber)
	if err != nil {
		return entrysummarydomain.EntrySummary{}, err
	}
	if summary == nil {
		return entrysummarydomain.EntrySummary{}, entrysummarydomain.ErrNotFound
	}
	return *summary, nil
}

// RecomputeGrandTotals rebuilds the totals row from the current lines.
func (s *Service) RecomputeGrandTotals(ctx context.Context, entrySummaryID snowflake.ID) (entrysummarydomain.GrandTotals, error) {
	var totals entrysummarydomain.GrandTotals
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		summary, err := s.repo.FindByID(ctx, tx, entrySummaryID)
		if err != nil {
			return err
		}
		if summary == nil {
			return entrysummarydomain.ErrNotFound
		}
		totals, err = s.refreshTotals(ctx, tx, summary.ID, summary.GrandTotals, s.clock.Now())
		return err
	})
	if err != nil {
		return entrysummarydomain.GrandTotals{}, err
	}
	return totals, nil
}

func (s *Service) refreshTotals(ctx context.Context, tx *gorm.DB, entrySummaryID snowflake.ID, current *entrysummarydomain.GrandTotals, now time.Time) (entrysummarydomain.GrandTotals, error) {
	lines, err := s.repo.ListLineItems(ctx, tx, entrySummaryID)
	if err != nil {
		return entrysummarydomain.GrandTotals{}, err
	}
	totals := entrysummarydomain.CalculateGrandTotals(lines)
	totals.EntrySummaryID = entrySummaryID
	totals.UpdatedAt = now
	if current != nil && current.ID != 0 {
		totals.ID = current.ID
	} else {
		totals.ID = s.genID.Generate()
	}
	if err := s.repo.UpsertGrandTotals(ctx, tx, &totals); err != nil {
		return entrysummarydomain.GrandTotals{}, err
	}
	return totals, nil
}

func (s *Service) obtainLock(ctx context.Context, key string, ttl time.Duration) (buildlock.Release, error) {
	release, err := s.locker.Obtain(ctx, "entry-summary:"+key, ttl)
	if errors.Is(err, buildlock.ErrNotObtained) {
		return nil, entrysummarydomain.ErrBuildInProgress
	}
	if err != nil {
		return nil, err
	}
	return release, nil
}

func (s *Service) releaseLock(ctx context.Context, release buildlock.Release) {
	if release == nil {
		return
	}
	if err := release(context.WithoutCancel(ctx)); err != nil {
		s.log.Warn("failed to release build lock", zap.Error(err))
	}
}

func (s *Service) recordAudit(ctx context.Context, summary entrysummarydomain.EntrySummary, path string, extra map[string]any) {
	if s.auditSvc == nil {
		return
	}
	metadata := map[string]any{
		"entry_number": summary.EntryNumber,
		"path":         path,
		"line_count":   len(summary.LineItems),
	}
	if summary.GrandTotals != nil {
		metadata["total_entered_value"] = summary.GrandTotals.TotalEnteredValue.StringFixed(2)
		metadata["total_duty"] = summary.GrandTotals.TotalDuty.StringFixed(2)
	}
	for key, value := range extra {
		metadata[key] = value
	}
	err := s.auditSvc.Record(ctx, auditdomain.Entry{
		ActorType:  auditdomain.ActorTypeUser,
		Action:     "entry_summary.created",
		TargetType: "entry_summary",
		TargetID:   summary.EntryNumber,
		Metadata:   metadata,
	})
	if err != nil {
		s.log.Warn("audit record failed", zap.String("entry_number", summary.EntryNumber), zap.Error(err))
	}
}

func rollbackReason(err error) string {
	switch {
	case errors.Is(err, entrysummarydomain.ErrInvalidGroupStatus):
		return "group_status"
	case errors.Is(err, entrysummarydomain.ErrAlreadyFiled):
		return "already_filed"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "persistence"
	}
}

func actorFrom(ctx context.Context) string {
	if actor := strings.TrimSpace(obscontext.ActorFromContext(ctx)); actor != "" {
		return actor
	}
	return string(auditdomain.ActorTypeSystem)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func countItems(members []preshipmentdomain.Preshipment) int {
	n := 0
	for _, member := range members {
		n += len(member.Items)
	}
	return n
}
