package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/ftzflow/internal/audit/domain"
	"github.com/smallbiznis/ftzflow/internal/audit/masking"
	"github.com/smallbiznis/ftzflow/internal/clock"
	obscontext "github.com/smallbiznis/ftzflow/internal/observability/context"
	"github.com/smallbiznis/ftzflow/pkg/db/option"
	"github.com/smallbiznis/ftzflow/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock `optional:"true"`
}

// Service appends compliance audit records: stage moves, sign-offs, entry
// summary builds and group approvals.
type Service struct {
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	logs  repository.Repository[auditdomain.AuditLog]
}

func NewService(p Params) auditdomain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.NewSystemClock()
	}
	return &Service{
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,
		clock: clk,
		logs:  repository.ProvideStore[auditdomain.AuditLog](p.DB),
	}
}

func (s *Service) Record(ctx context.Context, entry auditdomain.Entry) error {
	action := strings.TrimSpace(entry.Action)
	if action == "" {
		return auditdomain.ErrInvalidAction
	}

	targetType := strings.TrimSpace(entry.TargetType)
	if targetType == "" {
		targetType = "unknown"
	}

	actorType := entry.ActorType
	if actorType == "" {
		actorType = auditdomain.ActorTypeSystem
	}
	actorID := strings.TrimSpace(entry.ActorID)
	if actorID == "" {
		actorID = obscontext.ActorFromContext(ctx)
	}

	// Callers may pass raw sign-off data; it is redacted here regardless.
	payload := masking.Redact(entry.Metadata)
	if payload == nil {
		payload = map[string]any{}
	}

	record := auditdomain.AuditLog{
		ID:         s.genID.Generate(),
		ActorType:  string(actorType),
		ActorID:    optionalString(actorID),
		Action:     action,
		TargetType: targetType,
		TargetID:   optionalString(entry.TargetID),
		RequestID:  optionalString(obscontext.RequestIDFromContext(ctx)),
		Metadata:   datatypes.JSONMap(payload),
		CreatedAt:  s.clock.Now(),
	}

	if err := s.logs.Create(ctx, &record); err != nil {
		s.log.Warn("failed to write audit log", zap.String("action", action), zap.Error(err))
		return err
	}
	return nil
}

func (s *Service) ListByTarget(ctx context.Context, targetType, targetID string) ([]auditdomain.AuditLog, error) {
	targetID = strings.TrimSpace(targetID)
	items, err := s.logs.Find(ctx,
		&auditdomain.AuditLog{TargetType: strings.TrimSpace(targetType), TargetID: &targetID},
		option.WithOrder("created_at asc, id asc"),
	)
	if err != nil {
		return nil, err
	}

	logs := make([]auditdomain.AuditLog, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		logs = append(logs, *item)
	}
	return logs, nil
}

func optionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
