package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// SkippedItem is a preshipment item left out of a filing.
type SkippedItem struct {
	ItemID snowflake.ID `json:"item_id"`
	PartID snowflake.ID `json:"part_id"`
	Reason string       `json:"reason"`
}

type BuildResult struct {
	EntrySummary EntrySummary  `json:"entry_summary"`
	SkippedItems []SkippedItem `json:"skipped_items,omitempty"`
}

type CreateGroupRequest struct {
	Name        string     `json:"name"`
	FilerCode   string     `json:"filer_code"`
	PortOfEntry string     `json:"port_of_entry"`
	FTZID       string     `json:"ftz_id"`
	TargetDate  *time.Time `json:"target_date,omitempty"`
}

type Service interface {
	BuildFromPreshipment(ctx context.Context, shipmentID string) (BuildResult, error)
	BuildFromGroup(ctx context.Context, groupID snowflake.ID) (BuildResult, error)

	CreateGroup(ctx context.Context, req CreateGroupRequest) (Group, error)
	AddPreshipments(ctx context.Context, groupID snowflake.ID, shipmentIDs []string) ([]GroupPreshipment, error)
	ApproveGroup(ctx context.Context, groupID snowflake.ID, approver string) (Group, error)

	Get(ctx context.Context, entryNumber string) (EntrySummary, error)
	RecomputeGrandTotals(ctx context.Context, entrySummaryID snowflake.ID) (GrandTotals, error)
}

var (
	ErrNotFound            = errors.New("entry_summary_not_found")
	ErrGroupNotFound       = errors.New("entry_group_not_found")
	ErrInvalidGroupName    = errors.New("invalid_group_name")
	ErrInvalidGroupStatus  = errors.New("invalid_group_status")
	ErrEmptyGroup          = errors.New("empty_group")
	ErrMissingFilingFields = errors.New("missing_filing_fields")
	ErrAlreadyFiled        = errors.New("entry_summary_already_exists")
	ErrNoLineItems         = errors.New("no_line_items")
	ErrBuildInProgress     = errors.New("build_in_progress")
)
