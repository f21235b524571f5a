package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/inkwell-press/inkwell/internal/domain/mfa"
	"github.com/inkwell-press/inkwell/internal/shared/constants"
	"github.com/inkwell-press/inkwell/internal/shared/logger"
)

// GetSecurityActivityCommand represents the command to page through a
// subject's security events
type GetSecurityActivityCommand struct {
	SubjectID uint
	Page      int
	PageSize  int
}

// SecurityActivityEntry is the client-facing projection of one event
type SecurityActivityEntry struct {
	Kind      string            `json:"kind"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	IPAddress string            `json:"ip_address"`
	UserAgent string            `json:"user_agent"`
	CreatedAt time.Time         `json:"created_at"`
}

// GetSecurityActivityResult carries one page of events, newest first
type GetSecurityActivityResult struct {
	Entries  []SecurityActivityEntry
	Total    int64
	Page     int
	PageSize int
}

// GetSecurityActivityUseCase pages through the subject's security event log
type GetSecurityActivityUseCase struct {
	events mfa.SecurityEventRepository
	logger logger.Interface
}

// NewGetSecurityActivityUseCase creates a new GetSecurityActivityUseCase
func NewGetSecurityActivityUseCase(
	events mfa.SecurityEventRepository,
	logger logger.Interface,
) *GetSecurityActivityUseCase {
	return &GetSecurityActivityUseCase{
		events: events,
		logger: logger,
	}
}

// Execute returns one page of the subject's security activity
func (uc *GetSecurityActivityUseCase) Execute(ctx context.Context, cmd GetSecurityActivityCommand) (*GetSecurityActivityResult, error) {
	page := cmd.Page
	if page < 1 {
		page = 1
	}
	pageSize := cmd.PageSize
	if pageSize < 1 {
		pageSize = constants.DefaultPageSize
	}
	if pageSize > constants.MaxPageSize {
		pageSize = constants.MaxPageSize
	}

	offset := (page - 1) * pageSize

	events, err := uc.events.ListBySubjectID(ctx, cmd.SubjectID, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list security events: %w", err)
	}

	total, err := uc.events.CountBySubjectID(ctx, cmd.SubjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to count security events: %w", err)
	}

	entries := make([]SecurityActivityEntry, 0, len(events))
	for _, e := range events {
		entries = append(entries, SecurityActivityEntry{
			Kind:      string(e.Kind()),
			Metadata:  e.Metadata(),
			IPAddress: e.IPAddress(),
			UserAgent: e.UserAgent(),
			CreatedAt: e.CreatedAt(),
		})
	}

	return &GetSecurityActivityResult{
		Entries:  entries,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}
