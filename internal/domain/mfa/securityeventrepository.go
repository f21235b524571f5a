package mfa

import "context"

// SecurityEventRepository defines the interface for security event data operations.
// The log is append-only; there is no update or delete.
type SecurityEventRepository interface {
	// Create appends an event
	Create(ctx context.Context, event *SecurityEvent) error

	// ListBySubjectID returns the subject's most recent events, newest first
	ListBySubjectID(ctx context.Context, subjectID uint, limit, offset int) ([]*SecurityEvent, error)

	// CountBySubjectID returns the subject's total event count
	CountBySubjectID(ctx context.Context, subjectID uint) (int64, error)
}
