package common

import (
	"context"
)

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyRunID    contextKey = "run_id"
	ContextKeyFileName contextKey = "file_name"
)

// WithRunID adds a batch run ID to the context
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, ContextKeyRunID, runID)
}

// RunIDFromContext extracts the batch run ID from context
func RunIDFromContext(ctx context.Context) string {
	if runID, ok := ctx.Value(ContextKeyRunID).(string); ok {
		return runID
	}
	return ""
}

// WithFileName adds the file being processed to the context
func WithFileName(ctx context.Context, fileName string) context.Context {
	return context.WithValue(ctx, ContextKeyFileName, fileName)
}

// FileNameFromContext extracts the file being processed from context
func FileNameFromContext(ctx context.Context) string {
	if fileName, ok := ctx.Value(ContextKeyFileName).(string); ok {
		return fileName
	}
	return ""
}
