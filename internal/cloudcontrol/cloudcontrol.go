// Package cloudcontrol executes resource-operation descriptors against a
// Cloud Control style backend and tracks asynchronous operations through
// request tokens.
package cloudcontrol

import (
	"context"

	"cloudmcp/internal/resource"
)

// Executor runs a descriptor and reports progress. CREATE/UPDATE/DELETE are
// asynchronous: the first result carries a request token whose status is
// polled via Status until it leaves IN_PROGRESS.
type Executor interface {
	Execute(ctx context.Context, cfg resource.Config) (resource.OperationResult, error)
	Status(ctx context.Context, requestToken string) (resource.OperationResult, error)
	Name() string
}
