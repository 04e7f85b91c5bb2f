package engine

import (
	"context"
	"fmt"

	"ad-lifecycle-engine/internal/ads"
)

// Browser is the driver performing the actual publish/delete/download
// actions against the marketplace. Calls may block for a long time (e.g.
// waiting for human captcha resolution); the engine treats each call as one
// atomic, ordered step.
type Browser interface {
	// Publish publishes the resolved ad and returns the externally
	// assigned ad id.
	Publish(ctx context.Context, ad *ads.ResolvedDefinition) (int64, error)

	// Delete removes the ad from the marketplace if present. The returned
	// bool reports whether a deletion actually happened.
	Delete(ctx context.Context, ad *ads.ResolvedDefinition) (bool, error)

	// Extract downloads the ad with the given id and returns it as a raw
	// definition.
	Extract(ctx context.Context, id int64) (ads.RawDefinition, error)

	// OwnAds lists the ids of all ads currently published on the account.
	OwnAds(ctx context.Context) ([]int64, error)
}

// ActionError is raised by the browser driver when an action fails. Fatal
// errors (e.g. the account's posting limit is reached) abort the remaining
// batch; others are logged and the batch continues.
type ActionError struct {
	Op    string
	File  string
	Fatal bool
	Err   error
}

func (e *ActionError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s failed @ [%s]: %v", e.Op, e.File, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *ActionError) Unwrap() error { return e.Err }
