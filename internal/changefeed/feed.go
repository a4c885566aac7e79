// Package changefeed streams license changes so every engine instance can
// keep its in-memory license cache current.
package changefeed

import (
	"context"
	"errors"

	"github.com/oklog/ulid/v2"
	licensedomain "github.com/smallbiznis/factorylicense/internal/license/domain"
)

type ChangeType string

const (
	ChangeAdded    ChangeType = "added"
	ChangeModified ChangeType = "modified"
	ChangeRemoved  ChangeType = "removed"
)

// Change carries the full license document for added and modified changes.
type Change struct {
	ID        string                 `json:"id"`
	Type      ChangeType             `json:"type"`
	LicenseID string                 `json:"licenseId"`
	License   *licensedomain.License `json:"license,omitempty"`
	Source    string                 `json:"source,omitempty"`
}

// Feed delivers changes to subscribers. Delivery is at-most-once and
// eventually consistent with the store.
type Feed interface {
	Publish(ctx context.Context, change Change) error
	// Subscribe blocks, invoking fn for every change, until ctx is done.
	Subscribe(ctx context.Context, fn func(Change)) error
}

var (
	ErrFeedUnavailable = errors.New("changefeed_unavailable")
	ErrInvalidChange   = errors.New("invalid_change")
)

// stamp assigns a sortable id to changes published without one.
func stamp(change Change) Change {
	if change.ID == "" {
		change.ID = ulid.Make().String()
	}
	return change
}

func validate(change Change) error {
	if change.LicenseID == "" {
		return ErrInvalidChange
	}
	switch change.Type {
	case ChangeAdded, ChangeModified:
		if change.License == nil {
			return ErrInvalidChange
		}
	case ChangeRemoved:
	default:
		return ErrInvalidChange
	}
	return nil
}
