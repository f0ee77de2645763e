package service

import (
	"context"
	"fmt"

	"github.com/soitmed/medops-api/internal/models"
	appErrors "github.com/soitmed/medops-api/pkg/errors"
)

// Lifecycle writes in this package follow one pattern: validate the
// transition against the tables in models, then issue a guarded UPDATE
// conditioned on the expected pre-state. A guarded update that matches
// zero rows means a concurrent writer moved the row first; the loser
// receives a conflict instead of overwriting the winner's stamp.

// conflictErr is returned when a guarded update loses a race.
func conflictErr(entity, id string) *appErrors.Error {
	return appErrors.Clone(appErrors.ErrInvalidTransition,
		fmt.Sprintf("%s %s changed state concurrently", entity, id))
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, models.Notification) {}

// NopNotifier returns a Notifier that discards everything.
func NopNotifier() Notifier { return nopNotifier{} }
