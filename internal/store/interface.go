package store

import (
	"context"
	"errors"

	"tf2automatic/internal/store/model"
)

var ErrNotFound = errors.New("store: record not found")

// DecisionRepository persists evaluator verdicts.
type DecisionRepository interface {
	SaveDecision(ctx context.Context, rec *model.DecisionModel) error
	// FindDecision returns the latest verdict for an offer.
	FindDecision(ctx context.Context, offerID string) (*model.DecisionModel, error)
	ListDecisions(ctx context.Context, partner string, limit int) ([]model.DecisionModel, error)
	Close() error
}

// OfferLog tracks offer states as the transport reports them.
type OfferLog interface {
	RecordOffer(ctx context.Context, rec model.OfferRecord) error
	GetOffer(ctx context.Context, id string) (*model.OfferRecord, error)
	// ActiveOffer returns the id of an active offer the bot sent to partner.
	ActiveOffer(ctx context.Context, partner string) (string, bool, error)
	Close() error
}
