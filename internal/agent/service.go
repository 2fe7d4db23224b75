// Package agent reacts to trade offer events: it evaluates inbound offers,
// records what was decided and answers state changes reported by the transport.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"tf2automatic/internal/builder"
	"tf2automatic/internal/evaluator"
	"tf2automatic/internal/gateway/notifier"
	"tf2automatic/internal/logger"
	"tf2automatic/internal/offer"
	"tf2automatic/internal/store"
	"tf2automatic/internal/store/model"

	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
)

const (
	defaultConcurrency = 4
	// Steam expires unanswered offers after 14 days and holds escrowed ones
	// for up to 15.
	defaultTrackTTL = 15 * 24 * time.Hour
)

// ErrUnknownOffer is returned for state changes of offers the service never saw.
var ErrUnknownOffer = errors.New("unknown offer")

// Relister refreshes whatever advertises the bot's stock of sku.
type Relister interface {
	Recheck(sku string)
}

type Params struct {
	Evaluator   *evaluator.Evaluator
	Decisions   store.DecisionRepository
	Offers      store.OfferLog
	Notifier    notifier.TextNotifier
	Messenger   builder.Messenger
	Relister    Relister
	Concurrency int
	// TrackTTL bounds how long an offer waits for a final state report.
	TrackTTL time.Duration
}

// Service is safe for concurrent use. Every collaborator except the evaluator
// is optional.
type Service struct {
	eval        *evaluator.Evaluator
	decisions   store.DecisionRepository
	offers      store.OfferLog
	notify      notifier.TextNotifier
	messenger   builder.Messenger
	relister    Relister
	concurrency int
	trackTTL    time.Duration
	now         func() time.Time

	mu      sync.Mutex
	tracked map[string]trackedOffer
}

type trackedOffer struct {
	offer offer.Offer
	since time.Time
}

func NewService(p Params) *Service {
	if p.Concurrency <= 0 {
		p.Concurrency = defaultConcurrency
	}
	if p.TrackTTL <= 0 {
		p.TrackTTL = defaultTrackTTL
	}
	return &Service{
		eval:        p.Evaluator,
		decisions:   p.Decisions,
		offers:      p.Offers,
		notify:      p.Notifier,
		messenger:   p.Messenger,
		relister:    p.Relister,
		concurrency: p.Concurrency,
		trackTTL:    p.TrackTTL,
		now:         time.Now,
		tracked:     make(map[string]trackedOffer),
	}
}

// HandleNewOffer evaluates an inbound offer and records the verdict. A failed
// remote check returns an error wrapping evaluator.ErrIndeterminate and leaves
// the offer unhandled so it can be retried.
func (s *Service) HandleNewOffer(ctx context.Context, o offer.Offer) (evaluator.Decision, error) {
	start := s.now()
	o.Log("info", "received offer")

	d, err := s.eval.Evaluate(ctx, o)
	if err != nil {
		o.Log("warn", "could not be evaluated: "+err.Error())
		return evaluator.Decision{}, err
	}
	offer.MarkHandled(o, start)
	o.Log("info", fmt.Sprintf("decided to %s (%s) in %s", d.Action, d.Reason, s.now().Sub(start).Round(time.Millisecond)))
	logger.Trade(o.Partner(), string(d.Action), string(d.Reason), o.Summarize())

	if s.decisions != nil {
		rec, err := DecisionRecord(d)
		if err == nil {
			err = s.decisions.SaveDecision(ctx, rec)
		}
		if err != nil {
			logger.Warnf("Failed to save decision for offer %s: %v", d.OfferID, err)
		}
	}
	// Declined offers are answered by the transport; only accepted ones await
	// a state report.
	if d.Accepted() {
		s.track(o)
	}
	s.recordOffer(ctx, o)
	return d, nil
}

// BatchResult pairs one offer of a batch with its outcome.
type BatchResult struct {
	OfferID  string             `json:"offer_id"`
	Decision evaluator.Decision `json:"decision"`
	Err      error              `json:"-"`
	Error    string             `json:"error,omitempty"`
}

// EvaluateBatch evaluates offers concurrently, bounded by the configured
// concurrency. Per-offer failures are reported in the results; the returned
// error is only set when ctx is canceled.
func (s *Service) EvaluateBatch(ctx context.Context, offers []offer.Offer) ([]BatchResult, error) {
	results := make([]BatchResult, len(offers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, o := range offers {
		i, o := i, o
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			d, err := s.HandleNewOffer(gctx, o)
			results[i] = BatchResult{OfferID: o.ID(), Decision: d, Err: err}
			if err != nil {
				results[i].Error = err.Error()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, ctx.Err()
}

// HandleOfferChanged reacts to a state change reported by the transport and
// returns the chat replies sent to the partner.
func (s *Service) HandleOfferChanged(ctx context.Context, o offer.Offer, old offer.State) []string {
	state := o.State()
	o.Log("info", fmt.Sprintf("state changed: %s -> %s", old, state))
	s.recordOffer(ctx, o)

	if state == offer.StateAccepted {
		if s.relister != nil {
			for _, sku := range offer.DiffOf(o).SKUs() {
				s.relister.Recheck(sku)
			}
		}
		s.notifyAccepted(o)
		if offer.HandledByUs(o) && o.IsOurOffer() {
			o.Log("trade", "has been accepted. Summary:\n"+o.Summarize())
		}
	}

	replies := offer.ChangeMessages(o, old)
	if s.messenger != nil {
		for _, msg := range replies {
			s.messenger.ChatMessage(o.Partner(), msg)
		}
	}
	return replies
}

func (s *Service) notifyAccepted(o offer.Offer) {
	if s.notify == nil {
		return
	}
	msg := notifier.StructuredMessage{
		Title: fmt.Sprintf("Trade #%s with %s is accepted. Summary:", o.ID(), o.Partner()),
		Sections: []notifier.MessageSection{
			{Lines: strings.Split(o.Summarize(), "\n")},
		},
		Timestamp: s.now(),
	}
	if err := s.notify.SendText(msg.RenderMarkdown()); err != nil {
		logger.Warnf("Failed to notify admins about offer %s: %v", o.ID(), err)
	}
}

// RecordSent logs an offer the builder sent.
func (s *Service) RecordSent(ctx context.Context, res builder.Result) {
	if !res.Sent || res.Offer == nil {
		return
	}
	s.track(res.Offer)
	s.recordOffer(ctx, res.Offer)
}

func (s *Service) track(o offer.Offer) {
	if o.ID() == "" {
		return
	}
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictLocked(now)
	s.tracked[o.ID()] = trackedOffer{offer: o, since: now}
}

// evictLocked forgets offers tracked for longer than the TTL.
func (s *Service) evictLocked(now time.Time) {
	for id, t := range s.tracked {
		if now.Sub(t.since) > s.trackTTL {
			logger.Debugf("Offer #%s dropped from tracking after %s without a final state", id, s.trackTTL)
			delete(s.tracked, id)
		}
	}
}

// Tracked returns a handled offer that has not reached a final state.
func (s *Service) Tracked(id string) (offer.Offer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictLocked(s.now())
	t, ok := s.tracked[id]
	return t.offer, ok
}

// TrackedCount reports how many offers await a final state.
func (s *Service) TrackedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tracked)
}

type stateSetter interface {
	SetState(offer.State)
}

// ChangeState applies a state reported by the transport to a tracked offer and
// reacts to it. Offers in a final state are forgotten.
func (s *Service) ChangeState(ctx context.Context, id string, state offer.State) ([]string, error) {
	o, ok := s.Tracked(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOffer, id)
	}
	setter, ok := o.(stateSetter)
	if !ok {
		return nil, fmt.Errorf("offer %s does not accept state updates", id)
	}
	old := o.State()
	if old == state {
		return nil, nil
	}
	setter.SetState(state)
	replies := s.HandleOfferChanged(ctx, o, old)
	if final(state) {
		s.mu.Lock()
		delete(s.tracked, id)
		s.mu.Unlock()
	} else {
		s.track(o)
	}
	return replies, nil
}

func final(state offer.State) bool {
	switch state {
	case offer.StateActive, offer.StateCreatedNeedsConfirmation, offer.StateInEscrow, offer.StateCreated:
		return false
	}
	return true
}

func (s *Service) recordOffer(ctx context.Context, o offer.Offer) {
	if s.offers == nil || o.ID() == "" {
		return
	}
	rec := model.OfferRecord{
		ID:          o.ID(),
		Partner:     o.Partner(),
		State:       int(o.State()),
		Ours:        o.IsOurOffer(),
		HandledByUs: offer.HandledByUs(o),
		Summary:     o.Summarize(),
	}
	if err := s.offers.RecordOffer(ctx, rec); err != nil {
		logger.Warnf("Failed to record offer %s: %v", o.ID(), err)
	}
}

// ActiveOffer returns the id of an offer the bot sent to partner that is still active.
func (s *Service) ActiveOffer(ctx context.Context, partner string) (string, bool, error) {
	if s.offers == nil {
		return "", false, nil
	}
	return s.offers.ActiveOffer(ctx, partner)
}

// Decisions lists recorded verdicts, newest first.
func (s *Service) Decisions(ctx context.Context, partner string, limit int) ([]model.DecisionModel, error) {
	if s.decisions == nil {
		return nil, nil
	}
	return s.decisions.ListDecisions(ctx, partner, limit)
}

// Decision returns the latest verdict for offerID, or store.ErrNotFound.
func (s *Service) Decision(ctx context.Context, offerID string) (*model.DecisionModel, error) {
	if s.decisions == nil {
		return nil, store.ErrNotFound
	}
	return s.decisions.FindDecision(ctx, offerID)
}

// DecisionRecord flattens d into its stored form.
func DecisionRecord(d evaluator.Decision) (*model.DecisionModel, error) {
	meta, err := json.Marshal(d.Meta)
	if err != nil {
		return nil, fmt.Errorf("encode meta: %w", err)
	}
	exchange, err := json.Marshal(d.Exchange)
	if err != nil {
		return nil, fmt.Errorf("encode exchange: %w", err)
	}
	return &model.DecisionModel{
		OfferID:          d.OfferID,
		Partner:          d.Partner,
		Action:           string(d.Action),
		Reason:           string(d.Reason),
		PricelistVersion: d.Version,
		MetaJSON:         datatypes.JSON(meta),
		ExchangeJSON:     datatypes.JSON(exchange),
		DecidedAt:        d.DecidedAt,
	}, nil
}

// IsIndeterminate reports whether err means no decision could be reached.
func IsIndeterminate(err error) bool {
	return errors.Is(err, evaluator.ErrIndeterminate)
}
