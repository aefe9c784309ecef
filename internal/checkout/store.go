// Package checkout holds the ephemeral per-user session between product
// selection and payment proof submission.
package checkout

import (
	"context"

	"digistore/core/telegram/state"
	"digistore/internal/domain"
)

// SessionStore persists at most one checkout session per user.
type SessionStore interface {
	Put(ctx context.Context, userID int64, s domain.Session) error
	Get(ctx context.Context, userID int64) (domain.Session, error)
	Delete(ctx context.Context, userID int64) error
}

// StateWaitingProof marks a user who picked a product and owes a payment
// screenshot.
const StateWaitingProof state.State = "waiting_for_screenshot"

const sessionKey = "checkout_session"

// stateStore keeps sessions inside the conversation state manager, so the
// FSM state and the session payload live and die together.
type stateStore struct {
	states state.Manager
}

// NewStateStore builds a SessionStore on top of the in-process state manager.
func NewStateStore(states state.Manager) SessionStore {
	return &stateStore{states: states}
}

func (s *stateStore) Put(ctx context.Context, userID int64, sess domain.Session) error {
	s.states.SetState(userID, StateWaitingProof)
	s.states.SetTemp(userID, sessionKey, sess)
	return nil
}

func (s *stateStore) Get(ctx context.Context, userID int64) (domain.Session, error) {
	raw, ok := s.states.GetTemp(userID, sessionKey)
	if !ok {
		return domain.Session{}, domain.ErrNoActiveCheckout
	}
	sess, ok := raw.(domain.Session)
	if !ok {
		return domain.Session{}, domain.ErrNoActiveCheckout
	}
	return sess, nil
}

func (s *stateStore) Delete(ctx context.Context, userID int64) error {
	s.states.Clear(userID)
	return nil
}
