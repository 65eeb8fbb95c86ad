// Package payment abstracts the card processor behind a Gateway.
package payment

import (
	"context"
	"errors"
	"math/rand"
	"sync"

	"github.com/google/uuid"
)

var ErrInvalidAmount = errors.New("payment: amount must not be negative")

type ChargeRequest struct {
	ReservationID uint
	UserID        uint
	Amount        float64
	Method        string
}

type ChargeResult struct {
	Approved       bool
	TransactionRef string
	DeclineReason  string
}

// Gateway charges a payment method. An error means the gateway could not decide;
// a decline is reported through ChargeResult.Approved.
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error)
}

// SimulatedGateway approves a configurable share of charges.
type SimulatedGateway struct {
	successRate float64
	mu          sync.Mutex
	rng         *rand.Rand
}

// NewSimulatedGateway returns a gateway approving successRate (0..1) of charges,
// drawing from src. A rate of 1 always approves.
func NewSimulatedGateway(successRate float64, src rand.Source) *SimulatedGateway {
	return &SimulatedGateway{
		successRate: successRate,
		rng:         rand.New(src),
	}
}

func (g *SimulatedGateway) Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error) {
	if err := ctx.Err(); err != nil {
		return ChargeResult{}, err
	}
	if req.Amount < 0 {
		return ChargeResult{}, ErrInvalidAmount
	}

	g.mu.Lock()
	roll := g.rng.Float64()
	g.mu.Unlock()

	if roll >= g.successRate {
		return ChargeResult{Approved: false, DeclineReason: "card declined"}, nil
	}
	return ChargeResult{Approved: true, TransactionRef: newRef()}, nil
}

// FixedGateway always returns the same decision.
type FixedGateway struct {
	Approve bool
}

func (g FixedGateway) Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error) {
	if err := ctx.Err(); err != nil {
		return ChargeResult{}, err
	}
	if req.Amount < 0 {
		return ChargeResult{}, ErrInvalidAmount
	}
	if !g.Approve {
		return ChargeResult{Approved: false, DeclineReason: "card declined"}, nil
	}
	return ChargeResult{Approved: true, TransactionRef: newRef()}, nil
}

func newRef() string {
	return "txn_" + uuid.NewString()
}
