// internal/ai/decider.go
package ai

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sirupsen/logrus"

	"github.com/tavernlabs/liarsbar/internal/game"
)

// Sentinel errors for reasoning backend failures.
var (
	ErrUnavailable = errors.New("reasoning backend unavailable")
	ErrMalformed   = errors.New("reasoning backend returned malformed output")
)

// Kind discriminates the three decisions an AI seat can make.
type Kind string

const (
	KindPlay      Kind = "play"
	KindChallenge Kind = "challenge"
	KindCutWire   Kind = "cut_wire"
)

// Decision is a fully validated instruction for an AI seat.
type Decision struct {
	Kind    Kind
	Indices []int
	Wire    game.WireColor
}

// View is the stable snapshot of room state a decision is computed from.
// It is captured under the session lock and used outside it, so it carries
// copies only.
type View struct {
	Target       game.Face
	Hand         []game.Face
	ClaimPending bool
	ClaimSize    int
	AliveCount   int
	MaxClaim     int
	WireOptions  []game.WireColor
}

// Decider is the narrow interface over an external reasoning backend. Its
// raw output is never trusted; parsing and validation stay in this package.
type Decider interface {
	Propose(ctx context.Context, prompt string) (string, error)
}

// Engine produces decisions for AI seats: external backend first when
// configured, deterministic heuristic on any failure.
type Engine struct {
	Backend Decider // nil means heuristic only.
	Timeout time.Duration
	Retries int
	log     *logrus.Entry
	h       *Heuristic
}

// NewEngine builds a decision engine around an optional backend.
func NewEngine(backend Decider, timeout time.Duration, retries int, rng *rand.Rand) *Engine {
	return &Engine{
		Backend: backend,
		Timeout: timeout,
		Retries: retries,
		log:     logrus.WithField("component", "ai"),
		h:       NewHeuristic(rng),
	}
}

// DecideWire picks a wire uniformly at random among the offered options.
func (e *Engine) DecideWire(v View) Decision {
	return e.h.DecideWire(v)
}

// DecideTurn produces a play-or-challenge decision. The external backend
// is attempted with bounded retries; a timeout, error or malformed reply
// discards the attempt. Exhausted retries fall back to the heuristic and
// are never surfaced to players.
func (e *Engine) DecideTurn(ctx context.Context, v View) Decision {
	if e.Backend == nil {
		return e.h.DecideTurn(v)
	}

	prompt := BuildPrompt(v)
	op := func() (Decision, error) {
		callCtx, cancel := context.WithTimeout(ctx, e.Timeout)
		defer cancel()
		raw, err := e.Backend.Propose(callCtx, prompt)
		if err != nil {
			return Decision{}, err
		}
		d, err := ParseDecision(raw, v)
		if err != nil {
			return Decision{}, err
		}
		return d, nil
	}

	d, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(uint(e.Retries+1)))
	if err != nil {
		e.log.WithError(err).Debug("backend exhausted, using heuristic")
		return e.h.DecideTurn(v)
	}
	return d
}

// BuildPrompt renders the prompt context handed to the backend.
func BuildPrompt(v View) string {
	claim := "none"
	if v.ClaimPending {
		claim = fmt.Sprintf("%d card(s) claimed as %s", v.ClaimSize, v.Target)
	}
	return fmt.Sprintf(
		"You are seated at a liar's bar table. Table card: %s (magic is wild). "+
			"Your hand (zero-based): %v. Pending claim: %s. Players alive: %d. "+
			"Reply with JSON only: {\"action\":\"challenge\"} or "+
			"{\"action\":\"play\",\"indices\":[...]} with 1 to %d unique indices.",
		v.Target, v.Hand, claim, v.AliveCount, v.MaxClaim)
}
