// Package unwind finds the ancestor coins that still have to be created
// before a bag recipient's coin exists.
//
// A walk starts at the recipient's inner puzzle hash and climbs the parent
// lookup one level per step, asking the ledger about each parent coin. It
// stops at the first parent that exists: an unspent one anchors the plan,
// a spent one means somebody else is already unwinding the same branch.
package unwind

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/colorfulnotion/securethebag/bag"
	"github.com/colorfulnotion/securethebag/bagerrors"
	"github.com/colorfulnotion/securethebag/common"
	"github.com/colorfulnotion/securethebag/ledger"
	"github.com/colorfulnotion/securethebag/log"
	"github.com/colorfulnotion/securethebag/puzzles"
	"github.com/colorfulnotion/securethebag/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const DefaultQueryTimeout = 10 * time.Second

var tracer = otel.Tracer("github.com/colorfulnotion/securethebag/unwind")

// Resolver walks parent lookups against a ledger. It holds no per-walk
// state, so one Resolver may serve concurrent walks.
type Resolver struct {
	oracle       ledger.Oracle
	wrapper      puzzles.Wrapper
	queryTimeout time.Duration
}

type Option func(*Resolver)

// WithQueryTimeout bounds each ledger query. Zero disables the bound.
func WithQueryTimeout(d time.Duration) Option {
	return func(r *Resolver) { r.queryTimeout = d }
}

// NewResolver returns a Resolver. wrapper must be the one the lookup was
// built with.
func NewResolver(oracle ledger.Oracle, wrapper puzzles.Wrapper, opts ...Option) *Resolver {
	r := &Resolver{
		oracle:       oracle,
		wrapper:      wrapper,
		queryTimeout: DefaultQueryTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Unwind resolves target with a one-off resolver for assetID.
func Unwind(ctx context.Context, genesis, assetID common.Hash, lookup *bag.ParentLookup, target common.Hash, oracle ledger.Oracle) (*Result, error) {
	return NewResolver(oracle, puzzles.NewWrapper(assetID)).Unwind(ctx, genesis, lookup, target)
}

// Unwind walks from target towards genesis and returns the coins still to
// be spent. The returned Result is never nil: on error its State tells
// where the walk ended, StateWalking meaning the ledger failed mid-walk.
//
// A spent ancestor ends the walk in StateFoundSpentConflict with a nil
// plan and a nil error; see Result.Warning.
func (r *Resolver) Unwind(ctx context.Context, genesis common.Hash, lookup *bag.ParentLookup, target common.Hash) (*Result, error) {
	ctx, span := tracer.Start(ctx, "unwind.Unwind", trace.WithAttributes(
		attribute.String("target", target.Hex()),
		attribute.String("genesis", genesis.Hex()),
	))
	defer span.End()

	res, err := r.walk(ctx, genesis, lookup, target)
	span.SetAttributes(attribute.String("state", res.State.String()), attribute.Int("hops", res.Hops))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, bagerrors.GetErrorName(err))
	}
	return res, err
}

func (r *Resolver) walk(ctx context.Context, genesis common.Hash, lookup *bag.ParentLookup, target common.Hash) (*Result, error) {
	res := &Result{Target: target, State: StateWalking}
	if lookup.Genesis() != genesis {
		res.State = StateTreeInconsistent
		return res, fmt.Errorf("%w: lookup was built for genesis %s, not %s", bagerrors.ErrTreeInconsistency, lookup.Genesis(), genesis)
	}

	bound := lookup.Depth()
	discovered := make([]common.Hash, 0, bound)
	current := target
	for hop := 0; hop < bound; hop++ {
		entry, ok := lookup.Get(r.wrapper.Wrap(current))
		if !ok {
			if hop == 0 {
				res.State = StateUnknownNode
				return res, fmt.Errorf("%w: %s", bagerrors.ErrUnknownNode, target)
			}
			res.State = StateTreeInconsistent
			return res, fmt.Errorf("%w: no entry for %s, %d hops above %s", bagerrors.ErrTreeInconsistency, current, hop, target)
		}

		parent := entry.ParentCoinID
		rec, err := r.query(ctx, parent)
		res.Hops++
		if err != nil {
			return res, err
		}

		switch {
		case rec == nil:
			discovered = append(discovered, parent)
			if parent == genesis {
				res.State = StateReachedGenesis
				res.Plan = reversed(discovered)
				log.Debug(log.UnwindMonitoring, "reached genesis, bag not launched", "target", target, "plan", len(res.Plan))
				return res, nil
			}
			log.Debug(log.UnwindMonitoring, "ancestor not on ledger", "hop", hop, "coin", parent)
			current = entry.ParentPuzzleHash
		case !rec.IsSpent():
			discovered = append(discovered, parent)
			res.State = StateFoundUnspentAnchor
			res.Anchor = parent
			res.Plan = reversed(discovered)
			log.Debug(log.UnwindMonitoring, "found unspent anchor", "hop", hop, "coin", parent, "plan", len(res.Plan))
			return res, nil
		default:
			res.State = StateFoundSpentConflict
			res.SpentCoin = parent
			log.Warn(log.UnwindMonitoring, "lowest existing ancestor is spent", "target", target, "coin", parent,
				"spentBlockIndex", rec.SpentBlockIndex)
			return res, nil
		}
	}

	res.State = StateTreeInconsistent
	return res, fmt.Errorf("%w: %s does not reach genesis within %d hops", bagerrors.ErrTreeInconsistency, target, bound)
}

// query asks the ledger about one coin under the per-query timeout. Every
// failure is ErrLedgerUnavailable.
func (r *Resolver) query(ctx context.Context, coinID common.Hash) (*types.CoinRecord, error) {
	if r.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.queryTimeout)
		defer cancel()
	}
	ctx, span := tracer.Start(ctx, "ledger.CoinRecordByName", trace.WithAttributes(attribute.String("coin", coinID.Hex())))
	defer span.End()

	rec, err := r.oracle.CoinRecordByName(ctx, coinID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "ledger query failed")
		if errors.Is(err, bagerrors.ErrLedgerUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: coin %s: %v", bagerrors.ErrLedgerUnavailable, coinID, err)
	}
	span.SetAttributes(attribute.Bool("found", rec != nil))
	return rec, nil
}

// UnwindAll resolves every target, at most concurrency at a time, and
// returns results in target order. The first error cancels the rest.
func (r *Resolver) UnwindAll(ctx context.Context, genesis common.Hash, lookup *bag.ParentLookup, targets []common.Hash, concurrency int) ([]*Result, error) {
	results := make([]*Result, len(targets))
	g, ctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for i, target := range targets {
		g.Go(func() error {
			res, err := r.Unwind(ctx, genesis, lookup, target)
			results[i] = res
			if err != nil {
				return fmt.Errorf("target %s: %w", target, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func reversed(in []common.Hash) SpendPlan {
	out := make(SpendPlan, len(in))
	for i, h := range in {
		out[len(in)-1-i] = h
	}
	return out
}
