// Package materialize replaces placeholder asset content with generated text. Every operation
// returns fresh copies and leaves its inputs untouched.
package materialize

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/playbook-backend/internal/domain/playbook"
	"github.com/yungbote/playbook-backend/internal/generation"
	"github.com/yungbote/playbook-backend/internal/platform/logger"
)

// ProgressFunc receives a monotonically increasing percentage within the caller's scale.
type ProgressFunc func(pct float64)

// PlaybookScale is the share of a full-kit export spent materializing assets.
const PlaybookScale = 50

const defaultConcurrency = 8

type Materializer struct {
	log         *logger.Logger
	gen         generation.Generator
	concurrency int
}

func New(log *logger.Logger, gen generation.Generator, concurrency int) *Materializer {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Materializer{
		log:         log.With("service", "AssetMaterializer"),
		gen:         gen,
		concurrency: concurrency,
	}
}

// Item generates the asset's content when it is still a placeholder. The bool reports whether a
// generation call was made. On failure the returned item is the unchanged input.
func (m *Materializer) Item(ctx context.Context, item playbook.OfferStackItem, biz playbook.BusinessData) (playbook.OfferStackItem, bool, error) {
	if !item.NeedsContent() {
		return item.Clone(), false, nil
	}
	content, err := m.gen.GenerateAssetContent(ctx, item, biz)
	if err != nil {
		return item, true, err
	}
	return item.WithContent(content), true, nil
}

// Offer materializes every asset of offer concurrently. Progress is processed/total*scale, where
// total counts only asset-bearing items. Any failure fails the whole call.
func (m *Materializer) Offer(ctx context.Context, offer playbook.GeneratedOffer, biz playbook.BusinessData, scale float64, onProgress ProgressFunc) (playbook.GeneratedOffer, error) {
	out := offer.Clone()
	tr := newTracker(offer.AssetCount(), scale, onProgress)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.concurrency)
	var errs errorSet
	m.schedule(gctx, g, &out, biz, tr, &errs)
	if err := g.Wait(); err != nil {
		m.logFailures("offer", offer.Name, &errs)
		return playbook.GeneratedOffer{}, err
	}
	return out, nil
}

// Playbook materializes the three offers together. The denominator is the asset count across all
// of them and progress is scaled into 0..PlaybookScale.
func (m *Materializer) Playbook(ctx context.Context, pb playbook.GeneratedPlaybook, biz playbook.BusinessData, onProgress ProgressFunc) (playbook.GeneratedPlaybook, error) {
	tr := newTracker(pb.TotalAssets(), PlaybookScale, onProgress)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.concurrency)
	var errs errorSet

	offers := make(map[playbook.OfferSlot]*playbook.GeneratedOffer, len(playbook.OfferSlots))
	for _, slot := range playbook.OfferSlots {
		src := pb.Offer(slot)
		if src == nil {
			continue
		}
		cp := src.Clone()
		offers[slot] = &cp
		m.schedule(gctx, g, &cp, biz, tr, &errs)
	}
	if err := g.Wait(); err != nil {
		m.logFailures("playbook", "", &errs)
		return playbook.GeneratedPlaybook{}, err
	}

	out := pb
	for _, slot := range playbook.OfferSlots {
		if o, ok := offers[slot]; ok {
			out = out.WithOffer(slot, *o)
		}
	}
	return out, nil
}

// schedule queues one task per asset-bearing item. Each task writes only its own stack slot.
func (m *Materializer) schedule(ctx context.Context, g *errgroup.Group, offer *playbook.GeneratedOffer, biz playbook.BusinessData, tr *tracker, errs *errorSet) {
	for i := range offer.Stack {
		if !offer.Stack[i].HasAsset() {
			continue
		}
		idx := i
		src := offer.Stack[i]
		g.Go(func() error {
			item, _, err := m.Item(ctx, src, biz)
			if err != nil {
				errs.add(fmt.Errorf("%s: %w", src.Asset.Name, err))
				return err
			}
			offer.Stack[idx] = item
			tr.step()
			return nil
		})
	}
}

func (m *Materializer) logFailures(scope, name string, errs *errorSet) {
	if err := errs.err(); err != nil {
		m.log.Warn("asset materialization failed", "scope", scope, "offer", name, "error", err)
	}
}

// tracker serializes progress so callbacks never observe a lower value than before.
type tracker struct {
	mu    sync.Mutex
	done  int
	total int
	scale float64
	fn    ProgressFunc
}

func newTracker(total int, scale float64, fn ProgressFunc) *tracker {
	return &tracker{total: total, scale: scale, fn: fn}
}

func (t *tracker) step() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.done++
	if t.fn != nil && t.total > 0 {
		t.fn(float64(t.done) / float64(t.total) * t.scale)
	}
}

// errorSet collects per-asset failures, leaving out the cancellations they trigger in siblings.
type errorSet struct {
	mu     sync.Mutex
	merr   *multierror.Error
	cancel int
}

func (s *errorSet) add(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if errors.Is(err, context.Canceled) {
		s.cancel++
		return
	}
	s.merr = multierror.Append(s.merr, err)
}

func (s *errorSet) err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.merr == nil && s.cancel > 0 {
		return context.Canceled
	}
	return s.merr.ErrorOrNil()
}
