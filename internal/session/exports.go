package session

import (
	"context"

	"github.com/yungbote/playbook-backend/internal/domain/playbook"
	"github.com/yungbote/playbook-backend/internal/export"
)

// ItemRef addresses one stack item of a finished playbook.
type ItemRef struct {
	Slot  playbook.OfferSlot `json:"offer"`
	Index int                `json:"item"`
}

// view is what an export needs from the session, copied under the lock.
type view struct {
	epoch    int64
	pb       *playbook.GeneratedPlaybook
	biz      *playbook.BusinessData
	exporter *export.Coordinator
	ctx      context.Context
}

func (s *Session) view() view {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := view{epoch: s.epoch, exporter: s.exporter, ctx: s.ctx}
	if s.pb != nil {
		pb := *s.pb
		v.pb = &pb
	}
	if s.biz != nil {
		b := *s.biz
		v.biz = &b
	}
	return v
}

// scoped ends when either the request or the session's work context ends.
func scoped(ctx context.Context, v view) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(v.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

func (s *Session) ExportState() export.State {
	return s.view().exporter.State()
}

func (s *Session) ExportSection(ctx context.Context, kind export.Kind) (*export.Result, error) {
	v := s.view()
	ctx, cancel := scoped(ctx, v)
	defer cancel()
	return v.exporter.SectionPDF(ctx, kind, v.pb, v.biz)
}

func (s *Session) ExportAsset(ctx context.Context, ref ItemRef) (*export.Result, error) {
	v := s.view()
	item, ok := lookupItem(v.pb, ref)
	if !ok {
		return nil, &export.PreconditionError{Message: "Cannot generate asset: Missing asset details or business context."}
	}
	ctx, cancel := scoped(ctx, v)
	defer cancel()
	res, err := v.exporter.AssetPDF(ctx, item, v.biz)
	if err != nil {
		return nil, err
	}
	if res.Item != nil {
		s.keepItem(v.epoch, ref, *res.Item)
	}
	return res, nil
}

func (s *Session) ExportBundle(ctx context.Context, slot playbook.OfferSlot) (*export.Result, error) {
	v := s.view()
	var offer *playbook.GeneratedOffer
	if v.pb != nil && slot.Valid() {
		offer = v.pb.Offer(slot)
	}
	ctx, cancel := scoped(ctx, v)
	defer cancel()
	res, err := v.exporter.BundlePDF(ctx, offer, v.biz)
	if err != nil {
		return nil, err
	}
	if res.Offer != nil {
		s.keep(v.epoch, func(pb playbook.GeneratedPlaybook) playbook.GeneratedPlaybook {
			return pb.WithOffer(slot, *res.Offer)
		})
	}
	return res, nil
}

func (s *Session) ExportKit(ctx context.Context) (*export.Result, error) {
	v := s.view()
	ctx, cancel := scoped(ctx, v)
	defer cancel()
	res, err := v.exporter.Kit(ctx, v.pb, v.biz)
	if err != nil {
		return nil, err
	}
	if res.Playbook != nil {
		done := *res.Playbook
		s.keep(v.epoch, func(playbook.GeneratedPlaybook) playbook.GeneratedPlaybook { return done })
	}
	return res, nil
}

// PreviewAsset returns the item with its content materialized and keeps that content.
func (s *Session) PreviewAsset(ctx context.Context, ref ItemRef) (playbook.OfferStackItem, error) {
	v := s.view()
	item, ok := lookupItem(v.pb, ref)
	if !ok {
		return playbook.OfferStackItem{}, &export.PreconditionError{Message: "Cannot preview asset: Missing asset details or business context."}
	}
	ctx, cancel := scoped(ctx, v)
	defer cancel()
	done, called, err := v.exporter.PreviewAsset(ctx, item, v.biz)
	if err != nil {
		return playbook.OfferStackItem{}, err
	}
	if called {
		s.keepItem(v.epoch, ref, done)
	}
	return done, nil
}

func (s *Session) OfflinePage() ([]byte, error) {
	v := s.view()
	return export.OfflinePage(v.pb, v.biz)
}

func lookupItem(pb *playbook.GeneratedPlaybook, ref ItemRef) (playbook.OfferStackItem, bool) {
	if pb == nil || !ref.Slot.Valid() {
		return playbook.OfferStackItem{}, false
	}
	offer := pb.Offer(ref.Slot)
	if offer == nil || ref.Index < 0 || ref.Index >= len(offer.Stack) {
		return playbook.OfferStackItem{}, false
	}
	return offer.Stack[ref.Index].Clone(), true
}

func (s *Session) keepItem(epoch int64, ref ItemRef, item playbook.OfferStackItem) {
	s.keep(epoch, func(pb playbook.GeneratedPlaybook) playbook.GeneratedPlaybook {
		offer := pb.Offer(ref.Slot)
		if offer == nil {
			return pb
		}
		return pb.WithOffer(ref.Slot, offer.WithItem(ref.Index, item))
	})
}

// keep writes materialized content back into the playbook, unless the session was reset since
// the export read it.
func (s *Session) keep(epoch int64, apply func(playbook.GeneratedPlaybook) playbook.GeneratedPlaybook) {
	s.mu.Lock()
	if s.epoch != epoch || s.pb == nil {
		s.mu.Unlock()
		return
	}
	next := apply(*s.pb)
	s.pb = &next
	snap := s.changed()
	s.mu.Unlock()
	s.publish(snap)
}
