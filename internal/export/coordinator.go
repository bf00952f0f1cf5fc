package export

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/playbook-backend/internal/archive"
	"github.com/yungbote/playbook-backend/internal/domain/exports"
	"github.com/yungbote/playbook-backend/internal/domain/playbook"
	"github.com/yungbote/playbook-backend/internal/materialize"
	"github.com/yungbote/playbook-backend/internal/observability"
	"github.com/yungbote/playbook-backend/internal/platform/ctxutil"
	"github.com/yungbote/playbook-backend/internal/platform/logger"
	"github.com/yungbote/playbook-backend/internal/render"
)

const (
	ContentTypePDF  = "application/pdf"
	ContentTypeZIP  = "application/zip"
	ContentTypeHTML = "text/html; charset=utf-8"
)

// Artifact is a finished export handed to an ArtifactSink.
type Artifact struct {
	Kind        string
	Filename    string
	ContentType string
	Data        []byte
}

// ArtifactSink keeps a copy of finished exports. Failures are logged and never fail the export.
type ArtifactSink interface {
	Store(ctx context.Context, a Artifact) (*exports.ExportArtifact, error)
}

// Observer receives every state change of the export slot.
type Observer func(State)

// Result is a finished export. Offer, Item and Playbook carry the materialized values the export
// produced, when it materialized anything, so the caller can keep them.
type Result struct {
	Filename    string
	ContentType string
	Data        []byte
	Artifact    *exports.ExportArtifact

	Item     *playbook.OfferStackItem
	Offer    *playbook.GeneratedOffer
	Playbook *playbook.GeneratedPlaybook
}

type Option func(*Coordinator)

func WithSink(s ArtifactSink) Option { return func(c *Coordinator) { c.sink = s } }

func WithObserver(fn Observer) Option { return func(c *Coordinator) { c.observe = fn } }

func WithGeometry(g render.Geometry) Option { return func(c *Coordinator) { c.geom = g } }

func WithClock(now func() time.Time) Option { return func(c *Coordinator) { c.now = now } }

// Coordinator runs one export at a time for a single session.
type Coordinator struct {
	log      *logger.Logger
	mat      *materialize.Materializer
	renderer render.Renderer
	geom     render.Geometry
	sink     ArtifactSink
	observe  Observer
	now      func() time.Time
	tracer   trace.Tracer

	mu    sync.Mutex
	state State
}

func NewCoordinator(log *logger.Logger, mat *materialize.Materializer, renderer render.Renderer, opts ...Option) *Coordinator {
	c := &Coordinator{
		log:      log.With("service", "ExportCoordinator"),
		mat:      mat,
		renderer: renderer,
		geom:     render.DefaultGeometry(),
		now:      func() time.Time { return time.Now().UTC() },
		tracer:   observability.Tracer("export"),
		state:    idle(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Coordinator) begin(s State) error {
	c.mu.Lock()
	if c.state.Busy() {
		c.mu.Unlock()
		return ErrExportInProgress
	}
	c.state = s
	c.mu.Unlock()
	c.notify(s)
	return nil
}

func (c *Coordinator) progress(pct float64) {
	c.mu.Lock()
	if !c.state.Busy() || pct <= c.state.Progress {
		c.mu.Unlock()
		return
	}
	if pct > 100 {
		pct = 100
	}
	c.state.Progress = pct
	s := c.state
	c.mu.Unlock()
	c.notify(s)
}

func (c *Coordinator) end() {
	c.mu.Lock()
	c.state = idle()
	c.mu.Unlock()
	c.notify(idle())
}

func (c *Coordinator) notify(s State) {
	if c.observe != nil {
		c.observe(s)
	}
}

// opSpan traces one export operation and records its duration.
type opSpan struct {
	trace.Span
	op    string
	start time.Time
}

func (c *Coordinator) span(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, *opSpan) {
	ctx, span := c.tracer.Start(ctx, "export."+name, trace.WithAttributes(attrs...))
	return ctx, &opSpan{Span: span, op: name, start: time.Now()}
}

func (s *opSpan) end(err error) {
	if err != nil {
		s.RecordError(err)
		s.SetStatus(codes.Error, err.Error())
	}
	s.End()
	observability.Current().ObserveExport(s.op, observability.RunStatus(err), time.Since(s.start))
}

func (c *Coordinator) render(doc render.Document) ([]byte, error) {
	return c.renderer.Render(doc, c.geom)
}

// SectionPDF renders one of the single-document exports.
func (c *Coordinator) SectionPDF(ctx context.Context, kind Kind, pb *playbook.GeneratedPlaybook, biz *playbook.BusinessData) (res *Result, err error) {
	if !kind.Valid() {
		return nil, precondition(fmt.Sprintf("Unknown export type: %s", kind))
	}
	if pb == nil || biz == nil || !pb.Complete() {
		return nil, precondition("Cannot generate PDF: Missing playbook or business data.")
	}
	if err := c.begin(State{Phase: PhaseRenderingSection, Section: kind}); err != nil {
		return nil, err
	}
	defer c.end()
	ctx, span := c.span(ctx, "section", attribute.String("export.kind", string(kind)))
	defer func() { span.end(err) }()

	c.progress(95)
	doc, err := SectionDocument(kind, *pb, *biz)
	if err != nil {
		return nil, failure("section_pdf", prefixSection, err)
	}
	data, err := c.render(doc)
	if err != nil {
		return nil, failure("section_pdf", prefixSection, err)
	}
	c.progress(100)
	res = &Result{Filename: kind.Filename(), ContentType: ContentTypePDF, Data: data}
	c.keep(ctx, string(kind), res)
	return res, nil
}

// AssetPDF materializes one asset when needed and renders it.
func (c *Coordinator) AssetPDF(ctx context.Context, item playbook.OfferStackItem, biz *playbook.BusinessData) (res *Result, err error) {
	if item.Asset == nil || biz == nil {
		return nil, precondition("Cannot generate asset: Missing asset details or business context.")
	}
	if err := c.begin(State{Phase: PhaseRenderingAsset, Asset: item.Asset.Name}); err != nil {
		return nil, err
	}
	defer c.end()
	ctx, span := c.span(ctx, "asset", attribute.String("export.asset", item.Asset.Name))
	defer func() { span.end(err) }()

	c.progress(25)
	done, called, err := c.mat.Item(ctx, item, *biz)
	if err != nil {
		return nil, failure("asset_pdf", prefixAsset, err)
	}
	c.progress(75)
	c.progress(95)
	data, err := c.render(AssetDocument(done))
	if err != nil {
		return nil, failure("asset_pdf", prefixAsset, err)
	}
	c.progress(100)
	res = &Result{Filename: AssetFilename(done.Asset.Name), ContentType: ContentTypePDF, Data: data}
	if called {
		res.Item = &done
	}
	c.keep(ctx, "asset", res)
	return res, nil
}

// BundlePDF materializes every asset of offer and renders them into one document.
func (c *Coordinator) BundlePDF(ctx context.Context, offer *playbook.GeneratedOffer, biz *playbook.BusinessData) (res *Result, err error) {
	if offer == nil || biz == nil {
		return nil, precondition("Cannot generate assets: Missing business context.")
	}
	if err := c.begin(State{Phase: PhaseRenderingBundle, Offer: offer.Name}); err != nil {
		return nil, err
	}
	defer c.end()
	ctx, span := c.span(ctx, "bundle", attribute.String("export.offer", offer.Name), attribute.Int("export.assets", offer.AssetCount()))
	defer func() { span.end(err) }()

	placeholders := offer.PlaceholderCount()
	done, err := c.mat.Offer(ctx, *offer, *biz, 90, c.progress)
	if err != nil {
		return nil, failure("bundle_pdf", prefixBundle, err)
	}
	c.progress(95)
	data, err := c.render(BundleDocument(done))
	if err != nil {
		return nil, failure("bundle_pdf", prefixBundle, err)
	}
	c.progress(100)
	res = &Result{Filename: BundleFilename(offer.Name), ContentType: ContentTypePDF, Data: data}
	if placeholders > 0 {
		res.Offer = &done
	}
	c.keep(ctx, "bundle", res)
	return res, nil
}

// Kit materializes the whole playbook and packs every document plus index.html into one ZIP.
// Nothing partial is returned: any failure discards the archive.
func (c *Coordinator) Kit(ctx context.Context, pb *playbook.GeneratedPlaybook, biz *playbook.BusinessData) (res *Result, err error) {
	if pb == nil || biz == nil || !pb.Complete() {
		return nil, precondition("Cannot generate kit: Missing playbook or business data.")
	}
	if err := c.begin(State{Phase: PhaseZipping}); err != nil {
		return nil, err
	}
	defer c.end()
	ctx, span := c.span(ctx, "kit", attribute.Int("export.assets", pb.TotalAssets()))
	defer func() { span.end(err) }()

	done, err := c.mat.Playbook(ctx, *pb, *biz, c.progress)
	if err != nil {
		return nil, failure("kit", prefixKit, err)
	}
	c.progress(materialize.PlaybookScale)

	m := BuildManifest(done)
	entries := m.Entries()
	w := archive.NewWriter(c.now())
	step := 48 / float64(len(entries))
	pct := float64(materialize.PlaybookScale)
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, failure("kit", prefixKit, err)
		}
		doc, err := kitDocument(e, m, done, *biz)
		if err != nil {
			return nil, failure("kit", prefixKit, err)
		}
		data, err := c.render(doc)
		if err != nil {
			return nil, failure("kit", prefixKit, err)
		}
		if err := w.Add(e.Path, data); err != nil {
			return nil, failure("kit", prefixKit, err)
		}
		pct += step
		c.progress(pct)
	}

	index, err := RenderIndex(m, *biz)
	if err != nil {
		return nil, failure("kit", prefixKit, err)
	}
	if err := w.Add(IndexFilename, index); err != nil {
		return nil, failure("kit", prefixKit, err)
	}
	c.progress(99)
	data, err := w.Finalize()
	if err != nil {
		return nil, failure("kit", prefixKit, err)
	}
	c.progress(100)

	res = &Result{Filename: KitFilename, ContentType: ContentTypeZIP, Data: data, Playbook: &done}
	c.keep(ctx, "kit", res)
	return res, nil
}

func kitDocument(e Entry, m Manifest, pb playbook.GeneratedPlaybook, biz playbook.BusinessData) (render.Document, error) {
	switch e.Type {
	case DocStartGuide:
		return StartGuide(m, biz), nil
	case DocBundle, DocAsset:
		offer := pb.Offer(e.Slot)
		if offer == nil {
			return render.Document{}, fmt.Errorf("%s: no offer in slot %q", e.Path, e.Slot)
		}
		if e.Type == DocBundle {
			return BundleDocument(*offer), nil
		}
		if e.Item < 0 || e.Item >= len(offer.Stack) {
			return render.Document{}, fmt.Errorf("%s: no stack item %d", e.Path, e.Item)
		}
		return AssetDocument(offer.Stack[e.Item]), nil
	}
	return SectionDocument(e.Kind, pb, biz)
}

// PreviewAsset returns item with its content materialized. It renders nothing and does not take
// the export slot.
func (c *Coordinator) PreviewAsset(ctx context.Context, item playbook.OfferStackItem, biz *playbook.BusinessData) (playbook.OfferStackItem, bool, error) {
	if item.Asset == nil || biz == nil {
		return item, false, precondition("Cannot preview asset: Missing asset details or business context.")
	}
	done, called, err := c.mat.Item(ctx, item, *biz)
	if err != nil {
		return item, called, failure("preview_asset", prefixAsset, err)
	}
	return done, called, nil
}

func (c *Coordinator) keep(ctx context.Context, kind string, res *Result) {
	if c.sink == nil {
		return
	}
	art, err := c.sink.Store(ctxutil.Detach(ctx), Artifact{
		Kind:        kind,
		Filename:    res.Filename,
		ContentType: res.ContentType,
		Data:        res.Data,
	})
	if err != nil {
		c.log.Warn("export artifact not stored", "kind", kind, "filename", res.Filename, "error", err)
		return
	}
	res.Artifact = art
}
