package main

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

const eventQueueSize = 64

// defaultConcurrency bounds parallel parsing unless WithConcurrency is given
var defaultConcurrency = runtime.NumCPU()

// Document is one member of the document set
type Document struct {
	Path    string // Identity, slash separated
	ModTime time.Time
}

// DocumentSource enumerates and reads documents
type DocumentSource interface {
	Documents(ctx context.Context) ([]Document, error)
	Read(ctx context.Context, path string) ([]byte, error)
}

// DocumentEvents is implemented by sources that report changes. Each
// registration returns a function that removes it.
type DocumentEvents interface {
	OnResolved(fn func()) (unsubscribe func())
	OnDeleted(fn func(path string)) (unsubscribe func())
}

// SettingsSource exposes the current settings
type SettingsSource interface {
	Settings() Settings
}

// Renderer receives every grouping result. It must not keep a reference to
// the pipeline.
type Renderer interface {
	Render(groups []*TodoGroup, view ViewSettings)
}

// Event is a unit of work for Pipeline.Run
type Event interface {
	isEvent()
}

// RefreshEvent re-parses changed documents, or every document when Force is set
type RefreshEvent struct{ Force bool }

// ResolvedEvent reports that documents changed; ignored unless auto refresh is on
type ResolvedEvent struct{}

// DeleteEvent drops a document from the index
type DeleteEvent struct{ Path string }

// SearchEvent replaces the search string
type SearchEvent struct{ Term string }

func (RefreshEvent) isEvent()  {}
func (ResolvedEvent) isEvent() {}
func (DeleteEvent) isEvent()   {}
func (SearchEvent) isEvent()   {}

// ScanProgress represents progress during a refresh
type ScanProgress struct {
	Phase       string // "scanning" or "parsing"
	CurrentFile string
	FilesFound  int
	FilesParsed int
	TasksFound  int
}

// Pipeline owns the index cache, the refresh watermark and the search
// string. Refresh, DeleteDocument and SetSearch never run concurrently.
type Pipeline struct {
	mu        sync.Mutex
	cache     *IndexCache
	watermark time.Time
	search    string
	groups    []*TodoGroup

	source   DocumentSource
	meta     MetadataSource
	settings SettingsSource
	renderer Renderer

	logger      *log.Logger
	concurrency int
	now         func() time.Time
	progress    func(ScanProgress)

	events      chan Event
	closed      chan struct{}
	closeOnce   sync.Once
	unsubscribe []func()
}

// PipelineOption configures a Pipeline
type PipelineOption func(*Pipeline)

// WithLogger sets the logger used for diagnostics
func WithLogger(logger *log.Logger) PipelineOption {
	return func(p *Pipeline) { p.logger = logger }
}

// WithConcurrency limits the number of documents parsed at once
func WithConcurrency(n int) PipelineOption {
	return func(p *Pipeline) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) PipelineOption {
	return func(p *Pipeline) { p.now = now }
}

// WithProgress registers a callback for refresh progress. It may be called
// from several goroutines.
func WithProgress(fn func(ScanProgress)) PipelineOption {
	return func(p *Pipeline) { p.progress = fn }
}

// NewPipeline creates a pipeline. renderer may be nil.
func NewPipeline(source DocumentSource, meta MetadataSource, settings SettingsSource, renderer Renderer, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		cache:       NewIndexCache(),
		source:      source,
		meta:        meta,
		settings:    settings,
		renderer:    renderer,
		logger:      log.New(io.Discard),
		concurrency: defaultConcurrency,
		now:         time.Now,
		events:      make(chan Event, eventQueueSize),
		closed:      make(chan struct{}),
	}

	for _, opt := range opts {
		opt(p)
	}

	p.search = settings.Settings().Search

	return p
}

// SetRenderer replaces the renderer used by later refreshes
func (p *Pipeline) SetRenderer(r Renderer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.renderer = r
}

// Groups returns the result of the last grouping pass
func (p *Pipeline) Groups() []*TodoGroup {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.groups
}

// Watermark returns the start time of the last completed refresh
func (p *Pipeline) Watermark() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.watermark
}

// Search returns the active search string
func (p *Pipeline) Search() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.search
}

// Items returns the flattened index without search or grouping
func (p *Pipeline) Items() []*TodoItem {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cache.Flatten()
}

// Refresh re-parses documents changed since the watermark (all documents
// when forceFull is set), then filters, groups and renders the index.
// A cancelled context aborts before anything is committed to the cache.
func (p *Pipeline) Refresh(ctx context.Context, forceFull bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.refreshLocked(ctx, forceFull)
}

func (p *Pipeline) refreshLocked(ctx context.Context, forceFull bool) error {
	settings := p.settings.Settings()
	started := p.now()

	if forceFull {
		p.watermark = time.Time{}
		p.cache.Clear()
	}

	p.report(ScanProgress{Phase: "scanning"})

	docs, err := p.source.Documents(ctx)
	if err != nil {
		p.regroupLocked(settings)
		return fmt.Errorf("listing documents: %w", err)
	}

	include := settings.IncludePredicate()
	known := make(map[string]bool, len(docs))

	var changed []Document

	for _, doc := range docs {
		if !include(doc.Path) {
			continue
		}
		known[doc.Path] = true

		if !p.cache.Has(doc.Path) || doc.ModTime.After(p.watermark) {
			changed = append(changed, doc)
		}
	}

	results, err := p.parseAll(ctx, changed, settings.ParseOptions())
	if err != nil {
		return err
	}

	for _, path := range p.cache.Paths() {
		if !known[path] {
			p.cache.Delete(path)
			p.logger.Debug("dropped document", "path", path)
		}
	}

	for i, doc := range changed {
		p.cache.Set(doc.Path, results[i])
	}

	p.watermark = started
	p.logger.Debug("refreshed", "parsed", len(changed), "documents", len(known), "full", forceFull)

	p.regroupLocked(settings)
	return nil
}

// parseAll parses docs concurrently. Results are indexed like docs.
func (p *Pipeline) parseAll(ctx context.Context, docs []Document, opts ParseOptions) ([][]*TodoItem, error) {
	results := make([][]*TodoItem, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	var parsed, found atomic.Int64

	for i, doc := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			items, err := p.parseDocument(gctx, doc, opts)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				p.logger.Warn("parse failed", "path", doc.Path, "err", err)
				items = []*TodoItem{}
			}
			results[i] = items

			p.report(ScanProgress{
				Phase:       "parsing",
				CurrentFile: doc.Path,
				FilesFound:  len(docs),
				FilesParsed: int(parsed.Add(1)),
				TasksFound:  int(found.Add(int64(len(items)))),
			})
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

func (p *Pipeline) parseDocument(ctx context.Context, doc Document, opts ParseOptions) ([]*TodoItem, error) {
	content, err := p.source.Read(ctx, doc.Path)
	if err != nil {
		return nil, err
	}

	var tags []string
	if p.meta != nil {
		tags, err = p.meta.Tags(doc.Path, content)
		if err != nil {
			p.logger.Warn("ignoring document tags", "path", doc.Path, "err", err)
		}
	}

	return parseTodos(doc.Path, content, tags, opts)
}

// DeleteDocument removes a document from the index and regroups without
// parsing. Unknown paths are ignored.
func (p *Pipeline) DeleteDocument(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cache.Delete(path) {
		p.logger.Debug("deleted document", "path", path)
	}

	p.regroupLocked(p.settings.Settings())
}

// SetSearch replaces the search string and refreshes
func (p *Pipeline) SetSearch(ctx context.Context, term string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.search = term
	return p.refreshLocked(ctx, false)
}

func (p *Pipeline) regroupLocked(settings Settings) {
	items := filterItems(p.cache.Flatten(), tokenizeSearch(p.search))
	p.groups = groupTodos(items, settings.GroupOptions())

	if p.renderer != nil {
		p.renderer.Render(p.groups, settings.View(p.search))
	}
}

func (p *Pipeline) report(progress ScanProgress) {
	if p.progress != nil {
		p.progress(progress)
	}
}

// Open subscribes to the source's change events and runs the first refresh
func (p *Pipeline) Open(ctx context.Context) error {
	if events, ok := p.source.(DocumentEvents); ok {
		p.unsubscribe = append(p.unsubscribe,
			events.OnResolved(func() { p.Send(ResolvedEvent{}) }),
			events.OnDeleted(func(path string) { p.Send(DeleteEvent{Path: path}) }),
		)
	}

	return p.Refresh(ctx, false)
}

// Close removes the event subscriptions and stops Run
func (p *Pipeline) Close() {
	p.closeOnce.Do(func() {
		for i := len(p.unsubscribe) - 1; i >= 0; i-- {
			p.unsubscribe[i]()
		}
		p.unsubscribe = nil
		close(p.closed)
	})
}

// Send queues an event for Run. It drops the event once the pipeline is closed.
func (p *Pipeline) Send(ev Event) {
	select {
	case p.events <- ev:
	case <-p.closed:
	}
}

// Run processes queued events one at a time until ctx is done or the
// pipeline is closed
func (p *Pipeline) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.closed:
			return nil
		case ev := <-p.events:
			if err := p.handle(ctx, ev); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				p.logger.Error("event failed", "event", fmt.Sprintf("%T", ev), "err", err)
			}
		}
	}
}

func (p *Pipeline) handle(ctx context.Context, ev Event) error {
	switch ev := ev.(type) {
	case ResolvedEvent:
		if !p.settings.Settings().AutoRefresh {
			return nil
		}
		return p.Refresh(ctx, false)
	case RefreshEvent:
		return p.Refresh(ctx, ev.Force)
	case DeleteEvent:
		p.DeleteDocument(ev.Path)
		return nil
	case SearchEvent:
		return p.SetSearch(ctx, ev.Term)
	default:
		return fmt.Errorf("unknown event %T", ev)
	}
}
