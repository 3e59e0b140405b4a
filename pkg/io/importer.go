package io

import (
	"context"
	"image"
	stdio "io"
	"runtime"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/kitbash/pkg/observability"
	"github.com/matzehuels/kitbash/pkg/scene"
)

// Loaded is a successfully decoded image waiting to become a part.
type Loaded struct {
	Name   string
	Source string
	Image  *image.NRGBA
}

// FailureFunc is called from a worker goroutine when a submitted image cannot
// be decoded. It must be safe for concurrent use.
type FailureFunc func(name string, err error)

// ImporterOption configures an [Importer].
type ImporterOption func(*Importer)

// WithWorkers limits the number of concurrent decodes. Values below 1 mean
// runtime.NumCPU().
func WithWorkers(n int) ImporterOption { return func(i *Importer) { i.workers = n } }

// WithLogger sets the logger used by the default failure handler.
func WithLogger(l *log.Logger) ImporterOption { return func(i *Importer) { i.logger = l } }

// WithFailureHandler replaces the default failure handler, which logs a
// warning.
func WithFailureHandler(fn FailureFunc) ImporterOption {
	return func(i *Importer) { i.onFailure = fn }
}

// WithQueueSize sets the capacity of the result queue. Workers block once it
// is full until the owner drains.
func WithQueueSize(n int) ImporterOption { return func(i *Importer) { i.queueSize = n } }

// Importer decodes images concurrently and queues the results for the single
// goroutine that owns the tree. Submit may be called from any goroutine; Drain
// and Flush must only be called by the owner.
//
// Each successful decode enqueues exactly one [Loaded]; a failed decode is
// reported and enqueues nothing. There is no cancellation: once submitted, a
// decode runs to completion.
type Importer struct {
	workers   int
	queueSize int
	logger    *log.Logger
	onFailure FailureFunc

	group   errgroup.Group
	pending sync.WaitGroup
	queue   chan Loaded
}

// NewImporter creates an importer.
func NewImporter(opts ...ImporterOption) *Importer {
	i := &Importer{}
	for _, opt := range opts {
		opt(i)
	}
	if i.workers < 1 {
		i.workers = runtime.NumCPU()
	}
	if i.queueSize < 1 {
		i.queueSize = 64
	}
	if i.logger == nil {
		i.logger = log.NewWithOptions(stdio.Discard, log.Options{})
	}
	if i.onFailure == nil {
		logger := i.logger
		i.onFailure = func(name string, err error) {
			logger.Warn("skipping image", "name", name, "error", err)
		}
	}
	i.group.SetLimit(i.workers)
	i.queue = make(chan Loaded, i.queueSize)
	return i
}

// Submit schedules data for decoding under the given display name and returns
// immediately. The name doubles as the part's source reference.
func (i *Importer) Submit(name string, data []byte) {
	i.SubmitSource(name, name, data)
}

// SubmitSource is like [Importer.Submit] but records source separately from
// the display name.
func (i *Importer) SubmitSource(name, source string, data []byte) {
	i.pending.Add(1)
	go i.group.Go(func() error {
		defer i.pending.Done()
		start := time.Now()
		img, err := Decode(name, data)
		observability.Decode().OnDecode(context.Background(), name, len(data), time.Since(start), err)
		if err != nil {
			i.onFailure(name, err)
			return nil
		}
		i.queue <- Loaded{Name: name, Source: source, Image: img}
		return nil
	})
}

// Drain applies every result queued so far without waiting for in-flight
// decodes. Each result becomes a new part appended to the group target (or
// the root sequence, see [scene.Tree.Insert]). Parts are inserted in the
// order their decodes finished.
func (i *Importer) Drain(t *scene.Tree, target scene.ID) []*scene.Part {
	var added []*scene.Part
	for {
		select {
		case l := <-i.queue:
			added = append(added, apply(t, target, l))
		default:
			return added
		}
	}
}

// Flush waits for every submitted decode to finish, applying results as they
// arrive, and returns the parts it inserted.
func (i *Importer) Flush(t *scene.Tree, target scene.ID) []*scene.Part {
	done := make(chan struct{})
	go func() {
		i.pending.Wait()
		close(done)
	}()

	var added []*scene.Part
	for {
		select {
		case l := <-i.queue:
			added = append(added, apply(t, target, l))
		case <-done:
			return append(added, i.Drain(t, target)...)
		}
	}
}

func apply(t *scene.Tree, target scene.ID, l Loaded) *scene.Part {
	p := t.NewPart(l.Name, l.Image)
	p.Source = l.Source
	// A freshly allocated part cannot collide with an existing ID.
	_ = t.Insert(p, target)
	return p
}
