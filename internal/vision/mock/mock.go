// Package mock provides a scriptable vision.Provider for tests and local
// development: callers queue the per-frame results the backend should
// report.
package mock

import (
	"context"
	"sync"

	"github.com/ocula-id/ocula/internal/vision"
)

// Provider implements vision.Provider with scripted results. Queued face
// frames are consumed one per DetectFaces call; once the queue drains, the
// last queued frame repeats. With nothing queued, a single centered face is
// reported, which is enough for smoke tests that only need "a face".
type Provider struct {
	mu     sync.Mutex
	frames [][]vision.Face
	last   []vision.Face
	seeded bool

	document  *vision.DocumentObservation
	documents []*vision.DocumentObservation
	text      []vision.TextLine
	err       error
}

var _ vision.Provider = (*Provider)(nil)

// New creates a mock provider.
func New() *Provider {
	return &Provider{}
}

// QueueFaces appends per-frame face results to the script.
func (p *Provider) QueueFaces(frames ...[]vision.Face) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frames = append(p.frames, frames...)
	p.seeded = true
}

// SetDocument sets the quadrilateral DetectDocument reports; nil means no
// document found.
func (p *Provider) SetDocument(doc *vision.DocumentObservation) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.document = doc
}

// QueueDocuments appends per-frame document results to the script; queued
// entries take precedence over SetDocument and are consumed one per call.
func (p *Provider) QueueDocuments(docs ...*vision.DocumentObservation) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.documents = append(p.documents, docs...)
}

// SetText sets the lines RecognizeText reports.
func (p *Provider) SetText(lines []vision.TextLine) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.text = lines
}

// SetError makes every call fail with err until cleared with nil.
func (p *Provider) SetError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// DetectFaces pops the next scripted frame.
func (p *Provider) DetectFaces(ctx context.Context, image []byte) ([]vision.Face, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return nil, p.err
	}
	if len(p.frames) > 0 {
		p.last = p.frames[0]
		p.frames = p.frames[1:]
		return p.last, nil
	}
	if p.seeded {
		return p.last, nil
	}
	return []vision.Face{defaultFace()}, nil
}

// DetectDocument reports the scripted quadrilateral.
func (p *Provider) DetectDocument(ctx context.Context, image []byte) (*vision.DocumentObservation, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return nil, p.err
	}
	if len(p.documents) > 0 {
		doc := p.documents[0]
		p.documents = p.documents[1:]
		return doc, nil
	}
	return p.document, nil
}

// RecognizeText reports the scripted lines.
func (p *Provider) RecognizeText(ctx context.Context, image []byte) ([]vision.TextLine, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return nil, p.err
	}
	return p.text, nil
}

func defaultFace() vision.Face {
	return vision.Face{
		BoundingBox: vision.BoundingBox{
			X:      0.3,
			Y:      0.3,
			Width:  0.4,
			Height: 0.4,
		},
		Confidence: 0.99,
	}
}
