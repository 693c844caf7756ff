// Package report runs extraction over a corpus and writes the resulting tables.
package report

import (
	"RCA_Insights/backend/go/internal/insight"
	"RCA_Insights/backend/go/internal/loader"
	"RCA_Insights/backend/go/pkg/logger"
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Reasons attached to per-document failures.
const (
	ReasonGenerationFailed = "generation_failed"
	ReasonMalformedReply   = "malformed_reply"
)

// Extractor maps one document's text to its insights. *insight.Extractor implements it.
type Extractor interface {
	Extract(ctx context.Context, text string) (*insight.Set, error)
}

// DocumentFailure records a document that contributed no rows.
type DocumentFailure struct {
	DocumentID string
	Reason     string
	Err        error
}

func (f DocumentFailure) Error() string {
	return fmt.Sprintf("%s: %s: %v", f.DocumentID, f.Reason, f.Err)
}

func (f DocumentFailure) Unwrap() error {
	return f.Err
}

// DocumentResult is the normalized output of one successful document.
type DocumentResult struct {
	DocumentID string
	Insights   *insight.Set
}

// Result is the outcome of one batch run.
type Result struct {
	Tables    Tables
	Documents []DocumentResult // successful documents in corpus order
	Failures  []DocumentFailure
	Total     int
}

// Partial reports whether at least one document failed.
func (r *Result) Partial() bool {
	return len(r.Failures) > 0
}

// AggregatorOption configures an Aggregator.
type AggregatorOption func(*Aggregator)

// WithWorkers sets how many documents are extracted at once. Values below 1 mean 1.
func WithWorkers(n int) AggregatorOption {
	return func(a *Aggregator) {
		if n > 0 {
			a.workers = n
		}
	}
}

// WithLogger sets the logger for per-document diagnostics.
func WithLogger(l *logger.Logger) AggregatorOption {
	return func(a *Aggregator) {
		if l != nil {
			a.log = l
		}
	}
}

// Aggregator runs an Extractor over every document of a corpus.
type Aggregator struct {
	extractor Extractor
	workers   int
	log       *logger.Logger
}

// NewAggregator creates an Aggregator. By default documents are processed one at a time.
func NewAggregator(extractor Extractor, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{extractor: extractor, workers: 1, log: logger.Discard()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type outcome struct {
	set     *insight.Set
	failure *DocumentFailure
}

// Run extracts every document. A failing document is recorded in Result.Failures
// and contributes no rows; only cancellation of ctx aborts the batch. Rows are
// merged in corpus order whatever the number of workers.
func (a *Aggregator) Run(ctx context.Context, corpus *loader.Corpus) (*Result, error) {
	docs := corpus.Documents()
	outcomes := make([]outcome, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, doc := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			set, err := a.extractor.Extract(gctx, doc.Text)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				f := &DocumentFailure{DocumentID: doc.ID, Reason: failureReason(err), Err: err}
				a.log.WithFields(map[string]interface{}{
					"document_id": doc.ID,
					"reason":      f.Reason,
				}).WithError(err).Warn("document skipped")
				outcomes[i] = outcome{failure: f}
				return nil
			}
			a.log.WithFields(map[string]interface{}{
				"document_id":  doc.ID,
				"root_reasons": len(set.RootReasons),
				"actionables":  len(set.Actionables),
			}).Info("document processed")
			outcomes[i] = outcome{set: set}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("aggregation aborted: %w", err)
	}

	res := &Result{Total: len(docs)}
	for i, o := range outcomes {
		if o.failure != nil {
			res.Failures = append(res.Failures, *o.failure)
			continue
		}
		res.Tables.Append(docs[i].ID, o.set)
		res.Documents = append(res.Documents, DocumentResult{DocumentID: docs[i].ID, Insights: o.set})
	}

	a.log.WithFields(map[string]interface{}{
		"documents":    res.Total,
		"failed":       len(res.Failures),
		"root_reasons": len(res.Tables.RootReasons),
		"actionables":  len(res.Tables.Actionables),
	}).Info("aggregation finished")
	return res, nil
}

func failureReason(err error) string {
	if errors.Is(err, insight.ErrMalformedReply) {
		return ReasonMalformedReply
	}
	return ReasonGenerationFailed
}
