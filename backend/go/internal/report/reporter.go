package report

import (
	"RCA_Insights/backend/go/internal/insight"
	"RCA_Insights/backend/go/pkg/logger"
	"context"
	"fmt"
)

// Uploader stores a written artifact somewhere outside the output directory.
type Uploader interface {
	UploadFile(ctx context.Context, traceID, localPath string) (string, error)
}

// Publisher sends one document's insights downstream.
type Publisher interface {
	PublishInsights(ctx context.Context, traceID, documentID string, set *insight.Set) error
}

// ReporterConfig lists the sinks of a Reporter. Only CSV is required.
type ReporterConfig struct {
	CSV       *CSVWriter
	XLSX      *XLSXWriter
	Uploader  Uploader
	Publisher Publisher
	TraceID   string
}

// Reporter emits a Result to every configured sink.
type Reporter struct {
	cfg ReporterConfig
	log *logger.Logger
}

// NewReporter creates a Reporter. log may be nil.
func NewReporter(cfg ReporterConfig, log *logger.Logger) *Reporter {
	if log == nil {
		log = logger.Discard()
	}
	return &Reporter{cfg: cfg, log: log}
}

// Report writes the CSV tables and then feeds the optional sinks. Only a CSV
// failure is returned; failures of the other sinks are logged.
func (r *Reporter) Report(ctx context.Context, res *Result) ([]string, error) {
	if r.cfg.CSV == nil {
		return nil, fmt.Errorf("no CSV writer configured")
	}
	artifacts, err := r.cfg.CSV.Write(&res.Tables)
	if err != nil {
		return artifacts, err
	}

	if r.cfg.XLSX != nil {
		path, err := r.cfg.XLSX.Write(&res.Tables)
		if err != nil {
			r.log.WithError(err).Warn("workbook not written")
		} else {
			artifacts = append(artifacts, path)
		}
	}

	if r.cfg.Uploader != nil {
		for _, path := range artifacts {
			if _, err := r.cfg.Uploader.UploadFile(ctx, r.cfg.TraceID, path); err != nil {
				r.log.WithField("artifact", path).WithError(err).Warn("artifact upload failed")
			}
		}
	}

	if r.cfg.Publisher != nil {
		for _, doc := range res.Documents {
			if err := r.cfg.Publisher.PublishInsights(ctx, r.cfg.TraceID, doc.DocumentID, doc.Insights); err != nil {
				r.log.WithField("document_id", doc.DocumentID).WithError(err).Warn("insight publication failed")
			}
		}
	}

	r.log.WithField("artifacts", artifacts).Info("report written")
	return artifacts, nil
}
