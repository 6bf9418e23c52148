package biz

import (
	"context"
	"fmt"
	"strings"

	"github.com/kart-io/logger"

	"github.com/pawsense/triage/internal/model"
	"github.com/pawsense/triage/internal/triage/metrics"
)

// TriageService is the pipeline's public surface.
type TriageService interface {
	// Assess runs the full triage pipeline for one request.
	Assess(ctx context.Context, req *model.TriageRequest) (*model.TriageResponse, error)

	// Extract runs only the symptom extraction stage.
	Extract(ctx context.Context, req *model.TriageRequest) (*model.ExtractionResult, error)

	// Stats reports pipeline metrics and cache state.
	Stats(ctx context.Context) map[string]interface{}
}

type triageService struct {
	extractor *Extractor
	matcher   *Matcher
	safety    *SafetyInterceptor
	verifier  *Verifier
	reranker  *Reranker
	assembler *ReportAssembler
	cache     *VerdictCache
}

// NewTriageService wires the pipeline stages into a service.
func NewTriageService(extractor *Extractor, matcher *Matcher, verifier *Verifier, reranker *Reranker, cache *VerdictCache) TriageService {
	if cache == nil {
		cache = NewVerdictCache(nil, nil)
	}
	return &triageService{
		extractor: extractor,
		matcher:   matcher,
		safety:    NewSafetyInterceptor(),
		verifier:  verifier,
		reranker:  reranker,
		assembler: NewReportAssembler(),
		cache:     cache,
	}
}

// Assess executes the stages in order: extraction, matching and red-flag
// scan, verification, resolution, report assembly. Degraded stages fall back
// per their contracts; the only hard failure is a request with nothing to
// assess.
func (s *triageService) Assess(ctx context.Context, req *model.TriageRequest) (*model.TriageResponse, error) {
	if err := validateRequest(req); err != nil {
		metrics.Get().RecordAssessment(err)
		return nil, err
	}

	extraction := s.extractor.Extract(ctx, req.UserNotes, req.SymptomsList, req.Species)
	metrics.Get().RecordExtraction(extraction.Degraded)

	if len(extraction.CombinedSymptoms) == 0 {
		err := fmt.Errorf("no symptoms could be identified from the request")
		metrics.Get().RecordAssessment(err)
		return nil, err
	}

	candidates, rawMatched := s.matcher.Match(req.Species, extraction.CombinedSymptoms)
	safety := s.safety.Check(extraction.CombinedSymptoms)

	verdict := s.verifier.Verify(ctx, extraction.CombinedSymptoms, candidates, req.Species, req.UserNotes, req.Trend)
	metrics.Get().RecordVerification(verdict.Degraded)

	assessment := s.reranker.Resolve(candidates, verdict, safety)
	report := s.assembler.Assemble(req, extraction, assessment, verdict)

	metrics.Get().RecordAssessment(nil)
	logger.Infow("triage assessment completed",
		"species", req.Species,
		"symptoms", len(extraction.CombinedSymptoms),
		"candidates", len(candidates),
		"raw_matched", rawMatched,
		"overall_urgency", assessment.OverallUrgency,
		"safety_override", assessment.SafetyOverride,
		"verdict_degraded", verdict.Degraded,
		"case_id", report.CaseID,
	)

	return &model.TriageResponse{
		Assessment: assessment,
		Report:     report,
		Extraction: extraction,
	}, nil
}

// Extract exposes the extraction stage on its own.
func (s *triageService) Extract(ctx context.Context, req *model.TriageRequest) (*model.ExtractionResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	extraction := s.extractor.Extract(ctx, req.UserNotes, req.SymptomsList, req.Species)
	metrics.Get().RecordExtraction(extraction.Degraded)
	return extraction, nil
}

// Stats merges pipeline metrics with verdict-cache state.
func (s *triageService) Stats(ctx context.Context) map[string]interface{} {
	stats := metrics.Get().Stats()
	stats["verdict_cache"] = s.cache.Stats(ctx)
	return stats
}

func validateRequest(req *model.TriageRequest) error {
	if req == nil {
		return fmt.Errorf("request is nil")
	}
	if strings.TrimSpace(req.Species) == "" {
		return fmt.Errorf("species is required")
	}
	if len(req.SymptomsList) == 0 && strings.TrimSpace(req.UserNotes) == "" {
		return fmt.Errorf("at least one symptom or owner notes are required")
	}
	return nil
}
