package sessions

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"skincare-backend/internal/profile"
	"skincare-backend/internal/recommendation"
	"skincare-backend/internal/shared/storage/object"
	"skincare-backend/internal/shared/storage/object/local"
	"skincare-backend/internal/wizard"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

type fakeFetcher struct {
	mu       sync.Mutex
	calls    int
	requests []recommendation.Request
	fail     bool
	detached bool
}

func (f *fakeFetcher) Fetch(ctx context.Context, req recommendation.Request, timeout time.Duration) (recommendation.Result, *recommendation.Notice) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.requests = append(f.requests, req)
	f.detached = ctx.Done() == nil
	if f.fail {
		return recommendation.SynthesizeFallback(req.SkinType, req.Concerns), &recommendation.Notice{
			Message: recommendation.NoticeMessage,
			Kind:    recommendation.KindTimeout,
		}
	}
	summary := "remote routine"
	name := "Gentle Cleanser"
	return recommendation.Result{
		Source: recommendation.SourceRemote,
		Recommendations: &recommendation.Recommendations{
			RoutineSummary:   &summary,
			SelectedProducts: []recommendation.Product{{Name: &name}},
			Routine:          &recommendation.Routine{Morning: []string{"Cleanse"}, Evening: []string{"Cleanse", "Moisturize"}},
		},
	}, nil
}

func (f *fakeFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeAnalyzer struct {
	analysis profile.ImageAnalysis
	err      error
}

func (a *fakeAnalyzer) Analyze(ctx context.Context, image []byte, mimeType string) (profile.ImageAnalysis, error) {
	if a.err != nil {
		return profile.ImageAnalysis{}, a.err
	}
	return a.analysis, nil
}

type testEnv struct {
	svc      *Service
	fetcher  *fakeFetcher
	analyzer *fakeAnalyzer
	store    object.ObjectStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	catalog, err := wizard.DefaultCatalog()
	if err != nil {
		t.Fatalf("DefaultCatalog: %v", err)
	}
	fetcher := &fakeFetcher{}
	analyzer := &fakeAnalyzer{analysis: profile.ImageAnalysis{
		SkinType:        "oily",
		VisibleConcerns: []string{"acne"},
		Confidence:      0.8,
	}}
	store := local.New(t.TempDir())
	svc := NewService(NewMemoryRepo(), catalog, fetcher, analyzer, store, time.Second)
	return &testEnv{svc: svc, fetcher: fetcher, analyzer: analyzer, store: store}
}

var errAnalyzerDown = errors.New("vision provider unavailable")
