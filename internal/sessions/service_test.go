package sessions

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"skincare-backend/internal/profile"
	"skincare-backend/internal/recommendation"
	"skincare-backend/internal/wizard"
)

func TestCreateUsesDefaultFlow(t *testing.T) {
	env := newTestEnv(t)
	sess, err := env.svc.Create(context.Background(), "user-1", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sess.Flow != "guided" {
		t.Fatalf("expected guided flow, got %q", sess.Flow)
	}
	if sess.State.CurrentStep != 1 || sess.State.TotalSteps != 6 {
		t.Fatalf("unexpected state %+v", sess.State)
	}
}

func TestCreateRejectsUnknownFlow(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.Create(context.Background(), "user-1", "express")
	if !errors.Is(err, wizard.ErrUnknownFlow) {
		t.Fatalf("expected ErrUnknownFlow, got %v", err)
	}
}

func TestGetHidesOtherOwnersSessions(t *testing.T) {
	env := newTestEnv(t)
	sess, err := env.svc.Create(context.Background(), "user-1", "quick")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := env.svc.Get(context.Background(), "user-2", sess.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestQuickFlowReachesResults(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sess, _ := env.svc.Create(ctx, "user-1", "quick")

	if _, err := env.svc.Answer(ctx, "user-1", sess.ID, map[string]any{
		"name":     "Asha",
		"concerns": []any{"Acne", "dryness"},
		"budget":   "Premium ($50+)",
	}); err != nil {
		t.Fatalf("Answer: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := env.svc.Advance(ctx, "user-1", sess.ID); err != nil {
			t.Fatalf("Advance %d: %v", i, err)
		}
	}

	got, err := env.svc.Get(ctx, "user-1", sess.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.AtResults() {
		t.Fatalf("expected results step, got %+v", got.State)
	}
	if got.Result == nil || got.Result.Source != recommendation.SourceRemote {
		t.Fatalf("expected cached remote result, got %+v", got.Result)
	}
	if env.fetcher.Calls() != 1 {
		t.Fatalf("expected one fetch, got %d", env.fetcher.Calls())
	}
	req := env.fetcher.requests[0]
	if req.Budget != recommendation.BudgetPremium {
		t.Fatalf("expected premium budget, got %q", req.Budget)
	}
	if len(req.Concerns) != 2 || req.Concerns[0] != "acne" {
		t.Fatalf("unexpected concerns %v", req.Concerns)
	}

	// Viewing results again serves the cache.
	if _, err := env.svc.Results(ctx, "user-1", sess.ID); err != nil {
		t.Fatalf("Results: %v", err)
	}
	if env.fetcher.Calls() != 1 {
		t.Fatalf("expected cached result, fetch count %d", env.fetcher.Calls())
	}
}

func TestAnswerIsAllOrNothing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sess, _ := env.svc.Create(ctx, "user-1", "quick")

	_, err := env.svc.Answer(ctx, "user-1", sess.ID, map[string]any{
		"name":      "Asha",
		"skin_tone": "warm",
	})
	ve, ok := profile.AsValidation(err)
	if !ok || ve.Field != "skin_tone" {
		t.Fatalf("expected validation error for skin_tone, got %v", err)
	}
	got, _ := env.svc.Get(ctx, "user-1", sess.ID)
	if got.Profile.Has(profile.FieldName) {
		t.Fatalf("name should not be recorded when another field is rejected")
	}
}

func TestAnswerRejectsNullValues(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sess, _ := env.svc.Create(ctx, "user-1", "quick")
	if _, err := env.svc.Answer(ctx, "user-1", sess.ID, map[string]any{"name": "Asha"}); err != nil {
		t.Fatalf("Answer: %v", err)
	}

	_, err := env.svc.Answer(ctx, "user-1", sess.ID, map[string]any{"name": nil})
	ve, ok := profile.AsValidation(err)
	if !ok || ve.Field != "name" {
		t.Fatalf("expected validation error for name, got %v", err)
	}
	got, _ := env.svc.Get(ctx, "user-1", sess.ID)
	if got.Profile.Get(profile.FieldName, "DEFAULT") != "Asha" {
		t.Fatalf("name was overwritten: %v", got.Profile.Get(profile.FieldName, "DEFAULT"))
	}
}

func TestAnswerParsesNumbersFromText(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sess, _ := env.svc.Create(ctx, "user-1", "quick")

	got, err := env.svc.Answer(ctx, "user-1", sess.ID, map[string]any{"humidity": " 72 "})
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	n, ok, err := got.Profile.Snapshot().Number(profile.FieldHumidity)
	if err != nil || !ok || n != 72 {
		t.Fatalf("expected humidity 72, got %v %v %v", n, ok, err)
	}
}

func TestAdvanceValidationLeavesSessionUntouched(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sess, _ := env.svc.Create(ctx, "user-1", "guided")

	_, err := env.svc.Advance(ctx, "user-1", sess.ID)
	if ve, ok := profile.AsValidation(err); !ok || ve.Field != "name" {
		t.Fatalf("expected name required, got %v", err)
	}
	got, _ := env.svc.Get(ctx, "user-1", sess.ID)
	if got.State.CurrentStep != 1 {
		t.Fatalf("expected step 1, got %d", got.State.CurrentStep)
	}
}

func TestResultsBeforeTerminalStep(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sess, _ := env.svc.Create(ctx, "user-1", "quick")
	if _, err := env.svc.Results(ctx, "user-1", sess.ID); !errors.Is(err, wizard.ErrNotAtResults) {
		t.Fatalf("expected ErrNotAtResults, got %v", err)
	}
}

func TestRegenerateReplacesFallback(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sess, _ := env.svc.Create(ctx, "user-1", "quick")
	env.svc.Answer(ctx, "user-1", sess.ID, map[string]any{"name": "Asha"})

	env.fetcher.fail = true
	got, err := env.svc.JumpToResults(ctx, "user-1", sess.ID)
	if err != nil {
		t.Fatalf("JumpToResults: %v", err)
	}
	if got.Notice == nil || !got.Result.IsFallback() {
		t.Fatalf("expected fallback with notice, got %+v / %+v", got.Result, got.Notice)
	}

	env.fetcher.fail = false
	got, err = env.svc.Regenerate(ctx, "user-1", sess.ID)
	if err != nil {
		t.Fatalf("Regenerate: %v", err)
	}
	if got.Notice != nil || got.Result.Source != recommendation.SourceRemote {
		t.Fatalf("expected remote result after regenerate, got %+v / %+v", got.Result, got.Notice)
	}
}

func TestFetchIsDetachedFromCallerCancellation(t *testing.T) {
	env := newTestEnv(t)
	sess, _ := env.svc.Create(context.Background(), "user-1", "quick")
	env.svc.Answer(context.Background(), "user-1", sess.ID, map[string]any{"name": "Asha"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if _, err := env.svc.JumpToResults(ctx, "user-1", sess.ID); err != nil {
		t.Fatalf("JumpToResults: %v", err)
	}
	if !env.fetcher.detached {
		t.Fatalf("expected fetch context without cancellation")
	}
}

func TestResetClearsProfileAndImage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sess, _ := env.svc.Create(ctx, "user-1", "quick")
	env.svc.Answer(ctx, "user-1", sess.ID, map[string]any{"name": "Asha"})
	if _, got, err := env.svc.AnalyzeImage(ctx, "user-1", sess.ID, "me.png", bytes.NewReader(pngHeader)); err != nil || got.ImageKey == "" {
		t.Fatalf("AnalyzeImage: %v", err)
	}
	env.svc.JumpToResults(ctx, "user-1", sess.ID)

	got, err := env.svc.Reset(ctx, "user-1", sess.ID)
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if got.State.CurrentStep != 1 || got.Result != nil || got.Notice != nil || got.ImageKey != "" {
		t.Fatalf("reset left state behind: %+v", got)
	}
	if got.Profile.Has(profile.FieldName) || got.Profile.Analysis() != nil {
		t.Fatalf("reset left profile behind")
	}
	if _, _, err := env.svc.OpenImage(ctx, "user-1", sess.ID); !errors.Is(err, ErrNoImage) {
		t.Fatalf("expected ErrNoImage, got %v", err)
	}
}

func TestAnalyzeImagePrefillsWithoutOverridingAnswers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sess, _ := env.svc.Create(ctx, "user-1", "quick")
	env.svc.Answer(ctx, "user-1", sess.ID, map[string]any{"skin_type": "dry"})

	outcome, got, err := env.svc.AnalyzeImage(ctx, "user-1", sess.ID, "me.png", bytes.NewReader(pngHeader))
	if err != nil {
		t.Fatalf("AnalyzeImage: %v", err)
	}
	if outcome.Notice != "" || outcome.Analysis == nil {
		t.Fatalf("expected analysis, got %+v", outcome)
	}
	if len(outcome.Prefilled) != 1 || outcome.Prefilled[0] != profile.FieldConcerns {
		t.Fatalf("expected only concerns prefilled, got %v", outcome.Prefilled)
	}
	snap := got.Profile.Snapshot()
	if snap.String(profile.FieldSkinType) != "dry" {
		t.Fatalf("explicit skin type overwritten: %q", snap.String(profile.FieldSkinType))
	}

	data, mimeType, err := env.svc.OpenImage(ctx, "user-1", sess.ID)
	if err != nil {
		t.Fatalf("OpenImage: %v", err)
	}
	if mimeType != "image/png" || !bytes.Equal(data, pngHeader) {
		t.Fatalf("unexpected stored image %q (%d bytes)", mimeType, len(data))
	}
}

func TestAnalyzeImageFailureIsAdvisory(t *testing.T) {
	env := newTestEnv(t)
	env.analyzer.err = errAnalyzerDown
	ctx := context.Background()
	sess, _ := env.svc.Create(ctx, "user-1", "quick")

	outcome, got, err := env.svc.AnalyzeImage(ctx, "user-1", sess.ID, "me.png", bytes.NewReader(pngHeader))
	if err != nil {
		t.Fatalf("AnalyzeImage: %v", err)
	}
	if outcome.Notice != ImageNoticeMessage || outcome.Analysis != nil {
		t.Fatalf("expected notice only, got %+v", outcome)
	}
	if got.Profile.Analysis() != nil || got.Profile.Has(profile.FieldConcerns) {
		t.Fatalf("failed analysis must not touch the profile")
	}
}

func TestAnalyzeImageRejectsNonImages(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sess, _ := env.svc.Create(ctx, "user-1", "quick")

	_, _, err := env.svc.AnalyzeImage(ctx, "user-1", sess.ID, "notes.txt", bytes.NewReader([]byte("hello world")))
	if ve, ok := profile.AsValidation(err); !ok || ve.Field != "image" {
		t.Fatalf("expected image validation error, got %v", err)
	}

	big := make([]byte, MaxImageBytes+1)
	copy(big, pngHeader)
	_, _, err = env.svc.AnalyzeImage(ctx, "user-1", sess.ID, "big.png", bytes.NewReader(big))
	if ve, ok := profile.AsValidation(err); !ok || ve.Field != "image" {
		t.Fatalf("expected size validation error, got %v", err)
	}
}

func TestDestroyRemovesSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sess, _ := env.svc.Create(ctx, "user-1", "quick")

	if err := env.svc.Destroy(ctx, "user-2", sess.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected other owner to get ErrNotFound, got %v", err)
	}
	if err := env.svc.Destroy(ctx, "user-1", sess.ID); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if _, err := env.svc.Get(ctx, "user-1", sess.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after destroy, got %v", err)
	}
}

func TestConcurrentRegenerateIsSerialized(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sess, _ := env.svc.Create(ctx, "user-1", "quick")
	env.svc.Answer(ctx, "user-1", sess.ID, map[string]any{"name": "Asha"})
	env.svc.JumpToResults(ctx, "user-1", sess.ID)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := env.svc.Regenerate(ctx, "user-1", sess.ID); err != nil {
				t.Errorf("Regenerate: %v", err)
			}
		}()
	}
	wg.Wait()
	if env.fetcher.Calls() != 9 {
		t.Fatalf("expected 9 fetches, got %d", env.fetcher.Calls())
	}
}

func TestKeyedMutexReleasesKeys(t *testing.T) {
	var k keyedMutex
	unlock := k.Lock("a")
	unlock()
	if len(k.locks) != 0 {
		t.Fatalf("expected lock table to be empty, got %d", len(k.locks))
	}
}
