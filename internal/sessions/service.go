package sessions

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"skincare-backend/internal/imageanalysis"
	"skincare-backend/internal/profile"
	"skincare-backend/internal/shared/metrics"
	"skincare-backend/internal/shared/storage/object"
	"skincare-backend/internal/shared/telemetry"
	"skincare-backend/internal/wizard"
)

// MaxImageBytes bounds uploaded skin photos.
const MaxImageBytes = 8 << 20

// ImageNoticeMessage is returned when a photo was received but could not be analyzed.
const ImageNoticeMessage = "We couldn't analyze your photo. Please fill in your skin details manually."

var imageTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
	"image/gif":  {},
}

// ImageOutcome reports what an uploaded photo contributed to the profile.
type ImageOutcome struct {
	Analysis  *profile.ImageAnalysis `json:"analysis,omitempty"`
	Prefilled []profile.Field        `json:"prefilled"`
	Notice    string                 `json:"notice,omitempty"`
}

// Service owns the session lifecycle. Every operation on one session runs
// under that session's lock so reset and regenerate are atomic.
type Service struct {
	Repo     Repo
	Flows    *wizard.Catalog
	Fetcher  wizard.Fetcher
	Analyzer imageanalysis.Analyzer
	Store    object.ObjectStore
	Timeout  time.Duration

	locks keyedMutex
	now   func() time.Time
	newID func() string
}

// NewService constructs a Service. A nil analyzer falls back to the
// placeholder; a nil store disables image persistence.
func NewService(repo Repo, flows *wizard.Catalog, fetcher wizard.Fetcher, analyzer imageanalysis.Analyzer, store object.ObjectStore, timeout time.Duration) *Service {
	if analyzer == nil {
		analyzer = imageanalysis.Placeholder{}
	}
	return &Service{
		Repo:     repo,
		Flows:    flows,
		Fetcher:  fetcher,
		Analyzer: analyzer,
		Store:    store,
		Timeout:  timeout,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

// Create starts a new session on the named flow (blank means the default flow).
func (s *Service) Create(ctx context.Context, ownerID, flowName string) (*wizard.Session, error) {
	if ownerID == "" {
		return nil, ErrInvalidOwner
	}
	flow, err := s.Flows.Get(flowName)
	if err != nil {
		return nil, err
	}
	sess := wizard.NewSession(s.newID(), ownerID, flow, s.now())
	if err := s.Repo.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	metrics.IncSessionCreated()
	telemetry.Info("session.created", map[string]any{
		"session_id": sess.ID,
		"flow":       flow.Name,
		"steps":      flow.TotalSteps(),
	})
	return sess, nil
}

// Get loads a session owned by ownerID. Sessions of other owners are
// reported as missing.
func (s *Service) Get(ctx context.Context, ownerID, id string) (*wizard.Session, error) {
	sess, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	return sess, nil
}

// Flow returns the flow a session runs on.
func (s *Service) Flow(sess *wizard.Session) (wizard.Flow, error) {
	return s.Flows.Get(sess.Flow)
}

// Answer records answers keyed by field name. Either every field is
// recorded or none is.
func (s *Service) Answer(ctx context.Context, ownerID, id string, answers map[string]any) (*wizard.Session, error) {
	values, err := parseAnswers(answers)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, ownerID, id, func(ctx context.Context, c *wizard.Controller) error {
		c.Answer(values)
		return nil
	})
}

func (s *Service) Advance(ctx context.Context, ownerID, id string) (*wizard.Session, error) {
	return s.mutate(ctx, ownerID, id, func(ctx context.Context, c *wizard.Controller) error {
		return c.Advance(ctx)
	})
}

func (s *Service) Retreat(ctx context.Context, ownerID, id string) (*wizard.Session, error) {
	return s.mutate(ctx, ownerID, id, func(ctx context.Context, c *wizard.Controller) error {
		c.Retreat()
		return nil
	})
}

func (s *Service) JumpToResults(ctx context.Context, ownerID, id string) (*wizard.Session, error) {
	return s.mutate(ctx, ownerID, id, func(ctx context.Context, c *wizard.Controller) error {
		return c.JumpToResults(ctx)
	})
}

// Reset clears the session back to its first step and removes any
// uploaded photo.
func (s *Service) Reset(ctx context.Context, ownerID, id string) (*wizard.Session, error) {
	var imageKey string
	sess, err := s.mutate(ctx, ownerID, id, func(ctx context.Context, c *wizard.Controller) error {
		imageKey = c.Session().ImageKey
		c.Reset()
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.IncSessionReset()
	s.deleteImage(ctx, id, imageKey)
	return sess, nil
}

// Regenerate fetches a fresh recommendation set for a session at its
// results step.
func (s *Service) Regenerate(ctx context.Context, ownerID, id string) (*wizard.Session, error) {
	return s.mutate(ctx, ownerID, id, func(ctx context.Context, c *wizard.Controller) error {
		return c.Regenerate(ctx)
	})
}

// Results returns the session's recommendations, fetching them the first
// time they are requested.
func (s *Service) Results(ctx context.Context, ownerID, id string) (*wizard.Session, error) {
	return s.mutate(ctx, ownerID, id, func(ctx context.Context, c *wizard.Controller) error {
		_, _, err := c.Results(ctx)
		return err
	})
}

// Destroy removes a session and its uploaded photo.
func (s *Service) Destroy(ctx context.Context, ownerID, id string) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	sess, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}
	s.deleteImage(ctx, id, sess.ImageKey)
	telemetry.Info("session.destroyed", map[string]any{"session_id": id})
	return nil
}

// AnalyzeImage stores a skin photo, analyzes it and merges the analysis
// into the profile. An analyzer failure is not an error: the outcome
// carries a notice and the profile is left as it was.
func (s *Service) AnalyzeImage(ctx context.Context, ownerID, id, fileName string, r io.Reader) (ImageOutcome, *wizard.Session, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImageBytes+1))
	if err != nil {
		return ImageOutcome{}, nil, fmt.Errorf("read image: %w", err)
	}
	if len(data) == 0 {
		return ImageOutcome{}, nil, &profile.ValidationError{Field: "image", Issue: "is required"}
	}
	if len(data) > MaxImageBytes {
		return ImageOutcome{}, nil, &profile.ValidationError{Field: "image", Issue: "must be at most 8MB"}
	}
	mimeType := http.DetectContentType(data)
	if _, ok := imageTypes[mimeType]; !ok {
		return ImageOutcome{}, nil, &profile.ValidationError{Field: "image", Issue: "must be a JPEG, PNG, WebP or GIF image"}
	}

	var (
		outcome ImageOutcome
		oldKey  string
	)
	sess, err := s.mutate(ctx, ownerID, id, func(ctx context.Context, c *wizard.Controller) error {
		cur := c.Session()
		if key := s.saveImage(ctx, cur, fileName, data); key != "" {
			oldKey = cur.ImageKey
			cur.ImageKey = key
		}

		analysis, err := s.Analyzer.Analyze(ctx, data, mimeType)
		if err != nil {
			metrics.IncImageAnalysisFailed()
			telemetry.Warn("image.analysis_failed", map[string]any{
				"session_id": cur.ID,
				"error":      err.Error(),
			})
			outcome.Prefilled = []profile.Field{}
			outcome.Notice = ImageNoticeMessage
			return nil
		}
		metrics.IncImageAnalysis()
		outcome.Analysis = &analysis
		outcome.Prefilled = c.MergeAnalysis(analysis)
		if outcome.Prefilled == nil {
			outcome.Prefilled = []profile.Field{}
		}
		return nil
	})
	if err != nil {
		return ImageOutcome{}, nil, err
	}
	s.deleteImage(ctx, id, oldKey)
	return outcome, sess, nil
}

// OpenImage returns the session's stored photo.
func (s *Service) OpenImage(ctx context.Context, ownerID, id string) ([]byte, string, error) {
	sess, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, "", err
	}
	if sess.ImageKey == "" || s.Store == nil {
		return nil, "", ErrNoImage
	}
	rc, err := s.Store.Open(ctx, sess.ImageKey)
	if err != nil {
		return nil, "", fmt.Errorf("open image: %w", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, MaxImageBytes))
	if err != nil {
		return nil, "", fmt.Errorf("read image: %w", err)
	}
	return data, http.DetectContentType(data), nil
}

// mutate loads a session under its lock, applies fn through a controller
// and saves the session when fn succeeds. Fetches run detached from the
// caller's cancellation so a dropped request never abandons a fetch
// half-way through.
func (s *Service) mutate(ctx context.Context, ownerID, id string, fn func(context.Context, *wizard.Controller) error) (*wizard.Session, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	sess, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	flow, err := s.Flow(sess)
	if err != nil {
		return nil, err
	}
	ctrl, err := wizard.NewController(flow, sess, s.Fetcher, s.Timeout)
	if err != nil {
		return nil, err
	}
	before := sess.State.CurrentStep
	if err := fn(context.WithoutCancel(ctx), ctrl); err != nil {
		return nil, err
	}
	if err := s.Repo.Update(context.WithoutCancel(ctx), sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	if before != sess.State.CurrentStep {
		telemetry.Info("session.step", map[string]any{
			"session_id": sess.ID,
			"from":       before,
			"to":         sess.State.CurrentStep,
		})
	}
	return sess, nil
}

func (s *Service) saveImage(ctx context.Context, sess *wizard.Session, fileName string, data []byte) string {
	if s.Store == nil {
		return ""
	}
	ns, err := object.SessionNamespace(sess.OwnerID, sess.ID)
	if err == nil {
		if strings.TrimSpace(fileName) == "" {
			fileName = "photo"
		}
		var obj object.Object
		obj, err = s.Store.Save(ctx, ns, fileName, bytes.NewReader(data))
		if err == nil {
			return obj.Key
		}
	}
	telemetry.Error("image.store_failed", map[string]any{
		"session_id": sess.ID,
		"error":      err.Error(),
	})
	return ""
}

func (s *Service) deleteImage(ctx context.Context, sessionID, key string) {
	if key == "" || s.Store == nil {
		return
	}
	if err := s.Store.Delete(context.WithoutCancel(ctx), key); err != nil {
		telemetry.Error("image.delete_failed", map[string]any{
			"session_id": sessionID,
			"error":      err.Error(),
		})
	}
}

func parseAnswers(answers map[string]any) (map[profile.Field]any, error) {
	if len(answers) == 0 {
		return nil, &profile.ValidationError{Field: "answers", Issue: "must not be empty"}
	}
	out := make(map[profile.Field]any, len(answers))
	for raw, value := range answers {
		field, err := profile.ParseField(raw)
		if err != nil {
			return nil, err
		}
		v, err := answerValue(field, value)
		if err != nil {
			return nil, err
		}
		out[field] = v
	}
	return out, nil
}

func answerValue(field profile.Field, value any) (any, error) {
	switch t := value.(type) {
	case nil:
		return nil, &profile.ValidationError{Field: string(field), Issue: "must not be null"}
	case string:
		return profile.ParseInput(field, t), nil
	case float64:
		return t, nil
	case []any:
		items := make([]string, 0, len(t))
		for _, item := range t {
			switch v := item.(type) {
			case string:
				items = append(items, v)
			case float64:
				items = append(items, strconv.FormatFloat(v, 'f', -1, 64))
			default:
				return nil, &profile.ValidationError{Field: string(field), Issue: "must be a list of text values"}
			}
		}
		return items, nil
	default:
		return nil, &profile.ValidationError{Field: string(field), Issue: "must be text, a number or a list"}
	}
}
