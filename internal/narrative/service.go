// Package narrative caches LLM-generated period texts. The database's
// unique key on (household, period type, period start) arbitrates between
// concurrent writers across processes; singleflight collapses concurrent
// generations within one process so a burst of identical requests costs a
// single model call.
package narrative

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/smilior/kakeibo/internal/core"
	"github.com/smilior/kakeibo/internal/llm"
	"github.com/smilior/kakeibo/internal/log"
	"github.com/smilior/kakeibo/internal/storage"
)

// State distinguishes a usable text from the two terminal non-answers.
type State string

const (
	// StateReady means Text holds a generated or cached narrative.
	StateReady State = "ready"
	// StateNoData means the period had no expenses; nothing was generated
	// and nothing was cached.
	StateNoData State = "no_data"
	// StateFailed means the model call failed; the error travels alongside.
	StateFailed State = "failed"
)

// Store is the slice of the repository the service needs.
type Store interface {
	GetNarrative(ctx context.Context, householdID uuid.UUID, periodType string, periodStart time.Time) (core.Narrative, error)
	InsertNarrative(ctx context.Context, n core.Narrative) error
	ReplaceNarrative(ctx context.Context, n core.Narrative) error
}

// Request describes one narrative to produce. The caller has already built
// the prompt and knows whether the period holds any data; the service only
// handles caching, deduplication and the model call.
type Request struct {
	HouseholdID uuid.UUID
	PeriodType  string
	PeriodStart time.Time
	PeriodEnd   time.Time
	Model       string
	Prompt      string
	HasData     bool
	Force       bool
}

type Result struct {
	State  State
	Text   string
	Cached bool
}

type Service struct {
	store    Store
	provider llm.Provider
	logger   *log.Logger
	timeout  time.Duration
	group    singleflight.Group
}

func NewService(store Store, provider llm.Provider, logger *log.Logger, timeout time.Duration) *Service {
	return &Service{
		store:    store,
		provider: provider,
		logger:   logger.WithComponent(log.ComponentNarrative),
		timeout:  timeout,
	}
}

// Generate returns the narrative for the request's period, producing and
// caching it on a miss. Force bypasses the cache read and atomically
// replaces whatever was stored.
func (s *Service) Generate(ctx context.Context, req Request) (Result, error) {
	if !req.Force {
		cached, err := s.store.GetNarrative(ctx, req.HouseholdID, req.PeriodType, req.PeriodStart)
		if err == nil {
			return Result{State: StateReady, Text: cached.Text, Cached: true}, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return Result{State: StateFailed}, fmt.Errorf("read narrative cache: %w", err)
		}
	}

	if !req.HasData {
		return Result{State: StateNoData}, nil
	}

	key := fmt.Sprintf("%s|%s|%s", req.HouseholdID, req.PeriodType, req.PeriodStart.Format("2006-01-02"))
	v, err, shared := s.group.Do(key, func() (any, error) {
		return s.generate(ctx, req)
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "narrative generation failed",
			log.FieldOperation, log.OpGenerate,
			log.FieldHouseholdID, req.HouseholdID.String(),
			log.FieldPeriodType, req.PeriodType,
			log.FieldError, err.Error())
		return Result{State: StateFailed}, err
	}
	res := v.(Result)
	if shared {
		res.Cached = true
	}
	return res, nil
}

func (s *Service) generate(ctx context.Context, req Request) (Result, error) {
	if s.provider == nil {
		return Result{}, errors.New("no text generation provider configured")
	}

	genCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	text, err := s.provider.Generate(genCtx, req.Model, req.Prompt)
	if err != nil {
		return Result{}, fmt.Errorf("generate narrative: %w", err)
	}

	n := core.Narrative{
		ID:          uuid.New(),
		HouseholdID: req.HouseholdID,
		PeriodType:  req.PeriodType,
		PeriodStart: req.PeriodStart,
		PeriodEnd:   req.PeriodEnd,
		Text:        text,
		Prompt:      req.Prompt,
		CreatedAt:   time.Now().UTC(),
	}

	if req.Force {
		if err := s.store.ReplaceNarrative(ctx, n); err != nil {
			return Result{}, fmt.Errorf("replace narrative: %w", err)
		}
		return Result{State: StateReady, Text: text}, nil
	}

	err = s.store.InsertNarrative(ctx, n)
	if errors.Is(err, storage.ErrDuplicateNarrative) {
		// lost the cross-process race: serve the winner's row
		winner, readErr := s.store.GetNarrative(ctx, req.HouseholdID, req.PeriodType, req.PeriodStart)
		if readErr != nil {
			return Result{}, fmt.Errorf("read winning narrative: %w", readErr)
		}
		return Result{State: StateReady, Text: winner.Text, Cached: true}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("store narrative: %w", err)
	}

	s.logger.InfoContext(ctx, "narrative generated",
		log.FieldOperation, log.OpGenerate,
		log.FieldHouseholdID, req.HouseholdID.String(),
		log.FieldPeriodType, req.PeriodType,
		log.FieldPeriodStart, req.PeriodStart.Format("2006-01-02"))
	return Result{State: StateReady, Text: text}, nil
}
