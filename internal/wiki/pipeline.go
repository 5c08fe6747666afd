package wiki

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Observer receives stage progress. Implementations must not block.
type Observer interface {
	StageStarted(name string, index, total int)
	StageFinished(name string, index, total int, err error)
}

// Deps are the collaborators of a Flow.
type Deps struct {
	LLM      LLM
	Logger   *zap.Logger
	Observer Observer
}

// Flow runs the fixed generation chain:
// fetch -> abstractions -> relationships -> order -> chapters -> combine.
type Flow struct {
	steps    []step
	logger   *zap.Logger
	observer Observer
}

// NewFlow builds the stage chain once.
func NewFlow(deps Deps) *Flow {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Flow{
		steps: []step{
			bind[fetchInput, fetchOutput](&FetchStage{}),
			bind[abstractionsInput, []Abstraction](&AbstractionsStage{llm: deps.LLM}),
			bind[relationshipsInput, RelationshipSet](&RelationshipsStage{llm: deps.LLM}),
			bind[orderInput, []int](&OrderStage{llm: deps.LLM}),
			bind[chaptersInput, []string](&ChaptersStage{llm: deps.LLM}),
			bind[combineInput, []Document](&CombineStage{}),
		},
		logger:   logger,
		observer: deps.Observer,
	}
}

// StageNames lists the stages in execution order.
func (f *Flow) StageNames() []string {
	names := make([]string, len(f.steps))
	for i, s := range f.steps {
		names[i] = s.name()
	}
	return names
}

// Run executes every stage in order against sc. Cancellation is checked
// before each stage; stage errors are wrapped with the stage name only.
func (f *Flow) Run(ctx context.Context, sc *SharedContext) error {
	runID := uuid.NewString()
	log := f.logger.With(zap.String("run_id", runID))
	ctx = withLogger(ctx, log)

	log.Info("generation started", zap.String("dir", sc.Dir), zap.String("language", sc.Language))
	start := time.Now()

	total := len(f.steps)
	for i, s := range f.steps {
		if err := ctx.Err(); err != nil {
			log.Warn("generation cancelled", zap.String("before_stage", s.name()))
			return err
		}
		if f.observer != nil {
			f.observer.StageStarted(s.name(), i, total)
		}
		stageStart := time.Now()
		err := s.run(ctx, sc)
		if f.observer != nil {
			f.observer.StageFinished(s.name(), i, total, err)
		}
		if err != nil {
			log.Error("stage failed", zap.String("stage", s.name()), zap.Error(err))
			return fmt.Errorf("%s: %w", s.name(), err)
		}
		log.Debug("stage finished", zap.String("stage", s.name()), zap.Duration("elapsed", time.Since(stageStart)))
	}

	log.Info("generation finished",
		zap.Int("files", len(sc.Files)),
		zap.Int("chapters", len(sc.Chapters)),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}
