package wiki

import (
	"context"

	"go.uber.org/zap"

	"github.com/julianshen/agentwiki/internal/llm"
)

// LLM abstracts the gateway for testability.
type LLM interface {
	Call(ctx context.Context, prompt string, opts llm.Options) (string, error)
}

// Stage is one step of the generation flow. Prepare reads what it needs from
// the shared context, Execute does the work (and is the only phase allowed to
// call the LLM), Commit writes the stage's own result back.
type Stage[In, Out any] interface {
	Name() string
	Prepare(sc *SharedContext) (In, error)
	Execute(ctx context.Context, in In) (Out, error)
	Commit(sc *SharedContext, out Out)
}

// step erases a Stage's type parameters so the flow can hold a fixed list.
type step interface {
	name() string
	run(ctx context.Context, sc *SharedContext) error
}

type boundStage[In, Out any] struct {
	s Stage[In, Out]
}

func bind[In, Out any](s Stage[In, Out]) step {
	return boundStage[In, Out]{s: s}
}

func (b boundStage[In, Out]) name() string { return b.s.Name() }

func (b boundStage[In, Out]) run(ctx context.Context, sc *SharedContext) error {
	in, err := b.s.Prepare(sc)
	if err != nil {
		return err
	}
	out, err := b.s.Execute(ctx, in)
	if err != nil {
		return err
	}
	b.s.Commit(sc, out)
	return nil
}

func callOptions(sc *SharedContext) llm.Options {
	return llm.Options{
		ProviderName: sc.Provider,
		Model:        sc.Model,
		Credential:   sc.Credential,
		UseCache:     sc.UseCache,
	}
}

type loggerKey struct{}

func withLogger(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// loggerFrom returns the run-scoped logger stored by the flow, or a no-op
// logger when a stage is executed on its own.
func loggerFrom(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*zap.Logger); ok && l != nil {
		return l
	}
	return zap.NewNop()
}
