// Package repair drives the generate, execute and feed-back cycle until a
// command runs without writing to stderr.
package repair

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/LuisArmando-TestCoder/dreamcmd/internal/executor"
	"github.com/LuisArmando-TestCoder/dreamcmd/internal/extract"
	"github.com/LuisArmando-TestCoder/dreamcmd/internal/llm"
	"github.com/LuisArmando-TestCoder/dreamcmd/internal/transcript"
	"go.uber.org/zap"
)

// ErrAttemptsExhausted is matched by the error returned when the attempt
// budget runs out before a command succeeds.
var ErrAttemptsExhausted = errors.New("attempts exhausted")

// ErrEmptyIntent is returned when Run is called with a blank intent.
var ErrEmptyIntent = errors.New("empty intent")

// ExhaustedError carries the last failed attempt.
type ExhaustedError struct {
	Attempts int
	Last     Attempt
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("no working command after %d attempts", e.Attempts)
}

func (e *ExhaustedError) Is(target error) bool {
	return target == ErrAttemptsExhausted
}

// Executor runs extracted command text.
type Executor interface {
	Run(ctx context.Context, command string) (executor.Result, error)
}

// Attempt is one generate and execute round.
type Attempt struct {
	Number  int
	Reply   string
	Command string
	Result  executor.Result
}

// Outcome describes a successful run.
type Outcome struct {
	Attempts   int
	Command    string
	Result     executor.Result
	Transcript []transcript.Entry
}

// Observer receives loop events. Implementations must not block for long.
type Observer interface {
	// OnGenerate is called before the model is asked for a command.
	OnGenerate(number int)
	OnReply(number int, reply string)
	OnExecute(number int, command string)
	OnResult(attempt Attempt)
	OnRetry(attempt Attempt)
	OnSuccess(outcome Outcome)
}

// BaseObserver implements Observer with no-ops for embedding.
type BaseObserver struct{}

func (BaseObserver) OnGenerate(int) {}
func (BaseObserver) OnReply(int, string) {}
func (BaseObserver) OnExecute(int, string) {}
func (BaseObserver) OnResult(Attempt) {}
func (BaseObserver) OnRetry(Attempt) {}
func (BaseObserver) OnSuccess(Outcome) {}

// Options configures a Loop.
type Options struct {
	Client   llm.Client
	Executor Executor
	// OS is the operating system name used in the intent prompt.
	OS string
	// MaxAttempts bounds the number of executed commands; zero means no bound.
	MaxAttempts int
	Observers   []Observer
	Logger      *zap.Logger
}

// Loop is the repair state machine.
type Loop struct {
	opts   Options
	logger *zap.Logger
}

func New(opts Options) *Loop {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loop{opts: opts, logger: logger}
}

// Run asks the model for a command that does intent and keeps repairing it
// until it runs with empty stderr.
func (l *Loop) Run(ctx context.Context, intent string) (Outcome, error) {
	intent = strings.TrimSpace(intent)
	if intent == "" {
		return Outcome{}, ErrEmptyIntent
	}

	conv := transcript.New()
	if err := conv.AppendUser(llm.IntentPrompt(l.opts.OS, intent)); err != nil {
		return Outcome{}, err
	}
	l.logger.Info("starting repair loop", zap.String("intent", intent), zap.Int("maxAttempts", l.opts.MaxAttempts))

	for number := 1; ; number++ {
		attempt, err := l.step(ctx, conv, number)
		if err != nil {
			return Outcome{}, err
		}

		if attempt.Result.Success() {
			outcome := Outcome{
				Attempts:   number,
				Command:    attempt.Command,
				Result:     attempt.Result,
				Transcript: conv.Entries(),
			}
			l.logger.Info("command succeeded",
				zap.Int("attempt", number),
				zap.String("command", attempt.Command),
				zap.Int("entries", conv.Len()),
			)
			l.each(func(o Observer) { o.OnSuccess(outcome) })
			return outcome, nil
		}

		if l.opts.MaxAttempts > 0 && number >= l.opts.MaxAttempts {
			l.logger.Warn("attempt budget exhausted", zap.Int("attempts", number))
			return Outcome{}, &ExhaustedError{Attempts: number, Last: attempt}
		}

		l.logger.Debug("command failed, retrying",
			zap.Int("attempt", number),
			zap.Int("exitCode", attempt.Result.ExitCode),
			zap.String("stderr", attempt.Result.Stderr),
		)
		l.each(func(o Observer) { o.OnRetry(attempt) })
	}
}

// step runs Generating then Executing for one attempt and leaves the
// transcript ending with the feedback user entry.
func (l *Loop) step(ctx context.Context, conv *transcript.Transcript, number int) (Attempt, error) {
	attempt := Attempt{Number: number}

	if err := ctx.Err(); err != nil {
		return attempt, err
	}
	l.each(func(o Observer) { o.OnGenerate(number) })

	reply, err := l.opts.Client.Complete(ctx, conv.Entries())
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return attempt, ctxErr
		}
		return attempt, fmt.Errorf("attempt %d: %w", number, err)
	}
	if err := conv.AppendAssistant(reply); err != nil {
		return attempt, err
	}
	attempt.Reply = reply
	l.each(func(o Observer) { o.OnReply(number, reply) })

	attempt.Command = extract.Code(reply)
	l.logger.Debug("extracted command", zap.Int("attempt", number), zap.String("command", attempt.Command))

	if err := ctx.Err(); err != nil {
		return attempt, err
	}
	l.each(func(o Observer) { o.OnExecute(number, attempt.Command) })

	result, err := l.opts.Executor.Run(ctx, attempt.Command)
	if err != nil {
		return attempt, err
	}
	attempt.Result = result
	l.each(func(o Observer) { o.OnResult(attempt) })

	if err := conv.AppendUser(result.Feedback()); err != nil {
		return attempt, err
	}
	return attempt, nil
}

func (l *Loop) each(fn func(Observer)) {
	for _, o := range l.opts.Observers {
		fn(o)
	}
}
