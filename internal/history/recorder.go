package history

import (
	"os"
	"strconv"
	"time"

	"github.com/LuisArmando-TestCoder/dreamcmd/internal/repair"
	"go.uber.org/zap"
)

// Recorder journals every executed attempt of one run.
type Recorder struct {
	repair.BaseObserver

	journal   *Journal
	runID     string
	intent    string
	directory string
	logger    *zap.Logger
}

// NewRecorder returns an observer that writes attempts of the run for intent.
func NewRecorder(journal *Journal, intent string, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	dir, _ := os.Getwd()
	return &Recorder{
		journal:   journal,
		runID:     strconv.FormatInt(time.Now().UnixNano(), 36),
		intent:    intent,
		directory: dir,
		logger:    logger,
	}
}

// OnResult records the attempt. Journal failures are logged, not surfaced.
func (r *Recorder) OnResult(attempt repair.Attempt) {
	err := r.journal.Record(&Entry{
		RunID:     r.runID,
		Intent:    r.intent,
		Attempt:   attempt.Number,
		Command:   attempt.Command,
		Directory: r.directory,
		ExitCode:  attempt.Result.ExitCode,
		Stderr:    attempt.Result.Stderr,
		Success:   attempt.Result.Success(),
		Duration:  attempt.Result.Duration,
	})
	if err != nil {
		r.logger.Warn("failed to record attempt", zap.Error(err))
	}
}
