package provisioning

import (
	"fmt"
	"time"

	"github.com/imamik/stackprov/internal/metrics"
)

// Report summarizes a run.
type Report struct {
	RunID string
	// Stage is StageDone or StageAborted.
	Stage Stage
	// Reached is the stage of the last phase that started.
	Reached   Stage
	Completed []string
	Failed    string
	Err       error
	Duration  time.Duration
}

// RunPhases executes all provisioning phases sequentially. The first
// failing phase aborts the run; later phases are not started. The report
// is returned in both cases.
func RunPhases(ctx *Context, phases []Phase) (*Report, error) {
	start := time.Now()
	report := &Report{RunID: ctx.RunID, Reached: StageCheckingEnvironment}
	ctx.Observer.Printf("Starting provisioning with %d phases...", len(phases))

	for i, phase := range phases {
		report.Reached = phase.Stage()
		phaseStart := time.Now()

		ctx.Observer.Progress(phase.Name(), i+1, len(phases))
		LogPhaseStart(ctx.Observer, phase.Name())

		err := ctx.Err()
		if err == nil {
			err = phase.Provision(ctx)
		}
		elapsed := time.Since(phaseStart)

		if err != nil {
			ctx.Metrics.RecordPhase(phase.Name(), metrics.ResultFailure, elapsed)
			LogPhaseFailed(ctx.Observer, phase.Name(), err)

			report.Stage = StageAborted
			report.Failed = phase.Name()
			report.Err = fmt.Errorf("%s phase failed: %w", phase.Name(), err)
			report.Duration = time.Since(start)
			return report, report.Err
		}

		ctx.Metrics.RecordPhase(phase.Name(), metrics.ResultSuccess, elapsed)
		LogPhaseComplete(ctx.Observer, phase.Name(), elapsed)
		report.Completed = append(report.Completed, phase.Name())
	}

	report.Stage = StageDone
	report.Duration = time.Since(start)
	ctx.Observer.Printf("Provisioning completed in %v", report.Duration.Round(time.Millisecond))
	return report, nil
}
