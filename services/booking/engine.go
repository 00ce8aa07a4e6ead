package booking

import (
	"context"

	"go.uber.org/zap"

	"callpilot/models"
	"callpilot/utils"
)

// Step is one node of a workflow pipeline. Run mutates the record in place;
// the engine owns sequencing and short-circuiting.
type Step struct {
	Name string
	Run  func(ctx context.Context, rec *models.WorkflowRecord)

	// Always makes the step run even after a failure has been recorded.
	// Finalization steps set it; every other step no-ops once the record
	// carries an error.
	Always bool
}

// runSteps executes steps in order against the record. The first recorded
// failure short-circuits everything downstream except Always steps, which is
// how a failed run still ends with a structured result.
func runSteps(ctx context.Context, steps []Step, rec *models.WorkflowRecord) {
	logger := utils.GetLogger()
	for _, step := range steps {
		if rec.Failed() && !step.Always {
			logger.Debug("Skipping step after failure",
				zap.String("step", step.Name),
				zap.String("runId", rec.RunID))
			continue
		}
		logger.Debug("Running step",
			zap.String("step", step.Name),
			zap.String("runId", rec.RunID))
		step.Run(ctx, rec)
	}
}
