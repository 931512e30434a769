package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

const (
	// NormalizeTaskQueue is the default task queue for the normalizer worker.
	NormalizeTaskQueue = "location-normalizer"

	defaultPageSize = 200
	// pagesPerRun bounds workflow history; the run continues as new after this many pages.
	pagesPerRun = 50
)

// NormalizeInput is the input for NormalizeLocationsWorkflow.
type NormalizeInput struct {
	PageSize int
	// AfterID resumes paging after this provider ID.
	AfterID string
	// Normalized carries the running total across continue-as-new runs.
	Normalized int
}

// NormalizeResult reports what a completed run did.
type NormalizeResult struct {
	Pages      int
	Normalized int
}

// NormalizeLocationsWorkflow pages through providers stored only as GeoJSON
// and writes flat latitude/longitude fields for them. Paging stops at the
// first short page.
func NormalizeLocationsWorkflow(ctx workflow.Context, input NormalizeInput) (NormalizeResult, error) {
	logger := workflow.GetLogger(ctx)
	if input.PageSize <= 0 {
		input.PageSize = defaultPageSize
	}
	logger.Info("Starting location normalization", "pageSize", input.PageSize, "afterID", input.AfterID)

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	})

	result := NormalizeResult{Normalized: input.Normalized}
	afterID := input.AfterID
	for {
		var ids []string
		if err := workflow.ExecuteActivity(ctx, "ListGeoJSONOnly", afterID, input.PageSize).Get(ctx, &ids); err != nil {
			return result, err
		}
		if len(ids) == 0 {
			break
		}

		var written int
		if err := workflow.ExecuteActivity(ctx, "WriteFlatCoordinates", ids).Get(ctx, &written); err != nil {
			return result, err
		}
		result.Pages++
		result.Normalized += written
		afterID = ids[len(ids)-1]

		if len(ids) < input.PageSize {
			break
		}
		if result.Pages >= pagesPerRun {
			logger.Info("Continuing as new", "afterID", afterID, "normalized", result.Normalized)
			return result, workflow.NewContinueAsNewError(ctx, NormalizeLocationsWorkflow, NormalizeInput{
				PageSize:   input.PageSize,
				AfterID:    afterID,
				Normalized: result.Normalized,
			})
		}
	}

	logger.Info("Location normalization finished", "pages", result.Pages, "normalized", result.Normalized)
	return result, nil
}
