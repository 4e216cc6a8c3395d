package generation

import (
	"context"

	"github.com/flashfusion/forge/pkg/model"
	"github.com/flashfusion/forge/pkg/usecase/history"
	"github.com/flashfusion/forge/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// UseCase runs a generation and records the result in history
type UseCase struct {
	controller *Controller
	history    *history.Store
}

func New(controller *Controller, store *history.Store) *UseCase {
	return &UseCase{controller: controller, history: store}
}

func (uc *UseCase) Controller() *Controller {
	return uc.controller
}

// Run generates a record for cfg. Completed records are added to history;
// cancelled and failed runs leave history untouched.
func (uc *UseCase) Run(ctx context.Context, cfg model.GenerationConfig) (*model.GenerationRecord, error) {
	record, err := uc.controller.Generate(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if uc.history != nil {
		if err := uc.history.Add(ctx, record); err != nil {
			return nil, goerr.Wrap(err, "failed to save generation", goerr.V("id", record.ID))
		}
	}

	logging.From(ctx).Info("generation completed",
		"id", record.ID, "type", record.Type, "files", len(record.Files))
	return record, nil
}
