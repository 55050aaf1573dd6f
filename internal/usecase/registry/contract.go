package registry

import "context"

// modelLister enumerates the models the host currently serves.
type modelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

// modelPuller fetches a model onto the host.
type modelPuller interface {
	Pull(ctx context.Context, model string) error
}
