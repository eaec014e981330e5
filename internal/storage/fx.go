package storage

import (
	"context"

	gcs "cloud.google.com/go/storage"
	"go.uber.org/fx"
)

func NewGCSClient(lc fx.Lifecycle) (*gcs.Client, error) {
	client, err := gcs.NewClient(context.Background())
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return client.Close()
		},
	})
	return client, nil
}

// Module wires the GCS-backed artifact store.
var Module = fx.Module("storage",
	fx.Provide(
		NewGCSClient,
		NewGCSStore,
		func(s *GCSStore) Store { return s },
	),
)
