package config

import "context"

// Loader translates a configuration file into the Model. It is
// agnostic to the on-disk format.
type Loader interface {
	Load(ctx context.Context, path string) (*Model, error)
}
