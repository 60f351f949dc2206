package secrets

import (
	"context"
	"fmt"
	"os"
)

// Resolver resolves opaque secret names into credential material. The secret
// store itself is an external system; callers only depend on this interface.
type Resolver interface {
	Resolve(ctx context.Context, name string) (string, error)
}

// UnavailableError indicates the secret store failed or holds no value for
// the requested name. It aborts the destination attempt that needed it.
type UnavailableError struct {
	Name string
	Err  error
}

func (e *UnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("secret %s unavailable: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("secret %s unavailable", e.Name)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// EnvResolver resolves secrets from environment variables, which is how the
// deployment environment mounts secret store entries into the process.
type EnvResolver struct{}

func NewEnvResolver() *EnvResolver {
	return &EnvResolver{}
}

func (r *EnvResolver) Resolve(_ context.Context, name string) (string, error) {
	val := os.Getenv(name)
	if val == "" {
		return "", &UnavailableError{Name: name}
	}
	return val, nil
}
