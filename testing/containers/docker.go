//go:build integration

package containers

import (
	"context"

	"github.com/testcontainers/testcontainers-go"
)

// dockerAvailable reports whether a Docker daemon answers. Container helpers
// skip their test when it does not.
func dockerAvailable(ctx context.Context) bool {
	provider, err := testcontainers.NewDockerProvider()
	if err != nil {
		return false
	}
	defer provider.Close()

	_, err = provider.DaemonHost(ctx)
	return err == nil
}
