package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

// contextWithTimeout derives a deadline context from the command, so signal
// cancellation installed on the root context still propagates.
func contextWithTimeout(cmd *cobra.Command, d time.Duration) (context.Context, context.CancelFunc) {
	base := cmd.Context()
	if base == nil {
		base = context.Background()
	}
	return context.WithTimeout(base, d)
}
