// Package lifecycle holds timing shared by start and stop hooks.
package lifecycle

import "time"

// DefaultTimeout bounds graceful shutdown of a delivery
const DefaultTimeout = 10 * time.Second
