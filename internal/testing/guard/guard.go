// Package guard forces test mode for any test binary that imports it, so
// package init code never reaches out to live services.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("CFOBOT_TEST_MODE") == "" {
			_ = os.Setenv("CFOBOT_TEST_MODE", "1")
		}
	})
}
