package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("CARDMINT_TEST_MODE") == "" {
			_ = os.Setenv("CARDMINT_TEST_MODE", "1")
		}
	})
}
