package tick

import (
	"time"

	"github.com/sweeney/button-handler/internal/logic"
)

var start = time.Now()

func fallback() logic.Ticks {
	return FromDuration(time.Since(start))
}
