package stats

import (
	"expvar"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatsUpdater(t *testing.T) {
	// expvar map names are global, so a single updater serves all subtests
	su := NewStatsUpdater(http.NewServeMux())
	su.Run()
	defer su.Stop()

	su.RegisterMetric(ConnectedClients)
	su.Incr(ConnectedClients)
	su.Incr(ConnectedClients)
	su.Decr(ConnectedClients)

	assert.Eventually(t, func() bool {
		return su.vars.Get(ConnectedClients).(*expvar.Int).Value() == 1
	}, time.Second, 10*time.Millisecond, "expected metric to settle at 1")
}
