package deps

import (
	"net/http"
	"time"

	"github.com/MrSnakeDoc/kbase/internal/controller"
	"github.com/MrSnakeDoc/kbase/internal/kv"
	"github.com/MrSnakeDoc/kbase/internal/logger"
)

// SeedStatus reports on the seed importer.
type SeedStatus interface {
	Status() (lastRun time.Time, lastErr error, imported int)
}

type Deps struct {
	Logger             logger.Logger
	StartTime          time.Time
	Version            string
	Commit             string
	BuildDate          string
	GoVersion          string
	TimeNow            func() time.Time       // for testing, defaults to time.Now
	AllowedHosts       []string               // Host headers allowed to access the server
	AllowedCIDRS       []string               // IPs allowed to access the server
	TrustProxy         bool                   // true if running behind a trusted reverse proxy
	Backend            string                 // storage backend name, reported by /status
	Storage            kv.Pinger              // optional, probed by /readyz and /status
	Controller         *controller.Controller // catalog mutations and mirror reads
	Metrics            http.Handler           // optional, served on /metrics
	ReloadTrigger      chan struct{}          // manual seed import trigger (nil if seeding disabled)
	Seed               SeedStatus             // nil if seeding disabled
	RateLimitBurst     int                    // write requests allowed in a burst per client IP
	RateLimitPerMinute int                    // write request refill rate per client IP
}

// Now returns the configured clock.
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
