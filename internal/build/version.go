package build

// Set at link time, for example
// -ldflags "-X github.com/rohmanhakim/beu-result-proxy/internal/build.Version=1.4.0".
var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

// FullVersion is the release identifier printed by `beu-result-proxy version`:
// the release and the commit it was built from, joined as "1.4.0+abc123".
// Unstamped builds report "dev+none".
func FullVersion() string {
	return Version + "+" + Commit
}
