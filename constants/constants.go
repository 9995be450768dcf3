package constants

// Set at build time via -ldflags "-X github.com/xeptore/tubecast/constants.Version=...".
var (
	Version     = "dev"
	CompileTime = "unknown"
)

const (
	CookiesEnvVar = "YTDLP_COOKIES"
)
