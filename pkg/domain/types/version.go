package types

// Version is the relmap version. Overwritten by -ldflags at release build time.
var Version = "dev"

// UserAgent is sent with every request to the release API
func UserAgent() string {
	return "relmap/" + Version
}
