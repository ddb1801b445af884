package config

import "github.com/urfave/cli/v3"

// Server holds release API emulator configuration
type Server struct {
	Addr          string
	Token         string
	MaxUploadSize int64
}

// Flags returns CLI flags for server configuration
func (c *Server) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "Server address",
			Value:       "localhost:8080",
			Destination: &c.Addr,
			Sources:     cli.EnvVars("RELMAP_ADDR"),
		},
		&cli.StringFlag{
			Name:        "token",
			Usage:       "Bearer token required by the API endpoints (empty disables the check)",
			Destination: &c.Token,
			Sources:     cli.EnvVars("RELMAP_SERVER_TOKEN"),
		},
		&cli.Int64Flag{
			Name:        "max-upload-size",
			Usage:       "Maximum size of an uploaded artifact request in bytes",
			Value:       64 << 20,
			Destination: &c.MaxUploadSize,
			Sources:     cli.EnvVars("RELMAP_MAX_UPLOAD_SIZE"),
		},
	}
}
