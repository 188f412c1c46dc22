package config

import (
	"flag"
	"os"
	"time"

	"github.com/avorobjovs/tunepin/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-c string   Redis cache address (empty disables caching)
//	-t int      access token lifetime, seconds
//	-r int      refresh token lifetime, seconds (0 = legacy single-token mode)
//	-w int      refresh renewal window, seconds
//	-l int      default music list size
//
// Notes:
//   - The function first filters os.Args to only the flags it recognizes using
//     flagx.FilterArgs, avoiding collisions with other components.
//   - Duration flags are accepted as integers in seconds and then converted
//     to time.Duration values.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-c", "-t", "-r", "-w", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.RedisAddr, "c", config.RedisAddr, "redis cache address")

	accessTokenTTL := fs.Int("t", int(config.AccessTokenTTL.Seconds()), "access token ttl (in seconds)")
	refreshTokenTTL := fs.Int("r", int(config.RefreshTokenTTL.Seconds()), "refresh token ttl (in seconds)")
	refreshRenewalWindow := fs.Int("w", int(config.RefreshRenewalWindow.Seconds()), "refresh renewal window (in seconds)")

	fs.IntVar(&config.DefaultListLimit, "l", config.DefaultListLimit, "default music list size")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenTTL = time.Duration(*accessTokenTTL) * time.Second
	config.RefreshTokenTTL = time.Duration(*refreshTokenTTL) * time.Second
	config.RefreshRenewalWindow = time.Duration(*refreshRenewalWindow) * time.Second
}
