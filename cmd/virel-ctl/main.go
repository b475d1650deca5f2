// Command virel-ctl is an interactive client for a VIREL gate.
//
// It connects to a running virel-gated instance and provides commands
// for querying the gate's mode and status, casting domain votes, and
// watching mode notifications as they are pushed.
//
// Usage:
//
//	virel-ctl [flags] [command ...]
//
// Flags:
//
//	-addr string      Gate address (default "localhost:8473")
//	-timeout duration Request timeout (default 5s)
//	-insecure         Use TLS but skip certificate verification
//	-tls              Connect with TLS
//
// When a command is given on the command line it is executed once and
// the program exits. Without arguments an interactive shell starts.
//
// Examples:
//
//	# One-shot status query
//	virel-ctl -addr gate.local:8473 status
//
//	# Cast a HALT vote for domain alpha in the current epoch
//	virel-ctl vote alpha HALT
//
//	# Interactive shell
//	virel-ctl
package main

import (
	"context"
	"crypto/tls"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/virel-protocol/virel-go/pkg/transport"
)

func main() {
	addr := flag.String("addr", "localhost:8473", "Gate address")
	timeout := flag.Duration("timeout", 5*time.Second, "Request timeout")
	useTLS := flag.Bool("tls", false, "Connect with TLS")
	insecure := flag.Bool("insecure", false, "Use TLS but skip certificate verification")
	flag.Parse()

	var tlsConfig *tls.Config
	if *useTLS || *insecure {
		tlsConfig = &tls.Config{
			MinVersion:         tls.VersionTLS13,
			InsecureSkipVerify: *insecure,
		}
	}

	// "discover" works without a connection.
	if flag.NArg() > 0 && strings.ToLower(flag.Arg(0)) == "discover" {
		if err := runDiscover(flag.Args()[1:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	client := transport.NewClient(transport.ClientConfig{
		TLSConfig:      tlsConfig,
		ConnectTimeout: *timeout,
	})
	conn, err := client.Connect(context.Background(), *addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: connecting to %s: %v\n", *addr, err)
		os.Exit(1)
	}
	defer conn.Close()

	session, err := NewSession(conn, *timeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer session.Close()

	if flag.NArg() > 0 {
		// One-shot mode: run the single command and exit.
		if err := session.Execute(flag.Args()); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	session.Run()
}
