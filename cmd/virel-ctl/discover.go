package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/virel-protocol/virel-go/pkg/discovery"
)

// runDiscover browses the local network for announced gates.
//
// Usage: virel-ctl discover [duration]
func runDiscover(args []string) error {
	timeout := 5 * time.Second
	if len(args) >= 1 {
		d, err := time.ParseDuration(args[0])
		if err != nil {
			return fmt.Errorf("invalid duration %q", args[0])
		}
		timeout = d
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	gates, err := discovery.Browse(ctx, "")
	if err != nil {
		return err
	}

	fmt.Printf("Browsing for gates (%v)...\n", timeout)

	found := 0
	for gate := range gates {
		found++
		addr := gate.Host
		if len(gate.Addresses) > 0 {
			addr = gate.Addresses[0]
		}
		fmt.Printf("  %s at %s:%d mode=%s epoch=%d domains=%d\n",
			gate.InstanceName, strings.TrimSuffix(addr, "."), gate.Port,
			gate.Info.Mode, gate.Info.Epoch, gate.Info.Domains)
	}

	if found == 0 {
		fmt.Println("No gates found.")
	}
	return nil
}
