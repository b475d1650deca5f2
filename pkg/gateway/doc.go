// Package gateway connects the safety gate to the network.
//
// The gateway is the only component that touches the transport layer.
// It decodes wire requests from domain clients, drives the gate, maps
// gate errors to wire statuses, and broadcasts a mode notification to
// every connected domain whenever the committed mode changes. Domains
// that miss a notification converge by polling GetMode.
package gateway
