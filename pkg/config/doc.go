// Package config loads and validates virel-gated configuration files.
//
// Configuration is YAML. A minimal file names the participating
// domains; everything else has defaults:
//
//	domains:
//	  - alpha
//	  - beta
//	  - gamma
//	listen: ":8473"
//	budget: 10
//	tick_interval: 1s
//	initial_mode: OPERATIONAL
//	state_file: /var/lib/virel/state.json
//	audit_log: /var/log/virel/audit.cbor
//	announce: true
package config
