// Package discovery provides mDNS announcement and browsing for VIREL gates.
//
// A running gate announces itself as a "_virel._tcp" service so domain
// clients on the local network can find it without configuration. TXT
// records carry the gate name, its committed mode, the current epoch,
// and the number of participating domains. The announcer refreshes the
// TXT records whenever the gate's mode changes, so browsing clients see
// the safety posture without opening a connection.
package discovery
