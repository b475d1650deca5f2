package discovery

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Service type and domain for VIREL gate discovery.
const (
	// ServiceTypeGate is the mDNS service type for operational gates.
	ServiceTypeGate = "_virel._tcp"

	// Domain is the mDNS domain.
	Domain = "local"
)

// TXT record keys for gate services.
const (
	TXTKeyName    = "name"
	TXTKeyMode    = "mode"
	TXTKeyEpoch   = "epoch"
	TXTKeyDomains = "domains"
)

var (
	// ErrMissingRequired indicates a required TXT record is missing.
	ErrMissingRequired = errors.New("missing required TXT record")

	// ErrNotAnnouncing indicates an update was requested before Announce.
	ErrNotAnnouncing = errors.New("not announcing")
)

// GateInfo describes a gate for mDNS announcement.
type GateInfo struct {
	// Name is the gate's instance name.
	Name string

	// Port is the TCP port the gateway listens on.
	Port uint16

	// Mode is the committed mode ("OPERATIONAL" or "SAFE_ON").
	Mode string

	// Epoch is the current epoch counter.
	Epoch uint64

	// Domains is the number of participating domains.
	Domains int
}

// TXTRecordMap is a map of TXT record key-value pairs.
type TXTRecordMap map[string]string

// EncodeGateTXT creates TXT records for gate discovery.
func EncodeGateTXT(info *GateInfo) TXTRecordMap {
	txt := make(TXTRecordMap)
	txt[TXTKeyName] = info.Name
	txt[TXTKeyMode] = info.Mode
	txt[TXTKeyEpoch] = strconv.FormatUint(info.Epoch, 10)
	txt[TXTKeyDomains] = strconv.Itoa(info.Domains)
	return txt
}

// DecodeGateTXT parses TXT records from gate discovery.
func DecodeGateTXT(txt TXTRecordMap) (*GateInfo, error) {
	info := &GateInfo{}

	var ok bool
	if info.Name, ok = txt[TXTKeyName]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyName)
	}
	if info.Mode, ok = txt[TXTKeyMode]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyMode)
	}

	if eStr, ok := txt[TXTKeyEpoch]; ok {
		e, err := strconv.ParseUint(eStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid epoch %q", eStr)
		}
		info.Epoch = e
	}
	if dStr, ok := txt[TXTKeyDomains]; ok {
		d, err := strconv.Atoi(dStr)
		if err != nil {
			return nil, fmt.Errorf("invalid domain count %q", dStr)
		}
		info.Domains = d
	}

	return info, nil
}

// TXTRecordsToStrings converts a TXTRecordMap to a slice of "key=value" strings.
// This format is commonly used by mDNS libraries.
func TXTRecordsToStrings(txt TXTRecordMap) []string {
	result := make([]string, 0, len(txt))
	for k, v := range txt {
		result = append(result, fmt.Sprintf("%s=%s", k, v))
	}
	return result
}

// StringsToTXTRecords parses a slice of "key=value" strings into a TXTRecordMap.
func StringsToTXTRecords(strs []string) TXTRecordMap {
	txt := make(TXTRecordMap)
	for _, s := range strs {
		parts := strings.SplitN(s, "=", 2)
		if len(parts) == 2 {
			txt[parts[0]] = parts[1]
		} else if len(parts) == 1 && parts[0] != "" {
			// Key without value (boolean flag)
			txt[parts[0]] = ""
		}
	}
	return txt
}
