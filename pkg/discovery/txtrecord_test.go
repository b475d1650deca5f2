package discovery

import (
	"errors"
	"testing"
)

func TestGateTXTRoundTrip(t *testing.T) {
	info := &GateInfo{
		Name:    "virel-gate-1",
		Port:    8473,
		Mode:    "OPERATIONAL",
		Epoch:   12,
		Domains: 3,
	}

	txt := EncodeGateTXT(info)
	got, err := DecodeGateTXT(txt)
	if err != nil {
		t.Fatalf("DecodeGateTXT() error = %v", err)
	}

	if got.Name != info.Name {
		t.Errorf("Name = %q, want %q", got.Name, info.Name)
	}
	if got.Mode != info.Mode {
		t.Errorf("Mode = %q, want %q", got.Mode, info.Mode)
	}
	if got.Epoch != info.Epoch {
		t.Errorf("Epoch = %d, want %d", got.Epoch, info.Epoch)
	}
	if got.Domains != info.Domains {
		t.Errorf("Domains = %d, want %d", got.Domains, info.Domains)
	}
}

func TestDecodeGateTXTMissingRequired(t *testing.T) {
	tests := []struct {
		name string
		txt  TXTRecordMap
	}{
		{"NoName", TXTRecordMap{TXTKeyMode: "OPERATIONAL"}},
		{"NoMode", TXTRecordMap{TXTKeyName: "g"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeGateTXT(tt.txt)
			if !errors.Is(err, ErrMissingRequired) {
				t.Errorf("error = %v, want ErrMissingRequired", err)
			}
		})
	}
}

func TestDecodeGateTXTBadNumbers(t *testing.T) {
	base := TXTRecordMap{TXTKeyName: "g", TXTKeyMode: "SAFE_ON"}

	txt := TXTRecordMap{TXTKeyName: "g", TXTKeyMode: "SAFE_ON", TXTKeyEpoch: "twelve"}
	if _, err := DecodeGateTXT(txt); err == nil {
		t.Error("DecodeGateTXT() accepted non-numeric epoch")
	}

	txt = TXTRecordMap{TXTKeyName: "g", TXTKeyMode: "SAFE_ON", TXTKeyDomains: "many"}
	if _, err := DecodeGateTXT(txt); err == nil {
		t.Error("DecodeGateTXT() accepted non-numeric domain count")
	}

	// Epoch and domains are optional.
	got, err := DecodeGateTXT(base)
	if err != nil {
		t.Fatalf("DecodeGateTXT() error = %v", err)
	}
	if got.Epoch != 0 || got.Domains != 0 {
		t.Errorf("defaults = %d/%d, want 0/0", got.Epoch, got.Domains)
	}
}

func TestTXTStringConversion(t *testing.T) {
	txt := TXTRecordMap{"mode": "SAFE_ON", "flag": ""}
	strs := TXTRecordsToStrings(txt)
	if len(strs) != 2 {
		t.Fatalf("len = %d, want 2", len(strs))
	}

	back := StringsToTXTRecords(strs)
	if back["mode"] != "SAFE_ON" {
		t.Errorf("mode = %q, want SAFE_ON", back["mode"])
	}
	if _, ok := back["flag"]; !ok {
		t.Error("flag key lost in round trip")
	}
}
