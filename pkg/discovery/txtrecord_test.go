package discovery

import (
	"errors"
	"strings"
	"testing"
)

func TestTXTRoundTrip(t *testing.T) {
	info := &Info{
		EngineID:       "0190c7e4-9b9a-7d8e-8f00-1234567890ab",
		Encrypted:      true,
		MaxConnections: 1024,
	}

	strs := TXTRecordsToStrings(EncodeTXT(info))
	want := []string{"enc=1", "id=0190c7e4-9b9a-7d8e-8f00-1234567890ab", "max=1024"}
	if len(strs) != len(want) {
		t.Fatalf("TXTRecordsToStrings() = %v, want %v", strs, want)
	}
	for i := range want {
		if strs[i] != want[i] {
			t.Errorf("strs[%d] = %q, want %q", i, strs[i], want[i])
		}
	}

	got, err := DecodeTXT(StringsToTXTRecords(strs))
	if err != nil {
		t.Fatalf("DecodeTXT() error = %v", err)
	}
	if *got != *info {
		t.Errorf("DecodeTXT() = %+v, want %+v", got, info)
	}
}

func TestEncodeTXTOmitsZeroMax(t *testing.T) {
	txt := EncodeTXT(&Info{EngineID: "x"})
	if _, ok := txt[TXTKeyMaxConnections]; ok {
		t.Error("max record present for MaxConnections = 0")
	}
	if txt[TXTKeyEncrypted] != "0" {
		t.Errorf("enc = %q, want 0", txt[TXTKeyEncrypted])
	}
}

func TestDecodeTXTErrors(t *testing.T) {
	tests := []struct {
		name string
		txt  TXTRecordMap
		want error
	}{
		{"MissingID", TXTRecordMap{"enc": "1"}, ErrMissingRequired},
		{"EmptyID", TXTRecordMap{"id": ""}, ErrMissingRequired},
		{"BadEnc", TXTRecordMap{"id": "a", "enc": "yes"}, ErrInvalidTXTRecord},
		{"BadMax", TXTRecordMap{"id": "a", "max": "many"}, ErrInvalidTXTRecord},
		{"NegativeMax", TXTRecordMap{"id": "a", "max": "-1"}, ErrInvalidTXTRecord},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeTXT(tt.txt)
			if !errors.Is(err, tt.want) {
				t.Errorf("DecodeTXT() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDecodeTXTDefaults(t *testing.T) {
	info, err := DecodeTXT(TXTRecordMap{"id": "a"})
	if err != nil {
		t.Fatalf("DecodeTXT() error = %v", err)
	}
	if info.Encrypted || info.MaxConnections != 0 {
		t.Errorf("DecodeTXT() = %+v, want plaintext and no limit", info)
	}
}

func TestStringsToTXTRecords(t *testing.T) {
	txt := StringsToTXTRecords([]string{"id=a=b", "flag", ""})
	if txt["id"] != "a=b" {
		t.Errorf("id = %q, want a=b", txt["id"])
	}
	if v, ok := txt["flag"]; !ok || v != "" {
		t.Errorf("flag = %q, %v; want empty, present", v, ok)
	}
	if len(txt) != 2 {
		t.Errorf("len = %d, want 2", len(txt))
	}
}

func TestValidateInstanceName(t *testing.T) {
	if err := ValidateInstanceName("ptnet-0190c7e4"); err != nil {
		t.Errorf("ValidateInstanceName() error = %v", err)
	}
	if err := ValidateInstanceName(""); !errors.Is(err, ErrInstanceNameTooLong) {
		t.Errorf("empty name error = %v", err)
	}
	if err := ValidateInstanceName(strings.Repeat("a", 64)); !errors.Is(err, ErrInstanceNameTooLong) {
		t.Errorf("long name error = %v", err)
	}
}

func TestInstanceName(t *testing.T) {
	if got := instanceName(&Info{EngineID: "0190c7e4-9b9a"}); got != "ptnet-0190c7e4" {
		t.Errorf("instanceName() = %q", got)
	}
	if got := instanceName(&Info{EngineID: "abc"}); got != "ptnet-abc" {
		t.Errorf("instanceName() = %q", got)
	}
	if got := instanceName(&Info{Instance: "bench", EngineID: "abc"}); got != "bench" {
		t.Errorf("instanceName() = %q", got)
	}
}
