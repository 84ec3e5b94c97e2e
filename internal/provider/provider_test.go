//
// Date: 2026-02-15
// Copyright (c) 2026. All rights reserved.
//

package provider

import (
	"strings"
	"testing"
)

func TestLookupKnownEquitiesProfile(t *testing.T) {
	prof, err := Lookup(Realtime, false, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prof.Asset != AssetEquities {
		t.Errorf("expected AssetEquities, got %v", prof.Asset)
	}
	if prof.WireVariant != WireEquities {
		t.Errorf("expected WireEquities, got %v", prof.WireVariant)
	}
	if prof.AuthHost != "realtime.intrinio.com" {
		t.Errorf("unexpected auth host: %s", prof.AuthHost)
	}
}

func TestLookupKnownOptionsProfile(t *testing.T) {
	prof, err := Lookup(OPRA, false, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prof.Asset != AssetOptions {
		t.Errorf("expected AssetOptions, got %v", prof.Asset)
	}
	if prof.WireVariant != WireOptions {
		t.Errorf("expected WireOptions, got %v", prof.WireVariant)
	}
}

// TestLookupDelayedVariantsRegistered verifies every provider has a
// delayed=true profile registered, not just the live default (spec.md:17,
// "Maps (provider, delayed)" — a provider registered with only delayed=false
// makes the delayed config axis silently non-functional).
func TestLookupDelayedVariantsRegistered(t *testing.T) {
	for _, p := range []Provider{Realtime, IEX, DelayedSIP, NasdaqBasic, CBOEOne, OPRA} {
		prof, err := Lookup(p, true, "")
		if err != nil {
			t.Errorf("expected a delayed=true profile for %s, got error: %v", p, err)
			continue
		}
		if !prof.Delayed {
			t.Errorf("expected Delayed=true for %s, got false", p)
		}
	}

	prof, err := Lookup(Manual, true, "10.0.0.1:8080")
	if err != nil {
		t.Fatalf("expected a delayed=true profile for Manual, got error: %v", err)
	}
	if !prof.Delayed {
		t.Error("expected Delayed=true for Manual")
	}
}

// TestLookupDelayedUsesDistinctHost verifies the delayed variant resolves
// to a different socket host than the live variant, for providers where the
// vendor exposes a distinct delayed endpoint.
func TestLookupDelayedUsesDistinctHost(t *testing.T) {
	live, err := Lookup(Realtime, false, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	delayed, err := Lookup(Realtime, true, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if live.SocketHost == delayed.SocketHost {
		t.Errorf("expected distinct hosts for live vs. delayed REALTIME, both got %s", live.SocketHost)
	}
}

func TestLookupUnknownProviderErrors(t *testing.T) {
	_, err := Lookup(Provider("BOGUS"), false, "")
	if err == nil {
		t.Fatal("expected an error for an unregistered provider")
	}
}

func TestLookupManualRequiresIP(t *testing.T) {
	_, err := Lookup(Manual, false, "")
	if err == nil {
		t.Fatal("expected an error when manualIP is empty")
	}
}

func TestLookupManualSubstitutesSocketHost(t *testing.T) {
	prof, err := Lookup(Manual, false, "10.0.0.5:8080")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prof.SocketHost != "10.0.0.5:8080" {
		t.Errorf("expected manual IP substituted into SocketHost, got %s", prof.SocketHost)
	}
}

func TestLookupManualDoesNotMutateRegisteredProfile(t *testing.T) {
	// Ensure the clone in Lookup doesn't leak back into the shared table.
	_, _ = Lookup(Manual, false, "10.0.0.5:8080")
	prof, _ := Lookup(Manual, false, "10.0.0.9:9090")
	if prof.SocketHost != "10.0.0.9:9090" {
		t.Errorf("expected fresh substitution per call, got %s", prof.SocketHost)
	}
}

// TestFirehoseOptionsEncoding exercises E3 from spec.md §8: joining the
// options firehose sentinel sends a binary 0x01 opcode followed by the
// 21-byte '_'-padded sentinel.
func TestFirehoseOptionsEncoding(t *testing.T) {
	prof, err := Lookup(OPRA, false, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, isText, err := prof.JoinEncoder(prof.FirehoseSentinel)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if isText {
		t.Error("expected a binary (non-text) frame for the options join encoder")
	}
	if len(data) != 1+optionsContractWidth {
		t.Fatalf("expected frame of length %d, got %d", 1+optionsContractWidth, len(data))
	}
	if data[0] != optionsControlJoin {
		t.Errorf("expected opcode 0x01, got 0x%02x", data[0])
	}
	if !strings.HasPrefix(string(data[1:]), "$FIREHOSE") {
		t.Errorf("expected sentinel prefix $FIREHOSE, got %q", string(data[1:]))
	}
	for i := len("$FIREHOSE"); i < optionsContractWidth; i++ {
		if data[1+i] != '_' {
			t.Errorf("expected '_' padding at index %d, got %q", i, data[1+i])
		}
	}
}

func TestPadContractTruncatesOverlong(t *testing.T) {
	long := "AAPL__230616C00180000_EXTRA"
	padded := padContract(long)
	if len(padded) != optionsContractWidth {
		t.Fatalf("expected length %d, got %d", optionsContractWidth, len(padded))
	}
	if padded != long[:optionsContractWidth] {
		t.Errorf("expected truncation to the first %d chars, got %q", optionsContractWidth, padded)
	}
}

func TestEquitiesJoinEncoderProducesPhoenixFrame(t *testing.T) {
	prof, err := Lookup(IEX, false, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, isText, err := prof.JoinEncoder("AAPL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !isText {
		t.Error("expected a text frame for the equities join encoder")
	}
	if !strings.Contains(string(data), `"topic":"AAPL"`) || !strings.Contains(string(data), `"event":"phx_join"`) {
		t.Errorf("expected a Phoenix-channel join frame, got %s", string(data))
	}
}

func TestAuthURLAndSocketURL(t *testing.T) {
	prof, err := Lookup(Realtime, false, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := prof.AuthURL("key123"); !strings.Contains(got, "api_key=key123") {
		t.Errorf("expected api_key in auth URL, got %s", got)
	}
	if got := prof.SocketURL("tok456"); !strings.Contains(got, "token=tok456") || !strings.HasPrefix(got, "wss://") {
		t.Errorf("expected wss:// socket URL with token, got %s", got)
	}
}
