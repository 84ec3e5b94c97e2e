//
// Date: 2026-02-15
// Copyright (c) 2026. All rights reserved.
//

// Package provider is a pure lookup table mapping (Provider, delayed) to the
// auth URL, socket URL, heartbeat payload, channel encoders, and binary wire
// variant a connection needs. Call sites never special-case a provider
// directly; they ask the Profile for the behavior they need.
package provider

import (
	"fmt"

	"github.com/google/uuid"
)

// Provider is the enumerated vendor/feed tag controlling the wire variant.
type Provider string

const (
	Realtime    Provider = "REALTIME" // IEX, equities
	IEX         Provider = "IEX"
	DelayedSIP  Provider = "DELAYED_SIP"
	NasdaqBasic Provider = "NASDAQ_BASIC"
	CBOEOne     Provider = "CBOE_ONE"
	OPRA        Provider = "OPRA" // options
	Manual      Provider = "MANUAL"
)

// Subprovider is a granular source tag within an equities provider.
type Subprovider string

const (
	NoSubprovider    Subprovider = "NO_SUBPROVIDER"
	SubproviderCTAA  Subprovider = "CTA_A"
	SubproviderCTAB  Subprovider = "CTA_B"
	SubproviderUTP   Subprovider = "UTP"
	SubproviderOTC   Subprovider = "OTC"
	SubproviderNasdaqBasic Subprovider = "NASDAQ_BASIC"
	SubproviderIEX   Subprovider = "IEX"
	SubproviderCBOEOne Subprovider = "CBOE_ONE"
)

// WireVariant picks the decoder branch a Profile uses: equities records are
// not self-describing in length, options records are.
type WireVariant int

const (
	WireEquities WireVariant = iota
	WireOptions
)

// Asset distinguishes the equities/options top-level asset class, which
// controls the thread-count floor and control-frame encoding (JSON vs.
// binary).
type Asset int

const (
	AssetEquities Asset = iota
	AssetOptions
)

// ChannelEncoder renders a join or leave control message for a single
// channel. Equities render a Phoenix-channel JSON frame; options render a
// compact binary prefix.
type ChannelEncoder func(channel string) ([]byte, bool, error) // bytes, isText, error

// Profile is the full set of per-(provider,delayed) behavior: where to
// authenticate, where to dial, what heartbeat to send, how to spell join/
// leave/firehose control messages, and which binary layout the decoder uses.
type Profile struct {
	Provider         Provider
	Delayed          bool
	Asset            Asset
	AuthHost         string
	SocketHost       string
	HeartbeatMessage string
	HeartbeatIsText  bool
	FirehoseSentinel string
	WireVariant      WireVariant
	JoinEncoder      ChannelEncoder
	LeaveEncoder     ChannelEncoder
}

// key identifies a profile in the lookup table.
type key struct {
	provider Provider
	delayed  bool
}

var profiles = map[key]*Profile{}

func register(p *Profile) {
	profiles[key{p.Provider, p.Delayed}] = p
}

// Lookup returns the Profile for (provider, delayed), or an error if the
// combination is not registered. manualIP is substituted into the socket
// host for Provider Manual.
func Lookup(p Provider, delayed bool, manualIP string) (*Profile, error) {
	prof, ok := profiles[key{p, delayed}]
	if !ok {
		return nil, fmt.Errorf("unknown provider profile: provider=%s delayed=%t", p, delayed)
	}
	if p == Manual {
		if manualIP == "" {
			return nil, fmt.Errorf("provider MANUAL requires a manualIpAddress")
		}
		clone := *prof
		clone.SocketHost = manualIP
		return &clone, nil
	}
	return prof, nil
}

// AuthURL renders the vendor auth endpoint for this profile.
func (p *Profile) AuthURL(apiKey string) string {
	return fmt.Sprintf("https://%s/auth?api_key=%s", p.AuthHost, apiKey)
}

// SocketURL renders the vendor WebSocket endpoint for this profile.
func (p *Profile) SocketURL(token string) string {
	return fmt.Sprintf("wss://%s/socket/websocket?vsn=1.0.0&token=%s", p.SocketHost, token)
}

// phoenixFrame renders the Phoenix-channel JSON join/leave frame equities
// providers expect.
func phoenixFrame(event, topic, ref string) ([]byte, bool, error) {
	payload := fmt.Sprintf(`{"topic":%q,"event":%q,"payload":{},"ref":%q}`, topic, event, ref)
	return []byte(payload), true, nil
}

// newEquitiesEncoders builds the Phoenix-channel join/leave encoder pair for
// an equities profile. refFunc supplies a fresh ref per call (init passes
// the uuid-backed generator from newRefGenerator).
func newEquitiesEncoders(refFunc func() string) (ChannelEncoder, ChannelEncoder) {
	join := func(channel string) ([]byte, bool, error) {
		return phoenixFrame("phx_join", channel, refFunc())
	}
	leave := func(channel string) ([]byte, bool, error) {
		return phoenixFrame("phx_leave", channel, refFunc())
	}
	return join, leave
}

const optionsContractWidth = 21

// padContract pads an options channel on the right with '_' to the
// 21-character OPRA contract width (the firehose sentinel included), and
// truncates a longer channel to that width.
func padContract(channel string) string {
	if len(channel) >= optionsContractWidth {
		return channel[:optionsContractWidth]
	}
	out := make([]byte, optionsContractWidth)
	copy(out, channel)
	for i := len(channel); i < optionsContractWidth; i++ {
		out[i] = '_'
	}
	return string(out)
}

const (
	optionsControlJoin  = 0x01
	optionsControlLeave = 0x02
)

// newOptionsEncoders builds the binary join/leave encoder pair options
// profiles expect: a 1-byte opcode followed by a 21-byte, '_'-padded
// contract or firehose sentinel.
func newOptionsEncoders() (ChannelEncoder, ChannelEncoder) {
	encode := func(opcode byte, channel string) ([]byte, bool, error) {
		buf := make([]byte, 1+optionsContractWidth)
		buf[0] = opcode
		copy(buf[1:], padContract(channel))
		return buf, false, nil
	}
	join := func(channel string) ([]byte, bool, error) { return encode(optionsControlJoin, channel) }
	leave := func(channel string) ([]byte, bool, error) { return encode(optionsControlLeave, channel) }
	return join, leave
}

func init() {
	refCounter := newRefGenerator()

	// host is the live endpoint; delayedHost is the 15-minutes-delayed
	// variant of the same feed, both registered under the same Provider key
	// but distinguished by the delayed bool per spec.md:17/:57. DELAYED_SIP
	// is itself an already-delayed product, so its own delayed=true variant
	// reuses the same host rather than a distinct one.
	equitiesProfiles := []struct {
		provider    Provider
		host        string
		delayedHost string
	}{
		{Realtime, "realtime.intrinio.com", "realtime-delayed.intrinio.com"},
		{IEX, "realtime-mx.intrinio.com", "realtime-mx-delayed.intrinio.com"},
		{DelayedSIP, "realtime-delayed.intrinio.com", "realtime-delayed.intrinio.com"},
		{NasdaqBasic, "realtime-nasdaq-basic.intrinio.com", "realtime-nasdaq-basic-delayed.intrinio.com"},
		{CBOEOne, "realtime-cboe-one.intrinio.com", "realtime-cboe-one-delayed.intrinio.com"},
	}
	for _, ep := range equitiesProfiles {
		for _, variant := range []struct {
			delayed bool
			host    string
		}{
			{false, ep.host},
			{true, ep.delayedHost},
		} {
			join, leave := newEquitiesEncoders(refCounter)
			register(&Profile{
				Provider:         ep.provider,
				Delayed:          variant.delayed,
				Asset:            AssetEquities,
				AuthHost:         variant.host,
				SocketHost:       variant.host,
				HeartbeatMessage: `{"topic":"phoenix","event":"heartbeat","payload":{},"ref":null}`,
				HeartbeatIsText:  true,
				FirehoseSentinel: "lobby",
				WireVariant:      WireEquities,
				JoinEncoder:      join,
				LeaveEncoder:     leave,
			})
		}
	}

	optionsProfiles := []struct {
		provider    Provider
		host        string
		delayedHost string
	}{
		{OPRA, "realtime-options.intrinio.com", "realtime-options-delayed.intrinio.com"},
	}
	for _, op := range optionsProfiles {
		for _, variant := range []struct {
			delayed bool
			host    string
		}{
			{false, op.host},
			{true, op.delayedHost},
		} {
			optJoin, optLeave := newOptionsEncoders()
			register(&Profile{
				Provider:         op.provider,
				Delayed:          variant.delayed,
				Asset:            AssetOptions,
				AuthHost:         variant.host,
				SocketHost:       variant.host,
				HeartbeatMessage: "",
				HeartbeatIsText:  false,
				FirehoseSentinel: "$FIREHOSE",
				WireVariant:      WireOptions,
				JoinEncoder:      optJoin,
				LeaveEncoder:     optLeave,
			})
		}
	}

	for _, delayed := range []bool{false, true} {
		optJoin, optLeave := newOptionsEncoders()
		register(&Profile{
			Provider:         Manual,
			Delayed:          delayed,
			Asset:            AssetOptions,
			AuthHost:         "realtime-options.intrinio.com",
			SocketHost:       "", // substituted at Lookup time
			HeartbeatMessage: "",
			HeartbeatIsText:  false,
			FirehoseSentinel: "$FIREHOSE",
			WireVariant:      WireOptions,
			JoinEncoder:      optJoin,
			LeaveEncoder:     optLeave,
		})
	}
}

// newRefGenerator returns a closure producing a fresh Phoenix-channel ref on
// each call. Refs must stay unique across reconnects so the server never
// confuses a stale join/leave ack with a fresh one; a uuid avoids wraparound
// or collision concerns a bare counter would have across process restarts.
func newRefGenerator() func() string {
	return func() string {
		return uuid.NewString()
	}
}
