package discovery

import (
	"context"
	"strings"
	"testing"

	"github.com/whoshome/lanwatch/pkg/executil"
	"github.com/whoshome/lanwatch/pkg/types"
)

func TestCheckStatusAllProbesFail(t *testing.T) {
	// no cached IP, no neighbor-cache entry, nothing answers anywhere:
	// the check must return false without erroring out
	runner := &fakeRunner{}
	engine := newTestEngine(t, runner)

	if online := engine.CheckStatus(context.Background(), "AA:BB:CC:DD:EE:FF"); online {
		t.Fatal("expected offline when nothing responds")
	}

	// the targeted fallback sweep must have probed the common ranges
	probed := false
	for _, call := range runner.callsFor("arping") {
		if strings.HasPrefix(lastArg(call.args), "192.168.1.") {
			probed = true
			break
		}
	}
	if !probed {
		t.Error("fallback sweep did not probe the common private ranges")
	}
}

func TestCheckStatusIdempotent(t *testing.T) {
	runner := &fakeRunner{}
	engine := newTestEngine(t, runner)

	first := engine.CheckStatus(context.Background(), "AA:BB:CC:DD:EE:FF")
	second := engine.CheckStatus(context.Background(), "AA:BB:CC:DD:EE:FF")
	if first != second {
		t.Errorf("unchanged environment must give a stable answer, got %v then %v", first, second)
	}
}

func TestCheckStatusKnownIPFastPath(t *testing.T) {
	runner := &fakeRunner{handler: func(name string, args []string) (executil.Result, error) {
		switch name {
		case "arp":
			return exitOK("10.0.0.9 ether aa:bb:cc:dd:ee:ff C eth0\n")
		case "ping":
			if lastArg(args) == "10.0.0.9" {
				return exitOK("")
			}
			return exitFail()
		}
		return notFound()
	}}
	engine := newTestEngine(t, runner)

	if online := engine.CheckStatus(context.Background(), "aa:bb:cc:dd:ee:ff"); !online {
		t.Fatal("expected online via neighbor-cache IP")
	}

	// the fast path must not have swept any range
	for _, call := range runner.callsFor("ping") {
		if lastArg(call.args) != "10.0.0.9" {
			t.Fatalf("unexpected probe of %s, fast path should target the cached IP only", lastArg(call.args))
		}
	}
}

func TestCheckStatusCachedIPReused(t *testing.T) {
	pings := 0
	runner := &fakeRunner{handler: func(name string, args []string) (executil.Result, error) {
		switch name {
		case "arp":
			return exitOK("10.0.0.9 ether aa:bb:cc:dd:ee:ff C eth0\n")
		case "ping":
			pings++
			return exitOK("")
		}
		return notFound()
	}}
	engine := newTestEngine(t, runner)

	ctx := context.Background()
	if !engine.CheckStatus(ctx, "AA:BB:CC:DD:EE:FF") {
		t.Fatal("expected online")
	}
	arpCallsAfterFirst := len(runner.callsFor("arp"))

	if !engine.CheckStatus(ctx, "AA:BB:CC:DD:EE:FF") {
		t.Fatal("expected online on second check")
	}
	if len(runner.callsFor("arp")) != arpCallsAfterFirst {
		t.Error("second check should reuse the cached IP instead of re-reading the neighbor cache")
	}
	if pings != 2 {
		t.Errorf("expected one ping per check, got %d", pings)
	}
}

func TestCheckStatusFallbackSweepFindsDevice(t *testing.T) {
	target := "AA:BB:CC:DD:EE:FF"
	runner := &fakeRunner{handler: func(name string, args []string) (executil.Result, error) {
		switch name {
		case "arping":
			if lastArg(args) == "192.168.1.5" {
				return exitOK("60 bytes from aa:bb:cc:dd:ee:ff (192.168.1.5): index=0\n")
			}
			return exitFail()
		}
		return notFound()
	}}
	engine := newTestEngine(t, runner)

	if online := engine.CheckStatus(context.Background(), target); !online {
		t.Fatal("expected the fallback sweep to find the device")
	}

	// short-circuit: nothing past the match may have been probed
	for _, call := range runner.callsFor("arping") {
		ip := lastArg(call.args)
		if strings.HasPrefix(ip, "10.0.0.") {
			t.Errorf("probed %s after the device was already found", ip)
		}
	}
}

func TestCheckStatusFallbackMACMismatch(t *testing.T) {
	// a host answers the link-layer probe but with a different MAC
	runner := &fakeRunner{handler: func(name string, args []string) (executil.Result, error) {
		if name == "arping" && lastArg(args) == "192.168.1.5" {
			return exitOK("60 bytes from 00:00:5e:00:53:01 (192.168.1.5): index=0\n")
		}
		return notFound()
	}}
	engine := newTestEngine(t, runner)

	if online := engine.CheckStatus(context.Background(), "AA:BB:CC:DD:EE:FF"); online {
		t.Fatal("a different device's MAC must not satisfy the check")
	}
}

func TestCheckStatusInvalidExplicitRange(t *testing.T) {
	// a malformed explicit range must not fail the check, only skip the
	// resolved candidate range
	settings := types.DefaultSettings()
	settings.NetworkRange = "not-a-cidr"

	runner := &fakeRunner{}
	engine := newTestEngine(t, runner, WithSettings(settings))

	if online := engine.CheckStatus(context.Background(), "AA:BB:CC:DD:EE:FF"); online {
		t.Fatal("expected offline")
	}
}
