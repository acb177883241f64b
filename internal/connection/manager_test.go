package connection

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/alireza787b/mavsdk-vtol-transition/internal/link"
	"github.com/alireza787b/mavsdk-vtol-transition/pkg/errors"
	"github.com/alireza787b/mavsdk-vtol-transition/pkg/protocol"
)

func connConfig(endpoint string) *protocol.Config {
	cfg := &protocol.Config{}
	cfg.Transition.CycleInterval = 0.1
	cfg.Connection.Endpoint = endpoint
	cfg.Connection.Attempts = 3
	cfg.Connection.Backoff = 0.001
	return cfg
}

func TestScheme(t *testing.T) {
	cases := map[string]string{
		"sim://":              "sim",
		"udp://:14540":        "udp",
		"serial:///dev/ttyS0": "serial",
		"sim":                 "sim",
	}
	for in, want := range cases {
		if got := Scheme(in); got != want {
			t.Errorf("Scheme(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestConnect_Sim(t *testing.T) {
	v, err := Connect(context.Background(), connConfig("sim://"))
	if err != nil {
		t.Fatal(err)
	}
	if v == nil {
		t.Fatal("nil vehicle")
	}
	if _, ok := v.Latest(); !ok {
		t.Error("sim link returned no sample")
	}
}

func TestConnect_UnknownScheme(t *testing.T) {
	_, err := Connect(context.Background(), connConfig("carrier-pigeon://"))
	var te *errors.TransitionError
	if !stderrors.As(err, &te) || te.Code != errors.ErrCodeConnectionFailed {
		t.Fatalf("expected connection-failed error, got %v", err)
	}
}

func TestConnect_RetriesThenSucceeds(t *testing.T) {
	calls := 0
	Register("flaky", func(_ context.Context, cfg *protocol.Config) (Vehicle, error) {
		calls++
		if calls < 3 {
			return nil, fmt.Errorf("attempt %d refused", calls)
		}
		return link.NewSim(cfg.Transition.Interval()), nil
	})

	v, err := Connect(context.Background(), connConfig("flaky://"))
	if err != nil {
		t.Fatal(err)
	}
	if v == nil || calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestConnect_ExhaustsAttempts(t *testing.T) {
	calls := 0
	cause := fmt.Errorf("link down")
	Register("down", func(context.Context, *protocol.Config) (Vehicle, error) {
		calls++
		return nil, cause
	})

	_, err := Connect(context.Background(), connConfig("down://"))
	var te *errors.TransitionError
	if !stderrors.As(err, &te) || te.Code != errors.ErrCodeConnectionFailed {
		t.Fatalf("expected connection-failed error, got %v", err)
	}
	if !stderrors.Is(err, cause) {
		t.Error("last dial error not wrapped")
	}
	if calls != 3 {
		t.Errorf("calls = %d, want configured 3", calls)
	}
}

func TestConnect_CancelledDuringBackoff(t *testing.T) {
	Register("slow", func(context.Context, *protocol.Config) (Vehicle, error) {
		return nil, fmt.Errorf("refused")
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := connConfig("slow://")
	cfg.Connection.Backoff = 10 // seconds; cancellation must cut the wait short

	start := time.Now()
	_, err := Connect(ctx, cfg)
	if time.Since(start) > 2*time.Second {
		t.Fatal("cancellation did not interrupt the backoff wait")
	}
	var te *errors.TransitionError
	if !stderrors.As(err, &te) || te.Code != errors.ErrCodeConnectionFailed {
		t.Fatalf("expected connection-failed error, got %v", err)
	}
}
