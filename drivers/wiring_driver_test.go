package drivers

import (
	"context"
	"strings"
	"testing"

	"github.com/eclipse/paho.golang/paho"
	"github.com/pkg/errors"

	"github.com/hubertat/rpigpio"
	"github.com/hubertat/rpigpio/command"
)

func assertBools(t testing.TB, got, want bool) {
	t.Helper()

	if got != want {
		t.Errorf("got %v want %v", got, want)
	}
}

func assertUint16Slices(t testing.TB, got, want []uint16) {
	t.Helper()

	if len(got) != len(want) {
		t.Errorf("len(got) = %d len(want) = %d", len(got), len(want))
		return
	}

	for key, val := range got {
		if want[key] != val {
			t.Errorf("for key [%d] got: %d want: %d", key, val, want[key])
		}
	}
}

func assertCommandLines(t testing.TB, rec *command.Recorder, want []string) {
	t.Helper()

	calls := rec.Calls()
	if len(calls) != len(want) {
		t.Errorf("got %d calls want %d: %v", len(calls), len(want), calls)
		return
	}
	for key, call := range calls {
		if got := strings.Join(call, " "); got != want[key] {
			t.Errorf("for call [%d] got: %q want: %q", key, got, want[key])
		}
	}
}

func newTestWiring(t testing.TB) (*WiringIO, *command.Recorder) {
	t.Helper()

	rec := &command.Recorder{}
	ctrl, err := rpigpio.New(rpigpio.ModeBCM, rec, rpigpio.WithBinary("gpio"))
	if err != nil {
		t.Fatalf("rpigpio.New returned err: %v", err)
	}
	return &WiringIO{Controller: ctrl}, rec
}

type fakePublisher struct {
	topics   []string
	payloads []string
}

func (fp *fakePublisher) Publish(topic string, payload []byte) error {
	fp.topics = append(fp.topics, topic)
	fp.payloads = append(fp.payloads, string(payload))
	return nil
}

func TestWiringSetup(t *testing.T) {
	wio, rec := newTestWiring(t)
	assertBools(t, wio.IsReady(), false)

	err := wio.Setup(context.Background(), []uint16{4, 5}, []uint16{17})
	if err != nil {
		t.Fatalf("Setup returned err: %v", err)
	}
	assertBools(t, wio.IsReady(), true)

	assertCommandLines(t, rec, []string{
		"gpio -g export 4 in",
		"gpio -g mode 4 up",
		"gpio -g export 5 in",
		"gpio -g mode 5 up",
		"gpio -g export 17 out",
	})

	inputs, outputs := wio.GetAllIo()
	assertUint16Slices(t, inputs, []uint16{4, 5})
	assertUint16Slices(t, outputs, []uint16{17})
}

func TestWiringSetupPullAndEdge(t *testing.T) {
	wio, rec := newTestWiring(t)
	wio.InputPull = rpigpio.PinModeTri
	wio.InputEdge = rpigpio.EdgeFalling

	err := wio.Setup(context.Background(), []uint16{6}, nil)
	if err != nil {
		t.Fatalf("Setup returned err: %v", err)
	}
	assertCommandLines(t, rec, []string{
		"gpio -g export 6 in",
		"gpio -g mode 6 tri",
		"gpio -g edge 6 falling",
	})
}

func TestWiringSetupErrors(t *testing.T) {
	t.Run("no controller", func(t *testing.T) {
		wio := &WiringIO{}
		if err := wio.Setup(context.Background(), nil, nil); err == nil {
			t.Error("Setup without controller returned nil error")
		}
	})

	t.Run("bad pull", func(t *testing.T) {
		wio, rec := newTestWiring(t)
		wio.InputPull = rpigpio.PinModePwm
		err := wio.Setup(context.Background(), []uint16{6}, nil)
		if !errors.Is(err, rpigpio.ErrInvalidPinMode) {
			t.Errorf("got err %v", err)
		}
		if rec.CallCount() != 0 {
			t.Errorf("executor called %d times", rec.CallCount())
		}
	})

	t.Run("command failure", func(t *testing.T) {
		wio, rec := newTestWiring(t)
		rec.Expect("gpio -g export 17 out", command.Response{Err: context.DeadlineExceeded})
		err := wio.Setup(context.Background(), nil, []uint16{17})
		if err == nil {
			t.Fatal("Setup returned nil error")
		}
		assertBools(t, wio.IsReady(), false)
	})
}

func TestWiringOutputSet(t *testing.T) {
	wio, rec := newTestWiring(t)
	wio.Setup(context.Background(), nil, []uint16{17})
	rec.Reset()

	out, err := wio.GetOutput(17)
	if err != nil {
		t.Fatalf("GetOutput returned err: %v", err)
	}
	out.Set(true)
	out.Set(false)

	assertCommandLines(t, rec, []string{
		"gpio -g write 17 1",
		"gpio -g write 17 0",
	})

	if _, err := wio.GetOutput(18); err == nil {
		t.Error("GetOutput(18) returned nil error")
	}
}

func TestWiringInvert(t *testing.T) {
	wio, rec := newTestWiring(t)
	wio.InvertInputs = true
	wio.InvertOutputs = true
	wio.Setup(context.Background(), []uint16{4}, []uint16{17})
	rec.Reset()

	rec.Expect("gpio -g read 4", command.Response{Output: "1\n"})
	rec.Expect("gpio -g read 17", command.Response{Output: "0"})

	in, _ := wio.GetInput(4)
	state, err := in.GetState()
	if err != nil {
		t.Fatalf("GetState returned err: %v", err)
	}
	assertBools(t, state, false)

	out, _ := wio.GetOutput(17)
	state, _ = out.GetState()
	assertBools(t, state, true)

	out.Set(true)
	if got := strings.Join(rec.LastCall(), " "); got != "gpio -g write 17 0" {
		t.Errorf("got %q", got)
	}
}

func TestWiringMqttHandlers(t *testing.T) {
	wio, rec := newTestWiring(t)
	wio.TopicPrefix = "pi/"
	wio.Setup(context.Background(), []uint16{4}, []uint16{17, 27})
	rec.Reset()

	pub := &fakePublisher{}
	handlers := wio.SetMqtt(pub)
	if len(handlers) != 2 {
		t.Fatalf("got %d handlers want 2", len(handlers))
	}
	if got := handlers[1].MqttSubscribeTopic(); got != "pi/27/set" {
		t.Errorf("got topic %q", got)
	}

	handlers[0].MqttHandle(&paho.Publish{Topic: "pi/17/set", Payload: []byte("ON")})
	handlers[0].MqttHandle(&paho.Publish{Topic: "pi/17/set", Payload: []byte("toggle")})

	assertCommandLines(t, rec, []string{"gpio -g write 17 1"})
	if len(pub.topics) != 1 || pub.topics[0] != "pi/17/state" || pub.payloads[0] != "1" {
		t.Errorf("unexpected publishes: %v %v", pub.topics, pub.payloads)
	}
}

func TestWiringClose(t *testing.T) {
	wio, rec := newTestWiring(t)
	if err := wio.Close(); err != nil {
		t.Errorf("Close on not ready driver returned err: %v", err)
	}
	if rec.CallCount() != 0 {
		t.Error("Close on not ready driver ran commands")
	}

	wio.Setup(context.Background(), nil, []uint16{17})
	rec.Reset()

	if err := wio.Close(); err != nil {
		t.Errorf("Close returned err: %v", err)
	}
	assertBools(t, wio.IsReady(), false)
	assertCommandLines(t, rec, []string{
		"gpio -g write 17 0",
		"gpio -g unexportall",
	})
}

func TestWiringCloseAfterFailedSetup(t *testing.T) {
	tests := []struct {
		name    string
		failing string
		outputs []uint16
		want    []string
	}{
		{"first output", "gpio -g export 6 out", []uint16{6}, []string{"gpio -g unexportall"}},
		{"second output", "gpio -g export 7 out", []uint16{6, 7}, []string{"gpio -g write 6 0", "gpio -g unexportall"}},
		{"input pull", "gpio -g mode 5 up", []uint16{6}, []string{"gpio -g unexportall"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wio, rec := newTestWiring(t)
			rec.Expect(tt.failing, command.Response{Err: errors.New("exit status 1")})

			err := wio.Setup(context.Background(), []uint16{4, 5}, tt.outputs)
			if !errors.Is(err, command.ErrCommandFailed) {
				t.Fatalf("Setup returned %v", err)
			}
			assertBools(t, wio.IsReady(), false)
			rec.Reset()

			if err := wio.Close(); err != nil {
				t.Errorf("Close returned err: %v", err)
			}
			assertCommandLines(t, rec, tt.want)

			rec.Reset()
			wio.Close()
			if rec.CallCount() != 0 {
				t.Errorf("second Close ran %d commands", rec.CallCount())
			}
		})
	}
}

func TestMapAllIoDrivers(t *testing.T) {
	mapped := MapAllIoDrivers()
	if _, ok := mapped["wiring"]; !ok {
		t.Errorf("wiring driver not mapped: %v", mapped)
	}
}
