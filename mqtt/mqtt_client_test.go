package mqtt

import (
	"testing"

	"github.com/eclipse/paho.golang/paho"
)

type recordingHandler struct {
	topic    string
	received []string
}

func (rh *recordingHandler) MqttSubscribeTopic() string {
	return rh.topic
}

func (rh *recordingHandler) MqttHandle(pub *paho.Publish) {
	rh.received = append(rh.received, string(pub.Payload))
}

func TestNewMqttClient(t *testing.T) {
	mc, err := NewMqttClient("mqtt://10.0.0.5:1883", "rpigpio-test")
	if err != nil {
		t.Fatalf("NewMqttClient returned err: %v", err)
	}
	if got := mc.config.ClientConfig.ClientID; got != "rpigpio-test" {
		t.Errorf("got client id %q", got)
	}
	if got := mc.config.ServerUrls[0].Host; got != "10.0.0.5:1883" {
		t.Errorf("got host %q", got)
	}

	for _, broker := range []string{"", "10.0.0.5:1883", "::"} {
		if _, err := NewMqttClient(broker, "x"); err == nil {
			t.Errorf("NewMqttClient(%q) returned nil error", broker)
		}
	}
}

func TestRoute(t *testing.T) {
	mc, _ := NewMqttClient("mqtt://localhost:1883", "rpigpio-test")
	first := &recordingHandler{topic: "rpigpio/17/set"}
	second := &recordingHandler{topic: "rpigpio/27/set"}
	mc.setHandlers([]MqttHandler{first, second})

	if !mc.route(&paho.Publish{Topic: "rpigpio/17/set", Payload: []byte("1")}) {
		t.Error("route did not handle subscribed topic")
	}
	if mc.route(&paho.Publish{Topic: "rpigpio/99/set", Payload: []byte("1")}) {
		t.Error("route handled unknown topic")
	}

	recv := mc.onPublishRecv()[0]
	handled, err := recv(paho.PublishReceived{Packet: &paho.Publish{Topic: "rpigpio/27/set", Payload: []byte("off")}})
	if !handled || err != nil {
		t.Errorf("publish callback returned (%v, %v)", handled, err)
	}

	if len(first.received) != 1 || first.received[0] != "1" {
		t.Errorf("first handler got %v", first.received)
	}
	if len(second.received) != 1 || second.received[0] != "off" {
		t.Errorf("second handler got %v", second.received)
	}

	if got := len(mc.topics()); got != 2 {
		t.Errorf("got %d topics want 2", got)
	}
}

func TestPublishNotConnected(t *testing.T) {
	mc, _ := NewMqttClient("mqtt://localhost:1883", "rpigpio-test")
	if err := mc.Publish("rpigpio/17/state", []byte("1")); err == nil {
		t.Error("Publish without connection returned nil error")
	}
}
