package stream

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type fakeToken struct {
	mqtt.Token
	err error
}

func (t *fakeToken) Wait() bool   { return true }
func (t *fakeToken) Error() error { return t.err }

type published struct {
	topic   string
	qos     byte
	payload []byte
}

type fakeClient struct {
	mqtt.Client
	mu         sync.Mutex
	published  []published
	publishErr error
	subscribed map[string]mqtt.MessageHandler
	subErr     error
}

func newFakeClient() *fakeClient {
	return &fakeClient{subscribed: make(map[string]mqtt.MessageHandler)}
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.published = append(c.published, published{topic: topic, qos: qos, payload: payload.([]byte)})
	return &fakeToken{err: c.publishErr}
}

func (c *fakeClient) Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.subErr == nil {
		c.subscribed[topic] = callback
	}
	return &fakeToken{err: c.subErr}
}

func (c *fakeClient) publishCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.published)
}

type fakeMessage struct {
	mqtt.Message
	topic   string
	payload []byte
}

func (m *fakeMessage) Topic() string   { return m.topic }
func (m *fakeMessage) Payload() []byte { return m.payload }

func newTestStreamer(t *testing.T) (*Streamer, *fakeClient, *Controller) {
	t.Helper()
	cfg := testConfig()
	ctrl := newTestController(t)
	client := newFakeClient()
	return NewStreamer(cfg, client, ctrl, ctrl), client, ctrl
}

func TestStreamerSendFrame(t *testing.T) {
	s, client, _ := newTestStreamer(t)
	if err := s.SendFrame(tick); err != nil {
		t.Fatalf("SendFrame: %v", err)
	}
	if len(client.published) != 1 {
		t.Fatalf("published = %d, want 1", len(client.published))
	}
	p := client.published[0]
	if p.topic != "animlayers/stream" || p.qos != 0 {
		t.Errorf("publish topic %q qos %d", p.topic, p.qos)
	}

	var f Frame
	if err := f.UnmarshalBinary(p.payload); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if len(f.Slots) != 2 || f.Slots[0].Weight != 1 {
		t.Errorf("frame = %+v", f.Slots)
	}
}

func TestStreamerSendFrameError(t *testing.T) {
	s, client, _ := newTestStreamer(t)
	client.publishErr = errors.New("broker gone")
	if err := s.SendFrame(tick); err == nil {
		t.Errorf("expected publish error")
	}
}

func TestStreamerCommands(t *testing.T) {
	s, client, ctrl := newTestStreamer(t)
	if err := s.Subscribe(); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	handler, ok := client.subscribed["animlayers/command"]
	if !ok {
		t.Fatalf("no subscription on the command topic")
	}

	handler(client, &fakeMessage{topic: "animlayers/command", payload: []byte(`{"type":"scrub","layer":1,"t":0.25}`)})
	if v := ctrl.Layers()[1].Value; v != 0.25 {
		t.Errorf("layer 1 value = %v, want 0.25", v)
	}

	// Malformed and failing commands are dropped without changing state.
	handler(client, &fakeMessage{payload: []byte(`{"type":`)})
	handler(client, &fakeMessage{payload: []byte(`{"type":"scrub","layer":9,"t":1}`)})
	if v := ctrl.Layers()[1].Value; v != 0.25 {
		t.Errorf("layer 1 value = %v, want 0.25", v)
	}

	handler(client, &fakeMessage{payload: []byte(`{"type":"addLayer","clip":"walk"}`)})
	handler(client, &fakeMessage{payload: []byte(`{"type":"addAnchor","x":1,"y":1,"layer":2}`)})
	handler(client, &fakeMessage{payload: []byte(`{"type":"removeLayer","layer":0}`)})
	if n := len(ctrl.Layers()); n != 2 {
		t.Errorf("layer count = %d, want 2", n)
	}
	if a := ctrl.Anchors(); len(a) != 3 || a[2].SourceID != 1 {
		t.Errorf("anchors = %+v", a)
	}
}

func TestStreamerThrottlesCommands(t *testing.T) {
	cfg := testConfig()
	cfg.Mqtt.CommandRate = 0.001
	cfg.Mqtt.CommandBurst = 2
	ctrl := newTestController(t)
	client := newFakeClient()
	s := NewStreamer(cfg, client, ctrl, ctrl)

	for _, v := range []string{"0.1", "0.2", "0.3"} {
		s.handleCommand(client, &fakeMessage{payload: []byte(`{"type":"scrub","layer":0,"t":` + v + `}`)})
	}
	if v := ctrl.Layers()[0].Value; v != 0.2 {
		t.Errorf("layer 0 value = %v, want 0.2 after the burst is spent", v)
	}
}

func TestStreamerSubscribeError(t *testing.T) {
	s, client, _ := newTestStreamer(t)
	client.subErr = errors.New("not authorised")
	if err := s.Subscribe(); err == nil {
		t.Errorf("expected subscribe error")
	}
}

func TestStreamerRunStopsOnCancel(t *testing.T) {
	s, client, _ := newTestStreamer(t)
	s.frameRate = 200

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for client.publishCount() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Run did not return after cancel")
	}
	if n := client.publishCount(); n < 3 {
		t.Errorf("published %d frames, want at least 3", n)
	}
}

func TestParseCommand(t *testing.T) {
	c, err := ParseCommand([]byte(`{"type":"setWeight","layer":2,"weight":0.5}`))
	if err != nil {
		t.Fatalf("ParseCommand: %v", err)
	}
	if c.Type != CmdSetWeight || c.Layer != 2 || c.Weight == nil || *c.Weight != 0.5 || c.Speed != nil {
		t.Errorf("command = %+v", c)
	}

	if _, err := ParseCommand([]byte(`{}`)); !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("err = %v, want ErrUnknownCommand", err)
	}
	if _, err := ParseCommand([]byte(`[`)); !errors.Is(err, ErrInvalidCommand) {
		t.Errorf("err = %v, want ErrInvalidCommand", err)
	}
}
