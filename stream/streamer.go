package stream

import (
	"context"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/matt-g-everett/animlayers/observability"
)

// Streamer publishes frames over MQTT and feeds received commands to a
// Commander.
type Streamer struct {
	client       mqtt.Client
	animation    Animation
	commander    Commander
	limiter      *rate.Limiter
	streamTopic  string
	commandTopic string
	frameRate    float64
}

// NewStreamer creates an instance of a Streamer.
func NewStreamer(config Config, client mqtt.Client, animation Animation, commander Commander) *Streamer {
	s := new(Streamer)
	s.client = client
	s.animation = animation
	s.commander = commander
	s.streamTopic = config.Mqtt.Topics.Stream
	s.commandTopic = config.Mqtt.Topics.Command
	limit := rate.Limit(config.Mqtt.CommandRate)
	if limit <= 0 {
		limit = rate.Inf
	}
	s.limiter = rate.NewLimiter(limit, config.Mqtt.CommandBurst)
	s.frameRate = config.FrameRate
	if s.frameRate <= 0 {
		s.frameRate = 60
	}
	return s
}

// Subscribe listens for commands. Call it from the client's on-connect
// handler so the subscription survives reconnects.
func (s *Streamer) Subscribe() error {
	if token := s.client.Subscribe(s.commandTopic, 0, s.handleCommand); token.Wait() && token.Error() != nil {
		return fmt.Errorf("stream: subscribe %s: %w", s.commandTopic, token.Error())
	}
	log.Info().Str("topic", s.commandTopic).Msg("stream: subscribed to commands")
	return nil
}

func (s *Streamer) handleCommand(client mqtt.Client, msg mqtt.Message) {
	if !s.limiter.Allow() {
		observability.RecordCommand("mqtt", "throttled", false)
		log.Warn().Str("topic", msg.Topic()).Msg("stream: command rate exceeded")
		return
	}
	cmd, err := ParseCommand(msg.Payload())
	if err != nil {
		observability.RecordCommand("mqtt", "invalid", false)
		log.Warn().Err(err).Str("topic", msg.Topic()).Msg("stream: dropping command")
		return
	}
	// Apply logs its own failures.
	_ = s.commander.Apply("mqtt", cmd)
}

// SendFrame advances the animation by dt seconds and publishes the frame.
func (s *Streamer) SendFrame(dt float64) error {
	f := s.animation.CalculateFrame(dt)
	b, err := f.MarshalBinary()
	if err != nil {
		observability.RecordFrame(false)
		return err
	}

	token := s.client.Publish(s.streamTopic, 0, false, b)
	token.Wait()
	if err := token.Error(); err != nil {
		observability.RecordFrame(false)
		return fmt.Errorf("stream: publish %s: %w", s.streamTopic, err)
	}
	observability.RecordFrame(true)
	return nil
}

// Run sends frames at the configured frame rate until ctx is cancelled.
func (s *Streamer) Run(ctx context.Context) {
	period := time.Duration(float64(time.Second) / s.frameRate)
	publishTimer := time.NewTicker(period)
	defer publishTimer.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-publishTimer.C:
			dt := now.Sub(last).Seconds()
			last = now
			if err := s.SendFrame(dt); err != nil {
				log.Warn().Err(err).Msg("stream: frame not sent")
			}
		}
	}
}
