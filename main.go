package main

import (
	"context"
	"flag"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/matt-g-everett/animlayers/api"
	"github.com/matt-g-everett/animlayers/logging"
	"github.com/matt-g-everett/animlayers/observability"
	"github.com/matt-g-everett/animlayers/stream"
)

type app struct {
	Config     stream.Config
	Client     mqtt.Client
	Controller *stream.Controller
	Streamer   *stream.Streamer
	Api        *api.Api
}

func newApp(config stream.Config) (*app, error) {
	a := new(app)
	a.Config = config

	controller, err := stream.NewController(config)
	if err != nil {
		return nil, err
	}
	a.Controller = controller

	options := mqtt.NewClientOptions().
		AddBroker(config.Mqtt.URL).
		SetClientID(config.Mqtt.ClientID).
		SetUsername(config.Mqtt.Username).
		SetPassword(config.Mqtt.Password).
		SetKeepAlive(30 * time.Second).
		SetPingTimeout(5 * time.Second).
		SetAutoReconnect(true).
		SetOnConnectHandler(a.handleOnConnect).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.Warn().Err(err).Msg("mqtt connection lost")
		})
	a.Client = mqtt.NewClient(options)
	a.Streamer = stream.NewStreamer(config, a.Client, controller, controller)
	a.Api = api.NewApi(config.API.Addr, controller, "client/dist")
	return a, nil
}

func (a *app) handleOnConnect(client mqtt.Client) {
	log.Info().Str("broker", a.Config.Mqtt.URL).Msg("Connected")
	if err := a.Streamer.Subscribe(); err != nil {
		log.Error().Err(err).Msg("command subscription failed")
	}
}

func (a *app) run(ctx context.Context) error {
	if token := a.Client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer a.Client.Disconnect(250)

	go func() {
		if err := a.Api.Serve(ctx); err != nil {
			log.Error().Err(err).Msg("api stopped")
		}
	}()

	a.Streamer.Run(ctx)
	return nil
}

func main() {
	configPath := flag.String("config", "config.yaml", "YAML config file.")
	flag.Parse()

	logging.ConfigureRuntime()
	gin.SetMode(gin.ReleaseMode)
	observability.RegisterMetrics()
	mqtt.ERROR = stdlog.New(os.Stderr, "mqtt ", 0)

	config, err := stream.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("config")
	}
	log.Info().
		Str("broker", config.Mqtt.URL).
		Float64("frameRate", config.FrameRate).
		Int("layers", len(config.Layers)).
		Int("anchors", len(config.Anchors)).
		Msg("config loaded")

	a, err := newApp(config)
	if err != nil {
		log.Fatal().Err(err).Msg("startup")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.run(ctx); err != nil {
		log.Fatal().Err(err).Msg("run")
	}
	log.Info().Msg("stopped")
}
