package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	musicroom "github.com/jinryan/music-room"
)

var version string

func main() {
	app := cli.NewApp()
	app.Name = "musicroom"
	app.Version = version
	app.Usage = "complexity-driven generative background music"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config,c",
			Usage: "YAML config file",
		},
		cli.Float64Flag{
			Name:  "complexity",
			Value: -1,
			Usage: "initial complexity 0-1 (overrides config)",
		},
		cli.Float64Flag{
			Name:  "bpm",
			Usage: "tempo in beats per minute (overrides config)",
		},
		cli.StringFlag{
			Name:  "key",
			Usage: "key, e.g. C or F# (overrides config)",
		},
		cli.StringFlag{
			Name:  "mode",
			Usage: "scale mode: major|minor|dorian|mixolydian|lydian",
		},
		cli.Int64Flag{
			Name:  "seed",
			Usage: "random seed for reproducible output (0 = time-based)",
		},
		cli.StringFlag{
			Name:  "listen",
			Usage: "serve the websocket complexity-control endpoint on this address, e.g. :8765",
		},
		cli.StringFlag{
			Name:  "out,o",
			Usage: "render to a WAV file instead of playing live",
		},
		cli.Float64Flag{
			Name:  "seconds",
			Value: 30,
			Usage: "length of the offline render",
		},
		cli.BoolFlag{
			Name:  "debug",
			Usage: "verbose logging",
		},
	}
	app.Action = run
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	if c.Bool("debug") {
		log.SetLevel(log.DebugLevel)
	}

	cfg := musicroom.DefaultConfig()
	if path := c.String("config"); path != "" {
		loaded, err := musicroom.LoadConfig(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if v := c.Float64("complexity"); v >= 0 {
		cfg.Complexity = v
	}
	if v := c.Float64("bpm"); v > 0 {
		cfg.BPM = v
	}
	if v := c.String("key"); v != "" {
		cfg.Key = v
	}
	if v := c.String("mode"); v != "" {
		cfg.Mode = v
	}

	if out := c.String("out"); out != "" {
		return renderFile(cfg, out, c.Float64("seconds"), c.Int64("seed"))
	}

	var opts []musicroom.EngineOption
	if seed := c.Int64("seed"); seed != 0 {
		opts = append(opts, musicroom.WithSeed(seed))
	}
	engine, err := musicroom.NewEngine(cfg, opts...)
	if err != nil {
		return err
	}
	defer engine.Close()

	engine.Start()
	if addr := c.String("listen"); addr != "" {
		go serveControl(addr, engine)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")
	return nil
}

func renderFile(cfg musicroom.Config, path string, seconds float64, seed int64) error {
	logger := log.WithFields(log.Fields{
		"function": "renderFile",
		"path":     path,
		"seconds":  seconds,
	})
	samples, err := musicroom.RenderSamples(cfg, seconds, seed)
	if err != nil {
		return err
	}
	wav := musicroom.EncodeWAVFloat32LE(samples, cfg.SampleRate, 2)
	if err := os.WriteFile(path, wav, 0644); err != nil {
		return err
	}
	logger.Info("wrote WAV")
	return nil
}

var upgrader = websocket.Upgrader{
	// The sensing app runs on a different origin (usually a browser).
	CheckOrigin: func(*http.Request) bool { return true },
}

// controlMessage is what the external sensing application pushes over the
// websocket; absent fields leave the current value alone.
type controlMessage struct {
	Complexity      *float64 `json:"complexity"`
	RestProbability *float64 `json:"rest_probability"`
}

// serveControl accepts websocket connections and applies complexity and
// rest-probability updates to the engine as they arrive.
func serveControl(addr string, engine *musicroom.Engine) {
	logger := log.WithFields(log.Fields{
		"function": "serveControl",
		"addr":     addr,
	})
	http.HandleFunc("/control", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn(err.Error())
			return
		}
		defer conn.Close()
		logger.Infof("control client connected: %s", r.RemoteAddr)
		for {
			var msg controlMessage
			if err := conn.ReadJSON(&msg); err != nil {
				logger.Debugf("control client gone: %v", err)
				return
			}
			if msg.Complexity != nil {
				engine.SetComplexity(*msg.Complexity)
				logger.Debugf("complexity -> %.2f", engine.Complexity())
			}
			if msg.RestProbability != nil {
				engine.SetRestProbability(*msg.RestProbability)
			}
		}
	})
	logger.Info("control endpoint listening")
	if err := http.ListenAndServe(addr, nil); err != nil {
		logger.Error(err.Error())
	}
}
