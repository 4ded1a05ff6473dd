package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"avatard/internal/common/fsutil"
	"avatard/internal/config"
	"avatard/internal/engine"
	"avatard/internal/gpu"
	"avatard/internal/httpapi"
	"avatard/internal/media"
	"avatard/internal/runner"
)

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	// Flags with environment variable defaults
	addr := flag.String("addr", envDefault("AVATARD_ADDR", ":8080"), "HTTP listen address, e.g. :8080")
	weightsDir := flag.String("weights-dir", envDefault("AVATARD_WEIGHTS_DIR", "~/weights/avatar"), "Directory holding model weights")
	outputDir := flag.String("output-dir", envDefault("AVATARD_OUTPUT_DIR", "./results"), "Directory for generated videos")
	configPath := flag.String("config", envDefault("AVATARD_CONFIG", ""), "Optional config file (.yaml/.json/.toml)")
	tier := flag.String("tier", envDefault("AVATARD_TIER", "auto"), "Force an operating tier, or 'auto' to detect from accelerator memory")
	resolution := flag.Int("resolution", 0, "Override output resolution (0=tier baseline)")
	clipLength := flag.Int("clip-length", 0, "Override frames per clip (0=tier baseline)")
	steps := flag.Int("steps", 0, "Override diffusion step count (0=tier baseline)")
	batchSize := flag.Int("batch-size", 0, "Override batch size (0=tier baseline)")
	maxAudioSeconds := flag.Int("max-audio-seconds", 0, "Override accepted audio length cap (0=tier baseline)")
	cpuOffload := flag.Bool("cpu-offload", false, "Force component offload to host memory between requests")
	memFraction := flag.Float64("memory-fraction", 0, "Cap on the accelerator memory share this process may claim (0=default)")
	runnerBin := flag.String("runner-bin", envDefault("AVATARD_RUNNER_BIN", ""), "Path to the model runtime binary (empty=serve status only)")
	ffmpegBin := flag.String("ffmpeg-bin", envDefault("AVATARD_FFMPEG_BIN", "ffmpeg"), "Path to the ffmpeg binary")
	smiBin := flag.String("smi-bin", envDefault("AVATARD_SMI_BIN", "nvidia-smi"), "Path to the accelerator memory query tool")
	corsEnabled := flag.Bool("cors", false, "Enable permissive CORS for browser clients")
	logLevel := flag.String("log-level", envDefault("AVATARD_LOG_LEVEL", "info"), "Log level: debug, info, warn, error")

	flag.Parse()

	lvl, err := zerolog.ParseLevel(strings.ToLower(*logLevel))
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()

	// Optional config file; flags left at their defaults take file values.
	if *configPath != "" {
		fileCfg, err := config.Load(*configPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", *configPath).Msg("load config")
		}
		applyFileConfig(fileCfg, addr, weightsDir, outputDir, tier,
			resolution, clipLength, steps, batchSize, maxAudioSeconds,
			cpuOffload, memFraction, runnerBin, ffmpegBin, smiBin)
	}

	weights, err := validateWeightsDir(*weightsDir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", *weightsDir).Msg("weights dir")
	}

	var probe gpu.Probe = gpu.NullProbe{}
	if *tier != string(engine.TierCPUOnly) {
		probe = gpu.NewSMIProbe(*smiBin)
	}

	fraction := *memFraction
	if fraction == 0 {
		fraction = engine.DefaultMemoryFraction
	}

	var pipeline engine.Pipeline
	var mover engine.Mover
	var cleaner engine.Cleaner
	var proc *runner.Process
	if *runnerBin != "" {
		proc = runner.New(*runnerBin, weights, fraction, log)
		pipeline, mover, cleaner = proc, proc, proc
	} else {
		log.Warn().Msg("no runner binary configured; generation requests will fail")
		pipeline = runner.Unavailable{}
	}

	forced := engine.Tier("")
	if *tier != "" && *tier != "auto" {
		forced = engine.Tier(*tier)
		if !forced.Valid() {
			log.Fatal().Str("tier", *tier).Msg("unknown tier")
		}
	}

	eng := engine.NewWithConfig(engine.EngineConfig{
		Probe:    probe,
		Pipeline: pipeline,
		Mover:    mover,
		Cleaner:  cleaner,
		Muxer:    &media.FFmpegMuxer{Bin: *ffmpegBin},
		Overrides: engine.Overrides{
			Resolution:      *resolution,
			ClipLength:      *clipLength,
			Steps:           *steps,
			BatchSize:       *batchSize,
			MaxAudioSeconds: *maxAudioSeconds,
			ForceOffload:    *cpuOffload,
		},
		ForcedTier:     forced,
		MemoryFraction: *memFraction,
		Logger:         log,
	})

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		log.Fatal().Err(err).Str("dir", *outputDir).Msg("create output dir")
	}

	httpapi.SetLogger(log)
	if *corsEnabled {
		httpapi.SetCORSOptions(true, []string{"*"}, nil, nil)
	}

	baseCtx, cancelBase := context.WithCancel(context.Background())
	httpapi.SetBaseContext(baseCtx)

	mux := httpapi.NewMux(eng)
	srv := &http.Server{Addr: *addr, Handler: mux}

	go func() {
		log.Info().Str("addr", *addr).Str("weights_dir", weights).Msg("avatard listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown (Ctrl+C / SIGTERM)
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	cancelBase()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("graceful shutdown")
	}
	eng.Close()
	if proc != nil {
		_ = proc.Stop()
	}
}

// validateWeightsDir expands a leading ~ and requires the directory to
// exist before the daemon starts serving.
func validateWeightsDir(dir string) (string, error) {
	expanded, err := fsutil.ExpandHome(dir)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(expanded)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", expanded)
	}
	return expanded, nil
}

// applyFileConfig fills flag values that were left at their zero defaults
// from the loaded file. Explicit flags win over the file.
func applyFileConfig(fc config.Config, addr, weightsDir, outputDir, tier *string,
	resolution, clipLength, steps, batchSize, maxAudioSeconds *int,
	cpuOffload *bool, memFraction *float64, runnerBin, ffmpegBin, smiBin *string) {

	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if !set["addr"] && fc.Addr != "" {
		*addr = fc.Addr
	}
	if !set["weights-dir"] && fc.WeightsDir != "" {
		*weightsDir = fc.WeightsDir
	}
	if !set["output-dir"] && fc.OutputDir != "" {
		*outputDir = fc.OutputDir
	}
	if !set["tier"] && fc.Tier != "" {
		*tier = fc.Tier
	}
	if !set["resolution"] && fc.Resolution != 0 {
		*resolution = fc.Resolution
	}
	if !set["clip-length"] && fc.ClipLength != 0 {
		*clipLength = fc.ClipLength
	}
	if !set["steps"] && fc.Steps != 0 {
		*steps = fc.Steps
	}
	if !set["batch-size"] && fc.BatchSize != 0 {
		*batchSize = fc.BatchSize
	}
	if !set["max-audio-seconds"] && fc.MaxAudioSeconds != 0 {
		*maxAudioSeconds = fc.MaxAudioSeconds
	}
	if !set["cpu-offload"] && fc.CPUOffload {
		*cpuOffload = true
	}
	if !set["memory-fraction"] && fc.MemoryFraction != 0 {
		*memFraction = fc.MemoryFraction
	}
	if !set["runner-bin"] && fc.RunnerBin != "" {
		*runnerBin = fc.RunnerBin
	}
	if !set["ffmpeg-bin"] && fc.FFmpegBin != "" {
		*ffmpegBin = fc.FFmpegBin
	}
	if !set["smi-bin"] && fc.SMIBin != "" {
		*smiBin = fc.SMIBin
	}
}
