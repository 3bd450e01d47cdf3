// Command selfplay runs concurrent self-play games against a neural-network model, producing
// training examples and (optionally) SGF records, per spec.md section 6's CLI surface.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"k8s.io/klog/v2"

	"github.com/janpfeifer/alphago9/internal/async"
	"github.com/janpfeifer/alphago9/internal/features"
	"github.com/janpfeifer/alphago9/internal/inferencecache"
	"github.com/janpfeifer/alphago9/internal/mcts"
	"github.com/janpfeifer/alphago9/internal/model"
	"github.com/janpfeifer/alphago9/internal/outputpaths"
	"github.com/janpfeifer/alphago9/internal/profilers"
	"github.com/janpfeifer/alphago9/internal/selfplay"
	"github.com/janpfeifer/alphago9/internal/training"
	"github.com/janpfeifer/alphago9/internal/ui/spinning"
)

var (
	flagModel      = flag.String("model", "", "path or %d-pattern of the model to play against")
	flagOutputDir  = flag.String("output_dir", "", "directory (may embed $MODEL) for training examples")
	flagHoldoutDir = flag.String("holdout_dir", "", "directory for held-out training examples")
	flagSGFDir     = flag.String("sgf_dir", "", "directory (may embed $MODEL) for SGF game records")

	flagNumGames    = flag.Int("num_games", 0, "total games to play; ignored if run_forever")
	flagRunForever  = flag.Bool("run_forever", false, "keep starting new games indefinitely")
	flagBoardSize   = flag.Int("board_size", 9, "board size (9 or 19)")
	flagKomi        = flag.Float64("komi", 7.5, "komi added to White's score")

	flagParallelGames     = flag.Int("parallel_games", 16, "concurrently active games per self-play thread")
	flagParallelSearch    = flag.Int("parallel_search", 4, "ShardedExecutor shard count for leaf selection")
	flagParallelInference = flag.Int("parallel_inference", 2, "concurrent model instances in the pool")
	flagSelfplayThreads   = flag.Int("selfplay_threads", 3, "number of independent self-play threads")

	flagNumReadouts       = flag.Int("num_readouts", 400, "MCTS readouts per trainable move")
	flagVirtualLosses     = flag.Int("virtual_losses", 8, "leaves queued per batch before forcing a model call")
	flagFastplayFrequency = flag.Float64("fastplay_frequency", 0.75, "probability the next move is a fast play")
	flagFastplayReadouts  = flag.Int("fastplay_readouts", 100, "MCTS readouts for a fast-play move")

	flagDirichletAlpha    = flag.Float64("dirichlet_alpha", 0.03, "root Dirichlet noise shape parameter")
	flagNoiseMix          = flag.Float64("noise_mix", 0.25, "root noise mixing weight")
	flagValueInitPenalty  = flag.Float64("value_init_penalty", 2.0, "value-init penalty for newly expanded edges")
	flagPolicySoftmaxTemp = flag.Float64("policy_softmax_temp", 1.0, "temperature for the soft-pick policy target")

	flagHoldoutPct = flag.Float64("holdout_pct", 0.05, "fraction of finished games routed to holdout_dir")

	flagMinResignThreshold = flag.Float64("min_resign_threshold", -1.0, "most negative allowed resign threshold")
	flagMaxResignThreshold = flag.Float64("max_resign_threshold", -0.8, "least negative allowed resign threshold")
	flagDisableResignPct   = flag.Float64("disable_resign_pct", 0.1, "fraction of games that never resign")

	flagAllowPass                      = flag.Bool("allow_pass", true, "allow pass as a legal search move")
	flagRestrictPassAliveThreshold      = flag.Int("restrict_pass_alive_play_threshold", 4, "consecutive opponent passes before restricting to non-pass-alive points")
	flagMinMoveNumberForAutoPass        = flag.Int("min_move_number_for_auto_pass", 30, "move number after which an all-pass-alive board auto-passes to game over")

	flagCacheSizeMB = flag.Int("cache_size_mb", 1024, "inference cache memory budget, in MiB")
	flagCacheShards = flag.Int("cache_shards", 8, "number of independently-locked inference cache shards")

	flagFeatureKind = flag.String("feature_kind", "agz", "feature set: agz or mlperf07")

	flagAbortFile     = flag.String("abort_file", "", "if this file appears, the process terminates fatally")
	flagPollInterval  = flag.Duration("poll_interval", 5*time.Second, "directory/abort-file poll interval")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	if *flagRunForever && *flagNumGames > 0 {
		klog.Fatalf("selfplay: -run_forever and a positive -num_games are mutually exclusive")
	}
	if *flagMinResignThreshold >= 0 {
		klog.Fatalf("selfplay: -min_resign_threshold must be negative, got %v", *flagMinResignThreshold)
	}
	if *flagModel == "" {
		klog.Fatalf("selfplay: -model is required")
	}
	if *flagOutputDir == "" {
		klog.Fatalf("selfplay: -output_dir is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	spinning.SafeInterrupt(cancel, 10*time.Second)

	profilers.Setup(ctx)
	defer profilers.OnQuit()

	featureKind := features.AGZ
	if *flagFeatureKind == "mlperf07" {
		featureKind = features.Mlperf07
	}
	encoder := features.NewEncoder(featureKind)
	numMoves := (*flagBoardSize)*(*flagBoardSize) + 1

	factory := &loadOnlyFactory{descriptor: features.Descriptor{Kind: featureKind, Layout: features.NHWC}}
	reloading := model.NewReloadingBackend(factory, *flagModel)
	if _, err := reloading.CheckForNewGeneration(); err != nil {
		klog.Warningf("selfplay: no model generation found yet at startup, will poll: %v", err)
	}

	backends := make([]model.Backend, *flagParallelInference)
	for i := range backends {
		backends[i] = reloading
	}
	batcher := model.NewBatchingBackend(backends, 2, encoder.NumPlanes()*(*flagBoardSize)*(*flagBoardSize), numMoves)
	defer batcher.Close()

	modelPoller := async.NewPollThread(*flagPollInterval, func() {
		swapped, err := reloading.CheckForNewGeneration()
		if err != nil {
			klog.Warningf("selfplay: model reload check failed: %v", err)
			return
		}
		if swapped {
			batcher.SetLatestModelName(reloading.Name())
		}
	})
	defer modelPoller.Join()

	gameOptions := selfplay.Options{
		MCTS: mcts.Options{
			UCTScale:         2.0,
			ValueInitPenalty: float32(*flagValueInitPenalty),
			DirichletAlpha:   float32(*flagDirichletAlpha),
			NoiseMix:         float32(*flagNoiseMix),
			SoftPickCutoff:   30,
			Temperature:      float32(*flagPolicySoftmaxTemp),
		},
		NumReadouts:                 *flagNumReadouts,
		FastPlayReadouts:            *flagFastplayReadouts,
		FastPlayFrequency:           float32(*flagFastplayFrequency),
		VirtualLosses:               *flagVirtualLosses,
		ResignEnabled:               *flagDisableResignPct < 1.0,
		ResignThreshold:             float32((*flagMinResignThreshold + *flagMaxResignThreshold) / 2),
		AllowPass:                   *flagAllowPass,
		RestrictPassAliveThreshold:  *flagRestrictPassAliveThreshold,
		MinMoveNumberForAutoPass:    *flagMinMoveNumberForAutoPass,
		FeatureKind:                 featureKind,
		Layout:                      features.NHWC,
	}

	player := selfplay.NewSelfplayer(gameOptions, *flagBoardSize, float32(*flagKomi), *flagNumGames, *flagRunForever)
	defer player.Close()

	if *flagAbortFile != "" {
		player.StartAbortWatcher(*flagAbortFile, *flagPollInterval, func() {
			klog.Fatalf("selfplay: abort file %s detected, terminating", *flagAbortFile)
		})
	}

	var sinks []selfplay.OutputSink
	sinks = append(sinks, &selfplay.TrainingExampleSink{Sink: mustGobSink(*flagOutputDir)})
	if *flagHoldoutDir != "" {
		sinks = append(sinks, &selfplay.TrainingExampleSink{Sink: mustGobSink(*flagHoldoutDir)})
	}
	if *flagSGFDir != "" {
		sinks = append(sinks, &selfplay.SGFSink{Dir: *flagSGFDir})
	}
	outputThread := selfplay.StartOutputThread(player.OutputQueue(), sinks)
	defer outputThread.Stop()

	policySize := numMoves
	cacheCapacity := inferencecache.EstimateCapacity(*flagCacheSizeMB, policySize)
	cache := inferencecache.NewCache(*flagCacheShards, cacheCapacity)

	threads := make([]*selfplay.SelfplayThread, *flagSelfplayThreads)
	for i := range threads {
		games := make([]*selfplay.SelfplayGame, *flagParallelGames)
		threads[i] = &selfplay.SelfplayThread{
			Games:      games,
			Executor:   async.NewShardedExecutor(*flagParallelSearch),
			Cache:      cache,
			Model:      batcher,
			BoardSize:  *flagBoardSize,
			NumPlanes:  encoder.NumPlanes(),
			NumMoves:   numMoves,
			Selfplayer: player,
		}
	}

	klog.Infof("selfplay: starting %d self-play threads, %d games each", len(threads), *flagParallelGames)
	for ctx.Err() == nil {
		anyAlive := false
		for _, t := range threads {
			if err := t.Tick(); err != nil {
				klog.Fatalf("selfplay: fatal error in self-play thread: %v", err)
			}
			for _, g := range t.Games {
				if g != nil {
					anyAlive = true
				}
			}
		}
		if !anyAlive && !*flagRunForever {
			break
		}
	}

	fmt.Println("selfplay: done")
	os.Exit(0)
}

func mustGobSink(dir string) *training.GobSink {
	path := outputpaths.ExpandModel(dir, "current")
	if err := os.MkdirAll(path, 0o755); err != nil {
		klog.Fatalf("selfplay: creating output directory %s: %v", path, err)
	}
	sink, err := training.NewGobSink(path + "/examples.gob")
	if err != nil {
		klog.Fatalf("selfplay: %v", err)
	}
	return sink
}

// loadOnlyFactory is a placeholder ModelFactory: wiring an actual TensorFlow/TF-Lite/TPU loader
// is outside the core's scope (spec.md's Non-goals explicitly exclude the model runtime). The
// model package's tests exercise BatchingBackend against a FakeBackend; they do not cover
// ReloadingBackend or the polling loop.
type loadOnlyFactory struct {
	descriptor features.Descriptor
}

func (f *loadOnlyFactory) New(path string) (model.Backend, error) {
	return &model.FakeBackend{
		BackendName: path,
		Desc:        f.descriptor,
		NumMoves:    82,
		Value:       0,
	}, nil
}
