package selfplay

import (
	"math/rand"
	"sync"
	"time"

	"k8s.io/klog/v2"

	"github.com/janpfeifer/alphago9/internal/async"
)

// Selfplayer orchestrates the resources shared across a fleet of SelfplayThreads: the output
// queue draining into OutputThreads, an optional DirectoryWatcher swapping in new model
// generations, and an optional abort-file poller that terminates the process, per spec.md 4.8.
type Selfplayer struct {
	mu sync.Mutex

	GameOptions Options
	BoardSize   int
	Komi        float32

	totalGames   int
	gamesStarted int
	runForever   bool

	outputQueue *async.ThreadSafeQueue[*SelfplayGame]

	watcher      *async.DirectoryWatcher
	abortWatcher *async.PollThread
}

// NewSelfplayer builds a Selfplayer bounded to totalGames games (ignored if runForever).
func NewSelfplayer(opts Options, boardSize int, komi float32, totalGames int, runForever bool) *Selfplayer {
	return &Selfplayer{
		GameOptions: opts,
		BoardSize:   boardSize,
		Komi:        komi,
		totalGames:  totalGames,
		runForever:  runForever,
		outputQueue: async.NewThreadSafeQueue[*SelfplayGame](),
	}
}

// StartNewGame returns a freshly constructed SelfplayGame, or nil if the total game count is
// already exhausted (and the Selfplayer is not running forever).
func (s *Selfplayer) StartNewGame(verbose bool) *SelfplayGame {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.runForever && s.gamesStarted >= s.totalGames {
		return nil
	}
	s.gamesStarted++
	seed := time.Now().UnixNano() + int64(s.gamesStarted)
	rnd := rand.New(rand.NewSource(seed))
	if verbose {
		klog.V(1).Infof("selfplay: starting game %d", s.gamesStarted)
	}
	return NewSelfplayGame(s.BoardSize, s.Komi, s.GameOptions, rnd)
}

// FinishGame hands a completed game to the output queue for an OutputThread to drain.
func (s *Selfplayer) FinishGame(g *SelfplayGame) {
	s.outputQueue.Push(g)
}

// OutputQueue exposes the queue an OutputThread should Pop from.
func (s *Selfplayer) OutputQueue() *async.ThreadSafeQueue[*SelfplayGame] { return s.outputQueue }

// StartDirectoryWatcher begins watching modelDir, invoking onChange whenever a file appears --
// used to re-check for a new model generation as soon as the directory changes.
func (s *Selfplayer) StartDirectoryWatcher(modelDir string, onChange func()) error {
	w, err := async.NewDirectoryWatcher(modelDir, onChange)
	if err != nil {
		return err
	}
	s.watcher = w
	return nil
}

// StartAbortWatcher polls abortFilePath every interval; if it ever exists, onAbort is invoked
// (the caller is expected to terminate the process fatally from there, per spec.md 7's
// "abort-file trigger" exit condition).
func (s *Selfplayer) StartAbortWatcher(abortFilePath string, interval time.Duration, onAbort func()) {
	s.abortWatcher = async.NewPollThread(interval, func() {
		if fileExists(abortFilePath) {
			onAbort()
		}
	})
}

// Close stops the directory and abort watchers, if started.
func (s *Selfplayer) Close() {
	if s.watcher != nil {
		s.watcher.Close()
	}
	if s.abortWatcher != nil {
		s.abortWatcher.Join()
	}
	s.outputQueue.Close()
}
