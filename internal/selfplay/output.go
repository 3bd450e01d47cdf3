package selfplay

import (
	"os"

	"k8s.io/klog/v2"

	"github.com/janpfeifer/alphago9/internal/async"
	"github.com/janpfeifer/alphago9/internal/training"
)

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// OutputSink is what an OutputThread drains finished games into: typically a training.OutputSink
// plus an SGF writer, but kept abstract so tests can substitute a recorder.
type OutputSink interface {
	WriteGame(g *SelfplayGame) error
}

// TrainingExampleSink adapts a training.OutputSink into an OutputSink by converting each
// finished game's trainable moves into training.Examples before writing them.
type TrainingExampleSink struct {
	Sink training.OutputSink
}

func (s *TrainingExampleSink) WriteGame(g *SelfplayGame) error {
	examples := g.Examples()
	if len(examples) == 0 {
		return nil
	}
	return s.Sink.WriteExamples(examples)
}

// OutputThread drains a Selfplayer's output queue, handing every finished game to each
// registered sink. A single failed write is logged and treated as non-fatal, per spec.md 7's
// "self-play treats a single failed SGF write as non-fatal" error-taxonomy note, generalized to
// any output sink.
type OutputThread struct {
	queue *async.ThreadSafeQueue[*SelfplayGame]
	sinks []OutputSink
	done  chan struct{}
}

// StartOutputThread starts a goroutine draining queue into sinks until the queue is closed.
func StartOutputThread(queue *async.ThreadSafeQueue[*SelfplayGame], sinks []OutputSink) *OutputThread {
	t := &OutputThread{queue: queue, sinks: sinks, done: make(chan struct{})}
	go t.loop()
	return t
}

func (t *OutputThread) loop() {
	defer close(t.done)
	for {
		g, ok := t.queue.Pop()
		if !ok {
			return
		}
		for _, sink := range t.sinks {
			if err := sink.WriteGame(g); err != nil {
				klog.Warningf("selfplay: output sink failed for finished game: %v", err)
			}
		}
	}
}

// Stop blocks until the output thread's goroutine has drained the queue and exited (the queue
// itself must already be closed, typically via Selfplayer.Close).
func (t *OutputThread) Stop() {
	<-t.done
}
