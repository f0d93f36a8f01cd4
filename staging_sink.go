package logger

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/kangzehao/high-performance-logger/internal/chunk"
	"github.com/kangzehao/high-performance-logger/internal/compress"
	"github.com/kangzehao/high-performance-logger/internal/crypt"
	"github.com/kangzehao/high-performance-logger/internal/executor"
	"github.com/kangzehao/high-performance-logger/internal/mmap"
	"github.com/kangzehao/high-performance-logger/internal/record"
)

// Staging cache file names under Config.Dir. They persist across restarts;
// leftovers are drained during construction.
const (
	activeCacheName  = "master_cache"
	standbyCacheName = "slave_cache"
)

// swapRatio is the active-buffer fill ratio that triggers a swap and drain.
const swapRatio = 0.8

// formatBufPool recycles record-marshalling scratch buffers across calling
// threads.
var formatBufPool = sync.Pool{
	New: func() any { return make([]byte, 0, 512) },
}

// StagingSink runs the write pipeline: record → streaming compression →
// session encryption → memory-mapped staging buffer. When the active buffer
// passes swapRatio it is swapped with the drained standby buffer and a drain
// task appends the staged bytes, as one chunk, to the current rotated file.
// A repeated task sweeps old files to keep the directory under TotalSize.
//
// The mutex covers compression, encryption and staging of each record
// (formatting runs before it is taken), so record order in the stream is
// the order in which Log calls acquire the mutex. Drains and sweeps share one single-goroutine
// runner; at most one drain is ever in flight.
type StagingSink struct {
	conf Config

	mu      sync.Mutex
	active  *mmap.Region
	standby *mmap.Region

	standbyFree atomic.Bool

	comp   compress.Compressor
	cipher crypt.Cipher
	pubKey []byte // our ephemeral public key, framed into every chunk

	exec    *executor.Executor
	runner  executor.TaskRunnerTag
	sweepID executor.RepeatedTaskID

	// Touched only on the drain runner.
	logPath string
}

// NewStagingSink derives the session keys, opens the staging buffers,
// recovers data a previous process left behind, and starts the retention
// sweep. Construction errors are fatal; a sink either works or is not built.
func NewStagingSink(conf Config) (*StagingSink, error) {
	conf = conf.withDefaults()
	if err := os.MkdirAll(conf.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("staging sink: create dir: %w", err)
	}

	priv, pub, err := crypt.GenerateKeyPair()
	if err != nil {
		return nil, fmt.Errorf("staging sink: %w", err)
	}
	peer, err := crypt.DecodeHexKey(conf.PubKey)
	if err != nil {
		return nil, fmt.Errorf("staging sink: peer key: %w", err)
	}
	secret, err := crypt.SharedSecret(priv, peer)
	if err != nil {
		return nil, fmt.Errorf("staging sink: %w", err)
	}
	cipher, err := crypt.NewAES(secret)
	if err != nil {
		return nil, fmt.Errorf("staging sink: %w", err)
	}
	comp, err := compress.NewZstd()
	if err != nil {
		return nil, fmt.Errorf("staging sink: %w", err)
	}

	active, err := mmap.Open(filepath.Join(conf.Dir, activeCacheName))
	if err != nil {
		return nil, fmt.Errorf("staging sink: %w", err)
	}
	standby, err := mmap.Open(filepath.Join(conf.Dir, standbyCacheName))
	if err != nil {
		active.Close()
		return nil, fmt.Errorf("staging sink: %w", err)
	}

	s := &StagingSink{
		conf:    conf,
		active:  active,
		standby: standby,
		comp:    comp,
		cipher:  cipher,
		pubKey:  pub,
		exec:    executor.Default(),
	}
	s.runner = s.exec.NewTaskRunner()
	s.standbyFree.Store(true)

	s.recover()

	s.sweepID = s.exec.PostRepeated(s.runner, s.removeOldFiles, conf.Interval, -1)
	return s, nil
}

// recover drains whatever a crashed predecessor staged. The standby file
// goes first; if the active file also has data it is swapped over and
// drained as a second chunk.
func (s *StagingSink) recover() {
	if !s.standby.Empty() {
		s.standbyFree.Store(false)
		s.scheduleDrain()
		s.exec.WaitIdle(s.runner)
	}
	if !s.active.Empty() {
		s.trySwap()
		s.scheduleDrain()
	}
}

// Log formats, compresses, encrypts, and stages one event. It never returns
// an error: per-record failures are reported to the diagnostic log and the
// record is dropped while the sink stays up.
func (s *StagingSink) Log(msg LogMsg) {
	buf := formatBufPool.Get().([]byte)
	rec := record.New(int32(msg.Level), msg.Location.File, msg.Location.Line, msg.Location.Func, []byte(msg.Message))
	data := rec.Marshal(buf[:0])

	s.mu.Lock()
	if s.active.Empty() {
		// First record of a chunk starts a fresh compressor stream so the
		// chunk decodes on its own.
		s.comp.Reset()
	}
	compressed, err := s.comp.Compress(data)
	if err != nil || len(compressed) == 0 {
		s.mu.Unlock()
		formatBufPool.Put(data[:0])
		log.Printf("staging sink: compress failed, record dropped: %v", err)
		return
	}
	encrypted, err := s.cipher.Encrypt(compressed)
	if err != nil {
		s.mu.Unlock()
		formatBufPool.Put(data[:0])
		log.Printf("staging sink: encrypt failed, record dropped: %v", err)
		return
	}
	s.writeToCache(encrypted)
	s.mu.Unlock()
	formatBufPool.Put(data[:0])

	if s.needSwap() {
		// With the standby busy the swap fails and the active buffer keeps
		// absorbing records, growing past the ratio until a drain frees it.
		s.trySwap()
		s.scheduleDrain()
	}
}

// Flush synchronously pushes accepted records to disk: drain the standby,
// then swap the active buffer over and drain again. When both buffers were
// drainable at entry, no accepted record remains staged on return.
func (s *StagingSink) Flush() {
	s.scheduleDrain()
	s.exec.WaitIdle(s.runner)

	s.trySwap()
	s.scheduleDrain()
	s.exec.WaitIdle(s.runner)
}

// Close flushes, stops the retention sweep, and releases the staging
// mappings. The cache files stay on disk for the next instance.
func (s *StagingSink) Close() error {
	s.exec.CancelRepeated(s.sweepID)
	s.Flush()

	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.active.Close()
	if e := s.standby.Close(); err == nil {
		err = e
	}
	return err
}

// writeToCache appends {ItemFrame, ciphertext} to the active buffer.
// Callers hold s.mu.
func (s *StagingSink) writeToCache(ciphertext []byte) {
	framed := chunk.AppendItemFrame(nil, uint32(len(ciphertext)))
	if err := s.active.Push(framed); err != nil {
		log.Printf("staging sink: stage frame: %v", err)
		return
	}
	if err := s.active.Push(ciphertext); err != nil {
		log.Printf("staging sink: stage record: %v", err)
	}
}

func (s *StagingSink) needSwap() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active.Ratio() > swapRatio
}

// trySwap exchanges the buffers if the standby is free, marking it busy.
// Flag and pointers change under one mutex hold, so a concurrent drain sees
// them consistently.
func (s *StagingSink) trySwap() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.standbyFree.CompareAndSwap(true, false) {
		return false
	}
	s.active, s.standby = s.standby, s.active
	return true
}

func (s *StagingSink) scheduleDrain() {
	s.exec.Post(s.runner, s.drainStandby)
}

// drainStandby appends the standby buffer to the current rotated file as one
// chunk. It runs on the sink's runner, so drains are serialized. While the
// standby is marked busy (standbyFree false) no swap can happen, which keeps
// the snapshot below valid until it is marked free again.
func (s *StagingSink) drainStandby() {
	s.mu.Lock()
	if s.standbyFree.Load() {
		s.mu.Unlock()
		return
	}
	standby := s.standby
	s.mu.Unlock()

	if standby.Empty() {
		s.standbyFree.Store(true)
		return
	}

	path := s.currentFilePath()
	header := chunk.AppendHeader(nil, uint64(standby.Size()), s.pubKey)

	if err := appendFile(path, header, standby.Data()); err != nil {
		// Accepted trade-off: no retry. The standby is marked free without
		// being cleared, so the next swap makes it the active buffer with
		// these bytes still at its front.
		log.Printf("staging sink: drain to %s failed: %v", path, err)
		s.standbyFree.Store(true)
		return
	}

	standby.Clear()
	s.standbyFree.Store(true)
}

// appendFile writes header+payload with a single append per drain.
func appendFile(path string, header, payload []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(header); err != nil {
		f.Close()
		return err
	}
	if _, err := f.Write(payload); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
