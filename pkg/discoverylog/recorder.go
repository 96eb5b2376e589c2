// Package discoverylog implements the optional persistence collaborator of
// the discovery engine: a fire-and-forget sink for discovery-attempt records.
// Records are batched in memory and flushed to a JSONL file; flush failures
// are logged and never surfaced, so a broken sink cannot abort or delay a
// sweep.
package discoverylog

import (
	"encoding/json"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/projectdiscovery/gologger"
	"github.com/projectdiscovery/utils/batcher"
	envutil "github.com/projectdiscovery/utils/env"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/whoshome/lanwatch/pkg/types"
)

var (
	// DefaultBatchSize is the in-memory record cap before a flush.
	DefaultBatchSize = 100
	// DefaultFlushInterval is the maximum time records sit unflushed.
	DefaultFlushInterval = 5 * time.Second
)

// GetBatchSize returns the batch size from environment or default.
func GetBatchSize() int {
	envVal := envutil.GetEnvOrDefault("LANWATCH_LOG_BATCH_SIZE", "")
	if envVal != "" {
		if size, err := strconv.Atoi(envVal); err == nil && size > 0 {
			return size
		}
	}
	return DefaultBatchSize
}

// GetFlushInterval returns the flush interval from environment or default.
func GetFlushInterval() time.Duration {
	envVal := envutil.GetEnvOrDefault("LANWATCH_LOG_FLUSH_INTERVAL", "")
	if envVal != "" {
		if interval, err := strconv.Atoi(envVal); err == nil && interval > 0 {
			return time.Duration(interval) * time.Second
		}
	}
	return DefaultFlushInterval
}

// FileRecorder appends discovery-attempt records to a JSONL file, one record
// per line, stamped with the agent's host metadata.
type FileRecorder struct {
	mu   sync.Mutex
	file *os.File
	b    *batcher.Batcher[types.DiscoveryRecord]

	agentHost string
	agentOS   string
}

// NewFileRecorder opens (or creates) path for appending and starts the
// background flush loop.
func NewFileRecorder(path string) (*FileRecorder, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	recorder := &FileRecorder{file: file}
	if info, err := host.Info(); err == nil {
		recorder.agentHost = info.Hostname
		recorder.agentOS = info.OS
	}

	recorder.b = batcher.New(
		batcher.WithMaxCapacity[types.DiscoveryRecord](GetBatchSize()),
		batcher.WithFlushInterval[types.DiscoveryRecord](GetFlushInterval()),
		batcher.WithFlushCallback[types.DiscoveryRecord](recorder.flush),
	)
	go recorder.b.Run()

	return recorder, nil
}

// Record queues a discovery record for the next flush. It never blocks the
// caller on I/O.
func (r *FileRecorder) Record(record types.DiscoveryRecord) {
	record.AgentHost = r.agentHost
	record.AgentOS = r.agentOS
	r.b.Append(record)
}

func (r *FileRecorder) flush(records []types.DiscoveryRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, record := range records {
		data, err := json.Marshal(record)
		if err != nil {
			continue
		}
		if _, err := r.file.Write(append(data, '\n')); err != nil {
			gologger.Warning().Msgf("Could not write discovery log: %s", err)
			return
		}
	}
}

// Close flushes pending records and closes the underlying file.
func (r *FileRecorder) Close() error {
	r.b.Stop()
	r.b.WaitDone()

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.file.Close()
}
