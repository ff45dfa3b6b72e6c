// Package engine ties the allocator and the index together behind the
// insert, remove, search and print operations.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/KevoDB/dnadb/pkg/codec"
	"github.com/KevoDB/dnadb/pkg/common/log"
	"github.com/KevoDB/dnadb/pkg/config"
	"github.com/KevoDB/dnadb/pkg/engine/interfaces"
	"github.com/KevoDB/dnadb/pkg/index"
	"github.com/KevoDB/dnadb/pkg/record"
	"github.com/KevoDB/dnadb/pkg/stats"
	"github.com/KevoDB/dnadb/pkg/storage"
	"github.com/KevoDB/dnadb/pkg/telemetry"
)

// Ensure Engine implements the Engine interface
var _ interfaces.Engine = (*Engine)(nil)

// Ensure the storage manager can back an engine
var _ interfaces.StorageManager = (*storage.Manager)(nil)

// Engine owns one backing store and one index. It is not safe for
// concurrent use.
type Engine struct {
	storage interfaces.StorageManager
	index   *index.Table
	stats   stats.Collector
	logger  log.Logger

	tel     telemetry.Telemetry
	metrics EngineMetrics

	closed atomic.Bool
}

// Open creates the backing store named by cfg and an empty index over it
func Open(cfg *config.Config, logger log.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.GetDefaultLogger()
	}

	manager, err := storage.Open(cfg.MemoryFile, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open memory file: %w", err)
	}

	eng, err := New(manager, cfg.TableSize, logger)
	if err != nil {
		manager.Close()
		return nil, err
	}

	eng.logger.Info("opened %s with %d hash slots", cfg.MemoryFile, cfg.TableSize)
	return eng, nil
}

// New creates an engine over an existing storage manager
func New(manager interfaces.StorageManager, capacity int, logger log.Logger) (*Engine, error) {
	if logger == nil {
		logger = log.GetDefaultLogger()
	}

	table, err := index.New(capacity, manager, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &Engine{
		storage: manager,
		index:   table,
		stats:   stats.NewAtomicCollector(),
		logger:  logger.WithField("component", "engine"),
		tel:     telemetry.NewNoop(),
		metrics: NewNoopEngineMetrics(),
	}, nil
}

// SetTelemetry routes spans and metrics of later operations to tel
func (e *Engine) SetTelemetry(tel telemetry.Telemetry) {
	if tel == nil {
		tel = telemetry.NewNoop()
	}
	e.tel = tel
	e.metrics = NewEngineMetrics(tel)
}

// Insert stores sequence under id. The returned result carries the
// declared and actual lengths even when the insert is rejected, so a
// mismatch can be reported either way.
func (e *Engine) Insert(id string, declaredLength int, sequence string) (result interfaces.InsertResult, err error) {
	result = interfaces.InsertResult{
		Slot:           -1,
		DeclaredLength: declaredLength,
		ActualLength:   len(sequence),
	}
	if e.closed.Load() {
		return result, ErrEngineClosed
	}

	ctx, finish := e.begin(stats.OpInsert)
	defer func() { finish(err) }()

	e.checkSymbols("id", id)
	e.checkSymbols("sequence", sequence)

	// Rejections must not consume storage
	if err := e.index.CheckInsert(id); err != nil {
		return result, err
	}

	idHandle, err := e.storage.Allocate(id)
	if err != nil {
		return result, fmt.Errorf("failed to store id %s: %w", id, err)
	}

	seqHandle, err := e.storage.Allocate(sequence)
	if err != nil {
		// The id stays allocated; the index never learns about it
		e.logger.Error("sequence for %s not stored, id block at %s leaked", id, idHandle)
		return result, fmt.Errorf("failed to store sequence for %s: %w", id, err)
	}

	slot, err := e.index.Insert(id, record.NewBundle(id, idHandle, seqHandle))
	if err != nil {
		return result, err
	}

	result.Slot = slot
	written := idHandle.ByteLen() + seqHandle.ByteLen()
	e.stats.TrackBytes(true, uint64(written))
	e.metrics.RecordBytes(ctx, string(stats.OpInsert), telemetry.DirectionWrite, written)
	e.metrics.RecordStoreSize(ctx, e.storage.Size())

	return result, nil
}

// Remove deletes id and returns the sequence it held. The id block is
// released before the sequence block.
func (e *Engine) Remove(id string) (sequence string, err error) {
	if e.closed.Load() {
		return "", ErrEngineClosed
	}

	ctx, finish := e.begin(stats.OpRemove)
	defer func() { finish(err) }()

	bundle, found, err := e.index.Remove(id)
	if err != nil {
		return "", err
	}
	if !found {
		return "", ErrNotFound
	}

	if _, err := e.storage.Release(bundle.ID); err != nil {
		return "", fmt.Errorf("failed to release id %s: %w", id, err)
	}

	data, err := e.storage.Release(bundle.Sequence)
	if err != nil {
		return "", fmt.Errorf("failed to release sequence for %s: %w", id, err)
	}

	sequence, err = codec.Decode(data, bundle.Sequence.SymbolCount)
	if err != nil {
		return "", err
	}

	e.stats.TrackBytes(false, uint64(len(data)))
	e.metrics.RecordBytes(ctx, string(stats.OpRemove), telemetry.DirectionRead, int64(len(data)))
	e.metrics.RecordStoreSize(ctx, e.storage.Size())

	return sequence, nil
}

// Search returns the sequence stored under id
func (e *Engine) Search(id string) (sequence string, err error) {
	if e.closed.Load() {
		return "", ErrEngineClosed
	}

	ctx, finish := e.begin(stats.OpSearch)
	defer func() { finish(err) }()

	bundle, found, err := e.index.Get(id)
	if err != nil {
		return "", err
	}
	if !found {
		return "", ErrNotFound
	}

	sequence, err = e.storage.ReadString(bundle.Sequence)
	if err != nil {
		return "", fmt.Errorf("failed to read sequence for %s: %w", id, err)
	}

	read := bundle.Sequence.ByteLen()
	e.stats.TrackBytes(false, uint64(read))
	e.metrics.RecordBytes(ctx, string(stats.OpSearch), telemetry.DirectionRead, read)

	return sequence, nil
}

// Print returns the live identifiers in slot order followed by the free
// blocks in offset order
func (e *Engine) Print() (report interfaces.Report, err error) {
	if e.closed.Load() {
		return interfaces.Report{}, ErrEngineClosed
	}

	_, finish := e.begin(stats.OpPrint)
	defer func() { finish(err) }()

	err = e.index.ForEach(func(slot int, b record.Bundle) error {
		id, err := e.storage.ReadString(b.ID)
		if err != nil {
			return fmt.Errorf("failed to read id at slot %d: %w", slot, err)
		}
		report.Entries = append(report.Entries, interfaces.Entry{ID: id, Slot: slot})
		return nil
	})
	if err != nil {
		return interfaces.Report{}, err
	}

	report.FreeBlocks = e.storage.FreeBlocks()
	return report, nil
}

// GetStats returns the current statistics for the engine
func (e *Engine) GetStats() map[string]interface{} {
	stats := e.stats.GetStats()

	for k, v := range e.storage.Stats() {
		stats["storage_"+k] = v
	}
	for k, v := range e.index.Stats() {
		stats["index_"+k] = v
	}

	stats["closed"] = e.closed.Load()

	return stats
}

// Close releases the backing store. Calling Close more than once is safe.
func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}

	if err := e.storage.Close(); err != nil {
		return fmt.Errorf("failed to close storage: %w", err)
	}

	e.logger.Info("engine closed")
	return nil
}

// begin tracks the start of op and returns the function that records its
// outcome
func (e *Engine) begin(op stats.OperationType) (context.Context, func(error)) {
	e.stats.TrackOperation(op)
	start := time.Now()

	ctx, span := e.tel.StartSpan(context.Background(), "dnadb.engine."+string(op),
		attribute.String(telemetry.AttrOperationType, string(op)))

	return ctx, func(err error) {
		elapsed := time.Since(start)
		e.stats.TrackLatency(op, uint64(elapsed.Nanoseconds()))

		status := e.classify(op, err)
		e.metrics.RecordOperation(ctx, string(op), elapsed, status)

		span.SetAttributes(attribute.String(telemetry.AttrStatus, status))
		if status == telemetry.StatusError {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

// classify counts the outcome of op. Misses are the expected rejections
// callers report to the user; anything else is an error.
func (e *Engine) classify(op stats.OperationType, err error) string {
	switch {
	case err == nil:
		return telemetry.StatusSuccess
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrExists), errors.Is(err, ErrBucketFull):
		e.stats.TrackMiss(op)
		return telemetry.StatusMiss
	default:
		e.stats.TrackError(string(op) + "_error")
		return telemetry.StatusError
	}
}

// checkSymbols warns about characters the codec will drop
func (e *Engine) checkSymbols(what, s string) {
	if !codec.Valid(s) {
		e.logger.WithField(what, s).Warn("%s contains characters outside ACGT; they will not be stored", what)
	}
}
