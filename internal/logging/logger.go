package logging

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// sink is the state shared between a logger and everything derived from it
type sink struct {
	mu       sync.RWMutex
	adapters map[string]LogAdapter
	level    LogLevel
}

// MultiLogger fans entries out to every registered adapter
type MultiLogger struct {
	core    *sink
	context context.Context
	fields  map[string]interface{}
}

// NewMultiLogger creates a logger with no adapters at info level
func NewMultiLogger() *MultiLogger {
	return &MultiLogger{
		core: &sink{
			adapters: make(map[string]LogAdapter),
			level:    InfoLevel,
		},
		context: context.Background(),
		fields:  map[string]interface{}{},
	}
}

func (l *MultiLogger) Debug(message string, fields ...map[string]interface{}) {
	l.Log(DebugLevel, message, fields...)
}

func (l *MultiLogger) Info(message string, fields ...map[string]interface{}) {
	l.Log(InfoLevel, message, fields...)
}

func (l *MultiLogger) Warn(message string, fields ...map[string]interface{}) {
	l.Log(WarnLevel, message, fields...)
}

func (l *MultiLogger) Error(message string, fields ...map[string]interface{}) {
	l.Log(ErrorLevel, message, fields...)
}

// Fatal logs and exits the process
func (l *MultiLogger) Fatal(message string, fields ...map[string]interface{}) {
	l.Log(FatalLevel, message, fields...)
	_ = l.Close()
	os.Exit(1)
}

// Log writes a message at the given level to all adapters
func (l *MultiLogger) Log(level LogLevel, message string, fields ...map[string]interface{}) {
	l.core.mu.RLock()
	defer l.core.mu.RUnlock()

	if level < l.core.level {
		return
	}

	entry := &LogEntry{
		Level:     level,
		Message:   message,
		Timestamp: time.Now().UTC(),
		Context:   l.context,
		Fields:    l.mergeFields(fields...),
	}

	// adapters are written in name order so output is stable
	names := make([]string, 0, len(l.core.adapters))
	for name := range l.core.adapters {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := l.core.adapters[name].Write(entry); err != nil {
			fmt.Fprintf(os.Stderr, "logging adapter %s error: %v\n", name, err)
		}
	}
}

// WithContext returns a logger that tags entries with the span in ctx
func (l *MultiLogger) WithContext(ctx context.Context) Logger {
	return &MultiLogger{core: l.core, context: ctx, fields: l.copyFields()}
}

func (l *MultiLogger) WithField(key string, value interface{}) Logger {
	fields := l.copyFields()
	fields[key] = value
	return &MultiLogger{core: l.core, context: l.context, fields: fields}
}

func (l *MultiLogger) WithFields(fields map[string]interface{}) Logger {
	merged := l.copyFields()
	for k, v := range fields {
		merged[k] = v
	}
	return &MultiLogger{core: l.core, context: l.context, fields: merged}
}

func (l *MultiLogger) SetLevel(level LogLevel) {
	l.core.mu.Lock()
	defer l.core.mu.Unlock()
	l.core.level = level
}

func (l *MultiLogger) GetLevel() LogLevel {
	l.core.mu.RLock()
	defer l.core.mu.RUnlock()
	return l.core.level
}

// AddAdapter registers an adapter; names must be unique
func (l *MultiLogger) AddAdapter(adapter LogAdapter) error {
	l.core.mu.Lock()
	defer l.core.mu.Unlock()

	name := adapter.Name()
	if _, exists := l.core.adapters[name]; exists {
		return fmt.Errorf("adapter %s already exists", name)
	}
	l.core.adapters[name] = adapter
	return nil
}

// RemoveAdapter closes and unregisters an adapter
func (l *MultiLogger) RemoveAdapter(adapterName string) error {
	l.core.mu.Lock()
	defer l.core.mu.Unlock()

	adapter, exists := l.core.adapters[adapterName]
	if !exists {
		return fmt.Errorf("adapter %s not found", adapterName)
	}
	if err := adapter.Close(); err != nil {
		return fmt.Errorf("failed to close adapter %s: %w", adapterName, err)
	}
	delete(l.core.adapters, adapterName)
	return nil
}

// Close closes all adapters
func (l *MultiLogger) Close() error {
	l.core.mu.Lock()
	defer l.core.mu.Unlock()

	var errs []error
	for name, adapter := range l.core.adapters {
		if err := adapter.Close(); err != nil {
			errs = append(errs, fmt.Errorf("adapter %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

func (l *MultiLogger) copyFields() map[string]interface{} {
	fields := make(map[string]interface{}, len(l.fields))
	for k, v := range l.fields {
		fields[k] = v
	}
	return fields
}

func (l *MultiLogger) mergeFields(additional ...map[string]interface{}) map[string]interface{} {
	fields := l.copyFields()
	for _, m := range additional {
		for k, v := range m {
			fields[k] = v
		}
	}

	if sc := trace.SpanContextFromContext(l.context); sc.IsValid() {
		fields["trace_id"] = sc.TraceID().String()
		fields["span_id"] = sc.SpanID().String()
	}
	return fields
}
