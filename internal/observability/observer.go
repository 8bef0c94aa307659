// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package observability

import (
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// StandardObserver implements observability for all components
type StandardObserver struct {
	level         ObservabilityLevel
	writer        io.Writer
	logger        *zap.Logger
	runID         string
	DebugObserver *DebugObserver // Reference to debug observer when in debug mode
}

type ObservabilityLevel int

const (
	ObservabilityOff     ObservabilityLevel = 0
	ObservabilityMetrics ObservabilityLevel = 1
	ObservabilityDebug   ObservabilityLevel = 2
)

// NewStandardObserver creates observability component. Operation records are
// written to writer as JSON lines.
func NewStandardObserver(level ObservabilityLevel, writer io.Writer) *StandardObserver {
	return &StandardObserver{
		level:  level,
		writer: writer,
		logger: newLogger(level, writer),
		runID:  uuid.NewString(),
	}
}

func newLogger(level ObservabilityLevel, writer io.Writer) *zap.Logger {
	if level == ObservabilityOff || writer == nil {
		return zap.NewNop()
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	minLevel := zapcore.InfoLevel
	if level == ObservabilityDebug {
		minLevel = zapcore.DebugLevel
	}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.Lock(zapcore.AddSync(writer)), minLevel)
	return zap.New(core)
}

// Logger returns the structured logger. It is never nil.
func (o *StandardObserver) Logger() *zap.Logger {
	if o == nil || o.logger == nil {
		return zap.NewNop()
	}
	return o.logger
}

// RunID identifies the process run in every record.
func (o *StandardObserver) RunID() string {
	if o == nil {
		return ""
	}
	return o.runID
}

// Level reports the configured level.
func (o *StandardObserver) Level() ObservabilityLevel {
	if o == nil {
		return ObservabilityOff
	}
	return o.level
}

// Sync flushes buffered log entries.
func (o *StandardObserver) Sync() {
	if o != nil && o.logger != nil {
		_ = o.logger.Sync()
	}
}

// StartTiming returns a function to complete timing
func (o *StandardObserver) StartTiming(component, operation, target string) func(success bool, metadata map[string]interface{}) {
	start := time.Now()

	return func(success bool, metadata map[string]interface{}) {
		data := StandardObservabilityData{
			Component:  component,
			Operation:  operation,
			Target:     target,
			DurationMs: time.Since(start).Milliseconds(),
			Success:    success,
			Metadata:   metadata,
		}
		if msg, ok := metadata["error"].(string); ok && !success {
			data.Error = msg
		}
		o.LogOperation(data)
	}
}

// LogOperation logs operation data. Successful operations are recorded at
// debug level only. Failed operations (Success false) are logged at error
// level whenever observability is on.
func (o *StandardObserver) LogOperation(data StandardObservabilityData) {
	if o == nil || o.level == ObservabilityOff {
		return
	}

	fields := []zap.Field{
		zap.String("component", data.Component),
		zap.String("operation", data.Operation),
		zap.String("run_id", o.runID),
		zap.Bool("success", data.Success),
	}
	if data.Target != "" {
		fields = append(fields, zap.String("target", data.Target))
	}
	if data.DurationMs > 0 {
		fields = append(fields, zap.Int64("duration_ms", data.DurationMs))
	}
	if data.ReviewCount > 0 {
		fields = append(fields, zap.Int("review_count", data.ReviewCount))
	}
	if len(data.Metadata) > 0 {
		fields = append(fields, zap.Any("metadata", data.Metadata))
	}

	if !data.Success {
		if data.Error != "" {
			fields = append(fields, zap.String("error", data.Error))
		}
		o.logger.Error(data.Operation, fields...)
		return
	}
	if o.level == ObservabilityDebug {
		o.logger.Debug(data.Operation, fields...)
	}
}

// StandardObservabilityData for all components
type StandardObservabilityData struct {
	Component   string                 `json:"component"`
	Operation   string                 `json:"operation"`
	Target      string                 `json:"target,omitempty"`
	DurationMs  int64                  `json:"duration_ms,omitempty"`
	Success     bool                   `json:"success"`
	Error       string                 `json:"error,omitempty"`
	ReviewCount int                    `json:"review_count,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}
