package observability

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EventType defines the category of the log event.
type EventType string

const (
	EventTypeLLM        EventType = "llm"
	EventTypePlan       EventType = "plan"
	EventTypeTaskStatus EventType = "task_status"
	EventTypeHTTP       EventType = "http"
	EventTypeSnapshot   EventType = "snapshot"
)

// Event represents a structured log entry.
type Event struct {
	Type      EventType `json:"type"`
	PlanID    string    `json:"plan_id,omitempty"`
	TaskID    string    `json:"task_id,omitempty"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Logger emits structured JSONL events. LLM events are additionally
// appended to a size-rotated file so prompt/response pairs survive restarts.
type Logger struct {
	out        io.Writer
	llmLogPath string
	maxSize    int64
	mu         sync.Mutex
}

func NewLogger() *Logger {
	return &Logger{
		out:        os.Stdout,
		llmLogPath: filepath.Join("logs", "llm.jsonl"),
		maxSize:    10 * 1024 * 1024, // 10MB
	}
}

// SetOutput redirects event output, primarily for tests.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out = w
}

// Log emits a structured JSON event.
func (l *Logger) Log(evt Event) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	data, err := json.Marshal(evt)
	if err != nil {
		fmt.Fprintf(os.Stderr, "{\"error\": \"failed to marshal event: %v\"}\n", err)
		return
	}

	l.mu.Lock()
	fmt.Fprintln(l.out, string(data))
	l.mu.Unlock()

	if evt.Type == EventTypeLLM {
		l.writeToFile(data)
	}
}

func (l *Logger) writeToFile(data []byte) {
	if err := os.MkdirAll(filepath.Dir(l.llmLogPath), 0755); err != nil {
		log.Printf("failed to create log directory: %v", err)
		return
	}

	// Check size before writing
	info, err := os.Stat(l.llmLogPath)
	if err == nil && info.Size() > l.maxSize {
		l.rotateLogs()
	}

	f, err := os.OpenFile(l.llmLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Printf("failed to open log file: %v", err)
		return
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		log.Printf("failed to write to log file: %v", err)
	}
}

func (l *Logger) rotateLogs() {
	// Simple rotation: keep one .old file
	oldPath := l.llmLogPath + ".old"
	_ = os.Remove(oldPath)
	_ = os.Rename(l.llmLogPath, oldPath)
}

// Helper methods for common events

func (l *Logger) LogLLM(provider, goal string, ok bool, elapsed time.Duration) {
	l.Log(Event{
		Type: EventTypeLLM,
		Data: map[string]any{
			"provider":   provider,
			"goal":       goal,
			"ok":         ok,
			"elapsed_ms": elapsed.Milliseconds(),
		},
	})
}

func (l *Logger) LogPlanCreated(planID, goal string, taskCount int) {
	l.Log(Event{
		Type:   EventTypePlan,
		PlanID: planID,
		Data: map[string]any{
			"goal":       goal,
			"task_count": taskCount,
		},
	})
}

func (l *Logger) LogTaskStatus(taskID, status string) {
	l.Log(Event{
		Type:   EventTypeTaskStatus,
		TaskID: taskID,
		Data:   map[string]string{"status": status},
	})
}

func (l *Logger) LogHTTP(method, path string, status int, elapsed time.Duration) {
	l.Log(Event{
		Type: EventTypeHTTP,
		Data: map[string]any{
			"method":     method,
			"path":       path,
			"status":     status,
			"elapsed_ms": elapsed.Milliseconds(),
		},
	})
}
