package telemetry

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

var (
	mu      sync.Mutex
	out     io.Writer // nil writes to the current os.Stdout
	service string
)

// SetOutput redirects log lines, returning the previous writer.
func SetOutput(w io.Writer) io.Writer {
	mu.Lock()
	defer mu.Unlock()
	prev := out
	out = w
	return prev
}

// SetService stamps every following line with the service name.
func SetService(name string) {
	mu.Lock()
	service = name
	mu.Unlock()
}

func Info(msg string, fields map[string]any) {
	write("info", msg, fields)
}

// Warn is for degraded but handled paths, such as a fallback recommendation.
func Warn(msg string, fields map[string]any) {
	write("warn", msg, fields)
}

func Error(msg string, fields map[string]any) {
	write("error", msg, fields)
}

func write(level, msg string, fields map[string]any) {
	ts := time.Now().UTC().Format(time.RFC3339Nano)
	entry := make(map[string]any, len(fields)+4)
	for k, v := range fields {
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		entry[k] = v
	}
	entry["ts"] = ts
	entry["level"] = level
	entry["msg"] = msg

	mu.Lock()
	defer mu.Unlock()
	w := out
	if w == nil {
		w = os.Stdout
	}
	if service != "" {
		entry["service"] = service
	}
	data, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(w, "{\"ts\":%q,\"level\":\"error\",\"msg\":\"log encode failed\",\"event\":%q,\"err\":%q}\n", ts, msg, err.Error())
		return
	}
	data = append(data, '\n')
	_, _ = w.Write(data)
}
