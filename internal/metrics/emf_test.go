package metrics

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := SetOutput(&buf)
	t.Cleanup(func() { SetOutput(prev) })
	functionName = ""
	return &buf
}

func TestNew_AutoDimension(t *testing.T) {
	initOnce.Do(func() {})
	functionName = "reel-lambda"
	t.Cleanup(func() { functionName = "" })

	r := New(Namespace)
	if r.dimensions["FunctionName"] != "reel-lambda" {
		t.Errorf("FunctionName dimension = %q", r.dimensions["FunctionName"])
	}
}

func TestRecorder_FlushOutput(t *testing.T) {
	buf := capture(t)

	New(Namespace).
		Dimension("Operation", "StartAsyncInvoke").
		Metric("LatencyMs", 1234.5, UnitMilliseconds).
		Count("Calls").
		Property("sessionId", "session_abc").
		Flush()

	var doc map[string]any
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("EMF output is not JSON: %v\n%s", err, buf.String())
	}
	aws, ok := doc["_aws"].(map[string]any)
	if !ok {
		t.Fatal("missing _aws directive")
	}
	if _, ok := aws["Timestamp"]; !ok {
		t.Error("missing Timestamp")
	}
	cw := aws["CloudWatchMetrics"].([]any)[0].(map[string]any)
	if cw["Namespace"] != Namespace {
		t.Errorf("Namespace = %v", cw["Namespace"])
	}
	metrics := cw["Metrics"].([]any)
	if len(metrics) != 2 || metrics[0].(map[string]any)["Name"] != "Calls" {
		t.Errorf("metric defs not sorted: %v", metrics)
	}
	if doc["Operation"] != "StartAsyncInvoke" || doc["LatencyMs"] != 1234.5 || doc["Calls"] != float64(1) {
		t.Errorf("doc = %v", doc)
	}
	if doc["sessionId"] != "session_abc" {
		t.Errorf("sessionId = %v", doc["sessionId"])
	}
}

func TestRecorder_FlushEmpty(t *testing.T) {
	buf := capture(t)
	New("Test").Property("x", 1).Flush()
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %s", buf.String())
	}
}

func TestProviderCall(t *testing.T) {
	buf := capture(t)

	ProviderCall("GetAsyncInvoke", "amazon.nova-reel-v1:1", time.Now(), errors.New("throttled"), map[string]any{"jobId": "arn:x"})

	line := strings.TrimSpace(buf.String())
	var doc map[string]any
	if err := json.Unmarshal([]byte(line), &doc); err != nil {
		t.Fatal(err)
	}
	if doc["Outcome"] != "error" || doc["error"] != "throttled" || doc["jobId"] != "arn:x" {
		t.Errorf("doc = %v", doc)
	}
	if doc["modelId"] != "amazon.nova-reel-v1:1" {
		t.Errorf("modelId = %v", doc["modelId"])
	}
}
