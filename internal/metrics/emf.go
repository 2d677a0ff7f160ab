// Package metrics emits CloudWatch Embedded Metrics Format (EMF) documents.
// Each Flush writes one JSON line to the configured output (stdout by
// default); CloudWatch Logs extracts the metrics from it.
//
// See: https://docs.aws.amazon.com/AmazonCloudWatch/latest/monitoring/CloudWatch_Embedded_Metric_Format_Specification.html
package metrics

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"sync"
	"time"
)

// Namespace is the CloudWatch namespace for reel-studio metrics.
const Namespace = "ReelStudio"

// Standard CloudWatch metric units.
const (
	UnitMilliseconds = "Milliseconds"
	UnitCount        = "Count"
	UnitBytes        = "Bytes"
	UnitNone         = "None"
)

type metricDef struct {
	Name string `json:"Name"`
	Unit string `json:"Unit"`
}

type emfDirective struct {
	Timestamp         int64      `json:"Timestamp"`
	CloudWatchMetrics []cwMetric `json:"CloudWatchMetrics"`
}

type cwMetric struct {
	Namespace  string      `json:"Namespace"`
	Dimensions [][]string  `json:"Dimensions"`
	Metrics    []metricDef `json:"Metrics"`
}

var (
	outMu  sync.Mutex
	output io.Writer = os.Stdout

	functionName string
	initOnce     sync.Once
)

// SetOutput redirects EMF lines (tests, or a log file). It returns the
// previous writer.
func SetOutput(w io.Writer) io.Writer {
	outMu.Lock()
	defer outMu.Unlock()
	prev := output
	output = w
	return prev
}

// Recorder accumulates dimensions, metrics and properties for one flush.
// Not safe for concurrent use; create one per operation.
type Recorder struct {
	namespace  string
	dimensions map[string]string
	metrics    map[string]metricDef
	values     map[string]any
	properties map[string]any
}

// New creates a Recorder. Inside Lambda the FunctionName dimension is added.
func New(namespace string) *Recorder {
	initOnce.Do(func() { functionName = os.Getenv("AWS_LAMBDA_FUNCTION_NAME") })
	r := &Recorder{
		namespace:  namespace,
		dimensions: make(map[string]string),
		metrics:    make(map[string]metricDef),
		values:     make(map[string]any),
		properties: make(map[string]any),
	}
	if functionName != "" {
		r.dimensions["FunctionName"] = functionName
	}
	return r
}

// Dimension adds an indexed key-value pair.
func (r *Recorder) Dimension(key, value string) *Recorder {
	r.dimensions[key] = value
	return r
}

// Metric records a named value with a CloudWatch unit.
func (r *Recorder) Metric(name string, value float64, unit string) *Recorder {
	r.metrics[name] = metricDef{Name: name, Unit: unit}
	r.values[name] = value
	return r
}

// Count records a count metric with value 1.
func (r *Recorder) Count(name string) *Recorder {
	return r.Metric(name, 1, UnitCount)
}

// Property adds a searchable non-metric field.
func (r *Recorder) Property(key string, value any) *Recorder {
	r.properties[key] = value
	return r
}

// Flush writes the EMF document as one line. Nothing is written when no
// metric was recorded.
func (r *Recorder) Flush() {
	if len(r.metrics) == 0 {
		return
	}

	names := make([]string, 0, len(r.metrics))
	for k := range r.metrics {
		names = append(names, k)
	}
	slices.Sort(names)
	defs := make([]metricDef, len(names))
	for i, n := range names {
		defs[i] = r.metrics[n]
	}

	dimKeys := make([]string, 0, len(r.dimensions))
	for k := range r.dimensions {
		dimKeys = append(dimKeys, k)
	}
	slices.Sort(dimKeys)

	doc := make(map[string]any, 1+len(r.dimensions)+len(r.values)+len(r.properties))
	for k, v := range r.properties {
		doc[k] = v
	}
	for k, v := range r.dimensions {
		doc[k] = v
	}
	for k, v := range r.values {
		doc[k] = v
	}
	doc["_aws"] = emfDirective{
		Timestamp: time.Now().UnixMilli(),
		CloudWatchMetrics: []cwMetric{{
			Namespace:  r.namespace,
			Dimensions: [][]string{dimKeys},
			Metrics:    defs,
		}},
	}

	data, err := json.Marshal(doc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "emf: failed to marshal metrics: %v\n", err)
		return
	}

	outMu.Lock()
	defer outMu.Unlock()
	fmt.Fprintln(output, string(data))
}

// ProviderCall records latency and outcome of one call to the video
// provider: Operation and Outcome (ok|error) dimensions, LatencyMs and
// Calls metrics.
func ProviderCall(operation, modelID string, start time.Time, err error, props map[string]any) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	r := New(Namespace).
		Dimension("Operation", operation).
		Dimension("Outcome", outcome).
		Metric("LatencyMs", float64(time.Since(start).Milliseconds()), UnitMilliseconds).
		Count("Calls").
		Property("modelId", modelID)
	for k, v := range props {
		r.Property(k, v)
	}
	if err != nil {
		r.Property("error", err.Error())
	}
	r.Flush()
}
