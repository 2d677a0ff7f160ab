package logging

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestStartupLogger_Log(t *testing.T) {
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })

	var buf bytes.Buffer
	log.Logger = zerolog.New(&buf)

	NewStartupLogger("reelctl-serve").
		Version("1.2.3").
		Resource("dynamoTables", "jobs", "reel-jobs").
		Resource("s3Buckets", "artifacts", "").
		Feature("geminiShots", true).
		Config("store", "dynamodb").
		InitDuration(25 * time.Millisecond).
		Log()

	var doc map[string]any
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("startup event is not JSON: %v\n%s", err, buf.String())
	}
	proc := doc["process"].(map[string]any)
	if proc["name"] != "reelctl-serve" || proc["version"] != "1.2.3" {
		t.Errorf("process = %v", proc)
	}
	res := doc["resources"].(map[string]any)
	if _, ok := res["s3Buckets"]; ok {
		t.Error("empty resource name should be skipped")
	}
	if res["dynamoTables"].(map[string]any)["jobs"] != "reel-jobs" {
		t.Errorf("resources = %v", res)
	}
	if doc["features"].(map[string]any)["geminiShots"] != true {
		t.Errorf("features = %v", doc["features"])
	}
}
