package main

// Build-time version identity, injected via -ldflags:
//
//	go build -ldflags="-X main.commitHash=${COMMIT_HASH} -X main.buildTime=$(date -u +%Y%m%dT%H%M%SZ)"
var (
	commitHash = "dev"
	buildTime  = "unknown"
)

func version() string { return commitHash + "@" + buildTime }
