// Package config provides the runtime configuration for eventcore.
//
// Configuration is resolved in layers, higher layers overriding lower:
//
//	┌─────────────────────────────┐
//	│  3. Environment Variables   │  ← EVENTCORE_* (highest priority)
//	├─────────────────────────────┤
//	│  2. Config File             │  ← eventcore.toml / eventcore.yaml
//	├─────────────────────────────┤
//	│  1. Built-in Defaults       │  ← Lowest priority
//	└─────────────────────────────┘
//
// Command line flags are applied by the caller after Load returns.
//
// # Basic Usage
//
//	cfg, err := config.Load(config.Options{Path: "eventcore.toml"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	strategy, _ := dispatch.ParseStrategy(cfg.Strategy)
//
// # Environment Variables
//
// Every field can be set from the environment:
//
//	EVENTCORE_STRATEGY=reflective
//	EVENTCORE_RECOVER_PANICS=true
//	EVENTCORE_TRACING_ENABLED=true
//	EVENTCORE_TRACING_ENDPOINT=localhost:4318
//	EVENTCORE_WATCH_DIR=./inbox
//	EVENTCORE_WATCH_IGNORE=.git,*.swp
package config
