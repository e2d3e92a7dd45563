// Package mocks contains generated mock implementations for testing.
//
// The mock_*.go files follow mockgen's output shape and are maintained by
// hand; the repository has no make target that regenerates them.
//
// Mocks are generated from production interfaces:
//   - internal/agent.HostAPI
//   - pkg/shadowclient.ShadowGetter
package mocks

import (
	// Import mock package to ensure it's in go.mod
	_ "go.uber.org/mock/gomock"
)
