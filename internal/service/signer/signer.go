package signer

import (
	"context"

	"github.com/oshokin/osx-bundler/internal/logger"
	"github.com/oshokin/osx-bundler/internal/toolchain"
)

// AdHocIdentity signs without a certificate.
const AdHocIdentity = "-"

// Signer signs bundles.
type Signer struct {
	tool toolchain.Signer
}

// New creates a Signer backed by tool.
func New(tool toolchain.Signer) *Signer {
	return &Signer{tool: tool}
}

// Sign signs target deeply with identity and reports whether it succeeded.
// An empty identity skips signing.
func (s *Signer) Sign(ctx context.Context, target, identity string) bool {
	ctx = logger.WithName(ctx, "signer")

	if identity == "" {
		logger.Info(ctx, "No signing identity given, skipping code signing")

		return false
	}

	if identity == AdHocIdentity {
		logger.InfoKV(ctx, "Signing ad hoc, the bundle will only run on this machine without a Gatekeeper prompt",
			"target", target)
	}

	result, err := s.tool.Sign(ctx, target, identity)
	if err != nil {
		logger.ErrorKV(ctx, "Unable to run codesign", "error", err)

		return false
	}

	if !result.Success() {
		logger.ErrorKV(ctx, "Code signing failed",
			"identity", identity,
			"exit_code", result.ExitCode,
			"output", result.ErrorOutput())

		return false
	}

	logger.InfoKV(ctx, "Signed bundle", "target", target, "identity", identity)

	return true
}
