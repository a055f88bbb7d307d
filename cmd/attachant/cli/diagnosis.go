// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"syscall"

	"github.com/bureau-foundation/attachant/lib/agent"
	"github.com/bureau-foundation/attachant/lib/attach"
	"github.com/bureau-foundation/attachant/lib/bundle"
)

// DiagnoseAttachError inspects an error from an agent operation and
// returns a categorized ToolError with an actionable hint when the
// failure has a well-known cause. Returns nil for anything else; the
// caller should report the original error unchanged.
func DiagnoseAttachError(err error) *ToolError {
	switch {
	case err == nil:
		return nil

	case errors.Is(err, attach.ErrPlatformUnsupported):
		return Forbidden("%w", err).
			WithHint("Dynamic attach needs a HotSpot JVM on Linux or macOS.")

	case errors.Is(err, attach.ErrInvalidProcessID):
		return Validation("%w", err).
			WithHint("Pass the target's numeric process id, e.g. from 'jps -l' or 'pgrep java'.")

	case errors.Is(err, attach.ErrNoSuchProcess):
		return NotFound("%w", err).
			WithHint("The target exited or never existed. List running JVMs with 'jps -l'.")

	case errors.Is(err, attach.ErrSocketOwner),
		errors.Is(err, syscall.EACCES), errors.Is(err, syscall.EPERM):
		return Forbidden("%w", err).
			WithHint("The JVM only accepts attach requests from its own user. " +
				"Run attachant as that user, e.g. 'sudo -u <user> attachant ...'.")

	case errors.Is(err, attach.ErrListenerTimeout):
		return Transient("%w", err).
			WithHint("The target did not answer the attach signal. It may be started with " +
				"-XX:+DisableAttachMechanism, or be too busy; retry with a longer --timeout.")

	case errors.Is(err, attach.ErrRequestTimeout):
		return Transient("%w", err).
			WithHint("The target accepted the attach connection but did not answer. It may be " +
				"paused at a safepoint or out of memory; retry with a longer --timeout.")

	case errors.Is(err, bundle.ErrBundleNotFound):
		return NotFound("%w", err)

	case errors.Is(err, bundle.ErrMissingEntryPointAttribute),
		errors.Is(err, bundle.ErrEntryPointUnresolvable),
		errors.Is(err, bundle.ErrMissingInitRoutine):
		return Validation("%w", err).
			WithHint("An agent bundle's manifest needs an Agent-Class attribute naming a class " +
				"in the archive with a public agentmain(String[, Instrumentation]) method.")

	case errors.Is(err, agent.ErrInvalidBundle), errors.Is(err, agent.ErrInvalidArgument):
		return Validation("%w", err)

	case errors.Is(err, agent.ErrHomeDirectoryUnavailable):
		return Internal("%w", err).
			WithHint("The target did not report java.home, so its management agent cannot be located.")

	case errors.Is(err, agent.ErrLoadFailed):
		var loadErr *attach.AgentLoadError
		if errors.As(err, &loadErr) {
			return Internal("%w", err).
				WithHint("The target loaded the bundle but the agent reported an error; " +
					"check the target's standard error for the agent's stack trace.")
		}
		return nil
	}
	return nil
}
