package manager

import (
	"errors"
	"fmt"

	"github.com/metapkgops/metapkg/metapkg/commandmanager"
)

// ErrCapabilityNotImplemented is returned by the optional operations
// (Outdated, UpgradeCLI, UpgradeAllCLI) when the ecosystem tool has no
// equivalent. It is a result, not control flow: the batch executor records
// it per manager and moves on.
var ErrCapabilityNotImplemented = errors.New("capability not implemented")

// ErrManagerUnavailable is returned by data-returning operations invoked on
// a manager whose Available lattice is false.
var ErrManagerUnavailable = errors.New("manager not available")

// InvocationError wraps a failed external-tool call, keeping the captured
// result so stderr and the exit code surface in reports.
type InvocationError struct {
	ManagerID string
	Result    commandmanager.CommandResult
	Err       error
}

func (e *InvocationError) Error() string {
	detail := e.Result.STDERR
	if detail == "" {
		detail = e.Err.Error()
	}
	return fmt.Sprintf("%s: %s exited with %d: %s",
		e.ManagerID, e.Result.Command, e.Result.ExitCode, detail)
}

func (e *InvocationError) Unwrap() error {
	return e.Err
}
