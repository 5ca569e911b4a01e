package backpack

import "context"

// UpdateResult is the outcome of an update check, consumed by the admin
// surface and by external command layers.
type UpdateResult int

const (
	// UpdateSuccess means an update was downloaded and installed.
	UpdateSuccess UpdateResult = iota
	// UpdateNoUpdate means the running build is current.
	UpdateNoUpdate
	// UpdateAvailable means a newer build exists but was not installed.
	UpdateAvailable
	// UpdateFailure means the check or the install failed.
	UpdateFailure
)

// String returns the wire representation used by the admin surface.
func (r UpdateResult) String() string {
	switch r {
	case UpdateSuccess:
		return "success"
	case UpdateNoUpdate:
		return "no_update"
	case UpdateAvailable:
		return "update_available"
	default:
		return "failure"
	}
}

// UpdateChecker is the pluggable hook an external update layer installs.
// The gateway itself performs no update checking.
type UpdateChecker func(ctx context.Context) UpdateResult
