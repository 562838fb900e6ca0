// SPDX-License-Identifier: MPL-2.0

package builder

import "fmt"

// Stage is a state of the build pipeline. Stages are only ever entered in
// declaration order; StageFailed is reachable from any of them.
type Stage int

const (
	StageStart Stage = iota
	StageConfigLoaded
	StageModulesDiscovered
	StageManifestFinalized
	StageSourceEmitted
	StageTreeTransformed
	StageDone
	StageFailed
)

var stageNames = [...]string{
	StageStart:             "START",
	StageConfigLoaded:      "CONFIG_LOADED",
	StageModulesDiscovered: "MODULES_DISCOVERED",
	StageManifestFinalized: "MANIFEST_FINALIZED",
	StageSourceEmitted:     "SOURCE_EMITTED",
	StageTreeTransformed:   "TREE_TRANSFORMED",
	StageDone:              "DONE",
	StageFailed:            "FAILED",
}

// String returns the upper-case stage name.
func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("Stage(%d)", int(s))
	}
	return stageNames[s]
}

// StageError reports the stage a failed build was trying to reach.
type StageError struct {
	Stage Stage
	Err   error
}

// Error implements the error interface.
func (e *StageError) Error() string {
	return fmt.Sprintf("build failed reaching %s: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying error.
func (e *StageError) Unwrap() error { return e.Err }
