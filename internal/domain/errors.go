// SPDX-License-Identifier: Apache-2.0

package domain

import "errors"

var ErrRecordNotFound = errors.New("record not found")
var ErrWorkspaceNotFound = errors.New("workspace not found")
var ErrInvalidWorkspaceName = errors.New("invalid workspace name")

var ErrUnknownArea = errors.New("unknown work area")
var ErrUnknownModel = errors.New("unknown vehicle model")
var ErrInvalidQuantity = errors.New("quantity must be at least 1")
var ErrMissingTimeSlot = errors.New("start and end times are required")
var ErrMissingVIN = errors.New("vin is required for this work area")
var ErrMissingOperator = errors.New("operator id is required for this work area")
var ErrMissingSection = errors.New("acting section is required for this work area")
var ErrMissingDefectType = errors.New("defect description is required")
var ErrMissingReleaseNote = errors.New("release note is required for offline inspection")
var ErrZeroDuration = errors.New("downtime duration must not be zero")

// ErrDuplicateEntry is the advisory duplicate warning; callers may bypass it.
var ErrDuplicateEntry = errors.New("identical entry already exists")
