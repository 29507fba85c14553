package workflow

import "errors"

// Failure kinds the orchestrator reports. External-call failures are caught
// at the component boundary and wrapped into one of these; handlers map them
// to user-visible responses and retry affordances.
var (
	// ErrAuth marks bad or missing provider credentials. Fatal for the
	// session; never retried automatically.
	ErrAuth = errors.New("workflow: authentication failed")
	// ErrStorage marks an upload/list/presign failure. Recoverable by user
	// retry.
	ErrStorage = errors.New("workflow: storage operation failed")
	// ErrJobStart marks a failed transcription submission. Recoverable
	// without re-upload.
	ErrJobStart = errors.New("workflow: transcription start failed")
	// ErrFetch marks an unreachable or malformed transcript result.
	// Recoverable by re-polling.
	ErrFetch = errors.New("workflow: transcript fetch failed")
	// ErrRewrite marks a failed chunk call. The whole rewrite aborted;
	// recoverable by retrying the full rewrite.
	ErrRewrite = errors.New("workflow: rewrite failed")
	// ErrValidation marks rejected input; retrying with the same input
	// cannot succeed.
	ErrValidation = errors.New("workflow: invalid input")

	// Missing-precondition kinds: the step was requested out of order.
	ErrNoVideo      = errors.New("workflow: no video in session")
	ErrNoJob        = errors.New("workflow: no transcription job in session")
	ErrNoTranscript = errors.New("workflow: no transcript in session")
)
