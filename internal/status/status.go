package status

import "errors"

var (
	ErrInvalidSubmission     = errors.New("submit: invalid submission")
	ErrTooManyFailedSessions = errors.New("submit: too many failed sessions")
	ErrSubmissionNotFound    = errors.New("submit: user has no live submission")

	ErrInvalidBundle         = errors.New("bundle: invalid bundle")
	ErrBundleNotFound        = errors.New("bundle: bundle not found")
	ErrBundleNotOwned        = errors.New("bundle: bundle belongs to another user")
	ErrBundleDone            = errors.New("bundle: bundle already done")
	ErrBundleExhausted       = errors.New("bundle: all drops used")
	ErrBundleDropOutstanding = errors.New("bundle: a drop is already live")

	ErrNotInSession       = errors.New("test: submission is not in a session")
	ErrSessionInactive    = errors.New("test: session is no longer active")
	ErrSelfTarget         = errors.New("test: cannot test your own app")
	ErrTargetNotInSession = errors.New("test: target is not in the same session")
	ErrTargetNotAssigned  = errors.New("test: target is not assigned")
	ErrAlreadyCompleted   = errors.New("test: target already tested")

	ErrAppNotFound        = errors.New("admin: app not found")
	ErrAppInActiveSession = errors.New("admin: cannot remove an app in an active session")
	ErrUnauthorized       = errors.New("admin: unauthorized")
)

var codes = []struct {
	err  error
	code string
}{
	{ErrInvalidSubmission, "invalid_submission"},
	{ErrTooManyFailedSessions, "too_many_failed_sessions"},
	{ErrSubmissionNotFound, "no_submission"},
	{ErrInvalidBundle, "invalid_bundle"},
	{ErrBundleNotFound, "bundle_not_found"},
	{ErrBundleNotOwned, "bundle_not_owned"},
	{ErrBundleDone, "bundle_done"},
	{ErrBundleExhausted, "bundle_exhausted"},
	{ErrBundleDropOutstanding, "bundle_drop_outstanding"},
	{ErrNotInSession, "not_in_session"},
	{ErrSessionInactive, "session_inactive"},
	{ErrSelfTarget, "self_target"},
	{ErrTargetNotInSession, "target_not_in_session"},
	{ErrTargetNotAssigned, "target_not_assigned"},
	{ErrAlreadyCompleted, "already_completed"},
	{ErrAppNotFound, "app_not_found"},
	{ErrAppInActiveSession, "cannot_remove_active_session_app"},
	{ErrUnauthorized, "unauthorized"},
}

// Code returns the reason code reported to clients for a rejection, or ""
// when err is not one of the rejections above.
func Code(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return ""
}

// IsRejection reports whether err is a decision on current state rather than
// an infrastructure failure.
func IsRejection(err error) bool {
	return Code(err) != ""
}
