package domain

// ReviewPolicy tells whether a composite element needs a manual
// sign-off before it counts as accepted. It is configured per handler.
type ReviewPolicy struct {
	RequireReview bool
}

// Aggregate folds the statuses of non-superseded children into the
// parent's status.
//
// The fold is pure and order-insensitive: re-running it on the same
// child-status vector always yields the same result. Rules, first
// match wins:
//
//  1. failed when any child is failed
//  2. rejected when any child is rejected
//  3. running when any child is running or ready
//  4. reviewable/accepted when all children are accepted or
//     reviewable; reviewable if any child still needs sign-off or the
//     policy requires one, accepted otherwise
//  5. waiting otherwise (no children yet, or children waiting/paused)
func Aggregate(children []Status, policy ReviewPolicy) Status {
	if len(children) == 0 {
		return Waiting
	}

	var anyRejected, anyActive, anyReviewable bool
	allSettled := true
	for _, s := range children {
		switch s {
		case Failed:
			return Failed
		case Rejected:
			anyRejected = true
		case Running, Ready:
			anyActive = true
		case Reviewable:
			anyReviewable = true
		case Accepted:
			// settled
		default:
			// waiting, paused
			allSettled = false
		}
	}

	switch {
	case anyRejected:
		return Rejected
	case anyActive:
		return Running
	case allSettled && (anyReviewable || policy.RequireReview):
		return Reviewable
	case allSettled:
		return Accepted
	default:
		return Waiting
	}
}
