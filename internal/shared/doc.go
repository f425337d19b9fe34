// Package shared contains the error taxonomy used across the repository.
//
// # Error Kinds
//
// Database helpers mark the errors they return with one of the sentinel
// errors so callers can branch on the category without parsing driver
// messages:
//
//   - ErrUnavailable: the database could not be opened or pinged
//   - ErrQuery: a statement failed to execute
//   - ErrConstraint: a statement violated a constraint
//   - ErrBusy: the database file is locked by another writer
//   - ErrNotFound: a requested row does not exist
//   - ErrValidation: input validation failed
//   - ErrTimeout: an operation timed out
//
// Use KindOf to classify:
//
//	switch shared.KindOf(err) {
//	case shared.KindUnavailable:
//	    // cannot open the database file
//	case shared.KindConstraint:
//	    // duplicate id, NOT NULL violation, ...
//	default:
//	    // other failures
//	}
//
// # Kind Priority Table
//
//	Priority | Kind            | Description
//	---------|-----------------|---------------------------
//	1        | KindCanceled    | Context cancellation (highest)
//	2        | KindTimeout     | Timeout/deadline errors
//	3        | KindUnavailable | Database cannot be acquired
//	4        | KindBusy        | Locked database file
//	5        | KindConstraint  | Constraint violations
//	6        | KindNotFound    | Missing rows
//	7        | KindValidation  | Input validation failures
//	8        | KindQuery       | Any other execution failure (lowest)
//
// # Error Marking
//
// MarkKind keeps the original error in the chain:
//
//	if errors.Is(err, sql.ErrNoRows) {
//	    return shared.MarkKind(err, shared.KindNotFound)
//	}
//
//	// shared.IsNotFound(markedErr) == true
//	// errors.Is(markedErr, sql.ErrNoRows) == true
//
// # Error Message Style Guide
//
// - Use lowercase messages: "user not found" not "User not found"
// - Avoid punctuation: "invalid email format" not "Invalid email format."
// - Keep messages composable: they will often be wrapped with additional context
package shared
