package errors

import stderrors "errors"

// As and Is re-export the standard library helpers so that callers importing
// this package as "errors" keep access to them.
func As(err error, target any) bool { return stderrors.As(err, target) }

func Is(err, target error) bool { return stderrors.Is(err, target) }
