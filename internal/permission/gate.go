// Package permission decides, per endpoint action, whether a caller may
// proceed. Gates run before the operation is attempted.
package permission

import (
	"go-online-store/internal/model"
	"go-online-store/pkg/apierror"
)

// Request is what a gate sees: the action, the caller (nil when anonymous)
// and the target record id for record-level actions (0 otherwise).
type Request struct {
	Action model.Action
	Caller *model.AuthClaims
	Target int64
}

func (r Request) Authenticated() bool {
	return r.Caller != nil
}

type Gate interface {
	Check(req Request) error
}

// GateFunc adapts a function to Gate.
type GateFunc func(req Request) error

func (f GateFunc) Check(req Request) error {
	return f(req)
}

// AllowAny lets every caller through.
var AllowAny Gate = GateFunc(func(Request) error { return nil })

// IsAuthenticated requires an authenticated caller for every action.
var IsAuthenticated Gate = GateFunc(func(req Request) error {
	if !req.Authenticated() {
		return apierror.Unauthorized("authentication credentials were not provided")
	}
	return nil
})

// MutationsRequireAuth leaves list and retrieve open and demands an
// authenticated caller for create, update, partial_update and destroy.
var MutationsRequireAuth Gate = GateFunc(func(req Request) error {
	if !req.Action.IsMutation() {
		return nil
	}
	return IsAuthenticated.Check(req)
})

// All passes only when every gate passes, checked in order.
func All(gates ...Gate) Gate {
	return GateFunc(func(req Request) error {
		for _, g := range gates {
			if err := g.Check(req); err != nil {
				return err
			}
		}
		return nil
	})
}

// Predicate is a named condition over a gate request.
type Predicate func(req Request) bool

// Require denies with FORBIDDEN when pred is false for an authenticated
// caller, and with UNAUTHORIZED for an anonymous one.
func Require(description string, pred Predicate) Gate {
	return GateFunc(func(req Request) error {
		if pred(req) {
			return nil
		}
		if !req.Authenticated() {
			return apierror.Unauthorized("authentication credentials were not provided")
		}
		return apierror.Forbidden("permission denied: " + description)
	})
}

// IsStaff holds for staff callers.
func IsStaff(req Request) bool {
	return req.Caller != nil && req.Caller.IsStaff
}

// IsStaffOrSelf holds for staff callers and for callers acting on their own
// account.
func IsStaffOrSelf(req Request) bool {
	if IsStaff(req) {
		return true
	}
	return req.Caller != nil && req.Target != 0 && req.Caller.UserID == req.Target
}

// UserGate is the user endpoint's gate: every action needs an authenticated
// caller, creating accounts needs staff, and changing or removing an account
// needs staff or the account owner. A record action without a usable target
// id passes so the handler can answer NOT_FOUND.
func UserGate() Gate {
	return All(
		IsAuthenticated,
		Require("account owner or staff", func(req Request) bool {
			switch req.Action {
			case model.ActionCreate:
				return IsStaff(req)
			case model.ActionUpdate, model.ActionPartialUpdate, model.ActionDestroy:
				return req.Target == 0 || IsStaffOrSelf(req)
			default:
				return true
			}
		}),
	)
}
