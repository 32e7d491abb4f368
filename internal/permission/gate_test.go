package permission

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"go-online-store/internal/model"
	"go-online-store/pkg/apierror"
)

var allActions = []model.Action{
	model.ActionList,
	model.ActionRetrieve,
	model.ActionCreate,
	model.ActionUpdate,
	model.ActionPartialUpdate,
	model.ActionDestroy,
}

func TestMutationsRequireAuth(t *testing.T) {
	t.Parallel()

	member := &model.AuthClaims{UserID: 2, Username: "bob"}

	for _, action := range allActions {
		anonErr := MutationsRequireAuth.Check(Request{Action: action})
		authErr := MutationsRequireAuth.Check(Request{Action: action, Caller: member})

		assert.NoError(t, authErr, string(action))
		if action.IsMutation() {
			assert.True(t, apierror.HasCode(anonErr, apierror.CodeUnauthorized), string(action))
		} else {
			assert.NoError(t, anonErr, string(action))
		}
	}
}

func TestAllowAny(t *testing.T) {
	t.Parallel()

	for _, action := range allActions {
		assert.NoError(t, AllowAny.Check(Request{Action: action}))
	}
}

func TestUserGate(t *testing.T) {
	t.Parallel()

	gate := UserGate()
	staff := &model.AuthClaims{UserID: 1, Username: "admin", IsStaff: true}
	owner := &model.AuthClaims{UserID: 2, Username: "bob"}

	cases := []struct {
		name   string
		req    Request
		wantOK bool
		code   string
	}{
		{"anonymous list", Request{Action: model.ActionList}, false, apierror.CodeUnauthorized},
		{"anonymous destroy", Request{Action: model.ActionDestroy, Target: 2}, false, apierror.CodeUnauthorized},
		{"member list", Request{Action: model.ActionList, Caller: owner}, true, ""},
		{"member retrieve other", Request{Action: model.ActionRetrieve, Caller: owner, Target: 3}, true, ""},
		{"member create", Request{Action: model.ActionCreate, Caller: owner}, false, apierror.CodeForbidden},
		{"staff create", Request{Action: model.ActionCreate, Caller: staff}, true, ""},
		{"owner update self", Request{Action: model.ActionPartialUpdate, Caller: owner, Target: 2}, true, ""},
		{"owner update other", Request{Action: model.ActionUpdate, Caller: owner, Target: 3}, false, apierror.CodeForbidden},
		{"owner destroy other", Request{Action: model.ActionDestroy, Caller: owner, Target: 3}, false, apierror.CodeForbidden},
		{"staff destroy other", Request{Action: model.ActionDestroy, Caller: staff, Target: 3}, true, ""},
		{"member update unparsable id", Request{Action: model.ActionPartialUpdate, Caller: owner}, true, ""},
		{"anonymous update unparsable id", Request{Action: model.ActionPartialUpdate}, false, apierror.CodeUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := gate.Check(tc.req)
			if tc.wantOK {
				assert.NoError(t, err)
				return
			}
			assert.True(t, apierror.HasCode(err, tc.code), "got %v", err)
		})
	}
}
