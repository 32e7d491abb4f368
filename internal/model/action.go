package model

// Action is the operation kind a resource endpoint is serving.
type Action string

const (
	ActionList          Action = "list"
	ActionRetrieve      Action = "retrieve"
	ActionCreate        Action = "create"
	ActionUpdate        Action = "update"
	ActionPartialUpdate Action = "partial_update"
	ActionDestroy       Action = "destroy"
)

// IsMutation reports whether the action changes stored state.
func (a Action) IsMutation() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionPartialUpdate, ActionDestroy:
		return true
	default:
		return false
	}
}

// TargetsRecord reports whether the action operates on one identified record.
func (a Action) TargetsRecord() bool {
	switch a {
	case ActionRetrieve, ActionUpdate, ActionPartialUpdate, ActionDestroy:
		return true
	default:
		return false
	}
}
