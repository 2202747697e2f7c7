package chatclient

import (
	"errors"
	"net/http"
)

// Action is what the user-facing layer does with a failed request.
type Action int

const (
	// ActionFault abandons the view for a generic error page. It is the
	// fallback for 5xx and every unlisted status.
	ActionFault Action = iota
	ActionLogin
	ActionNotice
)

func (a Action) String() string {
	switch a {
	case ActionLogin:
		return "login"
	case ActionNotice:
		return "notice"
	default:
		return "fault"
	}
}

const (
	NoticeNotFound     = "The requested resource was not found."
	NoticeInvalidInput = "Invalid input. Please check your data"
	NoticeUnreachable  = "Can not reach the server, retrying"
)

// Reaction pairs an action with the text shown for ActionNotice.
type Reaction struct {
	Action Action
	Notice string
}

// ClassifyStatus maps a status code and the server's message to a reaction.
// It is total: any code yields exactly one action.
func ClassifyStatus(code int, serverMessage string) Reaction {
	switch code {
	case http.StatusUnauthorized:
		return Reaction{Action: ActionLogin}
	case http.StatusNotFound:
		return Reaction{Action: ActionNotice, Notice: NoticeNotFound}
	case http.StatusBadRequest:
		if serverMessage == "" {
			serverMessage = NoticeInvalidInput
		}
		return Reaction{Action: ActionNotice, Notice: serverMessage}
	default:
		return Reaction{Action: ActionFault}
	}
}

// ClassifyError applies ClassifyStatus to a request error. Errors that are not
// a *StatusError never got a response and are shown as a passing notice.
func ClassifyError(err error) Reaction {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return ClassifyStatus(statusErr.Code, statusErr.Message)
	}
	return Reaction{Action: ActionNotice, Notice: NoticeUnreachable}
}
