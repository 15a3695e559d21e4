package wificonfig

import "fmt"

// State is the screen the workflow is on.
type State int

const (
	StateScanning State = iota
	StateSelectWifi
	StateInputPassword
	StateInputSSID
	StateInputManualPwd
	StateSavedList
	StateConnecting
	StateSuccess
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateScanning:
		return "scanning"
	case StateSelectWifi:
		return "select_wifi"
	case StateInputPassword:
		return "input_password"
	case StateInputSSID:
		return "input_ssid"
	case StateInputManualPwd:
		return "input_manual_pwd"
	case StateSavedList:
		return "saved_list"
	case StateConnecting:
		return "connecting"
	case StateSuccess:
		return "success"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// isTextEntry reports whether the state shows a blinking cursor.
func (s State) isTextEntry() bool {
	return s == StateInputPassword || s == StateInputSSID || s == StateInputManualPwd
}

// Result is the session outcome reported by HandleKeyEvent.
type Result int

const (
	// ResultNone means the session is still running.
	ResultNone Result = iota
	// ResultConnected means the user confirmed a successful join.
	ResultConnected
	// ResultCancelled means the session ended without a join.
	ResultCancelled
)

func (r Result) String() string {
	switch r {
	case ResultNone:
		return "none"
	case ResultConnected:
		return "connected"
	case ResultCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("result(%d)", int(r))
	}
}
