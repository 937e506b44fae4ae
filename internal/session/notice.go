package session

import (
	stderrors "errors"

	"google.golang.org/protobuf/encoding/protojson"

	apperrors "github.com/GriffinCanCode/speaksee/client/internal/errors"
)

// Notice is a transient message for the user.
type Notice struct {
	Text   string `json:"text"`
	Code   string `json:"code,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// Notice texts.
const (
	NoticeMicError      = "Mic error"
	NoticeMicUnavail    = "Microphone unavailable"
	NoticeMicEnabled    = "Microphone enabled"
	NoticeDisconnected  = "Disconnected. Reconnecting…"
	NoticeGenerated     = "Generated"
	NoticeSaved         = "Saved image"
	NoticeError         = "Error"
	NoticeAutoListenOn  = "Auto listen on"
	NoticeAutoListenOff = "Auto listen off"
)

func info(text string) Notice { return Notice{Text: text} }

// failure builds a notice carrying err's canonical code and ErrorInfo.
func failure(text string, err error) Notice {
	n := Notice{Text: text}
	var appErr *apperrors.AppError
	if !stderrors.As(err, &appErr) {
		return n
	}
	n.Code = appErr.GRPCCode().String()
	if b, mErr := protojson.Marshal(appErr.ToProto()); mErr == nil {
		n.Detail = string(b)
	}
	return n
}
