package protocol

import (
	"encoding/json"
	"fmt"

	apperrors "github.com/GriffinCanCode/speaksee/client/internal/errors"
)

type envelope struct {
	Type string `json:"type"`
}

// Decode parses one text control message. Malformed payloads and unknown
// types return a PROTOCOL AppError; callers drop the message.
func Decode(data []byte) (ServerMessage, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, apperrors.Protocol(err, "")
	}

	var msg ServerMessage
	switch env.Type {
	case TypeStatus:
		msg = &Status{}
	case TypeModels:
		msg = &Models{}
	case TypeTranscriptPartial:
		msg = &TranscriptPartial{}
	case TypeTranscriptFinal:
		msg = &TranscriptFinal{}
	case TypeGenStarted:
		msg = &GenStarted{}
	case TypeGenProgress:
		msg = &GenProgress{}
	case TypeGenResult:
		msg = &GenResult{}
	case TypeGallery:
		msg = &Gallery{}
	case TypeSaved:
		msg = &Saved{}
	case TypeError:
		msg = &Error{}
	case "":
		return nil, apperrors.Protocol(fmt.Errorf("missing type"), "")
	default:
		return nil, apperrors.Protocol(fmt.Errorf("unknown type %q", env.Type), env.Type)
	}

	if err := json.Unmarshal(data, msg); err != nil {
		return nil, apperrors.Protocol(err, env.Type)
	}
	return deref(msg), nil
}

func deref(m ServerMessage) ServerMessage {
	switch v := m.(type) {
	case *Status:
		return *v
	case *Models:
		return *v
	case *TranscriptPartial:
		return *v
	case *TranscriptFinal:
		return *v
	case *GenStarted:
		return *v
	case *GenProgress:
		return *v
	case *GenResult:
		return *v
	case *Gallery:
		return *v
	case *Saved:
		return *v
	case *Error:
		return *v
	}
	return m
}
