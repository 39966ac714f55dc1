package websocket

import (
	"errors"
	"fmt"
	"math"
	"reflect"

	"github.com/mitchellh/mapstructure"

	"github.com/wricardo/mcp-training/tictactoe/game/service"
)

// Inbound event kinds.
const (
	EventCreateGame     = "createGame"
	EventJoinGame       = "joinGame"
	EventMakeMove       = "makeMove"
	EventRequestRematch = "requestRematch"
)

// EventConnected is the first frame on every connection.
const EventConnected = "connected"

var (
	ErrUnknownEvent   = errors.New("unknown event")
	ErrInvalidPayload = errors.New("invalid payload")
)

// Envelope is the shape of every inbound frame.
type Envelope struct {
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data"`
}

// Connected tells a client its connection ID.
type Connected struct {
	ConnectionID string `json:"connectionId"`
}

// decodePayload copies an envelope's data into out. Numbers must be integral
// when the target field is an integer.
func decodePayload(data map[string]interface{}, out interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: integralFloatHook,
		Result:     out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(data); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}

func integralFloatHook(from, to reflect.Type, data interface{}) (interface{}, error) {
	if from.Kind() != reflect.Float64 || to.Kind() != reflect.Int {
		return data, nil
	}
	f := data.(float64)
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%v is not an integer", f)
	}
	return int(f), nil
}

func errorMessage(err error) service.Message {
	return service.Message{Type: service.EventError, Data: service.Notice{Message: err.Error()}}
}
