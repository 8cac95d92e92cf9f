package app

import (
	"context"

	"github.com/gorilla/websocket"
)

type gorillaDialer struct{}

// NewGorillaDialer create the production websocket dialer
func NewGorillaDialer() Dialer {
	return gorillaDialer{}
}

// Dial open a websocket connection to the push gateway
func (gorillaDialer) Dial(ctx context.Context, url string) (Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}
