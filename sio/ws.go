/* Copyright 2019-2020 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package sio

import (
	"context"
	"encoding/json"
	"log"
	"net/url"

	"github.com/gorilla/websocket"
)

// WebSocket is a Couplings that dials a downchannel URL: directives
// arrive as text messages, results are written back.
type WebSocket struct {
	// URL is the downchannel, say "ws://localhost:8080/directives".
	URL string

	conn *websocket.Conn
}

// Start dials the downchannel.
func (s *WebSocket) Start(ctx context.Context) error {
	u, err := url.Parse(s.URL)
	if err != nil {
		return err
	}
	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return err
	}
	s.conn = c
	return nil
}

// Stop closes the connection, which also terminates the reader.
func (s *WebSocket) Stop(ctx context.Context) error {
	return s.conn.Close()
}

// IO starts the reader and writer.
func (s *WebSocket) IO(ctx context.Context) (chan *Input, chan *Result, error) {
	in := make(chan *Input)
	out := make(chan *Result)

	go func() {
		for {
			select {
			case <-ctx.Done():
				log.Printf("WebSocket reader closing per ctx")
				return
			default:
			}

			_, message, err := s.conn.ReadMessage()
			if err != nil {
				log.Printf("WebSocket read error %s", err)
				return
			}
			parsed, err := ParseInput(message)
			if err != nil {
				log.Printf("WebSocket input error %s on %s", err, message)
				continue
			}
			select {
			case <-ctx.Done():
				return
			case in <- parsed:
			}
		}
	}()

	go func() {
		for {
			select {
			case <-ctx.Done():
				log.Printf("WebSocket writer closing per ctx")
				return
			case r := <-out:
				if r == nil {
					return
				}
				js, err := json.Marshal(r)
				if err != nil {
					log.Printf("WebSocket result Marshal error %s on %#v", err, r)
					continue
				}
				if err = s.conn.WriteMessage(websocket.TextMessage, js); err != nil {
					log.Printf("WebSocket write error %s", err)
				}
			}
		}
	}()

	return in, out, nil
}
