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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"

	"golang.org/x/net/publicsuffix"
)

// EventPoster POSTs results to an HTTP endpoint, as JSON.
//
// The poster keeps a cookie jar, since some event endpoints use
// cookies for session affinity.
type EventPoster struct {
	// URL is the event endpoint.
	URL string

	// Client is the underlying HTTP client.
	Client *http.Client
}

// NewEventPoster creates an EventPoster with a cookie jar.
func NewEventPoster(url string) (*EventPoster, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	return &EventPoster{
		URL: url,
		Client: &http.Client{
			Jar: jar,
		},
	}, nil
}

// Post sends one result.
func (p *EventPoster) Post(ctx context.Context, r *Result) error {
	js, err := json.Marshal(r)
	if err != nil {
		return err
	}
	req, err := http.NewRequest("POST", p.URL, bytes.NewReader(js))
	if err != nil {
		return err
	}
	req = req.WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("event post status %s", resp.Status)
	}
	return nil
}
