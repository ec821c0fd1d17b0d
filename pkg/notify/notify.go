// Copyright 2026 cloudygreybeard
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package notify carries bookmark change notifications between processes
// that share a bookmark file.
//
// Every file has a channel name. Managers publish three kinds of message on
// it: a group changed, the configuration changed, or everything must be
// reloaded. Any transport that can broadcast on a named channel works; this
// package ships an in-process bus and a NATS-backed one.
package notify

import (
	"context"
	"errors"
	"strings"
)

// Topics published on a channel.
const (
	TopicBookmarksChanged = "bookmarksChanged"
	TopicConfigChanged    = "bookmarkConfigChanged"
	TopicCompleteChange   = "bookmarkCompleteChange"
)

// SubjectPrefix is the first token of every bus subject.
const SubjectPrefix = "xbel"

var (
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("notification channel closed")
	// ErrInvalidMessage is returned for messages without channel or topic.
	ErrInvalidMessage = errors.New("invalid notification message")
)

// Message is one notification.
type Message struct {
	Channel string `json:"channel"`
	Topic   string `json:"topic"`
	// Sender identifies the publishing process.
	Sender string `json:"sender"`
	// GroupAddress is set for bookmarksChanged. "" means the root.
	GroupAddress string `json:"groupAddress,omitempty"`
	// Caller is set for bookmarkCompleteChange.
	Caller string `json:"caller,omitempty"`
}

// Validate checks the fields every transport relies on.
func (m Message) Validate() error {
	if m.Channel == "" || m.Topic == "" {
		return ErrInvalidMessage
	}
	return nil
}

// Handler receives messages. Transports may call it from their own
// goroutines.
type Handler func(Message)

// Subscription is returned by Subscribe.
type Subscription interface {
	Unsubscribe() error
}

// Channel is a broadcast transport keyed by channel name.
type Channel interface {
	// Publish delivers msg to every subscriber of msg.Channel, including
	// subscribers in the publishing process.
	Publish(ctx context.Context, msg Message) error
	// Subscribe registers h for every topic of channel.
	Subscribe(channel string, h Handler) (Subscription, error)
	Close() error
}

// Subject maps a channel and topic onto a dotted subject,
// "xbel.<channel>.<topic>".
func Subject(channel, topic string) string {
	return SubjectPrefix + "." + token(channel) + "." + token(topic)
}

// token replaces characters that are not safe in a subject token.
func token(s string) string {
	if s == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, s)
}
