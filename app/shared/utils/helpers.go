// Package utils holds the payload marshalling helpers shared by all watermill
// handlers and routers.
package utils

import (
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
)

// Helpers marshals event payloads to and from watermill messages.
type Helpers interface {
	UnmarshalPayload(msg *message.Message, target any) error
	CreateResultMessage(original *message.Message, payload any, topic string) (*message.Message, error)
}

type helpers struct{}

// NewHelpers returns the default JSON-based Helpers implementation.
func NewHelpers() Helpers {
	return helpers{}
}

func (helpers) UnmarshalPayload(msg *message.Message, target any) error {
	if err := json.Unmarshal(msg.Payload, target); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return nil
}

// CreateResultMessage builds a new message carrying the payload, propagating
// the correlation ID and recording the destination topic in metadata so the
// router can resolve where to publish it.
func (helpers) CreateResultMessage(original *message.Message, payload any, topic string) (*message.Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result payload: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.Metadata.Set("topic", topic)
	if original != nil {
		middleware.SetCorrelationID(middleware.MessageCorrelationID(original), msg)
	}
	return msg, nil
}
