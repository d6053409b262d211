package amqp

import (
	"encoding/json"
	"errors"
	"fmt"

	"billreminder/internal/notify"
)

// MessageTypeBillCreated is set as the AMQP type property of every
// bill-created notification.
const MessageTypeBillCreated = "bill.created"

// EncodeNotification converts a notification to its JSON wire form.
func EncodeNotification(m notify.Message) ([]byte, error) {
	return json.Marshal(m)
}

// DecodeNotification parses a notification and rejects ones that cannot be
// delivered.
func DecodeNotification(data []byte) (notify.Message, error) {
	var m notify.Message
	if err := json.Unmarshal(data, &m); err != nil {
		return notify.Message{}, fmt.Errorf("unmarshal notification: %w", err)
	}
	if m.ID == "" {
		return notify.Message{}, errors.New("notification has no id")
	}
	if m.To == "" {
		return notify.Message{}, errors.New("notification has no recipient")
	}
	return m, nil
}
