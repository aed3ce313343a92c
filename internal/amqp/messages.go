package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"bilan/internal/core"

	"github.com/google/uuid"
)

// Reasons carried by PeriodChangedMessage.
const (
	ReasonSale         = "sale"
	ReasonItem         = "item"
	ReasonDailyCharge  = "daily_charge"
	ReasonFixedCharges = "fixed_charges"
	ReasonSalary       = "salary"
	ReasonDayReset     = "day_reset"
	ReasonDayDeleted   = "day_deleted"
)

// PeriodChangedMessage tells the statement worker that the ledger of a
// month changed. It carries no amounts; the worker recomputes from storage.
type PeriodChangedMessage struct {
	ID        string    `json:"id"`
	Month     string    `json:"month"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

func NewPeriodChangedMessage(month core.Date, reason string) *PeriodChangedMessage {
	return &PeriodChangedMessage{
		ID:        uuid.NewString(),
		Month:     core.MonthStart(month).Format(core.MonthLayout),
		Reason:    reason,
		Timestamp: time.Now().UTC(),
	}
}

// MonthDate parses Month back into a first-of-month date.
func (m *PeriodChangedMessage) MonthDate() (core.Date, error) {
	return core.ParseMonth(m.Month)
}

func (m *PeriodChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// PeriodChangedMessageFromJSON decodes and checks a message body.
func PeriodChangedMessageFromJSON(data []byte) (*PeriodChangedMessage, error) {
	var msg PeriodChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(msg.ID); err != nil {
		return nil, fmt.Errorf("message id: %w", err)
	}
	if _, err := msg.MonthDate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
