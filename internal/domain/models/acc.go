package models

import (
	"fmt"
	"time"
)

// AccTimestampLayout is the 14-digit timestamp of the ACC command.
const AccTimestampLayout = "20060102150405"

// MaxCheckoutID is the largest id that fits the 4-digit field of the ACC command.
const MaxCheckoutID = 9999

// AccCommand notifies the store-tracker of one completed sale on a checkout lane.
type AccCommand struct {
	CheckoutID int
	Timestamp  time.Time
}

// NewAccCommand stamps a command for the checkout with the given wall-clock time.
func NewAccCommand(checkoutID int, now time.Time) AccCommand {
	return AccCommand{CheckoutID: checkoutID, Timestamp: now}
}

// String renders the wire form: "ACC <YYYYMMDDHHMMSS><id %04d>\n".
func (c AccCommand) String() string {
	return fmt.Sprintf("ACC %s%04d\n", c.Timestamp.Format(AccTimestampLayout), c.CheckoutID)
}

// Bytes is String as bytes, ready for a single write.
func (c AccCommand) Bytes() []byte {
	return []byte(c.String())
}
