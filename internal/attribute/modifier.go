package attribute

import (
	"fmt"

	"github.com/google/uuid"
)

// Operation defines how a modifier combines with the attribute value.
// Values are the protocol operation codes.
type Operation int8

const (
	OpAdd        Operation = 0 // base + amount
	OpAddPercent Operation = 1 // running sum * (1 + amount)
	OpMultiply   Operation = 2 // running value * amount
)

// OperationFromWire maps a protocol operation byte to an Operation.
// Returns false for unknown codes.
func OperationFromWire(v int8) (Operation, bool) {
	switch Operation(v) {
	case OpAdd, OpAddPercent, OpMultiply:
		return Operation(v), true
	default:
		return 0, false
	}
}

// Wire returns the protocol operation byte.
func (o Operation) Wire() int8 {
	return int8(o)
}

func (o Operation) String() string {
	switch o {
	case OpAdd:
		return "add"
	case OpAddPercent:
		return "add_percent"
	case OpMultiply:
		return "multiply"
	default:
		return fmt.Sprintf("operation(%d)", int8(o))
	}
}

// Modifier is a single adjustment attached to an attribute.
// ID identifies the modifier so its owner can replace or remove it later.
type Modifier struct {
	ID        uuid.UUID
	Amount    float64
	Operation Operation
}

// NewModifier creates a modifier with a random ID.
func NewModifier(amount float64, op Operation) Modifier {
	return Modifier{ID: uuid.New(), Amount: amount, Operation: op}
}
