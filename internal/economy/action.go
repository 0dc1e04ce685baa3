package economy

import "fmt"

// Kind distinguishes the two action variants.
type Kind uint8

const (
	KindCreate Kind = iota
	KindTransfer
)

// String returns the name used in transaction logs.
func (k Kind) String() string {
	switch k {
	case KindCreate:
		return "Create"
	case KindTransfer:
		return "Transfer"
	}
	return "Unknown"
}

// Action is a closed sum type: Create or Transfer. Both variants are
// comparable values, so an Action can key a map.
type Action interface {
	Kind() Kind
	// Actor is the country spending resources.
	Actor() string
	// Target is the receiving country (the actor itself for Create).
	Target() string
	// Subject is the template name for Create, the resource for Transfer.
	Subject() string
	// Quantity is the multiplier for Create, the amount for Transfer.
	Quantity() float64
	String() string
	sealed()
}

// Create spends Template inputs × Multiplier and gains outputs × Multiplier.
type Create struct {
	Agent      string
	Template   string
	Multiplier float64
}

func (Create) Kind() Kind { return KindCreate }
func (c Create) Actor() string { return c.Agent }
func (c Create) Target() string { return c.Agent }
func (c Create) Subject() string { return c.Template }
func (c Create) Quantity() float64 { return c.Multiplier }
func (Create) sealed() {}
func (c Create) String() string {
	return fmt.Sprintf("Create(%s, %s, %g)", c.Agent, c.Template, c.Multiplier)
}

// Transfer moves Amount of Resource from one country to another unchanged.
type Transfer struct {
	From     string
	To       string
	Resource string
	Amount   float64
}

func (Transfer) Kind() Kind { return KindTransfer }
func (t Transfer) Actor() string { return t.From }
func (t Transfer) Target() string { return t.To }
func (t Transfer) Subject() string { return t.Resource }
func (t Transfer) Quantity() float64 { return t.Amount }
func (Transfer) sealed() {}
func (t Transfer) String() string {
	return fmt.Sprintf("Transfer(%s -> %s, %s, %g)", t.From, t.To, t.Resource, t.Amount)
}

// Debit is the delta applied to the transfer's sender.
func (t Transfer) Debit() Delta { return Delta{t.Resource: -t.Amount} }

// Credit is the delta applied to the transfer's receiver.
func (t Transfer) Credit() Delta { return Delta{t.Resource: t.Amount} }
