package physics

// Contact describes two bodies that started touching during a step.
// A and B are the colliding objects; X, Y is the contact point in world space.
type Contact struct {
	A, B any
	X, Y float64
}

// ContactListener is notified when two bodies start touching.
type ContactListener interface {
	BeginContact(c Contact)
}

// ContactListenerFunc adapts a function to ContactListener.
type ContactListenerFunc func(c Contact)

// BeginContact implements ContactListener.
func (f ContactListenerFunc) BeginContact(c Contact) {
	f(c)
}

// Listeners fans a contact out to several listeners in registration order.
type Listeners []ContactListener

// BeginContact implements ContactListener.
func (ls Listeners) BeginContact(c Contact) {
	for _, l := range ls {
		if l != nil {
			l.BeginContact(c)
		}
	}
}

// Swap returns the contact with A and B exchanged.
func (c Contact) Swap() Contact {
	return Contact{A: c.B, B: c.A, X: c.X, Y: c.Y}
}
