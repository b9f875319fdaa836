package clock

import "time"

// Clock fornece o instante atual. Os serviços amostram Now uma única vez por operação.
type Clock interface {
	Now() time.Time
}

// System usa o relógio do sistema, sempre em UTC
type System struct{}

func (System) Now() time.Time {
	return time.Now().UTC()
}

// Fixed devolve sempre o mesmo instante; usado em testes
type Fixed struct {
	At time.Time
}

func (f *Fixed) Now() time.Time {
	return f.At
}

// Advance move o relógio fixo para frente
func (f *Fixed) Advance(d time.Duration) {
	f.At = f.At.Add(d)
}
