package ids

import (
	mathrand "math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0)
)

// NewLoanID gera um ULID com o instante informado. Ids gerados no mesmo
// milissegundo continuam crescentes, então ordenar por id é ordenar por inserção.
func NewLoanID(at time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(at), entropy).String()
}

// NewID gera o identificador de usuários e equipamentos
func NewID() string {
	return uuid.NewString()
}
