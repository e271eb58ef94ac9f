package invalidation

import (
	"sync"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// generations считает сбросы по ключам. Запись ответа, построенного до
// сброса, по устаревшему номеру отклоняется.
type generations struct {
	mu     sync.Mutex
	counts map[domain.ViewKey]uint64
}

func (g *generations) current(key domain.ViewKey) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.counts[key]
}

// bump увеличивает номера ключей и под той же блокировкой выполняет purge.
func (g *generations) bump(keys []domain.ViewKey, purge func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.counts == nil {
		g.counts = make(map[domain.ViewKey]uint64)
	}
	for _, key := range keys {
		g.counts[key]++
	}
	purge()
}

// whenCurrent выполняет store, только если с момента снимка gen ключ не сбрасывался.
func (g *generations) whenCurrent(key domain.ViewKey, gen uint64, store func()) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.counts[key] != gen {
		return false
	}
	store()
	return true
}
