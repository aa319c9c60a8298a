package service

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Picker is the random source behind exercise selection.
type Picker interface {
	Intn(n int) int
	Shuffle(n int, swap func(i, j int))
}

// RandPicker 并发安全的随机源，seed 为 0 时按时间取种子
type RandPicker struct {
	mu sync.Mutex
	r  *rand.Rand
}

func NewRandPicker(seed uint64) *RandPicker {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &RandPicker{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (p *RandPicker) Intn(n int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.r.IntN(n)
}

func (p *RandPicker) Shuffle(n int, swap func(i, j int)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.r.Shuffle(n, swap)
}
