package session

import (
	"log/slog"
	"sync"
	"time"
)

// DefaultIdleTimeout - время бездействия, после которого сессия завершается.
const DefaultIdleTimeout = 15 * time.Minute

// Activity - вид пользовательской активности, сбрасывающей таймер.
type Activity int

const (
	ActivityPointerMove Activity = iota
	ActivityKeyPress
	ActivityPointerDown
	ActivityScroll
	ActivityTouchStart
)

func (a Activity) String() string {
	switch a {
	case ActivityPointerMove:
		return "pointer-move"
	case ActivityKeyPress:
		return "key-press"
	case ActivityPointerDown:
		return "pointer-down"
	case ActivityScroll:
		return "scroll"
	case ActivityTouchStart:
		return "touch-start"
	default:
		return "unknown"
	}
}

// Timer - отменяемый отложенный вызов. *time.Timer удовлетворяет интерфейсу.
type Timer interface {
	Stop() bool
}

// Clock - источник времени и таймеров.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Guard завершает сессию после периода бездействия.
// onExpire вызывается не более одного раза на каждый Start.
type Guard struct {
	mu       sync.Mutex
	clock    Clock
	timeout  time.Duration
	onExpire func()

	timer        Timer
	generation   uint64
	running      bool
	lastActivity time.Time
}

// Option настраивает Guard.
type Option func(*Guard)

// WithClock подменяет источник времени (используется в тестах).
func WithClock(c Clock) Option {
	return func(g *Guard) { g.clock = c }
}

// NewGuard создает сторожа сессии. Таймер не запущен до вызова Start.
func NewGuard(timeout time.Duration, onExpire func(), opts ...Option) *Guard {
	if timeout <= 0 {
		timeout = DefaultIdleTimeout
	}
	g := &Guard{
		clock:    systemClock{},
		timeout:  timeout,
		onExpire: onExpire,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Start запускает таймер. Повторный вызов на запущенном стороже ничего не делает.
func (g *Guard) Start() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running {
		return
	}
	g.running = true
	g.lastActivity = g.clock.Now()
	g.arm()
	slog.Debug("Сторож сессии запущен", "timeout", g.timeout)
}

// Touch фиксирует активность и перезапускает отсчет.
// До Start и после Stop или истечения вызов игнорируется.
func (g *Guard) Touch(a Activity) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.running {
		return
	}
	g.lastActivity = g.clock.Now()
	g.arm()
	slog.Debug("Активность пользователя", "activity", a.String())
}

// Stop отменяет таймер. После Stop onExpire не будет вызван.
func (g *Guard) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.running {
		return
	}
	g.disarm()
	slog.Debug("Сторож сессии остановлен")
}

// Running сообщает, идет ли отсчет.
func (g *Guard) Running() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.running
}

// LastActivity возвращает время последней зафиксированной активности.
func (g *Guard) LastActivity() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastActivity
}

// arm вызывается под мьютексом.
func (g *Guard) arm() {
	if g.timer != nil {
		g.timer.Stop()
	}
	g.generation++
	gen := g.generation
	g.timer = g.clock.AfterFunc(g.timeout, func() { g.expire(gen) })
}

// disarm вызывается под мьютексом.
func (g *Guard) disarm() {
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
	g.generation++
	g.running = false
}

// expire игнорирует срабатывания устаревших таймеров: Stop у time.Timer
// не отменяет уже запущенный обратный вызов.
func (g *Guard) expire(gen uint64) {
	g.mu.Lock()
	if !g.running || gen != g.generation {
		g.mu.Unlock()
		return
	}
	g.disarm()
	idle := g.clock.Now().Sub(g.lastActivity)
	g.mu.Unlock()

	slog.Info("Сессия завершена по бездействию", "idle", idle)
	if g.onExpire != nil {
		g.onExpire()
	}
}
