package factor

// Rand is the random source the stochastic models draw from.
// *math/rand/v2.Rand satisfies it.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// EventKind 事件类型
type EventKind int

const (
	EventNone EventKind = iota
	EventFavorable
	EventAdverse
)

const (
	LabelFavorable = "利好政策"
	LabelAdverse   = "不利天气"
)

// Event is a one-off shock applied to a single day's change.
type Event struct {
	Kind  EventKind
	Delta float64
}

// Label returns the display label, empty for EventNone.
func (e Event) Label() string {
	switch e.Kind {
	case EventFavorable:
		return LabelFavorable
	case EventAdverse:
		return LabelAdverse
	default:
		return ""
	}
}

// event magnitude ranges, signed
var (
	favorableRange = [2]float64{-0.02, -0.005}
	adverseRange   = [2]float64{0.005, 0.02}
)

// RandomEvent 随机事件影响
func RandomEvent(r Rand, probability float64) Event {
	if r.Float64() >= probability {
		return Event{}
	}
	if r.IntN(2) == 0 {
		return Event{Kind: EventFavorable, Delta: Uniform(r, favorableRange[0], favorableRange[1])}
	}
	return Event{Kind: EventAdverse, Delta: Uniform(r, adverseRange[0], adverseRange[1])}
}

// Uniform draws from [lo, hi).
func Uniform(r Rand, lo, hi float64) float64 {
	return lo + (hi-lo)*r.Float64()
}
