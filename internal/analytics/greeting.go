package analytics

import "time"

const (
	Night Greeting = iota
	Morning
	Day
	Evening
)

// Greeting is the part of the day a dashboard greets the user for.
type Greeting int

// GreetingFor buckets t by hour: [6,12) morning, [12,18) day, [18,22)
// evening, anything else night.
func GreetingFor(t time.Time) Greeting {
	switch h := t.Hour(); {
	case h >= 6 && h < 12:
		return Morning
	case h >= 12 && h < 18:
		return Day
	case h >= 18 && h < 22:
		return Evening
	default:
		return Night
	}
}

func (g Greeting) String() string {
	switch g {
	case Morning:
		return "morning"
	case Day:
		return "day"
	case Evening:
		return "evening"
	default:
		return "night"
	}
}

// Text is the greeting shown on the dashboard.
func (g Greeting) Text() string {
	switch g {
	case Morning:
		return "Доброе утро"
	case Day:
		return "Добрый день"
	case Evening:
		return "Добрый вечер"
	default:
		return "Доброй ночи"
	}
}
