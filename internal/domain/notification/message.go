package notification

// Button is an inline keyboard button that opens a URL.
type Button struct {
	Text string
	URL  string
}

// Message is an HTML formatted Telegram message. Text longer than one
// Telegram message goes out in parts; SkipParts leading parts were delivered
// by an earlier attempt and are not sent again.
type Message struct {
	Recipient int64
	Text      string
	Buttons   [][]Button
	SkipParts int
}

// Delivery is the result of sending one Message. PartsSent counts the parts
// the recipient has received, including skipped ones.
type Delivery struct {
	Outcome   Outcome
	PartsSent int
}

// Result is what the dispatcher reports instead of an error.
type Result struct {
	Outcome   Outcome
	PartsSent int
	Channel   ChannelKind
	Err       error
}
