package notification

// Template names a message the dispatcher knows how to render.
type Template string

const (
	TemplateViolationWarning1 Template = "violation_warning_1"
	TemplateViolationWarning2 Template = "violation_warning_2"
	TemplateKeyReplaced       Template = "key_replaced"
)

// Notice is an unrendered message. The dispatcher renders it in the language
// of the reseller that sold the batch.
type Notice struct {
	Recipient       int64
	Template        Template
	Allowed         int
	Actual          int
	KeyCode         string
	SubscriptionURL string
	SupportURL      string
	// SkipParts resumes a long message after the parts already delivered.
	SkipParts int
}
