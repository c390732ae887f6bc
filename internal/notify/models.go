package notify

// Event describes one record-creation action. Produced once per action,
// consumed exactly once by the dispatcher; no retry state survives the
// hand-off.
type Event struct {
	RecordKind string            `json:"record_kind"`
	Fields     map[string]string `json:"fields"`
}

// Message is the composed outbound email handed to the mail transport.
type Message struct {
	Recipient string
	Subject   string
	HTMLBody  string
}
