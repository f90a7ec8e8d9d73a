package logg

// Structured field keys shared by every layer.
const (
	Layer       = "layer"
	Operation   = "op"
	Action      = "action"
	Selector    = "selector"
	Kind        = "selector_kind"
	DisplayName = "display_name"
	URL         = "url"
	TestName    = "test"
	RunID       = "run_id"
	Slot        = "browser_slot"
	Worker      = "worker"
	Timeout     = "timeout"
	Attempts    = "attempts"
)
