package model

// Issue is the input type consumed by the engine — a raw issue report as it
// arrives from a tracker. Never persisted by the engine.
type Issue struct {
	Title string `json:"title"`
	Body  string `json:"body"` // markdown, may contain code fences and links
	Repo  string `json:"repo"` // originating repository identifier, e.g. "golang/go"
}
