package addin

// ChatRoom is the metadata of the room the add-in is embedded in. Produced
// by the host on request, never mutated by the client.
type ChatRoom struct {
	Name        string `json:"name" yaml:"name"`
	Domain      string `json:"domain" yaml:"domain"`
	Description string `json:"description" yaml:"description"`
	Topic       string `json:"topic" yaml:"topic"`
}

// User is the metadata of a chat user.
type User struct {
	URI         string `json:"uri" yaml:"uri"`
	DisplayName string `json:"displayName" yaml:"displayName"`
}

// Dispatcher event names shared by both transports.
const (
	EventMessageReceived   = "messagereceived"
	EventBeforeMessageSend = "beforemessagesend"
	EventClosing           = "closing"
)
