package engine

// Handler receives server-side connection events.
type Handler interface {
	// OnConnect is called after the capacity check and before the
	// connection is registered. Returning false rejects it; a rejected
	// connection never reaches OnDisconnect.
	OnConnect(c *Conn) bool

	// OnReceive is called once per verified frame, in arrival order.
	// payload is only valid for the duration of the call.
	OnReceive(c *Conn, payload []byte)

	// OnDisconnect is called once for every admitted connection, before it
	// leaves the registry.
	OnDisconnect(c *Conn)
}

// HandlerFuncs adapts functions to Handler. Nil fields are no-ops; a nil
// Connect accepts every connection.
type HandlerFuncs struct {
	Connect    func(c *Conn) bool
	Receive    func(c *Conn, payload []byte)
	Disconnect func(c *Conn)
}

func (h HandlerFuncs) OnConnect(c *Conn) bool {
	if h.Connect == nil {
		return true
	}
	return h.Connect(c)
}

func (h HandlerFuncs) OnReceive(c *Conn, payload []byte) {
	if h.Receive != nil {
		h.Receive(c, payload)
	}
}

func (h HandlerFuncs) OnDisconnect(c *Conn) {
	if h.Disconnect != nil {
		h.Disconnect(c)
	}
}

// ClientHandler receives client-side connection events.
type ClientHandler interface {
	// OnConnected is called once the connection is established and reading.
	OnConnected(c *Client)

	// OnReceive is called once per frame, in arrival order.
	OnReceive(c *Client, payload []byte)

	// OnDisconnected is called once per established connection when it
	// closes, and once per failed connection attempt.
	OnDisconnected(c *Client)
}

// ClientHandlerFuncs adapts functions to ClientHandler.
type ClientHandlerFuncs struct {
	Connected    func(c *Client)
	Receive      func(c *Client, payload []byte)
	Disconnected func(c *Client)
}

func (h ClientHandlerFuncs) OnConnected(c *Client) {
	if h.Connected != nil {
		h.Connected(c)
	}
}

func (h ClientHandlerFuncs) OnReceive(c *Client, payload []byte) {
	if h.Receive != nil {
		h.Receive(c, payload)
	}
}

func (h ClientHandlerFuncs) OnDisconnected(c *Client) {
	if h.Disconnected != nil {
		h.Disconnected(c)
	}
}

// Compile-time interface satisfaction checks.
var (
	_ Handler       = HandlerFuncs{}
	_ ClientHandler = ClientHandlerFuncs{}
)
