package websocket

// Queue exposes the outbound frame queue of a client to tests.
func Queue(c *Client) <-chan []byte {
	return c.send
}
