// ABOUTME: Hush remote control protocol package
// ABOUTME: Message types and a websocket client for controlling a player
// Package protocol implements the hush remote control protocol.
//
// Messages are JSON objects of the form {"type": ..., "payload": ...} sent
// over a websocket at /hush. Clients send intents; the player answers with
// its state after every change. No audio crosses the connection.
//
// Example:
//
//	client := protocol.NewClient(protocol.Config{
//	    ServerAddr: "bedroom.local:8928",
//	    ClientID:   uuid.New().String(),
//	    Name:       "phone",
//	})
//	err := client.Connect(ctx)
//	err = client.Play("rain")
//	state := <-client.States
package protocol
