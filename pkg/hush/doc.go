// ABOUTME: High-level hush library API
// ABOUTME: Provides the Player that ties synthesis, playback and the sleep timer together
// Package hush provides the high-level API for the ambient noise player.
//
// A Player owns the audio graph, the noise synthesizer, the playback engine
// and the sleep timer. Every intent is serialized through the player's event
// loop, so Run must be running before intents are issued.
//
// Example:
//
//	p, err := hush.NewPlayer(hush.PlayerConfig{
//	    Sound:  noise.Pink,
//	    Volume: 40,
//	    OnStateChange: func(s hush.PlayerState) {
//	        log.Printf("%s %s", s.Status(), s.Remaining())
//	    },
//	})
//	go p.Run(ctx)
//	err = p.Play(noise.Pink)
//	err = p.ArmTimer(30)
package hush
