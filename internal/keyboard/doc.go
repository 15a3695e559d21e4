// Package keyboard decodes the Cardputer's TCA8418 key matrix into key
// events.
//
// # Hand-off
//
// The controller pulls its interrupt line low whenever its event FIFO holds
// entries. The interrupt handler installed by Source only records a pending
// flag and fills a one-slot wake channel. A dedicated worker goroutine
// waits on that channel, sleeps for the debounce interval, then reads
// INT_STAT and drains KEY_EVENT_A until it returns 0:
//
//	interrupt -> pending=true, wake <- {} (non-blocking)
//	worker    -> pending=false, sleep 10ms, read INT_STAT,
//	             read KEY_EVENT_A until 0, write INT_STAT back
//
// # Raw events
//
// Each FIFO entry is one byte: bit 7 is 1 for press, bits 0-6 a 1-based key
// number. Numbers 1-40 cover the controller's native ten columns
// (row = (n-1)/10, col = (n-1)%10); numbers from 41 cover the four
// extension columns (row = (n-41)/10, col = (n-41)%10 + 10). Cells outside
// the matrix are dropped.
//
// # Characters
//
// Modifier positions are declared by role in the Matrix, not by position.
// Letters use their shifted character when exactly one of shift and caps
// lock is active; other printable keys use it only while shift is held.
// Modifier keys never carry a character.
//
// # Consuming events
//
//	src := keyboard.NewSource(bus, line)
//	if err := src.Start(ctx); err != nil {
//	    return err // *keyboard.InitError
//	}
//	events := src.Subscribe(ctx, 32)
//	for {
//	    select {
//	    case ev := <-events:
//	        handle(ev)
//	    case <-ctx.Done():
//	        return ctx.Err()
//	    }
//	}
package keyboard
