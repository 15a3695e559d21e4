// Package console exposes the device screen and keypad over a websocket so
// the configuration workflow can be driven from another machine.
//
// # Wire format
//
// Every websocket message is a JSON text frame:
//
//	{"type":"frame","frame":"..."}  server → client, the full screen
//	{"type":"key","key":"enter"}    client → server, one key tap
//	{"type":"error","error":"..."}  server → client, a rejected key
//
// Key names are those understood by the simulated keypad: "enter", "esc",
// "backspace", "tab", "space", "up", "down", or a single character.
//
// # Discovery
//
// A running console advertises itself over mDNS as "_cardputer._tcp" with
// TXT records carrying the build version. Browse lists consoles on the LAN.
//
// # Usage Example
//
//	hub := console.NewHub()
//	srv := console.NewServer(hub, keypad, console.Config{Port: 8787})
//	go srv.ListenAndServe(ctx)
//
//	c, err := console.Dial(ctx, "192.168.1.20:8787")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Close()
//	_ = c.SendKey("enter")
package console
