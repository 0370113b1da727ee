package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"

	"go-pattern/ccbus"
	"go-pattern/midi"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}
	defer gomidi.CloseDriver()

	port := ""
	if len(os.Args) > 2 {
		port = os.Args[2]
	}

	switch os.Args[1] {
	case "list":
		listPorts()
	case "reset":
		withFeedback(port, func(fb *midi.Feedback) { fb.Reset() })
	case "sweep":
		withFeedback(port, sweepGates)
	case "poll":
		pollPort(port)
	default:
		usage()
	}
}

func usage() {
	fmt.Println("MIDI Feedback Test Scripts")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list          - List all MIDI output ports")
	fmt.Println("  reset <port>  - Zero every mapped controller")
	fmt.Println("  sweep <port>  - Walk a gate across the 12 voice CCs")
	fmt.Println("  poll <port>   - Report the port connecting/disconnecting")
}

func listPorts() {
	fmt.Println("=== MIDI Output Ports ===")
	fmt.Println("(waiting up to 3 seconds...)")

	names, err := midi.OutPortNames()
	if err != nil {
		fmt.Println("\nTIMEOUT! CoreMIDI is hung.")
		fmt.Println("Fix: sudo killall coreaudiod midiserver")
		return
	}
	for i, name := range names {
		fmt.Printf("  %d: %s\n", i, name)
	}
}

func withFeedback(port string, fn func(*midi.Feedback)) {
	if port == "" {
		usage()
		return
	}
	fb, err := midi.OpenFeedback(port, 0)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("Using output matching %q\n", port)
	fn(fb)
	fmt.Println("Done")
}

func sweepGates(fb *midi.Feedback) {
	for i := 0; i < 12; i++ {
		id := fmt.Sprintf("voice_gate_%d", i)
		fb.Apply(ccbus.Change{ControlID: id, Value: 1, Origin: ccbus.OriginScheduler})
		time.Sleep(150 * time.Millisecond)
		fb.Apply(ccbus.Change{ControlID: id, Value: 0, Origin: ccbus.OriginScheduler})
	}
}

func pollPort(port string) {
	if port == "" {
		usage()
		return
	}
	fmt.Printf("Polling for %q (ctrl+c to stop)...\n", port)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	mon := midi.NewPortMonitor(port)
	go mon.Run(ctx)
	for ev := range mon.Events() {
		switch ev.Type {
		case midi.PortConnected:
			fmt.Printf("+ %s\n", ev.Name)
		case midi.PortDisconnected:
			fmt.Printf("- %s\n", ev.Name)
		}
	}
}
