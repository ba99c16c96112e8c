// Package jdwp decodes JDWP Composite event packets, the asynchronous
// notifications a JVM sends its debugger when breakpoints fire, exceptions
// are thrown, threads start, classes load, and so on. Callers hand
// DecodeComposite the packet payload plus the identifier widths negotiated
// for the session and receive typed events in wire order.
//
// Usage:
//
//	sizes := jdwp.UniformIDSizes(8)
//	comp, err := jdwp.DecodeComposite(payload, sizes)
//	if err != nil {
//	    return err
//	}
//	for _, ev := range comp.Events {
//	    switch e := ev.(type) {
//	    case jdwp.Breakpoint:
//	        fmt.Printf("breakpoint in thread 0x%x at %s\n", e.Thread, e.Location)
//	    }
//	}
//
// Decoding is all or nothing: event entries carry no length prefix, so a
// single malformed entry makes the rest of the packet unrecoverable and the
// whole decode fails with an error locating the entry and byte offset.
//
// The package performs no I/O and holds no state between calls. An IDSizes
// value may be shared by any number of concurrent decodes.
package jdwp
